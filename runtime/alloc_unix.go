//go:build !windows

// The arena's OS-reservation layer. The teacher's malloc.go describes
// sysAlloc/sysReserve/sysFree as platform helpers without implementing them
// in Go (they were hand-written assembly/C in the real runtime); this is the
// concrete implementation, backed by golang.org/x/sys/unix's anonymous
// mmap — a real dependency present throughout the retrieved corpus.

package runtime

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func mmapAnon(size uintptr) (unsafe.Pointer, bool) {
	size = roundUp(size, pageSizeConst)
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		logWarn("mmap failed", "size", size, "err", err)
		return nil, false
	}
	return unsafe.Pointer(&b[0]), true
}

func munmapAnon(p unsafe.Pointer, size uintptr) {
	b := unsafe.Slice((*byte)(p), size)
	if err := unix.Munmap(b); err != nil {
		logWarn("munmap failed", "size", size, "err", err)
	}
}
