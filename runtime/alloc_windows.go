//go:build windows

package runtime

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func mmapAnon(size uintptr) (unsafe.Pointer, bool) {
	size = roundUp(size, pageSizeConst)
	addr, err := windows.VirtualAlloc(0, size, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		logWarn("VirtualAlloc failed", "size", size, "err", err)
		return nil, false
	}
	return unsafe.Pointer(addr), true
}

func munmapAnon(p unsafe.Pointer, size uintptr) {
	if err := windows.VirtualFree(uintptr(p), 0, windows.MEM_RELEASE); err != nil {
		logWarn("VirtualFree failed", "size", size, "err", err)
	}
}
