// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Default allocator: a size-classed free list carved out of OS pages,
// adapted from the teacher's mcentral/msize discipline (runtime/mcentral.go,
// runtime/msize.go). Small requests are rounded up to the nearest size class
// and served from that class's free list; anything above the largest class,
// or any alignment wider than a page, is a "large object" served directly by
// its own page-granular OS mapping (runtime/malloc.go: "Allocating and
// freeing a large object uses the page heap directly, bypassing the MCache
// and MCentral free lists").
//
// This is a deliberate simplification of the teacher's full MHeap: no
// per-thread MCache, no sweep generations, a handful of size classes instead
// of 67. It keeps the allocate-then-populate-then-swap failure-atomicity
// discipline spec.md 7 requires without reproducing a moving-GC-oriented
// bitmap+spans layout this package has no use for (DESIGN.md).

package runtime

import (
	"sync"
	"unsafe"
)

const (
	arenaPageSize  = 1 << 16 // 64K chunk carved into same-class slots
	largeThreshold = 4096    // requests above this, or aligns above it, go direct
)

// sizeClasses mirrors msize.go's class_to_size table in spirit: above 16
// bytes, round-up to the next class adds less than half the requested size.
var sizeClasses = [...]uintptr{
	8, 16, 24, 32, 48, 64, 96, 128, 192, 256,
	384, 512, 768, 1024, 1536, 2048, 3072, 4096,
}

// SizeClasses exposes the default allocator's size-class table to callers
// outside this package (the chicrtctl harness).
func SizeClasses() []uintptr {
	out := make([]uintptr, len(sizeClasses))
	copy(out, sizeClasses[:])
	return out
}

// classFor returns the smallest size class able to hold size bytes aligned
// to align, or -1 if none fits (caller should use the large-object path).
func classFor(size, align uintptr) int {
	for i, s := range sizeClasses {
		if s < size {
			continue
		}
		if s%align == 0 {
			return i
		}
	}
	return -1
}

type largeAlloc struct {
	mmapBase unsafe.Pointer
	mmapLen  uintptr
}

type arena struct {
	mu        sync.Mutex
	freeLists [len(sizeClasses)][]unsafe.Pointer
	large     map[uintptr]largeAlloc // keyed by the pointer handed to the caller
}

var defaultArena = &arena{large: make(map[uintptr]largeAlloc)}

func defaultVTable() VTable {
	return VTable{
		Context:     unsafe.Pointer(defaultArena),
		Alloc:       arenaAlloc,
		AllocZeroed: arenaAllocZeroed,
		Realloc:     arenaRealloc,
		Free:        arenaFree,
	}
}

func arenaFromCtx(ctx unsafe.Pointer) *arena { return (*arena)(ctx) }

func (a *arena) refillClass(idx int) bool {
	classSize := sizeClasses[idx]
	base, ok := mmapAnon(arenaPageSize)
	if !ok {
		return false
	}
	n := arenaPageSize / classSize
	slots := make([]unsafe.Pointer, 0, n)
	for i := uintptr(0); i < n; i++ {
		slots = append(slots, unsafe.Add(base, i*classSize))
	}
	a.freeLists[idx] = append(a.freeLists[idx], slots...)
	return true
}

func (a *arena) allocSlot(size, align uintptr) Ptr {
	idx := classFor(size, align)
	if idx < 0 || size > largeThreshold || align > largeThreshold {
		return a.allocLarge(size, align)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.freeLists[idx]) == 0 {
		if !a.refillClass(idx) {
			logWarn("arena refill failed", "class", sizeClasses[idx])
			return Ptr{Align: align}
		}
	}
	n := len(a.freeLists[idx])
	p := a.freeLists[idx][n-1]
	a.freeLists[idx] = a.freeLists[idx][:n-1]
	return Ptr{Data: p, Size: sizeClasses[idx], Align: align}
}

func (a *arena) allocLarge(size, align uintptr) Ptr {
	// Over-allocate by align so we can hand back an aligned interior pointer,
	// the same bump-and-round trick malloc.go's sysAlloc commentary
	// describes for page-granular reservations.
	total := roundUp(size, pageSizeConst) + align
	base, ok := mmapAnon(total)
	if !ok {
		return Ptr{Align: align}
	}
	aligned := unsafe.Pointer(roundUpPtr(uintptr(base), align))
	a.mu.Lock()
	a.large[uintptr(aligned)] = largeAlloc{mmapBase: base, mmapLen: total}
	a.mu.Unlock()
	return Ptr{Data: aligned, Size: size, Align: align}
}

func arenaAlloc(ctx unsafe.Pointer, size, align uintptr) Ptr {
	return arenaFromCtx(ctx).allocSlot(size, align)
}

func arenaAllocZeroed(ctx unsafe.Pointer, size, align uintptr) Ptr {
	p := arenaFromCtx(ctx).allocSlot(size, align)
	if p.Data != nil {
		zeroBytes(p.Data, size)
	}
	return p
}

func arenaRealloc(ctx unsafe.Pointer, existing Ptr, oldSize, newSize, align uintptr) Ptr {
	a := arenaFromCtx(ctx)
	fresh := a.allocSlot(newSize, align)
	if fresh.Data == nil {
		return fresh
	}
	n := oldSize
	if newSize < n {
		n = newSize
	}
	copyBytes(fresh.Data, existing.Data, n)
	a.freeOne(existing)
	return fresh
}

func (a *arena) freeOne(p Ptr) {
	if p.Data == nil {
		return
	}
	a.mu.Lock()
	if la, ok := a.large[uintptr(p.Data)]; ok {
		delete(a.large, uintptr(p.Data))
		a.mu.Unlock()
		munmapAnon(la.mmapBase, la.mmapLen)
		return
	}
	defer a.mu.Unlock()
	idx := classFor(p.Size, p.Align)
	if idx < 0 {
		// Shouldn't happen: every slot-path allocation came from a class.
		return
	}
	a.freeLists[idx] = append(a.freeLists[idx], p.Data)
}

func arenaFree(ctx unsafe.Pointer, ptr Ptr) {
	arenaFromCtx(ctx).freeOne(ptr)
}

func roundUp(n, multiple uintptr) uintptr {
	if multiple == 0 {
		return n
	}
	return (n + multiple - 1) / multiple * multiple
}

func roundUpPtr(p, align uintptr) uintptr {
	return (p + align - 1) &^ (align - 1)
}
