// Reference-counted shared cells (spec.md 4.G): a heap block of
// (strong, weak, type_id, drop, payload_size, payload_align) followed by
// the payload at its alignment boundary. Two flavors share this layout —
// Arc/Weak use go.uber.org/atomic.Uint64 for cross-thread counts (the
// Relaxed-increment / Release-decrement / Acquire-fence sequence spec.md
// 4.G and 5 describe collapses to one call site instead of scattered
// sync/atomic fences, grounded in the corpus's own use of go.uber.org/atomic
// for counters); Rc/WeakRc use plain uint64 fields since single-thread
// handles need no ordering at all.

package runtime

import (
	"unsafe"

	"go.uber.org/atomic"
)

// TypeID is the opaque 64-bit tag the host language attaches to a
// shared-cell block for dynamic type recovery (spec.md glossary).
type TypeID = uint64

const rcHeaderAlign = unsafe.Alignof(rcHeader{})

// --- atomic flavor (Arc / Weak) ---

type rcHeader struct {
	strong     atomic.Uint64
	weak       atomic.Uint64
	typeID     TypeID
	dropFn     DropFn
	payloadSize  uintptr
	payloadAlign uintptr
}

// Arc is the ABI's opaque shared-cell handle for the atomic flavor: a
// single pointer word to the header. A nil Arc means uninitialized/failed.
type Arc struct {
	block unsafe.Pointer
}

func (a Arc) header() *rcHeader { return (*rcHeader)(a.block) }

func payloadOffset(payloadAlign uintptr) uintptr {
	return roundUpPtr(unsafe.Sizeof(rcHeader{}), payloadAlign)
}

func (a Arc) payload() unsafe.Pointer {
	h := a.header()
	return unsafe.Add(a.block, payloadOffset(h.payloadAlign))
}

// NewArc is chic_rt_arc_new: allocates header+payload, copies the payload
// in, and sets strong=1, weak=1 (the strong side's one implicit weak
// reference keeps the header alive while any strong handle exists).
func NewArc(payload ConstPtr, dropFn DropFn, typeID TypeID) (Arc, SharedError) {
	offset := payloadOffset(payload.Align)
	blockSize := offset + payload.Size
	align := rcHeaderAlign
	if payload.Align > align {
		align = payload.Align
	}
	p := Alloc(blockSize, align)
	if p.Data == nil {
		return Arc{}, SharedAllocationFailed
	}
	h := (*rcHeader)(p.Data)
	*h = rcHeader{typeID: typeID, dropFn: dropFn, payloadSize: payload.Size, payloadAlign: payload.Align}
	h.strong.Store(1)
	h.weak.Store(1)
	copyBytes(unsafe.Add(p.Data, offset), payload.Ptr, payload.Size)
	return Arc{block: p.Data}, SharedSuccess
}

// Clone is chic_rt_arc_clone: increments strong with Relaxed ordering.
func (a Arc) Clone() (Arc, SharedError) {
	if a.block == nil {
		return Arc{}, SharedInvalidPointer
	}
	h := a.header()
	if h.strong.Load() == ^uint64(0) {
		return Arc{}, SharedOverflow
	}
	h.strong.Inc()
	return a, SharedSuccess
}

// Drop is chic_rt_arc_drop: Release decrement; on reaching zero, an
// Acquire fence (satisfied here by the atomic Dec itself, which Go makes
// sequentially consistent), the payload drop runs, then the implicit weak
// reference is released.
func (a Arc) Drop() SharedError {
	if a.block == nil {
		return SharedInvalidPointer
	}
	h := a.header()
	if h.strong.Dec() == 0 {
		InvokeDrop(h.dropFn, a.payload())
		a.releaseWeak()
	}
	return SharedSuccess
}

// Get is chic_rt_arc_get: a borrowed pointer to the payload, valid while
// this handle exists.
func (a Arc) Get() unsafe.Pointer {
	if a.block == nil {
		return nil
	}
	return a.payload()
}

// GetMut is chic_rt_arc_get_mut: mutable access only when strong==1 and
// weak==1 (no aliased mutation).
func (a Arc) GetMut() unsafe.Pointer {
	if a.block == nil {
		return nil
	}
	h := a.header()
	if h.strong.Load() == 1 && h.weak.Load() == 1 {
		return a.payload()
	}
	return nil
}

// Downgrade is chic_rt_arc_downgrade: increments weak, returns a Weak
// handle over the same block.
func (a Arc) Downgrade() (Weak, SharedError) {
	if a.block == nil {
		return Weak{}, SharedInvalidPointer
	}
	h := a.header()
	if h.weak.Load() == ^uint64(0) {
		return Weak{}, SharedOverflow
	}
	h.weak.Inc()
	return Weak{block: a.block}, SharedSuccess
}

func (a Arc) releaseWeak() {
	h := a.header()
	if h.weak.Dec() == 0 {
		Free(Ptr{Data: a.block, Size: payloadOffset(h.payloadAlign) + h.payloadSize, Align: rcHeaderAlign})
	}
}

// Weak is the ABI's weak handle for the atomic flavor.
type Weak struct {
	block unsafe.Pointer
}

func (w Weak) header() *rcHeader { return (*rcHeader)(w.block) }

// Clone is chic_rt_weak_clone.
func (w Weak) Clone() (Weak, SharedError) {
	if w.block == nil {
		return Weak{}, SharedInvalidPointer
	}
	h := w.header()
	if h.weak.Load() == ^uint64(0) {
		return Weak{}, SharedOverflow
	}
	h.weak.Inc()
	return w, SharedSuccess
}

// Drop is chic_rt_weak_drop: decrements weak, frees the block if zero.
func (w Weak) Drop() SharedError {
	if w.block == nil {
		return SharedInvalidPointer
	}
	h := w.header()
	if h.weak.Dec() == 0 {
		Free(Ptr{Data: w.block, Size: payloadOffset(h.payloadAlign) + h.payloadSize, Align: rcHeaderAlign})
	}
	return SharedSuccess
}

// Upgrade is chic_rt_weak_upgrade: compare-and-increment strong, returning
// a strong handle on success or InvalidPointer if the payload is already
// gone.
func (w Weak) Upgrade() (Arc, SharedError) {
	if w.block == nil {
		return Arc{}, SharedInvalidPointer
	}
	h := w.header()
	for {
		cur := h.strong.Load()
		if cur == 0 {
			return Arc{}, SharedInvalidPointer
		}
		if h.strong.CAS(cur, cur+1) {
			return Arc{block: w.block}, SharedSuccess
		}
	}
}

// --- non-atomic flavor (Rc / WeakRc) ---

type rcHeaderPlain struct {
	strong       uint64
	weak         uint64
	typeID       TypeID
	dropFn       DropFn
	payloadSize  uintptr
	payloadAlign uintptr
}

const rcPlainHeaderAlign = unsafe.Alignof(rcHeaderPlain{})

// Rc is the single-thread strong handle.
type Rc struct {
	block unsafe.Pointer
}

func (r Rc) header() *rcHeaderPlain { return (*rcHeaderPlain)(r.block) }

func payloadOffsetPlain(payloadAlign uintptr) uintptr {
	return roundUpPtr(unsafe.Sizeof(rcHeaderPlain{}), payloadAlign)
}

func (r Rc) payload() unsafe.Pointer {
	h := r.header()
	return unsafe.Add(r.block, payloadOffsetPlain(h.payloadAlign))
}

// NewRc is chic_rt_rc_new.
func NewRc(payload ConstPtr, dropFn DropFn, typeID TypeID) (Rc, SharedError) {
	offset := payloadOffsetPlain(payload.Align)
	blockSize := offset + payload.Size
	align := rcPlainHeaderAlign
	if payload.Align > align {
		align = payload.Align
	}
	p := Alloc(blockSize, align)
	if p.Data == nil {
		return Rc{}, SharedAllocationFailed
	}
	h := (*rcHeaderPlain)(p.Data)
	*h = rcHeaderPlain{strong: 1, weak: 1, typeID: typeID, dropFn: dropFn, payloadSize: payload.Size, payloadAlign: payload.Align}
	copyBytes(unsafe.Add(p.Data, offset), payload.Ptr, payload.Size)
	return Rc{block: p.Data}, SharedSuccess
}

// Clone is chic_rt_rc_clone.
func (r Rc) Clone() (Rc, SharedError) {
	if r.block == nil {
		return Rc{}, SharedInvalidPointer
	}
	h := r.header()
	if h.strong == ^uint64(0) {
		return Rc{}, SharedOverflow
	}
	h.strong++
	return r, SharedSuccess
}

// Drop is chic_rt_rc_drop.
func (r Rc) Drop() SharedError {
	if r.block == nil {
		return SharedInvalidPointer
	}
	h := r.header()
	h.strong--
	if h.strong == 0 {
		InvokeDrop(h.dropFn, r.payload())
		r.releaseWeak()
	}
	return SharedSuccess
}

// Get is chic_rt_rc_get.
func (r Rc) Get() unsafe.Pointer {
	if r.block == nil {
		return nil
	}
	return r.payload()
}

// GetMut is chic_rt_rc_get_mut.
func (r Rc) GetMut() unsafe.Pointer {
	if r.block == nil {
		return nil
	}
	h := r.header()
	if h.strong == 1 && h.weak == 1 {
		return r.payload()
	}
	return nil
}

// Downgrade is chic_rt_rc_downgrade.
func (r Rc) Downgrade() (WeakRc, SharedError) {
	if r.block == nil {
		return WeakRc{}, SharedInvalidPointer
	}
	h := r.header()
	if h.weak == ^uint64(0) {
		return WeakRc{}, SharedOverflow
	}
	h.weak++
	return WeakRc{block: r.block}, SharedSuccess
}

func (r Rc) releaseWeak() {
	h := r.header()
	h.weak--
	if h.weak == 0 {
		Free(Ptr{Data: r.block, Size: payloadOffsetPlain(h.payloadAlign) + h.payloadSize, Align: rcPlainHeaderAlign})
	}
}

// WeakRc is the single-thread weak handle.
type WeakRc struct {
	block unsafe.Pointer
}

func (w WeakRc) header() *rcHeaderPlain { return (*rcHeaderPlain)(w.block) }

// Clone is chic_rt_weakrc_clone.
func (w WeakRc) Clone() (WeakRc, SharedError) {
	if w.block == nil {
		return WeakRc{}, SharedInvalidPointer
	}
	h := w.header()
	if h.weak == ^uint64(0) {
		return WeakRc{}, SharedOverflow
	}
	h.weak++
	return w, SharedSuccess
}

// Drop is chic_rt_weakrc_drop.
func (w WeakRc) Drop() SharedError {
	if w.block == nil {
		return SharedInvalidPointer
	}
	h := w.header()
	h.weak--
	if h.weak == 0 {
		Free(Ptr{Data: w.block, Size: payloadOffsetPlain(h.payloadAlign) + h.payloadSize, Align: rcPlainHeaderAlign})
	}
	return SharedSuccess
}

// Upgrade is chic_rt_weakrc_upgrade.
func (w WeakRc) Upgrade() (Rc, SharedError) {
	if w.block == nil {
		return Rc{}, SharedInvalidPointer
	}
	h := w.header()
	if h.strong == 0 {
		return Rc{}, SharedInvalidPointer
	}
	h.strong++
	return Rc{block: w.block}, SharedSuccess
}
