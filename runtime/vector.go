// Type-erased growable sequence with small-buffer optimization (spec.md 3,
// 4.D). Layout mirrors chic_rt.h's ChicVec; growth reuses the same
// allocate-then-populate-then-swap discipline as String and the default
// arena, generalizing the teacher's mcentral.go free-list growth from
// "spans of one size class" to "one buffer of a caller-declared element
// layout" (DESIGN.md).

package runtime

import (
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// VecInlineBytes is CHIC_RT_VEC_INLINE_BYTES.
const VecInlineBytes = 64

// RegionHandle is carried through the vector without interpretation
// (spec.md 9): a hint the host language may use to delegate allocation
// elsewhere via the installed vtable's context pointer.
type RegionHandle struct {
	Ptr unsafe.Pointer
}

// ConstPtr/MutPtr are the ABI's ValueConstPtr/ValueMutPtr: every element
// passed across a container boundary carries its own (size, align) so the
// callee can validate it against the container's elem layout.
type ConstPtr struct {
	Ptr   unsafe.Pointer
	Size  uintptr
	Align uintptr
}

type MutPtr struct {
	Ptr   unsafe.Pointer
	Size  uintptr
	Align uintptr
}

// ChicVec is the ABI's ChicVec struct. noGrow marks the "array" variant
// (spec.md 4.D): not part of chic_rt.h's field list (the array's
// conceptual immutability is otherwise implicit in how the host compiler
// calls it), but needed here since Vec and Array share one Go
// representation and this flag is the single source of truth for whether
// growth operations are allowed, the same role chic_rt.h gives uses_inline.
type ChicVec struct {
	ptr       unsafe.Pointer
	len       uintptr
	cap       uintptr
	elemSize  uintptr
	elemAlign uintptr
	dropFn    DropFn
	region    RegionHandle
	usesInl   bool
	inline    [VecInlineBytes]byte
	noGrow    bool
}

func (v *ChicVec) inlineCapacity() uintptr {
	if v.elemSize == 0 {
		return 0
	}
	return VecInlineBytes / v.elemSize
}

// fixup restores ptr == &inline[0] when uses_inline is set, mirroring
// ChicString.fixup's rationale (spec.md 9).
func (v *ChicVec) fixup() {
	if v.usesInl {
		v.ptr = unsafe.Pointer(&v.inline[0])
	}
}

func (v *ChicVec) dataPtr() unsafe.Pointer {
	v.fixup()
	return v.ptr
}

func newVec(elemSize, elemAlign uintptr, dropFn DropFn, region RegionHandle) ChicVec {
	var v ChicVec
	v.elemSize = elemSize
	v.elemAlign = elemAlign
	v.dropFn = dropFn
	v.region = region
	v.usesInl = true
	v.cap = v.inlineCapacity()
	v.fixup()
	return v
}

// NewVec is chic_rt_vec_new.
func NewVec(elemSize, elemAlign uintptr, dropFn DropFn) ChicVec {
	return newVec(elemSize, elemAlign, dropFn, RegionHandle{})
}

// NewVecInRegion is chic_rt_vec_new_in_region.
func NewVecInRegion(elemSize, elemAlign uintptr, dropFn DropFn, region RegionHandle) ChicVec {
	return newVec(elemSize, elemAlign, dropFn, region)
}

// VecWithCapacity is chic_rt_vec_with_capacity.
func VecWithCapacity(elemSize, elemAlign, capacity uintptr, dropFn DropFn) (ChicVec, VecError) {
	v := NewVec(elemSize, elemAlign, dropFn)
	if err := v.Reserve(capacity); err != VecSuccess {
		return ChicVec{}, err
	}
	return v, VecSuccess
}

// VecWithCapacityInRegion is chic_rt_vec_with_capacity_in_region.
func VecWithCapacityInRegion(elemSize, elemAlign, capacity uintptr, dropFn DropFn, region RegionHandle) (ChicVec, VecError) {
	v := NewVecInRegion(elemSize, elemAlign, dropFn, region)
	if err := v.Reserve(capacity); err != VecSuccess {
		return ChicVec{}, err
	}
	return v, VecSuccess
}

// Drop invokes the element drop on every live index, then frees the heap
// buffer and resets the struct (spec.md 4.D). A panicking drop is
// recovered so the remaining elements' backing memory is still released;
// the accumulated panics are reported via multierr instead of silently
// swallowing them (SPEC_FULL.md 4.D).
func (v *ChicVec) Drop() error {
	v.fixup()
	var combined error
	if v.dropFn != nil {
		data := v.dataPtr()
		for i := uintptr(0); i < v.len; i++ {
			combined = multierr.Append(combined, dropRecovered(v.dropFn, unsafe.Add(data, i*v.elemSize)))
		}
	}
	if !v.usesInl {
		Free(Ptr{Data: v.ptr, Size: v.cap * v.elemSize, Align: v.elemAlign})
	}
	elemSize, elemAlign, dropFn, region := v.elemSize, v.elemAlign, v.dropFn, v.region
	*v = ChicVec{elemSize: elemSize, elemAlign: elemAlign, dropFn: dropFn, region: region, usesInl: true}
	v.fixup()
	if combined != nil {
		logWarn("vector drop recovered element panics", "err", combined)
	}
	return combined
}

func dropRecovered(fn DropFn, p unsafe.Pointer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("element drop panicked: %v", r)
		}
	}()
	fn(p)
	return nil
}

// Clone deep-copies v (spec.md 4.D).
func (v *ChicVec) Clone() (ChicVec, VecError) {
	out, err := VecWithCapacity(v.elemSize, v.elemAlign, v.len, v.dropFn)
	if err != VecSuccess {
		return ChicVec{}, err
	}
	copyBytes(out.dataPtr(), v.dataPtr(), v.len*v.elemSize)
	out.len = v.len
	return out, VecSuccess
}

// Reserve ensures capacity >= len+additional using the same growth policy
// as String (spec.md 4.D: "Identical policy to String").
func (v *ChicVec) Reserve(additional uintptr) VecError {
	v.fixup()
	if v.noGrow {
		return VecCapacityOverflow
	}
	want := v.len + additional
	if want < v.len {
		return VecCapacityOverflow
	}
	if want <= v.cap {
		return VecSuccess
	}
	newCap := want
	if d := v.cap * 2; d > newCap {
		newCap = d
	}
	if ic := v.inlineCapacity(); ic+1 > newCap {
		newCap = ic + 1
	}
	if newCap < want {
		return VecCapacityOverflow
	}
	needBytes := newCap * v.elemSize
	if v.elemSize != 0 && needBytes/v.elemSize != newCap {
		return VecCapacityOverflow
	}
	p := Alloc(needBytes, v.elemAlign)
	if p.Data == nil {
		return VecAllocationFailed
	}
	copyBytes(p.Data, v.dataPtr(), v.len*v.elemSize)
	if !v.usesInl {
		Free(Ptr{Data: v.ptr, Size: v.cap * v.elemSize, Align: v.elemAlign})
	}
	v.ptr = p.Data
	v.cap = newCap
	v.usesInl = false
	logDebug("vector grew past inline", "new_capacity", newCap)
	return VecSuccess
}

// ShrinkToFit releases unused capacity back to the allocator.
func (v *ChicVec) ShrinkToFit() VecError {
	v.fixup()
	if v.usesInl || v.len == v.cap {
		return VecSuccess
	}
	if v.len <= v.inlineCapacity() {
		old := Ptr{Data: v.ptr, Size: v.cap * v.elemSize, Align: v.elemAlign}
		oldData, oldLen := v.ptr, v.len
		v.usesInl = true
		v.cap = v.inlineCapacity()
		v.fixup()
		copyBytes(v.ptr, oldData, oldLen*v.elemSize)
		v.len = oldLen
		Free(old)
		return VecSuccess
	}
	p := Alloc(v.len*v.elemSize, v.elemAlign)
	if p.Data == nil {
		return VecAllocationFailed
	}
	copyBytes(p.Data, v.ptr, v.len*v.elemSize)
	Free(Ptr{Data: v.ptr, Size: v.cap * v.elemSize, Align: v.elemAlign})
	v.ptr = p.Data
	v.cap = v.len
	return VecSuccess
}

func (v *ChicVec) checkElem(c ConstPtr) VecError {
	if c.Size != v.elemSize || c.Align != v.elemAlign || (c.Size != 0 && c.Ptr == nil) {
		return VecInvalidPointer
	}
	return VecSuccess
}

// Push is chic_rt_vec_push.
func (v *ChicVec) Push(value ConstPtr) VecError {
	if err := v.checkElem(value); err != VecSuccess {
		return err
	}
	if v.noGrow && v.len == v.cap {
		return VecCapacityOverflow
	}
	if err := v.Reserve(1); err != VecSuccess {
		return err
	}
	copyBytes(unsafe.Add(v.dataPtr(), v.len*v.elemSize), value.Ptr, v.elemSize)
	v.len++
	return VecSuccess
}

// Pop is chic_rt_vec_pop.
func (v *ChicVec) Pop(out MutPtr) VecError {
	if v.len == 0 {
		return VecOutOfBounds
	}
	if out.Size != v.elemSize || out.Align != v.elemAlign {
		return VecInvalidPointer
	}
	v.len--
	copyBytes(out.Ptr, unsafe.Add(v.dataPtr(), v.len*v.elemSize), v.elemSize)
	return VecSuccess
}

// Insert is chic_rt_vec_insert: shift the tail right by one slot.
func (v *ChicVec) Insert(index uintptr, value ConstPtr) VecError {
	if index > v.len {
		return VecOutOfBounds
	}
	if err := v.checkElem(value); err != VecSuccess {
		return err
	}
	if v.noGrow && v.len == v.cap {
		return VecCapacityOverflow
	}
	if err := v.Reserve(1); err != VecSuccess {
		return err
	}
	data := v.dataPtr()
	if index < v.len {
		src := unsafe.Add(data, index*v.elemSize)
		dst := unsafe.Add(data, (index+1)*v.elemSize)
		copyBytesOverlapping(dst, src, (v.len-index)*v.elemSize)
	}
	copyBytes(unsafe.Add(data, index*v.elemSize), value.Ptr, v.elemSize)
	v.len++
	return VecSuccess
}

// Remove is chic_rt_vec_remove: shift the tail left by one slot.
func (v *ChicVec) Remove(index uintptr, out MutPtr) VecError {
	if v.noGrow {
		return VecCapacityOverflow
	}
	if index >= v.len {
		return VecOutOfBounds
	}
	if out.Size != v.elemSize || out.Align != v.elemAlign {
		return VecInvalidPointer
	}
	data := v.dataPtr()
	copyBytes(out.Ptr, unsafe.Add(data, index*v.elemSize), v.elemSize)
	if index+1 < v.len {
		dst := unsafe.Add(data, index*v.elemSize)
		src := unsafe.Add(data, (index+1)*v.elemSize)
		copyBytesOverlapping(dst, src, (v.len-index-1)*v.elemSize)
	}
	v.len--
	return VecSuccess
}

// SwapRemove is chic_rt_vec_swap_remove: O(1), destroys insertion order
// (spec.md 4.D).
func (v *ChicVec) SwapRemove(index uintptr, out MutPtr) VecError {
	if v.noGrow {
		return VecCapacityOverflow
	}
	if index >= v.len {
		return VecOutOfBounds
	}
	if out.Size != v.elemSize || out.Align != v.elemAlign {
		return VecInvalidPointer
	}
	data := v.dataPtr()
	copyBytes(out.Ptr, unsafe.Add(data, index*v.elemSize), v.elemSize)
	last := v.len - 1
	if index != last {
		copyBytes(unsafe.Add(data, index*v.elemSize), unsafe.Add(data, last*v.elemSize), v.elemSize)
	}
	v.len--
	return VecSuccess
}

// Truncate drops every element past new_len, running their drops.
func (v *ChicVec) Truncate(newLen uintptr) VecError {
	if newLen >= v.len {
		return VecSuccess
	}
	if v.dropFn != nil {
		data := v.dataPtr()
		for i := newLen; i < v.len; i++ {
			InvokeDrop(v.dropFn, unsafe.Add(data, i*v.elemSize))
		}
	}
	v.len = newLen
	return VecSuccess
}

// Clear is Truncate(0).
func (v *ChicVec) Clear() VecError { return v.Truncate(0) }

// SetLen is chic_rt_vec_set_len: a raw length override, the caller's
// responsibility per spec.md (it is used after writing elements directly
// through a data pointer).
func (v *ChicVec) SetLen(newLen uintptr) VecError {
	if newLen > v.cap {
		return VecLengthOverflow
	}
	v.len = newLen
	return VecSuccess
}

// IntoArray is chic_rt_vec_into_array: moves ownership when length==capacity,
// else shrinks first (spec.md 4.D). Inline storage has a fixed slot count,
// so a shorter vector is moved into an exact-length heap buffer.
func (v *ChicVec) IntoArray() (ChicVec, VecError) {
	if v.len != v.cap {
		if err := v.ShrinkToFit(); err != VecSuccess {
			return ChicVec{}, err
		}
	}
	if v.len != v.cap {
		p := Alloc(v.len*v.elemSize, v.elemAlign)
		if p.Failed() {
			return ChicVec{}, VecAllocationFailed
		}
		copyBytes(p.Data, v.dataPtr(), v.len*v.elemSize)
		if !v.usesInl {
			Free(Ptr{Data: v.ptr, Size: v.cap * v.elemSize, Align: v.elemAlign})
		}
		v.ptr, v.cap, v.usesInl = p.Data, v.len, false
	}
	out := *v
	out.noGrow = true
	out.fixup()
	*v = ChicVec{elemSize: v.elemSize, elemAlign: v.elemAlign, dropFn: v.dropFn, region: v.region, usesInl: true}
	v.fixup()
	return out, VecSuccess
}

// ArrayIntoVec is chic_rt_array_into_vec: widens representation (lifts the
// growth restriction).
func ArrayIntoVec(a *ChicVec) ChicVec {
	out := *a
	out.noGrow = false
	out.fixup()
	*a = ChicVec{elemSize: a.elemSize, elemAlign: a.elemAlign, dropFn: a.dropFn, region: a.region, usesInl: true}
	a.fixup()
	return out
}

// VecCopyToArray / ArrayCopyToVec (chic_rt_vec_copy_to_array /
// chic_rt_array_copy_to_vec) clone instead of moving.
func VecCopyToArray(src *ChicVec) (ChicVec, VecError) {
	out, err := src.Clone()
	if err != VecSuccess {
		return ChicVec{}, err
	}
	out.noGrow = true
	return out, VecSuccess
}

func ArrayCopyToVec(src *ChicVec) (ChicVec, VecError) {
	out, err := src.Clone()
	out.noGrow = false
	return out, err
}

func (v *ChicVec) Len() uintptr      { return v.len }
func (v *ChicVec) Capacity() uintptr { return v.cap }
func (v *ChicVec) IsEmpty() bool     { return v.len == 0 }

// View is chic_rt_vec_view / chic_rt_array_view.
type VecView struct {
	Data      unsafe.Pointer
	Len       uintptr
	ElemSize  uintptr
	ElemAlign uintptr
}

func (v *ChicVec) View() VecView {
	return VecView{Data: v.dataPtr(), Len: v.len, ElemSize: v.elemSize, ElemAlign: v.elemAlign}
}

// Data / DataMut are chic_rt_vec_data / chic_rt_vec_data_mut.
func (v *ChicVec) Data() ConstPtr {
	return ConstPtr{Ptr: v.dataPtr(), Size: v.elemSize, Align: v.elemAlign}
}

func (v *ChicVec) DataMut() MutPtr {
	return MutPtr{Ptr: v.dataPtr(), Size: v.elemSize, Align: v.elemAlign}
}

// PtrAt is chic_rt_vec_ptr_at / chic_rt_array_ptr_at.
func (v *ChicVec) PtrAt(index uintptr) MutPtr {
	if index >= v.len {
		return MutPtr{}
	}
	return MutPtr{Ptr: unsafe.Add(v.dataPtr(), index*v.elemSize), Size: v.elemSize, Align: v.elemAlign}
}

// --- iteration (spec.md 4.D) ---

// VecIter is chic_rt_vec_iter's cursor.
type VecIter struct {
	data      unsafe.Pointer
	index     uintptr
	len       uintptr
	elemSize  uintptr
	elemAlign uintptr
}

func (v *ChicVec) Iter() VecIter {
	return VecIter{data: v.dataPtr(), len: v.len, elemSize: v.elemSize, elemAlign: v.elemAlign}
}

// IterNext copies the element into out (chic_rt_vec_iter_next).
func (it *VecIter) IterNext(out MutPtr) VecError {
	if it.index == it.len {
		return VecIterationDone
	}
	if out.Size != it.elemSize || out.Align != it.elemAlign {
		return VecInvalidPointer
	}
	copyBytes(out.Ptr, unsafe.Add(it.data, it.index*it.elemSize), it.elemSize)
	it.index++
	return VecSuccess
}

// IterNextPtr yields a borrowed pointer (chic_rt_vec_iter_next_ptr).
func (it *VecIter) IterNextPtr() ConstPtr {
	if it.index == it.len {
		return ConstPtr{}
	}
	p := ConstPtr{Ptr: unsafe.Add(it.data, it.index*it.elemSize), Size: it.elemSize, Align: it.elemAlign}
	it.index++
	return p
}

// copyBytesOverlapping handles the memmove-equivalent semantics Insert/
// Remove need when source and destination ranges overlap.
func copyBytesOverlapping(dst, src unsafe.Pointer, n uintptr) {
	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	if uintptr(dst) < uintptr(src) {
		copy(d, s)
		return
	}
	for i := int(n) - 1; i >= 0; i-- {
		d[i] = s[i]
	}
}
