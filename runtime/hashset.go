// Open-addressed hash set with triangular probing and tombstones (spec.md
// 4.E). The probe sequence and 87.5% load-factor resize threshold are
// grounded on the teacher's mcentral.go free-list growth discipline
// generalized from size classes to buckets: grow by
// allocate-new-table -> rehash-every-live-entry -> free-old-table, never
// mutating the live table in place mid-resize (DESIGN.md).

package runtime

import (
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

type bucketState uint8

const (
	bucketEmpty bucketState = iota
	bucketOccupied
	bucketTombstone
)

type hashBucket struct {
	state bucketState
	hash  uint64
}

// ChicHashSet is the ABI's ChicHashSet struct.
type ChicHashSet struct {
	buckets   []hashBucket
	data      unsafe.Pointer // entrySize * len(buckets) bytes, parallel to buckets
	entrySize uintptr
	entryAlign uintptr
	count     uintptr // occupied, not counting tombstones
	live      uintptr // occupied + tombstones, i.e. slots that count against load factor
	dropFn    DropFn
	eqFn      EqFn
}

const hashSetInitialCapacity = 8

// DefaultHash64 is chic_rt_hash_bytes: the runtime's own default hasher for
// callers that don't supply one, backed by xxhash (no suitable hash
// function existed in the standard library that the rest of the corpus
// already depended on, and cespare/xxhash/v2 appears in the retrieved
// corpus's own go.sum — DESIGN.md).
func DefaultHash64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// NewHashSet is chic_rt_hashset_new. The set is hash-function-agnostic: every
// operation below takes a caller-supplied precomputed hash rather than
// storing and invoking a hasher itself (spec.md 4.E; chic_rt.h's hashset
// operations all take an explicit `uint64_t hash`). Callers needing a default
// hasher can call DefaultHash64 themselves before calling in.
func NewHashSet(entrySize, entryAlign uintptr, dropFn DropFn, eqFn EqFn) ChicHashSet {
	return ChicHashSet{entrySize: entrySize, entryAlign: entryAlign, dropFn: dropFn, eqFn: eqFn}
}

func (h *ChicHashSet) capacity() uintptr { return uintptr(len(h.buckets)) }

func (h *ChicHashSet) entryAt(i uintptr) unsafe.Pointer {
	return unsafe.Add(h.data, i*h.entrySize)
}

func (h *ChicHashSet) allocTable(capacity uintptr) (Ptr, HashSetError) {
	if capacity == 0 {
		return Ptr{}, HashSetSuccess
	}
	need := capacity * h.entrySize
	if h.entrySize != 0 && need/h.entrySize != capacity {
		return Ptr{}, HashSetCapacityOverflow
	}
	p := Alloc(need, h.entryAlign)
	if p.Data == nil && need != 0 {
		return Ptr{}, HashSetAllocationFailed
	}
	return p, HashSetSuccess
}

// resize grows the table to at least newCapacity (a power of two),
// rehashing every occupied bucket and dropping every tombstone.
func (h *ChicHashSet) resize(newCapacity uintptr) HashSetError {
	if newCapacity < hashSetInitialCapacity {
		newCapacity = hashSetInitialCapacity
	}
	newCapacity = nextPow2(newCapacity)

	p, err := h.allocTable(newCapacity)
	if err != HashSetSuccess {
		return err
	}
	newBuckets := make([]hashBucket, newCapacity)

	oldBuckets, oldData, oldEntrySize := h.buckets, h.data, h.entrySize
	oldCap := h.capacity()

	for i := uintptr(0); i < oldCap; i++ {
		if oldBuckets[i].state != bucketOccupied {
			continue
		}
		slot := probeInsert(newBuckets, oldBuckets[i].hash)
		newBuckets[slot] = hashBucket{state: bucketOccupied, hash: oldBuckets[i].hash}
		copyBytes(unsafe.Add(p.Data, slot*h.entrySize), unsafe.Add(oldData, i*oldEntrySize), h.entrySize)
	}

	if oldData != nil {
		Free(Ptr{Data: oldData, Size: oldCap * oldEntrySize, Align: h.entryAlign})
	}
	h.buckets = newBuckets
	h.data = p.Data
	h.live = h.count
	logDebug("hashset resized", "new_capacity", newCapacity)
	return HashSetSuccess
}

func nextPow2(n uintptr) uintptr {
	p := uintptr(1)
	for p < n {
		p <<= 1
	}
	return p
}

// probeInsert finds the slot for hash using triangular (quadratic-ish)
// probing: offset i lands at (h + i*(i+1)/2) mod capacity, the same
// sequence CPython's dict uses to spread collisions without long runs.
func probeInsert(buckets []hashBucket, hash uint64) uintptr {
	cap := uintptr(len(buckets))
	mask := cap - 1
	idx := uintptr(hash) & mask
	for i := uintptr(0); ; i++ {
		if buckets[idx].state != bucketOccupied {
			return idx
		}
		idx = (idx + i + 1) & mask
	}
}

// needsGrow reports whether live occupancy exceeds 87.5% load factor.
func (h *ChicHashSet) needsGrow() bool {
	cap := h.capacity()
	if cap == 0 {
		return true
	}
	return h.live*8 >= cap*7
}

// findSlot locates key's bucket (occupied) or the first tombstone/empty
// slot on its probe path (for insertion), reporting which via found.
func (h *ChicHashSet) findSlot(key unsafe.Pointer, hash uint64) (slot uintptr, found bool) {
	cap := h.capacity()
	if cap == 0 {
		return 0, false
	}
	mask := cap - 1
	idx := uintptr(hash) & mask
	firstTombstone := uintptr(cap)
	for i := uintptr(0); i < cap; i++ {
		b := h.buckets[idx]
		switch b.state {
		case bucketEmpty:
			if firstTombstone != cap {
				return firstTombstone, false
			}
			return idx, false
		case bucketTombstone:
			if firstTombstone == cap {
				firstTombstone = idx
			}
		case bucketOccupied:
			if b.hash == hash && InvokeEq(h.eqFn, h.entryAt(idx), key) != 0 {
				return idx, true
			}
		}
		idx = (idx + i + 1) & mask
	}
	if firstTombstone != cap {
		return firstTombstone, false
	}
	return idx, false
}

// Insert is chic_rt_hashset_insert: no-op (returns false) if an equal
// element is already present. hash must be the caller-computed hash of *key.
func (h *ChicHashSet) Insert(key ConstPtr, hash uint64) (inserted bool, err HashSetError) {
	if key.Size != h.entrySize || key.Align != h.entryAlign {
		return false, HashSetInvalidPointer
	}
	if h.needsGrow() {
		if e := h.resize(h.capacity() * 2); e != HashSetSuccess {
			return false, e
		}
	}
	slot, found := h.findSlot(key.Ptr, hash)
	if found {
		return false, HashSetSuccess
	}
	wasTombstone := h.buckets[slot].state == bucketTombstone
	h.buckets[slot] = hashBucket{state: bucketOccupied, hash: hash}
	copyBytes(h.entryAt(slot), key.Ptr, h.entrySize)
	h.count++
	if !wasTombstone {
		h.live++
	}
	return true, HashSetSuccess
}

// Replace is chic_rt_hashset_replace: inserts, or overwrites and drops the
// prior occupant if an equal element already exists. hash must be the
// caller-computed hash of *key.
func (h *ChicHashSet) Replace(key ConstPtr, hash uint64) (replaced bool, err HashSetError) {
	if key.Size != h.entrySize || key.Align != h.entryAlign {
		return false, HashSetInvalidPointer
	}
	if h.needsGrow() {
		if e := h.resize(h.capacity() * 2); e != HashSetSuccess {
			return false, e
		}
	}
	slot, found := h.findSlot(key.Ptr, hash)
	if found {
		InvokeDrop(h.dropFn, h.entryAt(slot))
		copyBytes(h.entryAt(slot), key.Ptr, h.entrySize)
		return true, HashSetSuccess
	}
	wasTombstone := h.buckets[slot].state == bucketTombstone
	h.buckets[slot] = hashBucket{state: bucketOccupied, hash: hash}
	copyBytes(h.entryAt(slot), key.Ptr, h.entrySize)
	h.count++
	if !wasTombstone {
		h.live++
	}
	return false, HashSetSuccess
}

// Contains is chic_rt_hashset_contains. hash must be the caller-computed
// hash of *key.
func (h *ChicHashSet) Contains(key ConstPtr, hash uint64) bool {
	if h.capacity() == 0 {
		return false
	}
	_, found := h.findSlot(key.Ptr, hash)
	return found
}

// GetPtr is chic_rt_hashset_get_ptr: a borrowed pointer to the stored
// element, or nil if absent. hash must be the caller-computed hash of *key.
func (h *ChicHashSet) GetPtr(key ConstPtr, hash uint64) unsafe.Pointer {
	if h.capacity() == 0 {
		return nil
	}
	slot, found := h.findSlot(key.Ptr, hash)
	if !found {
		return nil
	}
	return h.entryAt(slot)
}

// Remove is chic_rt_hashset_remove: drops the element in place and leaves
// a tombstone. hash must be the caller-computed hash of *key.
func (h *ChicHashSet) Remove(key ConstPtr, hash uint64) (removed bool, err HashSetError) {
	if h.capacity() == 0 {
		return false, HashSetSuccess
	}
	slot, found := h.findSlot(key.Ptr, hash)
	if !found {
		return false, HashSetSuccess
	}
	InvokeDrop(h.dropFn, h.entryAt(slot))
	h.buckets[slot].state = bucketTombstone
	h.count--
	return true, HashSetSuccess
}

// Take is chic_rt_hashset_take: removes without dropping, copying the
// element out to `out` instead. hash must be the caller-computed hash of
// *key.
func (h *ChicHashSet) Take(key ConstPtr, out MutPtr, hash uint64) (removed bool, err HashSetError) {
	if out.Size != h.entrySize || out.Align != h.entryAlign {
		return false, HashSetInvalidPointer
	}
	if h.capacity() == 0 {
		return false, HashSetSuccess
	}
	slot, found := h.findSlot(key.Ptr, hash)
	if !found {
		return false, HashSetSuccess
	}
	copyBytes(out.Ptr, h.entryAt(slot), h.entrySize)
	h.buckets[slot].state = bucketTombstone
	h.count--
	return true, HashSetSuccess
}

// TakeAt is chic_rt_hashset_take_at: removes the bucket at a known slot
// index without re-hashing, used by iterator-driven removal.
func (h *ChicHashSet) TakeAt(slot uintptr, out MutPtr) HashSetError {
	if slot >= h.capacity() || h.buckets[slot].state != bucketOccupied {
		return HashSetNotFound
	}
	if out.Size != h.entrySize || out.Align != h.entryAlign {
		return HashSetInvalidPointer
	}
	copyBytes(out.Ptr, h.entryAt(slot), h.entrySize)
	h.buckets[slot].state = bucketTombstone
	h.count--
	return HashSetSuccess
}

// BucketState is chic_rt_hashset_bucket_state, exposed for diagnostics and
// iterator support.
func (h *ChicHashSet) BucketState(slot uintptr) int32 {
	if slot >= h.capacity() {
		return -1
	}
	return int32(h.buckets[slot].state)
}

// BucketHash is chic_rt_hashset_bucket_hash.
func (h *ChicHashSet) BucketHash(slot uintptr) uint64 {
	if slot >= h.capacity() {
		return 0
	}
	return h.buckets[slot].hash
}

func (h *ChicHashSet) Len() uintptr      { return h.count }
func (h *ChicHashSet) Capacity() uintptr { return h.capacity() }
func (h *ChicHashSet) IsEmpty() bool     { return h.count == 0 }

// Drop releases every occupied element and the backing table.
func (h *ChicHashSet) Drop() {
	if h.dropFn != nil {
		for i := uintptr(0); i < h.capacity(); i++ {
			if h.buckets[i].state == bucketOccupied {
				InvokeDrop(h.dropFn, h.entryAt(i))
			}
		}
	}
	if h.data != nil {
		Free(Ptr{Data: h.data, Size: h.capacity() * h.entrySize, Align: h.entryAlign})
	}
	entrySize, entryAlign, dropFn, eqFn := h.entrySize, h.entryAlign, h.dropFn, h.eqFn
	*h = ChicHashSet{entrySize: entrySize, entryAlign: entryAlign, dropFn: dropFn, eqFn: eqFn}
}

// --- iteration (spec.md 4.E) ---

// HashSetIter is chic_rt_hashset_iter's cursor: a linear sweep over
// buckets skipping empty/tombstone slots.
type HashSetIter struct {
	set *ChicHashSet
	idx uintptr
}

func (h *ChicHashSet) Iter() HashSetIter {
	return HashSetIter{set: h}
}

// IterNext yields a borrowed pointer to the next occupied element
// (chic_rt_hashset_iter_next), or nil when exhausted.
func (it *HashSetIter) IterNext() unsafe.Pointer {
	cap := it.set.capacity()
	for it.idx < cap {
		b := it.set.buckets[it.idx]
		i := it.idx
		it.idx++
		if b.state == bucketOccupied {
			return it.set.entryAt(i)
		}
	}
	return nil
}
