// Open-addressed hash map (spec.md 4.F): a HashSet variant whose entry
// layout is the key bytes followed by the value bytes at a computed
// offset, and whose equality/hash functions only ever see the key half of
// the entry. Insert on an existing key drops the old value but leaves the
// key in place untouched — the key identity that hashed the bucket never
// changes out from under it.

package runtime

import "unsafe"

// ChicHashMap is the ABI's ChicHashMap struct.
type ChicHashMap struct {
	buckets []hashBucket
	data    unsafe.Pointer

	keySize, keyAlign     uintptr
	valueSize, valueAlign uintptr
	valueOffset           uintptr
	entrySize             uintptr

	count uintptr
	live  uintptr

	keyDropFn   DropFn
	valueDropFn DropFn
	keyEqFn     EqFn
}

// computeValueOffset rounds keySize up to valueAlign, matching the ABI's
// struct-packing rule for the key/value entry pair.
func computeValueOffset(keySize, valueAlign uintptr) uintptr {
	return roundUpPtr(keySize, valueAlign)
}

// NewHashMap is chic_rt_hashmap_new. Like ChicHashSet, the map is
// hash-function-agnostic: every operation below takes a caller-supplied
// precomputed hash of the key rather than storing and invoking a hasher
// itself (spec.md 4.F; chic_rt.h's hashmap operations all take an explicit
// `uint64_t hash`).
func NewHashMap(keySize, keyAlign, valueSize, valueAlign uintptr, keyDropFn, valueDropFn DropFn, keyEqFn EqFn) ChicHashMap {
	valueOffset := computeValueOffset(keySize, valueAlign)
	entrySize := valueOffset + valueSize
	entryAlign := keyAlign
	if valueAlign > entryAlign {
		entryAlign = valueAlign
	}
	entrySize = roundUpPtr(entrySize, entryAlign)
	return ChicHashMap{
		keySize: keySize, keyAlign: keyAlign,
		valueSize: valueSize, valueAlign: valueAlign,
		valueOffset: valueOffset, entrySize: entrySize,
		keyDropFn: keyDropFn, valueDropFn: valueDropFn,
		keyEqFn: keyEqFn,
	}
}

func (m *ChicHashMap) capacity() uintptr { return uintptr(len(m.buckets)) }

func (m *ChicHashMap) entryAt(i uintptr) unsafe.Pointer {
	return unsafe.Add(m.data, i*m.entrySize)
}

func (m *ChicHashMap) keyAt(i uintptr) unsafe.Pointer { return m.entryAt(i) }
func (m *ChicHashMap) valueAt(i uintptr) unsafe.Pointer {
	return unsafe.Add(m.entryAt(i), m.valueOffset)
}

func (m *ChicHashMap) needsGrow() bool {
	cap := m.capacity()
	if cap == 0 {
		return true
	}
	return m.live*8 >= cap*7
}

func (m *ChicHashMap) resize(newCapacity uintptr) HashMapError {
	if newCapacity < hashSetInitialCapacity {
		newCapacity = hashSetInitialCapacity
	}
	newCapacity = nextPow2(newCapacity)

	need := newCapacity * m.entrySize
	if m.entrySize != 0 && need/m.entrySize != newCapacity {
		return HashMapCapacityOverflow
	}
	p := Alloc(need, m.keyAlign)
	if p.Data == nil && need != 0 {
		return HashMapAllocationFailed
	}
	newBuckets := make([]hashBucket, newCapacity)

	oldBuckets, oldData, oldEntrySize := m.buckets, m.data, m.entrySize
	oldCap := m.capacity()
	for i := uintptr(0); i < oldCap; i++ {
		if oldBuckets[i].state != bucketOccupied {
			continue
		}
		slot := probeInsert(newBuckets, oldBuckets[i].hash)
		newBuckets[slot] = hashBucket{state: bucketOccupied, hash: oldBuckets[i].hash}
		copyBytes(unsafe.Add(p.Data, slot*m.entrySize), unsafe.Add(oldData, i*oldEntrySize), m.entrySize)
	}

	if oldData != nil {
		Free(Ptr{Data: oldData, Size: oldCap * oldEntrySize, Align: m.keyAlign})
	}
	m.buckets = newBuckets
	m.data = p.Data
	m.live = m.count
	logDebug("hashmap resized", "new_capacity", newCapacity)
	return HashMapSuccess
}

// findSlot mirrors ChicHashSet.findSlot but compares only the key prefix of
// each entry, per spec.md 4.F.
func (m *ChicHashMap) findSlot(key unsafe.Pointer, hash uint64) (slot uintptr, found bool) {
	cap := m.capacity()
	if cap == 0 {
		return 0, false
	}
	mask := cap - 1
	idx := uintptr(hash) & mask
	firstTombstone := cap
	for i := uintptr(0); i < cap; i++ {
		b := m.buckets[idx]
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
			if b.hash == hash && InvokeEq(m.keyEqFn, m.keyAt(idx), key) != 0 {
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

// Insert is chic_rt_hashmap_insert. If key is already present, the old
// value is dropped and overwritten; the stored key is left untouched. hash
// must be the caller-computed hash of *key.
func (m *ChicHashMap) Insert(key, value ConstPtr, hash uint64) (inserted bool, err HashMapError) {
	if key.Size != m.keySize || key.Align != m.keyAlign || value.Size != m.valueSize || value.Align != m.valueAlign {
		return false, HashMapInvalidPointer
	}
	if m.needsGrow() {
		if e := m.resize(m.capacity() * 2); e != HashMapSuccess {
			return false, e
		}
	}
	slot, found := m.findSlot(key.Ptr, hash)
	if found {
		InvokeDrop(m.valueDropFn, m.valueAt(slot))
		copyBytes(m.valueAt(slot), value.Ptr, m.valueSize)
		return false, HashMapSuccess
	}
	wasTombstone := m.buckets[slot].state == bucketTombstone
	m.buckets[slot] = hashBucket{state: bucketOccupied, hash: hash}
	copyBytes(m.keyAt(slot), key.Ptr, m.keySize)
	copyBytes(m.valueAt(slot), value.Ptr, m.valueSize)
	m.count++
	if !wasTombstone {
		m.live++
	}
	return true, HashMapSuccess
}

// ContainsKey is chic_rt_hashmap_contains_key. hash must be the
// caller-computed hash of *key.
func (m *ChicHashMap) ContainsKey(key ConstPtr, hash uint64) bool {
	if m.capacity() == 0 {
		return false
	}
	_, found := m.findSlot(key.Ptr, hash)
	return found
}

// GetValuePtr is chic_rt_hashmap_get_ptr: a borrowed pointer to the stored
// value, or nil if the key is absent. hash must be the caller-computed hash
// of *key.
func (m *ChicHashMap) GetValuePtr(key ConstPtr, hash uint64) unsafe.Pointer {
	if m.capacity() == 0 {
		return nil
	}
	slot, found := m.findSlot(key.Ptr, hash)
	if !found {
		return nil
	}
	return m.valueAt(slot)
}

// Remove is chic_rt_hashmap_remove: drops both key and value, tombstones
// the bucket. hash must be the caller-computed hash of *key.
func (m *ChicHashMap) Remove(key ConstPtr, hash uint64) (removed bool, err HashMapError) {
	if m.capacity() == 0 {
		return false, HashMapSuccess
	}
	slot, found := m.findSlot(key.Ptr, hash)
	if !found {
		return false, HashMapSuccess
	}
	InvokeDrop(m.keyDropFn, m.keyAt(slot))
	InvokeDrop(m.valueDropFn, m.valueAt(slot))
	m.buckets[slot].state = bucketTombstone
	m.count--
	return true, HashMapSuccess
}

// Take is chic_rt_hashmap_take: removes without dropping, copying key and
// value out to the caller. hash must be the caller-computed hash of *key.
func (m *ChicHashMap) Take(key ConstPtr, outKey, outValue MutPtr, hash uint64) (removed bool, err HashMapError) {
	if outKey.Size != m.keySize || outValue.Size != m.valueSize {
		return false, HashMapInvalidPointer
	}
	if m.capacity() == 0 {
		return false, HashMapSuccess
	}
	slot, found := m.findSlot(key.Ptr, hash)
	if !found {
		return false, HashMapSuccess
	}
	copyBytes(outKey.Ptr, m.keyAt(slot), m.keySize)
	copyBytes(outValue.Ptr, m.valueAt(slot), m.valueSize)
	m.buckets[slot].state = bucketTombstone
	m.count--
	return true, HashMapSuccess
}

func (m *ChicHashMap) Len() uintptr      { return m.count }
func (m *ChicHashMap) Capacity() uintptr { return m.capacity() }
func (m *ChicHashMap) IsEmpty() bool     { return m.count == 0 }

// Drop releases every occupied key/value pair and the backing table.
func (m *ChicHashMap) Drop() {
	for i := uintptr(0); i < m.capacity(); i++ {
		if m.buckets[i].state == bucketOccupied {
			InvokeDrop(m.keyDropFn, m.keyAt(i))
			InvokeDrop(m.valueDropFn, m.valueAt(i))
		}
	}
	if m.data != nil {
		Free(Ptr{Data: m.data, Size: m.capacity() * m.entrySize, Align: m.keyAlign})
	}
	keySize, keyAlign := m.keySize, m.keyAlign
	valueSize, valueAlign := m.valueSize, m.valueAlign
	keyDropFn, valueDropFn, keyEqFn := m.keyDropFn, m.valueDropFn, m.keyEqFn
	*m = NewHashMap(keySize, keyAlign, valueSize, valueAlign, keyDropFn, valueDropFn, keyEqFn)
}

// --- iteration (spec.md 4.F) ---

// HashMapIter is chic_rt_hashmap_iter's cursor.
type HashMapIter struct {
	m   *ChicHashMap
	idx uintptr
}

func (m *ChicHashMap) Iter() HashMapIter { return HashMapIter{m: m} }

// IterNext yields borrowed pointers to the next key and value
// (chic_rt_hashmap_iter_next), or (nil, nil) when exhausted.
func (it *HashMapIter) IterNext() (key, value unsafe.Pointer) {
	cap := it.m.capacity()
	for it.idx < cap {
		b := it.m.buckets[it.idx]
		i := it.idx
		it.idx++
		if b.state == bucketOccupied {
			return it.m.keyAt(i), it.m.valueAt(i)
		}
	}
	return nil, nil
}
