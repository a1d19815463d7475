package runtime

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInt32StringMap() ChicHashMap {
	var k int32
	var v int64
	return NewHashMap(unsafe.Sizeof(k), unsafe.Alignof(k), unsafe.Sizeof(v), unsafe.Alignof(v), nil, nil, i32Eq)
}

func i64ConstPtr(v *int64) ConstPtr {
	return ConstPtr{Ptr: unsafe.Pointer(v), Size: unsafe.Sizeof(*v), Align: unsafe.Alignof(*v)}
}

func TestHashMapInsertAndGet(t *testing.T) {
	m := newInt32StringMap()
	defer m.Drop()
	k := int32(1)
	v := int64(100)
	inserted, err := m.Insert(i32ConstPtr(&k), i64ConstPtr(&v), i32Hash(unsafe.Pointer(&k)))
	require.Equal(t, HashMapSuccess, err)
	assert.True(t, inserted)

	p := m.GetValuePtr(i32ConstPtr(&k), i32Hash(unsafe.Pointer(&k)))
	require.NotNil(t, p)
	assert.EqualValues(t, 100, *(*int64)(p))
}

func TestHashMapInsertOnExistingKeyDropsOldValueKeepsKey(t *testing.T) {
	var valueDrops int
	valueDropFn := func(unsafe.Pointer) { valueDrops++ }
	var keyDrops int
	keyDropFn := func(unsafe.Pointer) { keyDrops++ }
	var k int32
	var v int64
	m := NewHashMap(unsafe.Sizeof(k), unsafe.Alignof(k), unsafe.Sizeof(v), unsafe.Alignof(v), keyDropFn, valueDropFn, i32Eq)
	defer m.Drop()

	key := int32(5)
	hash := i32Hash(unsafe.Pointer(&key))
	first := int64(10)
	m.Insert(i32ConstPtr(&key), i64ConstPtr(&first), hash)
	second := int64(20)
	inserted, err := m.Insert(i32ConstPtr(&key), i64ConstPtr(&second), hash)
	require.Equal(t, HashMapSuccess, err)
	assert.False(t, inserted, "re-inserting an existing key reports replace, not insert")
	assert.Equal(t, 1, valueDrops, "old value must be dropped")
	assert.Equal(t, 0, keyDrops, "key must not be dropped on replace")

	p := m.GetValuePtr(i32ConstPtr(&key), hash)
	require.NotNil(t, p)
	assert.EqualValues(t, 20, *(*int64)(p))
}

func TestHashMapRemoveDropsKeyAndValue(t *testing.T) {
	var keyDrops, valueDrops int
	var k int32
	var v int64
	m := NewHashMap(unsafe.Sizeof(k), unsafe.Alignof(k),
		unsafe.Sizeof(v), unsafe.Alignof(v),
		func(unsafe.Pointer) { keyDrops++ },
		func(unsafe.Pointer) { valueDrops++ },
		i32Eq)
	defer m.Drop()

	key := int32(3)
	hash := i32Hash(unsafe.Pointer(&key))
	val := int64(9)
	m.Insert(i32ConstPtr(&key), i64ConstPtr(&val), hash)
	removed, err := m.Remove(i32ConstPtr(&key), hash)
	require.Equal(t, HashMapSuccess, err)
	assert.True(t, removed)
	assert.Equal(t, 1, keyDrops)
	assert.Equal(t, 1, valueDrops)
	assert.False(t, m.ContainsKey(i32ConstPtr(&key), hash))
}

func TestHashMapResizePreservesAllEntries(t *testing.T) {
	m := newInt32StringMap()
	defer m.Drop()
	const n = 150
	for i := int32(0); i < n; i++ {
		k, v := i, int64(i)*2
		inserted, err := m.Insert(i32ConstPtr(&k), i64ConstPtr(&v), i32Hash(unsafe.Pointer(&k)))
		require.Equal(t, HashMapSuccess, err)
		require.True(t, inserted)
	}
	for i := int32(0); i < n; i++ {
		k := i
		p := m.GetValuePtr(i32ConstPtr(&k), i32Hash(unsafe.Pointer(&k)))
		require.NotNil(t, p)
		assert.EqualValues(t, int64(i)*2, *(*int64)(p))
	}
}

func TestHashMapIterVisitsEveryPair(t *testing.T) {
	m := newInt32StringMap()
	defer m.Drop()
	want := map[int32]int64{1: 10, 2: 20, 3: 30}
	for k, v := range want {
		kk, vv := k, v
		m.Insert(i32ConstPtr(&kk), i64ConstPtr(&vv), i32Hash(unsafe.Pointer(&kk)))
	}
	it := m.Iter()
	got := map[int32]int64{}
	for {
		k, v := it.IterNext()
		if k == nil {
			break
		}
		got[*(*int32)(k)] = *(*int64)(v)
	}
	assert.Equal(t, want, got)
}
