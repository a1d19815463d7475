package runtime

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i32Eq(lhs, rhs unsafe.Pointer) int32 {
	if *(*int32)(lhs) == *(*int32)(rhs) {
		return 1
	}
	return 0
}

func i32Hash(p unsafe.Pointer) uint64 {
	b := unsafe.Slice((*byte)(p), 4)
	return DefaultHash64(b)
}

func newInt32Set() ChicHashSet {
	var x int32
	return NewHashSet(unsafe.Sizeof(x), unsafe.Alignof(x), nil, i32Eq)
}

func TestHashSetInsertAndContains(t *testing.T) {
	s := newInt32Set()
	defer s.Drop()
	x := int32(42)
	inserted, err := s.Insert(i32ConstPtr(&x), i32Hash(unsafe.Pointer(&x)))
	require.Equal(t, HashSetSuccess, err)
	assert.True(t, inserted)
	assert.True(t, s.Contains(i32ConstPtr(&x), i32Hash(unsafe.Pointer(&x))))
	y := int32(43)
	assert.False(t, s.Contains(i32ConstPtr(&y), i32Hash(unsafe.Pointer(&y))))
}

func TestHashSetInsertDuplicateIsNoOp(t *testing.T) {
	s := newInt32Set()
	defer s.Drop()
	x := int32(5)
	hash := i32Hash(unsafe.Pointer(&x))
	first, _ := s.Insert(i32ConstPtr(&x), hash)
	second, _ := s.Insert(i32ConstPtr(&x), hash)
	assert.True(t, first)
	assert.False(t, second)
	assert.EqualValues(t, 1, s.Len())
}

func TestHashSetRemoveThenTombstoneInvisible(t *testing.T) {
	s := newInt32Set()
	defer s.Drop()
	x := int32(9)
	hash := i32Hash(unsafe.Pointer(&x))
	s.Insert(i32ConstPtr(&x), hash)
	removed, err := s.Remove(i32ConstPtr(&x), hash)
	require.Equal(t, HashSetSuccess, err)
	assert.True(t, removed)
	assert.False(t, s.Contains(i32ConstPtr(&x), hash))
	assert.EqualValues(t, 0, s.Len())
}

func TestHashSetTakeCopiesOutWithoutDropping(t *testing.T) {
	var dropCount int
	dropFn := func(unsafe.Pointer) { dropCount++ }
	var zero int32
	s := NewHashSet(unsafe.Sizeof(zero), unsafe.Alignof(zero), dropFn, i32Eq)
	defer s.Drop()
	x := int32(11)
	hash := i32Hash(unsafe.Pointer(&x))
	s.Insert(i32ConstPtr(&x), hash)
	var out int32
	removed, err := s.Take(i32ConstPtr(&x), i32MutPtr(&out), hash)
	require.Equal(t, HashSetSuccess, err)
	assert.True(t, removed)
	assert.EqualValues(t, 11, out)
	assert.Equal(t, 0, dropCount, "Take must not invoke the element drop")
}

func TestHashSetGetAfterPutReturnsStoredElement(t *testing.T) {
	s := newInt32Set()
	defer s.Drop()
	x := int32(77)
	hash := i32Hash(unsafe.Pointer(&x))
	s.Insert(i32ConstPtr(&x), hash)
	p := s.GetPtr(i32ConstPtr(&x), hash)
	require.NotNil(t, p)
	assert.EqualValues(t, 77, *(*int32)(p))
}

func TestHashSetResizePreservesAllElements(t *testing.T) {
	s := newInt32Set()
	defer s.Drop()
	const n = 200
	for i := int32(0); i < n; i++ {
		x := i
		inserted, err := s.Insert(i32ConstPtr(&x), i32Hash(unsafe.Pointer(&x)))
		require.Equal(t, HashSetSuccess, err)
		require.True(t, inserted)
	}
	assert.EqualValues(t, n, s.Len())
	for i := int32(0); i < n; i++ {
		x := i
		assert.True(t, s.Contains(i32ConstPtr(&x), i32Hash(unsafe.Pointer(&x))), "missing %d after resize", i)
	}
}

func TestHashSetReplaceDropsPriorOccupant(t *testing.T) {
	type pair struct{ key, tag int32 }
	eq := func(lhs, rhs unsafe.Pointer) int32 {
		if (*pair)(lhs).key == (*pair)(rhs).key {
			return 1
		}
		return 0
	}
	hashOf := func(p unsafe.Pointer) uint64 {
		return DefaultHash64(unsafe.Slice((*byte)(unsafe.Pointer(&(*pair)(p).key)), 4))
	}
	var dropped []int32
	dropFn := func(p unsafe.Pointer) { dropped = append(dropped, (*pair)(p).tag) }
	var zero pair
	s := NewHashSet(unsafe.Sizeof(zero), unsafe.Alignof(zero), dropFn, eq)
	defer s.Drop()

	first := pair{key: 1, tag: 100}
	s.Insert(ConstPtr{Ptr: unsafe.Pointer(&first), Size: unsafe.Sizeof(first), Align: unsafe.Alignof(first)}, hashOf(unsafe.Pointer(&first)))
	second := pair{key: 1, tag: 200}
	replaced, err := s.Replace(ConstPtr{Ptr: unsafe.Pointer(&second), Size: unsafe.Sizeof(second), Align: unsafe.Alignof(second)}, hashOf(unsafe.Pointer(&second)))
	require.Equal(t, HashSetSuccess, err)
	assert.True(t, replaced)
	assert.Equal(t, []int32{100}, dropped)
	assert.EqualValues(t, 1, s.Len())
}

func TestHashSetIterVisitsEveryLiveElement(t *testing.T) {
	s := newInt32Set()
	defer s.Drop()
	want := map[int32]bool{1: true, 2: true, 3: true}
	for k := range want {
		kk := k
		s.Insert(i32ConstPtr(&kk), i32Hash(unsafe.Pointer(&kk)))
	}
	it := s.Iter()
	got := map[int32]bool{}
	for {
		p := it.IterNext()
		if p == nil {
			break
		}
		got[*(*int32)(p)] = true
	}
	assert.Equal(t, want, got)
}
