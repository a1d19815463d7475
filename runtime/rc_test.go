package runtime

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArcNewGetAndDrop(t *testing.T) {
	var dropped bool
	dropFn := func(p unsafe.Pointer) { dropped = true }
	v := int64(99)
	a, err := NewArc(i64ConstPtr(&v), dropFn, 7)
	require.Equal(t, SharedSuccess, err)
	assert.EqualValues(t, 99, *(*int64)(a.Get()))
	require.Equal(t, SharedSuccess, a.Drop())
	assert.True(t, dropped)
}

func TestArcCloneConservesStrongCount(t *testing.T) {
	v := int64(1)
	a, _ := NewArc(i64ConstPtr(&v), nil, 1)
	b, err := a.Clone()
	require.Equal(t, SharedSuccess, err)
	assert.Equal(t, uint64(2), a.header().strong.Load())
	require.Equal(t, SharedSuccess, a.Drop())
	assert.Equal(t, uint64(1), b.header().strong.Load())
	require.Equal(t, SharedSuccess, b.Drop())
}

func TestArcGetMutOnlyWhenUniquelyOwned(t *testing.T) {
	v := int64(1)
	a, _ := NewArc(i64ConstPtr(&v), nil, 1)
	assert.NotNil(t, a.GetMut())
	b, _ := a.Clone()
	assert.Nil(t, a.GetMut(), "must deny mutable access while another strong handle exists")
	b.Drop()
	assert.NotNil(t, a.GetMut())
	a.Drop()
}

func TestArcDowngradeUpgradeRoundTrip(t *testing.T) {
	v := int64(42)
	a, _ := NewArc(i64ConstPtr(&v), nil, 1)
	w, err := a.Downgrade()
	require.Equal(t, SharedSuccess, err)
	up, err := w.Upgrade()
	require.Equal(t, SharedSuccess, err)
	assert.EqualValues(t, 42, *(*int64)(up.Get()))
	up.Drop()
	a.Drop()
	w.Drop()
}

func TestWeakUpgradeAfterAllStrongDroppedFails(t *testing.T) {
	v := int64(5)
	a, _ := NewArc(i64ConstPtr(&v), nil, 1)
	w, _ := a.Downgrade()
	require.Equal(t, SharedSuccess, a.Drop())
	_, err := w.Upgrade()
	assert.Equal(t, SharedInvalidPointer, err)
	w.Drop()
}

func TestWeakAloneKeepsBlockAliveUntilWeakDrop(t *testing.T) {
	var dropped bool
	dropFn := func(unsafe.Pointer) { dropped = true }
	v := int64(5)
	a, _ := NewArc(i64ConstPtr(&v), dropFn, 1)
	w, _ := a.Downgrade()
	a.Drop()
	assert.True(t, dropped, "payload drop fires when strong reaches 0")
	// Block itself still lives (weak=1 from downgrade); freeing it is w's job.
	require.Equal(t, SharedSuccess, w.Drop())
}

func TestRcNewCloneDrop(t *testing.T) {
	v := int64(3)
	r, err := NewRc(i64ConstPtr(&v), nil, 2)
	require.Equal(t, SharedSuccess, err)
	c, err := r.Clone()
	require.Equal(t, SharedSuccess, err)
	assert.EqualValues(t, 2, r.header().strong)
	require.Equal(t, SharedSuccess, r.Drop())
	assert.EqualValues(t, 3, *(*int64)(c.Get()))
	require.Equal(t, SharedSuccess, c.Drop())
}

func TestRcDowngradeUpgrade(t *testing.T) {
	v := int64(11)
	r, _ := NewRc(i64ConstPtr(&v), nil, 1)
	w, err := r.Downgrade()
	require.Equal(t, SharedSuccess, err)
	up, err := w.Upgrade()
	require.Equal(t, SharedSuccess, err)
	assert.EqualValues(t, 11, *(*int64)(up.Get()))
	up.Drop()
	r.Drop()
	w.Drop()
}

func TestWeakRcUpgradeFailsAfterStrongGone(t *testing.T) {
	v := int64(1)
	r, _ := NewRc(i64ConstPtr(&v), nil, 1)
	w, _ := r.Downgrade()
	r.Drop()
	_, err := w.Upgrade()
	assert.Equal(t, SharedInvalidPointer, err)
	w.Drop()
}
