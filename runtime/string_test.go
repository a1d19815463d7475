package runtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChicStringStartsInline(t *testing.T) {
	s := NewChicString()
	defer s.Drop()
	assert.True(t, s.usesInline())
	assert.EqualValues(t, StringInlineCapacity, s.cap)
	assert.EqualValues(t, 0, s.len)
}

func TestStringFromSliceRoundTrip(t *testing.T) {
	s, err := StringFromSlice(BytesToSlice([]byte("hello")))
	require.Equal(t, StringSuccess, err)
	defer s.Drop()
	got := s.AsSlice()
	assert.Equal(t, "hello", string(got.bytes()))
}

func TestStringFromSliceRejectsIllFormedUtf8(t *testing.T) {
	_, err := StringFromSlice(BytesToSlice([]byte{0xff, 0xfe}))
	assert.Equal(t, StringUtf8, err)
}

func TestStringGrowsPastInline(t *testing.T) {
	s := NewChicString()
	defer s.Drop()
	long := strings.Repeat("x", StringInlineCapacity+10)
	require.Equal(t, StringSuccess, s.PushSlice(BytesToSlice([]byte(long))))
	assert.False(t, s.usesInline())
	assert.Equal(t, long, string(s.AsSlice().bytes()))
}

func TestStringPushWithinInlineAllocatesNothing(t *testing.T) {
	s := NewChicString()
	defer s.Drop()
	require.Equal(t, StringSuccess, s.PushSlice(BytesToSlice([]byte("short"))))
	assert.True(t, s.usesInline())
}

func TestStringCloneIsIndependent(t *testing.T) {
	s, _ := StringFromSlice(BytesToSlice([]byte("original")))
	defer s.Drop()
	clone, err := s.Clone()
	require.Equal(t, StringSuccess, err)
	defer clone.Drop()
	require.Equal(t, StringSuccess, s.PushSlice(BytesToSlice([]byte("-more"))))
	assert.Equal(t, "original", string(clone.AsSlice().bytes()))
	assert.Equal(t, "original-more", string(s.AsSlice().bytes()))
}

func TestStringTruncateRequiresUtf8Boundary(t *testing.T) {
	s, _ := StringFromSlice(BytesToSlice([]byte("héllo"))) // é is 2 bytes
	defer s.Drop()
	// byte 2 is the continuation byte of é; not a valid boundary.
	assert.Equal(t, StringUtf8, s.Truncate(2))
	assert.Equal(t, StringSuccess, s.Truncate(0))
	assert.EqualValues(t, 0, s.len)
}

func TestStringTruncatePastLenIsOutOfBounds(t *testing.T) {
	s, _ := StringFromSlice(BytesToSlice([]byte("hi")))
	defer s.Drop()
	assert.Equal(t, StringOutOfBounds, s.Truncate(100))
}

func TestStringDropLeavesZeroedPostDropState(t *testing.T) {
	s, _ := StringFromSlice(BytesToSlice([]byte(strings.Repeat("y", 100))))
	s.Drop()
	assert.EqualValues(t, 0, s.len)
	assert.EqualValues(t, 0, s.cap)
	assert.True(t, s.usesInline())
}

func TestStringDoubleDropIsNoOp(t *testing.T) {
	s, _ := StringFromSlice(BytesToSlice([]byte("abc")))
	s.Drop()
	assert.NotPanics(t, func() { s.Drop() })
}

func TestStringShrinkToFitMigratesBackToInline(t *testing.T) {
	s := NewChicString()
	defer s.Drop()
	require.Equal(t, StringSuccess, s.PushSlice(BytesToSlice([]byte(strings.Repeat("z", StringInlineCapacity+20)))))
	require.False(t, s.usesInline())
	require.Equal(t, StringSuccess, s.Truncate(5))
	assert.False(t, s.usesInline(), "ordinary truncate never migrates back to inline")
	require.Equal(t, StringSuccess, s.ShrinkToFit())
	assert.True(t, s.usesInline())
	assert.Equal(t, "zzzzz", string(s.AsSlice().bytes()))
}

func TestAsCharsDecodesUtf16(t *testing.T) {
	s, _ := StringFromSlice(BytesToSlice([]byte("hi")))
	defer s.Drop()
	chars, err := s.AsChars()
	require.Equal(t, StringSuccess, err)
	assert.Equal(t, []uint16{'h', 'i'}, chars)
}

func TestAsCharsRejectsIllFormedUtf8(t *testing.T) {
	_, err := StrAsChars(BytesToSlice([]byte{0xff}))
	assert.Equal(t, StringUtf8, err)
}

func TestAppendSignedAndUnsigned(t *testing.T) {
	s := NewChicString()
	defer s.Drop()
	require.Equal(t, StringSuccess, s.AppendSigned(uint64(int64(-42)), ^uint64(0), 64, 0, false, ByteSlice{}))
	assert.Equal(t, "-42", string(s.AsSlice().bytes()))

	s2 := NewChicString()
	defer s2.Drop()
	require.Equal(t, StringSuccess, s2.AppendUnsigned(255, 0, 8, 0, false, BytesToSlice([]byte("x"))))
	assert.Equal(t, "ff", string(s2.AsSlice().bytes()))
}

func TestAppendBoolAndChar(t *testing.T) {
	s := NewChicString()
	defer s.Drop()
	require.Equal(t, StringSuccess, s.AppendBool(true, 0, false, ByteSlice{}))
	require.Equal(t, StringSuccess, s.AppendChar('!', 0, false, ByteSlice{}))
	assert.Equal(t, "true!", string(s.AsSlice().bytes()))
}

func TestAppendAlignment(t *testing.T) {
	s := NewChicString()
	defer s.Drop()
	require.Equal(t, StringSuccess, s.AppendSlice(BytesToSlice([]byte("ab")), 5, true))
	assert.Equal(t, "   ab", string(s.AsSlice().bytes()))
}
