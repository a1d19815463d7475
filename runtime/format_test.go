package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/x448/float16"
)

func TestParseDirectiveBaseSelectors(t *testing.T) {
	assert.Equal(t, 16, parseDirective([]byte("x")).base)
	assert.Equal(t, 16, parseDirective([]byte("X")).base)
	assert.True(t, parseDirective([]byte("X")).upper)
	assert.Equal(t, 8, parseDirective([]byte("o")).base)
	assert.Equal(t, 2, parseDirective([]byte("b")).base)
	assert.Equal(t, 10, parseDirective(nil).base)
}

func TestParseDirectivePrecision(t *testing.T) {
	d := parseDirective([]byte(".3"))
	assert.True(t, d.hasPrec)
	assert.Equal(t, 3, d.precision)
}

func TestApplyAlignmentRightAndLeft(t *testing.T) {
	assert.Equal(t, "  ab", applyAlignment("ab", 4, true))
	assert.Equal(t, "ab  ", applyAlignment("ab", -4, true))
	assert.Equal(t, "ab", applyAlignment("ab", 0, false))
}

func TestCombine128SignedNegative(t *testing.T) {
	v := combine128(uint64(int64(-1)), ^uint64(0), 64, true)
	assert.Equal(t, "-1", v.Text(10))
}

func TestCombine128UnsignedFull(t *testing.T) {
	v := combine128(42, 0, 32, false)
	assert.Equal(t, "42", v.Text(10))
}

func TestRenderF16MatchesFloat16Library(t *testing.T) {
	bits := float16.Fromfloat32(1.5).Bits()
	got := renderF16(bits, numericDirective{base: 10})
	assert.Equal(t, "1.5", got)
}

func TestRenderF128ZeroIsZero(t *testing.T) {
	got := renderF128(0, 0, numericDirective{base: 10, hasPrec: true, precision: 1})
	assert.Equal(t, "0.0", got)
}
