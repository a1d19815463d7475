package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsScalarExcludesSurrogates(t *testing.T) {
	assert.True(t, IsScalar(0x0041))
	assert.False(t, IsScalar(0xD800))
	assert.False(t, IsScalar(0xDFFF))
	assert.True(t, IsScalar(0xE000))
	assert.True(t, IsScalar(0xFFFF))
}

func TestIsDigitLetterWhitespace(t *testing.T) {
	assert.True(t, IsDigit('7'))
	assert.False(t, IsDigit('a'))
	assert.True(t, IsLetter('a'))
	assert.False(t, IsLetter('7'))
	assert.True(t, IsWhitespace(' '))
	assert.True(t, IsWhitespace('\t'))
}

func TestToUpperSimple(t *testing.T) {
	v := ToUpper('a')
	assert.Equal(t, CharSuccess, v.Status())
	assert.EqualValues(t, 'A', v.Value())
}

func TestToUpperComplexMapping(t *testing.T) {
	v := ToUpper(0x00DF) // ß
	assert.Equal(t, CharComplexMapping, v.Status())
}

func TestToLowerInvalidScalar(t *testing.T) {
	v := ToLower(0xD800)
	assert.Equal(t, CharInvalidScalar, v.Status())
}

func TestFromCodepointRoundTrip(t *testing.T) {
	v := FromCodepoint(0x0041)
	assert.Equal(t, CharSuccess, v.Status())
	assert.EqualValues(t, 'A', v.Value())
}

func TestFromCodepointOutOfDomain(t *testing.T) {
	v := FromCodepoint(0x1F600) // emoji, above 16-bit domain
	assert.Equal(t, CharInvalidScalar, v.Status())
}

func TestFromCodepointSurrogate(t *testing.T) {
	v := FromCodepoint(0xD800)
	assert.Equal(t, CharInvalidScalar, v.Status())
}
