// Typed append formatting (spec.md 4.C). The format directive vocabulary is
// opaque bytes per spec.md 6 ("exact grammar is a separate specification"),
// but this package must honor *some* fixed vocabulary identically every
// time, so it implements the documented subset: a base selector
// (d/x/X/o/b), an optional '+' to force a sign on non-negative numbers, and
// an optional '.<digits>' precision for floats. Anything else in the
// directive bytes is ignored rather than rejected, matching "opaque past the
// documented vocabulary" in spec.md 1.

package runtime

import (
	"math/big"
	"strconv"

	"github.com/x448/float16"
)

type numericDirective struct {
	base      int
	upper     bool
	forceSign bool
	precision int
	hasPrec   bool
}

func parseDirective(format []byte) numericDirective {
	d := numericDirective{base: 10}
	i := 0
	for i < len(format) {
		switch format[i] {
		case 'd':
			d.base = 10
		case 'x':
			d.base, d.upper = 16, false
		case 'X':
			d.base, d.upper = 16, true
		case 'o':
			d.base = 8
		case 'b':
			d.base = 2
		case '+':
			d.forceSign = true
		case '.':
			j := i + 1
			for j < len(format) && format[j] >= '0' && format[j] <= '9' {
				j++
			}
			if j > i+1 {
				n, _ := strconv.Atoi(string(format[i+1 : j]))
				d.precision, d.hasPrec = n, true
			}
			i = j - 1
		}
		i++
	}
	return d
}

// applyAlignment pads s to the requested field width. Positive alignment
// right-aligns (pad left); negative left-aligns (pad right); has_alignment
// false or alignment zero leaves s untouched, per spec.md 4.C.
func applyAlignment(s string, alignment int32, hasAlignment bool) string {
	if !hasAlignment || alignment == 0 {
		return s
	}
	width := int(alignment)
	left := width < 0
	if left {
		width = -width
	}
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	spaces := make([]byte, pad)
	for i := range spaces {
		spaces[i] = ' '
	}
	if left {
		return s + string(spaces)
	}
	return string(spaces) + s
}

func renderBigInt(v *big.Int, d numericDirective) string {
	s := v.Text(d.base)
	if d.upper {
		s = upperHexDigits(s)
	}
	if d.forceSign && v.Sign() >= 0 {
		s = "+" + s
	}
	return s
}

func upperHexDigits(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// combine128 reassembles a width-`bits` integer from its (low, high) halves,
// per spec.md 4.C's "the runtime reconstructs a width-bits integer before
// formatting". signed controls two's-complement interpretation for bits<128.
func combine128(low, high uint64, bits uint32, signed bool) *big.Int {
	v := new(big.Int).SetUint64(high)
	v.Lsh(v, 64)
	v.Or(v, new(big.Int).SetUint64(low))
	if !signed || bits >= 128 {
		if signed && bits < 128 {
			// fallthrough handled below for bits<128
		} else if signed {
			// bits == 128: check sign bit (bit 127).
			if high&(1<<63) != 0 {
				mod := new(big.Int).Lsh(big.NewInt(1), 128)
				v.Sub(v, mod)
			}
			return v
		}
		return v
	}
	signBit := uint64(1) << (bits - 1)
	if bits > 64 {
		signBit = uint64(1) << (bits - 64 - 1)
		if high&signBit != 0 {
			mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
			v.Sub(v, mod)
		}
		return v
	}
	masked := low & ((uint64(1) << bits) - 1)
	if masked&signBit != 0 {
		v = new(big.Int).SetUint64(masked)
		mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		v.Sub(v, mod)
		return v
	}
	return new(big.Int).SetUint64(masked)
}

func renderFloat(v float64, d numericDirective) string {
	prec := -1
	if d.hasPrec {
		prec = d.precision
	}
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if d.forceSign && v >= 0 {
		s = "+" + s
	}
	return s
}

func renderF16(bits uint16, d numericDirective) string {
	return renderFloat(float64(float16.Frombits(bits).Float32()), d)
}

// renderF128 decodes an IEEE-754 binary128 bit pattern (the ABI's
// unsigned __int128) into an arbitrary-precision big.Float and formats it.
// No quad-precision float library appears in the retrieved corpus
// (DESIGN.md), so this decode is hand-rolled on top of math/big.
func renderF128(low, high uint64, d numericDirective) string {
	const (
		bias    = 16383
		expBits = 15
		mantHi  = 48 // mantissa bits remaining in `high` after the sign+exponent
	)
	sign := high>>63 != 0
	exp := int((high >> mantHi) & ((1 << expBits) - 1))
	mantHigh := high & ((1 << mantHi) - 1)

	mant := new(big.Float).SetPrec(150)
	mant.SetInt(new(big.Int).Or(new(big.Int).Lsh(new(big.Int).SetUint64(mantHigh), 64), new(big.Int).SetUint64(low)))

	two := big.NewFloat(2)
	denom := new(big.Float).SetPrec(150).Copy(two)
	// mantissa is a 112-bit fraction; normalize to [0,1).
	fracBits := big.NewFloat(1)
	for i := 0; i < 112; i++ {
		fracBits.Mul(fracBits, two)
	}
	mant.Quo(mant, fracBits)

	var value *big.Float
	if exp == 0 {
		// subnormal: value = mantissa * 2^(1-bias-112)
		value = scalePow2(mant, 1-bias)
	} else if exp == (1<<expBits)-1 {
		value = big.NewFloat(0)
		if mant.Sign() == 0 {
			// infinity: a big.Float Inf, which Float64 turns into ±Inf for
			// the shared formatter. A NaN pattern renders as 0.
			value = big.NewFloat(1)
			value.SetInf(false)
		}
	} else {
		one := big.NewFloat(1)
		one.Add(one, mant)
		value = scalePow2(one, exp-bias)
	}
	_ = denom
	if sign {
		value.Neg(value)
	}
	f64, _ := value.Float64()
	return renderFloat(f64, d)
}

func scalePow2(v *big.Float, e int) *big.Float {
	r := new(big.Float).SetPrec(150).Copy(v)
	two := big.NewFloat(2)
	if e >= 0 {
		for i := 0; i < e; i++ {
			r.Mul(r, two)
		}
	} else {
		for i := 0; i < -e; i++ {
			r.Quo(r, two)
		}
	}
	return r
}
