// Growable UTF-8 string with small-string optimization (spec.md 3, 4.C).
// Layout mirrors chic_rt.h's ChicString exactly so the cgo export boundary
// (cmd/chicrtshared) can hand back identical field offsets to the host
// compiler.

package runtime

import (
	"unicode/utf16"
	"unicode/utf8"
	"unsafe"
)

// StringInlineCapacity is CHIC_RT_STRING_INLINE_CAPACITY.
const StringInlineCapacity = 32

// ByteSlice is the ABI's ChicStr: a borrowed, read-only view.
type ByteSlice struct {
	Ptr unsafe.Pointer
	Len uintptr
}

func (b ByteSlice) bytes() []byte {
	if b.Len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.Ptr), b.Len)
}

// AsBytes exposes the borrowed view as a Go []byte for callers outside this
// package (e.g. the CLI harness). The caller must not hold onto the result
// past the view's lifetime.
func (b ByteSlice) AsBytes() []byte { return b.bytes() }

// BytesToSlice borrows a Go []byte as a ByteSlice. The caller must keep s
// alive for the borrowed view's lifetime.
func BytesToSlice(s []byte) ByteSlice {
	if len(s) == 0 {
		return ByteSlice{}
	}
	return ByteSlice{Ptr: unsafe.Pointer(&s[0]), Len: uintptr(len(s))}
}

// CharSpan is the ABI's ChicCharSpan: a borrowed run of 16-bit code units.
type CharSpan struct {
	Ptr unsafe.Pointer
	Len uintptr
}

// ChicString is the ABI's ChicString struct, field-for-field.
type ChicString struct {
	ptr    unsafe.Pointer
	len    uintptr
	cap    uintptr
	inline [StringInlineCapacity]byte
}

// usesInline reports which of spec.md 3's two string storage invariants
// currently holds.
func (s *ChicString) usesInline() bool { return s.cap <= StringInlineCapacity }

// fixup restores ptr == &inline[0] whenever the struct is logically
// inline-backed. Go may bitwise-copy a ChicString value (return-by-value
// constructors, slice growth, …); per spec.md 9's inline-buffer-aliasing
// note, the destination of such a copy must recompute its own inline
// pointer rather than trust the source's. Every exported function that
// touches s.ptr calls fixup first so the field self-heals relative to
// whatever address the caller is currently holding *s at.
func (s *ChicString) fixup() {
	if s.usesInline() {
		s.ptr = unsafe.Pointer(&s.inline[0])
	}
}

// NewChicString is chic_rt_string_new.
func NewChicString() ChicString {
	var s ChicString
	s.cap = StringInlineCapacity
	s.fixup()
	return s
}

// StringWithCapacity is chic_rt_string_with_capacity.
func StringWithCapacity(capacity uintptr) (ChicString, StringError) {
	s := NewChicString()
	if err := s.Reserve(capacity); err != StringSuccess {
		return ChicString{}, err
	}
	return s, StringSuccess
}

// StringFromSlice is chic_rt_string_from_slice.
func StringFromSlice(slice ByteSlice) (ChicString, StringError) {
	s := NewChicString()
	if err := s.PushSlice(slice); err != StringSuccess {
		return ChicString{}, err
	}
	return s, StringSuccess
}

// StringFromChar is chic_rt_string_from_char.
func StringFromChar(value Char) (ChicString, StringError) {
	if !IsScalar(value) {
		return ChicString{}, StringUtf8
	}
	var buf [4]byte
	n := utf8.EncodeRune(buf[:], rune(value))
	return StringFromSlice(BytesToSlice(buf[:n]))
}

// Drop releases s's heap buffer (if any) and zeroes it to the post-drop
// inline state (spec.md 3: "leaves the struct in a zeroed post-drop state").
// Double-drop is a no-op because a second call sees cap<=inline already.
func (s *ChicString) Drop() {
	s.fixup()
	if !s.usesInline() {
		Free(Ptr{Data: s.ptr, Size: s.cap, Align: 1})
	}
	// spec.md 3: post-drop state is length 0, capacity 0, pointer reset to
	// inline — capacity 0 still satisfies the "uses inline" invariant
	// (0 <= StringInlineCapacity), so this is not the same as the freshly
	// constructed state, which leaves the full inline capacity usable.
	*s = ChicString{}
	s.fixup()
}

// Clone is chic_rt_string_clone.
func (s *ChicString) Clone() (ChicString, StringError) {
	return StringFromSlice(s.AsSlice())
}

// CloneSlice is chic_rt_string_clone_slice (clone into an existing target,
// replacing its contents).
func (s *ChicString) CloneSlice(slice ByteSlice) StringError {
	s.Truncate(0)
	return s.PushSlice(slice)
}

// Reserve ensures capacity >= len+additional, per spec.md 4.C's growth
// policy: new capacity is max(len+additional, capacity*2, inline+1), and
// growth is fallible without mutating s on failure.
func (s *ChicString) Reserve(additional uintptr) StringError {
	s.fixup()
	want := s.len + additional
	if want < s.len {
		return StringCapacityOverflow
	}
	if want <= s.cap {
		return StringSuccess
	}
	newCap := want
	if d := s.cap * 2; d > newCap {
		newCap = d
	}
	if StringInlineCapacity+1 > newCap {
		newCap = StringInlineCapacity + 1
	}
	if newCap < want {
		return StringCapacityOverflow
	}
	p := Alloc(newCap, 1)
	if p.Data == nil {
		return StringAllocationFailed
	}
	copyBytes(p.Data, s.dataPtr(), s.len)
	if !s.usesInline() {
		Free(Ptr{Data: s.ptr, Size: s.cap, Align: 1})
	}
	s.ptr = p.Data
	s.cap = newCap
	return StringSuccess
}

func (s *ChicString) dataPtr() unsafe.Pointer {
	s.fixup()
	return s.ptr
}

// PushSlice appends raw bytes, per spec.md 4.C. Callers must land on a
// UTF-8 boundary; ill-formed input is rejected before anything is mutated.
func (s *ChicString) PushSlice(slice ByteSlice) StringError {
	if slice.Len != 0 && slice.Ptr == nil {
		return StringInvalidPointer
	}
	b := slice.bytes()
	if !utf8.Valid(b) {
		return StringUtf8
	}
	if err := s.Reserve(uintptr(len(b))); err != StringSuccess {
		return err
	}
	dst := unsafe.Add(s.dataPtr(), s.len)
	copyBytes(dst, slice.Ptr, slice.Len)
	s.len += slice.Len
	return StringSuccess
}

// Truncate shortens s to new_len, which must land on a UTF-8 boundary
// (spec.md 8: "truncate(s, k) succeeds iff k==0, k==len, or byte k begins a
// UTF-8 scalar").
func (s *ChicString) Truncate(newLen uintptr) StringError {
	s.fixup()
	if newLen > s.len {
		return StringOutOfBounds
	}
	if newLen != 0 && newLen != s.len {
		b := unsafe.Slice((*byte)(s.dataPtr()), s.len)
		if !utf8.RuneStart(b[newLen]) {
			return StringUtf8
		}
	}
	s.len = newLen
	return StringSuccess
}

// ShrinkToFit migrates back to inline storage when the live length fits,
// resolving spec.md 9(b): this is the one explicit "minimize capacity"
// entry point, unlike ordinary shrink-via-truncate which never migrates
// back (to avoid thrashing, per spec.md 4.C).
func (s *ChicString) ShrinkToFit() StringError {
	s.fixup()
	if s.usesInline() {
		return StringSuccess
	}
	if s.len > StringInlineCapacity {
		return StringSuccess // too long for inline; the heap buffer is kept as is
	}
	old := Ptr{Data: s.ptr, Size: s.cap, Align: 1}
	oldLen := s.len
	oldData := s.ptr
	s.cap = StringInlineCapacity
	s.fixup()
	copyBytes(s.ptr, oldData, oldLen)
	s.len = oldLen
	Free(old)
	return StringSuccess
}

// AsSlice is chic_rt_string_as_slice.
func (s *ChicString) AsSlice() ByteSlice {
	return ByteSlice{Ptr: s.dataPtr(), Len: s.len}
}

// AsChars reinterprets the UTF-8 contents as a UTF-16 code-unit span,
// failing with StringUtf8 on ill-formed input (spec.md 4.C). The result is
// a newly allocated []uint16 that does not alias s; scalars above U+FFFF
// become surrogate pairs.
func (s *ChicString) AsChars() ([]uint16, StringError) {
	return sliceAsChars(s.AsSlice())
}

// StrAsChars is chic_rt_str_as_chars: decode a borrowed ChicStr directly.
func StrAsChars(slice ByteSlice) ([]uint16, StringError) {
	return sliceAsChars(slice)
}

func sliceAsChars(slice ByteSlice) ([]uint16, StringError) {
	b := slice.bytes()
	if !utf8.Valid(b) {
		return nil, StringUtf8
	}
	out := make([]uint16, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		out = append(out, utf16.Encode([]rune{r})...)
		b = b[size:]
	}
	return out, StringSuccess
}

// --- typed append family (spec.md 4.C) ---

func (s *ChicString) appendRendered(rendered string, alignment int32, hasAlignment bool) StringError {
	out := applyAlignment(rendered, alignment, hasAlignment)
	return s.PushSlice(BytesToSlice([]byte(out)))
}

// AppendSlice is chic_rt_string_append_slice: append raw bytes with padding.
func (s *ChicString) AppendSlice(slice ByteSlice, alignment int32, hasAlignment bool) StringError {
	return s.appendRendered(string(slice.bytes()), alignment, hasAlignment)
}

// AppendBool is chic_rt_string_append_bool.
func (s *ChicString) AppendBool(value bool, alignment int32, hasAlignment bool, format ByteSlice) StringError {
	text := "false"
	if value {
		text = "true"
	}
	return s.appendRendered(text, alignment, hasAlignment)
}

// AppendChar is chic_rt_string_append_char.
func (s *ChicString) AppendChar(value Char, alignment int32, hasAlignment bool, format ByteSlice) StringError {
	if !IsScalar(value) {
		return StringUtf8
	}
	return s.appendRendered(string(rune(value)), alignment, hasAlignment)
}

// AppendSigned is chic_rt_string_append_signed: low/high/bits is the
// compiler's split representation of a signed integer of width bits.
func (s *ChicString) AppendSigned(low, high uint64, bits uint32, alignment int32, hasAlignment bool, format ByteSlice) StringError {
	d := parseDirective(format.bytes())
	v := combine128(low, high, bits, true)
	return s.appendRendered(renderBigInt(v, d), alignment, hasAlignment)
}

// AppendUnsigned is chic_rt_string_append_unsigned.
func (s *ChicString) AppendUnsigned(low, high uint64, bits uint32, alignment int32, hasAlignment bool, format ByteSlice) StringError {
	d := parseDirective(format.bytes())
	v := combine128(low, high, bits, false)
	return s.appendRendered(renderBigInt(v, d), alignment, hasAlignment)
}

// AppendF32 is chic_rt_string_append_f32.
func (s *ChicString) AppendF32(value float32, alignment int32, hasAlignment bool, format ByteSlice) StringError {
	d := parseDirective(format.bytes())
	return s.appendRendered(renderFloat(float64(value), d), alignment, hasAlignment)
}

// AppendF64 is chic_rt_string_append_f64.
func (s *ChicString) AppendF64(value float64, alignment int32, hasAlignment bool, format ByteSlice) StringError {
	d := parseDirective(format.bytes())
	return s.appendRendered(renderFloat(value, d), alignment, hasAlignment)
}

// AppendF16 is chic_rt_string_append_f16: bits is the raw half-precision
// pattern, decoded via github.com/x448/float16.
func (s *ChicString) AppendF16(bits uint16, alignment int32, hasAlignment bool, format ByteSlice) StringError {
	d := parseDirective(format.bytes())
	return s.appendRendered(renderF16(bits, d), alignment, hasAlignment)
}

// AppendF128 is chic_rt_string_append_f128: bits is the raw binary128
// pattern split as (low, high uint64), since Go has no native 128-bit int.
func (s *ChicString) AppendF128(low, high uint64, alignment int32, hasAlignment bool, format ByteSlice) StringError {
	d := parseDirective(format.bytes())
	return s.appendRendered(renderF128(low, high, d), alignment, hasAlignment)
}
