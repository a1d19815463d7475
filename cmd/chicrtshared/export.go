// Package main is the c-shared boundary: //export wrappers for part of the
// allocator facade and for the character helpers, translating C scalar
// arguments into calls against the pure-Go runtime package. The runtime package itself stays cgo-free and
// unit-testable with ordinary `go test`; only this shim pays the cgo cost,
// the same separation the corpus's FFI-adjacent fixtures
// (_examples/original_source/tests/ffi/*.c) expect of a compiled shared
// object rather than a Go package called directly.
package main

/*
#include <stdint.h>
#include <stddef.h>
*/
import "C"

import (
	"unsafe"

	chic "github.com/Chic-lang/Chic/runtime"
)

func main() {} // required by -buildmode=c-shared, never actually run

// --- allocator facade ---

//export chic_rt_alloc
func chic_rt_alloc(size, align C.size_t) (C.uintptr_t, C.size_t, C.size_t) {
	p := chic.Alloc(uintptr(size), uintptr(align))
	return C.uintptr_t(uintptr(p.Data)), C.size_t(p.Size), C.size_t(p.Align)
}

//export chic_rt_alloc_zeroed
func chic_rt_alloc_zeroed(size, align C.size_t) (C.uintptr_t, C.size_t, C.size_t) {
	p := chic.AllocZeroed(uintptr(size), uintptr(align))
	return C.uintptr_t(uintptr(p.Data)), C.size_t(p.Size), C.size_t(p.Align)
}

//export chic_rt_free
func chic_rt_free(ptr C.uintptr_t, size, align C.size_t) {
	chic.Free(chic.Ptr{Data: unsafe.Pointer(uintptr(ptr)), Size: uintptr(size), Align: uintptr(align)})
}

// --- character helpers ---

//export chic_rt_is_scalar
func chic_rt_is_scalar(c C.uint16_t) C.int {
	return boolToC(chic.IsScalar(chic.Char(c)))
}

//export chic_rt_is_digit
func chic_rt_is_digit(c C.uint16_t) C.int { return boolToC(chic.IsDigit(chic.Char(c))) }

//export chic_rt_is_letter
func chic_rt_is_letter(c C.uint16_t) C.int { return boolToC(chic.IsLetter(chic.Char(c))) }

//export chic_rt_is_whitespace
func chic_rt_is_whitespace(c C.uint16_t) C.int { return boolToC(chic.IsWhitespace(chic.Char(c))) }

//export chic_rt_to_upper
func chic_rt_to_upper(c C.uint16_t) C.uint64_t { return C.uint64_t(chic.ToUpper(chic.Char(c))) }

//export chic_rt_to_lower
func chic_rt_to_lower(c C.uint16_t) C.uint64_t { return C.uint64_t(chic.ToLower(chic.Char(c))) }

//export chic_rt_from_codepoint
func chic_rt_from_codepoint(cp C.uint32_t) C.uint64_t {
	return C.uint64_t(chic.FromCodepoint(uint32(cp)))
}

func boolToC(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

// Exported above: alloc, alloc_zeroed and free, and every character helper.
// Realloc, Install and Reset are not exported, and neither is any String,
// Vector, HashSet, HashMap or shared-cell operation; C callers cannot reach
// those through this package.
