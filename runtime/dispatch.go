// Dispatch shims (spec.md 4.H). Every container that needs a caller-supplied
// drop or equality operation stores it as one of these typed function
// values and calls it through InvokeDrop/InvokeEq (the one exception is
// ChicVec.Drop, which calls the drop directly under recover), the way
// the teacher's iface.go always routes interface-to-interface conversions
// through getitab rather than inlining the comparison at each call site —
// one obvious place to add tracing or a future safety check.

package runtime

import "unsafe"

// DropFn destroys a single element in place; never returns an error (spec.md
// 7: "the runtime does not install handlers" for misbehaving drops).
type DropFn func(value unsafe.Pointer)

// EqFn reports whether two elements of the same type compare equal.
type EqFn func(lhs, rhs unsafe.Pointer) int32

// HashFn computes a caller-defined 64-bit hash for an element.
type HashFn func(value unsafe.Pointer) uint64

// InvokeDrop calls fn if non-nil; a nil drop means the element type has no
// resources to release (e.g. plain integers), which is a legitimate,
// expected case unlike a nil hash/eq function pointer.
func InvokeDrop(fn DropFn, value unsafe.Pointer) {
	if fn != nil {
		fn(value)
	}
}

// InvokeEq calls the caller-supplied equality function. A nil fn is a
// contract violation per spec.md 4.H and is never passed by a well-behaved
// caller; this shim does not guard against it.
func InvokeEq(fn EqFn, lhs, rhs unsafe.Pointer) int32 {
	return fn(lhs, rhs)
}

// InvokeHash calls the caller-supplied hash function (chic_rt_hash_invoke).
func InvokeHash(fn HashFn, value unsafe.Pointer) uint64 {
	return fn(value)
}
