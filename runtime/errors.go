// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Error codes for the Chic runtime's public operations. 0 is always
// Success; every other family keeps its own small int32 enum so the ABI
// boundary (cmd/chicrtshared) can hand the raw code back across the C
// calling convention without translation.

package runtime

// StringError mirrors chic_rt.h's StringError enum.
type StringError int32

const (
	StringSuccess          StringError = 0
	StringUtf8             StringError = 1
	StringCapacityOverflow StringError = 2
	StringAllocationFailed StringError = 3
	StringInvalidPointer   StringError = 4
	StringOutOfBounds      StringError = 5
)

func (e StringError) Error() string {
	switch e {
	case StringSuccess:
		return "success"
	case StringUtf8:
		return "ill-formed utf-8"
	case StringCapacityOverflow:
		return "capacity overflow"
	case StringAllocationFailed:
		return "allocation failed"
	case StringInvalidPointer:
		return "invalid pointer"
	case StringOutOfBounds:
		return "out of bounds"
	default:
		return "unknown string error"
	}
}

// CharError mirrors chic_rt.h's CharError enum.
type CharError int32

const (
	CharSuccess        CharError = 0
	CharInvalidScalar  CharError = 1
	CharNullPointer    CharError = 2
	CharComplexMapping CharError = 3
)

// VecError mirrors chic_rt.h's VecError enum.
type VecError int32

const (
	VecSuccess          VecError = 0
	VecAllocationFailed VecError = 1
	VecInvalidPointer   VecError = 2
	VecCapacityOverflow VecError = 3
	VecOutOfBounds      VecError = 4
	VecLengthOverflow   VecError = 5
	VecIterationDone    VecError = 6
)

func (e VecError) Error() string {
	switch e {
	case VecSuccess:
		return "success"
	case VecAllocationFailed:
		return "allocation failed"
	case VecInvalidPointer:
		return "invalid pointer"
	case VecCapacityOverflow:
		return "capacity overflow"
	case VecOutOfBounds:
		return "out of bounds"
	case VecLengthOverflow:
		return "length overflow"
	case VecIterationDone:
		return "iteration complete"
	default:
		return "unknown vec error"
	}
}

// HashSetError mirrors chic_rt.h's HashSetError enum.
type HashSetError int32

const (
	HashSetSuccess          HashSetError = 0
	HashSetAllocationFailed HashSetError = 1
	HashSetInvalidPointer   HashSetError = 2
	HashSetCapacityOverflow HashSetError = 3
	HashSetNotFound         HashSetError = 4
	HashSetIterationDone    HashSetError = 5
)

func (e HashSetError) Error() string {
	switch e {
	case HashSetSuccess:
		return "success"
	case HashSetAllocationFailed:
		return "allocation failed"
	case HashSetInvalidPointer:
		return "invalid pointer"
	case HashSetCapacityOverflow:
		return "capacity overflow"
	case HashSetNotFound:
		return "not found"
	case HashSetIterationDone:
		return "iteration complete"
	default:
		return "unknown hashset error"
	}
}

// HashMapError mirrors chic_rt.h's HashMapError enum. Same ordering as
// HashSetError since HashMap is a HashSet variant (spec.md 4.F).
type HashMapError int32

const (
	HashMapSuccess          HashMapError = 0
	HashMapAllocationFailed HashMapError = 1
	HashMapInvalidPointer   HashMapError = 2
	HashMapCapacityOverflow HashMapError = 3
	HashMapNotFound         HashMapError = 4
	HashMapIterationDone    HashMapError = 5
)

func (e HashMapError) Error() string {
	switch e {
	case HashMapSuccess:
		return "success"
	case HashMapAllocationFailed:
		return "allocation failed"
	case HashMapInvalidPointer:
		return "invalid pointer"
	case HashMapCapacityOverflow:
		return "capacity overflow"
	case HashMapNotFound:
		return "not found"
	case HashMapIterationDone:
		return "iteration complete"
	default:
		return "unknown hashmap error"
	}
}

// SharedError mirrors chic_rt.h's SharedError enum (negative codes, per the
// header: the shared-cell family is the one ABI family that signals failure
// with negative ints rather than a disjoint positive enum).
type SharedError int32

const (
	SharedSuccess          SharedError = 0
	SharedInvalidPointer   SharedError = -1
	SharedAllocationFailed SharedError = -2
	SharedOverflow         SharedError = -3
)

func (e SharedError) Error() string {
	switch e {
	case SharedSuccess:
		return "success"
	case SharedInvalidPointer:
		return "invalid pointer"
	case SharedAllocationFailed:
		return "allocation failed"
	case SharedOverflow:
		return "refcount overflow"
	default:
		return "unknown shared-cell error"
	}
}
