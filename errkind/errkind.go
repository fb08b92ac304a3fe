// Copyright 2024 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package errkind holds the sentinel error taxonomy shared by every package
// of the interpreter/circuit core.
package errkind

import (
	"errors"
	"fmt"
)

var (
	// ErrStackUnderflow is returned when an operand stack pop is attempted on an empty stack.
	ErrStackUnderflow = errors.New("operand stack underflow")
	// ErrStackOverflow is returned when a push would exceed a bounded stack's depth limit.
	ErrStackOverflow = errors.New("operand stack overflow")
	// ErrValueConversion is returned when a value with no concrete witness reaches a point requiring one.
	ErrValueConversion = errors.New("value has no concrete witness")
	// ErrScriptLoading is returned when the loader rejects the compiled script.
	ErrScriptLoading = errors.New("script loading error")
	// ErrCopyLocal is returned by CopyLoc on an invalid (uninitialized) slot.
	ErrCopyLocal = errors.New("copy of invalid local")
	// ErrStoreLocal is returned by StLoc on an illegal local access.
	ErrStoreLocal = errors.New("store to local failed")
	// ErrMoveLocal is returned by MoveLoc on an invalid (uninitialized) slot.
	ErrMoveLocal = errors.New("move of invalid local")
	// ErrOutOfBounds is returned when a local index falls outside the declared local count.
	ErrOutOfBounds = errors.New("local index out of bounds")
	// ErrUnsupportedBytecode is returned for any opcode outside the supported set.
	ErrUnsupportedBytecode = errors.New("unsupported bytecode")
	// ErrUnsupportedMoveType is returned for an argument type outside {U8,U64,U128,Bool}.
	ErrUnsupportedMoveType = errors.New("unsupported move type")
	// ErrTypeMismatch is returned when a binary op is applied to mismatched types.
	ErrTypeMismatch = errors.New("binary operation on mismatched types")
	// ErrArithmetic is returned on division or modulo by zero.
	ErrArithmetic = errors.New("arithmetic error")
	// ErrMoveAbort wraps the MoveAbortError sentinel; use errors.As to recover the code.
	ErrMoveAbort = errors.New("move abort")
	// ErrProgramBlock is returned when control-flow partitioning or the merge invariant is violated.
	ErrProgramBlock = errors.New("program block error")
	// ErrShouldNotReachHere marks an internal invariant violation.
	ErrShouldNotReachHere = errors.New("should not reach here")
	// ErrModuleNotFound is returned when the loader cannot resolve a module.
	ErrModuleNotFound = errors.New("module not found")
	// ErrProofSystem wraps a failure surfaced by the proving-system boundary.
	ErrProofSystem = errors.New("proof system error")
	// ErrLoopBoundExceeded is returned when a back-edge is still live past
	// its bounded number of revisits (spec.md §8's "implementers may
	// optionally cap total steps").
	ErrLoopBoundExceeded = errors.New("loop bound exceeded")
)

// MoveAbortError carries the Move-level abort code of a live execution path.
type MoveAbortError struct {
	PC   int
	Code uint64
}

func (e *MoveAbortError) Error() string {
	return fmt.Sprintf("move abort at pc=%d: code %d", e.PC, e.Code)
}

// Is lets errors.Is(err, ErrMoveAbort) match a *MoveAbortError.
func (e *MoveAbortError) Is(target error) bool {
	return target == ErrMoveAbort
}

// UnsupportedOpError reports the unsupported opcode alongside ErrUnsupportedBytecode.
type UnsupportedOpError struct {
	Op byte
	PC int
}

func (e *UnsupportedOpError) Error() string {
	return fmt.Sprintf("unsupported bytecode 0x%02x at pc=%d", e.Op, e.PC)
}

func (e *UnsupportedOpError) Unwrap() error { return ErrUnsupportedBytecode }
