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

// Package field wraps the scalar field of the proving system's curve (BN254,
// via consensys/gnark-crypto) with a Move-level semantic type tag and an
// optional handle to a circuit cell, and provides witness-only arithmetic
// over the resulting Value. Grounded on zkmove-lite's movelang/src/value.rs.
package field

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/probeum/zkmovevm/errkind"
)

// F is the prime field element type every value circulates as.
type F = fr.Element

// Tag is the Move-level semantic type a field element stands for.
type Tag int

const (
	U8 Tag = iota
	U64
	U128
	Bool
)

func (t Tag) String() string {
	switch t {
	case U8:
		return "u8"
	case U64:
		return "u64"
	case U128:
		return "u128"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Bits returns the bit width the range-check regime enforces for t.
// Bool is checked as a single {0,1} bit, i.e. 1 bit.
func (t Tag) Bits() int {
	switch t {
	case U8:
		return 8
	case U64:
		return 64
	case U128:
		return 128
	case Bool:
		return 1
	default:
		return 0
	}
}

// Column identifies one of the four shared advice columns, or a fixed/
// instance column, that a cell lives in.
type Column int

const (
	A0 Column = iota
	A1
	A2
	A3
	ColFixed
	ColInstance
)

func (c Column) String() string {
	names := [...]string{"a0", "a1", "a2", "a3", "fixed", "instance"}
	if int(c) < len(names) {
		return names[c]
	}
	return "?"
}

// CellRef is an opaque handle to a position in the constraint matrix: a
// (column, row) pair. Two values are wire-equal iff their CellRef compares
// equal; the equality argument of the proof system then forces their field
// values to coincide.
type CellRef struct {
	Column Column
	Row    int
}

func (c CellRef) String() string { return fmt.Sprintf("%s@%d", c.Column, c.Row) }

// Kind discriminates the three cases of Value.
type Kind int

const (
	Invalid Kind = iota
	Constant
	Variable
)

// Value is the sum type of §3: Invalid (an uninitialized locals slot),
// Constant (a compile-time-known value), or Variable (a computed value
// whose witness may be absent during key generation).
type Value struct {
	kind  Kind
	v     F
	known bool // whether v holds a concrete witness (always true for Constant)
	cell  *CellRef
	ty    Tag
}

// InvalidValue is the uninitialized locals slot.
func InvalidValue() Value { return Value{kind: Invalid} }

// NewConstant builds a Constant value of type ty.
func NewConstant(v F, ty Tag) Value {
	return Value{kind: Constant, v: v, known: true, ty: ty}
}

// NewVariable builds a Variable value of type ty. known is false when no
// witness is available (key generation); v is then ignored.
func NewVariable(v F, known bool, ty Tag) Value {
	val := Value{kind: Variable, ty: ty, known: known}
	if known {
		val.v = v
	}
	return val
}

// NewBool builds a Bool-typed Constant from a Go bool.
func NewBool(b bool) Value {
	var v F
	if b {
		v.SetOne()
	}
	return NewConstant(v, Bool)
}

// Kind, Type, Cell, WithCell, Known, Field accessors.
func (val Value) Kind() Kind      { return val.kind }
func (val Value) Type() Tag       { return val.ty }
func (val Value) Cell() *CellRef  { return val.cell }
func (val Value) Known() bool     { return val.known }
func (val Value) IsInvalid() bool { return val.kind == Invalid }

// WithCell returns a copy of val bound to cell, recording that a circuit
// wire now backs this logical quantity.
func (val Value) WithCell(cell CellRef) Value {
	val.cell = &cell
	return val
}

// Field returns the concrete field element, or an error wrapping
// errkind.ErrValueConversion if no witness is present.
func (val Value) Field() (F, error) {
	if val.kind == Invalid {
		return F{}, fmt.Errorf("field: value is invalid")
	}
	if !val.known {
		return F{}, fmt.Errorf("%w: field: value has no witness", errkind.ErrValueConversion)
	}
	return val.v, nil
}

// MustField panics if the value has no concrete witness; reserved for sites
// that already established Known() == true.
func (val Value) MustField() F {
	f, err := val.Field()
	if err != nil {
		panic(err)
	}
	return f
}

// AsBool interprets a known Bool value as a Go bool.
func (val Value) AsBool() (bool, error) {
	if val.ty != Bool {
		return false, fmt.Errorf("field: %s is not bool", val.ty)
	}
	f, err := val.Field()
	if err != nil {
		return false, err
	}
	return !f.IsZero(), nil
}
