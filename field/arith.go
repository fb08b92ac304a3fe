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

package field

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/probeum/zkmovevm/errkind"
)

// This file implements the pure, constraint-free "witness layer" arithmetic
// of spec.md §4.1: used both to compute the witness bound to circuit cells
// later, and as a reference oracle in tests.

func sameType(a, b Value) error {
	if a.ty != b.ty {
		return fmt.Errorf("%w: %s vs %s", errkind.ErrTypeMismatch, a.ty, b.ty)
	}
	return nil
}

func bothKnown(a, b Value) (F, F, bool) {
	af, aerr := a.Field()
	bf, berr := b.Field()
	return af, bf, aerr == nil && berr == nil
}

// Add returns a+b in the field; result type is the shared input type.
func Add(a, b Value) (Value, error) {
	if err := sameType(a, b); err != nil {
		return Value{}, err
	}
	af, bf, ok := bothKnown(a, b)
	if !ok {
		return NewVariable(F{}, false, a.ty), nil
	}
	var out F
	out.Add(&af, &bf)
	return NewVariable(out, true, a.ty), nil
}

// Sub returns a-b in the field; result type is the shared input type.
func Sub(a, b Value) (Value, error) {
	if err := sameType(a, b); err != nil {
		return Value{}, err
	}
	af, bf, ok := bothKnown(a, b)
	if !ok {
		return NewVariable(F{}, false, a.ty), nil
	}
	var out F
	out.Sub(&af, &bf)
	return NewVariable(out, true, a.ty), nil
}

// Mul returns a*b in the field; result type is the shared input type.
func Mul(a, b Value) (Value, error) {
	if err := sameType(a, b); err != nil {
		return Value{}, err
	}
	af, bf, ok := bothKnown(a, b)
	if !ok {
		return NewVariable(F{}, false, a.ty), nil
	}
	var out F
	out.Mul(&af, &bf)
	return NewVariable(out, true, a.ty), nil
}

// toBoundedBig lifts a field element of type ty back into its bounded
// integer domain [0, 2^bits), re-projecting via uint256 for the u128/u64
// width the way a 256-bit machine word naturally holds a Move u128.
func toBoundedBig(v F, ty Tag) (*big.Int, error) {
	var bi big.Int
	v.ToBigIntRegular(&bi)
	bits := ty.Bits()
	if bits == 1 {
		bits = 8 // Bool is checked as {0,1} but still fits a byte for bound purposes
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	if bi.Cmp(limit) >= 0 {
		return nil, fmt.Errorf("%w: value exceeds %s range", errkind.ErrValueConversion, ty)
	}
	var u256 uint256.Int
	u256.SetFromBig(&bi)
	return u256.ToBig(), nil
}

// Div performs Move integer division: lift a,b into the shared bounded
// integer domain, perform checked integer division, re-lift into the field.
func Div(a, b Value) (Value, error) {
	return divmod(a, b, true)
}

// Rem performs Move integer modulo, mirroring Div.
func Rem(a, b Value) (Value, error) {
	return divmod(a, b, false)
}

func divmod(a, b Value, wantQuotient bool) (Value, error) {
	if err := sameType(a, b); err != nil {
		return Value{}, err
	}
	if a.ty == Bool {
		return Value{}, fmt.Errorf("%w: div/mod on bool", errkind.ErrTypeMismatch)
	}
	af, bf, ok := bothKnown(a, b)
	if !ok {
		return NewVariable(F{}, false, a.ty), nil
	}
	abig, err := toBoundedBig(af, a.ty)
	if err != nil {
		return Value{}, err
	}
	bbig, err := toBoundedBig(bf, a.ty)
	if err != nil {
		return Value{}, err
	}
	if bbig.Sign() == 0 {
		return Value{}, fmt.Errorf("%w: division by zero", errkind.ErrArithmetic)
	}
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(abig, bbig, r)
	result := q
	if !wantQuotient {
		result = r
	}
	var out F
	out.SetBigInt(result)
	return NewVariable(out, true, a.ty), nil
}

// Eq returns a Bool value, 1 iff a and b's field representations match.
func Eq(a, b Value) (Value, error) {
	if err := sameType(a, b); err != nil {
		return Value{}, err
	}
	af, bf, ok := bothKnown(a, b)
	if !ok {
		return NewVariable(F{}, false, Bool), nil
	}
	return NewBoolVariable(af.Equal(&bf)), nil
}

// Neq returns a Bool value, 1 iff a and b's field representations differ.
func Neq(a, b Value) (Value, error) {
	eq, err := Eq(a, b)
	if err != nil {
		return Value{}, err
	}
	if !eq.Known() {
		return NewVariable(F{}, false, Bool), nil
	}
	b2, _ := eq.AsBool()
	return NewBoolVariable(!b2), nil
}

// checkBit validates v is Bool-typed without forcing a witness read, so
// callers can check the type eagerly and the witness lazily - an unknown
// witness (key generation) must propagate as an unknown result, not an error.
func checkBit(v Value) error {
	if v.ty != Bool {
		return fmt.Errorf("%w: expected bool, got %s", errkind.ErrTypeMismatch, v.ty)
	}
	return nil
}

// And returns the logical AND of two Bool values.
func And(a, b Value) (Value, error) {
	if err := checkBit(a); err != nil {
		return Value{}, err
	}
	if err := checkBit(b); err != nil {
		return Value{}, err
	}
	if !a.Known() || !b.Known() {
		return NewVariable(F{}, false, Bool), nil
	}
	ab, _ := a.AsBool()
	bb, _ := b.AsBool()
	return NewBoolVariable(ab && bb), nil
}

// Or returns the logical OR of two Bool values.
func Or(a, b Value) (Value, error) {
	if err := checkBit(a); err != nil {
		return Value{}, err
	}
	if err := checkBit(b); err != nil {
		return Value{}, err
	}
	if !a.Known() || !b.Known() {
		return NewVariable(F{}, false, Bool), nil
	}
	ab, _ := a.AsBool()
	bb, _ := b.AsBool()
	return NewBoolVariable(ab || bb), nil
}

// Not returns the logical negation of a Bool value.
func Not(a Value) (Value, error) {
	if err := checkBit(a); err != nil {
		return Value{}, err
	}
	if !a.Known() {
		return NewVariable(F{}, false, Bool), nil
	}
	ab, _ := a.AsBool()
	return NewBoolVariable(!ab), nil
}

// Lt returns a Bool value, 1 iff a < b as bounded unsigned integers of the
// shared type.
func Lt(a, b Value) (Value, error) {
	if err := sameType(a, b); err != nil {
		return Value{}, err
	}
	af, bf, ok := bothKnown(a, b)
	if !ok {
		return NewVariable(F{}, false, Bool), nil
	}
	abig, err := toBoundedBig(af, a.ty)
	if err != nil {
		return Value{}, err
	}
	bbig, err := toBoundedBig(bf, a.ty)
	if err != nil {
		return Value{}, err
	}
	return NewBoolVariable(abig.Cmp(bbig) < 0), nil
}

// NewBoolVariable builds a concrete, Variable-kind Bool value.
func NewBoolVariable(b bool) Value {
	var v F
	if b {
		v.SetOne()
	}
	return NewVariable(v, true, Bool)
}
