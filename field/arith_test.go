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
	"errors"
	"testing"

	"github.com/probeum/zkmovevm/errkind"
)

func u8(v uint64) Value {
	var f F
	f.SetUint64(v)
	return NewConstant(f, U8)
}

func u64v(v uint64) Value {
	var f F
	f.SetUint64(v)
	return NewConstant(f, U64)
}

func TestAddSubMul(t *testing.T) {
	sum, err := Add(u8(2), u8(3))
	if err != nil {
		t.Fatal(err)
	}
	f, _ := sum.Field()
	if f.Uint64() != 5 {
		t.Fatalf("2+3 = %v, want 5", f.Uint64())
	}

	diff, err := Sub(u8(5), u8(3))
	if err != nil {
		t.Fatal(err)
	}
	f, _ = diff.Field()
	if f.Uint64() != 2 {
		t.Fatalf("5-3 = %v, want 2", f.Uint64())
	}

	prod, err := Mul(u64v(6), u64v(7))
	if err != nil {
		t.Fatal(err)
	}
	f, _ = prod.Field()
	if f.Uint64() != 42 {
		t.Fatalf("6*7 = %v, want 42", f.Uint64())
	}
}

func TestTypeMismatch(t *testing.T) {
	_, err := Add(u8(1), u64v(1))
	if !errors.Is(err, errkind.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestDivRem(t *testing.T) {
	q, err := Div(u64v(10), u64v(3))
	if err != nil {
		t.Fatal(err)
	}
	qf, _ := q.Field()
	if qf.Uint64() != 3 {
		t.Fatalf("10/3 = %v, want 3", qf.Uint64())
	}
	r, err := Rem(u64v(10), u64v(3))
	if err != nil {
		t.Fatal(err)
	}
	rf, _ := r.Field()
	if rf.Uint64() != 1 {
		t.Fatalf("10%%3 = %v, want 1", rf.Uint64())
	}
}

func TestDivByZero(t *testing.T) {
	_, err := Div(u64v(10), u64v(0))
	if !errors.Is(err, errkind.ErrArithmetic) {
		t.Fatalf("expected ErrArithmetic, got %v", err)
	}
}

func TestComparisons(t *testing.T) {
	eq, _ := Eq(u8(3), u8(3))
	if b, _ := eq.AsBool(); !b {
		t.Fatal("3 == 3 should be true")
	}
	lt, _ := Lt(u8(2), u8(3))
	if b, _ := lt.AsBool(); !b {
		t.Fatal("2 < 3 should be true")
	}
	lt2, _ := Lt(u8(3), u8(2))
	if b, _ := lt2.AsBool(); b {
		t.Fatal("3 < 2 should be false")
	}
}

func TestBooleanOps(t *testing.T) {
	tr, fa := NewBool(true), NewBool(false)
	and, _ := And(tr, fa)
	if b, _ := and.AsBool(); b {
		t.Fatal("true && false should be false")
	}
	or, _ := Or(tr, fa)
	if b, _ := or.AsBool(); !b {
		t.Fatal("true || false should be true")
	}
	not, _ := Not(tr)
	if b, _ := not.AsBool(); b {
		t.Fatal("!true should be false")
	}
}

func TestUnknownWitnessPropagates(t *testing.T) {
	var zero F
	unknown := NewVariable(zero, false, U8)
	sum, err := Add(unknown, u8(1))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Known() {
		t.Fatal("sum of unknown witness should remain unknown")
	}
	if _, err := sum.Field(); err == nil {
		t.Fatal("expected an error reading an unknown field value")
	}
}
