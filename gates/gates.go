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

// Package gates implements the parametric circuit fragments of spec.md
// §4.2: add, sub, mul, div, mod, eq, neq, and, or, not, lt, range-check and
// conditional-select. Each fragment is gated by a per-row `cond` value read
// from the shared a3 column, so that cond=0 makes the fragment vacuously
// satisfied - how dead conditional-branch arms are neutralized (spec.md
// §4.5/§4.2 "Gate invariant"). Grounded on zkmove-lite's
// vm/src/chips/arithmetic.rs and vm/src/chips/conditional_select.rs.
package gates

import (
	"fmt"

	"github.com/probeum/zkmovevm/csys"
	"github.com/probeum/zkmovevm/errkind"
	"github.com/probeum/zkmovevm/field"
)

type F = field.F

// Cells collects every operand cell a gate assigned, so the caller (the
// evaluation chip) can bind them to the pre-existing cells of the Values
// that fed the gate via csys.System.EnforceEqual - the "input-binding step"
// of spec.md §4.3.
type Cells struct {
	A, B, Cond, Out field.CellRef
	Extra           []field.CellRef
}

// AssignAdd enforces cond*(a0+a1-a2) = 0 at a fresh row.
func AssignAdd(sys *csys.System, a, b, cond field.Value) (field.Value, Cells, error) {
	return assignLinear(sys, "add", a, b, cond, func(av, bv F) F {
		var out F
		out.Add(&av, &bv)
		return out
	})
}

// AssignSub enforces cond*(a0-a1-a2) = 0 at a fresh row.
func AssignSub(sys *csys.System, a, b, cond field.Value) (field.Value, Cells, error) {
	return assignLinear(sys, "sub", a, b, cond, func(av, bv F) F {
		var out F
		out.Sub(&av, &bv)
		return out
	})
}

// AssignMul enforces cond*(a0*a1-a2) = 0 at a fresh row.
func AssignMul(sys *csys.System, a, b, cond field.Value) (field.Value, Cells, error) {
	return assignLinear(sys, "mul", a, b, cond, func(av, bv F) F {
		var out F
		out.Mul(&av, &bv)
		return out
	})
}

func assignLinear(sys *csys.System, name string, a, b, cond field.Value, compute func(a, b F) F) (field.Value, Cells, error) {
	row := sys.NextRow()
	known := a.Known() && b.Known() && cond.Known()
	var av, bv, cv, outv F
	if known {
		av, _ = a.Field()
		bv, _ = b.Field()
		cv, _ = cond.Field()
		outv = compute(av, bv)
	}
	cells := Cells{
		A:    sys.Assign(field.A0, row, av, known),
		B:    sys.Assign(field.A1, row, bv, known),
		Cond: sys.Assign(field.A3, row, cv, known),
		Out:  sys.Assign(field.A2, row, outv, known),
	}
	sys.AddGate(name, row, func(s *csys.System) (F, error) {
		a0, _ := s.Get(cells.A)
		a1, _ := s.Get(cells.B)
		a2, _ := s.Get(cells.Out)
		c, _ := s.Get(cells.Cond)
		var lin F
		switch name {
		case "add":
			lin.Add(&a0, &a1)
			lin.Sub(&lin, &a2)
		case "sub":
			lin.Sub(&a0, &a1)
			lin.Sub(&lin, &a2)
		case "mul":
			lin.Mul(&a0, &a1)
			lin.Sub(&lin, &a2)
		}
		var res F
		res.Mul(&c, &lin)
		return res, nil
	})
	out := field.NewVariable(outv, known, a.Type()).WithCell(cells.Out)
	return out, cells, nil
}

// AssignDivMod enforces cond*(a0 - a1*a2 - a0@next) = 0, where a2@cur is the
// quotient and a0@next is the remainder. b=0 fails during witness
// generation with ErrArithmetic rather than emitting an unsatisfiable
// constraint, matching spec.md §4.2's "Div/Mod" note.
func AssignDivMod(sys *csys.System, a, b, cond field.Value) (quotient, remainder field.Value, cells Cells, err error) {
	row := sys.NextRow()
	sys.NextRow() // reserve the "next" row for the remainder cell
	known := a.Known() && b.Known() && cond.Known()

	var av, bv, cv, qv, rv F
	if known {
		av, _ = a.Field()
		bv, _ = b.Field()
		cv, _ = cond.Field()
		q, derr := field.Div(a, b)
		if derr != nil {
			if cv.IsZero() {
				// dead branch: the division never actually happens on this
				// execution path, so a divisor of zero must not abort synthesis.
				known = false
			} else {
				return field.Value{}, field.Value{}, Cells{}, derr
			}
		} else {
			qv, _ = q.Field()
			r2, _ := field.Rem(a, b)
			rv, _ = r2.Field()
		}
	}

	cells = Cells{
		A:    sys.Assign(field.A0, row, av, known),
		B:    sys.Assign(field.A1, row, bv, known),
		Cond: sys.Assign(field.A3, row, cv, known),
		Out:  sys.Assign(field.A2, row, qv, known), // quotient
	}
	remCell := sys.Assign(field.A0, row+1, rv, known)
	cells.Extra = []field.CellRef{remCell}

	sys.AddGate("divmod", row, func(s *csys.System) (F, error) {
		a0, _ := s.Get(cells.A)
		a1, _ := s.Get(cells.B)
		a2, _ := s.Get(cells.Out)
		a0n, _ := s.Get(remCell)
		c, _ := s.Get(cells.Cond)
		var qb, lin F
		qb.Mul(&a1, &a2)
		lin.Sub(&a0, &qb)
		lin.Sub(&lin, &a0n)
		var res F
		res.Mul(&c, &lin)
		return res, nil
	})

	quotient = field.NewVariable(qv, known, a.Type()).WithCell(cells.Out)
	remainder = field.NewVariable(rv, known, a.Type()).WithCell(remCell)
	return quotient, remainder, cells, nil
}

// AssignEq introduces δ⁻¹ at a0@next such that (a-b)·δ⁻¹ = 1-out,
// (a-b)·((a-b)·δ⁻¹-1) = 0, and out·(1-out) = 0, all gated by cond.
func AssignEq(sys *csys.System, a, b, cond field.Value) (field.Value, Cells, error) {
	return assignEqNeq(sys, "eq", a, b, cond, true)
}

// AssignNeq mirrors AssignEq with out = (a-b)·δ⁻¹.
func AssignNeq(sys *csys.System, a, b, cond field.Value) (field.Value, Cells, error) {
	return assignEqNeq(sys, "neq", a, b, cond, false)
}

func assignEqNeq(sys *csys.System, name string, a, b, cond field.Value, isEq bool) (field.Value, Cells, error) {
	row := sys.NextRow()
	sys.NextRow() // reserve a0@next for delta-inverse
	known := a.Known() && b.Known() && cond.Known()

	var av, bv, cv, outv, deltaInv F
	if known {
		av, _ = a.Field()
		bv, _ = b.Field()
		cv, _ = cond.Field()
		var diff F
		diff.Sub(&av, &bv)
		if diff.IsZero() {
			deltaInv = F{}
			if isEq {
				outv.SetOne()
			}
		} else {
			deltaInv.Inverse(&diff)
			if !isEq {
				outv.SetOne()
			}
		}
	}

	cells := Cells{
		A:    sys.Assign(field.A0, row, av, known),
		B:    sys.Assign(field.A1, row, bv, known),
		Cond: sys.Assign(field.A3, row, cv, known),
		Out:  sys.Assign(field.A2, row, outv, known),
	}
	deltaCell := sys.Assign(field.A0, row+1, deltaInv, known)
	cells.Extra = []field.CellRef{deltaCell}

	// out*(1-out)=0
	sys.AddGate(name+"_bool", row, func(s *csys.System) (F, error) {
		out, _ := s.Get(cells.Out)
		c, _ := s.Get(cells.Cond)
		var oneMinus, res F
		oneMinus.SetOne()
		oneMinus.Sub(&oneMinus, &out)
		res.Mul(&out, &oneMinus)
		res.Mul(&res, &c)
		return res, nil
	})
	sys.AddGate(name+"_delta", row, func(s *csys.System) (F, error) {
		a0, _ := s.Get(cells.A)
		a1, _ := s.Get(cells.B)
		out, _ := s.Get(cells.Out)
		delta, _ := s.Get(deltaCell)
		c, _ := s.Get(cells.Cond)
		var diff, lhs, rhs, res F
		diff.Sub(&a0, &a1)
		lhs.Mul(&diff, &delta)
		if isEq {
			rhs.SetOne()
			rhs.Sub(&rhs, &out)
		} else {
			rhs.Set(&out)
		}
		res.Sub(&lhs, &rhs)
		res.Mul(&res, &c)
		return res, nil
	})
	sys.AddGate(name+"_zero", row, func(s *csys.System) (F, error) {
		a0, _ := s.Get(cells.A)
		a1, _ := s.Get(cells.B)
		delta, _ := s.Get(deltaCell)
		c, _ := s.Get(cells.Cond)
		var diff, inner, res F
		diff.Sub(&a0, &a1)
		inner.Mul(&diff, &delta)
		var oneV F
		oneV.SetOne()
		inner.Sub(&inner, &oneV)
		res.Mul(&diff, &inner)
		res.Mul(&res, &c)
		return res, nil
	})

	out := field.NewVariable(outv, known, field.Bool).WithCell(cells.Out)
	return out, cells, nil
}

// AssignAnd enforces cond*(a*b-out) = 0.
func AssignAnd(sys *csys.System, a, b, cond field.Value) (field.Value, Cells, error) {
	return assignBoolGate(sys, "and", a, b, cond, func(av, bv F) F {
		var out F
		out.Mul(&av, &bv)
		return out
	})
}

// AssignOr enforces cond*((1-a)(1-b)-(1-out)) = 0 plus out*(1-out)=0.
func AssignOr(sys *csys.System, a, b, cond field.Value) (field.Value, Cells, error) {
	out, cells, err := assignBoolGate(sys, "or", a, b, cond, func(av, bv F) F {
		var one, notA, notB, prod, out F
		one.SetOne()
		notA.Sub(&one, &av)
		notB.Sub(&one, &bv)
		prod.Mul(&notA, &notB)
		out.Sub(&one, &prod)
		return out
	})
	if err != nil {
		return out, cells, err
	}
	sys.AddGate("or_bool", cells.Out.Row, func(s *csys.System) (F, error) {
		o, _ := s.Get(cells.Out)
		c, _ := s.Get(cells.Cond)
		var one, oneMinus, res F
		one.SetOne()
		oneMinus.Sub(&one, &o)
		res.Mul(&o, &oneMinus)
		res.Mul(&res, &c)
		return res, nil
	})
	return out, cells, nil
}

func assignBoolGate(sys *csys.System, name string, a, b, cond field.Value, compute func(a, b F) F) (field.Value, Cells, error) {
	row := sys.NextRow()
	known := a.Known() && b.Known() && cond.Known()
	var av, bv, cv, outv F
	if known {
		av, _ = a.Field()
		bv, _ = b.Field()
		cv, _ = cond.Field()
		outv = compute(av, bv)
	}
	cells := Cells{
		A:    sys.Assign(field.A0, row, av, known),
		B:    sys.Assign(field.A1, row, bv, known),
		Cond: sys.Assign(field.A3, row, cv, known),
		Out:  sys.Assign(field.A2, row, outv, known),
	}
	sys.AddGate(name, row, func(s *csys.System) (F, error) {
		a0, _ := s.Get(cells.A)
		a1, _ := s.Get(cells.B)
		a2, _ := s.Get(cells.Out)
		c, _ := s.Get(cells.Cond)
		lin := compute(a0, a1)
		lin.Sub(&lin, &a2)
		var res F
		res.Mul(&c, &lin)
		return res, nil
	})
	out := field.NewVariable(outv, known, field.Bool).WithCell(cells.Out)
	return out, cells, nil
}

// AssignNot enforces cond*(1-a-out) = 0.
func AssignNot(sys *csys.System, a, cond field.Value) (field.Value, Cells, error) {
	row := sys.NextRow()
	known := a.Known() && cond.Known()
	var av, cv, outv F
	if known {
		av, _ = a.Field()
		cv, _ = cond.Field()
		var one F
		one.SetOne()
		outv.Sub(&one, &av)
	}
	cells := Cells{
		A:    sys.Assign(field.A0, row, av, known),
		Cond: sys.Assign(field.A3, row, cv, known),
		Out:  sys.Assign(field.A2, row, outv, known),
	}
	sys.AddGate("not", row, func(s *csys.System) (F, error) {
		a0, _ := s.Get(cells.A)
		a2, _ := s.Get(cells.Out)
		c, _ := s.Get(cells.Cond)
		var one, lin, res F
		one.SetOne()
		lin.Sub(&one, &a0)
		lin.Sub(&lin, &a2)
		res.Mul(&c, &lin)
		return res, nil
	})
	out := field.NewVariable(outv, known, field.Bool).WithCell(cells.Out)
	return out, cells, nil
}

// AssignConditionalSelect enforces out = cond·a + (1-cond)·b and
// cond·(1-cond) = 0.
func AssignConditionalSelect(sys *csys.System, a, b, cond field.Value) (field.Value, Cells, error) {
	row := sys.NextRow()
	known := a.Known() && b.Known() && cond.Known()
	var av, bv, cv, outv F
	if known {
		av, _ = a.Field()
		bv, _ = b.Field()
		cv, _ = cond.Field()
		var oneMinusC, left, right F
		oneMinusC.SetOne()
		oneMinusC.Sub(&oneMinusC, &cv)
		left.Mul(&cv, &av)
		right.Mul(&oneMinusC, &bv)
		outv.Add(&left, &right)
	}
	cells := Cells{
		A:    sys.Assign(field.A0, row, av, known),
		B:    sys.Assign(field.A1, row, bv, known),
		Cond: sys.Assign(field.A3, row, cv, known),
		Out:  sys.Assign(field.A2, row, outv, known),
	}
	sys.AddGate("select", row, func(s *csys.System) (F, error) {
		a0, _ := s.Get(cells.A)
		a1, _ := s.Get(cells.B)
		out, _ := s.Get(cells.Out)
		c, _ := s.Get(cells.Cond)
		var one, oneMinusC, left, right, res F
		one.SetOne()
		oneMinusC.Sub(&one, &c)
		left.Mul(&c, &a0)
		right.Mul(&oneMinusC, &a1)
		res.Add(&left, &right)
		res.Sub(&res, &out)
		return res, nil
	})
	sys.AddGate("select_bool", row, func(s *csys.System) (F, error) {
		c, _ := s.Get(cells.Cond)
		var one, oneMinusC, res F
		one.SetOne()
		oneMinusC.Sub(&one, &c)
		res.Mul(&c, &oneMinusC)
		return res, nil
	})
	out := field.NewVariable(outv, known, a.Type()).WithCell(cells.Out)
	return out, cells, nil
}

// AssignLt reconstructs the lower 16 bytes of diff = (a-b) + out*2^128 from
// byte cells placed four-per-row across rows next..next+3, and enforces
// out·(1-out) = 0. Each byte cell is additionally range-checked to [0,256)
// here via csys.System.Lookup8.
func AssignLt(sys *csys.System, a, b, cond field.Value) (field.Value, Cells, []field.CellRef, error) {
	row := sys.NextRow()
	for i := 0; i < 4; i++ {
		sys.NextRow()
	}
	known := a.Known() && b.Known() && cond.Known()

	var av, bv, cv, outv F
	var diffBytes [16]byte
	if known {
		av, _ = a.Field()
		bv, _ = b.Field()
		cv, _ = cond.Field()
		lt, _ := field.Lt(a, b)
		ltb, _ := lt.AsBool()
		if ltb {
			outv.SetOne()
		}
		diffBytes = diffLE128(av, bv, ltb)
	}

	cells := Cells{
		A:    sys.Assign(field.A0, row, av, known),
		B:    sys.Assign(field.A1, row, bv, known),
		Out:  sys.Assign(field.A2, row, outv, known),
		Cond: sys.Assign(field.A3, row, cv, known),
	}
	byteCells := make([]field.CellRef, 16)
	cols := [4]field.Column{field.A0, field.A1, field.A2, field.A3}
	for i := 0; i < 16; i++ {
		r := row + 1 + i/4
		col := cols[i%4]
		var bf F
		if known {
			bf.SetUint64(uint64(diffBytes[i]))
		}
		cell := sys.Assign(col, r, bf, known)
		byteCells[i] = cell
		sys.Lookup8(cell)
	}
	cells.Extra = byteCells

	sys.AddGate("lt_bool", row, func(s *csys.System) (F, error) {
		out, _ := s.Get(cells.Out)
		c, _ := s.Get(cells.Cond)
		var one, oneMinus, res F
		one.SetOne()
		oneMinus.Sub(&one, &out)
		res.Mul(&out, &oneMinus)
		res.Mul(&res, &c)
		return res, nil
	})
	sys.AddGate("lt_decomp", row, func(s *csys.System) (F, error) {
		a0, _ := s.Get(cells.A)
		a1, _ := s.Get(cells.B)
		out, _ := s.Get(cells.Out)
		c, _ := s.Get(cells.Cond)
		var diff, r, outR, lhs F
		diff.Sub(&a0, &a1)
		r = pow2(128)
		outR.Mul(&out, &r)
		lhs.Add(&diff, &outR)
		var acc, base F
		base.SetOne()
		step := twoFiftySix()
		for i := 0; i < 16; i++ {
			bv, _ := s.Get(byteCells[i])
			var term F
			term.Mul(&bv, &base)
			acc.Add(&acc, &term)
			base.Mul(&base, &step)
		}
		lhs.Sub(&lhs, &acc)
		var res F
		res.Mul(&c, &lhs)
		return res, nil
	})

	out := field.NewVariable(outv, known, field.Bool).WithCell(cells.Out)
	return out, cells, byteCells, nil
}

func twoFiftySix() F {
	var v F
	v.SetUint64(256)
	return v
}

func pow2(n uint) F {
	var v, two F
	v.SetUint64(1)
	two.SetUint64(2)
	for i := uint(0); i < n; i++ {
		v.Mul(&v, &two)
	}
	return v
}

// diffLE128 computes the little-endian 16-byte encoding of
// (a-b) + [a<b]*2^128, matching the Lt gate's decomposition.
func diffLE128(a, b F, lt bool) [16]byte {
	var diff F
	diff.Sub(&a, &b)
	if lt {
		shift := pow2(128)
		diff.Add(&diff, &shift)
	}
	var wide [32]byte
	be := diff.Bytes()
	copy(wide[32-len(be):], be[:])
	var out [16]byte
	for i := 0; i < 16; i++ {
		out[i] = wide[31-i]
	}
	return out
}

// AssignRangeCheck decomposes v into ceil(bits/8) byte cells placed across
// consecutive rows (4 bytes per row), enforces value = Σ bᵢ·256ⁱ, and
// range-checks each byte cell via csys.System.Lookup8. Gated by cond, so a
// dead branch's values need not respect the bound (spec.md §4.2.k).
func AssignRangeCheck(sys *csys.System, v field.Value, cond field.Value) ([]field.CellRef, error) {
	nbytes := v.Type().Bits() / 8
	if nbytes == 0 {
		nbytes = 1 // Bool: single {0,1} byte
	}
	startRow := sys.NextRow()
	nrows := (nbytes + 3) / 4
	for i := 1; i < nrows; i++ {
		sys.NextRow()
	}
	known := v.Known() && cond.Known()

	var vv, cv F
	var bytesLE []byte
	if known {
		vv, _ = v.Field()
		cv, _ = cond.Field()
		var bi [32]byte
		b := vv.Bytes()
		copy(bi[32-len(b):], b[:])
		bytesLE = make([]byte, nbytes)
		for i := 0; i < nbytes; i++ {
			bytesLE[i] = bi[31-i]
		}
	}

	cols := [4]field.Column{field.A0, field.A1, field.A2, field.A3}
	byteCells := make([]field.CellRef, nbytes)
	for i := 0; i < nbytes; i++ {
		r := startRow + i/4
		col := cols[i%4]
		var bf F
		if known {
			bf.SetUint64(uint64(bytesLE[i]))
		}
		cell := sys.Assign(col, r, bf, known)
		byteCells[i] = cell
		sys.Lookup8(cell)
	}

	valueCell := v.Cell()
	if valueCell == nil {
		return nil, fmt.Errorf("%w: range-checked value has no circuit cell", errkind.ErrValueConversion)
	}
	condCell := cond.Cell()

	sys.AddGate("range_check", startRow, func(s *csys.System) (F, error) {
		vv, _ := s.Get(*valueCell)
		var c F
		c.SetOne()
		if condCell != nil {
			if cv2, ok := s.Get(*condCell); ok {
				c = cv2
			}
		}
		var acc, base F
		base.SetOne()
		step := twoFiftySix()
		for i := 0; i < nbytes; i++ {
			bv, _ := s.Get(byteCells[i])
			var term F
			term.Mul(&bv, &base)
			acc.Add(&acc, &term)
			base.Mul(&base, &step)
		}
		var lin, res F
		lin.Sub(&vv, &acc)
		res.Mul(&c, &lin)
		return res, nil
	})
	return byteCells, nil
}
