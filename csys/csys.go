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

// Package csys is the row-based constraint-system substrate the gate
// library and evaluation chip are built on: a small assignment table
// (four shared advice columns plus a fixed and an instance column), a
// region allocator, copy (equality) constraints, and named polynomial
// gates each evaluated against the table. It plays the role that a real
// halo2/PLONK arithmetization crate plays in the Rust original; since no
// such circuit-compiler dependency exists in the surrounding stack, this
// package is that layer, built directly on consensys/gnark-crypto's field
// and KZG primitives (see provsys for the proving/verifying side).
package csys

import (
	"fmt"
	"math/big"

	"github.com/probeum/zkmovevm/field"
	"github.com/probeum/zkmovevm/log"
)

type F = field.F
type CellRef = field.CellRef
type Column = field.Column

var logger = log.New("pkg", "csys")

// GateFn evaluates a gate's residual polynomial at row using the table's
// current assignment. It must return the zero field element exactly when
// the gate is satisfied. Returning an error aborts synthesis (e.g. a
// division-by-zero detected while assigning the witness feeding the gate).
type GateFn func(sys *System) (F, error)

type namedGate struct {
	name string
	row  int
	fn   GateFn
}

type equality struct{ a, b CellRef }

type byteLookup struct {
	cell CellRef
}

// System is the append-only constraint system: once a gate, equality, or
// lookup is recorded it is never removed (spec.md §5).
type System struct {
	WitnessMode bool // true once a concrete witness is being assigned (proving); false during key generation

	advice   map[CellRef]F
	known    map[CellRef]bool
	fixed    map[CellRef]F
	instance map[int]F

	gates      []namedGate
	equalities []equality
	lookups    []byteLookup

	rows int
}

// New creates an empty constraint system. witnessMode selects whether
// assignments are expected to carry real field values (true, proving) or
// may be left unknown (false, key generation - see spec.md §9).
func New(witnessMode bool) *System {
	return &System{
		WitnessMode: witnessMode,
		advice:      make(map[CellRef]F),
		known:       make(map[CellRef]bool),
		fixed:       make(map[CellRef]F),
		instance:    make(map[int]F),
	}
}

// NextRow reserves and returns a fresh row index, advancing the region
// allocator. Gates that span multiple rows (div/mod, lt, range-check)
// reserve as many consecutive rows as they need via this call.
func (s *System) NextRow() int {
	r := s.rows
	s.rows++
	return r
}

// Rows returns the number of rows allocated so far.
func (s *System) Rows() int { return s.rows }

// Assign writes v into (col, row) of the advice area. known records whether
// v is a genuine witness value (false at key generation, per spec.md §9,
// which still assigns the deterministic placeholder 0 so column layout is
// identical across key generation and proving).
func (s *System) Assign(col Column, row int, v F, known bool) CellRef {
	cell := CellRef{Column: col, Row: row}
	if !known {
		v = F{}
	}
	s.advice[cell] = v
	s.known[cell] = known
	if row >= s.rows {
		s.rows = row + 1
	}
	return cell
}

// AssignFixed writes a compile-time-known value into the fixed column.
func (s *System) AssignFixed(row int, v F) CellRef {
	cell := CellRef{Column: field.ColFixed, Row: row}
	s.fixed[cell] = v
	if row >= s.rows {
		s.rows = row + 1
	}
	return cell
}

// Get reads back a previously assigned cell. ok is false if the cell was
// never assigned, or was assigned with known=false.
func (s *System) Get(cell CellRef) (F, bool) {
	switch cell.Column {
	case field.ColFixed:
		v, ok := s.fixed[cell]
		return v, ok
	case field.ColInstance:
		v, ok := s.instance[cell.Row]
		return v, ok
	default:
		v, ok := s.known[cell]
		if !ok || !v {
			return F{}, false
		}
		return s.advice[cell], true
	}
}

// EnforceEqual records a copy constraint between two cells: the proof
// system's equality argument forces their field values to coincide. This
// is how a value produced in one region is plumbed into a later gate's
// input columns (spec.md §4.3's "input-binding step").
func (s *System) EnforceEqual(a, b CellRef) {
	s.equalities = append(s.equalities, equality{a, b})
}

// AddGate records a named polynomial gate to be checked at row.
func (s *System) AddGate(name string, row int, fn GateFn) {
	s.gates = append(s.gates, namedGate{name: name, row: row, fn: fn})
}

// ExposePublic binds cell to the public instance column at the given row.
func (s *System) ExposePublic(cell CellRef, row int) error {
	v, ok := s.Get(cell)
	if !ok {
		if s.WitnessMode {
			return fmt.Errorf("csys: cannot expose unknown cell %s as public input", cell)
		}
		v = F{}
	}
	s.instance[row] = v
	s.EnforceEqual(cell, CellRef{Column: field.ColInstance, Row: row})
	return nil
}

// Lookup8 records that cell must hold a value in [0, 256); the real proving
// system realizes this via a fixed 8-bit lookup table column, as spec.md
// §4.2.k allows ("a lookup or a dedicated 8-bit table").
func (s *System) Lookup8(cell CellRef) {
	s.lookups = append(s.lookups, byteLookup{cell})
}

// CheckSatisfied re-evaluates every recorded gate, equality, and lookup
// against the current assignment. This is the mock-prove check of spec.md
// §6 (property 1 of §8): it is a pure, witness-only re-derivation, no
// cryptography involved.
func (s *System) CheckSatisfied() error {
	for _, g := range s.gates {
		res, err := g.fn(s)
		if err != nil {
			return fmt.Errorf("csys: gate %q at row %d: %w", g.name, g.row, err)
		}
		if !res.IsZero() {
			return fmt.Errorf("csys: gate %q at row %d not satisfied (residual=%s)", g.name, g.row, res.String())
		}
	}
	for _, eq := range s.equalities {
		av, aok := s.Get(eq.a)
		bv, bok := s.Get(eq.b)
		if !aok || !bok {
			continue // unknown witness at key generation: nothing to check numerically
		}
		if !av.Equal(&bv) {
			return fmt.Errorf("csys: copy constraint violated between %s and %s", eq.a, eq.b)
		}
	}
	for _, lk := range s.lookups {
		v, ok := s.Get(lk.cell)
		if !ok {
			continue
		}
		var bi big.Int
		v.ToBigIntRegular(&bi)
		if bi.BitLen() > 8 {
			return fmt.Errorf("csys: cell %s is not a valid byte (range-check failed)", lk.cell)
		}
	}
	logger.Debug("mock prove: all constraints satisfied", "rows", s.rows, "gates", len(s.gates))
	return nil
}

// ColumnValues returns the dense value vector for an advice column across
// every allocated row (0 for unassigned or key-generation placeholder
// cells), suitable for polynomial interpolation when committing.
func (s *System) ColumnValues(col Column) []F {
	out := make([]F, s.rows)
	for r := 0; r < s.rows; r++ {
		if v, ok := s.Get(CellRef{Column: col, Row: r}); ok {
			out[r] = v
		}
	}
	return out
}

// InstancePublicInputs returns the instance column's dense value vector.
func (s *System) InstancePublicInputs(rows int) []F {
	out := make([]F, rows)
	for r := 0; r < rows; r++ {
		if v, ok := s.instance[r]; ok {
			out[r] = v
		}
	}
	return out
}
