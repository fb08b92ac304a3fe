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

// Package chip assembles the gate library of package gates into the single
// evaluation chip of spec.md §4.3: a uniform binary_op/unary_op surface
// that both evaluates witnesses and emits constraints, plus load_private,
// load_constant and expose_public. Grounded on zkmove-lite's
// vm/src/chips/evaluation_chip.rs and vm/src/chips/instructions/_mod.rs.
package chip

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/probeum/zkmovevm/csys"
	"github.com/probeum/zkmovevm/errkind"
	"github.com/probeum/zkmovevm/field"
	"github.com/probeum/zkmovevm/gates"
	"github.com/probeum/zkmovevm/log"
)

// BinOp enumerates the binary operations the chip dispatches.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Neq
	And
	Or
	Lt
)

// UnOp enumerates the unary operations the chip dispatches.
type UnOp int

const (
	Not UnOp = iota
)

// Config is the chip's static configuration: in this implementation the
// "columns" are small integer handles owned by csys.System, so Config
// carries no additional state of its own beyond a reusable range-check
// result cache - matching spec.md §9's guidance that configs should be
// plain data, not cyclic chip/config graphs.
type Config struct {
	rangeCache *lru.Cache
}

// Chip is the evaluation chip: it owns the constraint system and a Config,
// and exposes the uniform operator surface.
type Chip struct {
	CS     *csys.System
	Config Config
	nextPublicRow int
}

var logger = log.New("pkg", "chip")

type rangeCacheKey struct {
	cell field.CellRef
	ty   field.Tag
}

// New builds a Chip over a fresh constraint system in the given mode.
func New(witnessMode bool) *Chip {
	cache, _ := lru.New(4096)
	return &Chip{CS: csys.New(witnessMode), Config: Config{rangeCache: cache}}
}

// LoadPrivate assigns witness (possibly absent at key generation) into a
// fresh advice cell and returns a Variable Value bound to it.
func (c *Chip) LoadPrivate(witness *field.F, ty field.Tag) field.Value {
	row := c.CS.NextRow()
	known := witness != nil
	var v field.F
	if known {
		v = *witness
	}
	cell := c.CS.Assign(field.A0, row, v, known)
	return field.NewVariable(v, known, ty).WithCell(cell)
}

// LoadConstant assigns a compile-time-known value into the fixed column.
func (c *Chip) LoadConstant(v field.F, ty field.Tag) field.Value {
	row := c.CS.NextRow()
	cell := c.CS.AssignFixed(row, v)
	return field.NewConstant(v, ty).WithCell(cell)
}

// ExposePublic constrains v's cell to the public-input column at row.
func (c *Chip) ExposePublic(v field.Value, row int) error {
	cell := v.Cell()
	if cell == nil {
		return fmt.Errorf("chip: cannot expose a value with no circuit cell")
	}
	return c.CS.ExposePublic(*cell, row)
}

// bind issues the copy constraint plumbing a previously-produced value's
// cell into a gate's freshly assigned operand cell - spec.md §4.3's
// "input-binding step". Values with no prior cell (e.g. a freshly loaded
// constant used exactly once) need no binding.
func (c *Chip) bind(existing field.Value, fresh field.CellRef) {
	if cell := existing.Cell(); cell != nil {
		c.CS.EnforceEqual(*cell, fresh)
	}
}

// BinaryOp routes to the appropriate gate, binds input cells, assigns the
// result, and - for integer-producing opcodes - range-checks the result
// under the same cond (spec.md §4.3, §4.7).
func (c *Chip) BinaryOp(op BinOp, a, b, cond field.Value) (field.Value, error) {
	if op != Eq && op != Neq && a.Type() != b.Type() {
		return field.Value{}, fmt.Errorf("%w: %s vs %s", errkind.ErrTypeMismatch, a.Type(), b.Type())
	}
	switch op {
	case Add:
		out, cells, err := gates.AssignAdd(c.CS, a, b, cond)
		if err != nil {
			return field.Value{}, err
		}
		c.bind(a, cells.A)
		c.bind(b, cells.B)
		c.bind(cond, cells.Cond)
		return c.rangeCheckIfIntegral(out, cond)
	case Sub:
		out, cells, err := gates.AssignSub(c.CS, a, b, cond)
		if err != nil {
			return field.Value{}, err
		}
		c.bind(a, cells.A)
		c.bind(b, cells.B)
		c.bind(cond, cells.Cond)
		return c.rangeCheckIfIntegral(out, cond)
	case Mul:
		out, cells, err := gates.AssignMul(c.CS, a, b, cond)
		if err != nil {
			return field.Value{}, err
		}
		c.bind(a, cells.A)
		c.bind(b, cells.B)
		c.bind(cond, cells.Cond)
		return c.rangeCheckIfIntegral(out, cond)
	case Div:
		q, r, cells, err := gates.AssignDivMod(c.CS, a, b, cond)
		if err != nil {
			return field.Value{}, err
		}
		c.bind(a, cells.A)
		c.bind(b, cells.B)
		c.bind(cond, cells.Cond)
		if _, err := gates.AssignRangeCheck(c.CS, r, cond); err != nil {
			return field.Value{}, err
		}
		return c.rangeCheckIfIntegral(q, cond)
	case Mod:
		q, r, cells, err := gates.AssignDivMod(c.CS, a, b, cond)
		if err != nil {
			return field.Value{}, err
		}
		c.bind(a, cells.A)
		c.bind(b, cells.B)
		c.bind(cond, cells.Cond)
		if _, err := gates.AssignRangeCheck(c.CS, q, cond); err != nil {
			return field.Value{}, err
		}
		return c.rangeCheckIfIntegral(r, cond)
	case Eq:
		out, cells, err := gates.AssignEq(c.CS, a, b, cond)
		if err != nil {
			return field.Value{}, err
		}
		c.bind(a, cells.A)
		c.bind(b, cells.B)
		c.bind(cond, cells.Cond)
		return out, nil
	case Neq:
		out, cells, err := gates.AssignNeq(c.CS, a, b, cond)
		if err != nil {
			return field.Value{}, err
		}
		c.bind(a, cells.A)
		c.bind(b, cells.B)
		c.bind(cond, cells.Cond)
		return out, nil
	case And:
		out, cells, err := gates.AssignAnd(c.CS, a, b, cond)
		if err != nil {
			return field.Value{}, err
		}
		c.bind(a, cells.A)
		c.bind(b, cells.B)
		c.bind(cond, cells.Cond)
		return out, nil
	case Or:
		out, cells, err := gates.AssignOr(c.CS, a, b, cond)
		if err != nil {
			return field.Value{}, err
		}
		c.bind(a, cells.A)
		c.bind(b, cells.B)
		c.bind(cond, cells.Cond)
		return out, nil
	case Lt:
		out, cells, _, err := gates.AssignLt(c.CS, a, b, cond)
		if err != nil {
			return field.Value{}, err
		}
		c.bind(a, cells.A)
		c.bind(b, cells.B)
		c.bind(cond, cells.Cond)
		return out, nil
	default:
		return field.Value{}, fmt.Errorf("chip: unknown binary op %d", op)
	}
}

// UnaryOp routes to the appropriate unary gate.
func (c *Chip) UnaryOp(op UnOp, a, cond field.Value) (field.Value, error) {
	switch op {
	case Not:
		out, cells, err := gates.AssignNot(c.CS, a, cond)
		if err != nil {
			return field.Value{}, err
		}
		c.bind(a, cells.A)
		c.bind(cond, cells.Cond)
		return out, nil
	default:
		return field.Value{}, fmt.Errorf("chip: unknown unary op %d", op)
	}
}

// ConditionalSelect exposes the select gate directly for the branch-merge
// protocol of spec.md §4.5.
func (c *Chip) ConditionalSelect(a, b, cond field.Value) (field.Value, error) {
	out, cells, err := gates.AssignConditionalSelect(c.CS, a, b, cond)
	if err != nil {
		return field.Value{}, err
	}
	c.bind(a, cells.A)
	c.bind(b, cells.B)
	c.bind(cond, cells.Cond)
	return out, nil
}

// RangeCheck range-checks v under cond explicitly - used for freshly loaded
// arguments and constants of integer type (spec.md §4.7).
func (c *Chip) RangeCheck(v, cond field.Value) (field.Value, error) {
	return c.rangeCheckIfIntegral(v, cond)
}

func (c *Chip) rangeCheckIfIntegral(v, cond field.Value) (field.Value, error) {
	if v.Type() == field.Bool {
		return v, nil
	}
	cell := v.Cell()
	if cell == nil {
		return v, nil
	}
	key := rangeCacheKey{cell: *cell, ty: v.Type()}
	if c.Config.rangeCache != nil {
		if _, ok := c.Config.rangeCache.Get(key); ok {
			return v, nil
		}
	}
	if _, err := gates.AssignRangeCheck(c.CS, v, cond); err != nil {
		return field.Value{}, err
	}
	if c.Config.rangeCache != nil {
		c.Config.rangeCache.Add(key, struct{}{})
	}
	logger.Debug("range-checked value", "type", v.Type(), "cell", cell)
	return v, nil
}
