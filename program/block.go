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

package program

import (
	"fmt"

	"github.com/probeum/zkmovevm/chip"
	"github.com/probeum/zkmovevm/errkind"
	"github.com/probeum/zkmovevm/field"
	"github.com/probeum/zkmovevm/log"
	"github.com/probeum/zkmovevm/stackframe"
)

var logger = log.New("pkg", "program")

// ExitKind discriminates the five ways Block.Execute can return control,
// spec.md §4.4's ExitStatus sum type.
type ExitKind int

const (
	ExitReturn ExitKind = iota
	ExitCall
	ExitConditionalBranch
	ExitBranchEnd
	ExitAbort
)

// ExitStatus is the Go rendering of spec.md's ExitStatus enum.
type ExitStatus struct {
	Kind      ExitKind
	PC        int
	CallIndex uint64
	Condition field.Value // ExitConditionalBranch: the popped branch condition
	Target    int         // ExitConditionalBranch: the BrTrue/BrFalse jump target
	BranchOp  Op          // ExitConditionalBranch: OpBrTrue or OpBrFalse
	AbortCode uint64      // ExitAbort
}

// Block is a contiguous bytecode range with its own locals view and gating
// condition (spec.md §3).
type Block struct {
	pc        int
	start     int
	end       *int // nil means "whole function body"
	locals    *stackframe.Locals
	code      Code
	condition field.Value
}

// NewBlock constructs a block over code[start:end-or-whole-function] with
// the given locals and gating condition.
func NewBlock(pc, start int, end *int, locals *stackframe.Locals, code Code, condition field.Value) *Block {
	return &Block{pc: pc, start: start, end: end, locals: locals, code: code, condition: condition}
}

func (b *Block) PC() int                       { return b.pc }
func (b *Block) SetPC(pc int)                  { b.pc = pc }
func (b *Block) Locals() *stackframe.Locals     { return b.locals }
func (b *Block) SetLocals(l *stackframe.Locals) { b.locals = l }
func (b *Block) Condition() field.Value         { return b.condition }
func (b *Block) End() *int                      { return b.end }
func (b *Block) Start() int                     { return b.start }

// ldType maps an integer-load opcode to its semantic type tag.
func ldType(op Op) field.Tag {
	switch op {
	case OpLdU8:
		return field.U8
	case OpLdU64:
		return field.U64
	case OpLdU128:
		return field.U128
	default:
		return field.Bool
	}
}

// Execute interprets bytecode from b.pc until one of spec.md §4.4's five
// exits occurs.
func (b *Block) Execute(c *chip.Chip, interp Interp) (ExitStatus, error) {
	stack := interp.Stack()
	for {
		if b.end != nil && b.pc == *b.end {
			return ExitStatus{Kind: ExitBranchEnd, PC: b.pc}, nil
		}
		if b.pc < 0 || b.pc >= len(b.code) {
			return ExitStatus{}, fmt.Errorf("%w: pc %d out of code range", errkind.ErrProgramBlock, b.pc)
		}
		instr := b.code[b.pc]
		logger.Trace("step", "pc", b.pc, "op", instr.Op)

		switch instr.Op {
		case OpLdU8, OpLdU64, OpLdU128:
			var f field.F
			f.SetUint64(instr.Arg)
			v := c.LoadConstant(f, ldType(instr.Op))
			if _, err := c.RangeCheck(v, b.condition); err != nil {
				return ExitStatus{}, err
			}
			if err := stack.Push(v); err != nil {
				return ExitStatus{}, err
			}
		case OpLdTrue:
			var f field.F
			f.SetOne()
			if err := stack.Push(c.LoadConstant(f, field.Bool)); err != nil {
				return ExitStatus{}, err
			}
		case OpLdFalse:
			if err := stack.Push(c.LoadConstant(field.F{}, field.Bool)); err != nil {
				return ExitStatus{}, err
			}
		case OpPop:
			if _, err := stack.Pop(); err != nil {
				return ExitStatus{}, err
			}
		case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpEq, OpNeq, OpAnd, OpOr, OpLt:
			bv, err := stack.Pop()
			if err != nil {
				return ExitStatus{}, err
			}
			av, err := stack.Pop()
			if err != nil {
				return ExitStatus{}, err
			}
			out, err := c.BinaryOp(binOpFor(instr.Op), av, bv, b.condition)
			if err != nil {
				return ExitStatus{}, err
			}
			if err := stack.Push(out); err != nil {
				return ExitStatus{}, err
			}
		case OpNot:
			av, err := stack.Pop()
			if err != nil {
				return ExitStatus{}, err
			}
			out, err := c.UnaryOp(chip.Not, av, b.condition)
			if err != nil {
				return ExitStatus{}, err
			}
			if err := stack.Push(out); err != nil {
				return ExitStatus{}, err
			}
		case OpCopyLoc:
			v, err := b.locals.Copy(int(instr.Arg))
			if err != nil {
				return ExitStatus{}, err
			}
			// Copy yields the same cell every time a given local is read, so a
			// local copied more than once before it is next stored to - a loop
			// guard re-read on every iteration, for instance - hits chip's
			// rangeCache on the second and later reads instead of re-deriving
			// the same byte decomposition.
			if v, err = c.RangeCheck(v, b.condition); err != nil {
				return ExitStatus{}, err
			}
			if err := stack.Push(v); err != nil {
				return ExitStatus{}, err
			}
		case OpStLoc:
			v, err := stack.Pop()
			if err != nil {
				return ExitStatus{}, err
			}
			if err := b.locals.Store(int(instr.Arg), v); err != nil {
				return ExitStatus{}, err
			}
		case OpMoveLoc:
			v, err := b.locals.Move(int(instr.Arg))
			if err != nil {
				return ExitStatus{}, err
			}
			if err := stack.Push(v); err != nil {
				return ExitStatus{}, err
			}
		case OpBranch:
			b.pc = int(instr.Arg)
			continue
		case OpBrTrue, OpBrFalse:
			cond, err := stack.Pop()
			if err != nil {
				return ExitStatus{}, err
			}
			return ExitStatus{
				Kind:      ExitConditionalBranch,
				PC:        b.pc,
				Condition: cond,
				Target:    int(instr.Arg),
				BranchOp:  instr.Op,
			}, nil
		case OpCall:
			return ExitStatus{Kind: ExitCall, CallIndex: instr.Arg}, nil
		case OpRet:
			return ExitStatus{Kind: ExitReturn}, nil
		case OpAbort:
			v, err := stack.Pop()
			if err != nil {
				return ExitStatus{}, err
			}
			f, ferr := v.Field()
			if ferr != nil {
				return ExitStatus{}, fmt.Errorf("%w: abort code has no witness", errkind.ErrValueConversion)
			}
			return ExitStatus{Kind: ExitAbort, PC: b.pc, AbortCode: lower64(f)}, nil
		default:
			return ExitStatus{}, &errkind.UnsupportedOpError{Op: byte(instr.Op), PC: b.pc}
		}

		b.pc++
	}
}

func binOpFor(op Op) chip.BinOp {
	switch op {
	case OpAdd:
		return chip.Add
	case OpSub:
		return chip.Sub
	case OpMul:
		return chip.Mul
	case OpDiv:
		return chip.Div
	case OpMod:
		return chip.Mod
	case OpEq:
		return chip.Eq
	case OpNeq:
		return chip.Neq
	case OpAnd:
		return chip.And
	case OpOr:
		return chip.Or
	case OpLt:
		return chip.Lt
	default:
		return chip.Add
	}
}

// lower64 takes the low 64 bits of f's bounded-integer representation - the
// Move abort code is declared as u128 (spec.md §4.4) but this implementation
// narrows it to the uint64 Go programs actually compare against; the
// original "lower-128 bits of value" note in zkmove-lite's program_block.rs
// degenerates to a full-width read since our F already fits in 256 bits.
func lower64(f field.F) uint64 {
	return f.Uint64()
}

// Branch is one arm of a ConditionalBlock.
type Branch struct {
	Block     *Block
	IsRunning bool
}

// ConditionalBlock holds 0-2 Branch children, at most one marked running
// (spec.md §3/§4.5).
type ConditionalBlock struct {
	TrueBranch  *Branch
	FalseBranch *Branch
}

// NewConditionalBlock builds the pair, marking the true branch running when
// both are present, matching zkmove-lite's ConditionalBlock::new.
func NewConditionalBlock(trueBlock, falseBlock *Block) *ConditionalBlock {
	cb := &ConditionalBlock{}
	switch {
	case trueBlock != nil && falseBlock != nil:
		cb.TrueBranch = &Branch{Block: trueBlock, IsRunning: true}
		cb.FalseBranch = &Branch{Block: falseBlock, IsRunning: false}
	case trueBlock != nil:
		cb.TrueBranch = &Branch{Block: trueBlock, IsRunning: true}
	case falseBlock != nil:
		cb.FalseBranch = &Branch{Block: falseBlock, IsRunning: true}
	}
	return cb
}

// CurrentRunning returns whichever branch is currently marked running.
func (cb *ConditionalBlock) CurrentRunning() *Branch {
	if cb.TrueBranch != nil && cb.TrueBranch.IsRunning {
		return cb.TrueBranch
	}
	if cb.FalseBranch != nil && cb.FalseBranch.IsRunning {
		return cb.FalseBranch
	}
	return nil
}

// Execute delegates to whichever arm is running.
func (cb *ConditionalBlock) Execute(c *chip.Chip, interp Interp) (ExitStatus, error) {
	running := cb.CurrentRunning()
	if running == nil {
		return ExitStatus{}, fmt.Errorf("%w: no branch arm running", errkind.ErrShouldNotReachHere)
	}
	return running.Block.Execute(c, interp)
}

// Interp is the minimal surface package program needs from the interpreter:
// the shared operand stack (spec.md §5's "operand stack is not cloned
// across branches" - it belongs to the frame/interpreter, not the block).
type Interp interface {
	Stack() *stackframe.OperandStack
}
