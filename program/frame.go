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
	"github.com/probeum/zkmovevm/stackframe"
)

// runnable is whatever a Frame's current position can be: a plain Block or
// a ConditionalBlock mid-fork.
type runnable interface {
	Execute(c *chip.Chip, interp Interp) (ExitStatus, error)
}

// forkState is the bookkeeping a Frame pushes onto its block stack for
// every live conditional fork (spec.md §4.5 step 3).
type forkState struct {
	outer      *Block
	cb         *ConditionalBlock
	joinPC     int
	rawCond    field.Value // the original popped branch decision, materialized to a stable cell
	notRawCond field.Value // its negation, materialized the same way
}

// Frame owns one function activation's locals, block-stack ancestry of
// in-progress forks, and current execution position (spec.md §3/§4.6).
type Frame struct {
	Function      *Function
	locals        *stackframe.Locals
	blocks        *stackframe.BlockStack
	current       runnable
	backEdgeIters map[int]int // back-edge brPC -> revisits so far (live or dead)
}

// NewFrame builds a frame whose current block spans the whole function body
// with condition 1, after populating locals 0..arg_count-1 from args (top of
// caller's operand stack goes into the last parameter slot - spec.md §4.6).
func NewFrame(c *chip.Chip, fn *Function, args []field.Value) (*Frame, error) {
	locals := stackframe.NewLocals(fn.LocalCount)
	for i, v := range args {
		if err := locals.Store(i, v); err != nil {
			return nil, err
		}
	}
	var oneF field.F
	oneF.SetOne()
	cond := c.LoadConstant(oneF, field.Bool)
	block := NewBlock(0, 0, nil, locals, fn.Code, cond)
	return &Frame{Function: fn, locals: locals, blocks: stackframe.NewBlockStack(), current: block}, nil
}

// FrameExitKind discriminates how Frame.Run returned control to its caller
// (the interpreter) - only Return and Call ever escape a frame; every other
// ExitStatus is absorbed internally by the fork/merge protocol.
type FrameExitKind int

const (
	FrameReturn FrameExitKind = iota
	FrameCall
)

// FrameExit reports why Frame.Run stopped.
type FrameExit struct {
	Kind      FrameExitKind
	CallIndex uint64
}

// Locals exposes the frame's top-level locals array, e.g. so a caller can
// read back return values staged there by convention.
func (f *Frame) Locals() *stackframe.Locals { return f.locals }

// Run drives bytecode until Return or Call bubbles up, internally handling
// every ConditionalBranch/BranchEnd/Abort per spec.md §4.5.
func (f *Frame) Run(c *chip.Chip, interp Interp) (FrameExit, error) {
	for {
		status, err := f.current.Execute(c, interp)
		if err != nil {
			return FrameExit{}, err
		}
		switch status.Kind {
		case ExitReturn:
			return FrameExit{Kind: FrameReturn}, nil
		case ExitCall:
			return FrameExit{Kind: FrameCall, CallIndex: status.CallIndex}, nil
		case ExitConditionalBranch:
			if err := f.fork(c, status); err != nil {
				return FrameExit{}, err
			}
		case ExitBranchEnd:
			if err := f.armFinished(c, status.PC); err != nil {
				return FrameExit{}, err
			}
		case ExitAbort:
			if err := f.armAborted(status); err != nil {
				return FrameExit{}, err
			}
		}
	}
}

func (f *Frame) runningBlock() *Block {
	switch v := f.current.(type) {
	case *Block:
		return v
	case *ConditionalBlock:
		running := v.CurrentRunning()
		if running == nil {
			return nil
		}
		return running.Block
	default:
		return nil
	}
}

// materialize ensures v has a stable circuit cell of its own, loading it
// into a fresh private cell when it was produced by pure witness-layer
// arithmetic (field.And/field.Not) rather than a gate. Every later gate
// invocation that receives v as `cond` then binds back to this one cell via
// the evaluation chip's copy-constraint step, so a cheating prover cannot
// supply a different condition value to different gates of the same fork.
func materialize(c *chip.Chip, v field.Value) field.Value {
	if v.Cell() != nil {
		return v
	}
	if v.Known() {
		f, _ := v.Field()
		return c.LoadPrivate(&f, field.Bool)
	}
	return c.LoadPrivate(nil, field.Bool)
}

func endPtr(v int) *int { return &v }

// fork implements spec.md §4.5 steps 1-3: partition the bytecode at a
// ConditionalBranch exit, build both arms (or the single arm the shape has,
// whatever the condition's value), and install the
// ConditionalBlock as the frame's new current position.
func (f *Frame) fork(c *chip.Chip, status ExitStatus) error {
	cur := f.runningBlock()
	if cur == nil {
		return errkind.ErrShouldNotReachHere
	}
	parts, err := findBranchArms(cur.code, status.PC, status.Target, status.BranchOp)
	if err != nil {
		return err
	}

	rawCond := materialize(c, status.Condition)
	if parts.backEdge {
		if err := f.stepBackEdge(status.PC, status.Target, rawCond, parts); err != nil {
			return err
		}
	}
	notRaw, err := field.Not(rawCond)
	if err != nil {
		return err
	}
	trueRaw, err := field.And(cur.Condition(), rawCond)
	if err != nil {
		return err
	}
	falseRaw, err := field.And(cur.Condition(), notRaw)
	if err != nil {
		return err
	}
	trueCond := materialize(c, trueRaw)
	falseCond := materialize(c, falseRaw)
	notRawMat := materialize(c, notRaw)

	var trueBlock, falseBlock *Block
	if parts.trueArm != nil {
		trueBlock = NewBlock(parts.trueArm.Start, parts.trueArm.Start, endPtr(parts.trueArm.End), cur.Locals().Clone(), cur.code, trueCond)
	}
	if parts.falseArm != nil {
		falseBlock = NewBlock(parts.falseArm.Start, parts.falseArm.Start, endPtr(parts.falseArm.End), cur.Locals().Clone(), cur.code, falseCond)
	}
	cb := NewConditionalBlock(trueBlock, falseBlock)

	fs := &forkState{outer: cur, cb: cb, joinPC: parts.joinPC, rawCond: rawCond, notRawCond: notRawMat}
	if err := f.blocks.Push(fs); err != nil {
		return err
	}
	f.current = cb
	return nil
}

// stepBackEdge bounds a loop back-edge's resumption point so the circuit it
// synthesizes has a fixed shape regardless of the witness: the header may be
// revisited up to stackframe.MaxDepth times, the same bound every other
// stack in this package enforces, purely by count - never by the guard's
// concrete value, known or not, so key generation (no witness) and proving
// (a real one) always unroll the same number of passes. Once the bound is
// reached the arm is forced to join past the loop instead of looping back;
// a guard still concretely live at that point means the script genuinely
// needs more iterations than this core supports, reported as an error
// rather than silently truncated.
func (f *Frame) stepBackEdge(brPC, target int, cond field.Value, parts *partitionResult) error {
	if f.backEdgeIters == nil {
		f.backEdgeIters = make(map[int]int)
	}
	f.backEdgeIters[brPC]++
	if f.backEdgeIters[brPC] <= stackframe.MaxDepth {
		return nil
	}
	if cond.Known() {
		if live, _ := cond.AsBool(); live {
			return fmt.Errorf("%w: back-edge at pc %d exceeded %d iterations", errkind.ErrLoopBoundExceeded, brPC, stackframe.MaxDepth)
		}
	}
	parts.joinPC = target
	return nil
}

// armFinished implements spec.md §4.5's BranchEnd handling: flip to the
// other arm, or merge and resume the outer block.
func (f *Frame) armFinished(c *chip.Chip, pc int) error {
	top, ok := f.blocks.Peek()
	if !ok {
		return errkind.ErrShouldNotReachHere
	}
	fs := top.(*forkState)
	cb := fs.cb
	running := cb.CurrentRunning()
	if running == nil {
		return errkind.ErrShouldNotReachHere
	}

	switch {
	case cb.TrueBranch != nil && cb.FalseBranch != nil && running == cb.TrueBranch:
		cb.TrueBranch.IsRunning = false
		cb.FalseBranch.IsRunning = true
		cb.FalseBranch.Block.SetPC(cb.FalseBranch.Block.Start())
		return nil

	case cb.TrueBranch != nil && cb.FalseBranch != nil:
		if _, err := f.blocks.Pop(); err != nil {
			return err
		}
		if err := f.mergeLocals(c, fs.outer.Locals(), cb.TrueBranch.Block.Locals(), cb.FalseBranch.Block.Locals(), fs.rawCond); err != nil {
			return err
		}
		fs.outer.SetPC(fs.joinPC)
		f.current = fs.outer
		return nil

	default:
		// No-else shape: merge the single arm's result against the outer
		// block's untouched pre-fork locals (the implicit "else" that does
		// nothing), keyed on the raw branch decision that selects that arm
		// (rawCond for a true arm, its negation for a false arm) - 1 keeps
		// the arm's writes, 0 discards them.
		if _, err := f.blocks.Pop(); err != nil {
			return err
		}
		selectCond := fs.rawCond
		if cb.FalseBranch != nil {
			selectCond = fs.notRawCond
		}
		if err := f.mergeLocals(c, fs.outer.Locals(), running.Block.Locals(), fs.outer.Locals(), selectCond); err != nil {
			return err
		}
		fs.outer.SetPC(fs.joinPC)
		f.current = fs.outer
		return nil
	}
}

// mergeLocals implements spec.md §4.5's merge step: for every wire-unequal
// local, issue a conditional_select keyed on cond (1 picks a, 0 picks b) and
// store the result into outer. outer may alias b (the no-else shape merges
// an arm's result against the very locals it is about to overwrite); each
// index is read before being stored so that aliasing is safe.
func (f *Frame) mergeLocals(c *chip.Chip, outer *stackframe.Locals, aLocals, bLocals *stackframe.Locals, cond field.Value) error {
	for i := 0; i < outer.Len(); i++ {
		av := aLocals.At(i)
		bv := bLocals.At(i)
		if av.IsInvalid() && bv.IsInvalid() {
			continue
		}
		if av.IsInvalid() {
			if err := outer.Store(i, bv); err != nil {
				return err
			}
			continue
		}
		if bv.IsInvalid() {
			if err := outer.Store(i, av); err != nil {
				return err
			}
			continue
		}
		if sameWire(av, bv) {
			continue
		}
		merged, err := c.ConditionalSelect(av, bv, cond)
		if err != nil {
			return err
		}
		if err := outer.Store(i, merged); err != nil {
			return err
		}
	}
	return nil
}

func sameWire(a, b field.Value) bool {
	ca, cb := a.Cell(), b.Cell()
	if ca == nil || cb == nil {
		return false
	}
	return *ca == *cb
}

// armAborted implements spec.md §4.5's Abort handling: only the abort-guard
// shape (false-arm-only) is legal mid-fork; a live (condition-known-true)
// guard failure propagates MoveAbort, otherwise the abort is symbolically
// present but circuit-dead and execution resumes at the join point.
func (f *Frame) armAborted(status ExitStatus) error {
	top, ok := f.blocks.Peek()
	if !ok {
		cur := f.runningBlock()
		if cur != nil && cur.Condition().Known() {
			if live, _ := cur.Condition().AsBool(); !live {
				return nil
			}
		}
		return &errkind.MoveAbortError{PC: status.PC, Code: status.AbortCode}
	}
	fs := top.(*forkState)
	cb := fs.cb
	if cb.TrueBranch != nil || cb.FalseBranch == nil {
		return errkind.ErrShouldNotReachHere
	}
	if _, err := f.blocks.Pop(); err != nil {
		return err
	}
	cond := cb.FalseBranch.Block.Condition()
	if cond.Known() {
		if live, _ := cond.AsBool(); live {
			return &errkind.MoveAbortError{PC: status.PC, Code: status.AbortCode}
		}
	}
	fs.outer.SetPC(fs.joinPC)
	f.current = fs.outer
	return nil
}
