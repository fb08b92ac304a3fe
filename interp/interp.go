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

// Package interp drives a whole script to completion: it owns the call
// stack of frame activations, marshals script arguments into the entry
// frame's locals, and implements spec.md §4.6's Call/Return protocol across
// frames. Grounded on zkmove-lite's vm/src/interpreter.rs for the shape
// (stack-of-frames owner) and movelang/src/argument.rs for the argument
// wire format (argument.go).
package interp

import (
	"fmt"

	"github.com/probeum/zkmovevm/chip"
	"github.com/probeum/zkmovevm/errkind"
	"github.com/probeum/zkmovevm/field"
	"github.com/probeum/zkmovevm/log"
	"github.com/probeum/zkmovevm/program"
	"github.com/probeum/zkmovevm/stackframe"
)

var logger = log.New("pkg", "interp")

// activation pairs a live frame with the operand stack it alone owns -
// program.Interp's contract is per-activation, not shared across calls
// (spec.md §5: the stack is only shared across the conditional-branch arms
// of a single frame, never across Call/Return).
type activation struct {
	frame *program.Frame
	stack *stackframe.OperandStack
}

func (a *activation) Stack() *stackframe.OperandStack { return a.stack }

// Interpreter runs a resolved entry function to completion, following
// Call/Return across frames until the call stack empties (spec.md §4.6).
// depth mirrors frames solely to get MaxDepth/ErrStackOverflow enforcement
// out of the shared bounded-LIFO shape (stackframe.CallStack exposes no
// Peek, so frames also tracks the stack directly for top-of-stack access).
type Interpreter struct {
	chip   *chip.Chip
	depth  *stackframe.CallStack
	frames []*activation
}

// New builds an Interpreter that synthesizes into c.
func New(c *chip.Chip) *Interpreter {
	return &Interpreter{chip: c, depth: stackframe.NewCallStack()}
}

// Run executes entry with args pre-populating its locals, following every
// Call it makes until the outermost frame returns. It reports the outermost
// frame so callers can read back locals staged there by convention.
func (ip *Interpreter) Run(entry *program.Function, args []field.Value) (*program.Frame, error) {
	bound, err := ip.bindArguments(args)
	if err != nil {
		return nil, err
	}
	frame, err := program.NewFrame(ip.chip, entry, bound)
	if err != nil {
		return nil, err
	}
	top := &activation{frame: frame, stack: stackframe.NewOperandStack()}
	if err := ip.depth.Push(top); err != nil {
		return nil, err
	}
	ip.frames = []*activation{top}
	cur := top

	for {
		exit, err := cur.frame.Run(ip.chip, cur)
		if err != nil {
			return nil, err
		}
		switch exit.Kind {
		case program.FrameReturn:
			logger.Trace("return", "fn", cur.frame.Function.Name(), "depth", len(ip.frames))
			if len(ip.frames) == 1 {
				return cur.frame, nil
			}
			if _, err := ip.depth.Pop(); err != nil {
				return nil, err
			}
			ip.frames = ip.frames[:len(ip.frames)-1]
			caller := ip.frames[len(ip.frames)-1]
			if err := transferReturnValues(cur.stack, caller.stack); err != nil {
				return nil, err
			}
			cur = caller

		case program.FrameCall:
			next, err := ip.call(cur, exit.CallIndex)
			if err != nil {
				return nil, err
			}
			ip.frames = append(ip.frames, next)
			if err := ip.depth.Push(next); err != nil {
				return nil, err
			}
			cur = next
		}
	}
}

// bindArguments turns the script's top-level argument values into genuine
// circuit witnesses: each is loaded into its own private cell and
// range-checked under a fresh live (constant-1) condition, the same
// treatment any other freshly loaded integer constant gets (spec.md §4.7).
// A Call's arguments need no such treatment - they already carry the
// caller's own cells, having been produced by the caller's own bytecode.
func (ip *Interpreter) bindArguments(args []field.Value) ([]field.Value, error) {
	if len(args) == 0 {
		return args, nil
	}
	var oneF field.F
	oneF.SetOne()
	live := ip.chip.LoadConstant(oneF, field.Bool)
	bound := make([]field.Value, len(args))
	for i, v := range args {
		var cell field.Value
		if v.Known() {
			f, err := v.Field()
			if err != nil {
				return nil, err
			}
			cell = ip.chip.LoadPrivate(&f, v.Type())
		} else {
			cell = ip.chip.LoadPrivate(nil, v.Type())
		}
		if _, err := ip.chip.RangeCheck(cell, live); err != nil {
			return nil, err
		}
		bound[i] = cell
	}
	return bound, nil
}

// call resolves callIdx through caller's function's resolver, pops
// arg_count values off caller's operand stack (topmost into the last
// parameter slot - spec.md §4.6), and builds the callee's fresh frame.
func (ip *Interpreter) call(caller *activation, callIdx uint64) (*activation, error) {
	resolver := caller.frame.Function.Resolver
	if resolver == nil {
		return nil, fmt.Errorf("%w: %s has no resolver", errkind.ErrModuleNotFound, caller.frame.Function.Name())
	}
	callee, err := resolver.ResolveFunction(callIdx)
	if err != nil {
		return nil, err
	}
	args, err := popArgs(caller.stack, callee.ArgCount)
	if err != nil {
		return nil, err
	}
	logger.Trace("call", "fn", callee.Name(), "args", len(args))
	frame, err := program.NewFrame(ip.chip, callee, args)
	if err != nil {
		return nil, err
	}
	return &activation{frame: frame, stack: stackframe.NewOperandStack()}, nil
}

// popArgs pops n values off stack, topmost first, placing it into the last
// slot of the returned slice (spec.md §4.6's parameter-slot convention).
func popArgs(stack *stackframe.OperandStack, n int) ([]field.Value, error) {
	args := make([]field.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := stack.Pop()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// transferReturnValues drains callee's operand stack and pushes what it held
// onto caller's stack in the same relative order, the convention by which a
// returning function's leftover stack values stand for its return values.
func transferReturnValues(callee, caller *stackframe.OperandStack) error {
	vals := make([]field.Value, 0, callee.Len())
	for callee.Len() > 0 {
		v, err := callee.Pop()
		if err != nil {
			return err
		}
		vals = append(vals, v)
	}
	for i := len(vals) - 1; i >= 0; i-- {
		if err := caller.Push(vals[i]); err != nil {
			return err
		}
	}
	return nil
}
