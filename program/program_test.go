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
	"errors"
	"testing"

	"github.com/probeum/zkmovevm/chip"
	"github.com/probeum/zkmovevm/errkind"
	"github.com/probeum/zkmovevm/field"
	"github.com/probeum/zkmovevm/stackframe"
)

// testInterp is the minimal Interp a frame needs: a shared operand stack.
type testInterp struct {
	stack *stackframe.OperandStack
}

func newTestInterp() *testInterp {
	return &testInterp{stack: stackframe.NewOperandStack()}
}

func (t *testInterp) Stack() *stackframe.OperandStack { return t.stack }

func mustRun(t *testing.T, c *chip.Chip, fn *Function, args []field.Value) (*Frame, FrameExit) {
	t.Helper()
	frame, err := NewFrame(c, fn, args)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	exit, err := frame.Run(c, newTestInterp())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return frame, exit
}

func TestLinearExecutionReturns(t *testing.T) {
	code := Code{
		{Op: OpLdU8, Arg: 2},
		{Op: OpLdU8, Arg: 3},
		{Op: OpAdd},
		{Op: OpStLoc, Arg: 0},
		{Op: OpRet},
	}
	fn := &Function{FnName: "add_two", Code: code, LocalCount: 1}
	c := chip.New(true)
	frame, exit := mustRun(t, c, fn, nil)
	if exit.Kind != FrameReturn {
		t.Fatalf("exit kind = %v, want FrameReturn", exit.Kind)
	}
	v, err := frame.Locals().Copy(0)
	if err != nil {
		t.Fatal(err)
	}
	f, _ := v.Field()
	if f.Uint64() != 5 {
		t.Fatalf("local 0 = %v, want 5", f.Uint64())
	}
}

func TestUnsupportedOpcode(t *testing.T) {
	code := Code{{Op: Op(200)}}
	fn := &Function{FnName: "bad", Code: code}
	c := chip.New(true)
	frame, err := NewFrame(c, fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = frame.Run(c, newTestInterp())
	var unsupported *errkind.UnsupportedOpError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedOpError, got %v", err)
	}
}

// canonicalTwoArmCode builds:
//
//	0: LdTrue|LdFalse  (condition pushed by caller-supplied op)
//	1: BrFalse 5
//	2: LdU8 1
//	3: StLoc 0
//	4: Branch 8
//	5: LdU8 2
//	6: StLoc 0
//	7: Branch 8
//	8: Ret
func canonicalTwoArmCode(condOp Op) Code {
	return Code{
		{Op: condOp},
		{Op: OpBrFalse, Arg: 5},
		{Op: OpLdU8, Arg: 1},
		{Op: OpStLoc, Arg: 0},
		{Op: OpBranch, Arg: 8},
		{Op: OpLdU8, Arg: 2},
		{Op: OpStLoc, Arg: 0},
		{Op: OpBranch, Arg: 8},
		{Op: OpRet},
	}
}

func TestCanonicalTwoArmTrueCondition(t *testing.T) {
	fn := &Function{FnName: "branch_true", Code: canonicalTwoArmCode(OpLdTrue), LocalCount: 1}
	c := chip.New(true)
	frame, exit := mustRun(t, c, fn, nil)
	if exit.Kind != FrameReturn {
		t.Fatalf("exit kind = %v, want FrameReturn", exit.Kind)
	}
	v, err := frame.Locals().Copy(0)
	if err != nil {
		t.Fatal(err)
	}
	f, _ := v.Field()
	if f.Uint64() != 1 {
		t.Fatalf("local 0 = %v, want 1 (true arm)", f.Uint64())
	}
	if err := c.CS.CheckSatisfied(); err != nil {
		t.Fatalf("constraints not satisfied: %v", err)
	}
}

func TestCanonicalTwoArmFalseCondition(t *testing.T) {
	fn := &Function{FnName: "branch_false", Code: canonicalTwoArmCode(OpLdFalse), LocalCount: 1}
	c := chip.New(true)
	frame, exit := mustRun(t, c, fn, nil)
	if exit.Kind != FrameReturn {
		t.Fatalf("exit kind = %v, want FrameReturn", exit.Kind)
	}
	v, err := frame.Locals().Copy(0)
	if err != nil {
		t.Fatal(err)
	}
	f, _ := v.Field()
	if f.Uint64() != 2 {
		t.Fatalf("local 0 = %v, want 2 (false arm)", f.Uint64())
	}
	if err := c.CS.CheckSatisfied(); err != nil {
		t.Fatalf("constraints not satisfied: %v", err)
	}
}

// oneArmFallThroughCode builds a reassignment-style no-else conditional,
// the realistic shape a Move compiler emits (the local already holds a
// well-defined value before the branch, so both the taken and untaken
// paths leave it well-defined for the merge to select between):
//
//	0: LdU8 0
//	1: StLoc 0
//	2: LdTrue|LdFalse
//	3: BrFalse 6
//	4: LdU8 9
//	5: StLoc 0
//	6: Ret
func oneArmFallThroughCode(condOp Op) Code {
	return Code{
		{Op: OpLdU8, Arg: 0},
		{Op: OpStLoc, Arg: 0},
		{Op: condOp},
		{Op: OpBrFalse, Arg: 6},
		{Op: OpLdU8, Arg: 9},
		{Op: OpStLoc, Arg: 0},
		{Op: OpRet},
	}
}

func TestOneArmFallThroughTaken(t *testing.T) {
	fn := &Function{FnName: "guard_true", Code: oneArmFallThroughCode(OpLdTrue), LocalCount: 1}
	c := chip.New(true)
	frame, exit := mustRun(t, c, fn, nil)
	if exit.Kind != FrameReturn {
		t.Fatalf("exit kind = %v, want FrameReturn", exit.Kind)
	}
	v, err := frame.Locals().Copy(0)
	if err != nil {
		t.Fatal(err)
	}
	f, _ := v.Field()
	if f.Uint64() != 9 {
		t.Fatalf("local 0 = %v, want 9 (arm ran)", f.Uint64())
	}
}

func TestOneArmFallThroughSkipped(t *testing.T) {
	fn := &Function{FnName: "guard_false", Code: oneArmFallThroughCode(OpLdFalse), LocalCount: 1}
	c := chip.New(true)
	frame, exit := mustRun(t, c, fn, nil)
	if exit.Kind != FrameReturn {
		t.Fatalf("exit kind = %v, want FrameReturn", exit.Kind)
	}
	v, err := frame.Locals().Copy(0)
	if err != nil {
		t.Fatal(err)
	}
	f, _ := v.Field()
	if f.Uint64() != 0 {
		t.Fatalf("local 0 = %v, want 0 (arm skipped, original value kept)", f.Uint64())
	}
}

// abortGuardCode builds:
//
//	0: LdTrue|LdFalse
//	1: BrTrue 4
//	2: LdU8 7
//	3: Abort
//	4: Ret
//
// (BrTrue jumps over the abort when the condition is true; the fallthrough
// guard aborts when the condition is false).
func abortGuardCode(condOp Op) Code {
	return Code{
		{Op: condOp},
		{Op: OpBrTrue, Arg: 4},
		{Op: OpLdU8, Arg: 7},
		{Op: OpAbort},
		{Op: OpRet},
	}
}

func TestAbortGuardLiveAborts(t *testing.T) {
	fn := &Function{FnName: "guard_abort", Code: abortGuardCode(OpLdFalse), LocalCount: 0}
	c := chip.New(true)
	frame, err := NewFrame(c, fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = frame.Run(c, newTestInterp())
	var abortErr *errkind.MoveAbortError
	if !errors.As(err, &abortErr) {
		t.Fatalf("expected MoveAbortError, got %v", err)
	}
	if abortErr.Code != 7 {
		t.Fatalf("abort code = %d, want 7", abortErr.Code)
	}
}

func TestAbortGuardDeadPassesThrough(t *testing.T) {
	fn := &Function{FnName: "guard_safe", Code: abortGuardCode(OpLdTrue), LocalCount: 0}
	c := chip.New(true)
	_, exit := mustRun(t, c, fn, nil)
	if exit.Kind != FrameReturn {
		t.Fatalf("exit kind = %v, want FrameReturn", exit.Kind)
	}
}

func TestCallAndReturnExitsSurfaceToCaller(t *testing.T) {
	code := Code{{Op: OpCall, Arg: 3}}
	fn := &Function{FnName: "caller", Code: code}
	c := chip.New(true)
	_, exit := mustRun(t, c, fn, nil)
	if exit.Kind != FrameCall || exit.CallIndex != 3 {
		t.Fatalf("exit = %+v, want FrameCall{CallIndex:3}", exit)
	}
}
