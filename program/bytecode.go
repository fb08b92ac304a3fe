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

// Package program implements the bytecode-driving half of the core: the
// per-opcode block interpreter and the conditional-branch fork/merge
// protocol of spec.md §4.4/§4.5. Grounded on zkmove-lite's
// vm/src/program_block.rs for the Block/ConditionalBlock/ExitStatus shape;
// the fork/merge driving loop itself is this package's own synthesis of
// spec.md §4.5, since the retrieved Rust sources only carry an older,
// non-forking frame (see DESIGN.md).
package program

import "strconv"

// Op is one opcode of the supported instruction set (spec.md §4.4's table).
type Op byte

const (
	OpLdU8 Op = iota
	OpLdU64
	OpLdU128
	OpLdTrue
	OpLdFalse
	OpPop
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpAnd
	OpOr
	OpNot
	OpLt
	OpCopyLoc
	OpStLoc
	OpMoveLoc
	OpBranch
	OpBrTrue
	OpBrFalse
	OpCall
	OpRet
	OpAbort
)

func (op Op) String() string {
	names := [...]string{
		"LdU8", "LdU64", "LdU128", "LdTrue", "LdFalse", "Pop",
		"Add", "Sub", "Mul", "Div", "Mod", "Eq", "Neq", "And", "Or", "Not", "Lt",
		"CopyLoc", "StLoc", "MoveLoc", "Branch", "BrTrue", "BrFalse", "Call", "Ret", "Abort",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "Unknown"
}

// Instruction is one decoded bytecode instruction. Arg's meaning depends on
// Op: the immediate for LdU8/LdU64/LdU128, the local index for
// CopyLoc/StLoc/MoveLoc, the jump target for Branch/BrTrue/BrFalse, or the
// callee's function-handle index for Call. Unused for the remaining opcodes.
type Instruction struct {
	Op  Op
	Arg uint64
}

// Code is a function body: a flat instruction sequence indexed by pc.
type Code []Instruction

// Resolver looks up a callee function by its call-site handle index,
// mirroring the "resolver to look up callee functions by handle index" of
// spec.md §6's loader contract. Implemented by package loader.
type Resolver interface {
	ResolveFunction(handleIndex uint64) (*Function, error)
}

// Function is the static, already-loaded description of a Move function:
// its code, declared local/argument counts, and display name (spec.md §6).
type Function struct {
	FnName     string
	Code       Code
	LocalCount int
	ArgCount   int
	Resolver   Resolver
}

func (f *Function) Name() string { return f.FnName }

// PrettyString renders the function body for diagnostics, matching the
// teacher's convention of a human-readable disassembly helper on its
// function/contract types.
func (f *Function) PrettyString() string {
	s := f.FnName + ":\n"
	for i, instr := range f.Code {
		s += prettyLine(i, instr)
	}
	return s
}

func prettyLine(i int, instr Instruction) string {
	switch instr.Op {
	case OpLdU8, OpLdU64, OpLdU128, OpCopyLoc, OpStLoc, OpMoveLoc, OpBranch, OpBrTrue, OpBrFalse, OpCall:
		return "#" + strconv.Itoa(i) + " " + instr.Op.String() + " " + strconv.FormatUint(instr.Arg, 10) + "\n"
	default:
		return "#" + strconv.Itoa(i) + " " + instr.Op.String() + "\n"
	}
}
