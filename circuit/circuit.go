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

// Package circuit is the wiring point spec.md §4.7 describes but never
// names as a package of its own: it loads a script through a loader.Loader,
// drives it to completion through an interp.Interpreter over a fresh
// chip.Chip, and exposes the fixed public input vector provsys's contract
// expects, implementing provsys.Circuit so the rest of the proving
// pipeline never has to know the VM exists.
package circuit

import (
	"fmt"

	"github.com/probeum/zkmovevm/chip"
	"github.com/probeum/zkmovevm/csys"
	"github.com/probeum/zkmovevm/field"
	"github.com/probeum/zkmovevm/interp"
	"github.com/probeum/zkmovevm/loader"
	"github.com/probeum/zkmovevm/log"
)

var logger = log.New("pkg", "circuit")

// Script bundles the inputs the loader contract takes: the compiled
// script's own bytes and the statically-referenced modules it calls into.
type Script struct {
	Blob      []byte
	ModuleIDs []loader.ModuleId
}

// PublicInputs is spec.md §6's current fixed public input vector: row 0 is
// reserved for a future state-root commitment the architecture does not
// yet expose, so every circuit built by this package declares exactly one
// public input and it is always zero.
func PublicInputs() []field.F {
	return []field.F{field.F{}}
}

// VM adapts one script run into a provsys.Circuit. args holds the
// caller-supplied argument values in witness mode; in key-generation mode
// (Synthesize(false)) their concrete values are never read, only their
// count and types (taken from the loader's declared parameter_types),
// since key generation only fixes circuit shape.
type VM struct {
	Loader *loader.Loader
	Script Script
	Args   []field.Value
}

// New builds a VM ready to synthesize script's execution under args,
// resolved through l.
func New(l *loader.Loader, script Script, args []field.Value) *VM {
	return &VM{Loader: l, Script: script, Args: args}
}

// Synthesize loads and links the script, binds args to the entry
// function's declared parameter types, and runs it to completion,
// recording every instruction's constraints into a fresh constraint
// system. witnessMode false (key generation) still performs a full run
// with placeholder (unknown) witnesses, since this VM's row count and gate
// shape do not depend on the concrete argument values - only Synthesize(true)
// (proving) needs real witnesses to exist.
func (vm *VM) Synthesize(witnessMode bool) (*csys.System, error) {
	entry, paramTypes, err := vm.Loader.Load(vm.Script.Blob, vm.Script.ModuleIDs)
	if err != nil {
		return nil, err
	}
	if len(paramTypes) != len(vm.Args) {
		return nil, fmt.Errorf("circuit: entry function declares %d parameters, got %d arguments", len(paramTypes), len(vm.Args))
	}

	bound := make([]field.Value, len(vm.Args))
	for i, a := range vm.Args {
		ty := paramTypes[i]
		if witnessMode {
			f, err := a.Field()
			if err != nil {
				return nil, fmt.Errorf("circuit: argument %d: %w", i, err)
			}
			bound[i] = field.NewConstant(f, ty)
		} else {
			bound[i] = field.NewVariable(field.F{}, false, ty)
		}
	}

	ch := chip.New(witnessMode)
	ip := interp.New(ch)
	if _, err := ip.Run(entry, bound); err != nil {
		return nil, fmt.Errorf("circuit: %s: %w", entry.Name(), err)
	}

	pub := ch.LoadConstant(field.F{}, field.U8)
	if err := ch.ExposePublic(pub, 0); err != nil {
		return nil, err
	}
	logger.Debug("synthesized", "fn", entry.Name(), "rows", ch.CS.Rows(), "witness", witnessMode)
	return ch.CS, nil
}
