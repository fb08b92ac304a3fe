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

package circuit

import (
	"testing"

	"github.com/probeum/zkmovevm/field"
	"github.com/probeum/zkmovevm/loader"
	"github.com/probeum/zkmovevm/program"
)

func u8(v uint64) field.Value {
	var f field.F
	f.SetUint64(v)
	return field.NewConstant(f, field.U8)
}

func addTwoArgsScript() []byte {
	return loader.EncodeFunctions([]loader.FunctionSpec{
		{
			Name:       "main",
			LocalCount: 2,
			ArgTypes:   []field.Tag{field.U8, field.U8},
			Code: program.Code{
				{Op: program.OpCopyLoc, Arg: 0},
				{Op: program.OpCopyLoc, Arg: 1},
				{Op: program.OpAdd},
				{Op: program.OpStLoc, Arg: 0},
				{Op: program.OpRet},
			},
		},
	})
}

func TestSynthesizeWitnessModeProducesSatisfiedCircuit(t *testing.T) {
	store, err := loader.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	vm := New(loader.New(store), Script{Blob: addTwoArgsScript()}, []field.Value{u8(2), u8(3)})
	sys, err := vm.Synthesize(true)
	if err != nil {
		t.Fatalf("Synthesize(true): %v", err)
	}
	if err := sys.CheckSatisfied(); err != nil {
		t.Fatalf("CheckSatisfied: %v", err)
	}
	if sys.Rows() == 0 {
		t.Fatal("expected a non-empty circuit")
	}
	got := sys.InstancePublicInputs(1)
	want := PublicInputs()
	if !got[0].Equal(&want[0]) {
		t.Fatalf("public input = %v, want %v", got[0], want[0])
	}
}

func TestSynthesizeKeyGenModeMatchesRowCount(t *testing.T) {
	store, err := loader.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	script := Script{Blob: addTwoArgsScript()}
	witnessVM := New(loader.New(store), script, []field.Value{u8(2), u8(3)})
	witnessSys, err := witnessVM.Synthesize(true)
	if err != nil {
		t.Fatalf("Synthesize(true): %v", err)
	}

	keygenVM := New(loader.New(store), script, []field.Value{u8(0), u8(0)})
	keygenSys, err := keygenVM.Synthesize(false)
	if err != nil {
		t.Fatalf("Synthesize(false): %v", err)
	}

	if keygenSys.Rows() != witnessSys.Rows() {
		t.Fatalf("row count depends on witness values: witness=%d keygen=%d", witnessSys.Rows(), keygenSys.Rows())
	}
}

func TestSynthesizeRejectsWrongArgumentCount(t *testing.T) {
	store, err := loader.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	vm := New(loader.New(store), Script{Blob: addTwoArgsScript()}, []field.Value{u8(2)})
	if _, err := vm.Synthesize(true); err == nil {
		t.Fatal("expected an error for a missing argument")
	}
}
