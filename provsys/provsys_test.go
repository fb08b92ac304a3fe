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

package provsys

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probeum/zkmovevm/chip"
	"github.com/probeum/zkmovevm/csys"
	"github.com/probeum/zkmovevm/field"
)

// addCircuit proves knowledge of two u8 witnesses that add up to a public
// sum, using the same chip.Chip/gates surface interp wires every opcode
// through - so this round-trip test exercises the real evaluation chip,
// not a hand-rolled constraint system.
type addCircuit struct {
	a, b uint64
}

func u8(v uint64) field.F {
	var f field.F
	f.SetUint64(v)
	return f
}

func (c addCircuit) Synthesize(witnessMode bool) (*csys.System, error) {
	ch := chip.New(witnessMode)

	var av, bv field.Value
	var oneF field.F
	oneF.SetOne()
	live := ch.LoadConstant(oneF, field.Bool)

	if witnessMode {
		af, bf := u8(c.a), u8(c.b)
		av = ch.LoadPrivate(&af, field.U8)
		bv = ch.LoadPrivate(&bf, field.U8)
	} else {
		av = ch.LoadPrivate(nil, field.U8)
		bv = ch.LoadPrivate(nil, field.U8)
	}

	sum, err := ch.BinaryOp(chip.Add, av, bv, live)
	if err != nil {
		return nil, err
	}
	if err := ch.ExposePublic(sum, 0); err != nil {
		return nil, err
	}
	return ch.CS, nil
}

func publicSum(v uint64) []field.F {
	return []field.F{u8(v)}
}

func TestProveVerifyRoundTrip(t *testing.T) {
	circuit := addCircuit{a: 2, b: 3}
	public := publicSum(5)

	k, err := FindBestK(circuit, public)
	require.NoError(t, err)

	require.NoError(t, MockProve(k, circuit, public))

	params, err := NewParams(k)
	require.NoError(t, err)

	pk, vk, err := KeyGen(params, circuit)
	require.NoError(t, err)

	proof, err := Prove(pk, circuit, public)
	require.NoError(t, err)
	require.NotEmpty(t, proof)

	require.NoError(t, Verify(vk, public, proof))
}

func TestVerifyRejectsTamperedProof(t *testing.T) {
	circuit := addCircuit{a: 2, b: 3}
	public := publicSum(5)

	k, err := FindBestK(circuit, public)
	require.NoError(t, err)
	params, err := NewParams(k)
	require.NoError(t, err)
	pk, vk, err := KeyGen(params, circuit)
	require.NoError(t, err)

	proof, err := Prove(pk, circuit, public)
	require.NoError(t, err)

	tampered := append([]byte(nil), proof...)
	tampered[len(tampered)/2] ^= 0xff

	require.Error(t, Verify(vk, public, tampered))
}

func TestVerifyRejectsWrongPublicInput(t *testing.T) {
	circuit := addCircuit{a: 2, b: 3}
	public := publicSum(5)

	k, err := FindBestK(circuit, public)
	require.NoError(t, err)
	params, err := NewParams(k)
	require.NoError(t, err)
	pk, vk, err := KeyGen(params, circuit)
	require.NoError(t, err)

	proof, err := Prove(pk, circuit, public)
	require.NoError(t, err)

	require.Error(t, Verify(vk, publicSum(6), proof))
}

func TestFindBestKRejectsUnsatisfiedCircuit(t *testing.T) {
	circuit := addCircuit{a: 2, b: 3}
	_, err := FindBestK(circuit, publicSum(6))
	require.Error(t, err)
}

func TestMockProveRejectsTooSmallK(t *testing.T) {
	circuit := addCircuit{a: 2, b: 3}
	public := publicSum(5)
	err := MockProve(0, circuit, public)
	require.Error(t, err)
}
