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
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestKeySerializationRoundTrip checks that a proving/verifying key
// written to bytes and read back still verifies a proof produced under
// the originals - the scenario a CLI that separates keygen, prove and
// verify into independent process invocations depends on.
func TestKeySerializationRoundTrip(t *testing.T) {
	circuit := addCircuit{a: 2, b: 3}
	public := publicSum(5)

	k, err := FindBestK(circuit, public)
	require.NoError(t, err)
	params, err := NewParams(k)
	require.NoError(t, err)
	pk, vk, err := KeyGen(params, circuit)
	require.NoError(t, err)

	var pkBuf, vkBuf bytes.Buffer
	_, err = pk.WriteTo(&pkBuf)
	require.NoError(t, err)
	_, err = vk.WriteTo(&vkBuf)
	require.NoError(t, err)

	pk2, err := ReadProvingKey(&pkBuf)
	require.NoError(t, err)
	vk2, err := ReadVerifyingKey(&vkBuf)
	require.NoError(t, err)

	proof, err := Prove(pk2, circuit, public)
	require.NoError(t, err)
	require.NoError(t, Verify(vk2, public, proof))
}

func TestParamsSerializationRoundTrip(t *testing.T) {
	params, err := NewParams(4)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = params.WriteTo(&buf)
	require.NoError(t, err)

	params2, err := ReadParams(&buf)
	require.NoError(t, err)
	require.Equal(t, params.K(), params2.K())
}

// TestVerifyRejectsProofFromUnrelatedKeys checks the negative case a
// re-keygen-per-command design would have missed: two independent KeyGen
// runs draw independent SRS trapdoors, so a verifying key from one run
// must never validate a proof produced under another.
func TestVerifyRejectsProofFromUnrelatedKeys(t *testing.T) {
	circuit := addCircuit{a: 2, b: 3}
	public := publicSum(5)

	k, err := FindBestK(circuit, public)
	require.NoError(t, err)

	paramsA, err := NewParams(k)
	require.NoError(t, err)
	pkA, _, err := KeyGen(paramsA, circuit)
	require.NoError(t, err)

	paramsB, err := NewParams(k)
	require.NoError(t, err)
	_, vkB, err := KeyGen(paramsB, circuit)
	require.NoError(t, err)

	proof, err := Prove(pkA, circuit, public)
	require.NoError(t, err)

	require.Error(t, Verify(vkB, public, proof))
}
