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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/kzg"

	"github.com/probeum/zkmovevm/errkind"
)

// spec.md §6 leaves params/key persistence to "the surrounding CLI" - the
// core itself keeps none. These WriteTo/ReadFrom pairs are that CLI-facing
// surface: every SRS is serialized through kzg.SRS's own WriteTo/ReadFrom
// (gnark-crypto's standard binary encoding for proving/verifying material
// across its schemes), wrapped with the handful of extra fields this
// package's own types add.

// WriteTo serializes params, matching the io.WriterTo convention
// gnark-crypto's own key material already follows.
func (p *Params) WriteTo(w io.Writer) (int64, error) {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(p.k))
	n1, err := w.Write(hdr[:])
	if err != nil {
		return int64(n1), err
	}
	n2, err := p.srs.WriteTo(w)
	return int64(n1) + n2, err
}

// ReadParams deserializes a Params written by Params.WriteTo.
func ReadParams(r io.Reader) (*Params, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	k := int(binary.LittleEndian.Uint32(hdr[:]))
	var srs kzg.SRS
	if _, err := srs.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	return &Params{k: k, srs: &srs}, nil
}

// WriteTo serializes the verifying key: k, the SRS, and the circuit's
// fixed-column commitment.
func (vk *VerifyingKey) WriteTo(w io.Writer) (int64, error) {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(vk.k))
	n1, err := w.Write(hdr[:])
	if err != nil {
		return int64(n1), err
	}
	n2, err := vk.srs.WriteTo(w)
	if err != nil {
		return int64(n1) + n2, err
	}
	n3, err := writeLenPrefixed(w, vk.fixedCommit.Marshal())
	return int64(n1) + n2 + n3, err
}

// ReadVerifyingKey deserializes a VerifyingKey written by WriteTo.
func ReadVerifyingKey(r io.Reader) (*VerifyingKey, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	k := int(binary.LittleEndian.Uint32(hdr[:]))
	var srs kzg.SRS
	if _, err := srs.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	commitBytes, err := readLenPrefixed(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	var commit kzg.Digest
	if err := commit.Unmarshal(commitBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	return &VerifyingKey{k: k, srs: &srs, fixedCommit: commit}, nil
}

// WriteTo serializes the proving key: k, the circuit's fixed-column
// commitment, and the full params (a proving key needs the whole SRS to
// commit advice columns, unlike a verifying key which only ever opens at a
// single point).
func (pk *ProvingKey) WriteTo(w io.Writer) (int64, error) {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(pk.k))
	n1, err := w.Write(hdr[:])
	if err != nil {
		return int64(n1), err
	}
	n2, err := writeLenPrefixed(w, pk.fixedCommit.Marshal())
	if err != nil {
		return int64(n1) + n2, err
	}
	n3, err := pk.params.WriteTo(w)
	return int64(n1) + n2 + n3, err
}

// ReadProvingKey deserializes a ProvingKey written by WriteTo.
func ReadProvingKey(r io.Reader) (*ProvingKey, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	k := int(binary.LittleEndian.Uint32(hdr[:]))
	commitBytes, err := readLenPrefixed(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	var commit kzg.Digest
	if err := commit.Unmarshal(commitBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	params, err := ReadParams(r)
	if err != nil {
		return nil, err
	}
	return &ProvingKey{k: k, params: params, fixedCommit: commit}, nil
}

func writeLenPrefixed(w io.Writer, b []byte) (int64, error) {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(b)))
	n1, err := w.Write(hdr[:])
	if err != nil {
		return int64(n1), err
	}
	n2, err := w.Write(b)
	return int64(n1) + int64(n2), err
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
