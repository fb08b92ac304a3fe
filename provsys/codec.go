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

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/kzg"

	"github.com/probeum/zkmovevm/field"
)

// encodeProof packs a batch KZG opening proof into the wire shape Verify
// reads back: every field is length-prefixed so this file never needs to
// know gnark-crypto's exact marshaled point/element sizes.
func encodeProof(digests []kzg.Digest, point field.F, batch kzg.BatchOpeningProof, public []field.F) []byte {
	w := &proofWriter{}
	w.putU32(uint32(len(digests)))
	for _, d := range digests {
		w.putBytes(d.Marshal())
	}
	w.putBytes(point.Marshal())
	w.putBytes(batch.H.Marshal())
	w.putU32(uint32(len(batch.ClaimedValues)))
	for _, v := range batch.ClaimedValues {
		w.putBytes(v.Marshal())
	}
	w.putU32(uint32(len(public)))
	for _, p := range public {
		w.putBytes(p.Marshal())
	}
	return w.buf
}

func decodeProof(data []byte) ([]kzg.Digest, field.F, kzg.BatchOpeningProof, []field.F, error) {
	r := &proofReader{data: data}

	n, err := r.u32()
	if err != nil {
		return nil, field.F{}, kzg.BatchOpeningProof{}, nil, err
	}
	digests := make([]kzg.Digest, n)
	for i := range digests {
		b, err := r.lenPrefixed()
		if err != nil {
			return nil, field.F{}, kzg.BatchOpeningProof{}, nil, err
		}
		if err := digests[i].Unmarshal(b); err != nil {
			return nil, field.F{}, kzg.BatchOpeningProof{}, nil, fmt.Errorf("decoding commitment %d: %w", i, err)
		}
	}

	pointBytes, err := r.lenPrefixed()
	if err != nil {
		return nil, field.F{}, kzg.BatchOpeningProof{}, nil, err
	}
	var point field.F
	point.SetBytes(pointBytes)

	hBytes, err := r.lenPrefixed()
	if err != nil {
		return nil, field.F{}, kzg.BatchOpeningProof{}, nil, err
	}
	var batch kzg.BatchOpeningProof
	if err := batch.H.Unmarshal(hBytes); err != nil {
		return nil, field.F{}, kzg.BatchOpeningProof{}, nil, fmt.Errorf("decoding opening commitment: %w", err)
	}

	valCount, err := r.u32()
	if err != nil {
		return nil, field.F{}, kzg.BatchOpeningProof{}, nil, err
	}
	batch.ClaimedValues = make([]field.F, valCount)
	for i := range batch.ClaimedValues {
		b, err := r.lenPrefixed()
		if err != nil {
			return nil, field.F{}, kzg.BatchOpeningProof{}, nil, err
		}
		batch.ClaimedValues[i].SetBytes(b)
	}

	pubCount, err := r.u32()
	if err != nil {
		return nil, field.F{}, kzg.BatchOpeningProof{}, nil, err
	}
	public := make([]field.F, pubCount)
	for i := range public {
		b, err := r.lenPrefixed()
		if err != nil {
			return nil, field.F{}, kzg.BatchOpeningProof{}, nil, err
		}
		public[i].SetBytes(b)
	}

	return digests, point, batch, public, nil
}

type proofWriter struct {
	buf []byte
}

func (w *proofWriter) putU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// putBytes writes b length-prefixed, so the reader never needs to assume a
// fixed marshaled size for a point or field element.
func (w *proofWriter) putBytes(b []byte) {
	w.putU32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

type proofReader struct {
	data []byte
	pos  int
}

func (r *proofReader) u32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("truncated proof: need 4 bytes at offset %d", r.pos)
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *proofReader) lenPrefixed() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.data) {
		return nil, fmt.Errorf("truncated proof: need %d bytes at offset %d", n, r.pos)
	}
	b := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}
