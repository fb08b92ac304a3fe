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
	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/kzg"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"github.com/probeum/zkmovevm/field"
)

const challengeLabel = "zkmove-provsys-challenge"

// fiatShamirChallenge binds the circuit's fixed-column commitment, every
// advice column commitment, and every public input into a MiMC-backed
// Fiat-Shamir transcript, and derives the single evaluation point
// Prove/Verify open their commitments at. Both sides recompute this
// independently; a tampered commitment, a proof produced against a
// different circuit shape, or a tampered public input all change the
// recomputed point, which Verify checks against the point the proof
// claims.
func fiatShamirChallenge(fixedCommit kzg.Digest, digests []kzg.Digest, public []field.F) (field.F, error) {
	transcript := fiatshamir.NewTranscript(mimc.NewMiMC(), challengeLabel)
	if err := transcript.Bind(challengeLabel, fixedCommit.Marshal()); err != nil {
		return field.F{}, err
	}
	for _, d := range digests {
		b := d.Marshal()
		if err := transcript.Bind(challengeLabel, b); err != nil {
			return field.F{}, err
		}
	}
	for _, p := range public {
		b := p.Marshal()
		if err := transcript.Bind(challengeLabel, b); err != nil {
			return field.F{}, err
		}
	}
	raw, err := transcript.ComputeChallenge(challengeLabel)
	if err != nil {
		return field.F{}, err
	}
	var z field.F
	z.SetBytes(raw)
	return z, nil
}
