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
	"fmt"

	"github.com/probeum/zkmovevm/errkind"
)

// armSpec describes one discovered branch arm before its Block is built:
// the half-open bytecode range [Start, End) and whether it runs when the
// original branch condition evaluates true.
type armSpec struct {
	Start, End int
	IsTrueArm  bool
	Omitted    bool // condition-known-false-at-compile-time arm (abort-guard)
}

// partitionResult is everything the fork step needs to build a ConditionalBlock.
type partitionResult struct {
	trueArm, falseArm *armSpec // either may be nil if that logical arm is omitted
	joinPC            int
	backEdge          bool // true when joinPC is a loop header, not a forward join
}

// findBranchArms statically partitions code at a ConditionalBranch exit,
// recognizing four shapes: the three of spec.md §4.5 step 1 (canonical
// two-arm, one-arm fall-through, and abort-guard) plus a loop back-edge
// whose closing Branch targets an earlier pc. brPC is the pc of the
// BrTrue/BrFalse instruction itself; target is its jump offset.
func findBranchArms(code Code, brPC int, target int, branchOp Op) (*partitionResult, error) {
	fallthroughStart := brPC + 1
	if target <= fallthroughStart || target > len(code) {
		return nil, fmt.Errorf("%w: branch target %d out of range after pc %d", errkind.ErrProgramBlock, target, brPC)
	}

	// fallthroughIsTrueArm records which logical arm (true/false) the
	// fallthrough region (the code immediately after the branch, executed
	// when the jump is NOT taken) represents.
	fallthroughIsTrueArm := branchOp == OpBrFalse

	guardPos := target - 1
	switch {
	case code[guardPos].Op == OpAbort:
		// Abort-guard pattern: the fallthrough arm is linear code ending in
		// the Abort instruction itself; the jumped-to arm is omitted entirely.
		fall := &armSpec{Start: fallthroughStart, End: target, IsTrueArm: fallthroughIsTrueArm}
		jumped := &armSpec{IsTrueArm: !fallthroughIsTrueArm, Omitted: true}
		return assemble(fall, jumped, target), nil

	case code[guardPos].Op == OpBranch && int(code[guardPos].Arg) > guardPos:
		// Canonical two-arm pattern: the fallthrough arm's own closing
		// Branch names the join point; the jumped-to arm must close with a
		// matching Branch of its own. The Arg>guardPos check excludes a
		// loop's own back-edge (a Branch to an earlier pc), which looks
		// identical at this position but joins nothing - that falls to the
		// back-edge case below instead.
		joinPC := int(code[guardPos].Arg)
		tEnd := -1
		for i := target; i < len(code); i++ {
			if code[i].Op == OpBranch && int(code[i].Arg) == joinPC {
				tEnd = i
				break
			}
		}
		if tEnd < 0 {
			return nil, fmt.Errorf("%w: no matching closing branch to pc %d found after pc %d", errkind.ErrProgramBlock, joinPC, target)
		}
		fall := &armSpec{Start: fallthroughStart, End: guardPos, IsTrueArm: fallthroughIsTrueArm}
		jumped := &armSpec{Start: target, End: tEnd, IsTrueArm: !fallthroughIsTrueArm}
		return assemble(fall, jumped, joinPC), nil

	case code[guardPos].Op == OpBranch:
		// Back-edge pattern: the arm's own closing Branch targets an earlier
		// pc - the loop header - rather than joining forward, so it cannot be
		// the canonical two-arm case (that's already been excluded above).
		// The Branch instruction itself is excluded from the arm's range so
		// the block finishes with ExitBranchEnd the moment it reaches it,
		// without ever executing the jump; the join point is the header, not
		// the branch target, so the outer block resumes the loop condition
		// check directly rather than nesting a fresh fork inside this one.
		// Frame.fork bounds how many times this header may be revisited.
		headerPC := int(code[guardPos].Arg)
		fall := &armSpec{Start: fallthroughStart, End: guardPos, IsTrueArm: fallthroughIsTrueArm}
		jumped := &armSpec{IsTrueArm: !fallthroughIsTrueArm, Omitted: true}
		r := assemble(fall, jumped, headerPC)
		r.backEdge = true
		return r, nil

	default:
		// One-arm fall-through pattern: no explicit closing Branch joining
		// past the jump target, so the fallthrough arm runs up to the jump
		// target itself, which doubles as the join point; the jumped-to arm
		// is omitted (empty).
		fall := &armSpec{Start: fallthroughStart, End: target, IsTrueArm: fallthroughIsTrueArm}
		jumped := &armSpec{IsTrueArm: !fallthroughIsTrueArm, Omitted: true}
		return assemble(fall, jumped, target), nil
	}
}

func assemble(fall, jumped *armSpec, joinPC int) *partitionResult {
	r := &partitionResult{joinPC: joinPC}
	for _, a := range [2]*armSpec{fall, jumped} {
		if a.Omitted {
			continue
		}
		if a.IsTrueArm {
			r.trueArm = a
		} else {
			r.falseArm = a
		}
	}
	return r
}
