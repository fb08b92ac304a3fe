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

// Package stackframe holds the bounded symbolic storage of spec.md §3: the
// operand stack, the locals array, and the generic bounded LIFOs used for
// the call stack, the condition stack and the block stack. Grounded on
// zkmove-lite's vm/src/state.rs.
package stackframe

import (
	"fmt"

	mapset "github.com/deckarep/golang-set"

	"github.com/probeum/zkmovevm/errkind"
	"github.com/probeum/zkmovevm/field"
)

// MaxDepth is the fixed bound every stack in this package enforces.
const MaxDepth = 256

// OperandStack is the bounded LIFO of Value described in spec.md §3. It is
// never cloned across conditional-branch forks (§5's "shared-resource
// policy") - both arms of a fork operate on the single stack belonging to
// their enclosing frame.
type OperandStack struct {
	items []field.Value
}

// NewOperandStack returns an empty operand stack.
func NewOperandStack() *OperandStack {
	return &OperandStack{items: make([]field.Value, 0, 16)}
}

// Push appends v, failing with ErrStackOverflow past MaxDepth.
func (s *OperandStack) Push(v field.Value) error {
	if len(s.items) >= MaxDepth {
		return errkind.ErrStackOverflow
	}
	s.items = append(s.items, v)
	return nil
}

// Pop removes and returns the top value, failing with ErrStackUnderflow when empty.
func (s *OperandStack) Pop() (field.Value, error) {
	if len(s.items) == 0 {
		return field.Value{}, errkind.ErrStackUnderflow
	}
	n := len(s.items) - 1
	v := s.items[n]
	s.items = s.items[:n]
	return v, nil
}

// Len reports the current depth.
func (s *OperandStack) Len() int { return len(s.items) }

// Shape returns a lightweight summary of the stack's current depth and
// per-slot types. Nothing in this repository calls it; the "balanced stack
// discipline" invariant of spec.md §5 is not checked across branch arms.
func (s *OperandStack) Shape() []field.Tag {
	shape := make([]field.Tag, len(s.items))
	for i, v := range s.items {
		shape[i] = v.Type()
	}
	return shape
}

// Locals is the fixed-length, index-addressed array of Value described in
// spec.md §3.
type Locals struct {
	slots []field.Value
}

// NewLocals allocates a Locals array of the given declared length, every
// slot initially Invalid.
func NewLocals(count int) *Locals {
	slots := make([]field.Value, count)
	for i := range slots {
		slots[i] = field.InvalidValue()
	}
	return &Locals{slots: slots}
}

// Len returns the declared local count.
func (l *Locals) Len() int { return len(l.slots) }

func (l *Locals) checkIndex(i int) error {
	if i < 0 || i >= len(l.slots) {
		return fmt.Errorf("%w: index %d, count %d", errkind.ErrOutOfBounds, i, len(l.slots))
	}
	return nil
}

// Copy returns locals[i], failing with ErrCopyLocal if the slot is Invalid.
func (l *Locals) Copy(i int) (field.Value, error) {
	if err := l.checkIndex(i); err != nil {
		return field.Value{}, err
	}
	v := l.slots[i]
	if v.IsInvalid() {
		return field.Value{}, fmt.Errorf("%w: local %d", errkind.ErrCopyLocal, i)
	}
	return v, nil
}

// Store writes v into locals[i].
func (l *Locals) Store(i int, v field.Value) error {
	if err := l.checkIndex(i); err != nil {
		return fmt.Errorf("%w: %v", errkind.ErrStoreLocal, err)
	}
	l.slots[i] = v
	return nil
}

// Move returns locals[i] and replaces the slot with Invalid, failing with
// ErrMoveLocal if it was already Invalid.
func (l *Locals) Move(i int) (field.Value, error) {
	if err := l.checkIndex(i); err != nil {
		return field.Value{}, err
	}
	v := l.slots[i]
	if v.IsInvalid() {
		return field.Value{}, fmt.Errorf("%w: local %d", errkind.ErrMoveLocal, i)
	}
	l.slots[i] = field.InvalidValue()
	return v, nil
}

// At returns the raw current slot value without the Invalid check -
// used by the branch-merge step of spec.md §4.5 to compare wire identity.
func (l *Locals) At(i int) field.Value { return l.slots[i] }

// Clone performs the deep copy spec.md §5 requires on every conditional
// fork: each branch arm gets its own independent slot vector so writes in
// one arm cannot contaminate the other.
func (l *Locals) Clone() *Locals {
	cp := make([]field.Value, len(l.slots))
	copy(cp, l.slots)
	return &Locals{slots: cp}
}

// genericStack is the bounded LIFO shape shared by the call stack, the
// condition stack and the block stack (spec.md §3's "same bounded-LIFO
// shape"). It is generic over the pushed element via an empty-interface
// slice, matching the pre-generics idiom the teacher's own codebase uses
// for its container types.
type genericStack struct {
	items []interface{}
}

func newGenericStack() *genericStack {
	return &genericStack{items: make([]interface{}, 0, 8)}
}

func (s *genericStack) push(v interface{}) error {
	if len(s.items) >= MaxDepth {
		return errkind.ErrStackOverflow
	}
	s.items = append(s.items, v)
	return nil
}

func (s *genericStack) pop() (interface{}, error) {
	if len(s.items) == 0 {
		return nil, errkind.ErrStackUnderflow
	}
	n := len(s.items) - 1
	v := s.items[n]
	s.items = s.items[:n]
	return v, nil
}

func (s *genericStack) peek() (interface{}, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	return s.items[len(s.items)-1], true
}

func (s *genericStack) len() int { return len(s.items) }

// ConditionStack tracks the nesting of conditional-branch gating values
// (spec.md §3). Each entry is a field.Value (a Bool) rather than a raw
// Go bool, since a condition's witness may be absent during key generation.
type ConditionStack struct{ s *genericStack }

// NewConditionStack returns an empty condition stack.
func NewConditionStack() *ConditionStack { return &ConditionStack{s: newGenericStack()} }

func (c *ConditionStack) Push(v field.Value) error { return c.s.push(v) }

func (c *ConditionStack) Pop() (field.Value, error) {
	v, err := c.s.pop()
	if err != nil {
		return field.Value{}, err
	}
	return v.(field.Value), nil
}

func (c *ConditionStack) Len() int { return c.s.len() }

// BlockStack holds the ancestry of enclosing blocks a frame must resume
// into once the currently active (innermost) block exits (spec.md §3).
// The element type is declared here as interface{} because package program
// (which defines the concrete Block/ConditionalBlock types) imports this
// package, not the other way around - matching the teacher's layering
// convention of keeping state containers below their occupants.
type BlockStack struct{ s *genericStack }

// NewBlockStack returns an empty block stack.
func NewBlockStack() *BlockStack { return &BlockStack{s: newGenericStack()} }

func (b *BlockStack) Push(v interface{}) error { return b.s.push(v) }

func (b *BlockStack) Pop() (interface{}, error) { return b.s.pop() }

func (b *BlockStack) Peek() (interface{}, bool) { return b.s.peek() }

func (b *BlockStack) Len() int { return b.s.len() }

// CallStack holds the frame ancestry across Call/Return (spec.md §3/§4.6).
// Like BlockStack its element type is left generic to avoid an import
// cycle with package program, which defines the concrete Frame type.
type CallStack struct{ s *genericStack }

// NewCallStack returns an empty call stack.
func NewCallStack() *CallStack { return &CallStack{s: newGenericStack()} }

func (c *CallStack) Push(v interface{}) error { return c.s.push(v) }

func (c *CallStack) Pop() (interface{}, error) { return c.s.pop() }

func (c *CallStack) Len() int { return c.s.len() }

// SeenTargets is a dedup set of branch/join program-counter targets. No
// package calls it; the control-flow partitioner (package program)
// re-partitions on every visit to a branch. Backed by deckarep/golang-set, as the
// teacher's P2P peer-set and transaction-pool code uses it for exactly this
// kind of "have we already processed this key" membership tracking.
type SeenTargets struct {
	seen mapset.Set
}

// NewSeenTargets returns an empty target-dedup set.
func NewSeenTargets() *SeenTargets {
	return &SeenTargets{seen: mapset.NewThreadUnsafeSet()}
}

// MarkIfNew records pc and reports whether it had not been seen before.
func (t *SeenTargets) MarkIfNew(pc int) bool {
	if t.seen.Contains(pc) {
		return false
	}
	t.seen.Add(pc)
	return true
}
