// internal/selection/selection.go
//
// Two-slot selector feeding the combination pipeline.
//   - Slot is a tri-state pointer: none, first, second.
//   - Select fills the active slot and advances to the other slot while it is empty.
//   - SelectResult puts the last result in the first slot and points at the second.
//   - The operator toggles between + and −, except when locked (daily mode).
package selection

import (
	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

// Slot is the active-slot pointer.
type Slot int

const (
	SlotNone Slot = iota
	SlotFirst
	SlotSecond
)

func (s Slot) String() string {
	switch s {
	case SlotFirst:
		return "first"
	case SlotSecond:
		return "second"
	default:
		return "none"
	}
}

// Selector holds the two operand slots.
type Selector struct {
	first, second *element.Element
	active        Slot
	op            puzzle.Operator
	locked        bool
}

// New returns an empty selector with the + operator.
func New() *Selector {
	return &Selector{op: puzzle.OpCombine}
}

// Select places e in the active slot.
func (s *Selector) Select(e element.Element) {
	target := s.active
	if target == SlotNone {
		target = SlotFirst
	}
	s.set(target, &e)

	other := SlotSecond
	if target == SlotSecond {
		other = SlotFirst
	}
	if s.get(other) == nil {
		s.active = other
	} else {
		s.active = target
	}
}

// Focus moves the pointer to slot without changing contents.
func (s *Selector) Focus(slot Slot) { s.active = slot }

// Clear empties both slots and resets the pointer.
func (s *Selector) Clear() {
	s.first, s.second = nil, nil
	s.active = SlotNone
}

// SelectResult sets first=result, second=empty, pointer=second.
func (s *Selector) SelectResult(result element.Element) {
	s.first = &result
	s.second = nil
	s.active = SlotSecond
}

// ToggleOperator flips the operator unless locked.
func (s *Selector) ToggleOperator() puzzle.Operator {
	if !s.locked {
		s.op = s.op.Flip()
	}
	return s.op
}

// Lock forces the + operator and ignores further toggles (daily mode).
func (s *Selector) Lock(locked bool) {
	s.locked = locked
	if locked {
		s.op = puzzle.OpCombine
	}
}

// Operator returns the current operator.
func (s *Selector) Operator() puzzle.Operator { return s.op }

// Active returns the pointer.
func (s *Selector) Active() Slot { return s.active }

// First returns the first slot, if filled.
func (s *Selector) First() (element.Element, bool) { return deref(s.first) }

// Second returns the second slot, if filled.
func (s *Selector) Second() (element.Element, bool) { return deref(s.second) }

// Ready reports whether both slots are filled.
func (s *Selector) Ready() bool { return s.first != nil && s.second != nil }

func (s *Selector) get(slot Slot) *element.Element {
	switch slot {
	case SlotFirst:
		return s.first
	case SlotSecond:
		return s.second
	default:
		return nil
	}
}

func (s *Selector) set(slot Slot, e *element.Element) {
	switch slot {
	case SlotFirst:
		s.first = e
	case SlotSecond:
		s.second = e
	}
}

func deref(e *element.Element) (element.Element, bool) {
	if e == nil {
		return element.Element{}, false
	}
	return *e, true
}
