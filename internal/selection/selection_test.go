package selection

import (
	"testing"

	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

var (
	water = element.Element{Name: "Water"}
	fire  = element.Element{Name: "Fire"}
	earth = element.Element{Name: "Earth"}
)

func TestSelectFillsBothAndRestsOnSecond(t *testing.T) {
	s := New()
	if s.Active() != SlotNone {
		t.Fatalf("expected none, got %s", s.Active())
	}

	s.Select(water)
	if s.Active() != SlotSecond {
		t.Fatalf("expected pointer on second, got %s", s.Active())
	}
	s.Select(fire)
	if s.Active() != SlotSecond {
		t.Fatalf("expected pointer to rest on second, got %s", s.Active())
	}
	if !s.Ready() {
		t.Fatal("expected both slots filled")
	}

	// Repeated selection replaces the same slot.
	s.Select(earth)
	a, _ := s.First()
	b, _ := s.Second()
	if a.Name != "Water" || b.Name != "Earth" {
		t.Fatalf("unexpected slots %s/%s", a.Name, b.Name)
	}
}

func TestSelectSameElementTwice(t *testing.T) {
	s := New()
	s.Select(fire)
	s.Select(fire)
	a, _ := s.First()
	b, _ := s.Second()
	if a.Name != "Fire" || b.Name != "Fire" {
		t.Fatal("expected the same element in both slots")
	}
}

func TestFocusFirstThenSelectAdvancesWhenSecondEmpty(t *testing.T) {
	s := New()
	s.Select(water)
	s.Focus(SlotFirst)
	s.Select(fire)
	if s.Active() != SlotSecond {
		t.Fatalf("expected pointer to advance to empty second, got %s", s.Active())
	}
	a, _ := s.First()
	if a.Name != "Fire" {
		t.Fatalf("expected first replaced, got %s", a.Name)
	}
}

func TestClearAndSelectResult(t *testing.T) {
	s := New()
	s.Select(water)
	s.Select(fire)
	s.Clear()
	if s.Active() != SlotNone || s.Ready() {
		t.Fatal("expected empty selector after clear")
	}
	if _, ok := s.First(); ok {
		t.Fatal("first should be empty")
	}

	s.Select(earth)
	s.SelectResult(element.Element{Name: "Steam"})
	a, _ := s.First()
	if a.Name != "Steam" {
		t.Fatalf("expected Steam in first slot, got %s", a.Name)
	}
	if _, ok := s.Second(); ok {
		t.Fatal("second should be empty after SelectResult")
	}
	if s.Active() != SlotSecond {
		t.Fatalf("expected pointer on second, got %s", s.Active())
	}
}

func TestOperatorLock(t *testing.T) {
	s := New()
	if s.ToggleOperator() != puzzle.OpSubtract {
		t.Fatal("expected toggle to subtract")
	}
	s.Lock(true)
	if s.Operator() != puzzle.OpCombine {
		t.Fatal("lock must force combine")
	}
	if s.ToggleOperator() != puzzle.OpCombine {
		t.Fatal("locked selector must ignore toggles")
	}
	s.Lock(false)
	if s.ToggleOperator() != puzzle.OpSubtract {
		t.Fatal("unlocked selector should toggle again")
	}
}
