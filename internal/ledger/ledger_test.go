package ledger

import (
	"testing"

	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

func el(name string) element.Element { return element.Element{Name: name} }

func TestDuplicateCombinationDoesNotCount(t *testing.T) {
	l := New()
	l.Record(Combination{A: "Water", B: "Fire", Result: el("Steam"), IsNew: true})
	e := l.Record(Combination{A: "Fire", B: "Water", Result: el("Steam")})

	if l.Moves != 1 {
		t.Fatalf("expected 1 move, got %d", l.Moves)
	}
	if len(l.Path) != 2 {
		t.Fatalf("expected 2 path entries, got %d", len(l.Path))
	}
	if !e.IsDuplicate || l.Path[0].IsDuplicate {
		t.Fatal("only the repeat should be marked duplicate")
	}
	if e.Step != 2 {
		t.Fatalf("expected step 2, got %d", e.Step)
	}
	if l.NewDiscoveries != 1 {
		t.Fatalf("expected 1 new discovery, got %d", l.NewDiscoveries)
	}
}

func TestSubtractIsOrdered(t *testing.T) {
	l := New()
	l.Record(Combination{A: "Steam", B: "Water", Op: puzzle.OpSubtract, Result: el("Fire")})
	l.Record(Combination{A: "Water", B: "Steam", Op: puzzle.OpSubtract, Result: el("Nothing")})
	l.Record(Combination{A: "Steam", B: "Water", Op: puzzle.OpCombine, Result: el("Cloud")})
	if l.Moves != 3 {
		t.Fatalf("expected 3 distinct moves, got %d", l.Moves)
	}
}

func TestFirstDiscoveryCountedOnce(t *testing.T) {
	l := New()
	l.Record(Combination{A: "a", B: "b", Result: el("Zeal"), IsNew: true, IsFirst: true})
	l.Record(Combination{A: "c", B: "d", Result: el("zeal"), IsFirst: true})
	if l.FirstDiscoveries != 1 || len(l.FirstDiscoveryElements) != 1 {
		t.Fatalf("expected one first discovery, got %d %v", l.FirstDiscoveries, l.FirstDiscoveryElements)
	}
}

func TestRecentCapacity(t *testing.T) {
	l := New()
	for _, n := range []string{"A", "B", "C", "D"} {
		l.Record(Combination{A: n, B: n, Result: el(n), IsNew: true})
	}
	if len(l.Recent) != RecentCapacity {
		t.Fatalf("expected %d recent, got %d", RecentCapacity, len(l.Recent))
	}
	if l.Recent[0].Name != "D" || l.Recent[2].Name != "B" {
		t.Fatalf("unexpected recent order %v", l.Recent)
	}
}

func TestPartnerElementSkipsFirstCredit(t *testing.T) {
	l := New()
	l.AddPartner(el("Lava"))
	if l.NewDiscoveries != 1 || l.FirstDiscoveries != 0 || l.Moves != 0 {
		t.Fatalf("unexpected counters %+v", l)
	}
	if l.Recent[0].Name != "Lava" {
		t.Fatal("partner element should be most recent")
	}
}

func TestRestoreRebuildsMadeSet(t *testing.T) {
	l := New()
	l.Record(Combination{A: "Water", B: "Fire", Result: el("Steam"), IsNew: true})
	path := append([]Entry(nil), l.Path...)

	r := New()
	r.Restore(path, 1, 1, 0, 2, nil)
	if !r.Made(puzzle.KeyOf("fire", "water", puzzle.OpCombine)) {
		t.Fatal("restored ledger should know the made key")
	}
	e := r.Record(Combination{A: "Water", B: "Fire", Result: el("Steam")})
	if !e.IsDuplicate || r.Moves != 1 || r.HintsUsed != 2 {
		t.Fatalf("unexpected restored state: dup=%v moves=%d hints=%d", e.IsDuplicate, r.Moves, r.HintsUsed)
	}
}
