package recipes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/robalobadob/alchemy/internal/daily"
	"github.com/robalobadob/alchemy/internal/errs"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

func TestEmbeddedBookLookup(t *testing.T) {
	b, err := LoadBook("")
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() == 0 {
		t.Fatal("embedded book is empty")
	}

	r, ok := b.Lookup("Fire", "water", puzzle.OpCombine)
	if !ok || r.Element != "Steam" {
		t.Fatalf("fire+water = %+v, %v", r, ok)
	}
	if _, ok := b.Lookup("Water", "Steam", puzzle.OpSubtract); ok {
		t.Fatal("subtract must keep operand order")
	}
	if r, ok := b.Lookup("Steam", "Fire", puzzle.OpSubtract); !ok || r.Element != "Water" {
		t.Fatalf("steam-fire = %+v, %v", r, ok)
	}
}

func TestResolveSynthesizesDeterministically(t *testing.T) {
	b, err := ParseBook([]string{"Water + Fire = Steam | ♨️"})
	if err != nil {
		t.Fatal(err)
	}
	x := b.Resolve("Steam", "Wind", puzzle.OpCombine)
	y := b.Resolve("wind", "steam", puzzle.OpCombine)
	if x != y || x.Element == "" || x.Emoji == "" {
		t.Fatalf("synthesized %+v and %+v", x, y)
	}
}

func TestParseBookRejectsMalformedLines(t *testing.T) {
	for _, line := range []string{"Water Fire = Steam", "Water + Fire", "Water + = Steam", "Water + Fire = | x"} {
		if _, err := ParseBook([]string{line}); err == nil {
			t.Errorf("ParseBook(%q) accepted", line)
		}
	}
}

func TestLoadBookFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.txt")
	if err := os.WriteFile(path, []byte("# custom\n\nIce + Fire = Water | 💧\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := LoadBook(path)
	if err != nil {
		t.Fatal(err)
	}
	if r, ok := b.Lookup("Fire", "Ice", puzzle.OpCombine); !ok || r.Emoji != "💧" {
		t.Fatalf("lookup = %+v, %v", r, ok)
	}
}

func TestEmbeddedCalendarAgreesWithBook(t *testing.T) {
	b, err := LoadBook("")
	if err != nil {
		t.Fatal(err)
	}
	c, err := LoadCalendar("", "salt", b)
	if err != nil {
		t.Fatal(err)
	}
	pinned, pool := c.Size()
	if pinned == 0 || pool == 0 {
		t.Fatalf("calendar size = %d pinned / %d pool", pinned, pool)
	}

	p, err := c.ForDate(daily.LaunchDate)
	if err != nil {
		t.Fatal(err)
	}
	if p.TargetElement != "Steam Engine" || p.Number != 1 {
		t.Fatalf("launch puzzle = %s #%d", p.TargetElement, p.Number)
	}
}

func TestCalendarPoolIsDeterministic(t *testing.T) {
	c, err := LoadCalendar("", "salt", nil)
	if err != nil {
		t.Fatal(err)
	}
	a, err := c.ForDate("2024-03-01")
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.ForDate("2024-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if a.TargetElement != b.TargetElement || a.Date != "2024-03-01" || a.Number != daily.Number("2024-03-01") {
		t.Fatalf("pool puzzles differ: %+v vs %+v", a, b)
	}
	a.SolutionPath[0].Result = "mutated"
	if c2, _ := c.ForDate("2024-03-01"); c2.SolutionPath[0].Result == "mutated" {
		t.Fatal("ForDate returned shared solution path")
	}
}

func TestCalendarRejectsBadInput(t *testing.T) {
	c, err := LoadCalendar("", "salt", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ForDate("March 1st"); !errors.Is(err, errs.InvalidArgument) {
		t.Fatalf("bad date err = %v", err)
	}

	bad := puzzle.Puzzle{
		TargetElement: "Steam", ParMoves: 1,
		SolutionPath: []puzzle.Step{{ElementA: "Water", ElementB: "Fire", Result: "Steam"}},
	}
	book, _ := ParseBook([]string{"Water + Fire = Mist"})
	if _, err := NewCalendar([]puzzle.Puzzle{bad}, "", book); err == nil {
		t.Fatal("calendar accepted a path the book disagrees with")
	}
}
