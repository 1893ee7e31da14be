package hint

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

var steamPath = []puzzle.Step{
	{ElementA: "Water", ElementB: "Fire", Result: "Steam"},
	{ElementA: "Earth", ElementB: "Fire", Result: "Metal"},
	{ElementA: "Steam", ElementB: "Metal", Result: "SteamEngine"},
}

func has(names ...string) func(string) bool {
	set := map[string]bool{}
	for _, s := range element.Starters() {
		set[element.Key(s.Name)] = true
	}
	for _, n := range names {
		set[element.Key(n)] = true
	}
	return func(n string) bool { return set[element.Key(n)] }
}

func TestStartersOnlyRevealsEarliestStarterStep(t *testing.T) {
	c, ok := Pick(steamPath, has())
	if !ok {
		t.Fatal("expected a hint")
	}
	if c.Element != "Steam" || c.Index != 0 {
		t.Fatalf("expected Steam at 0, got %s at %d", c.Element, c.Index)
	}
}

func TestDeeperStepWins(t *testing.T) {
	c, ok := Pick(steamPath, has("steam", "metal"))
	if !ok || c.Element != "SteamEngine" {
		t.Fatalf("expected SteamEngine, got %+v ok=%v", c, ok)
	}
}

func TestSkipsDiscoveredResults(t *testing.T) {
	c, ok := Pick(steamPath, has("Steam"))
	if !ok || c.Element != "Metal" {
		t.Fatalf("expected Metal, got %+v", c)
	}
}

func TestFewerStarterOperandsBreaksTies(t *testing.T) {
	path := []puzzle.Step{
		{ElementA: "Water", ElementB: "Fire", Result: "Steam"},
		{ElementA: "Water", ElementB: "Earth", Result: "Mud"},
		{ElementA: "Steam", ElementB: "Water", Result: "Cloud"},
		{ElementA: "Mud", ElementB: "Steam", Result: "Geyser"},
		{ElementA: "Cloud", ElementB: "Geyser", Result: "Storm"},
	}
	// Cloud (depth 2, one starter) and Geyser (depth 2, zero starters) are
	// both buildable; Geyser wins on starter count.
	c, ok := Pick(path, has("Steam", "Mud"))
	if !ok || c.Element != "Geyser" {
		t.Fatalf("expected Geyser, got %+v", c)
	}
}

func TestNothingLeft(t *testing.T) {
	if _, ok := Pick(steamPath, has("Steam", "Metal", "SteamEngine")); ok {
		t.Fatal("expected no hint once the target exists")
	}
}

func TestUnreachableOperandsYieldNoHint(t *testing.T) {
	// Plasma needs Lightning, which is not a starter and not on the path.
	path := []puzzle.Step{
		{ElementA: "Lightning", ElementB: "Fire", Result: "Plasma"},
		{ElementA: "Plasma", ElementB: "Water", Result: "Star"},
	}
	if _, ok := Pick(path, has()); ok {
		t.Fatal("expected no hint when no producer is buildable")
	}
	c, ok := Pick(path, has("Lightning"))
	if !ok || c.Element != "Plasma" {
		t.Fatalf("expected Plasma, got %+v", c)
	}
}

func TestMessageMentionsElement(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10; i++ {
		if msg := Message("Steam", r); !strings.Contains(msg, "Steam") {
			t.Fatalf("message %q does not mention element", msg)
		}
	}
	if !strings.Contains(Message("Mud", nil), "Mud") {
		t.Fatal("nil rand should still render")
	}
}
