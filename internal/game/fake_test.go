package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/alchemy/internal/api"
	"github.com/robalobadob/alchemy/internal/clock"
	"github.com/robalobadob/alchemy/internal/errs"
	"github.com/robalobadob/alchemy/internal/localstore"
	"github.com/robalobadob/alchemy/internal/progress"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

// fakeBackend is an in-memory Backend that records every call.
type fakeBackend struct {
	mu sync.Mutex

	calls   []string
	recipes map[string]api.CombineResult

	combineErr error
	puzzles    map[string]*puzzle.Puzzle
	puzzleErr  error

	saves    map[int]progress.CreativeSave
	saveErr  error
	loadErr  error
	loadGate chan struct{} // when set, LoadSlot signals loadHit and waits on it
	loadHit  chan struct{}
	saveGate chan struct{} // one shot: the next SaveSlot signals saveHit and waits on it
	saveHit  chan struct{}

	sessionID  string
	sessionErr error

	completions []api.Completion
	leaderboard []api.LeaderboardEntry
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		recipes:   map[string]api.CombineResult{},
		puzzles:   map[string]*puzzle.Puzzle{},
		saves:     map[int]progress.CreativeSave{},
		sessionID: "anon-1",
	}
}

func (f *fakeBackend) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeBackend) count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeBackend) addRecipe(a, b, result, emoji string, first bool) {
	f.recipes[puzzle.KeyOf(a, b, puzzle.OpCombine).String()] = api.CombineResult{
		Element: result, Emoji: emoji, IsFirstDiscovery: first,
	}
}

func (f *fakeBackend) EnsureSession(ctx context.Context) (string, error) {
	f.record("EnsureSession")
	if f.sessionErr != nil {
		return "", f.sessionErr
	}
	return f.sessionID, nil
}

func (f *fakeBackend) ClearSession() { f.record("ClearSession") }

func (f *fakeBackend) Combine(ctx context.Context, a, b string, op puzzle.Operator, userID string) (api.CombineResult, error) {
	k := puzzle.KeyOf(a, b, op).String()
	f.record("Combine %s", k)
	if f.combineErr != nil {
		return api.CombineResult{}, f.combineErr
	}
	if r, ok := f.recipes[k]; ok {
		return r, nil
	}
	return api.CombineResult{Element: "Mix of " + k, Emoji: "✨"}, nil
}

func (f *fakeBackend) FetchPuzzle(ctx context.Context, date string) (*puzzle.Puzzle, error) {
	f.record("FetchPuzzle %s", date)
	if f.puzzleErr != nil {
		return nil, f.puzzleErr
	}
	p, ok := f.puzzles[date]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "no puzzle")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeBackend) Complete(ctx context.Context, rec api.Completion) (progress.Stats, error) {
	f.record("Complete %s", rec.PuzzleDate)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions = append(f.completions, rec)
	return progress.Stats{GamesPlayed: len(f.completions), Wins: len(f.completions)}, nil
}

func (f *fakeBackend) SubmitLeaderboard(ctx context.Context, e api.LeaderboardEntry) error {
	f.record("Leaderboard %s", e.PuzzleDate)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaderboard = append(f.leaderboard, e)
	return nil
}

func (f *fakeBackend) LoadSlot(ctx context.Context, slot int) (progress.CreativeSave, bool, error) {
	f.record("LoadSlot %d", slot)
	if f.loadGate != nil {
		f.loadHit <- struct{}{}
		<-f.loadGate
	}
	if f.loadErr != nil {
		return progress.CreativeSave{}, false, f.loadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.saves[slot]
	if !ok {
		return progress.CreativeSave{SlotNumber: slot}, false, nil
	}
	return s, true, nil
}

func (f *fakeBackend) SaveSlot(ctx context.Context, s progress.CreativeSave) error {
	f.record("SaveSlot %d", s.SlotNumber)
	f.mu.Lock()
	gate := f.saveGate
	f.saveGate = nil
	f.mu.Unlock()
	if gate != nil {
		f.saveHit <- struct{}{}
		<-gate
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves[s.SlotNumber] = s
	return nil
}

func (f *fakeBackend) RenameSlot(ctx context.Context, slot int, name string) error {
	f.record("RenameSlot %d", slot)
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.saves[slot]
	s.Name = name
	f.saves[slot] = s
	return nil
}

func (f *fakeBackend) ClearSlot(ctx context.Context, slot int) error {
	f.record("ClearSlot %d", slot)
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saves, slot)
	return nil
}

func (f *fakeBackend) ListSlots(ctx context.Context) ([]progress.SlotSummary, error) {
	f.record("ListSlots")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]progress.SlotSummary, 0, progress.SlotCount)
	for n := 1; n <= progress.SlotCount; n++ {
		s, ok := f.saves[n]
		if !ok {
			s = progress.CreativeSave{SlotNumber: n}
		}
		out = append(out, s.Summary())
	}
	return out, nil
}

// testStart is 10:00 in New York on 2024-03-01.
var testStart = time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

const testDate = "2024-03-01"

func steamEnginePuzzle(date string) *puzzle.Puzzle {
	return &puzzle.Puzzle{
		Number:        61,
		Date:          date,
		TargetElement: "SteamEngine",
		TargetEmoji:   "🚂",
		ParMoves:      3,
		SolutionPath: []puzzle.Step{
			{ElementA: "Water", ElementB: "Fire", Result: "Steam"},
			{ElementA: "Earth", ElementB: "Fire", Result: "Metal"},
			{ElementA: "Steam", ElementB: "Metal", Result: "SteamEngine"},
		},
	}
}

func dailyBackend() *fakeBackend {
	fb := newFakeBackend()
	fb.puzzles[testDate] = steamEnginePuzzle(testDate)
	fb.puzzles["2024-02-01"] = steamEnginePuzzle("2024-02-01")
	fb.addRecipe("Water", "Fire", "Steam", "♨️", false)
	fb.addRecipe("Earth", "Fire", "Metal", "🔩", false)
	fb.addRecipe("Steam", "Metal", "SteamEngine", "🚂", true)
	return fb
}

type harness struct {
	ctl   *Controller
	fb    *fakeBackend
	local *progress.Local
	clock *clock.Mock
}

func newHarness(t *testing.T, fb *fakeBackend) *harness {
	t.Helper()
	return newHarnessWithLocal(t, fb, progress.NewLocal(localstore.NewMemory(0)), clock.NewMock(testStart))
}

func newHarnessWithLocal(t *testing.T, fb *fakeBackend, local *progress.Local, mc *clock.Mock) *harness {
	t.Helper()
	cfg := DefaultConfig()
	cfg.AnimationDelay = 0
	cfg.SaveDebounce = 0
	ctl := New(cfg, fb, local,
		WithClock(mc),
		WithSleep(func(context.Context, time.Duration) error { return nil }),
	)
	return &harness{ctl: ctl, fb: fb, local: local, clock: mc}
}

func (h *harness) combine(t *testing.T, a, b string) Outcome {
	t.Helper()
	if err := h.ctl.Select(a); err != nil {
		t.Fatalf("select %s: %v", a, err)
	}
	if err := h.ctl.Select(b); err != nil {
		t.Fatalf("select %s: %v", b, err)
	}
	out, err := h.ctl.Combine(context.Background())
	if err != nil {
		t.Fatalf("combine %s+%s: %v", a, b, err)
	}
	return out
}

func (h *harness) startDaily(t *testing.T, date string) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.ctl.LoadPuzzle(ctx, date); err != nil {
		t.Fatalf("load puzzle: %v", err)
	}
	if err := h.ctl.StartGame(ctx); err != nil {
		t.Fatalf("start game: %v", err)
	}
}

var starterPairs = [][2]string{
	{"Earth", "Earth"}, {"Earth", "Water"}, {"Earth", "Fire"}, {"Earth", "Wind"},
	{"Water", "Water"}, {"Water", "Fire"}, {"Water", "Wind"},
	{"Fire", "Fire"}, {"Fire", "Wind"}, {"Wind", "Wind"},
}
