package progress

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/errs"
	"github.com/robalobadob/alchemy/internal/ledger"
	"github.com/robalobadob/alchemy/internal/localstore"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

func sampleDaily(date string) DailyProgress {
	return DailyProgress{
		Date:          date,
		ElementBank:   []string{"Earth", "Water", "Fire", "Wind", "Steam"},
		ElementEmojis: map[string]string{"Steam": "♨️"},
		CombinationPath: []ledger.Entry{
			{Step: 1, ElementA: "Water", ElementB: "Fire", Result: "Steam", Operator: puzzle.OpCombine},
		},
		MovesCount:     1,
		ElapsedTime:    42,
		NewDiscoveries: 1,
	}
}

func TestDailyRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(localstore.NewMemory(0))

	if _, ok, err := l.LoadDaily(ctx, "2024-03-01"); ok || err != nil {
		t.Fatalf("expected no progress, got ok=%v err=%v", ok, err)
	}
	want := sampleDaily("2024-03-01")
	if err := l.SaveDaily(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, ok, err := l.LoadDaily(ctx, "2024-03-01")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	els := got.Elements()
	if len(els) != 5 || !els[0].IsStarter || els[4].Emoji != "♨️" {
		t.Fatalf("unexpected elements %+v", els)
	}
}

func TestUnreadableDailyIsIgnored(t *testing.T) {
	ctx := context.Background()
	kv := localstore.NewMemory(0)
	_ = kv.Set(ctx, localstore.ProgressKey("2024-03-01"), []byte("{not json"))
	l := NewLocal(kv)
	if _, ok, err := l.LoadDaily(ctx, "2024-03-01"); ok || err != nil {
		t.Fatalf("expected unreadable record to be skipped, ok=%v err=%v", ok, err)
	}
}

func TestAttemptedMarker(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(localstore.NewMemory(0))
	if a, _ := l.Attempted(ctx, "2024-03-01"); a {
		t.Fatal("fresh date should not be attempted")
	}
	if err := l.MarkAttempted(ctx, "2024-03-01"); err != nil {
		t.Fatal(err)
	}
	if a, _ := l.Attempted(ctx, "2024-03-01"); !a {
		t.Fatal("expected attempted")
	}
	if a, _ := l.Attempted(ctx, "2024-03-02"); a {
		t.Fatal("attempted must be date-scoped")
	}
}

func TestDailySaverDebouncesToLatest(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(localstore.NewMemory(0))
	s := NewDailySaver(l, time.Hour)

	first := sampleDaily("2024-03-01")
	second := sampleDaily("2024-03-01")
	second.ElapsedTime = 99
	s.Schedule(first)
	s.Schedule(second)

	if _, ok, _ := l.LoadDaily(ctx, "2024-03-01"); ok {
		t.Fatal("debounced write landed early")
	}
	if !s.Pending() {
		t.Fatal("expected a pending write")
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	got, ok, _ := l.LoadDaily(ctx, "2024-03-01")
	if !ok || got.ElapsedTime != 99 {
		t.Fatalf("expected latest record, got ok=%v %+v", ok, got)
	}
	if s.Pending() {
		t.Fatal("flush should clear the pending write")
	}
}

func TestDailySaverFiresAfterQuietPeriod(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(localstore.NewMemory(0))
	s := NewDailySaver(l, 10*time.Millisecond)
	s.Schedule(sampleDaily("2024-03-01"))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok, _ := l.LoadDaily(ctx, "2024-03-01"); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("debounced write never landed")
}

// slowStore blocks the first Set until release is closed.
type slowStore struct {
	localstore.Store
	once    sync.Once
	hit     chan struct{}
	release chan struct{}
}

func (s *slowStore) Set(ctx context.Context, key string, value []byte) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		s.hit <- struct{}{}
		<-s.release
	}
	return s.Store.Set(ctx, key, value)
}

func TestDailySaverFinalRecordWinsOverSlowDebouncedWrite(t *testing.T) {
	ctx := context.Background()
	slow := &slowStore{Store: localstore.NewMemory(0), hit: make(chan struct{}, 1), release: make(chan struct{})}
	l := NewLocal(slow)
	s := NewDailySaver(l, time.Millisecond)

	s.Schedule(sampleDaily("2024-03-01"))
	select {
	case <-slow.hit:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced write never started")
	}

	final := sampleDaily("2024-03-01")
	final.Completed = true
	done := make(chan error, 1)
	go func() { done <- s.SaveNow(ctx, final) }()
	time.Sleep(20 * time.Millisecond)
	close(slow.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	got, ok, _ := l.LoadDaily(ctx, "2024-03-01")
	if !ok || !got.Completed {
		t.Fatalf("stored record = ok %v completed %v, want the final record", ok, got.Completed)
	}
}

func TestDailySaverDropsOlderWrite(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(localstore.NewMemory(0))
	s := NewDailySaver(l, time.Hour)

	s.Schedule(sampleDaily("2024-03-01"))
	s.mu.Lock()
	stale, seq := *s.pending, s.pendingSeq
	s.pending = nil
	s.mu.Unlock()

	final := sampleDaily("2024-03-01")
	final.Completed = true
	if err := s.SaveNow(ctx, final); err != nil {
		t.Fatal(err)
	}
	// The debounced record reaches the store after the final one.
	if err := s.write(ctx, stale, seq); err != nil {
		t.Fatal(err)
	}
	got, _, _ := l.LoadDaily(ctx, "2024-03-01")
	if !got.Completed {
		t.Fatal("older debounced record replaced the final one")
	}
}

func TestLocalRecords(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(localstore.NewMemory(0))

	if got := l.LoadActiveSlot(ctx); got != 1 {
		t.Fatalf("default slot = %d", got)
	}
	_ = l.SaveActiveSlot(ctx, 3)
	if got := l.LoadActiveSlot(ctx); got != 3 {
		t.Fatalf("slot = %d", got)
	}

	_ = l.SaveUsage(ctx, map[string]int{"Fire": 2})
	usage, err := l.LoadUsage(ctx)
	if err != nil || usage["Fire"] != 2 {
		t.Fatalf("usage = %v, %v", usage, err)
	}

	_ = l.SaveFavorites(ctx, "2", []string{"Steam"})
	favs, _ := l.LoadFavorites(ctx, "2")
	if !reflect.DeepEqual(favs, []string{"Steam"}) {
		t.Fatalf("favorites = %v", favs)
	}
	if other, _ := l.LoadFavorites(ctx, "1"); len(other) != 0 {
		t.Fatalf("favorites leaked across slots: %v", other)
	}

	_ = l.SaveStats(ctx, "", Stats{GamesPlayed: 1})
	_ = l.SaveStats(ctx, "user-1", Stats{GamesPlayed: 7})
	if err := l.ClearAnonymous(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := l.LoadStats(ctx, ""); ok {
		t.Fatal("anonymous stats should be cleared")
	}
	if s, ok, _ := l.LoadStats(ctx, "user-1"); !ok || s.GamesPlayed != 7 {
		t.Fatal("user stats should survive")
	}
}

func TestExportRoundTrip(t *testing.T) {
	save := CreativeSave{
		SlotNumber:       2,
		ElementBank:      append(element.Starters(), element.Element{Name: "Steam", Emoji: "♨️"}),
		TotalDiscoveries: 1,
		Favorites:        []string{"Steam"},
	}
	raw, err := Export(save, "Lab", 1700000000000)
	if err != nil {
		t.Fatal(err)
	}
	f, err := ParseExport(raw)
	if err != nil {
		t.Fatal(err)
	}
	if f.SlotName != "Lab" || f.Format != ExportFormat {
		t.Fatalf("unexpected header %+v", f)
	}
	got := f.ForSlot(3)
	if got.SlotNumber != 3 || got.Name != "Lab" || len(got.ElementBank) != 5 {
		t.Fatalf("unexpected save %+v", got)
	}
}

func TestParseExportTolerance(t *testing.T) {
	ok := `{"slotName":"x","elementBank":[{"name":"Steam","emoji":"♨️"},{"name":"  "}],"future":{"a":1}}`
	f, err := ParseExport([]byte(ok))
	if err != nil {
		t.Fatalf("extra fields should be tolerated: %v", err)
	}
	if len(f.ElementBank) != 1 {
		t.Fatalf("blank names should be dropped: %+v", f.ElementBank)
	}

	for name, in := range map[string]string{
		"malformed":    `{"elementBank": [`,
		"missing bank": `{"slotName":"x"}`,
		"null bank":    `{"elementBank": null}`,
	} {
		_, err := ParseExport([]byte(in))
		if !errors.Is(err, errs.InvalidArgument) {
			t.Errorf("%s: expected invalid argument, got %v", name, err)
		}
	}
}

func TestGateInhibitsUntilLoaded(t *testing.T) {
	g := NewGate(5)
	if _, ok := g.TryBegin(10, 3); ok {
		t.Fatal("autosave must wait for the initial load")
	}
	g.Ready(0, 0)
	if _, ok := g.TryBegin(4, 0); ok {
		t.Fatal("four new discoveries are not enough")
	}
	tk, ok := g.TryBegin(5, 0)
	if !ok {
		t.Fatal("five new discoveries should trigger")
	}
	if _, ok := g.TryBegin(6, 1); ok {
		t.Fatal("only one save may be in flight")
	}
	g.Done(tk, true, 5, 0)
	tk, ok = g.TryBegin(5, 1)
	if !ok {
		t.Fatal("a first discovery should trigger")
	}
	g.Done(tk, false, 5, 1)
	if !g.Due(5, 1) {
		t.Fatal("failed save should keep the old baseline")
	}
	g.SetDisabled(true)
	if g.Due(50, 9) {
		t.Fatal("disabled gate never fires")
	}
}

func TestGateIgnoresSaveFromPreviousEpoch(t *testing.T) {
	g := NewGate(5)
	g.Ready(0, 0)
	stale, ok := g.TryBegin(7, 2)
	if !ok {
		t.Fatal("save should be due")
	}

	// The active slot changes while the save is still running.
	g.Inhibit()
	g.Ready(0, 0)
	g.Done(stale, true, 7, 2)

	if g.InFlight() {
		t.Fatal("finished save still in flight")
	}
	if g.Due(4, 0) {
		t.Fatal("stale save moved the baseline down")
	}
	if !g.Due(5, 0) {
		t.Fatal("new slot lost its own baseline")
	}
}

func TestGateWaitReturnsWhenSaveFinishes(t *testing.T) {
	g := NewGate(1)
	g.Ready(0, 0)
	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("idle wait: %v", err)
	}
	tk, _ := g.TryBeginManual()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := g.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("wait with save in flight = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()
	g.Done(tk, true, 0, 0)
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("wait never returned")
	}
}

func TestGateResumeKeepsBaseline(t *testing.T) {
	g := NewGate(5)
	g.Ready(3, 1)
	g.Inhibit()
	g.Resume()
	if g.Due(7, 1) {
		t.Fatal("baseline reset by resume")
	}
	if !g.Due(8, 1) {
		t.Fatal("resumed gate should fire at the old baseline + 5")
	}
}
