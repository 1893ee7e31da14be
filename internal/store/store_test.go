package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/progress"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:alchemy-store-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s, err := New(gdb)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordDiscoveryFirstWins(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first, err := s.RecordDiscovery(ctx, "u1", "Steam Engine", "🚂")
	if err != nil || !first {
		t.Fatalf("first record = %v, %v", first, err)
	}
	again, err := s.RecordDiscovery(ctx, "u2", "steam engine", "🚂")
	if err != nil || again {
		t.Fatalf("second record = %v, %v", again, err)
	}
	var d Discovery
	if err := s.db.Where("user_id = ?", "u1").First(&d).Error; err != nil {
		t.Fatal(err)
	}
	if d.Key != element.ID("Steam Engine") {
		t.Fatalf("registry key = %q", d.Key)
	}
	// Distinct names that fold to the same words stay distinct.
	if dash, _ := s.RecordDiscovery(ctx, "u2", "Steam-Engine", "🚂"); !dash {
		t.Fatal("Steam-Engine collided with Steam Engine")
	}

	anon, err := s.RecordDiscovery(ctx, "", "Pottery", "🏺")
	if err != nil || anon {
		t.Fatalf("anonymous record = %v, %v", anon, err)
	}
	// Anonymous production does not consume the credit.
	if later, _ := s.RecordDiscovery(ctx, "u3", "Pottery", "🏺"); !later {
		t.Fatal("credit consumed by anonymous call")
	}
}

func TestStatsStreaks(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for i, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-05", "2024-03-06"} {
		r := DailyResult{UserID: "u1", PuzzleDate: d, ElapsedTime: 60 + 10*i, MovesCount: 4, ParMoves: 3}
		if err := s.SaveDailyResult(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	st, err := s.Stats(ctx, "u1", "2024-03-07")
	if err != nil {
		t.Fatal(err)
	}
	want := progress.Stats{GamesPlayed: 5, Wins: 5, CurrentStreak: 2, MaxStreak: 3, AverageTime: 80, BestTime: 60}
	if st != want {
		t.Fatalf("stats = %+v, want %+v", st, want)
	}

	st, _ = s.Stats(ctx, "u1", "2024-03-09")
	if st.CurrentStreak != 0 || st.MaxStreak != 3 {
		t.Fatalf("lapsed stats = %+v", st)
	}
}

func TestSaveDailyResultUpserts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	_ = s.SaveDailyResult(ctx, DailyResult{UserID: "u1", PuzzleDate: "2024-03-01", ElapsedTime: 90})
	_ = s.SaveDailyResult(ctx, DailyResult{UserID: "u1", PuzzleDate: "2024-03-01", ElapsedTime: 45})

	st, err := s.Stats(ctx, "u1", "2024-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if st.GamesPlayed != 1 || st.BestTime != 45 {
		t.Fatalf("stats after upsert = %+v", st)
	}
}

func TestLeaderboardFirstSubmissionWins(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	date := "2024-03-01"

	if ok, err := s.SubmitScore(ctx, "daily_alchemy", date, "u1", 120, map[string]any{"moves": 3}); err != nil || !ok {
		t.Fatalf("submit u1 = %v, %v", ok, err)
	}
	if ok, _ := s.SubmitScore(ctx, "daily_alchemy", date, "u1", 10, nil); ok {
		t.Fatal("second submission accepted")
	}
	_, _ = s.SubmitScore(ctx, "daily_alchemy", date, "u2", 90, nil)
	_, _ = s.SubmitScore(ctx, "daily_alchemy", "2024-03-02", "u3", 1, nil)

	rows, err := s.Leaderboard(ctx, "daily_alchemy", date, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].UserID != "u2" || rows[1].Score != 120 || rows[1].Rank != 2 {
		t.Fatalf("leaderboard = %+v", rows)
	}
	if rows[1].Metadata["moves"] != float64(3) {
		t.Fatalf("metadata = %+v", rows[1].Metadata)
	}
}

func TestSlotsRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	save := progress.CreativeSave{
		SlotNumber:  2,
		ElementBank: append(element.Starters(), element.Element{Name: "Steam", Emoji: "♨️"}),
		TotalMoves:  1, TotalDiscoveries: 1,
		Favorites: []string{"Steam"},
	}
	if err := s.PutSlot(ctx, "u1", save); err != nil {
		t.Fatal(err)
	}
	if err := s.RenameSlot(ctx, "u1", 2, "Lab"); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.LoadSlot(ctx, "u1", 2)
	if err != nil || !ok {
		t.Fatalf("load = %v, %v", ok, err)
	}
	if got.Name != "Lab" || len(got.ElementBank) != 5 || got.Favorites[0] != "Steam" {
		t.Fatalf("loaded = %+v", got)
	}
	if _, ok, _ := s.LoadSlot(ctx, "u2", 2); ok {
		t.Fatal("slot leaked across users")
	}

	list, err := s.ListSlots(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != progress.SlotCount || !list[0].Empty || list[1].Empty || list[1].Name != "Lab" {
		t.Fatalf("list = %+v", list)
	}

	if err := s.ClearSlot(ctx, "u1", 2); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.LoadSlot(ctx, "u1", 2); ok {
		t.Fatal("slot survived clear")
	}
}

func TestRenameEmptySlotKeepsName(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.RenameSlot(ctx, "u1", 3, "Later"); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.LoadSlot(ctx, "u1", 3)
	if err != nil || ok || got.Name != "Later" {
		t.Fatalf("load = %+v, %v, %v", got, ok, err)
	}
}
