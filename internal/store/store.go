// internal/store/store.go
//
// Reference backend persistence on gorm + SQLite.
// Responsibilities:
//   - Users issued by the session endpoint.
//   - Global first-discovery registry.
//   - Daily results (one per user and date) and the rolling stats derived
//     from them.
//   - Leaderboard scores with first-submission-wins semantics.
//   - Creative save slots per user.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/robalobadob/alchemy/internal/daily"
	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/progress"
)

// Store wraps the gorm handle.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and migrates it.
func Open(path string, quiet bool) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "data/alchemy.db"
	}
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	cfg := &gorm.Config{}
	if quiet {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	gdb, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL"), cfg)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return New(gdb)
}

// New migrates gdb and returns a Store over it.
func New(gdb *gorm.DB) (*Store, error) {
	if err := gdb.AutoMigrate(&User{}, &Discovery{}, &DailyResult{}, &Score{}, &Slot{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: gdb}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("store: database path parent is not a directory")
		}
		return nil
	}
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	return err
}

// CreateUser records a user id; existing ids are left alone.
func (s *Store) CreateUser(ctx context.Context, id string, anonymous bool) error {
	u := User{ID: id, Anonymous: anonymous}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&u).Error; err != nil {
		return fmt.Errorf("store: create user: %w", err)
	}
	return nil
}

// HasUser reports whether id was issued.
func (s *Store) HasUser(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("store: find user: %w", err)
	}
	return n > 0, nil
}

// RecordDiscovery registers element as produced by userID. It reports
// whether this was the first time anyone produced it. Anonymous calls
// (userID == "") never claim a first discovery.
func (s *Store) RecordDiscovery(ctx context.Context, userID, name, emoji string) (bool, error) {
	key := element.ID(name)
	if key == "" {
		return false, nil
	}
	if userID == "" {
		return false, nil
	}
	d := Discovery{Key: key, Element: strings.TrimSpace(name), Emoji: emoji, UserID: userID}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&d)
	if res.Error != nil {
		return false, fmt.Errorf("store: record discovery: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// SaveDailyResult upserts r on (user, date).
func (s *Store) SaveDailyResult(ctx context.Context, r DailyResult) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "puzzle_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"puzzle_number", "elapsed_time", "moves_count", "par_moves",
			"new_discoveries", "first_discoveries", "updated_at",
		}),
	}).Create(&r).Error
	if err != nil {
		return fmt.Errorf("store: save daily result: %w", err)
	}
	return nil
}

// Stats derives rolling totals for userID. today anchors the current
// streak: it survives only if the last completion was today or yesterday.
func (s *Store) Stats(ctx context.Context, userID, today string) (progress.Stats, error) {
	var rows []DailyResult
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("puzzle_date ASC").
		Find(&rows).Error; err != nil {
		return progress.Stats{}, fmt.Errorf("store: stats: %w", err)
	}
	return computeStats(rows, today), nil
}

func computeStats(rows []DailyResult, today string) progress.Stats {
	var st progress.Stats
	if len(rows) == 0 {
		return st
	}
	st.GamesPlayed = len(rows)
	st.Wins = len(rows)

	total := 0
	run := 0
	prev := ""
	for _, r := range rows {
		total += r.ElapsedTime
		if st.BestTime == 0 || r.ElapsedTime < st.BestTime {
			st.BestTime = r.ElapsedTime
		}
		if prev != "" && dayGap(prev, r.PuzzleDate) == 1 {
			run++
		} else {
			run = 1
		}
		if run > st.MaxStreak {
			st.MaxStreak = run
		}
		prev = r.PuzzleDate
	}
	st.AverageTime = int(math.Round(float64(total) / float64(len(rows))))
	if gap := dayGap(prev, today); gap == 0 || gap == 1 {
		st.CurrentStreak = run
	}
	return st
}

// dayGap returns the number of calendar days from a to b, or -1.
func dayGap(a, b string) int {
	ta, errA := daily.ParseDate(a)
	tb, errB := daily.ParseDate(b)
	if errA != nil || errB != nil {
		return -1
	}
	return int(math.Round(tb.Sub(ta).Hours() / 24))
}

// SubmitScore inserts a leaderboard row unless the user already has one
// for the game and date. It reports whether the row was inserted.
func (s *Store) SubmitScore(ctx context.Context, gameType, date, userID string, score int, metadata map[string]any) (bool, error) {
	meta := "{}"
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return false, fmt.Errorf("store: encode metadata: %w", err)
		}
		meta = string(b)
	}
	row := Score{GameType: gameType, PuzzleDate: date, UserID: userID, Score: score, Metadata: meta}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, fmt.Errorf("store: submit score: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// BoardRow is one leaderboard line.
type BoardRow struct {
	Rank     int            `json:"rank"`
	UserID   string         `json:"userId"`
	Score    int            `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Leaderboard returns the best scores for a game and date, lowest first.
func (s *Store) Leaderboard(ctx context.Context, gameType, date string, limit int) ([]BoardRow, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []Score
	if err := s.db.WithContext(ctx).
		Where("game_type = ? AND puzzle_date = ?", gameType, date).
		Order("score ASC, created_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: leaderboard: %w", err)
	}
	out := make([]BoardRow, 0, len(rows))
	for i, r := range rows {
		br := BoardRow{Rank: i + 1, UserID: r.UserID, Score: r.Score}
		if r.Metadata != "" && r.Metadata != "{}" {
			_ = json.Unmarshal([]byte(r.Metadata), &br.Metadata)
		}
		out = append(out, br)
	}
	return out, nil
}
