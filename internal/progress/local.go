// internal/progress/local.go
//
// Device-local records outside the daily snapshot: element usage counts,
// the active creative slot, the favorites fallback and the stats mirror.
package progress

import (
	"context"
	"errors"
	"strconv"

	"github.com/robalobadob/alchemy/internal/localstore"
)

// Stats are the rolling per-game totals returned by the completion endpoint.
type Stats struct {
	GamesPlayed   int `json:"gamesPlayed"`
	Wins          int `json:"wins"`
	CurrentStreak int `json:"currentStreak"`
	MaxStreak     int `json:"maxStreak"`
	AverageTime   int `json:"averageTime"`
	BestTime      int `json:"bestTime"`
}

// LoadUsage returns the persisted element usage counts.
func (l *Local) LoadUsage(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	if _, err := l.getJSON(ctx, localstore.KeyElementUsage, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// SaveUsage persists element usage counts.
func (l *Local) SaveUsage(ctx context.Context, counts map[string]int) error {
	return l.setJSON(ctx, localstore.KeyElementUsage, counts)
}

// LoadActiveSlot returns the last active creative slot, defaulting to 1.
func (l *Local) LoadActiveSlot(ctx context.Context) int {
	raw, err := l.kv.Get(ctx, localstore.KeyActiveSlot)
	if err != nil {
		return 1
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || !ValidSlot(n) {
		return 1
	}
	return n
}

// SaveActiveSlot records the active creative slot.
func (l *Local) SaveActiveSlot(ctx context.Context, slot int) error {
	return l.kv.Set(ctx, localstore.KeyActiveSlot, []byte(strconv.Itoa(slot)))
}

// LoadFavorites returns the favorites fallback for a slot label.
func (l *Local) LoadFavorites(ctx context.Context, slot string) ([]string, error) {
	var names []string
	if _, err := l.getJSON(ctx, localstore.FavoritesKey(slot), &names); err != nil {
		return nil, err
	}
	return names, nil
}

// SaveFavorites stores the favorites fallback for a slot label.
func (l *Local) SaveFavorites(ctx context.Context, slot string, names []string) error {
	if names == nil {
		names = []string{}
	}
	return l.setJSON(ctx, localstore.FavoritesKey(slot), names)
}

// LoadStats returns the mirrored stats for userID ("" = anonymous).
func (l *Local) LoadStats(ctx context.Context, userID string) (Stats, bool, error) {
	var s Stats
	ok, err := l.getJSON(ctx, localstore.StatsKey(userID), &s)
	return s, ok, err
}

// SaveStats mirrors stats for userID.
func (l *Local) SaveStats(ctx context.Context, userID string, s Stats) error {
	return l.setJSON(ctx, localstore.StatsKey(userID), s)
}

// ClearAnonymous removes anonymous-scoped records.
func (l *Local) ClearAnonymous(ctx context.Context) error {
	err := localstore.ClearAnonymous(ctx, l.kv)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil
	}
	return err
}
