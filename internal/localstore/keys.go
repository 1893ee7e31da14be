// internal/localstore/keys.go
//
// Storage key layout.
//
//   PUZZLE_PROGRESS:<date>      daily progress snapshot
//   PUZZLE_ATTEMPTED:<date>     first-attempt marker
//   CREATIVE_ACTIVE_SLOT        last active creative slot
//   FAVORITE_ELEMENTS_slot_<n>  favorites fallback per slot (co-op uses "coop")
//   ELEMENT_USAGE               element -> usage count
//   ANON_STATS:<game>           anonymous aggregate stats (cleared on sign-out)
//   USER:<id>:STATS:<game>      per-account stats mirror (kept on sign-out)
package localstore

import (
	"context"
	"fmt"
	"strings"
)

const (
	PrefixProgress  = "PUZZLE_PROGRESS:"
	PrefixAttempted = "PUZZLE_ATTEMPTED:"
	PrefixAnonymous = "ANON_"

	KeyActiveSlot   = "CREATIVE_ACTIVE_SLOT"
	KeyElementUsage = "ELEMENT_USAGE"
)

// GameType is the stats namespace for this game.
const GameType = "daily_alchemy"

// ProgressKey returns the daily progress key for date.
func ProgressKey(date string) string { return PrefixProgress + date }

// AttemptedKey returns the first-attempt marker key for date.
func AttemptedKey(date string) string { return PrefixAttempted + date }

// FavoritesKey returns the favorites fallback key for a slot label
// ("1".."3" or "coop").
func FavoritesKey(slot string) string { return "FAVORITE_ELEMENTS_slot_" + slot }

// StatsKey returns the stats mirror key; empty userID means anonymous.
func StatsKey(userID string) string {
	if strings.TrimSpace(userID) == "" {
		return PrefixAnonymous + "STATS:" + GameType
	}
	return fmt.Sprintf("USER:%s:STATS:%s", userID, GameType)
}

// ClearAnonymous deletes every anonymous-scoped key.
func ClearAnonymous(ctx context.Context, s Store) error {
	keys, err := s.Keys(ctx, PrefixAnonymous)
	if err != nil {
		return fmt.Errorf("list anonymous keys: %w", err)
	}
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}
