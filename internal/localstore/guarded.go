// internal/localstore/guarded.go
//
// Quota handling for device-local writes.
// On ErrQuotaExceeded the guard runs an emergency cleanup (drop daily
// progress for every date except today) and retries the write once. A
// second failure is logged and returned; callers treat local writes as
// best effort.
package localstore

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
)

// Guarded wraps a Store with emergency cleanup on quota errors.
type Guarded struct {
	Store
	Today func() string
}

// NewGuarded wraps s; today returns the current puzzle date key.
func NewGuarded(s Store, today func() string) *Guarded {
	return &Guarded{Store: s, Today: today}
}

// Set writes value, cleaning up and retrying once on quota errors.
func (g *Guarded) Set(ctx context.Context, key string, value []byte) error {
	err := g.Store.Set(ctx, key, value)
	if !errors.Is(err, ErrQuotaExceeded) {
		return err
	}
	removed, cerr := g.Cleanup(ctx)
	if cerr != nil {
		log.Warn().Err(cerr).Msg("localstore: emergency cleanup failed")
	}
	log.Info().Int("removed", removed).Str("key", key).Msg("localstore: quota exceeded, retrying after cleanup")
	if err := g.Store.Set(ctx, key, value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("localstore: write failed after cleanup")
		return err
	}
	return nil
}

// Cleanup deletes stale daily progress and returns how many keys were removed.
func (g *Guarded) Cleanup(ctx context.Context) (int, error) {
	keys, err := g.Store.Keys(ctx, PrefixProgress)
	if err != nil {
		return 0, err
	}
	today := ""
	if g.Today != nil {
		today = g.Today()
	}
	removed := 0
	for _, k := range keys {
		if strings.TrimPrefix(k, PrefixProgress) == today {
			continue
		}
		if err := g.Store.Delete(ctx, k); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
