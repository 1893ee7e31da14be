// internal/progress/daily.go
//
// Per-date daily progress on device-local storage.
// Responsibilities:
//   - DailyProgress record (bank, path, counters, elapsed, completion).
//   - Attempted marker per date (leaderboard eligibility).
//   - DailySaver: debounced writes with an explicit Flush for pause.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/ledger"
	"github.com/robalobadob/alchemy/internal/localstore"
)

// DefaultDebounce is the quiet period before a scheduled daily save lands.
const DefaultDebounce = 5 * time.Second

// DailyProgress is the persisted state of one day's puzzle.
type DailyProgress struct {
	Date                   string            `json:"date"`
	ElementBank            []string          `json:"elementBank"`
	ElementEmojis          map[string]string `json:"elementEmojis"`
	CombinationPath        []ledger.Entry    `json:"combinationPath"`
	MovesCount             int               `json:"movesCount"`
	ElapsedTime            int               `json:"elapsedTime"`
	NewDiscoveries         int               `json:"newDiscoveries"`
	FirstDiscoveries       int               `json:"firstDiscoveries"`
	FirstDiscoveryElements []string          `json:"firstDiscoveryElements,omitempty"`
	HintsUsed              int               `json:"hintsUsed"`
	Completed              bool              `json:"completed"`
	SavedAt                int64             `json:"savedAt"`
}

// Elements rebuilds the bank in insertion order with emojis attached.
func (p DailyProgress) Elements() []element.Element {
	out := make([]element.Element, 0, len(p.ElementBank))
	for _, n := range p.ElementBank {
		out = append(out, element.Element{
			Name:      n,
			Emoji:     p.ElementEmojis[n],
			IsStarter: element.IsStarterName(n),
		})
	}
	return out
}

// Local is the typed view over device-local storage.
type Local struct {
	kv localstore.Store
}

// NewLocal wraps kv.
func NewLocal(kv localstore.Store) *Local { return &Local{kv: kv} }

// Store exposes the underlying key/value store.
func (l *Local) Store() localstore.Store { return l.kv }

// LoadDaily returns the saved progress for date. ok is false when nothing
// was saved or the record is unreadable.
func (l *Local) LoadDaily(ctx context.Context, date string) (DailyProgress, bool, error) {
	var p DailyProgress
	ok, err := l.getJSON(ctx, localstore.ProgressKey(date), &p)
	if err != nil || !ok {
		return DailyProgress{}, false, err
	}
	if p.ElementBank == nil {
		log.Warn().Str("date", date).Msg("progress: discarding record without element bank")
		return DailyProgress{}, false, nil
	}
	return p, true, nil
}

// SaveDaily writes progress for p.Date.
func (l *Local) SaveDaily(ctx context.Context, p DailyProgress) error {
	if p.Date == "" {
		return fmt.Errorf("save daily: missing date")
	}
	return l.setJSON(ctx, localstore.ProgressKey(p.Date), p)
}

// DeleteDaily removes saved progress for date.
func (l *Local) DeleteDaily(ctx context.Context, date string) error {
	return l.kv.Delete(ctx, localstore.ProgressKey(date))
}

// Attempted reports whether date was already attempted.
func (l *Local) Attempted(ctx context.Context, date string) (bool, error) {
	_, err := l.kv.Get(ctx, localstore.AttemptedKey(date))
	if errors.Is(err, localstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkAttempted records the first attempt for date.
func (l *Local) MarkAttempted(ctx context.Context, date string) error {
	return l.kv.Set(ctx, localstore.AttemptedKey(date), []byte("true"))
}

func (l *Local) getJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := l.kv.Get(ctx, key)
	if errors.Is(err, localstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("progress: unreadable record")
		return false, nil
	}
	return true, nil
}

func (l *Local) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return l.kv.Set(ctx, key, raw)
}

// DailySaver debounces daily progress writes.
//
// Schedule keeps only the latest record and writes it once the debounce
// period passes without another Schedule. Flush writes the pending record
// immediately. A zero debounce writes synchronously.
//
// Every record gets a sequence number when it is handed over. Writes are
// serialized and a record older than the last one written is dropped, so a
// debounced write that loses the race to SaveNow cannot replace it.
type DailySaver struct {
	local    *Local
	debounce time.Duration

	mu         sync.Mutex
	pending    *DailyProgress
	pendingSeq uint64
	seq        uint64
	timer      *time.Timer

	wmu     sync.Mutex
	written uint64
}

// NewDailySaver returns a saver writing through local.
func NewDailySaver(local *Local, debounce time.Duration) *DailySaver {
	return &DailySaver{local: local, debounce: debounce}
}

// Schedule queues p for a debounced write.
func (s *DailySaver) Schedule(p DailyProgress) {
	s.mu.Lock()
	s.seq++
	n := s.seq
	if s.debounce <= 0 {
		s.mu.Unlock()
		_ = s.write(context.Background(), p, n)
		return
	}
	defer s.mu.Unlock()
	s.pending, s.pendingSeq = &p, n
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() { _ = s.Flush(context.Background()) })
}

// Pending reports whether a write is queued.
func (s *DailySaver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Flush writes the pending record now, if any.
func (s *DailySaver) Flush(ctx context.Context) error {
	s.mu.Lock()
	p, n := s.pending, s.pendingSeq
	s.pending = nil
	s.stopLocked()
	s.mu.Unlock()
	if p == nil {
		return nil
	}
	return s.write(ctx, *p, n)
}

// SaveNow replaces any pending record with p and writes it immediately.
func (s *DailySaver) SaveNow(ctx context.Context, p DailyProgress) error {
	s.mu.Lock()
	s.pending = nil
	s.stopLocked()
	s.seq++
	n := s.seq
	s.mu.Unlock()
	return s.write(ctx, p, n)
}

// Cancel drops any pending write.
func (s *DailySaver) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.stopLocked()
}

func (s *DailySaver) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *DailySaver) write(ctx context.Context, p DailyProgress, seq uint64) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if seq <= s.written {
		log.Debug().Str("date", p.Date).Uint64("seq", seq).Msg("progress: dropping superseded daily save")
		return nil
	}
	if err := s.local.SaveDaily(ctx, p); err != nil {
		log.Warn().Err(err).Str("date", p.Date).Msg("progress: daily save failed")
		return err
	}
	s.written = seq
	return nil
}
