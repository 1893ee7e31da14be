// internal/timer/timer.go
//
// Single-session stopwatch with an optional countdown limit.
//
// Derivations (all in whole seconds):
//   elapsed   = floor((now − start) / 1s), frozen while paused
//   remaining = max(0, limit − elapsed)
//
// Resume rebases start so elapsed continues from the paused value without a
// jump. An inert timer (creative / co-op) never counts and never pauses.
package timer

import (
	"time"

	"github.com/robalobadob/alchemy/internal/clock"
)

// DefaultLimitSeconds is the daily time limit.
const DefaultLimitSeconds = 600

// Timer is not safe for concurrent use; the controller serializes access.
type Timer struct {
	clock    clock.Provider
	limit    int
	inert    bool
	started  bool
	start    time.Time
	paused   bool
	pausedAt int
}

// New returns a countdown timer with limitSeconds.
func New(c clock.Provider, limitSeconds int) *Timer {
	if limitSeconds <= 0 {
		limitSeconds = DefaultLimitSeconds
	}
	return &Timer{clock: c, limit: limitSeconds}
}

// NewInert returns a timer that never runs.
func NewInert(c clock.Provider) *Timer {
	return &Timer{clock: c, inert: true}
}

// Inert reports whether the timer is inert.
func (t *Timer) Inert() bool { return t.inert }

// Limit returns the limit in seconds (0 when inert).
func (t *Timer) Limit() int { return t.limit }

// Start records now as the start time and zeroes elapsed.
func (t *Timer) Start() {
	if t.inert {
		return
	}
	t.started = true
	t.start = t.clock.Now()
	t.paused = false
	t.pausedAt = 0
}

// RestoreElapsed restarts the timer as if it had been running for seconds.
func (t *Timer) RestoreElapsed(seconds int) {
	if t.inert {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	t.started = true
	t.start = t.clock.Now().Add(-time.Duration(seconds) * time.Second)
	t.paused = false
	t.pausedAt = 0
}

// Stop freezes the timer at its current elapsed value permanently.
func (t *Timer) Stop() {
	if t.inert || !t.started || t.paused {
		return
	}
	t.pausedAt = t.Elapsed()
	t.paused = true
}

// Started reports whether Start or RestoreElapsed has run.
func (t *Timer) Started() bool { return t.started }

// Elapsed returns whole seconds since start, frozen while paused.
func (t *Timer) Elapsed() int {
	if t.inert || !t.started {
		return 0
	}
	if t.paused {
		return t.pausedAt
	}
	d := t.clock.Now().Sub(t.start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// Remaining returns max(0, limit − elapsed). Inert timers return 0.
func (t *Timer) Remaining() int {
	if t.inert {
		return 0
	}
	r := t.limit - t.Elapsed()
	if r < 0 {
		return 0
	}
	return r
}

// Expired reports remaining == 0 for a started countdown.
func (t *Timer) Expired() bool {
	return !t.inert && t.started && t.Remaining() == 0
}

// Pause freezes elapsed. It reports whether the timer transitioned.
func (t *Timer) Pause() bool {
	if t.inert || !t.started || t.paused {
		return false
	}
	t.pausedAt = t.Elapsed()
	t.paused = true
	return true
}

// Resume rebases start = now − pausedAt. It reports whether the timer transitioned.
func (t *Timer) Resume() bool {
	if t.inert || !t.paused {
		return false
	}
	t.start = t.clock.Now().Add(-time.Duration(t.pausedAt) * time.Second)
	t.paused = false
	t.pausedAt = 0
	return true
}

// Paused reports whether the timer is paused.
func (t *Timer) Paused() bool { return t.paused }
