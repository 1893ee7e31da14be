// internal/clock/clock.go
//
// Time sources for the engine.
//   - Real: wall clock with monotonic readings.
//   - Mock: controllable time for tests (SetTime / Advance).
//
// Everything that derives elapsed time (timer, error auto-dismiss, save
// timestamps) reads through a Provider so tests never sleep.
package clock

import (
	"sync"
	"time"
)

// Provider is the single time dependency of the engine.
type Provider interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

// New returns the system clock.
func New() Real { return Real{} }

// Now returns the current time with its monotonic reading.
func (Real) Now() time.Time { return time.Now() }

// Mock is a controllable time source.
type Mock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMock creates a mock clock frozen at start.
func NewMock(start time.Time) *Mock {
	return &Mock{now: start}
}

// Now returns the mocked time.
func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// SetTime jumps to t.
func (m *Mock) SetTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
