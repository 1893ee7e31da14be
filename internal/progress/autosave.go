// internal/progress/autosave.go
//
// Autosave gate for creative slots.
//
// A save is due when newDiscoveries grew by Every since the last save, or
// firstDiscoveries grew at all. Nothing is due until the slot's initial
// load has completed, and at most one save runs at a time.
package progress

import (
	"context"
	"sync"
)

// DefaultAutosaveEvery is the new-discovery interval between autosaves.
const DefaultAutosaveEvery = 5

// Gate tracks autosave eligibility. It is safe for concurrent use.
//
// Inhibit and Ready start a new epoch. A save claims a Ticket from the
// epoch it began in; when it finishes after the epoch moved on (slot
// switch, clear, import) its counters no longer move the baseline.
type Gate struct {
	every int

	mu           sync.Mutex
	loadComplete bool
	disabled     bool
	inFlight     bool
	idle         chan struct{}
	epoch        uint64
	baseNew      int
	baseFirst    int
}

// Ticket identifies one claimed save.
type Ticket uint64

// NewGate returns a gate that starts inhibited.
func NewGate(every int) *Gate {
	if every <= 0 {
		every = DefaultAutosaveEvery
	}
	return &Gate{every: every}
}

// Inhibit blocks autosave until Ready or Resume is called.
func (g *Gate) Inhibit() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loadComplete = false
	g.epoch++
}

// Ready marks the initial load complete and records the loaded counters as
// the baseline.
func (g *Gate) Ready(newDiscoveries, firstDiscoveries int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loadComplete = true
	g.epoch++
	g.baseNew = newDiscoveries
	g.baseFirst = firstDiscoveries
}

// Resume re-enables autosave after Inhibit while keeping the baseline.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loadComplete = true
}

// SetDisabled turns autosave off entirely (co-op).
func (g *Gate) SetDisabled(disabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disabled = disabled
}

// LoadComplete reports whether the initial load finished.
func (g *Gate) LoadComplete() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loadComplete
}

// Due reports whether the counters warrant an autosave.
func (g *Gate) Due(newDiscoveries, firstDiscoveries int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.due(newDiscoveries, firstDiscoveries)
}

func (g *Gate) due(newDiscoveries, firstDiscoveries int) bool {
	if g.disabled || !g.loadComplete || g.inFlight {
		return false
	}
	return newDiscoveries-g.baseNew >= g.every || firstDiscoveries > g.baseFirst
}

// TryBegin claims the single in-flight save slot when a save is due.
func (g *Gate) TryBegin(newDiscoveries, firstDiscoveries int) (Ticket, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.due(newDiscoveries, firstDiscoveries) {
		return 0, false
	}
	return g.beginLocked(), true
}

// TryBeginManual claims the in-flight slot for an explicit save, which
// ignores the discovery thresholds but still respects the load gate.
func (g *Gate) TryBeginManual() (Ticket, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.disabled || !g.loadComplete || g.inFlight {
		return 0, false
	}
	return g.beginLocked(), true
}

func (g *Gate) beginLocked() Ticket {
	g.inFlight = true
	g.idle = make(chan struct{})
	return Ticket(g.epoch)
}

// Done releases the in-flight slot. On success the saved counters become
// the new baseline, unless the epoch changed since t was issued.
func (g *Gate) Done(t Ticket, ok bool, newDiscoveries, firstDiscoveries int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
	if g.idle != nil {
		close(g.idle)
		g.idle = nil
	}
	if ok && uint64(t) == g.epoch {
		g.baseNew = newDiscoveries
		g.baseFirst = firstDiscoveries
	}
}

// InFlight reports whether a save is running.
func (g *Gate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Wait blocks until no save is in flight or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		ch := g.idle
		g.mu.Unlock()
		if ch == nil {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
