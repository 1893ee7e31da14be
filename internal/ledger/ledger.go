// internal/ledger/ledger.go
//
// Running totals for one game session.
// Tracks moves (first production of each combination key only), new and
// first discoveries, the full combination path and the three most recent
// new elements. The controller is the only writer.
package ledger

import (
	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

// RecentCapacity bounds Ledger.Recent.
const RecentCapacity = 3

// Entry is one row of the combination path.
type Entry struct {
	Step        int             `json:"step"`
	ElementA    string          `json:"elementA"`
	ElementB    string          `json:"elementB"`
	Result      string          `json:"result"`
	Operator    puzzle.Operator `json:"operator"`
	IsDuplicate bool            `json:"isDuplicate,omitempty"`
}

// Combination is a resolved oracle result ready to be recorded.
type Combination struct {
	A, B    string
	Op      puzzle.Operator
	Result  element.Element
	IsNew   bool
	IsFirst bool
}

// Ledger is the mutable progress record.
type Ledger struct {
	Moves                  int
	NewDiscoveries         int
	FirstDiscoveries       int
	FirstDiscoveryElements []string
	Path                   []Entry
	Recent                 []element.Element
	HintsUsed              int

	made map[puzzle.Key]struct{}
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{made: make(map[puzzle.Key]struct{})}
}

// Reset zeroes every counter.
func (l *Ledger) Reset() {
	*l = Ledger{made: make(map[puzzle.Key]struct{})}
}

// Made reports whether the combination key was already produced.
func (l *Ledger) Made(k puzzle.Key) bool {
	_, ok := l.made[k]
	return ok
}

// Record applies a combination and returns the appended path entry.
func (l *Ledger) Record(c Combination) Entry {
	op := c.Op
	if op == "" {
		op = puzzle.OpCombine
	}
	k := puzzle.KeyOf(c.A, c.B, op)
	entry := Entry{
		Step:     len(l.Path) + 1,
		ElementA: c.A,
		ElementB: c.B,
		Result:   c.Result.Name,
		Operator: op,
	}
	if l.Made(k) {
		entry.IsDuplicate = true
	} else {
		l.made[k] = struct{}{}
		l.Moves++
	}
	l.Path = append(l.Path, entry)

	if c.IsNew {
		l.NewDiscoveries++
		l.pushRecent(c.Result)
	}
	if c.IsFirst && !l.hasFirst(c.Result.Name) {
		l.FirstDiscoveries++
		l.FirstDiscoveryElements = append(l.FirstDiscoveryElements, c.Result.Name)
	}
	return entry
}

// AddPartner records an element discovered by a co-op partner. Partners
// never earn the local player first-discovery credit.
func (l *Ledger) AddPartner(e element.Element) {
	l.NewDiscoveries++
	l.pushRecent(e)
}

// Restore rebuilds the ledger from a persisted path and counters.
// The made-set is derived from the non-duplicate entries.
func (l *Ledger) Restore(path []Entry, moves, newDiscoveries, firstDiscoveries, hints int, firsts []string) {
	l.Reset()
	l.Path = append(l.Path, path...)
	for _, e := range path {
		if !e.IsDuplicate {
			l.made[puzzle.KeyOf(e.ElementA, e.ElementB, e.Operator)] = struct{}{}
		}
	}
	l.Moves = moves
	l.NewDiscoveries = newDiscoveries
	l.FirstDiscoveries = firstDiscoveries
	l.HintsUsed = hints
	l.FirstDiscoveryElements = append(l.FirstDiscoveryElements, firsts...)
}

func (l *Ledger) pushRecent(e element.Element) {
	l.Recent = append([]element.Element{e}, l.Recent...)
	if len(l.Recent) > RecentCapacity {
		l.Recent = l.Recent[:RecentCapacity]
	}
}

func (l *Ledger) hasFirst(name string) bool {
	for _, n := range l.FirstDiscoveryElements {
		if element.Equal(n, name) {
			return true
		}
	}
	return false
}
