// internal/game/types.go
//
// Core type definitions for the alchemy game controller.
// Defines:
//   - State / Mode: the controller state machine and play modes.
//   - Signal:       fire-and-forget notifications for the presentation layer.
//   - Backend:      everything the controller needs from the network.
//   - Partner:      outbound side of a co-op link.
//   - Snapshot:     read-only view of the controller for rendering.
package game

import (
	"context"

	"github.com/robalobadob/alchemy/internal/api"
	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/ledger"
	"github.com/robalobadob/alchemy/internal/progress"
	"github.com/robalobadob/alchemy/internal/puzzle"
	"github.com/robalobadob/alchemy/internal/selection"
)

// State is the controller state.
type State string

const (
	StateWelcome  State = "WELCOME"
	StatePlaying  State = "PLAYING"
	StateComplete State = "COMPLETE"
	StateGameOver State = "GAME_OVER"
)

// Mode is the play mode.
type Mode string

const (
	ModeDaily    Mode = "DAILY"
	ModeCreative Mode = "CREATIVE"
	ModeCoop     Mode = "COOP"
)

// Signal is a presentation-layer notification. No engine invariant depends
// on which signal fired.
type Signal string

const (
	SignalButton         Signal = "button"
	SignalFirstDiscovery Signal = "first_discovery"
	SignalNewDiscovery   Signal = "new_discovery"
	SignalExisting       Signal = "existing"
	SignalError          Signal = "error"
	SignalComplete       Signal = "complete"
	SignalGameOver       Signal = "game_over"
	SignalHint           Signal = "hint"
	SignalPartnerElement Signal = "partner_element"
	SignalPartnerLeft    Signal = "partner_left"
)

// GameType is the stats and leaderboard namespace.
const GameType = "daily_alchemy"

// Oracle resolves combinations.
type Oracle interface {
	Combine(ctx context.Context, a, b string, op puzzle.Operator, userID string) (api.CombineResult, error)
}

// Sessions issues identities.
type Sessions interface {
	EnsureSession(ctx context.Context) (string, error)
	ClearSession()
}

// Puzzles serves daily puzzles and records results.
type Puzzles interface {
	FetchPuzzle(ctx context.Context, date string) (*puzzle.Puzzle, error)
	Complete(ctx context.Context, rec api.Completion) (progress.Stats, error)
	SubmitLeaderboard(ctx context.Context, e api.LeaderboardEntry) error
}

// Saves persists creative slots.
type Saves interface {
	LoadSlot(ctx context.Context, slot int) (progress.CreativeSave, bool, error)
	SaveSlot(ctx context.Context, s progress.CreativeSave) error
	RenameSlot(ctx context.Context, slot int, name string) error
	ClearSlot(ctx context.Context, slot int) error
	ListSlots(ctx context.Context) ([]progress.SlotSummary, error)
}

// Backend is the full remote surface; *api.Client implements it.
type Backend interface {
	Oracle
	Sessions
	Puzzles
	Saves
}

// Partner is the outbound half of a co-op link.
type Partner interface {
	SendElement(ctx context.Context, e element.Element) error
	SendCompletion(ctx context.Context, target string) error
}

// Identity is the observed user. A zero UserID means no session.
type Identity struct {
	UserID    string
	Anonymous bool
}

// Outcome describes one finished combination.
type Outcome struct {
	Element  element.Element
	Entry    ledger.Entry
	IsNew    bool
	IsFirst  bool
	Complete bool
}

// LoadResult describes a loaded daily puzzle.
type LoadResult struct {
	Puzzle    *puzzle.Puzzle
	Archive   bool
	HasSaved  bool
	Completed bool
}

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	State    State
	Mode     Mode
	FreePlay bool

	Puzzle        *puzzle.Puzzle
	Archive       bool
	HasSaved      bool
	Elements      []element.Element
	Favorites     []string
	Recent        []element.Element
	First         *element.Element
	Second        *element.Element
	ActiveSlot    selection.Slot
	Operator      puzzle.Operator
	Busy          bool
	LastResult    *element.Element
	HintElement   string
	HintMessage   string
	Error         string
	ParComparison string

	Moves                  int
	NewDiscoveries         int
	FirstDiscoveries       int
	FirstDiscoveryElements []string
	HintsUsed              int
	Path                   []ledger.Entry

	Elapsed   int
	Remaining int
	Paused    bool

	CreativeSlot  int
	SlotName      string
	SlotSwitching bool
	Saving        bool
	Stats         *progress.Stats
}
