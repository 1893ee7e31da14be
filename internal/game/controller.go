// internal/game/controller.go
//
// Game controller: the top-level state machine.
// Responsibilities:
//   - WELCOME → PLAYING → (COMPLETE | GAME_OVER) transitions for daily,
//     creative and co-op play.
//   - Owning the catalog, selector, ledger and timer; nothing else mutates them.
//   - Identity tracking: a user change wipes creative state.
//
// Concurrency: every method may be called from any goroutine. State is
// guarded by mu; network calls and the animation delay run with mu released,
// and a generation counter discards results that arrive after a reset.
package game

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/alchemy/internal/clock"
	"github.com/robalobadob/alchemy/internal/daily"
	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/errs"
	"github.com/robalobadob/alchemy/internal/ledger"
	"github.com/robalobadob/alchemy/internal/progress"
	"github.com/robalobadob/alchemy/internal/puzzle"
	"github.com/robalobadob/alchemy/internal/selection"
	"github.com/robalobadob/alchemy/internal/timer"
)

// Config holds the tunable engine constants.
type Config struct {
	TimeLimit      int // seconds, daily only
	AnimationDelay time.Duration
	ErrorDismiss   time.Duration
	SaveDebounce   time.Duration
	AutosaveEvery  int
	MaxFavorites   int
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		TimeLimit:      timer.DefaultLimitSeconds,
		AnimationDelay: 600 * time.Millisecond,
		ErrorDismiss:   3 * time.Second,
		SaveDebounce:   progress.DefaultDebounce,
		AutosaveEvery:  progress.DefaultAutosaveEvery,
		MaxFavorites:   element.DefaultMaxFavorites,
	}
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock sets the time source.
func WithClock(c clock.Provider) Option { return func(ctl *Controller) { ctl.clock = c } }

// WithSleep replaces the animation delay implementation.
func WithSleep(f func(ctx context.Context, d time.Duration) error) Option {
	return func(ctl *Controller) { ctl.sleep = f }
}

// WithSignals installs the presentation-layer signal sink.
func WithSignals(f func(Signal)) Option { return func(ctl *Controller) { ctl.signals = f } }

// WithRand seeds hint text selection.
func WithRand(r *rand.Rand) Option { return func(ctl *Controller) { ctl.rng = r } }

// Controller drives one player's game.
type Controller struct {
	cfg     Config
	backend Backend
	local   *progress.Local
	saver   *progress.DailySaver
	gate    *progress.Gate
	clock   clock.Provider
	sleep   func(ctx context.Context, d time.Duration) error
	signals func(Signal)
	rng     *rand.Rand

	mu  sync.Mutex
	gen uint64

	state    State
	mode     Mode
	freePlay bool
	identity Identity

	catalog *element.Catalog
	sel     *selection.Selector
	ledger  *ledger.Ledger
	timer   *timer.Timer

	puzzle    *puzzle.Puzzle
	archive   bool
	saved     *progress.DailyProgress
	completed bool

	combining  bool
	animating  bool
	lastResult *element.Element

	hintElement string
	hintMessage string

	errMsg   string
	errUntil time.Time

	slot      int
	slotName  string
	switching bool
	slots     map[int]progress.SlotSummary

	partner Partner
	stats   *progress.Stats
}

// New returns a controller in WELCOME with a starter catalog.
func New(cfg Config, backend Backend, local *progress.Local, opts ...Option) *Controller {
	def := DefaultConfig()
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = def.TimeLimit
	}
	if cfg.ErrorDismiss <= 0 {
		cfg.ErrorDismiss = def.ErrorDismiss
	}
	if cfg.AutosaveEvery <= 0 {
		cfg.AutosaveEvery = def.AutosaveEvery
	}
	if cfg.MaxFavorites <= 0 {
		cfg.MaxFavorites = def.MaxFavorites
	}
	c := &Controller{
		cfg:     cfg,
		backend: backend,
		local:   local,
		saver:   progress.NewDailySaver(local, cfg.SaveDebounce),
		gate:    progress.NewGate(cfg.AutosaveEvery),
		clock:   clock.New(),
		sleep:   sleepCtx,
		state:   StateWelcome,
		mode:    ModeDaily,
		catalog: element.NewCatalog(cfg.MaxFavorites),
		sel:     selection.New(),
		ledger:  ledger.New(),
		slot:    1,
		slots:   make(map[int]progress.SlotSummary),
	}
	for _, o := range opts {
		o(c)
	}
	c.timer = timer.NewInert(c.clock)
	if usage, err := local.LoadUsage(context.Background()); err != nil {
		log.Warn().Err(err).Msg("game: load element usage")
	} else {
		c.catalog.SetUsage(usage)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Controller) emit(s Signal) {
	if c.signals != nil {
		c.signals(s)
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Today returns today's puzzle date key.
func (c *Controller) Today() string { return daily.DateKey(c.clock.Now()) }

// resetSessionLocked clears the per-game state shared by every mode.
func (c *Controller) resetSessionLocked() {
	c.gen++
	c.catalog.Reset()
	c.sel.Clear()
	c.ledger.Reset()
	c.combining, c.animating = false, false
	c.lastResult = nil
	c.hintElement, c.hintMessage = "", ""
	c.errMsg, c.errUntil = "", time.Time{}
}

// showErrorLocked surfaces an inline error until the dismiss window passes.
func (c *Controller) showErrorLocked(msg string) {
	c.errMsg = msg
	c.errUntil = c.clock.Now().Add(c.cfg.ErrorDismiss)
}

func (c *Controller) visibleErrorLocked() string {
	if c.errMsg == "" || !c.clock.Now().Before(c.errUntil) {
		return ""
	}
	return c.errMsg
}

// ObserveIdentity reports the current user. Any change of user id wipes
// creative state and the catalog and returns to WELCOME, except the first
// anonymous session created on a device without one.
func (c *Controller) ObserveIdentity(ctx context.Context, id Identity) {
	c.mu.Lock()
	prev := c.identity
	c.identity = id
	if prev.UserID == id.UserID || (prev.UserID == "" && id.Anonymous) {
		c.mu.Unlock()
		return
	}
	log.Info().Str("from", prev.UserID).Str("to", id.UserID).Msg("game: identity changed, resetting")
	c.resetForIdentityLocked()
	c.mu.Unlock()
	if err := c.saver.Flush(ctx); err != nil {
		log.Warn().Err(err).Msg("game: flush daily progress on identity change")
	}
}

func (c *Controller) resetForIdentityLocked() {
	c.resetSessionLocked()
	c.catalog.ClearFavorites()
	c.state = StateWelcome
	c.mode = ModeDaily
	c.freePlay = false
	c.timer = timer.NewInert(c.clock)
	c.sel.Lock(false)
	c.gate.Inhibit()
	c.gate.SetDisabled(false)
	c.slot, c.slotName = 1, ""
	c.slots = make(map[int]progress.SlotSummary)
	c.partner = nil
	c.stats = nil
}

// SignOut clears anonymous-scoped local data and forgets the identity.
func (c *Controller) SignOut(ctx context.Context) error {
	c.backend.ClearSession()
	c.ObserveIdentity(ctx, Identity{})
	if err := c.local.ClearAnonymous(ctx); err != nil {
		log.Warn().Err(err).Msg("game: clear anonymous data")
		return err
	}
	return nil
}

// ensureIdentity returns a user id, creating an anonymous session when
// none exists. Failure yields "" and the caller proceeds anonymously.
func (c *Controller) ensureIdentity(ctx context.Context) string {
	c.mu.Lock()
	id := c.identity.UserID
	gen := c.gen
	c.mu.Unlock()
	if id != "" {
		return id
	}
	got, err := c.backend.EnsureSession(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("game: no session, continuing without user id")
		return ""
	}
	c.mu.Lock()
	if c.gen == gen && c.identity.UserID == "" {
		c.identity = Identity{UserID: got, Anonymous: true}
	}
	c.mu.Unlock()
	return got
}

// Snapshot returns a view of the controller; the element list follows opts.
func (c *Controller) Snapshot(opts element.ViewOptions) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:                  c.state,
		Mode:                   c.mode,
		FreePlay:               c.freePlay,
		Puzzle:                 c.puzzle,
		Archive:                c.archive,
		HasSaved:               c.saved != nil && !c.saved.Completed,
		Favorites:              c.catalog.Favorites(),
		Recent:                 append([]element.Element(nil), c.ledger.Recent...),
		ActiveSlot:             c.sel.Active(),
		Operator:               c.sel.Operator(),
		Busy:                   c.combining || c.animating,
		HintElement:            c.hintElement,
		HintMessage:            c.hintMessage,
		Error:                  c.visibleErrorLocked(),
		Moves:                  c.ledger.Moves,
		NewDiscoveries:         c.ledger.NewDiscoveries,
		FirstDiscoveries:       c.ledger.FirstDiscoveries,
		FirstDiscoveryElements: append([]string(nil), c.ledger.FirstDiscoveryElements...),
		HintsUsed:              c.ledger.HintsUsed,
		Path:                   append([]ledger.Entry(nil), c.ledger.Path...),
		Elapsed:                c.timer.Elapsed(),
		Remaining:              c.timer.Remaining(),
		Paused:                 c.timer.Paused(),
		CreativeSlot:           c.slot,
		SlotName:               c.slotName,
		SlotSwitching:          c.switching,
		Saving:                 c.gate.InFlight(),
		Stats:                  c.stats,
	}
	for e := range c.catalog.View(opts) {
		s.Elements = append(s.Elements, e)
	}
	if e, ok := c.sel.First(); ok {
		s.First = &e
	}
	if e, ok := c.sel.Second(); ok {
		s.Second = &e
	}
	if c.lastResult != nil {
		r := *c.lastResult
		s.LastResult = &r
	}
	if c.puzzle != nil && c.mode == ModeDaily && c.state != StateWelcome {
		s.ParComparison = puzzle.ParComparison(c.ledger.Moves, c.puzzle.ParMoves)
	}
	return s
}

// Select places e in the active selector slot. e must be in the catalog.
func (c *Controller) Select(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePlaying {
		return errs.New(errs.KindInvalidState, "select: not playing")
	}
	e, ok := c.catalog.Get(name)
	if !ok {
		return errs.New(errs.KindNotFound, "select: unknown element "+name)
	}
	c.sel.Select(e)
	return nil
}

// FocusSlot moves the selector pointer.
func (c *Controller) FocusSlot(slot selection.Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.Focus(slot)
}

// ClearSelections empties both selector slots.
func (c *Controller) ClearSelections() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.Clear()
}

// SelectResult loads the last result into slot A.
func (c *Controller) SelectResult() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastResult == nil {
		return errs.New(errs.KindInvalidState, "select result: no result yet")
	}
	c.sel.SelectResult(*c.lastResult)
	return nil
}

// ToggleOperator flips +/−; daily mode stays on +.
func (c *Controller) ToggleOperator() puzzle.Operator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.ToggleOperator()
}

// ToggleFavorite toggles a favorite. Daily mode has no favorites.
func (c *Controller) ToggleFavorite(ctx context.Context, name string) bool {
	c.mu.Lock()
	if c.mode == ModeDaily || !c.catalog.Contains(name) {
		c.mu.Unlock()
		return false
	}
	on := c.catalog.ToggleFavorite(name)
	label := c.favoritesLabelLocked()
	favs := c.catalog.Favorites()
	c.mu.Unlock()

	if err := c.local.SaveFavorites(ctx, label, favs); err != nil {
		log.Warn().Err(err).Msg("game: save favorites")
	}
	return on
}

func (c *Controller) favoritesLabelLocked() string {
	if c.mode == ModeCoop {
		return progress.CoopSlot
	}
	return strconv.Itoa(c.slot)
}
