// internal/game/lifecycle.go
//
// Daily puzzle lifecycle.
//   - LoadPuzzle fetches the day's puzzle and any saved progress.
//   - StartGame / ResumeGame / DiscardSaved / ResetGame enter PLAYING.
//   - Tick and Run drive the countdown; Pause / Resume / SetVisible freeze it.
//   - finishLocked handles both terminal transitions; completion side
//     effects (stats, leaderboard) are best effort.
package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/alchemy/internal/api"
	"github.com/robalobadob/alchemy/internal/daily"
	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/errs"
	"github.com/robalobadob/alchemy/internal/progress"
	"github.com/robalobadob/alchemy/internal/timer"
)

// UnavailableMessage is shown when the puzzle service is down.
const UnavailableMessage = "The alchemist is fast asleep. Today's puzzle will be back shortly."

// LoadPuzzle fetches the puzzle for date ("" = today) and its saved
// progress. A completed save renders the completion view without
// re-recording anything; an unfinished save is offered for resume.
func (c *Controller) LoadPuzzle(ctx context.Context, date string) (LoadResult, error) {
	if date == "" {
		date = c.Today()
	}
	c.mu.Lock()
	if c.state == StatePlaying {
		c.mu.Unlock()
		return LoadResult{}, errs.New(errs.KindInvalidState, "load puzzle: game in progress")
	}
	gen := c.gen
	c.mu.Unlock()

	p, err := c.backend.FetchPuzzle(ctx, date)
	if err != nil {
		c.mu.Lock()
		c.state = StateWelcome
		if errs.KindOf(err) == errs.KindPuzzleUnavailable {
			c.showErrorLocked(UnavailableMessage)
		} else {
			c.showErrorLocked("No puzzle for " + date + ".")
		}
		c.mu.Unlock()
		log.Warn().Err(err).Str("date", date).Msg("game: puzzle unavailable")
		return LoadResult{}, err
	}

	saved, ok, err := c.local.LoadDaily(ctx, date)
	if err != nil {
		log.Warn().Err(err).Str("date", date).Msg("game: load daily progress")
		ok = false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return LoadResult{}, errs.New(errs.KindInvalidState, "load puzzle: superseded")
	}
	c.puzzle = p
	c.archive = daily.IsArchive(p.Date, c.clock.Now())
	c.mode = ModeDaily
	c.freePlay = false
	c.saved = nil
	c.completed = false
	c.state = StateWelcome
	res := LoadResult{Puzzle: p, Archive: c.archive}
	if ok {
		c.saved = &saved
		res.HasSaved = !saved.Completed
		res.Completed = saved.Completed
		if saved.Completed {
			c.rehydrateDailyLocked(saved)
			c.completed = true
			c.state = StateComplete
		}
	}
	return res, nil
}

// StartGame begins the loaded daily puzzle from scratch, discarding any
// unfinished save.
func (c *Controller) StartGame(ctx context.Context) error {
	c.mu.Lock()
	if c.puzzle == nil {
		c.mu.Unlock()
		return errs.New(errs.KindInvalidState, "start game: no puzzle loaded")
	}
	if c.state != StateWelcome {
		c.mu.Unlock()
		return errs.New(errs.KindInvalidState, "start game: not at welcome")
	}
	date := c.puzzle.Date
	hadSave := c.saved != nil
	c.beginDailyLocked()
	snap := c.dailyProgressLocked()
	c.mu.Unlock()

	if hadSave {
		if err := c.local.DeleteDaily(ctx, date); err != nil {
			log.Warn().Err(err).Msg("game: delete saved progress")
		}
	}
	c.saver.Schedule(snap)
	return nil
}

// DiscardSaved drops the unfinished save for the loaded puzzle.
func (c *Controller) DiscardSaved(ctx context.Context) error {
	c.mu.Lock()
	if c.puzzle == nil || c.saved == nil || c.saved.Completed {
		c.mu.Unlock()
		return nil
	}
	date := c.puzzle.Date
	c.saved = nil
	c.mu.Unlock()
	return c.local.DeleteDaily(ctx, date)
}

// ResumeGame continues the unfinished save. The timer resumes from the
// saved elapsed time without a jump.
func (c *Controller) ResumeGame(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.puzzle == nil || c.saved == nil || c.saved.Completed {
		return errs.New(errs.KindInvalidState, "resume game: nothing to resume")
	}
	if c.state != StateWelcome {
		return errs.New(errs.KindInvalidState, "resume game: not at welcome")
	}
	saved := *c.saved
	c.beginDailyLocked()
	c.rehydrateDailyLocked(saved)
	c.timer.RestoreElapsed(saved.ElapsedTime)
	c.state = StatePlaying
	return nil
}

// ResetGame wipes the ledger and restarts the current game. Daily replays
// restart the timer; a replay never regains leaderboard eligibility.
func (c *Controller) ResetGame(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateWelcome {
		c.mu.Unlock()
		return errs.New(errs.KindInvalidState, "reset game: not started")
	}
	switch c.mode {
	case ModeDaily:
		if c.puzzle == nil {
			c.mu.Unlock()
			return errs.New(errs.KindInvalidState, "reset game: no puzzle")
		}
		date := c.puzzle.Date
		c.saver.Cancel()
		c.beginDailyLocked()
		snap := c.dailyProgressLocked()
		c.mu.Unlock()
		if err := c.local.DeleteDaily(ctx, date); err != nil {
			log.Warn().Err(err).Msg("game: delete progress on reset")
		}
		c.saver.Schedule(snap)
		return nil
	default:
		c.resetSessionLocked()
		c.state = StatePlaying
		c.completed = false
		c.gate.Ready(0, 0)
		c.mu.Unlock()
		return nil
	}
}

func (c *Controller) beginDailyLocked() {
	c.resetSessionLocked()
	c.mode = ModeDaily
	c.freePlay = false
	c.partner = nil
	c.saved = nil
	c.completed = false
	c.sel.Lock(true)
	c.gate.Inhibit()
	c.timer = timer.New(c.clock, c.cfg.TimeLimit)
	c.timer.Start()
	c.state = StatePlaying
}

func (c *Controller) rehydrateDailyLocked(p progress.DailyProgress) {
	c.catalog.Load(p.Elements())
	c.catalog.SetFirstDiscoveries(p.FirstDiscoveryElements)
	c.ledger.Restore(p.CombinationPath, p.MovesCount, p.NewDiscoveries, p.FirstDiscoveries, p.HintsUsed, p.FirstDiscoveryElements)
}

func (c *Controller) dailyProgressLocked() progress.DailyProgress {
	date := ""
	if c.puzzle != nil {
		date = c.puzzle.Date
	}
	return progress.DailyProgress{
		Date:                   date,
		ElementBank:            c.catalog.Names(),
		ElementEmojis:          c.catalog.Emojis(),
		CombinationPath:        append(c.ledger.Path[:0:0], c.ledger.Path...),
		MovesCount:             c.ledger.Moves,
		ElapsedTime:            c.timer.Elapsed(),
		NewDiscoveries:         c.ledger.NewDiscoveries,
		FirstDiscoveries:       c.ledger.FirstDiscoveries,
		FirstDiscoveryElements: append([]string(nil), c.ledger.FirstDiscoveryElements...),
		HintsUsed:              c.ledger.HintsUsed,
		Completed:              c.completed,
		SavedAt:                c.clock.Now().UnixMilli(),
	}
}

// Tick checks the countdown; it moves a daily game to GAME_OVER when time
// runs out. Tick never mutates the ledger.
func (c *Controller) Tick(ctx context.Context) State {
	c.mu.Lock()
	if c.state != StatePlaying || c.mode != ModeDaily || !c.timer.Started() || c.timer.Paused() || !c.timer.Expired() {
		s := c.state
		c.mu.Unlock()
		return s
	}
	fx := c.finishLocked(ctx, StateGameOver)
	c.mu.Unlock()
	fx.run(ctx, c)
	return StateGameOver
}

// Run ticks once a second until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// SetVisible maps application visibility to Pause / Resume.
func (c *Controller) SetVisible(ctx context.Context, visible bool) {
	if visible {
		c.Resume()
		return
	}
	c.Pause(ctx)
}

// Pause freezes the daily timer and writes a checkpoint immediately.
func (c *Controller) Pause(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != StatePlaying || c.mode != ModeDaily || !c.timer.Pause() {
		c.mu.Unlock()
		return false
	}
	snap := c.dailyProgressLocked()
	c.mu.Unlock()
	if err := c.saver.SaveNow(ctx, snap); err != nil {
		log.Warn().Err(err).Msg("game: checkpoint on pause")
	}
	return true
}

// Resume continues the daily timer from where it paused.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePlaying || c.mode != ModeDaily {
		return false
	}
	return c.timer.Resume()
}

// effects are side effects collected under the lock and run after it.
type effects struct {
	signals       []Signal
	saveDaily     *progress.DailyProgress
	completion    *api.Completion
	leaderboard   *api.LeaderboardEntry
	usage         map[string]int
	partner       Partner
	partnerEl     *element.Element
	partnerWin    string
	autosave       *progress.CreativeSave
	autosaveTicket progress.Ticket
	autosaveNew    int
	autosaveFirst  int
}

func (fx effects) run(ctx context.Context, c *Controller) {
	if fx.usage != nil {
		if err := c.local.SaveUsage(ctx, fx.usage); err != nil {
			log.Warn().Err(err).Msg("game: save element usage")
		}
	}
	if fx.saveDaily != nil {
		if err := c.saver.SaveNow(ctx, *fx.saveDaily); err != nil {
			log.Warn().Err(err).Msg("game: save final progress")
		}
	}
	if fx.partner != nil && fx.partnerEl != nil {
		if err := fx.partner.SendElement(ctx, *fx.partnerEl); err != nil {
			log.Warn().Err(err).Str("element", fx.partnerEl.Name).Msg("game: co-op send element")
		}
	}
	if fx.partner != nil && fx.partnerWin != "" {
		if err := fx.partner.SendCompletion(ctx, fx.partnerWin); err != nil {
			log.Warn().Err(err).Msg("game: co-op send completion")
		}
	}
	if fx.autosave != nil {
		c.runAutosave(ctx, *fx.autosave, fx.autosaveTicket, fx.autosaveNew, fx.autosaveFirst)
	}
	if fx.completion != nil {
		c.recordCompletion(ctx, *fx.completion, fx.leaderboard)
	}
	for _, s := range fx.signals {
		c.emit(s)
	}
}

// finishLocked performs a terminal transition. For daily play it marks the
// date attempted; the leaderboard entry is prepared only when the date had
// not been attempted before.
func (c *Controller) finishLocked(ctx context.Context, to State) effects {
	var fx effects
	c.timer.Stop()
	c.state = to
	c.saver.Cancel()

	switch to {
	case StateComplete:
		c.completed = true
		fx.signals = append(fx.signals, SignalComplete)
	case StateGameOver:
		fx.signals = append(fx.signals, SignalGameOver)
	}

	if c.mode != ModeDaily || c.puzzle == nil {
		return fx
	}
	snap := c.dailyProgressLocked()
	fx.saveDaily = &snap

	date := c.puzzle.Date
	attempted, err := c.local.Attempted(ctx, date)
	if err != nil {
		log.Warn().Err(err).Msg("game: read attempted marker")
		attempted = true
	}
	if !attempted {
		if err := c.local.MarkAttempted(ctx, date); err != nil {
			log.Warn().Err(err).Msg("game: mark attempted")
		}
	}

	if to != StateComplete || c.archive {
		return fx
	}
	fx.completion = &api.Completion{
		PuzzleDate:       date,
		PuzzleNumber:     c.puzzle.Number,
		ElapsedTime:      snap.ElapsedTime,
		MovesCount:       snap.MovesCount,
		ParMoves:         c.puzzle.ParMoves,
		ElementBank:      snap.ElementBank,
		CombinationPath:  snap.CombinationPath,
		NewDiscoveries:   snap.NewDiscoveries,
		FirstDiscoveries: snap.FirstDiscoveries,
	}
	if !attempted {
		fx.leaderboard = &api.LeaderboardEntry{
			GameType:   GameType,
			PuzzleDate: date,
			Score:      snap.ElapsedTime,
			Metadata: map[string]any{
				"puzzleNumber":     c.puzzle.Number,
				"movesCount":       snap.MovesCount,
				"parMoves":         c.puzzle.ParMoves,
				"hintsUsed":        snap.HintsUsed,
				"firstDiscoveries": snap.FirstDiscoveries,
			},
		}
	}
	return fx
}

// recordCompletion posts stats then, when eligible, the leaderboard score.
// Failures are logged and never undo the completion.
func (c *Controller) recordCompletion(ctx context.Context, rec api.Completion, lb *api.LeaderboardEntry) {
	userID := c.ensureIdentity(ctx)
	stats, err := c.backend.Complete(ctx, rec)
	if err != nil {
		log.Warn().Err(err).Str("date", rec.PuzzleDate).Msg("game: record completion")
	} else {
		c.mu.Lock()
		c.stats = &stats
		anonymous := c.identity.Anonymous || c.identity.UserID == ""
		c.mu.Unlock()
		key := userID
		if anonymous {
			key = ""
		}
		if err := c.local.SaveStats(ctx, key, stats); err != nil {
			log.Warn().Err(err).Msg("game: mirror stats")
		}
	}
	if lb == nil {
		return
	}
	if err := c.backend.SubmitLeaderboard(ctx, *lb); err != nil {
		log.Warn().Err(err).Str("date", lb.PuzzleDate).Msg("game: submit leaderboard")
	}
}

// checkTargetLocked completes the game when the target is in the catalog.
func (c *Controller) checkTargetLocked(ctx context.Context) (effects, bool) {
	if c.state != StatePlaying || c.puzzle == nil || !c.catalog.Contains(c.puzzle.TargetElement) {
		return effects{}, false
	}
	fx := c.finishLocked(ctx, StateComplete)
	if c.mode == ModeCoop {
		fx.partner = c.partner
		fx.partnerWin = c.puzzle.TargetElement
	}
	return fx, true
}
