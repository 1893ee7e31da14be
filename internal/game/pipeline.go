// internal/game/pipeline.go
//
// Combination pipeline and hints.
//
// Combine is a sequential await chain guarded by combining/animating:
//   button signal → ensure session → oracle → add to catalog → outcome
//   signal → animation delay → ledger/usage/hint bookkeeping → effects.
// The catalog addition happens before the delay so a concurrent combination
// of the same pair sees the element as already known.
package game

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/errs"
	"github.com/robalobadob/alchemy/internal/hint"
	"github.com/robalobadob/alchemy/internal/ledger"
	"github.com/robalobadob/alchemy/internal/progress"
)

// CombineErrorMessage is the inline error shown when the oracle fails.
const CombineErrorMessage = "Those elements refused to mix. Try again."

// Combine merges the two selected elements.
func (c *Controller) Combine(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return Outcome{}, errs.New(errs.KindInvalidState, "combine: not playing")
	}
	if c.combining || c.animating {
		c.mu.Unlock()
		return Outcome{}, errs.New(errs.KindBusy, "combine: already combining")
	}
	a, okA := c.sel.First()
	b, okB := c.sel.Second()
	if !okA || !okB {
		c.mu.Unlock()
		return Outcome{}, errs.New(errs.KindInvalidState, "combine: both slots must be filled")
	}
	op := c.sel.Operator()
	c.combining = true
	gen := c.gen
	c.mu.Unlock()

	c.emit(SignalButton)
	userID := c.ensureIdentity(ctx)

	res, err := c.backend.Combine(ctx, a.Name, b.Name, op, userID)
	if err != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.combining = false
			c.sel.Clear()
			c.showErrorLocked(CombineErrorMessage)
		}
		c.mu.Unlock()
		log.Warn().Err(err).Str("a", a.Name).Str("b", b.Name).Msg("game: combination failed")
		c.emit(SignalError)
		return Outcome{}, errs.Wrap(errs.KindCombinationFailed, "combine", err)
	}

	c.mu.Lock()
	if err := c.stillCurrentLocked(gen); err != nil {
		c.mu.Unlock()
		return Outcome{}, err
	}
	name := strings.TrimSpace(res.Element)
	isNew := !c.catalog.Contains(name)
	if isNew {
		c.catalog.Add(element.Element{Name: name, Emoji: res.Emoji})
	}
	el, _ := c.catalog.Get(name)
	c.animating = true
	c.mu.Unlock()

	switch {
	case res.IsFirstDiscovery:
		c.emit(SignalFirstDiscovery)
	case isNew:
		c.emit(SignalNewDiscovery)
	default:
		c.emit(SignalExisting)
	}

	if err := c.sleep(ctx, c.cfg.AnimationDelay); err != nil {
		log.Debug().Err(err).Msg("game: animation delay interrupted")
	}

	c.mu.Lock()
	if err := c.stillCurrentLocked(gen); err != nil {
		c.mu.Unlock()
		return Outcome{}, err
	}
	entry := c.ledger.Record(ledger.Combination{
		A: a.Name, B: b.Name, Op: op,
		Result:  el,
		IsNew:   isNew,
		IsFirst: res.IsFirstDiscovery,
	})
	c.catalog.IncrementUsage(a.Name)
	c.catalog.IncrementUsage(b.Name)
	if res.IsFirstDiscovery {
		c.catalog.MarkFirstDiscovery(el.Name)
	}
	c.lastResult = &el
	c.sel.Clear()
	if c.hintElement != "" && element.Equal(c.hintElement, el.Name) {
		c.hintElement, c.hintMessage = "", ""
	}
	c.animating = false
	c.combining = false

	out := Outcome{Element: el, Entry: entry, IsNew: isNew, IsFirst: res.IsFirstDiscovery}
	fx := effects{usage: c.catalog.UsageCounts()}
	if isNew && c.mode == ModeCoop && c.partner != nil {
		fx.partner = c.partner
		fx.partnerEl = &el
	}
	if done, ok := c.checkTargetLocked(ctx); ok {
		out.Complete = true
		done.usage = fx.usage
		if fx.partnerEl != nil {
			done.partner = fx.partner
			done.partnerEl = fx.partnerEl
		}
		fx = done
	} else {
		c.afterChangeLocked(&fx)
	}
	c.mu.Unlock()

	fx.run(ctx, c)
	return out, nil
}

// stillCurrentLocked checks, after a suspension, that the combination
// started at gen may still land. A reset (new generation) already cleared
// the busy flags; a terminal transition did not, so they are released here.
func (c *Controller) stillCurrentLocked(gen uint64) error {
	if c.gen != gen {
		return errs.New(errs.KindInvalidState, "combine: game was reset")
	}
	if c.state != StatePlaying {
		c.combining, c.animating = false, false
		c.sel.Clear()
		return errs.New(errs.KindInvalidState, "combine: game ended")
	}
	return nil
}

// afterChangeLocked queues the mode-specific persistence for a mutation
// that did not end the game.
func (c *Controller) afterChangeLocked(fx *effects) {
	switch c.mode {
	case ModeDaily:
		if c.state == StatePlaying && c.puzzle != nil {
			c.saver.Schedule(c.dailyProgressLocked())
		}
	case ModeCreative:
		n, f := c.ledger.NewDiscoveries, c.ledger.FirstDiscoveries
		if c.switching {
			return
		}
		if tk, ok := c.gate.TryBegin(n, f); ok {
			s := c.creativeSaveLocked()
			fx.autosave = &s
			fx.autosaveTicket = tk
			fx.autosaveNew, fx.autosaveFirst = n, f
		}
	}
}

// RequestHint reveals the next element on the solution path. It reports
// false, and counts nothing, when no step is buildable.
func (c *Controller) RequestHint() (string, bool) {
	c.mu.Lock()
	if c.state != StatePlaying || c.puzzle == nil {
		c.mu.Unlock()
		return "", false
	}
	choice, ok := hint.Pick(c.puzzle.SolutionPath, c.catalog.Contains)
	if !ok {
		c.hintElement, c.hintMessage = "", ""
		c.mu.Unlock()
		return "", false
	}
	c.hintElement = choice.Element
	c.hintMessage = hint.Message(choice.Element, c.rng)
	c.ledger.HintsUsed++
	var fx effects
	c.afterChangeLocked(&fx)
	c.mu.Unlock()

	c.emit(SignalHint)
	return choice.Element, true
}

// AddPartnerElement records an element discovered by the co-op partner.
// Partners never earn local first-discovery credit. It reports whether the
// element was new.
func (c *Controller) AddPartnerElement(ctx context.Context, name, emoji string) bool {
	c.mu.Lock()
	if c.mode != ModeCoop || c.state == StateWelcome || strings.TrimSpace(name) == "" || c.catalog.Contains(name) {
		c.mu.Unlock()
		return false
	}
	e := element.Element{Name: strings.TrimSpace(name), Emoji: emoji, FromPartner: true}
	c.catalog.Add(e)
	e, _ = c.catalog.Get(e.Name)
	c.ledger.AddPartner(e)
	fx, _ := c.checkTargetLocked(ctx)
	// The partner already announced its own completion.
	fx.partnerWin = ""
	c.mu.Unlock()

	fx.run(ctx, c)
	c.emit(SignalPartnerElement)
	return true
}

// PartnerCompleted handles the partner's completion signal. The local game
// completes only on its own evidence: the target must be in the catalog.
func (c *Controller) PartnerCompleted(ctx context.Context, target string) bool {
	c.mu.Lock()
	if c.mode != ModeCoop {
		c.mu.Unlock()
		return false
	}
	fx, ok := c.checkTargetLocked(ctx)
	fx.partnerWin = ""
	c.mu.Unlock()
	if ok {
		fx.run(ctx, c)
	}
	return ok
}

// creativeSaveLocked snapshots the active slot.
func (c *Controller) creativeSaveLocked() progress.CreativeSave {
	return progress.CreativeSave{
		SlotNumber:             c.slot,
		Name:                   c.slotName,
		ElementBank:            c.catalog.All(),
		TotalMoves:             c.ledger.Moves,
		TotalDiscoveries:       c.ledger.NewDiscoveries,
		FirstDiscoveries:       c.ledger.FirstDiscoveries,
		FirstDiscoveryElements: append([]string{}, c.ledger.FirstDiscoveryElements...),
		Favorites:              c.catalog.Favorites(),
		SavedAt:                c.clock.Now().UnixMilli(),
	}
}
