// internal/game/coop.go
//
// Co-op mode entry and post-win continuation. Inbound partner traffic is
// handled by AddPartnerElement / PartnerCompleted in pipeline.go.
package game

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/errs"
	"github.com/robalobadob/alchemy/internal/progress"
	"github.com/robalobadob/alchemy/internal/puzzle"
	"github.com/robalobadob/alchemy/internal/timer"
)

// CoopOptions configures StartCoop.
type CoopOptions struct {
	Partner   Partner
	Puzzle    *puzzle.Puzzle // optional shared target
	Bank      []element.Element
	Favorites []string
}

// StartCoop enters co-op mode. Autosave is off and the timer is inert;
// favorites are kept under the co-op slot.
func (c *Controller) StartCoop(ctx context.Context, opts CoopOptions) error {
	favs := opts.Favorites
	if favs == nil {
		stored, err := c.local.LoadFavorites(ctx, progress.CoopSlot)
		if err != nil {
			log.Warn().Err(err).Msg("game: load co-op favorites")
		}
		favs = stored
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateWelcome {
		return errs.New(errs.KindInvalidState, "start co-op: not at welcome")
	}
	c.resetSessionLocked()
	c.mode = ModeCoop
	c.freePlay = false
	c.partner = opts.Partner
	c.puzzle = opts.Puzzle
	c.archive = false
	c.saved = nil
	c.completed = false
	c.sel.Lock(false)
	c.timer = timer.NewInert(c.clock)
	c.gate.SetDisabled(true)
	c.catalog.Load(opts.Bank)
	c.catalog.SetFavorites(favs)
	c.state = StatePlaying
	return nil
}

// ContinueTogether resumes co-op play after a mutually accepted post-win
// offer. The shared target is dropped; the catalog is kept.
func (c *Controller) ContinueTogether() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeCoop || c.state != StateComplete {
		return errs.New(errs.KindInvalidState, "continue together: not a finished co-op game")
	}
	c.puzzle = nil
	c.completed = false
	c.state = StatePlaying
	return nil
}

// LeaveCoop detaches the partner and returns to WELCOME. The local game
// is otherwise untouched until a new mode starts.
func (c *Controller) LeaveCoop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeCoop {
		return
	}
	c.partner = nil
	c.gate.SetDisabled(false)
	c.state = StateWelcome
	c.mode = ModeDaily
	c.puzzle = nil
}

// PartnerDisconnectedMessage is the inline notice shown when the co-op
// partner goes away.
const PartnerDisconnectedMessage = "Your partner disconnected. You can keep playing solo."

// PartnerDisconnected surfaces the partner loss as an inline notice and a
// SignalPartnerLeft. The local game keeps running.
func (c *Controller) PartnerDisconnected() {
	c.mu.Lock()
	if c.mode != ModeCoop {
		c.mu.Unlock()
		return
	}
	c.showErrorLocked(PartnerDisconnectedMessage)
	c.mu.Unlock()
	log.Info().Msg("game: co-op partner disconnected")
	c.emit(SignalPartnerLeft)
}
