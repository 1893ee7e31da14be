// internal/game/creative.go
//
// Creative mode: three remote save slots with autosave.
//
// Load-before-autosave: entering a slot inhibits the autosave gate until
// the slot's remote state has been applied, so a fresh session can never
// overwrite its own save with starter values. Slot switches flush the
// current slot, fetch the target and rehydrate under the switching flag;
// every exit path leaves the gate enabled.
package game

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/alchemy/internal/errs"
	"github.com/robalobadob/alchemy/internal/progress"
	"github.com/robalobadob/alchemy/internal/timer"
)

// StartFreePlay enters creative mode on the last active slot and loads it.
// A load failure is returned, but play continues on the starter set.
func (c *Controller) StartFreePlay(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateWelcome {
		c.mu.Unlock()
		return errs.New(errs.KindInvalidState, "start free play: not at welcome")
	}
	c.resetSessionLocked()
	c.mode = ModeCreative
	c.freePlay = true
	c.partner = nil
	c.sel.Lock(false)
	c.timer = timer.NewInert(c.clock)
	c.gate.SetDisabled(false)
	c.gate.Inhibit()
	c.state = StatePlaying
	gen := c.gen
	c.mu.Unlock()

	slot := c.local.LoadActiveSlot(ctx)
	c.ensureIdentity(ctx)
	save, _, err := c.backend.LoadSlot(ctx, slot)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return errs.New(errs.KindInvalidState, "start free play: superseded")
	}
	c.slot = slot
	if err != nil {
		// Keep starters authoritative; the gate opens so the player can save.
		log.Warn().Err(err).Int("slot", slot).Msg("game: initial slot load failed")
		c.slotName = ""
		c.gate.Ready(c.ledger.NewDiscoveries, c.ledger.FirstDiscoveries)
		return err
	}
	c.applySaveLocked(ctx, save)
	return nil
}

// applySaveLocked rehydrates the catalog and counters from save and opens
// the autosave gate with the loaded counters as baseline. A combination
// still in flight is abandoned.
func (c *Controller) applySaveLocked(ctx context.Context, save progress.CreativeSave) {
	c.gen++
	c.combining, c.animating = false, false
	c.sel.Clear()
	c.lastResult = nil
	c.hintElement, c.hintMessage = "", ""
	c.slot = save.SlotNumber
	c.slotName = save.Name
	c.catalog.Load(save.ElementBank)
	c.catalog.SetFirstDiscoveries(save.FirstDiscoveryElements)
	favs := save.Favorites
	if len(favs) == 0 && save.Empty() {
		if local, err := c.local.LoadFavorites(ctx, c.favoritesLabelLocked()); err == nil {
			favs = local
		}
	}
	c.catalog.SetFavorites(favs)
	c.ledger.Restore(nil, save.TotalMoves, save.TotalDiscoveries, save.FirstDiscoveries, 0, save.FirstDiscoveryElements)
	c.slots[c.slot] = save.Summary()
	c.gate.Ready(c.ledger.NewDiscoveries, c.ledger.FirstDiscoveries)
}

// runAutosave writes s and releases the gate.
func (c *Controller) runAutosave(ctx context.Context, s progress.CreativeSave, t progress.Ticket, newD, firstD int) {
	err := c.backend.SaveSlot(ctx, s)
	c.gate.Done(t, err == nil, newD, firstD)
	if err != nil {
		log.Warn().Err(err).Int("slot", s.SlotNumber).Msg("game: autosave failed")
		return
	}
	c.mu.Lock()
	c.slots[s.SlotNumber] = s.Summary()
	c.mu.Unlock()
}

// SaveNow explicitly saves the active creative slot.
func (c *Controller) SaveNow(ctx context.Context) error {
	c.mu.Lock()
	if c.mode != ModeCreative || c.state == StateWelcome {
		c.mu.Unlock()
		return errs.New(errs.KindInvalidState, "save: not in creative mode")
	}
	if c.switching {
		c.mu.Unlock()
		return errs.New(errs.KindBusy, "save: slot is loading")
	}
	tk, ok := c.gate.TryBeginManual()
	if !ok {
		c.mu.Unlock()
		return errs.New(errs.KindBusy, "save: slot is loading or already saving")
	}
	s := c.creativeSaveLocked()
	n, f := c.ledger.NewDiscoveries, c.ledger.FirstDiscoveries
	c.mu.Unlock()

	err := c.backend.SaveSlot(ctx, s)
	c.gate.Done(tk, err == nil, n, f)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.slots[s.SlotNumber] = s.Summary()
	c.mu.Unlock()
	return nil
}

// SwitchSlot saves the active slot and loads slot. A save already in
// flight finishes before the active slot is snapshotted. On failure the
// active slot stays as it was and autosave is re-enabled.
func (c *Controller) SwitchSlot(ctx context.Context, slot int) error {
	if !progress.ValidSlot(slot) {
		return errs.New(errs.KindInvalidArgument, fmt.Sprintf("switch slot: invalid slot %d", slot))
	}
	c.mu.Lock()
	if c.mode != ModeCreative || c.state == StateWelcome {
		c.mu.Unlock()
		return errs.New(errs.KindInvalidState, "switch slot: not in creative mode")
	}
	if c.switching {
		c.mu.Unlock()
		return errs.New(errs.KindBusy, "switch slot: already switching")
	}
	if slot == c.slot {
		c.mu.Unlock()
		return nil
	}
	c.switching = true
	c.mu.Unlock()

	if err := c.gate.Wait(ctx); err != nil {
		c.mu.Lock()
		c.switching = false
		c.mu.Unlock()
		return errs.Wrap(errs.KindSlotSwitchFailed, "switch slot: wait for autosave", err)
	}

	c.mu.Lock()
	var current *progress.CreativeSave
	loaded := c.gate.LoadComplete()
	if loaded {
		s := c.creativeSaveLocked()
		current = &s
	}
	c.gate.Inhibit()
	c.mu.Unlock()

	fail := func(step string, err error) error {
		c.mu.Lock()
		c.switching = false
		if loaded {
			c.gate.Resume()
		}
		c.mu.Unlock()
		log.Warn().Err(err).Int("slot", slot).Str("step", step).Msg("game: slot switch failed")
		return errs.Wrap(errs.KindSlotSwitchFailed, "switch slot: "+step, err)
	}

	if current != nil {
		if err := c.backend.SaveSlot(ctx, *current); err != nil {
			return fail("save current", err)
		}
	}
	save, _, err := c.backend.LoadSlot(ctx, slot)
	if err != nil {
		return fail("load target", err)
	}
	save.SlotNumber = slot

	c.mu.Lock()
	if current != nil {
		c.slots[current.SlotNumber] = current.Summary()
	}
	c.applySaveLocked(ctx, save)
	c.switching = false
	c.mu.Unlock()

	if err := c.local.SaveActiveSlot(ctx, slot); err != nil {
		log.Warn().Err(err).Msg("game: remember active slot")
	}
	return nil
}

// RenameSlot persists a new name for slot and updates the cached summary.
func (c *Controller) RenameSlot(ctx context.Context, slot int, name string) error {
	if !progress.ValidSlot(slot) {
		return errs.New(errs.KindInvalidArgument, fmt.Sprintf("rename slot: invalid slot %d", slot))
	}
	if err := c.backend.RenameSlot(ctx, slot, name); err != nil {
		log.Warn().Err(err).Int("slot", slot).Msg("game: rename slot")
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	sum := c.slots[slot]
	sum.SlotNumber = slot
	sum.Name = name
	c.slots[slot] = sum
	if c.mode == ModeCreative && slot == c.slot {
		c.slotName = name
	}
	return nil
}

// ClearSlot deletes slot remotely. Clearing the active slot resets the
// session to starters.
func (c *Controller) ClearSlot(ctx context.Context, slot int) error {
	if !progress.ValidSlot(slot) {
		return errs.New(errs.KindInvalidArgument, fmt.Sprintf("clear slot: invalid slot %d", slot))
	}
	if err := c.gate.Wait(ctx); err != nil {
		return err
	}
	if err := c.backend.ClearSlot(ctx, slot); err != nil {
		log.Warn().Err(err).Int("slot", slot).Msg("game: clear slot")
		return err
	}
	if err := c.local.SaveFavorites(ctx, strconv.Itoa(slot), nil); err != nil {
		log.Warn().Err(err).Msg("game: clear favorites fallback")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[slot] = progress.SlotSummary{SlotNumber: slot, Empty: true}
	if c.mode == ModeCreative && c.state != StateWelcome && slot == c.slot && !c.switching {
		c.applySaveLocked(ctx, progress.CreativeSave{SlotNumber: slot})
	}
	return nil
}

// ExportSlot encodes slot as a portable file. The active slot exports its
// in-memory state; other slots are fetched.
func (c *Controller) ExportSlot(ctx context.Context, slot int) ([]byte, error) {
	if !progress.ValidSlot(slot) {
		return nil, errs.New(errs.KindInvalidArgument, fmt.Sprintf("export slot: invalid slot %d", slot))
	}
	c.mu.Lock()
	var save progress.CreativeSave
	active := c.mode == ModeCreative && c.state != StateWelcome && slot == c.slot
	if active {
		save = c.creativeSaveLocked()
	}
	now := c.clock.Now().UnixMilli()
	c.mu.Unlock()

	if !active {
		var err error
		save, _, err = c.backend.LoadSlot(ctx, slot)
		if err != nil {
			return nil, err
		}
		save.SlotNumber = slot
	}
	return progress.Export(save, save.Name, now)
}

// ImportSlot applies an export file to slot, saving it remotely. Importing
// into the active slot hot-reloads the session.
func (c *Controller) ImportSlot(ctx context.Context, slot int, data []byte) error {
	if !progress.ValidSlot(slot) {
		return errs.New(errs.KindInvalidArgument, fmt.Sprintf("import slot: invalid slot %d", slot))
	}
	f, err := progress.ParseExport(data)
	if err != nil {
		return err
	}
	save := f.ForSlot(slot)
	save.SavedAt = c.clock.Now().UnixMilli()
	if err := c.gate.Wait(ctx); err != nil {
		return err
	}
	if err := c.backend.SaveSlot(ctx, save); err != nil {
		log.Warn().Err(err).Int("slot", slot).Msg("game: import slot")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[slot] = save.Summary()
	if c.mode == ModeCreative && c.state != StateWelcome && slot == c.slot && !c.switching {
		c.applySaveLocked(ctx, save)
	}
	return nil
}

// ListSlots returns the slot summaries for the saves modal.
func (c *Controller) ListSlots(ctx context.Context) ([]progress.SlotSummary, error) {
	list, err := c.backend.ListSlots(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		log.Warn().Err(err).Msg("game: list slots, using cached summaries")
		out := make([]progress.SlotSummary, 0, progress.SlotCount)
		for n := 1; n <= progress.SlotCount; n++ {
			s, ok := c.slots[n]
			if !ok {
				s = progress.SlotSummary{SlotNumber: n, Empty: true}
			}
			out = append(out, s)
		}
		return out, err
	}
	for _, s := range list {
		c.slots[s.SlotNumber] = s
	}
	return list, nil
}
