// internal/store/slots.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/robalobadob/alchemy/internal/progress"
)

// LoadSlot returns the save in slot for userID; ok is false for an empty slot.
func (s *Store) LoadSlot(ctx context.Context, userID string, slot int) (progress.CreativeSave, bool, error) {
	var row Slot
	err := s.db.WithContext(ctx).Where("user_id = ? AND slot_number = ?", userID, slot).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return progress.CreativeSave{SlotNumber: slot}, false, nil
	}
	if err != nil {
		return progress.CreativeSave{}, false, fmt.Errorf("store: load slot: %w", err)
	}
	save := progress.CreativeSave{SlotNumber: slot}
	if row.Data != "" {
		if err := json.Unmarshal([]byte(row.Data), &save); err != nil {
			return progress.CreativeSave{}, false, fmt.Errorf("store: decode slot %d: %w", slot, err)
		}
	}
	save.SlotNumber = slot
	save.Name = row.Name
	return save, !save.Empty(), nil
}

// PutSlot stores save for userID, replacing the slot.
func (s *Store) PutSlot(ctx context.Context, userID string, save progress.CreativeSave) error {
	data, err := json.Marshal(save)
	if err != nil {
		return fmt.Errorf("store: encode slot: %w", err)
	}
	row := Slot{UserID: userID, SlotNumber: save.SlotNumber, Name: save.Name, Data: string(data)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "slot_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("store: put slot: %w", err)
	}
	return nil
}

// RenameSlot sets the slot name, creating an empty slot row if needed.
func (s *Store) RenameSlot(ctx context.Context, userID string, slot int, name string) error {
	row := Slot{UserID: userID, SlotNumber: slot, Name: name}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "slot_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("store: rename slot: %w", err)
	}
	return nil
}

// ClearSlot deletes the slot.
func (s *Store) ClearSlot(ctx context.Context, userID string, slot int) error {
	err := s.db.WithContext(ctx).Where("user_id = ? AND slot_number = ?", userID, slot).Delete(&Slot{}).Error
	if err != nil {
		return fmt.Errorf("store: clear slot: %w", err)
	}
	return nil
}

// ListSlots returns a summary for every slot number, empty ones included.
func (s *Store) ListSlots(ctx context.Context, userID string) ([]progress.SlotSummary, error) {
	out := make([]progress.SlotSummary, 0, progress.SlotCount)
	for n := 1; n <= progress.SlotCount; n++ {
		save, _, err := s.LoadSlot(ctx, userID, n)
		if err != nil {
			return nil, err
		}
		out = append(out, save.Summary())
	}
	return out, nil
}
