// internal/progress/creative.go
//
// Creative-mode save model.
// Responsibilities:
//   - CreativeSave: per-user, per-slot snapshot of bank, counters, favorites.
//   - SlotSummary: lightweight listing for the saves modal.
//   - Export / ParseExport: portable snapshot files.
package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/errs"
)

// SlotCount is the number of creative save slots.
const SlotCount = 3

// CoopSlot labels favorites kept for co-op play.
const CoopSlot = "coop"

// ValidSlot reports whether n is a creative slot number.
func ValidSlot(n int) bool { return n >= 1 && n <= SlotCount }

// CreativeSave is one slot's remote state.
type CreativeSave struct {
	SlotNumber             int               `json:"slotNumber"`
	Name                   string            `json:"name,omitempty"`
	ElementBank            []element.Element `json:"elementBank"`
	TotalMoves             int               `json:"totalMoves"`
	TotalDiscoveries       int               `json:"totalDiscoveries"`
	FirstDiscoveries       int               `json:"firstDiscoveries"`
	FirstDiscoveryElements []string          `json:"firstDiscoveryElements"`
	Favorites              []string          `json:"favorites"`
	SavedAt                int64             `json:"savedAt"`
}

// Empty reports whether the slot holds no saved bank.
func (s CreativeSave) Empty() bool { return len(s.ElementBank) == 0 }

// Summary returns the listing row for s.
func (s CreativeSave) Summary() SlotSummary {
	return SlotSummary{
		SlotNumber:       s.SlotNumber,
		Name:             s.Name,
		ElementCount:     len(s.ElementBank),
		TotalDiscoveries: s.TotalDiscoveries,
		FirstDiscoveries: s.FirstDiscoveries,
		SavedAt:          s.SavedAt,
		Empty:            s.Empty(),
	}
}

// SlotSummary is the saves-modal row for one slot.
type SlotSummary struct {
	SlotNumber       int    `json:"slotNumber"`
	Name             string `json:"name,omitempty"`
	ElementCount     int    `json:"elementCount"`
	TotalDiscoveries int    `json:"totalDiscoveries"`
	FirstDiscoveries int    `json:"firstDiscoveries"`
	SavedAt          int64  `json:"savedAt,omitempty"`
	Empty            bool   `json:"empty"`
}

// ExportFormat identifies export files.
const ExportFormat = "daily-alchemy-creative"

// ExportVersion is the current export file version.
const ExportVersion = 1

// ExportFile is the portable snapshot of one slot.
type ExportFile struct {
	Format     string `json:"format"`
	Version    int    `json:"version"`
	SlotName   string `json:"slotName"`
	ExportedAt int64  `json:"exportedAt"`
	CreativeSave
}

// Export encodes save as an export file.
func Export(save CreativeSave, slotName string, exportedAt int64) ([]byte, error) {
	if slotName == "" {
		slotName = save.Name
	}
	if slotName == "" {
		slotName = fmt.Sprintf("Slot %d", save.SlotNumber)
	}
	f := ExportFile{
		Format:       ExportFormat,
		Version:      ExportVersion,
		SlotName:     slotName,
		ExportedAt:   exportedAt,
		CreativeSave: save,
	}
	return json.MarshalIndent(f, "", "  ")
}

// ParseExport decodes an export file. Unknown fields are ignored; malformed
// JSON or a missing elementBank are rejected.
func ParseExport(data []byte) (ExportFile, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return ExportFile{}, errs.Wrap(errs.KindInvalidArgument, "parse export", err)
	}
	bank, ok := probe["elementBank"]
	if !ok || bytes.Equal(bytes.TrimSpace(bank), []byte("null")) {
		return ExportFile{}, errs.New(errs.KindInvalidArgument, "parse export: missing elementBank")
	}

	var f ExportFile
	if err := json.Unmarshal(data, &f); err != nil {
		return ExportFile{}, errs.Wrap(errs.KindInvalidArgument, "parse export", err)
	}
	clean := f.ElementBank[:0]
	for _, e := range f.ElementBank {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			continue
		}
		e.IsStarter = element.IsStarterName(e.Name)
		e.FromPartner = false
		clean = append(clean, e)
	}
	f.ElementBank = clean
	return f, nil
}

// ForSlot returns the snapshot retargeted to slot. The export's slot name
// becomes the save name.
func (f ExportFile) ForSlot(slot int) CreativeSave {
	s := f.CreativeSave
	s.SlotNumber = slot
	if f.SlotName != "" {
		s.Name = f.SlotName
	}
	return s
}
