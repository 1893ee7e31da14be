// internal/httpserver/routes_creative.go
//
// Creative save slots. Every route requires auth; slots are per user.
package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/alchemy/internal/progress"
)

func (s *Server) mountCreative(r chi.Router) {
	r.Route("/creative", func(r chi.Router) {
		r.Get("/save", s.handleLoadSlot)
		r.Post("/save", s.handlePutSlot)
		r.Patch("/save", s.handleRenameSlot)
		r.Delete("/save", s.handleClearSlot)
		r.Get("/saves", s.handleListSlots)
	})
}

// slotParam reads ?slot=N and checks the range.
func slotParam(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.URL.Query().Get("slot"))
	if err != nil || !progress.ValidSlot(n) {
		return 0, false
	}
	return n, true
}

type slotRes struct {
	Success bool                   `json:"success"`
	Save    *progress.CreativeSave `json:"save"`
}

func (s *Server) handleLoadSlot(w http.ResponseWriter, r *http.Request) {
	n, ok := slotParam(r)
	if !ok {
		fail(w, http.StatusBadRequest, "invalid_slot")
		return
	}
	save, found, err := s.store.LoadSlot(r.Context(), userFrom(r.Context()), n)
	if err != nil {
		log.Error().Err(err).Int("slot", n).Msg("load slot")
		fail(w, http.StatusInternalServerError, "load_failed")
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, slotRes{Success: true})
		return
	}
	writeJSON(w, http.StatusOK, slotRes{Success: true, Save: &save})
}

func (s *Server) handlePutSlot(w http.ResponseWriter, r *http.Request) {
	var save progress.CreativeSave
	if !decode(w, r, &save) {
		fail(w, http.StatusBadRequest, "bad_json")
		return
	}
	if !progress.ValidSlot(save.SlotNumber) || save.Empty() {
		fail(w, http.StatusBadRequest, "invalid_save")
		return
	}
	if save.SavedAt == 0 {
		save.SavedAt = s.clock.Now().UnixMilli()
	}
	uid := userFrom(r.Context())
	// A full save keeps an earlier rename unless it carries its own name.
	if save.Name == "" {
		if prev, _, err := s.store.LoadSlot(r.Context(), uid, save.SlotNumber); err == nil {
			save.Name = prev.Name
		}
	}
	if err := s.store.PutSlot(r.Context(), uid, save); err != nil {
		log.Error().Err(err).Int("slot", save.SlotNumber).Msg("put slot")
		fail(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type renameReq struct {
	SlotNumber int    `json:"slotNumber"`
	Name       string `json:"name"`
}

func (s *Server) handleRenameSlot(w http.ResponseWriter, r *http.Request) {
	var req renameReq
	if !decode(w, r, &req) {
		fail(w, http.StatusBadRequest, "bad_json")
		return
	}
	name := strings.TrimSpace(req.Name)
	if !progress.ValidSlot(req.SlotNumber) || len(name) > 64 {
		fail(w, http.StatusBadRequest, "invalid_rename")
		return
	}
	if err := s.store.RenameSlot(r.Context(), userFrom(r.Context()), req.SlotNumber, name); err != nil {
		log.Error().Err(err).Int("slot", req.SlotNumber).Msg("rename slot")
		fail(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleClearSlot(w http.ResponseWriter, r *http.Request) {
	n, ok := slotParam(r)
	if !ok {
		fail(w, http.StatusBadRequest, "invalid_slot")
		return
	}
	if err := s.store.ClearSlot(r.Context(), userFrom(r.Context()), n); err != nil {
		log.Error().Err(err).Int("slot", n).Msg("clear slot")
		fail(w, http.StatusInternalServerError, "clear_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type slotsRes struct {
	Success bool                   `json:"success"`
	Slots   []progress.SlotSummary `json:"slots"`
}

func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := s.store.ListSlots(r.Context(), userFrom(r.Context()))
	if err != nil {
		log.Error().Err(err).Msg("list slots")
		fail(w, http.StatusInternalServerError, "list_failed")
		return
	}
	writeJSON(w, http.StatusOK, slotsRes{Success: true, Slots: slots})
}
