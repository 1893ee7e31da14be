// internal/httpserver/routes_daily.go
//
// Oracle and daily-puzzle routes.
//   - POST /combine            → resolve a pair through the recipe book
//   - GET  /puzzle?date=       → the calendar puzzle for a date (never the future)
//   - POST /complete           → upsert the daily result, return rolling stats
//   - POST /leaderboard/daily  → first submission per user and date wins
//   - GET  /leaderboard/daily  → top scores for a date (default today)

package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/alchemy/internal/api"
	"github.com/robalobadob/alchemy/internal/daily"
	"github.com/robalobadob/alchemy/internal/errs"
	"github.com/robalobadob/alchemy/internal/progress"
	"github.com/robalobadob/alchemy/internal/puzzle"
	"github.com/robalobadob/alchemy/internal/store"
)

// gameType labels this game's leaderboard rows.
const gameType = "daily_alchemy"

type combineRes struct {
	Success bool               `json:"success"`
	Result  *api.CombineResult `json:"result,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// handleCombine answers A op B. The element is credited as a first
// discovery only to an authenticated caller.
func (s *Server) handleCombine(w http.ResponseWriter, r *http.Request) {
	var req api.CombineRequest
	if !decode(w, r, &req) {
		writeJSON(w, http.StatusBadRequest, combineRes{Error: "bad_json"})
		return
	}
	a, b := strings.TrimSpace(req.ElementA), strings.TrimSpace(req.ElementB)
	op, err := puzzle.ParseOperator(req.Mode)
	if a == "" || b == "" || err != nil {
		writeJSON(w, http.StatusBadRequest, combineRes{Error: "invalid_request"})
		return
	}

	res := s.book.Resolve(a, b, op)
	userID := userFrom(r.Context())
	if userID != "" && req.UserID != nil && *req.UserID != userID {
		// A body id that disagrees with the token earns nothing.
		userID = ""
	}
	first, err := s.store.RecordDiscovery(r.Context(), userID, res.Element, res.Emoji)
	if err != nil {
		log.Warn().Err(err).Str("element", res.Element).Msg("record discovery")
		first = false
	}
	writeJSON(w, http.StatusOK, combineRes{
		Success: true,
		Result:  &api.CombineResult{Element: res.Element, Emoji: res.Emoji, IsFirstDiscovery: first},
	})
}

type puzzleRes struct {
	Success bool           `json:"success"`
	Puzzle  *puzzle.Puzzle `json:"puzzle"`
}

// handlePuzzle serves the calendar puzzle for ?date= (default today).
func (s *Server) handlePuzzle(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = s.today()
	}
	d, err := daily.ParseDate(date)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid_date")
		return
	}
	if today, _ := daily.ParseDate(s.today()); d.After(today) || daily.Number(date) == 0 {
		fail(w, http.StatusNotFound, "no_puzzle")
		return
	}
	p, err := s.cal.ForDate(date)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			fail(w, http.StatusNotFound, "no_puzzle")
			return
		}
		log.Error().Err(err).Str("date", date).Msg("calendar lookup")
		fail(w, http.StatusInternalServerError, "puzzle_failed")
		return
	}
	writeJSON(w, http.StatusOK, puzzleRes{Success: true, Puzzle: p})
}

type completeRes struct {
	Success bool           `json:"success"`
	Stats   progress.Stats `json:"stats"`
}

// handleComplete records a completion and returns the caller's rolling stats.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	uid := userFrom(r.Context())
	var req api.Completion
	if !decode(w, r, &req) {
		fail(w, http.StatusBadRequest, "bad_json")
		return
	}
	if _, err := daily.ParseDate(req.PuzzleDate); err != nil || req.MovesCount < 0 || req.ElapsedTime < 0 {
		fail(w, http.StatusBadRequest, "invalid_completion")
		return
	}
	err := s.store.SaveDailyResult(r.Context(), store.DailyResult{
		UserID:           uid,
		PuzzleDate:       req.PuzzleDate,
		PuzzleNumber:     req.PuzzleNumber,
		ElapsedTime:      req.ElapsedTime,
		MovesCount:       req.MovesCount,
		ParMoves:         req.ParMoves,
		NewDiscoveries:   req.NewDiscoveries,
		FirstDiscoveries: req.FirstDiscoveries,
	})
	if err != nil {
		log.Error().Err(err).Str("user", uid).Msg("save daily result")
		fail(w, http.StatusInternalServerError, "save_failed")
		return
	}
	stats, err := s.store.Stats(r.Context(), uid, s.today())
	if err != nil {
		log.Error().Err(err).Str("user", uid).Msg("load stats")
		fail(w, http.StatusInternalServerError, "stats_failed")
		return
	}
	writeJSON(w, http.StatusOK, completeRes{Success: true, Stats: stats})
}

type submitRes struct {
	Success  bool `json:"success"`
	Recorded bool `json:"recorded"`
}

// handleSubmitScore inserts the caller's score; repeats are ignored.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	uid := userFrom(r.Context())
	var req api.LeaderboardEntry
	if !decode(w, r, &req) {
		fail(w, http.StatusBadRequest, "bad_json")
		return
	}
	if req.GameType == "" {
		req.GameType = gameType
	}
	if _, err := daily.ParseDate(req.PuzzleDate); err != nil || req.Score < 0 {
		fail(w, http.StatusBadRequest, "invalid_score")
		return
	}
	ok, err := s.store.SubmitScore(r.Context(), req.GameType, req.PuzzleDate, uid, req.Score, req.Metadata)
	if err != nil {
		log.Error().Err(err).Str("user", uid).Msg("submit score")
		fail(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, http.StatusOK, submitRes{Success: true, Recorded: ok})
}

type boardRes struct {
	Date string           `json:"date"`
	Top  []store.BoardRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for ?date= (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	if date == "" {
		date = s.today()
	}
	if _, err := daily.ParseDate(date); err != nil {
		fail(w, http.StatusBadRequest, "invalid_date")
		return
	}
	gt := q.Get("gameType")
	if gt == "" {
		gt = gameType
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.store.Leaderboard(r.Context(), gt, date, limit)
	if err != nil {
		fail(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, boardRes{Date: date, Top: rows})
}
