// internal/api/client.go
//
// HTTP client for the alchemy backend.
// Responsibilities:
//   - Session issuance (anonymous bearer token + user id).
//   - Combination oracle, daily puzzle fetch, completion + leaderboard.
//   - Creative save slots (load / save / rename / clear / list).
//
// Every failure is mapped to an errs kind so the game controller can pick a
// disposition without inspecting HTTP details.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robalobadob/alchemy/internal/errs"
	"github.com/robalobadob/alchemy/internal/ledger"
	"github.com/robalobadob/alchemy/internal/progress"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

// Doer is the subset of *http.Client the client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the backend. Safe for concurrent use.
type Client struct {
	base string
	http Doer

	mu     sync.RWMutex
	token  string
	userID string
}

// New returns a client for base (e.g. "http://localhost:8080").
func New(base string) *Client {
	c := &Client{http: &http.Client{Timeout: 20 * time.Second}}
	c.SetBaseURL(base)
	return c
}

// SetHTTPClient swaps the transport; nil restores the default.
func (c *Client) SetHTTPClient(d Doer) {
	if d == nil {
		c.http = &http.Client{Timeout: 20 * time.Second}
		return
	}
	c.http = d
}

// SetBaseURL sets the backend root.
func (c *Client) SetBaseURL(base string) {
	c.base = strings.TrimRight(strings.TrimSpace(base), "/")
}

// SetSession installs an existing session.
func (c *Client) SetSession(token, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token, c.userID = token, userID
}

// ClearSession forgets the current session.
func (c *Client) ClearSession() { c.SetSession("", "") }

// UserID returns the current user id ("" when no session).
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Session returns the current bearer token and user id.
func (c *Client) Session() (token, userID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.userID
}

type sessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// EnsureSession returns the current user id, creating an anonymous
// session when none exists. Failures are errs.SessionMissing.
func (c *Client) EnsureSession(ctx context.Context) (string, error) {
	if id := c.UserID(); id != "" {
		return id, nil
	}
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, "/session", nil, &out); err != nil {
		return "", errs.Wrap(errs.KindSessionMissing, "create session", err)
	}
	if out.UserID == "" || out.Token == "" {
		return "", errs.New(errs.KindSessionMissing, "create session: empty response")
	}
	c.SetSession(out.Token, out.UserID)
	return out.UserID, nil
}

// CombineRequest is the oracle request body.
type CombineRequest struct {
	ElementA string  `json:"elementA"`
	ElementB string  `json:"elementB"`
	UserID   *string `json:"userId"`
	Mode     string  `json:"mode"`
}

// CombineResult is the oracle's answer.
type CombineResult struct {
	Element          string `json:"element"`
	Emoji            string `json:"emoji"`
	IsFirstDiscovery bool   `json:"isFirstDiscovery"`
}

type combineResponse struct {
	Success bool           `json:"success"`
	Result  *CombineResult `json:"result"`
	Error   string         `json:"error"`
}

// Combine asks the oracle for a ⊕ b. Any failure is errs.CombinationFailed.
func (c *Client) Combine(ctx context.Context, a, b string, op puzzle.Operator, userID string) (CombineResult, error) {
	req := CombineRequest{ElementA: a, ElementB: b, Mode: op.Mode()}
	if userID != "" {
		req.UserID = &userID
	}
	var out combineResponse
	if err := c.do(ctx, http.MethodPost, "/combine", req, &out); err != nil {
		return CombineResult{}, errs.Wrap(errs.KindCombinationFailed, "combine", err)
	}
	if !out.Success || out.Result == nil || strings.TrimSpace(out.Result.Element) == "" {
		return CombineResult{}, errs.New(errs.KindCombinationFailed, "combine: unsuccessful response")
	}
	return *out.Result, nil
}

type puzzleResponse struct {
	Success bool           `json:"success"`
	Puzzle  *puzzle.Puzzle `json:"puzzle"`
}

// FetchPuzzle loads the puzzle for date. 5xx responses are
// errs.PuzzleUnavailable; 404 is errs.NotFound.
func (c *Client) FetchPuzzle(ctx context.Context, date string) (*puzzle.Puzzle, error) {
	var out puzzleResponse
	err := c.do(ctx, http.MethodGet, "/puzzle?date="+url.QueryEscape(date), nil, &out)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, errs.Wrap(errs.KindNotFound, "fetch puzzle "+date, err)
		}
		return nil, errs.Wrap(errs.KindPuzzleUnavailable, "fetch puzzle "+date, err)
	}
	if !out.Success || out.Puzzle == nil {
		return nil, errs.New(errs.KindPuzzleUnavailable, "fetch puzzle "+date+": unsuccessful response")
	}
	if err := out.Puzzle.Validate(); err != nil {
		return nil, errs.Wrap(errs.KindPuzzleUnavailable, "fetch puzzle "+date, err)
	}
	return out.Puzzle, nil
}

// Completion is the daily completion record.
type Completion struct {
	PuzzleDate       string         `json:"puzzleDate"`
	PuzzleNumber     int            `json:"puzzleNumber"`
	ElapsedTime      int            `json:"elapsedTime"`
	MovesCount       int            `json:"movesCount"`
	ParMoves         int            `json:"parMoves"`
	ElementBank      []string       `json:"elementBank"`
	CombinationPath  []ledger.Entry `json:"combinationPath"`
	NewDiscoveries   int            `json:"newDiscoveries"`
	FirstDiscoveries int            `json:"firstDiscoveries"`
}

type completeResponse struct {
	Success bool           `json:"success"`
	Stats   progress.Stats `json:"stats"`
}

// Complete records a daily completion and returns the rolling stats.
func (c *Client) Complete(ctx context.Context, rec Completion) (progress.Stats, error) {
	var out completeResponse
	if err := c.do(ctx, http.MethodPost, "/complete", rec, &out); err != nil {
		return progress.Stats{}, errs.Wrap(errs.KindPersistenceNetwork, "record completion", err)
	}
	return out.Stats, nil
}

// LeaderboardEntry is a daily leaderboard submission.
type LeaderboardEntry struct {
	GameType   string         `json:"gameType"`
	PuzzleDate string         `json:"puzzleDate"`
	Score      int            `json:"score"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SubmitLeaderboard posts a leaderboard score.
func (c *Client) SubmitLeaderboard(ctx context.Context, e LeaderboardEntry) error {
	if err := c.do(ctx, http.MethodPost, "/leaderboard/daily", e, nil); err != nil {
		return errs.Wrap(errs.KindPersistenceNetwork, "submit leaderboard", err)
	}
	return nil
}

type slotResponse struct {
	Success bool                   `json:"success"`
	Save    *progress.CreativeSave `json:"save"`
}

// LoadSlot fetches a creative slot. ok is false for an empty slot.
func (c *Client) LoadSlot(ctx context.Context, slot int) (progress.CreativeSave, bool, error) {
	var out slotResponse
	if err := c.do(ctx, http.MethodGet, "/creative/save?slot="+strconv.Itoa(slot), nil, &out); err != nil {
		return progress.CreativeSave{}, false, errs.Wrap(errs.KindPersistenceNetwork, fmt.Sprintf("load slot %d", slot), err)
	}
	if out.Save == nil || out.Save.Empty() {
		return progress.CreativeSave{SlotNumber: slot}, false, nil
	}
	return *out.Save, true, nil
}

// SaveSlot writes a full creative save.
func (c *Client) SaveSlot(ctx context.Context, s progress.CreativeSave) error {
	if err := c.do(ctx, http.MethodPost, "/creative/save", s, nil); err != nil {
		return errs.Wrap(errs.KindPersistenceNetwork, fmt.Sprintf("save slot %d", s.SlotNumber), err)
	}
	return nil
}

// RenameSlot persists a slot name only.
func (c *Client) RenameSlot(ctx context.Context, slot int, name string) error {
	body := map[string]any{"slotNumber": slot, "name": name}
	if err := c.do(ctx, http.MethodPatch, "/creative/save", body, nil); err != nil {
		return errs.Wrap(errs.KindPersistenceNetwork, fmt.Sprintf("rename slot %d", slot), err)
	}
	return nil
}

// ClearSlot deletes one slot.
func (c *Client) ClearSlot(ctx context.Context, slot int) error {
	if err := c.do(ctx, http.MethodDelete, "/creative/save?slot="+strconv.Itoa(slot), nil, nil); err != nil {
		return errs.Wrap(errs.KindPersistenceNetwork, fmt.Sprintf("clear slot %d", slot), err)
	}
	return nil
}

type slotsResponse struct {
	Success bool                   `json:"success"`
	Slots   []progress.SlotSummary `json:"slots"`
}

// ListSlots returns the per-slot summaries.
func (c *Client) ListSlots(ctx context.Context) ([]progress.SlotSummary, error) {
	var out slotsResponse
	if err := c.do(ctx, http.MethodGet, "/creative/saves", nil, &out); err != nil {
		return nil, errs.Wrap(errs.KindPersistenceNetwork, "list slots", err)
	}
	return out.Slots, nil
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
