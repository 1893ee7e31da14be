// internal/httpserver/server.go
//
// HTTP server wiring for the alchemy reference backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", POST /session.
//   - Optional auth: POST /combine, GET /puzzle, GET /leaderboard/daily.
//   - Require auth: POST /complete, POST /leaderboard/daily, /creative/*.
//   - Co-op relay: /coop/ws.
//
// Notes:
//   - Sessions are anonymous; POST /session mints a user id and an HS256 JWT.
//   - Optional auth decorates requests with the user when a valid token is
//     present; routes can still run for guests.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/alchemy/internal/clock"
	"github.com/robalobadob/alchemy/internal/daily"
	"github.com/robalobadob/alchemy/internal/recipes"
	"github.com/robalobadob/alchemy/internal/store"
)

// Options configures a Server. Zero values pick development defaults.
type Options struct {
	Store    *store.Store
	Book     *recipes.Book
	Calendar *recipes.Calendar

	JWTSecret    string
	JWTExpiry    time.Duration
	ClientOrigin string
	Clock        clock.Provider
}

// Server bundles the router with the backend dependencies.
type Server struct {
	r     *chi.Mux
	store *store.Store
	book  *recipes.Book
	cal   *recipes.Calendar
	clock clock.Provider
	hub   *hub

	secret []byte
	expiry time.Duration
	origin string
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		store:  opts.Store,
		book:   opts.Book,
		cal:    opts.Calendar,
		clock:  opts.Clock,
		hub:    newHub(),
		secret: []byte(opts.JWTSecret),
		expiry: opts.JWTExpiry,
		origin: opts.ClientOrigin,
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if len(s.secret) == 0 {
		s.secret = []byte("dev_secret_change_me")
	}
	if s.expiry <= 0 {
		s.expiry = 14 * 24 * time.Hour
	}
	if s.origin == "" {
		s.origin = "http://localhost:5173"
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(s.cors)

	// The relay holds its connection open, so it skips the JSON and
	// timeout middleware.
	s.r.With(s.withOptionalAuth()).Get("/coop/ws", s.handleCoopWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"alchemy","endpoints":["/health","POST /session","POST /combine","GET /puzzle","POST /complete","/leaderboard/daily","/creative/*","/coop/ws"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Post("/session", s.handleSession)

		r.Group(func(r chi.Router) {
			r.Use(s.withOptionalAuth())
			r.Post("/combine", s.handleCombine)
			r.Get("/puzzle", s.handlePuzzle)
			r.Get("/leaderboard/daily", s.handleLeaderboard)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth())
			r.Post("/complete", s.handleComplete)
			r.Post("/leaderboard/daily", s.handleSubmitScore)
			s.mountCreative(r)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
		})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// fail writes {"error":code}.
func fail(w http.ResponseWriter, status int, code string) {
	http.Error(w, `{"error":"`+code+`"}`, status)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20))
	return dec.Decode(v) == nil
}

func (s *Server) today() string {
	return daily.DateKey(s.clock.Now())
}
