// internal/httpserver/auth.go
//
// Anonymous sessions and JWT middleware.
package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ctxUserKey is the context key type for the authenticated user id.
type ctxUserKey struct{}

// userFrom returns the authenticated user id, or "".
func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxUserKey{}).(string)
	return id
}

type sessionRes struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// handleSession mints an anonymous user and a token for it.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	if err := s.store.CreateUser(r.Context(), id, true); err != nil {
		log.Error().Err(err).Msg("create session user")
		fail(w, http.StatusInternalServerError, "session_failed")
		return
	}
	tok, _, err := s.signJWT(id)
	if err != nil {
		fail(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	writeJSON(w, http.StatusOK, sessionRes{Token: tok, UserID: id})
}

// signJWT creates an HS256 JWT carrying the user id.
func (s *Server) signJWT(id string) (string, time.Time, error) {
	now := s.clock.Now()
	exp := now.Add(s.expiry)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   id,
		"anon": true,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}

// parseToken validates tok and returns the user id it names.
func (s *Server) parseToken(ctx context.Context, tok string) (string, bool) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !t.Valid {
		return "", false
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", false
	}
	ok, err := s.store.HasUser(ctx, id)
	if err != nil {
		log.Warn().Err(err).Msg("lookup token user")
		return "", false
	}
	return id, ok
}

// withOptionalAuth decorates requests with the user id if a valid JWT is
// present. It never 401s.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearer(r); tok != "" {
				if id, ok := s.parseToken(r.Context(), tok); ok {
					r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid JWT.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearer(r)
			if tok == "" {
				fail(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			id, ok := s.parseToken(r.Context(), tok)
			if !ok {
				fail(w, http.StatusUnauthorized, "invalid_token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, id)))
		})
	}
}

// bearer extracts the token from "Authorization: Bearer <token>".
func bearer(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}
