// internal/httpserver/server.go
//
// HTTP wiring for the mahjong handle backend.
// Responsibilities:
//   - Router + middleware (request IDs, panic recovery, timeouts, JSON,
//     credentials-friendly CORS).
//   - Uniform response envelope {ok, data, error:{code,message}} with
//     stable, machine-distinguishable error codes.
//   - Public endpoints: "/", "/health", "/auth/guest".
//   - Game, battle and daily route groups (registered in their own files).
//
// Notes:
//   - Expected protocol conditions (MATCH_FULL, RESULT_NOT_READY, ...)
//     travel through the envelope's structured error, never as generic
//     failures; only generation exhaustion maps to a 500.
//   - The SQLite handle is optional: without it the result archive and the
//     daily mode are simply not mounted.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mahjong-handle/go-server/internal/battle"
	"github.com/mahjong-handle/go-server/internal/game"
	"github.com/mahjong-handle/go-server/internal/gen"
	"github.com/mahjong-handle/go-server/internal/rules"
	"github.com/mahjong-handle/go-server/internal/score"
	"github.com/mahjong-handle/go-server/internal/store"
	"github.com/mahjong-handle/go-server/internal/tiles"
)

// Server bundles router, entity store, generator and collaborators.
type Server struct {
	r      *chi.Mux
	store  store.Store
	db     *sql.DB
	gen    *gen.Generator
	rules  rules.Evaluator
	scorer score.Func

	now   func() time.Time
	newID func() string
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB, g *gen.Generator, ev rules.Evaluator, sc score.Func) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		store:  st,
		db:     db,
		gen:    g,
		rules:  ev,
		scorer: sc,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]any{
			"service":   "mahjong-handle-go",
			"endpoints": []string{"/health", "POST /auth/guest", "/game/*", "/battle/*", "/daily/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{"ok": true, "store": s.store.Kind()}
		if err := s.store.Ping(r.Context()); err != nil {
			data["ok"] = false
			data["storeError"] = err.Error()
		}
		writeOK(w, data)
	})

	s.r.Post("/auth/guest", s.handleGuestToken)

	s.r.Group(func(r chi.Router) {
		r.Use(s.withIdentity())
		s.mountGame(r)
		s.mountBattle(r)
		if s.db != nil {
			s.mountDaily(r)
		}
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", r.URL.Path)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

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

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ envelope -----------------------------------

type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Detail  map[string]any `json:"detail,omitempty"`
}

type envelope struct {
	OK    bool      `json:"ok"`
	Data  any       `json:"data"`
	Error *apiError `json:"error"`
}

func writeOK(w http.ResponseWriter, data any) {
	_ = json.NewEncoder(w).Encode(envelope{OK: true, Data: data})
}

func writeErr(w http.ResponseWriter, status int, code, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{OK: false, Error: &apiError{Code: code, Message: msg}})
}

// fail maps domain errors to stable codes. notFoundCode distinguishes the
// entity kind for unknown-id lookups.
func (s *Server) fail(w http.ResponseWriter, err error, notFoundCode string) {
	switch {
	case errors.Is(err, tiles.ErrLengthMismatch):
		writeErr(w, http.StatusBadRequest, "LENGTH_MISMATCH", err.Error())
	case errors.Is(err, tiles.ErrInvalidTile):
		writeErr(w, http.StatusBadRequest, "INVALID_GUESS_FORMAT", err.Error())
	case errors.Is(err, rules.ErrNotWinningHand):
		writeErr(w, http.StatusBadRequest, "NOT_WINNING_HAND", err.Error())
	case errors.Is(err, rules.ErrNoYaku):
		writeErr(w, http.StatusBadRequest, "NO_YAKU", err.Error())
	case errors.Is(err, game.ErrNotOwner):
		writeErr(w, http.StatusForbidden, "NOT_OWNER", err.Error())
	case errors.Is(err, game.ErrAlreadyFinished):
		writeErr(w, http.StatusConflict, "ALREADY_FINISHED", err.Error())
	case errors.Is(err, game.ErrAttemptsExhausted):
		writeErr(w, http.StatusConflict, "ATTEMPTS_EXHAUSTED", err.Error())
	case errors.Is(err, battle.ErrMatchFull):
		writeErr(w, http.StatusConflict, "MATCH_FULL", err.Error())
	case errors.Is(err, battle.ErrResultNotReady):
		writeErr(w, http.StatusConflict, "RESULT_NOT_READY", err.Error())
	case errors.Is(err, battle.ErrNotInMatch):
		writeErr(w, http.StatusForbidden, "USER_NOT_IN_MATCH", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeErr(w, http.StatusNotFound, notFoundCode, "unknown id")
	case errors.Is(err, gen.ErrGenerationFailed):
		log.Error().Err(err).Msg("hand generation exhausted its retry budget")
		writeErr(w, http.StatusInternalServerError, "GENERATION_FAILED", "could not generate a hand")
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeErr(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// decode parses a JSON body and rejects garbage early.
func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// parseGuess turns a raw guess string into a hand, applying the session's
// rule-mode validity checks. Validation failures happen before any attempt
// is consumed.
func (s *Server) parseGuess(sess *game.Session, raw string) (tiles.Hand, error) {
	hand, err := tiles.ParseHand(raw)
	if err != nil {
		return nil, err
	}
	if sess.RuleMode == game.ModeRiichi {
		if _, err := s.rules.Appraise(hand, hand[len(hand)-1], sess.Table); err != nil {
			return nil, err
		}
	}
	return hand, nil
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envInt returns an integer env var or def.
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// clampAttempts bounds a client-supplied attempt budget.
func clampAttempts(n int) int {
	if n <= 0 {
		return 6
	}
	if n > 20 {
		return 20
	}
	return n
}
