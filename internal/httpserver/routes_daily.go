// internal/httpserver/routes_daily.go
//
// Daily challenge endpoints (mounted only when SQLite is configured):
//   - POST /daily/start              → one deterministic hand per UTC date
//   - POST /daily/{gameID}/guess     → submit one guess, record on finish
//   - GET  /daily/leaderboard        → top finishers for a date
//
// The hidden hand is derived from HMAC(DAILY_SALT, date), so every player
// on a given date faces the same target. The session id is derived from the
// player and the date, which makes /daily/start naturally resumable and
// leaves all in-flight state to the entity store and its TTL. A player gets
// one recorded run per date.

package httpserver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mahjong-handle/go-server/internal/daily"
	"github.com/mahjong-handle/go-server/internal/game"
	"github.com/mahjong-handle/go-server/internal/gen"
	"github.com/mahjong-handle/go-server/internal/store"
)

type dailyServer struct {
	srv   *Server
	store *daily.Store
	salt  string
	mode  game.RuleMode
}

func (s *Server) mountDaily(r chi.Router) {
	mode, ok := game.ParseRuleMode(getEnv("DAILY_RULE_MODE", "riichi"))
	if !ok {
		mode = game.ModeRiichi
	}
	d := &dailyServer{
		srv:   s,
		store: daily.NewStore(s.db),
		salt:  getEnv("DAILY_SALT", "mahjong-handle"),
		mode:  mode,
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/start", d.handleStart)
		r.Post("/{gameID}/guess", d.handleGuess)
		r.Get("/leaderboard", d.handleLeaderboard)
	})
}

// dailyGameID derives the session id from the player and the date. The user
// id is hashed because it is client-supplied and ends up in URLs.
func dailyGameID(userID, date string) string {
	sum := sha256.Sum256([]byte(userID + "|" + date))
	return "daily-" + date + "-" + hex.EncodeToString(sum[:8])
}

// question builds the date's shared hidden hand. A fresh seeded generator
// per call keeps the result deterministic for the date.
func (d *dailyServer) question(date time.Time) (game.Question, error) {
	g := gen.NewSeeded(d.srv.rules, gen.DefaultMaxResample, daily.Seed(date, d.salt))
	return g.Generate(d.mode)
}

func (d *dailyServer) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := decode(r, &req); err != nil || userID(r, req.UserID) == "" {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "userId is required")
		return
	}
	uid := userID(r, req.UserID)
	now := d.srv.now()
	date := daily.DateKey(now)

	played, err := d.store.AlreadyPlayed(r.Context(), uid, date)
	if err != nil {
		d.srv.fail(w, err, "GAME_NOT_FOUND")
		return
	}
	if played {
		writeErr(w, http.StatusConflict, "DAILY_ALREADY_PLAYED", "already played today")
		return
	}

	// resume an in-progress run for the same date
	gameID := dailyGameID(uid, date)
	if sess, err := d.srv.store.GetSession(r.Context(), gameID); err == nil && !sess.Finished {
		data := startPayload(sess)
		data["date"] = date
		data["resumed"] = true
		writeOK(w, data)
		return
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		d.srv.fail(w, err, "GAME_NOT_FOUND")
		return
	}

	q, err := d.question(now)
	if err != nil {
		d.srv.fail(w, err, "GAME_NOT_FOUND")
		return
	}
	sess := game.NewSession(gameID, uid, d.mode, clampAttempts(req.MaxAttempts), q, now)
	if err := d.srv.store.SaveSession(r.Context(), sess); err != nil {
		d.srv.fail(w, err, "GAME_NOT_FOUND")
		return
	}

	log.Info().Str("gameId", sess.ID).Str("userId", uid).Str("date", date).Msg("daily_start")
	data := startPayload(sess)
	data["date"] = date
	writeOK(w, data)
}

func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decode(r, &req); err != nil || userID(r, req.UserID) == "" || req.Guess == "" {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "userId and guess are required")
		return
	}
	uid := userID(r, req.UserID)
	gameID := chi.URLParam(r, "gameID")
	if !strings.HasPrefix(gameID, "daily-") {
		writeErr(w, http.StatusNotFound, "GAME_NOT_FOUND", "unknown id")
		return
	}

	var att game.Attempt
	sess, err := d.srv.store.UpdateSession(r.Context(), gameID, func(sess *game.Session) error {
		hand, err := d.srv.parseGuess(sess, req.Guess)
		if err != nil {
			return err
		}
		att, err = sess.Submit(uid, hand, d.srv.scorer, d.srv.now())
		return err
	})
	if err != nil {
		d.srv.fail(w, err, "GAME_NOT_FOUND")
		return
	}

	if sess.Finished {
		elapsed := 0
		if sess.FinishedAt != nil {
			elapsed = int(sess.FinishedAt.Sub(sess.CreatedAt) / time.Millisecond)
		}
		res := daily.Result{
			UserID:    uid,
			Date:      daily.DateKey(sess.CreatedAt),
			Guesses:   len(sess.Attempts),
			ElapsedMs: elapsed,
			Score:     sess.Score,
			Won:       sess.Won,
		}
		if err := d.store.InsertResult(r.Context(), res); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("record daily result")
		}
	}
	writeOK(w, attemptPayload(sess, att))
}

func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "date must be YYYY-MM-DD")
		return
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		d.srv.fail(w, err, "GAME_NOT_FOUND")
		return
	}
	if rows == nil {
		rows = []daily.LBRow{}
	}
	writeOK(w, map[string]any{"date": date, "entries": rows})
}
