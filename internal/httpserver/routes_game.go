// internal/httpserver/routes_game.go
//
// Single-player session endpoints:
//   - POST /game/start              → create a session against a hidden hand
//   - POST /game/{gameID}/guess     → submit one guess
//   - GET  /game/{gameID}/status    → full history, safe to poll/reconnect
//   - POST /game/{gameID}/reset     → archive the session, start a fresh one
//
// The hidden hand is revealed only after a losing finish.

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mahjong-handle/go-server/internal/game"
	"github.com/mahjong-handle/go-server/internal/tiles"
)

func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Post("/{gameID}/guess", s.handleGuess)
		r.Get("/{gameID}/status", s.handleStatus)
		r.Post("/{gameID}/reset", s.handleReset)
	})
}

type startReq struct {
	UserID      string `json:"userId"`
	RuleMode    string `json:"ruleMode"`
	MaxAttempts int    `json:"maxAttempts"`
}

// startSession generates a question and persists a fresh session for it.
func (s *Server) startSession(r *http.Request, uid string, mode game.RuleMode, maxAttempts int) (*game.Session, error) {
	q, err := s.gen.Generate(mode)
	if err != nil {
		return nil, err
	}
	sess := game.NewSession(s.newID(), uid, mode, maxAttempts, q, s.now())
	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func startPayload(sess *game.Session) map[string]any {
	data := map[string]any{
		"gameId":      sess.ID,
		"maxAttempts": sess.MaxAttempts,
		"createdAt":   sess.CreatedAt,
		"ruleMode":    sess.RuleMode,
	}
	if sess.Hint != nil {
		data["hint"] = sess.Hint
	}
	return data
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := decode(r, &req); err != nil || userID(r, req.UserID) == "" {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "userId is required")
		return
	}
	mode, ok := game.ParseRuleMode(req.RuleMode)
	if !ok {
		writeErr(w, http.StatusBadRequest, "INVALID_RULE_MODE", "ruleMode must be normal or riichi")
		return
	}

	sess, err := s.startSession(r, userID(r, req.UserID), mode, clampAttempts(req.MaxAttempts))
	if err != nil {
		s.fail(w, err, "GAME_NOT_FOUND")
		return
	}
	log.Info().Str("gameId", sess.ID).Str("userId", sess.OwnerID).
		Str("ruleMode", string(mode)).Int("maxAttempts", sess.MaxAttempts).Msg("game_start")
	writeOK(w, startPayload(sess))
}

type guessReq struct {
	UserID string `json:"userId"`
	Guess  string `json:"guess"`
}

// attemptPayload renders one submit outcome. The answer appears only on a
// losing finish; the score only once the session is finished.
func attemptPayload(sess *game.Session, att game.Attempt) map[string]any {
	data := map[string]any{
		"guessTiles14": att.Tiles,
		"colors14":     att.Verdicts,
		"createdAt":    att.CreatedAt,
		"remain":       sess.Remaining(),
		"finish":       sess.Finished,
		"win":          sess.Won,
	}
	if sess.Hint != nil {
		data["hint"] = sess.Hint
	}
	if sess.Finished {
		data["score"] = sess.Score
		if !sess.Won {
			data["answerTiles14"] = sess.Target
			data["answerStr"] = tiles.Encode(sess.Target)
		}
	}
	return data
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decode(r, &req); err != nil || userID(r, req.UserID) == "" || req.Guess == "" {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "userId and guess are required")
		return
	}
	uid := userID(r, req.UserID)
	gameID := chi.URLParam(r, "gameID")

	var att game.Attempt
	sess, err := s.store.UpdateSession(r.Context(), gameID, func(sess *game.Session) error {
		hand, err := s.parseGuess(sess, req.Guess)
		if err != nil {
			return err
		}
		att, err = sess.Submit(uid, hand, s.scorer, s.now())
		return err
	})
	if err != nil {
		s.fail(w, err, "GAME_NOT_FOUND")
		return
	}

	log.Info().Str("gameId", gameID).Str("userId", uid).
		Int("remain", sess.Remaining()).Bool("finish", sess.Finished).Bool("win", sess.Won).
		Msg("guess_ok")
	if sess.Finished {
		s.archiveSession(sess)
	}
	writeOK(w, attemptPayload(sess, att))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	uid := userID(r, r.URL.Query().Get("userId"))
	if uid == "" {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "userId is required")
		return
	}
	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		s.fail(w, err, "GAME_NOT_FOUND")
		return
	}
	if sess.OwnerID != uid {
		s.fail(w, game.ErrNotOwner, "GAME_NOT_FOUND")
		return
	}

	history := make([]map[string]any, 0, len(sess.Attempts))
	for _, a := range sess.Attempts {
		history = append(history, map[string]any{
			"guessTiles14": a.Tiles,
			"colors14":     a.Verdicts,
			"createdAt":    a.CreatedAt,
		})
	}
	data := map[string]any{
		"gameId":            sess.ID,
		"maxAttempts":       sess.MaxAttempts,
		"createdAt":         sess.CreatedAt,
		"ruleMode":          sess.RuleMode,
		"validAttemptCount": len(sess.Attempts),
		"remain":            sess.Remaining(),
		"finish":            sess.Finished,
		"win":               sess.Won,
		"history":           history,
	}
	if sess.Hint != nil {
		data["hint"] = sess.Hint
	}
	if sess.Finished {
		data["score"] = sess.Score
		if !sess.Won {
			data["answerTiles14"] = sess.Target
			data["answerStr"] = tiles.Encode(sess.Target)
		}
	}
	writeOK(w, data)
}

type resetReq struct {
	UserID      string `json:"userId"`
	RuleMode    string `json:"ruleMode"`
	MaxAttempts int    `json:"maxAttempts"`
}

// handleReset freezes the old session and starts a fresh one with a new
// identity. The old session stays readable for history.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetReq
	if err := decode(r, &req); err != nil || userID(r, req.UserID) == "" {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "userId is required")
		return
	}
	uid := userID(r, req.UserID)
	oldID := chi.URLParam(r, "gameID")

	old, err := s.store.UpdateSession(r.Context(), oldID, func(sess *game.Session) error {
		if sess.OwnerID != uid {
			return game.ErrNotOwner
		}
		if !sess.Finished {
			sess.Finished = true
			t := s.now()
			sess.FinishedAt = &t
		}
		return nil
	})
	if err != nil {
		s.fail(w, err, "GAME_NOT_FOUND")
		return
	}

	mode, ok := game.ParseRuleMode(req.RuleMode)
	if !ok {
		mode = old.RuleMode
	}
	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = old.MaxAttempts
	}
	sess, err := s.startSession(r, uid, mode, clampAttempts(maxAttempts))
	if err != nil {
		s.fail(w, err, "GAME_NOT_FOUND")
		return
	}
	log.Info().Str("oldGameId", oldID).Str("newGameId", sess.ID).Str("userId", uid).Msg("game_reset")
	writeOK(w, startPayload(sess))
}

// archiveSession persists a finished session to SQLite. Best effort,
// non-fatal if it fails.
func (s *Server) archiveSession(sess *game.Session) {
	if s.db == nil || !sess.Finished {
		return
	}
	finishedAt := ""
	if sess.FinishedAt != nil {
		finishedAt = sess.FinishedAt.Format(time.RFC3339)
	}
	won := 0
	if sess.Won {
		won = 1
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO results
		(game_id, user_id, rule_mode, won, attempts, score, started_at, finished_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		sess.ID, sess.OwnerID, string(sess.RuleMode), won, len(sess.Attempts), sess.Score,
		sess.CreatedAt.Format(time.RFC3339), finishedAt)
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("archive session result")
	}
}
