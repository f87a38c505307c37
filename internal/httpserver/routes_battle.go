// internal/httpserver/routes_battle.go
//
// Two-player battle endpoints:
//   - POST /battle/create           → pre-generate the question bank, seat host
//   - POST /battle/{matchID}/join   → seat the second player
//   - POST /battle/{matchID}/enter  → presence marker for a seated player
//   - POST /battle/{matchID}/submit → guess against the caller's current question
//   - GET  /battle/{matchID}/status → symmetric polling view
//   - GET  /battle/{matchID}/result → final standings once both finished
//
// The question bank is generated once at create time so both players face
// identical hidden hands in identical order.

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mahjong-handle/go-server/internal/battle"
	"github.com/mahjong-handle/go-server/internal/game"
)

func (s *Server) mountBattle(r chi.Router) {
	r.Route("/battle", func(r chi.Router) {
		r.Post("/create", s.handleBattleCreate)
		r.Post("/{matchID}/join", s.handleBattleJoin)
		r.Post("/{matchID}/enter", s.handleBattleEnter)
		r.Post("/{matchID}/submit", s.handleBattleSubmit)
		r.Get("/{matchID}/status", s.handleBattleStatus)
		r.Get("/{matchID}/result", s.handleBattleResult)
	})
}

type battleCreateReq struct {
	UserID        string `json:"userId"`
	RuleMode      string `json:"ruleMode"`
	QuestionCount int    `json:"questionCount"`
	MaxAttempts   int    `json:"maxAttempts"`
}

func (s *Server) handleBattleCreate(w http.ResponseWriter, r *http.Request) {
	var req battleCreateReq
	if err := decode(r, &req); err != nil || userID(r, req.UserID) == "" {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "userId is required")
		return
	}
	mode, ok := game.ParseRuleMode(req.RuleMode)
	if !ok {
		writeErr(w, http.StatusBadRequest, "INVALID_RULE_MODE", "ruleMode must be normal or riichi")
		return
	}
	count := req.QuestionCount
	if count <= 0 {
		count = 3
	}
	if count > 10 {
		count = 10
	}

	questions := make([]game.Question, 0, count)
	for i := 0; i < count; i++ {
		q, err := s.gen.Generate(mode)
		if err != nil {
			s.fail(w, err, "MATCH_NOT_FOUND")
			return
		}
		questions = append(questions, q)
	}

	uid := userID(r, req.UserID)
	m := battle.NewMatch(s.newID(), uid, mode, questions, clampAttempts(req.MaxAttempts), s.now(), s.newID)
	if err := s.store.SaveMatch(r.Context(), m); err != nil {
		s.fail(w, err, "MATCH_NOT_FOUND")
		return
	}

	view, err := m.StatusFor(uid)
	if err != nil {
		s.fail(w, err, "MATCH_NOT_FOUND")
		return
	}
	log.Info().Str("matchId", m.ID).Str("userId", uid).
		Str("ruleMode", string(mode)).Int("questionCount", count).Msg("battle_create")
	// status fields spread at the top level, alongside the share link
	writeOK(w, map[string]any{
		"matchId":       m.ID,
		"shareUrl":      "/battle/" + m.ID,
		"status":        view.Status,
		"ruleMode":      view.RuleMode,
		"questionCount": view.QuestionCount,
		"maxAttempts":   view.MaxAttempts,
		"my":            view.My,
		"opponent":      view.Opponent,
	})
}

type battleUserReq struct {
	UserID string `json:"userId"`
}

func (s *Server) handleBattleJoin(w http.ResponseWriter, r *http.Request) {
	var req battleUserReq
	if err := decode(r, &req); err != nil || userID(r, req.UserID) == "" {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "userId is required")
		return
	}
	uid := userID(r, req.UserID)
	matchID := chi.URLParam(r, "matchID")

	m, err := s.store.UpdateMatch(r.Context(), matchID, func(m *battle.Match) error {
		return m.Join(uid, s.now(), s.newID)
	})
	if err != nil {
		s.fail(w, err, "MATCH_NOT_FOUND")
		return
	}

	view, err := m.StatusFor(uid)
	if err != nil {
		s.fail(w, err, "MATCH_NOT_FOUND")
		return
	}
	log.Info().Str("matchId", matchID).Str("userId", uid).Str("status", string(m.Status)).Msg("battle_join")
	writeOK(w, view)
}

func (s *Server) handleBattleEnter(w http.ResponseWriter, r *http.Request) {
	var req battleUserReq
	if err := decode(r, &req); err != nil || userID(r, req.UserID) == "" {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "userId is required")
		return
	}
	uid := userID(r, req.UserID)

	m, err := s.store.UpdateMatch(r.Context(), chi.URLParam(r, "matchID"), func(m *battle.Match) error {
		return m.Enter(uid, s.now())
	})
	if err != nil {
		s.fail(w, err, "MATCH_NOT_FOUND")
		return
	}
	view, err := m.StatusFor(uid)
	if err != nil {
		s.fail(w, err, "MATCH_NOT_FOUND")
		return
	}
	writeOK(w, view)
}

type battleSubmitReq struct {
	UserID string `json:"userId"`
	Guess  string `json:"guess"`
}

func (s *Server) handleBattleSubmit(w http.ResponseWriter, r *http.Request) {
	var req battleSubmitReq
	if err := decode(r, &req); err != nil || userID(r, req.UserID) == "" || req.Guess == "" {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "userId and guess are required")
		return
	}
	uid := userID(r, req.UserID)
	matchID := chi.URLParam(r, "matchID")

	var res battle.SubmitResult
	_, err := s.store.UpdateMatch(r.Context(), matchID, func(m *battle.Match) error {
		p := m.Player(uid)
		if p == nil {
			return battle.ErrNotInMatch
		}
		if p.Finished || p.Current == nil {
			return game.ErrAlreadyFinished
		}
		hand, err := s.parseGuess(p.Current, req.Guess)
		if err != nil {
			return err
		}
		res, err = m.Submit(uid, hand, s.scorer, s.now(), s.newID)
		return err
	})
	if err != nil {
		s.fail(w, err, "MATCH_NOT_FOUND")
		return
	}

	log.Info().Str("matchId", matchID).Str("userId", uid).
		Int("questionIndex", res.QuestionIndex).Bool("finish", res.Finished).Msg("battle_submit")
	writeOK(w, map[string]any{
		"questionIndex":    res.QuestionIndex,
		"questionFinished": res.QuestionFinished,
		"questionWon":      res.QuestionWon,
		"questionScore":    res.QuestionScore,
		"totalScore":       res.TotalScore,
		"finish":           res.Finished,
		"guess": map[string]any{
			"guessTiles14": res.Attempt.Tiles,
			"colors14":     res.Attempt.Verdicts,
			"createdAt":    res.Attempt.CreatedAt,
			"remain":       res.Remaining,
		},
	})
}

func (s *Server) handleBattleStatus(w http.ResponseWriter, r *http.Request) {
	uid := userID(r, r.URL.Query().Get("userId"))
	if uid == "" {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "userId is required")
		return
	}
	m, err := s.store.GetMatch(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		s.fail(w, err, "MATCH_NOT_FOUND")
		return
	}
	view, err := m.StatusFor(uid)
	if err != nil {
		s.fail(w, err, "MATCH_NOT_FOUND")
		return
	}
	writeOK(w, view)
}

func (s *Server) handleBattleResult(w http.ResponseWriter, r *http.Request) {
	uid := userID(r, r.URL.Query().Get("userId"))
	if uid == "" {
		writeErr(w, http.StatusBadRequest, "INVALID_REQUEST", "userId is required")
		return
	}
	m, err := s.store.GetMatch(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		s.fail(w, err, "MATCH_NOT_FOUND")
		return
	}
	view, err := m.ResultFor(uid)
	if err != nil {
		s.fail(w, err, "MATCH_NOT_FOUND")
		return
	}
	writeOK(w, view)
}
