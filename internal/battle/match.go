// internal/battle/match.go
//
// Match state transitions and read views.
// Responsibilities:
//   - Create/join/enter lifecycle (waiting → playing → finished).
//   - Per-player submit: delegate to the current question's session,
//     record the question score, advance or finish.
//   - Status/result views that never leak the opponent's guess content
//     or any hidden target.
//
// Callers must run every mutating method inside the store's per-match
// serialization point.

package battle

import (
	"errors"
	"time"

	"github.com/mahjong-handle/go-server/internal/game"
	"github.com/mahjong-handle/go-server/internal/rules"
	"github.com/mahjong-handle/go-server/internal/score"
	"github.com/mahjong-handle/go-server/internal/tiles"
)

var (
	// ErrMatchFull rejects a third distinct player.
	ErrMatchFull = errors.New("match is full")
	// ErrNotInMatch rejects callers holding no slot.
	ErrNotInMatch = errors.New("user not in match")
	// ErrResultNotReady is the expected condition while either player is
	// still playing.
	ErrResultNotReady = errors.New("result not ready")
)

// IDFunc supplies identifiers for the per-question sessions.
type IDFunc func() string

// NewMatch creates a match around a pre-generated question bank and seats
// the host against question 0.
func NewMatch(id, hostID string, mode game.RuleMode, questions []game.Question, maxAttempts int, now time.Time, newID IDFunc) *Match {
	m := &Match{
		ID:            id,
		RuleMode:      mode,
		QuestionCount: len(questions),
		MaxAttempts:   maxAttempts,
		CreatedAt:     now,
		Questions:     questions,
		Status:        StatusWaiting,
	}
	m.seat(hostID, now, newID)
	return m
}

// Player returns the caller's progress, or nil.
func (m *Match) Player(userID string) *PlayerProgress {
	for _, p := range m.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (m *Match) opponentOf(userID string) *PlayerProgress {
	for _, p := range m.Players {
		if p.UserID != userID {
			return p
		}
	}
	return nil
}

func (m *Match) seat(userID string, now time.Time, newID IDFunc) *PlayerProgress {
	p := &PlayerProgress{
		UserID:         userID,
		JoinedAt:       now,
		Current:        game.NewSession(newID(), userID, m.RuleMode, m.MaxAttempts, m.Questions[0], now),
		QuestionScores: []int{},
	}
	m.Players = append(m.Players, p)
	return p
}

// Join seats a second player. Re-joining an already seated player is an
// idempotent no-op; a third distinct player gets ErrMatchFull. Two distinct
// seats flip the match from waiting to playing.
func (m *Match) Join(userID string, now time.Time, newID IDFunc) error {
	if m.Player(userID) != nil {
		return nil
	}
	if len(m.Players) >= MaxPlayers {
		return ErrMatchFull
	}
	m.seat(userID, now, newID)
	m.refreshStatus()
	return nil
}

// Enter records that a seated player opened the match. Best-effort: it
// never drives the waiting→playing transition, which Join owns.
func (m *Match) Enter(userID string, now time.Time) error {
	p := m.Player(userID)
	if p == nil {
		return ErrNotInMatch
	}
	t := now
	p.EnteredAt = &t
	return nil
}

// SubmitResult reports the caller's own progress after a submit. It never
// carries the opponent's state.
type SubmitResult struct {
	Attempt          game.Attempt
	QuestionIndex    int
	QuestionFinished bool
	QuestionWon      bool
	QuestionScore    int
	Remaining        int
	Finished         bool // the whole match, for this player
	TotalScore       int
}

// Submit applies a guess to the caller's current question session. When the
// question finishes its score is folded into the total and the player
// advances to the next pre-generated target, or is marked finished after
// the last one.
func (m *Match) Submit(userID string, guess tiles.Hand, scorer score.Func, now time.Time, newID IDFunc) (SubmitResult, error) {
	p := m.Player(userID)
	if p == nil {
		return SubmitResult{}, ErrNotInMatch
	}
	if p.Finished || p.Current == nil {
		return SubmitResult{}, game.ErrAlreadyFinished
	}

	att, err := p.Current.Submit(userID, guess, scorer, now)
	if err != nil {
		return SubmitResult{}, err
	}

	res := SubmitResult{
		Attempt:       att,
		QuestionIndex: p.CurrentQuestion,
		Remaining:     p.Current.Remaining(),
	}

	if p.Current.Finished {
		res.QuestionFinished = true
		res.QuestionWon = p.Current.Won
		res.QuestionScore = p.Current.Score
		p.QuestionScores = append(p.QuestionScores, p.Current.Score)
		p.TotalScore += p.Current.Score

		next := p.CurrentQuestion + 1
		p.CurrentQuestion = next
		if next >= m.QuestionCount {
			p.Finished = true
			t := now
			p.FinishedAt = &t
			p.Current = nil
		} else {
			p.Current = game.NewSession(newID(), userID, m.RuleMode, m.MaxAttempts, m.Questions[next], now)
		}
		m.refreshStatus()
	}

	res.Finished = p.Finished
	res.TotalScore = p.TotalScore
	return res, nil
}

func (m *Match) refreshStatus() {
	if len(m.Players) < MaxPlayers {
		m.Status = StatusWaiting
		return
	}
	for _, p := range m.Players {
		if !p.Finished {
			m.Status = StatusPlaying
			return
		}
	}
	m.Status = StatusFinished
}

// PlayerView is the per-player slice of a status view. The opponent's view
// deliberately omits hint and guess content.
type PlayerView struct {
	UserID          string      `json:"userId"`
	CurrentQuestion int         `json:"currentQuestion"`
	TotalScore      int         `json:"totalScore"`
	Finished        bool        `json:"finished"`
	QuestionScores  []int       `json:"questionScores"`
	Hint            *rules.Hint `json:"hint,omitempty"`
}

// StatusView is the symmetric polling payload.
type StatusView struct {
	MatchID       string        `json:"matchId"`
	Status        Status        `json:"status"`
	RuleMode      game.RuleMode `json:"ruleMode"`
	QuestionCount int           `json:"questionCount"`
	MaxAttempts   int           `json:"maxAttempts"`
	My            PlayerView    `json:"my"`
	Opponent      *PlayerView   `json:"opponent"`
}

// StatusFor builds the caller's status view. Read-only; safe to poll.
func (m *Match) StatusFor(userID string) (StatusView, error) {
	me := m.Player(userID)
	if me == nil {
		return StatusView{}, ErrNotInMatch
	}

	view := StatusView{
		MatchID:       m.ID,
		Status:        m.Status,
		RuleMode:      m.RuleMode,
		QuestionCount: m.QuestionCount,
		MaxAttempts:   m.MaxAttempts,
		My: PlayerView{
			UserID:          me.UserID,
			CurrentQuestion: me.CurrentQuestion,
			TotalScore:      me.TotalScore,
			Finished:        me.Finished,
			QuestionScores:  me.QuestionScores,
		},
	}
	if me.Current != nil && me.Current.Hint != nil {
		view.My.Hint = me.Current.Hint
	}
	if opp := m.opponentOf(userID); opp != nil {
		view.Opponent = &PlayerView{
			UserID:          opp.UserID,
			CurrentQuestion: opp.CurrentQuestion,
			TotalScore:      opp.TotalScore,
			Finished:        opp.Finished,
			QuestionScores:  opp.QuestionScores,
		}
	}
	return view, nil
}

// ResultPlayer is one row of the final standings.
type ResultPlayer struct {
	UserID         string     `json:"userId"`
	QuestionScores []int      `json:"questionScores"`
	TotalScore     int        `json:"totalScore"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
}

// ResultView is the final match outcome.
type ResultView struct {
	MatchID       string         `json:"matchId"`
	RuleMode      game.RuleMode  `json:"ruleMode"`
	QuestionCount int            `json:"questionCount"`
	Players       []ResultPlayer `json:"players"`
	WinnerUserID  *string        `json:"winnerUserId"`
	IsDraw        bool           `json:"isDraw"`
}

// ResultFor returns the outcome once both players are finished, and
// ErrResultNotReady before that. The winner holds the strictly higher
// total; equal totals are a draw.
func (m *Match) ResultFor(userID string) (ResultView, error) {
	if m.Player(userID) == nil {
		return ResultView{}, ErrNotInMatch
	}
	if m.Status != StatusFinished {
		return ResultView{}, ErrResultNotReady
	}

	view := ResultView{MatchID: m.ID, RuleMode: m.RuleMode, QuestionCount: m.QuestionCount}
	for _, p := range m.Players {
		view.Players = append(view.Players, ResultPlayer{
			UserID:         p.UserID,
			QuestionScores: p.QuestionScores,
			TotalScore:     p.TotalScore,
			FinishedAt:     p.FinishedAt,
		})
	}
	a, b := m.Players[0], m.Players[1]
	switch {
	case a.TotalScore == b.TotalScore:
		view.IsDraw = true
	case a.TotalScore > b.TotalScore:
		view.WinnerUserID = &a.UserID
	default:
		view.WinnerUserID = &b.UserID
	}
	return view, nil
}
