// internal/game/types.go
//
// Core type definitions for the guess engine.
// Defines:
//   - Verdict: per-position result of a guess (blue/orange/gray).
//   - RuleMode: which ruleset the hidden hand was generated under.
//   - Attempt: one recorded guess with its verdicts.
//   - Question: a hidden target hand plus its rule-aware metadata.
//   - Session: state for a single in-progress or finished guess session.

package game

import (
	"time"

	"github.com/mahjong-handle/go-server/internal/rules"
	"github.com/mahjong-handle/go-server/internal/tiles"
)

// Verdict is the evaluation result for a single tile position.
// Possible values:
//   - "blue":   tile is correct and in the correct position.
//   - "orange": tile exists in the target but in a different position.
//   - "gray":   tile is absent, or all its copies are already claimed.
type Verdict string

const (
	VerdictBlue   Verdict = "blue"
	VerdictOrange Verdict = "orange"
	VerdictGray   Verdict = "gray"
)

// RuleMode selects the generation/hint path for a session.
type RuleMode string

const (
	// ModeNormal samples any 14 tiles; no hint.
	ModeNormal RuleMode = "normal"
	// ModeRiichi constrains the hidden hand to a valid winning shape and
	// attaches a descriptive hint.
	ModeRiichi RuleMode = "riichi"
)

// ParseRuleMode validates a client-supplied mode string. Empty means normal.
func ParseRuleMode(s string) (RuleMode, bool) {
	switch RuleMode(s) {
	case "":
		return ModeNormal, true
	case ModeNormal, ModeRiichi:
		return RuleMode(s), true
	}
	return "", false
}

// Attempt is one recorded guess. Immutable once appended.
type Attempt struct {
	Tiles     tiles.Hand `json:"guessTiles14"`
	Verdicts  []Verdict  `json:"colors14"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Question bundles a hidden target hand with the table context it was
// generated under and the optional hint. Battle matches pre-generate a
// fixed list of these at creation.
type Question struct {
	Target tiles.Hand    `json:"target"`
	Table  rules.Context `json:"table"`
	Hint   *rules.Hint   `json:"hint,omitempty"`
}

// Session holds one player's bounded attempt sequence against one hidden
// hand. The target is never serialized to clients except through the
// explicit reveal path after a losing finish.
type Session struct {
	ID          string        `json:"gameId"`
	OwnerID     string        `json:"ownerId"`
	RuleMode    RuleMode      `json:"ruleMode"`
	MaxAttempts int           `json:"maxAttempts"`
	CreatedAt   time.Time     `json:"createdAt"`
	Target      tiles.Hand    `json:"target"`
	Table       rules.Context `json:"table"`
	Hint        *rules.Hint   `json:"hint,omitempty"`
	Attempts    []Attempt     `json:"attempts"`
	Finished    bool          `json:"finished"`
	Won         bool          `json:"won"`
	FinishedAt  *time.Time    `json:"finishedAt,omitempty"`
	Score       int           `json:"score"`
}

// NewSession constructs an active session for the given question.
func NewSession(id, ownerID string, mode RuleMode, maxAttempts int, q Question, now time.Time) *Session {
	return &Session{
		ID:          id,
		OwnerID:     ownerID,
		RuleMode:    mode,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		Target:      q.Target,
		Table:       q.Table,
		Hint:        q.Hint,
		Attempts:    []Attempt{},
	}
}

// Remaining reports how many attempts are still available.
func (s *Session) Remaining() int {
	r := s.MaxAttempts - len(s.Attempts)
	if r < 0 {
		return 0
	}
	return r
}
