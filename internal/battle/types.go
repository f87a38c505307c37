// internal/battle/types.go
//
// Data model for two-player battle matches.
//
// A match binds two players to one fixed, pre-generated list of hidden
// hands (the question bank). The bank is produced once at creation and
// never regenerated, so both players always face the identical sequence of
// targets regardless of pace or reconnects.

package battle

import (
	"time"

	"github.com/mahjong-handle/go-server/internal/game"
)

// Status is the match lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// MaxPlayers is the fixed slot count of a match.
const MaxPlayers = 2

// PlayerProgress tracks one player's march through the question bank.
type PlayerProgress struct {
	UserID          string        `json:"userId"`
	JoinedAt        time.Time     `json:"joinedAt"`
	EnteredAt       *time.Time    `json:"enteredAt,omitempty"` // best-effort presence signal
	CurrentQuestion int           `json:"currentQuestion"`
	Current         *game.Session `json:"currentGame,omitempty"` // nil once finished
	QuestionScores  []int         `json:"questionScores"`
	TotalScore      int           `json:"totalScore"`
	Finished        bool          `json:"finished"`
	FinishedAt      *time.Time    `json:"finishedAt,omitempty"`
}

// Match is the shared two-player entity. All mutation goes through the
// store's per-id serialization point; the struct itself is not locked.
type Match struct {
	ID            string            `json:"matchId"`
	RuleMode      game.RuleMode     `json:"ruleMode"`
	QuestionCount int               `json:"questionCount"`
	MaxAttempts   int               `json:"maxAttempts"` // per question
	CreatedAt     time.Time         `json:"createdAt"`
	Questions     []game.Question   `json:"questions"` // fixed at creation
	Status        Status            `json:"status"`
	Players       []*PlayerProgress `json:"players"` // host first
}
