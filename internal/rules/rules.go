// internal/rules/rules.go
//
// Rules Evaluator collaborator interface.
//
// The guess engine treats mahjong validity/pattern knowledge as an external
// concern: it hands a 14-tile hand plus table context to an Evaluator and
// gets back descriptive tags only. No scoring tables live outside this
// package, and session/battle code never inspects tile patterns itself.

package rules

import (
	"errors"

	"github.com/mahjong-handle/go-server/internal/tiles"
)

var (
	// ErrNotWinningHand marks a hand that does not form a complete winning shape.
	ErrNotWinningHand = errors.New("not a winning hand")
	// ErrNoYaku marks a complete shape worth zero points under the evaluator.
	ErrNoYaku = errors.New("hand has no yaku")
)

// Wind identifies a table wind (1=East .. 4=North).
type Wind int

const (
	East Wind = 1 + iota
	South
	West
	North
)

func (w Wind) String() string {
	switch w {
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	case North:
		return "North"
	}
	return "?"
}

// Tile returns the honor tile matching the wind ("1z".."4z").
func (w Wind) Tile() tiles.Tile {
	if w < East || w > North {
		return ""
	}
	return tiles.Tile([]byte{byte('0' + w), 'z'})
}

// Context carries the table state a hand is appraised under.
type Context struct {
	RoundWind Wind `json:"roundWind"`
	SeatWind  Wind `json:"seatWind"`
	Tsumo     bool `json:"tsumo"` // won by self-draw rather than discard
}

// Appraisal is the evaluator's descriptive verdict on a complete hand.
type Appraisal struct {
	Patterns []string `json:"patterns"` // named scoring patterns, riichi excluded
	Han      int      `json:"han"`      // total value including the riichi base
}

// Hint is the optional descriptive metadata attached to a rule-aware
// session. Field names match the client contract.
type Hint struct {
	PatternTip string `json:"yakuTip"`
	PointTip   string `json:"hanTip"`
	WindTip    string `json:"windTip"`
	DrawTip    string `json:"isTsumo"`
}

// Evaluator appraises complete hands. Appraise returns ErrNotWinningHand
// for an incomplete shape and ErrNoYaku for a worthless one; any other
// error is an evaluator fault.
type Evaluator interface {
	Appraise(h tiles.Hand, winTile tiles.Tile, ctx Context) (Appraisal, error)
}
