// internal/rules/standard.go
//
// Standard riichi-flavoured Evaluator implementation.
//
// Shape detection works on [34]int multiset counts: a hand is complete when
// it decomposes into four sets (runs or triplets) plus a pair, or forms one
// of the accepted special shapes (seven pairs, thirteen orphans). Pattern
// tags are descriptive names with small values; this is deliberately not a
// full yaku/fu table.

package rules

import (
	"fmt"

	"github.com/mahjong-handle/go-server/internal/tiles"
)

// Standard is the built-in Evaluator.
type Standard struct{}

// NewStandard returns the built-in rules evaluator.
func NewStandard() *Standard { return &Standard{} }

// Appraise checks the hand for a complete winning shape and derives its
// descriptive pattern tags. The win tile is the hand's 14th tile; it is
// accepted as a parameter so alternative evaluators can weight it.
func (e *Standard) Appraise(h tiles.Hand, winTile tiles.Tile, ctx Context) (Appraisal, error) {
	if len(h) != tiles.HandSize || !winTile.Valid() {
		return Appraisal{}, ErrNotWinningHand
	}
	c := h.Counts()
	total := 0
	for _, n := range c {
		if n > 4 {
			return Appraisal{}, ErrNotWinningHand
		}
		total += n
	}
	if total != tiles.HandSize {
		return Appraisal{}, ErrNotWinningHand
	}

	orphans := isThirteenOrphans(c)
	pairs := isSevenPairs(c)
	standard := isStandardShape(c)
	if !orphans && !pairs && !standard {
		return Appraisal{}, ErrNotWinningHand
	}

	var patterns []string
	add := func(name string, ok bool) {
		if ok {
			patterns = append(patterns, name)
		}
	}

	add("thirteen orphans", orphans)
	add("seven pairs", pairs && !standard)
	if !orphans {
		add("all triplets", standard && isAllTriplets(c))
		add("all sequences", standard && isAllSequences(c))
		add("all simples", isAllSimples(c))
		add("all terminals and honors", isAllTerminalsHonors(c))
		if full, half := flushKind(c); full {
			add("full flush", true)
		} else {
			add("half flush", half)
		}
		add("white dragon triplet", c[31] >= 3)
		add("green dragon triplet", c[32] >= 3)
		add("red dragon triplet", c[33] >= 3)
		if i := ctx.SeatWind.Tile().Index(); i >= 0 && c[i] >= 3 {
			add("seat wind triplet", true)
		}
		if i := ctx.RoundWind.Tile().Index(); i >= 0 && c[i] >= 3 {
			add("round wind triplet", true)
		}
	}

	han := 1 // riichi base, matching the game's fixed table config
	if ctx.Tsumo {
		han++
	}
	for _, p := range patterns {
		han += patternHan[p]
	}
	return Appraisal{Patterns: patterns, Han: han}, nil
}

// patternHan values are indicative, not a scoring table.
var patternHan = map[string]int{
	"thirteen orphans":         13,
	"seven pairs":              2,
	"all triplets":             2,
	"all sequences":            1,
	"all simples":              1,
	"all terminals and honors": 2,
	"full flush":               6,
	"half flush":               3,
	"white dragon triplet":     1,
	"green dragon triplet":     1,
	"red dragon triplet":       1,
	"seat wind triplet":        1,
	"round wind triplet":       1,
}

// Hint renders the appraisal as the client-facing hint payload.
func (a Appraisal) Hint(ctx Context) *Hint {
	tip := ""
	for i, p := range a.Patterns {
		if i > 0 {
			tip += " / "
		}
		tip += p
	}
	draw := "ron"
	if ctx.Tsumo {
		draw = "tsumo"
	}
	return &Hint{
		PatternTip: tip,
		PointTip:   fmt.Sprintf("%d han (including riichi)", a.Han),
		WindTip:    fmt.Sprintf("seat wind: %s, round wind: %s", ctx.SeatWind, ctx.RoundWind),
		DrawTip:    draw,
	}
}

// ----------------------------- shape checks --------------------------------

func isTerminalOrHonor(i int) bool {
	return i >= 27 || i%9 == 0 || i%9 == 8
}

func isAllSimples(c [34]int) bool {
	for i, n := range c {
		if n > 0 && isTerminalOrHonor(i) {
			return false
		}
	}
	return true
}

func isAllTerminalsHonors(c [34]int) bool {
	for i, n := range c {
		if n > 0 && !isTerminalOrHonor(i) {
			return false
		}
	}
	return true
}

// flushKind reports (full, half): a single numeric suit with no honors, or
// a single numeric suit mixed with honors.
func flushKind(c [34]int) (bool, bool) {
	suits := 0
	honors := false
	for s := 0; s < 3; s++ {
		for r := 0; r < 9; r++ {
			if c[s*9+r] > 0 {
				suits |= 1 << s
				break
			}
		}
	}
	for i := 27; i < 34; i++ {
		if c[i] > 0 {
			honors = true
			break
		}
	}
	one := suits == 1 || suits == 2 || suits == 4
	return one && !honors, one && honors
}

func isSevenPairs(c [34]int) bool {
	pairs := 0
	for _, n := range c {
		switch n {
		case 0:
		case 2:
			pairs++
		default:
			return false
		}
	}
	return pairs == 7
}

// isThirteenOrphans: one of each terminal/honor plus one duplicate.
func isThirteenOrphans(c [34]int) bool {
	seenPair := false
	for i, n := range c {
		if n == 0 {
			continue
		}
		if !isTerminalOrHonor(i) || n > 2 {
			return false
		}
		if n == 2 {
			if seenPair {
				return false
			}
			seenPair = true
		}
	}
	// 12 singles + 1 pair over the 13 orphan types
	for i := 0; i < 34; i++ {
		if isTerminalOrHonor(i) && c[i] == 0 {
			return false
		}
	}
	return seenPair
}

// isStandardShape: four sets plus a pair.
func isStandardShape(c [34]int) bool {
	for p := 0; p < 34; p++ {
		if c[p] < 2 {
			continue
		}
		c[p] -= 2
		ok := canFormSets(&c, 0, false)
		c[p] += 2
		if ok {
			return true
		}
	}
	return false
}

// isAllTriplets: a pair plus four triplets.
func isAllTriplets(c [34]int) bool {
	pair := -1
	for i, n := range c {
		switch n % 3 {
		case 0:
		case 2:
			if pair >= 0 {
				return false
			}
			pair = i
		default:
			return false
		}
	}
	return pair >= 0
}

// isAllSequences: a pair plus four runs.
func isAllSequences(c [34]int) bool {
	for p := 0; p < 34; p++ {
		if c[p] < 2 {
			continue
		}
		c[p] -= 2
		ok := canFormSets(&c, 0, true)
		c[p] += 2
		if ok {
			return true
		}
	}
	return false
}

// canFormSets decomposes the remaining counts into runs and (unless
// runsOnly) triplets. Standard backtracking over the sorted tile space.
func canFormSets(c *[34]int, i int, runsOnly bool) bool {
	for i < 34 && c[i] == 0 {
		i++
	}
	if i == 34 {
		return true
	}
	if !runsOnly && c[i] >= 3 {
		c[i] -= 3
		ok := canFormSets(c, i, runsOnly)
		c[i] += 3
		if ok {
			return true
		}
	}
	if i < 27 && i%9 <= 6 && c[i+1] > 0 && c[i+2] > 0 {
		c[i]--
		c[i+1]--
		c[i+2]--
		ok := canFormSets(c, i, runsOnly)
		c[i]++
		c[i+1]++
		c[i+2]++
		if ok {
			return true
		}
	}
	return false
}
