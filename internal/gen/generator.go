// internal/gen/generator.go
//
// Hidden-hand generation.
//
// Normal mode deals any 14 tiles from a 136-tile wall (four copies per
// type). Riichi mode constructs a candidate winning shape (four sets plus a
// pair, occasionally seven pairs), draws table winds and the self-draw flag,
// and asks the Rules Evaluator for an appraisal; unusable candidates are
// resampled up to a finite, configured budget. Exhausting the budget is a
// fatal generation failure, never a user-facing validation error.

package gen

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/mahjong-handle/go-server/internal/game"
	"github.com/mahjong-handle/go-server/internal/rules"
	"github.com/mahjong-handle/go-server/internal/tiles"
)

// ErrGenerationFailed reports resampling-budget exhaustion.
var ErrGenerationFailed = errors.New("hand generation failed")

// DefaultMaxResample bounds the riichi resampling loop.
const DefaultMaxResample = 500

// Generator produces hidden target hands per rule mode.
type Generator struct {
	rules       rules.Evaluator
	maxResample int

	mu  sync.Mutex // rand.Rand is not goroutine safe
	rng *rand.Rand
}

// New returns a generator seeded from the clock.
func New(ev rules.Evaluator, maxResample int) *Generator {
	return NewSeeded(ev, maxResample, time.Now().UnixNano())
}

// NewSeeded returns a deterministic generator. The daily mode derives its
// seed from the date so every player faces the same hidden hand.
func NewSeeded(ev rules.Evaluator, maxResample int, seed int64) *Generator {
	if maxResample <= 0 {
		maxResample = DefaultMaxResample
	}
	return &Generator{
		rules:       ev,
		maxResample: maxResample,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Generate produces a question for the given rule mode.
func (g *Generator) Generate(mode game.RuleMode) (game.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch mode {
	case game.ModeNormal:
		return game.Question{Target: g.dealAny()}, nil
	case game.ModeRiichi:
		return g.dealWinning()
	}
	return game.Question{}, fmt.Errorf("%w: unknown rule mode %q", ErrGenerationFailed, mode)
}

// dealAny draws 14 tiles from a full wall, so no type repeats more than
// four times.
func (g *Generator) dealAny() tiles.Hand {
	wall := make([]int, 0, 4*tiles.TypeCount)
	for i := 0; i < tiles.TypeCount; i++ {
		wall = append(wall, i, i, i, i)
	}
	g.rng.Shuffle(len(wall), func(i, j int) { wall[i], wall[j] = wall[j], wall[i] })

	hand := make(tiles.Hand, 0, tiles.HandSize)
	for _, idx := range wall[:tiles.HandSize] {
		hand = append(hand, tiles.FromIndex(idx))
	}
	return hand
}

// dealWinning resamples candidate winning shapes until the evaluator
// accepts one or the budget runs out.
func (g *Generator) dealWinning() (game.Question, error) {
	for attempt := 0; attempt < g.maxResample; attempt++ {
		hand, ok := g.buildWinningShape()
		if !ok {
			continue
		}
		ctx := rules.Context{
			RoundWind: rules.Wind(1 + g.rng.Intn(4)),
			SeatWind:  rules.Wind(1 + g.rng.Intn(4)),
			Tsumo:     g.rng.Intn(2) == 0,
		}
		appr, err := g.rules.Appraise(hand, hand[tiles.HandSize-1], ctx)
		if err != nil {
			continue
		}
		return game.Question{Target: hand, Table: ctx, Hint: appr.Hint(ctx)}, nil
	}
	return game.Question{}, fmt.Errorf("%w: no valid hand within %d attempts", ErrGenerationFailed, g.maxResample)
}

// buildWinningShape assembles a pair plus four sets (or seven pairs, one
// time in eight) under the four-copies bound, then arranges the tiles as 13
// sorted tiles plus the win tile in 14th position.
func (g *Generator) buildWinningShape() (tiles.Hand, bool) {
	var avail [tiles.TypeCount]int
	for i := range avail {
		avail[i] = 4
	}
	var picked []int

	if g.rng.Intn(8) == 0 {
		// seven pairs: seven distinct types
		perm := g.rng.Perm(tiles.TypeCount)
		for _, t := range perm[:7] {
			picked = append(picked, t, t)
		}
	} else {
		pair := g.rng.Intn(tiles.TypeCount)
		avail[pair] -= 2
		picked = append(picked, pair, pair)

		for set := 0; set < 4; set++ {
			if !g.pickSet(&avail, &picked) {
				return nil, false
			}
		}
	}
	return g.arrange(picked), true
}

// pickSet appends one random run or triplet that still fits availability.
func (g *Generator) pickSet(avail *[tiles.TypeCount]int, picked *[]int) bool {
	for tries := 0; tries < 40; tries++ {
		if g.rng.Intn(3) == 0 { // triplet
			t := g.rng.Intn(tiles.TypeCount)
			if avail[t] >= 3 {
				avail[t] -= 3
				*picked = append(*picked, t, t, t)
				return true
			}
			continue
		}
		// run: numeric suits only, start rank 1..7
		start := g.rng.Intn(3)*9 + g.rng.Intn(7)
		if avail[start] > 0 && avail[start+1] > 0 && avail[start+2] > 0 {
			avail[start]--
			avail[start+1]--
			avail[start+2]--
			*picked = append(*picked, start, start+1, start+2)
			return true
		}
	}
	return false
}

// arrange sorts 13 tiles and appends a randomly chosen win tile last.
func (g *Generator) arrange(picked []int) tiles.Hand {
	win := picked[g.rng.Intn(len(picked))]
	rest := make([]int, 0, len(picked)-1)
	removed := false
	for _, t := range picked {
		if !removed && t == win {
			removed = true
			continue
		}
		rest = append(rest, t)
	}
	sort.Ints(rest)

	hand := make(tiles.Hand, 0, tiles.HandSize)
	for _, t := range rest {
		hand = append(hand, tiles.FromIndex(t))
	}
	return append(hand, tiles.FromIndex(win))
}
