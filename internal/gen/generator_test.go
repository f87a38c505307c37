package gen

import (
	"errors"
	"testing"

	"github.com/mahjong-handle/go-server/internal/game"
	"github.com/mahjong-handle/go-server/internal/rules"
	"github.com/mahjong-handle/go-server/internal/tiles"
)

func TestGenerateNormal(t *testing.T) {
	g := NewSeeded(rules.NewStandard(), DefaultMaxResample, 1)
	for i := 0; i < 50; i++ {
		q, err := g.Generate(game.ModeNormal)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(q.Target) != tiles.HandSize {
			t.Fatalf("got %d tiles", len(q.Target))
		}
		for j, n := range q.Target.Counts() {
			if n > 4 {
				t.Errorf("tile %s appears %d times", tiles.FromIndex(j), n)
			}
		}
		for _, tl := range q.Target {
			if !tl.Valid() {
				t.Errorf("invalid tile %q", tl)
			}
		}
		if q.Hint != nil {
			t.Error("normal mode must not carry a hint")
		}
	}
}

func TestGenerateRiichi(t *testing.T) {
	ev := rules.NewStandard()
	g := NewSeeded(ev, DefaultMaxResample, 2)
	for i := 0; i < 50; i++ {
		q, err := g.Generate(game.ModeRiichi)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(q.Target) != tiles.HandSize {
			t.Fatalf("got %d tiles", len(q.Target))
		}
		// the target must be a hand the evaluator accepts under its own context
		if _, err := ev.Appraise(q.Target, q.Target[tiles.HandSize-1], q.Table); err != nil {
			t.Errorf("generated hand rejected: %v (%s)", err, tiles.Encode(q.Target))
		}
		if q.Hint == nil {
			t.Error("riichi mode must carry a hint")
		}
		if w := q.Table.SeatWind; w < rules.East || w > rules.North {
			t.Errorf("seat wind out of range: %d", w)
		}
	}
}

func TestGenerateDeterministicBySeed(t *testing.T) {
	a := NewSeeded(rules.NewStandard(), DefaultMaxResample, 42)
	b := NewSeeded(rules.NewStandard(), DefaultMaxResample, 42)
	qa, err := a.Generate(game.ModeRiichi)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	qb, err := b.Generate(game.ModeRiichi)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !qa.Target.Equal(qb.Target) {
		t.Errorf("same seed produced different hands:\n%v\n%v", qa.Target, qb.Target)
	}
	if qa.Table != qb.Table {
		t.Errorf("same seed produced different contexts: %+v vs %+v", qa.Table, qb.Table)
	}
}

// rejectAll refuses every hand, forcing the resample loop to its budget.
type rejectAll struct{}

func (rejectAll) Appraise(tiles.Hand, tiles.Tile, rules.Context) (rules.Appraisal, error) {
	return rules.Appraisal{}, rules.ErrNotWinningHand
}

func TestGenerateBudgetExhaustion(t *testing.T) {
	g := NewSeeded(rejectAll{}, 10, 3)
	if _, err := g.Generate(game.ModeRiichi); !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("got %v, want ErrGenerationFailed", err)
	}
}

func TestGenerateUnknownMode(t *testing.T) {
	g := NewSeeded(rules.NewStandard(), DefaultMaxResample, 4)
	if _, err := g.Generate(game.RuleMode("bogus")); !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("got %v, want ErrGenerationFailed", err)
	}
}
