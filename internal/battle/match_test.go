package battle

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mahjong-handle/go-server/internal/game"
	"github.com/mahjong-handle/go-server/internal/rules"
	"github.com/mahjong-handle/go-server/internal/tiles"
)

func mustHand(t *testing.T, raw string) tiles.Hand {
	t.Helper()
	h, err := tiles.ParseHand(raw)
	if err != nil {
		t.Fatalf("ParseHand(%q): %v", raw, err)
	}
	return h
}

func seqIDs() IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func winScorer(attempts int, elapsed time.Duration, won bool) int {
	if won {
		return 100
	}
	return 0
}

func testQuestions(t *testing.T) []game.Question {
	t.Helper()
	return []game.Question{
		{Target: mustHand(t, "123m456p789s11223z")},
		{Target: mustHand(t, "111m222p333s44455z")},
	}
}

func TestJoinLifecycle(t *testing.T) {
	now := time.Now().UTC()
	m := NewMatch("m1", "host", game.ModeNormal, testQuestions(t), 6, now, seqIDs())

	if m.Status != StatusWaiting {
		t.Errorf("status = %s, want waiting", m.Status)
	}
	if err := m.Join("host", now, seqIDs()); err != nil {
		t.Errorf("host rejoin: %v", err)
	}
	if len(m.Players) != 1 {
		t.Errorf("rejoin duplicated the host: %d players", len(m.Players))
	}

	if err := m.Join("guest", now, seqIDs()); err != nil {
		t.Fatalf("guest join: %v", err)
	}
	if m.Status != StatusPlaying {
		t.Errorf("status = %s, want playing", m.Status)
	}

	if err := m.Join("third", now, seqIDs()); !errors.Is(err, ErrMatchFull) {
		t.Errorf("third join = %v, want ErrMatchFull", err)
	}
}

func TestSameQuestionBank(t *testing.T) {
	now := time.Now().UTC()
	m := NewMatch("m1", "host", game.ModeNormal, testQuestions(t), 6, now, seqIDs())
	if err := m.Join("guest", now, seqIDs()); err != nil {
		t.Fatalf("join: %v", err)
	}
	a := m.Player("host").Current.Target
	b := m.Player("guest").Current.Target
	if !a.Equal(b) {
		t.Errorf("players face different first targets:\n%v\n%v", a, b)
	}
}

func TestEnterIsNonGating(t *testing.T) {
	now := time.Now().UTC()
	m := NewMatch("m1", "host", game.ModeNormal, testQuestions(t), 6, now, seqIDs())
	if err := m.Enter("host", now); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if m.Status != StatusWaiting {
		t.Errorf("Enter changed status to %s", m.Status)
	}
	if m.Player("host").EnteredAt == nil {
		t.Error("EnteredAt not recorded")
	}
	if err := m.Enter("stranger", now); !errors.Is(err, ErrNotInMatch) {
		t.Errorf("stranger Enter = %v, want ErrNotInMatch", err)
	}
}

func playThrough(t *testing.T, m *Match, userID string, now time.Time, newID IDFunc) {
	t.Helper()
	for !m.Player(userID).Finished {
		target := m.Player(userID).Current.Target
		if _, err := m.Submit(userID, target.Clone(), winScorer, now, newID); err != nil {
			t.Fatalf("submit for %s: %v", userID, err)
		}
	}
}

func TestSubmitAdvancesAndFinishes(t *testing.T) {
	now := time.Now().UTC()
	ids := seqIDs()
	m := NewMatch("m1", "host", game.ModeNormal, testQuestions(t), 6, now, ids)
	if err := m.Join("guest", now, ids); err != nil {
		t.Fatalf("join: %v", err)
	}

	res, err := m.Submit("host", m.Player("host").Current.Target.Clone(), winScorer, now, ids)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.QuestionFinished || !res.QuestionWon || res.QuestionScore != 100 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Finished {
		t.Error("player finished after one of two questions")
	}
	if got := m.Player("host").CurrentQuestion; got != 1 {
		t.Errorf("CurrentQuestion = %d, want 1", got)
	}

	res, err = m.Submit("host", m.Player("host").Current.Target.Clone(), winScorer, now, ids)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Finished || res.TotalScore != 200 {
		t.Errorf("final result: %+v", res)
	}
	if m.Player("host").Current != nil {
		t.Error("finished player still holds a session")
	}
	if m.Status != StatusPlaying {
		t.Errorf("status = %s, want playing while opponent runs", m.Status)
	}

	if _, err := m.Submit("host", mustHand(t, "123m456p789s11223z"), winScorer, now, ids); !errors.Is(err, game.ErrAlreadyFinished) {
		t.Errorf("post-finish submit = %v, want ErrAlreadyFinished", err)
	}
}

func TestResultWinnerAndDraw(t *testing.T) {
	now := time.Now().UTC()

	t.Run("not ready while playing", func(t *testing.T) {
		ids := seqIDs()
		m := NewMatch("m1", "host", game.ModeNormal, testQuestions(t), 1, now, ids)
		if err := m.Join("guest", now, ids); err != nil {
			t.Fatalf("join: %v", err)
		}
		if _, err := m.ResultFor("host"); !errors.Is(err, ErrResultNotReady) {
			t.Errorf("got %v, want ErrResultNotReady", err)
		}
	})

	t.Run("strictly higher total wins", func(t *testing.T) {
		ids := seqIDs()
		m := NewMatch("m1", "host", game.ModeNormal, testQuestions(t), 1, now, ids)
		if err := m.Join("guest", now, ids); err != nil {
			t.Fatalf("join: %v", err)
		}
		playThrough(t, m, "host", now, ids)
		// guest misses every question: maxAttempts 1 finishes each on the
		// first wrong guess
		wrong := mustHand(t, "999m999p999s55667z")
		for !m.Player("guest").Finished {
			if _, err := m.Submit("guest", wrong.Clone(), winScorer, now, ids); err != nil {
				t.Fatalf("guest submit: %v", err)
			}
		}

		view, err := m.ResultFor("guest")
		if err != nil {
			t.Fatalf("ResultFor: %v", err)
		}
		if view.IsDraw || view.WinnerUserID == nil || *view.WinnerUserID != "host" {
			t.Errorf("unexpected result view: %+v", view)
		}
		if view.RuleMode != game.ModeNormal {
			t.Errorf("result mode = %s, want normal", view.RuleMode)
		}
		for _, p := range view.Players {
			if len(p.QuestionScores) != m.QuestionCount {
				t.Errorf("player %s carries %d question scores, want %d",
					p.UserID, len(p.QuestionScores), m.QuestionCount)
			}
		}
	})

	t.Run("equal totals draw", func(t *testing.T) {
		ids := seqIDs()
		m := NewMatch("m1", "host", game.ModeNormal, testQuestions(t), 1, now, ids)
		if err := m.Join("guest", now, ids); err != nil {
			t.Fatalf("join: %v", err)
		}
		playThrough(t, m, "host", now, ids)
		playThrough(t, m, "guest", now, ids)

		if m.Status != StatusFinished {
			t.Fatalf("status = %s, want finished", m.Status)
		}
		view, err := m.ResultFor("host")
		if err != nil {
			t.Fatalf("ResultFor: %v", err)
		}
		if !view.IsDraw || view.WinnerUserID != nil {
			t.Errorf("unexpected result view: %+v", view)
		}
	})

	t.Run("stranger gets no result", func(t *testing.T) {
		ids := seqIDs()
		m := NewMatch("m1", "host", game.ModeNormal, testQuestions(t), 1, now, ids)
		if _, err := m.ResultFor("stranger"); !errors.Is(err, ErrNotInMatch) {
			t.Errorf("got %v, want ErrNotInMatch", err)
		}
	})
}

func TestStatusViewHidesOpponentHint(t *testing.T) {
	now := time.Now().UTC()
	ids := seqIDs()
	questions := testQuestions(t)
	for i := range questions {
		questions[i].Hint = &rules.Hint{PatternTip: "seven pairs", PointTip: "3 han (including riichi)"}
	}
	m := NewMatch("m1", "host", game.ModeRiichi, questions, 6, now, ids)
	if err := m.Join("guest", now, ids); err != nil {
		t.Fatalf("join: %v", err)
	}

	view, err := m.StatusFor("host")
	if err != nil {
		t.Fatalf("StatusFor: %v", err)
	}
	if view.My.Hint == nil || view.My.Hint.PatternTip != "seven pairs" {
		t.Errorf("own hint missing or wrong: %+v", view.My.Hint)
	}
	if view.Opponent == nil {
		t.Fatal("opponent view missing")
	}
	if view.Opponent.Hint != nil {
		t.Error("opponent view leaks the hint")
	}
	if view.My.UserID != "host" || view.Opponent.UserID != "guest" {
		t.Errorf("view identities wrong: %+v", view)
	}
}
