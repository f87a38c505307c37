package score

import (
	"testing"
	"time"
)

func TestDefaultLossScoresZero(t *testing.T) {
	if got := Default(6, time.Minute, false); got != 0 {
		t.Errorf("loss score = %d, want 0", got)
	}
}

func TestDefaultDecreasesWithAttempts(t *testing.T) {
	prev := Default(1, 10*time.Second, true)
	if prev <= 0 {
		t.Fatalf("first-attempt score = %d, want positive", prev)
	}
	for attempts := 2; attempts <= 6; attempts++ {
		got := Default(attempts, 10*time.Second, true)
		if got > prev {
			t.Errorf("score rose from %d to %d at %d attempts", prev, got, attempts)
		}
		prev = got
	}
}

func TestDefaultPenalizesSlowWins(t *testing.T) {
	fast := Default(3, 10*time.Second, true)
	slow := Default(3, 10*time.Minute, true)
	if slow > fast {
		t.Errorf("slow win scored %d, fast win %d", slow, fast)
	}
}

func TestDefaultNoTimePenaltyUnderGrace(t *testing.T) {
	a := Default(2, 5*time.Second, true)
	b := Default(2, 25*time.Second, true)
	if a != b {
		t.Errorf("scores differ under the grace window: %d vs %d", a, b)
	}
}
