// internal/game/engine.go
//
// Guess evaluation and the session state machine.
// Responsibilities:
//   - Score a guess against the hidden target with the two-pass,
//     duplicate-aware algorithm.
//   - Apply guarded state transitions: Active → Finished(won/lost),
//     no transition out of Finished.
//
// Notes:
//   - Evaluate is pure; Submit is the only mutation path.
//   - Scoring is delegated to the injected score.Func at finish time.

package game

import (
	"errors"
	"time"

	"github.com/mahjong-handle/go-server/internal/score"
	"github.com/mahjong-handle/go-server/internal/tiles"
)

var (
	// ErrNotOwner rejects a caller who does not own the session.
	ErrNotOwner = errors.New("not session owner")
	// ErrAlreadyFinished rejects submissions to a finished session.
	ErrAlreadyFinished = errors.New("session already finished")
	// ErrAttemptsExhausted guards the attempt budget independently of the
	// finished flag.
	ErrAttemptsExhausted = errors.New("attempts exhausted")
)

// Evaluate scores a guess against the target.
//
// Pass 1: exact positional matches become blue and claim one copy of the
// tile type from the target's availability.
//
// Pass 2: remaining positions in increasing index order become orange while
// availability for their type lasts, gray afterwards. Ties among duplicate
// guessed tiles therefore break in favor of the earliest position.
//
// For every type t, blues(t)+oranges(t) never exceeds the target's count
// of t.
func Evaluate(target, guess tiles.Hand) []Verdict {
	n := len(guess)
	verdicts := make([]Verdict, n)
	avail := target.Counts()

	for i := 0; i < n; i++ {
		if guess[i] == target[i] {
			verdicts[i] = VerdictBlue
			avail[guess[i].Index()]--
		}
	}
	for i := 0; i < n; i++ {
		if verdicts[i] != "" {
			continue
		}
		if j := guess[i].Index(); j >= 0 && avail[j] > 0 {
			verdicts[i] = VerdictOrange
			avail[j]--
		} else {
			verdicts[i] = VerdictGray
		}
	}
	return verdicts
}

func allBlue(vs []Verdict) bool {
	for _, v := range vs {
		if v != VerdictBlue {
			return false
		}
	}
	return len(vs) > 0
}

// Submit validates ownership and state, scores the guess, appends the
// attempt and recomputes the finished/won flags. When the session finishes
// the injected scorer fixes its score (losses score per the scorer, wins
// per attempts and elapsed time).
func (s *Session) Submit(userID string, guess tiles.Hand, scorer score.Func, now time.Time) (Attempt, error) {
	if userID != s.OwnerID {
		return Attempt{}, ErrNotOwner
	}
	if s.Finished {
		return Attempt{}, ErrAlreadyFinished
	}
	if len(s.Attempts) >= s.MaxAttempts {
		return Attempt{}, ErrAttemptsExhausted
	}

	att := Attempt{
		Tiles:     guess.Clone(),
		Verdicts:  Evaluate(s.Target, guess),
		CreatedAt: now,
	}
	s.Attempts = append(s.Attempts, att)

	won := allBlue(att.Verdicts)
	if won || len(s.Attempts) == s.MaxAttempts {
		s.Finished = true
		s.Won = won
		t := now
		s.FinishedAt = &t
		if scorer != nil {
			s.Score = scorer(len(s.Attempts), now.Sub(s.CreatedAt), won)
		}
	}
	return att, nil
}
