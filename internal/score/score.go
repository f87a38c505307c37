// internal/score/score.go
//
// Pluggable session scoring.
//
// The engine only fixes the contract: attempts used, elapsed time and the
// win flag go in, an opaque integer comes out, losses are worth zero. The
// default implementation decays exponentially with attempts and gently with
// time past a 30-second grace window.

package score

import (
	"math"
	"time"
)

// Func computes a finished session's score.
type Func func(attempts int, elapsed time.Duration, won bool) int

// Default is the scorer used unless a deployment injects its own.
func Default(attempts int, elapsed time.Duration, won bool) int {
	if !won {
		return 0
	}
	f := math.Exp(-0.3 * (float64(attempts) - 1))
	t := elapsed.Seconds()
	g := 1.0 / (1.0 + 0.005*math.Max(0, t-30))
	return int(1500 * (0.9*f + 0.1*g) * (0.6 + 0.4*f*g))
}
