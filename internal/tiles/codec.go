// internal/tiles/codec.go
//
// Compact-string hand codec.
//
// The wire format is runs of rank digits terminated by a suit letter,
// repeated across suits: "123m123p123s111z55z" expands to 14 tiles.
// "h" is accepted as an input alias for the honor suit. Parsing is pure
// and total over its error cases: malformed input yields a typed error,
// never a panic.

package tiles

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidTile marks input containing a character or rank that names no tile.
	ErrInvalidTile = errors.New("invalid tile")
	// ErrLengthMismatch marks input that does not expand to exactly HandSize tiles.
	ErrLengthMismatch = errors.New("hand length mismatch")
)

// ParseHand decodes a compact hand string into an ordered 14-tile hand.
// Whitespace is ignored. Digit order within a run is preserved, so the
// positional layout of the input survives into the parsed hand.
func ParseHand(raw string) (Hand, error) {
	s := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	var (
		hand Hand
		run  []byte
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= '0' && ch <= '9':
			run = append(run, ch)
		case ch == 'm' || ch == 'p' || ch == 's' || ch == 'z' || ch == 'h':
			suit := ch
			if suit == 'h' {
				suit = 'z'
			}
			if len(run) == 0 {
				return nil, fmt.Errorf("%w: suit %q with no ranks at offset %d", ErrInvalidTile, string(ch), i)
			}
			for _, d := range run {
				t := Tile([]byte{d, suit})
				if !t.Valid() {
					return nil, fmt.Errorf("%w: %q", ErrInvalidTile, string(t))
				}
				hand = append(hand, t)
			}
			run = run[:0]
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at offset %d", ErrInvalidTile, string(ch), i)
		}
	}
	if len(run) != 0 {
		return nil, fmt.Errorf("%w: trailing ranks %q with no suit", ErrInvalidTile, string(run))
	}
	if len(hand) != HandSize {
		return nil, fmt.Errorf("%w: got %d tiles, want %d", ErrLengthMismatch, len(hand), HandSize)
	}
	return hand, nil
}

// Encode renders a hand in canonical form: tiles sorted by Index and
// grouped per suit ("111m55z..."). Re-parsing an encoded hand yields the
// identical multiset, though not necessarily the original ordering.
func Encode(h Hand) string {
	sorted := h.Clone()
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index() < sorted[j].Index() })

	var b strings.Builder
	var cur byte
	for _, t := range sorted {
		if s := t.Suit(); s != cur {
			if cur != 0 {
				b.WriteByte(cur)
			}
			cur = s
		}
		b.WriteByte(byte('0' + t.Rank()))
	}
	if cur != 0 {
		b.WriteByte(cur)
	}
	return b.String()
}
