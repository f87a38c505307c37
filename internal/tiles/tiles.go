// internal/tiles/tiles.go
//
// Tile identity and hand representation.
// Defines:
//   - Tile: one of the 34 tile symbols ("1m".."9m", "1p".."9p", "1s".."9s", "1z".."7z").
//   - Hand: an ordered sequence of exactly 14 tiles.
//
// Tiles are compared by identity; the three numeric suits carry ranks 1-9,
// the honor suit ("z") carries ranks 1-7 (four winds, three dragons).

package tiles

// Tile is a two-character tile symbol: a rank digit followed by a suit letter.
type Tile string

const (
	// HandSize is the fixed number of tiles in a complete hand.
	HandSize = 14
	// TypeCount is the number of distinct tile symbols.
	TypeCount = 34
	// HonorRanks is the highest valid rank in the honor suit.
	HonorRanks = 7
)

// suitOrder fixes the canonical suit ordering used by Index and Encode.
var suitOrder = []byte{'m', 'p', 's', 'z'}

// Rank returns the tile's rank digit (1-9, honors 1-7), or 0 for a malformed tile.
func (t Tile) Rank() int {
	if len(t) != 2 || t[0] < '1' || t[0] > '9' {
		return 0
	}
	return int(t[0] - '0')
}

// Suit returns the tile's suit letter ('m', 'p', 's' or 'z'), or 0 if malformed.
func (t Tile) Suit() byte {
	if len(t) != 2 {
		return 0
	}
	switch t[1] {
	case 'm', 'p', 's', 'z':
		return t[1]
	}
	return 0
}

// IsHonor reports whether the tile belongs to the honor suit.
func (t Tile) IsHonor() bool { return t.Suit() == 'z' }

// Valid reports whether t names one of the 34 tile symbols.
func (t Tile) Valid() bool {
	r, s := t.Rank(), t.Suit()
	if r == 0 || s == 0 {
		return false
	}
	if s == 'z' {
		return r <= HonorRanks
	}
	return true
}

// Index maps a valid tile to 0..33 (man 0-8, pin 9-17, sou 18-26, honors 27-33).
// Returns -1 for an invalid tile.
func (t Tile) Index() int {
	if !t.Valid() {
		return -1
	}
	base := 0
	for _, s := range suitOrder {
		if s == t.Suit() {
			return base + t.Rank() - 1
		}
		base += 9
	}
	return -1
}

// FromIndex is the inverse of Index. It panics on an out-of-range index,
// which only a programming error can produce.
func FromIndex(i int) Tile {
	if i < 0 || i >= TypeCount {
		panic("tiles: index out of range")
	}
	return Tile([]byte{byte('1' + i%9), suitOrder[i/9]})
}

// Hand is an ordered sequence of tiles. A complete hand holds exactly
// HandSize tiles; order matters for positional comparison.
type Hand []Tile

// Counts returns the per-type multiset counts of the hand.
func (h Hand) Counts() [TypeCount]int {
	var c [TypeCount]int
	for _, t := range h {
		if i := t.Index(); i >= 0 {
			c[i]++
		}
	}
	return c
}

// Equal reports positional equality of two hands.
func (h Hand) Equal(o Hand) bool {
	if len(h) != len(o) {
		return false
	}
	for i := range h {
		if h[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the hand.
func (h Hand) Clone() Hand {
	out := make(Hand, len(h))
	copy(out, h)
	return out
}
