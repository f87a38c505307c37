package tiles

import (
	"errors"
	"testing"
)

func TestParseHandValid(t *testing.T) {
	h, err := ParseHand("123m456p789s11223z")
	if err != nil {
		t.Fatalf("ParseHand: %v", err)
	}
	if len(h) != HandSize {
		t.Fatalf("got %d tiles, want %d", len(h), HandSize)
	}
	if h[0] != "1m" || h[3] != "4p" || h[9] != "1z" || h[13] != "3z" {
		t.Errorf("unexpected tile layout: %v", h)
	}
}

func TestParseHandPreservesOrder(t *testing.T) {
	h, err := ParseHand("321m456p789s11223z")
	if err != nil {
		t.Fatalf("ParseHand: %v", err)
	}
	if h[0] != "3m" || h[1] != "2m" || h[2] != "1m" {
		t.Errorf("digit order not preserved: %v", h[:3])
	}
}

func TestParseHandHonorAlias(t *testing.T) {
	a, err := ParseHand("123m456p789s11223h")
	if err != nil {
		t.Fatalf("ParseHand with h alias: %v", err)
	}
	b, err := ParseHand("123m456p789s11223z")
	if err != nil {
		t.Fatalf("ParseHand: %v", err)
	}
	if !a.Equal(b) {
		t.Errorf("h alias produced %v, want %v", a, b)
	}
}

func TestParseHandErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"honor rank out of range", "123m123p123s11z58z", ErrInvalidTile},
		{"unknown character", "123m123p123s11z5x5z", ErrInvalidTile},
		{"suit with no ranks", "m123m123p123s11z5z", ErrInvalidTile},
		{"trailing ranks", "123m123p123s11z55", ErrInvalidTile},
		{"too short", "123m123p123s1z", ErrLengthMismatch},
		{"too long", "123m123p123s11z5555z", ErrLengthMismatch},
		{"empty", "", ErrLengthMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseHand(tc.in); !errors.Is(err, tc.want) {
				t.Errorf("ParseHand(%q) = %v, want %v", tc.in, err, tc.want)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	h, err := ParseHand("55z321m1234p123s11z")
	if err != nil {
		t.Fatalf("ParseHand: %v", err)
	}
	enc := Encode(h)
	if enc != "123m1234p123s1155z" {
		t.Errorf("Encode = %q, want canonical sorted form", enc)
	}
	back, err := ParseHand(enc)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if back.Counts() != h.Counts() {
		t.Errorf("round trip changed the multiset")
	}
}

func TestTileIndexInverse(t *testing.T) {
	for i := 0; i < TypeCount; i++ {
		tl := FromIndex(i)
		if !tl.Valid() {
			t.Fatalf("FromIndex(%d) = %q invalid", i, tl)
		}
		if tl.Index() != i {
			t.Errorf("Index(FromIndex(%d)) = %d", i, tl.Index())
		}
	}
	if Tile("8z").Valid() {
		t.Error("8z should be invalid")
	}
	if Tile("0m").Valid() {
		t.Error("0m should be invalid")
	}
}
