package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mahjong-handle/go-server/internal/battle"
	"github.com/mahjong-handle/go-server/internal/game"
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

func newTestSession(t *testing.T, id string, maxAttempts int) *game.Session {
	t.Helper()
	q := game.Question{Target: mustHand(t, "123m456p789s11223z")}
	return game.NewSession(id, "u1", game.ModeNormal, maxAttempts, q, time.Now().UTC())
}

func TestMemoryNotFound(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()
	if _, err := m.GetSession(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession = %v, want ErrNotFound", err)
	}
	if _, err := m.UpdateSession(ctx, "nope", func(*game.Session) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateSession = %v, want ErrNotFound", err)
	}
	if _, err := m.GetMatch(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMatch = %v, want ErrNotFound", err)
	}
}

func TestMemorySnapshotIsolation(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()
	s := newTestSession(t, "g1", 6)
	if err := m.SaveSession(ctx, s); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := m.GetSession(ctx, "g1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	got.MaxAttempts = 99 // mutate the snapshot

	again, err := m.GetSession(ctx, "g1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if again.MaxAttempts != 6 {
		t.Errorf("stored state mutated through a snapshot: MaxAttempts = %d", again.MaxAttempts)
	}
}

func TestMemoryUpdateAbortsOnError(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()
	if err := m.SaveSession(ctx, newTestSession(t, "g1", 6)); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	boom := errors.New("boom")
	if _, err := m.UpdateSession(ctx, "g1", func(s *game.Session) error {
		s.MaxAttempts = 99
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("UpdateSession = %v, want boom", err)
	}

	s, err := m.GetSession(ctx, "g1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s.MaxAttempts != 6 {
		t.Errorf("aborted update leaked a write: MaxAttempts = %d", s.MaxAttempts)
	}
}

// TestMemoryUpdateSerializesSubmits hammers one session from many
// goroutines; the per-id lock must keep the attempt count at the budget.
func TestMemoryUpdateSerializesSubmits(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()
	if err := m.SaveSession(ctx, newTestSession(t, "g1", 6)); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	wrong := mustHand(t, "111m222p333s44455z")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.UpdateSession(ctx, "g1", func(s *game.Session) error {
				_, err := s.Submit("u1", wrong.Clone(), nil, time.Now().UTC())
				return err
			})
		}()
	}
	wg.Wait()

	s, err := m.GetSession(ctx, "g1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(s.Attempts) != 6 {
		t.Errorf("recorded %d attempts, want exactly 6", len(s.Attempts))
	}
	if !s.Finished || s.Won {
		t.Errorf("finished=%v won=%v, want finished loss", s.Finished, s.Won)
	}
}

// TestKeyLocksReleaseEntries verifies the refcounted per-id locks clean up
// after themselves: once the last holder releases, the entry is gone, and
// re-locking the same key still serializes.
func TestKeyLocksReleaseEntries(t *testing.T) {
	k := newKeyLocks()

	var wg sync.WaitGroup
	n := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.lock("g1")
			n++
			unlock()
		}()
	}
	wg.Wait()

	if n != 50 {
		t.Errorf("counter = %d, want 50; lock failed to serialize", n)
	}
	k.mu.Lock()
	remaining := len(k.locks)
	k.mu.Unlock()
	if remaining != 0 {
		t.Errorf("%d lock entries retained after release, want 0", remaining)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	m := NewMemory(time.Millisecond)
	ctx := context.Background()
	if err := m.SaveSession(ctx, newTestSession(t, "g1", 6)); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := m.GetSession(ctx, "g1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired session still readable: %v", err)
	}
}

func TestMemoryMatchRoundTrip(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()
	now := time.Now().UTC()
	q := []game.Question{{Target: mustHand(t, "123m456p789s11223z")}}
	mt := battle.NewMatch("m1", "host", game.ModeNormal, q, 6, now, func() string { return "s1" })
	if err := m.SaveMatch(ctx, mt); err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}

	got, err := m.UpdateMatch(ctx, "m1", func(mt *battle.Match) error {
		return mt.Join("guest", now, func() string { return "s2" })
	})
	if err != nil {
		t.Fatalf("UpdateMatch: %v", err)
	}
	if got.Status != battle.StatusPlaying {
		t.Errorf("status = %s, want playing", got.Status)
	}

	back, err := m.GetMatch(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if len(back.Players) != 2 || back.Players[1].UserID != "guest" {
		t.Errorf("join not persisted: %+v", back.Players)
	}
}
