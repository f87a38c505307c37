// internal/store/memory.go
//
// In-memory Store implementation.
// This is the default persistence layer: ephemeral, single-process, with a
// TTL sweep so abandoned entities eventually disappear.
//
// Characteristics:
//   - Entities are held as JSON blobs, so Get always hands out an
//     independent snapshot (same semantics as the Redis backend).
//   - Update serializes through the shared per-id lock.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mahjong-handle/go-server/internal/battle"
	"github.com/mahjong-handle/go-server/internal/game"
)

type memoryEntry struct {
	raw     []byte
	savedAt time.Time
}

type memory struct {
	ttl   time.Duration
	locks *keyLocks

	mu       sync.RWMutex // guards the maps
	sessions map[string]memoryEntry
	matches  map[string]memoryEntry
}

// NewMemory constructs the in-memory Store. A non-positive ttl disables
// expiry.
func NewMemory(ttl time.Duration) Store {
	return &memory{
		ttl:      ttl,
		locks:    newKeyLocks(),
		sessions: make(map[string]memoryEntry),
		matches:  make(map[string]memoryEntry),
	}
}

func (m *memory) Kind() string { return "memory" }

func (m *memory) Ping(ctx context.Context) error { return nil }

// gc drops expired entries. Called with m.mu held for writing.
func (m *memory) gc(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for _, entries := range []map[string]memoryEntry{m.sessions, m.matches} {
		for id, e := range entries {
			if now.Sub(e.savedAt) > m.ttl {
				delete(entries, id)
			}
		}
	}
}

func (m *memory) put(entries map[string]memoryEntry, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.gc(time.Now())
	entries[id] = memoryEntry{raw: raw, savedAt: time.Now()}
	m.mu.Unlock()
	return nil
}

func (m *memory) get(entries map[string]memoryEntry, id string, v any) error {
	m.mu.RLock()
	e, ok := entries[id]
	m.mu.RUnlock()
	if !ok || (m.ttl > 0 && time.Since(e.savedAt) > m.ttl) {
		return ErrNotFound
	}
	return json.Unmarshal(e.raw, v)
}

// --- sessions ---

func (m *memory) SaveSession(ctx context.Context, s *game.Session) error {
	return m.put(m.sessions, s.ID, s)
}

func (m *memory) GetSession(ctx context.Context, id string) (*game.Session, error) {
	var s game.Session
	if err := m.get(m.sessions, id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *memory) UpdateSession(ctx context.Context, id string, fn func(*game.Session) error) (*game.Session, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	s, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := m.SaveSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// --- matches ---

func (m *memory) SaveMatch(ctx context.Context, mt *battle.Match) error {
	return m.put(m.matches, mt.ID, mt)
}

func (m *memory) GetMatch(ctx context.Context, id string) (*battle.Match, error) {
	var mt battle.Match
	if err := m.get(m.matches, id, &mt); err != nil {
		return nil, err
	}
	return &mt, nil
}

func (m *memory) UpdateMatch(ctx context.Context, id string, fn func(*battle.Match) error) (*battle.Match, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	mt, err := m.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(mt); err != nil {
		return nil, err
	}
	if err := m.SaveMatch(ctx, mt); err != nil {
		return nil, err
	}
	return mt, nil
}
