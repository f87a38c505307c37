// internal/store/store.go
//
// Persistence for sessions and matches.
//
// Store defines the persistence contract. Implementations may be backed by
// memory (this package), Redis, SQL, etc. The Update methods are the single
// serialization point per entity id that the engine's check-then-act
// transitions rely on: the mutation closure runs under a per-id lock and
// the result is written back before the lock releases. Reads return
// snapshots and may run fully concurrently. Entities are never deleted
// explicitly; expiry is the TTL's job in both backends.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/mahjong-handle/go-server/internal/battle"
	"github.com/mahjong-handle/go-server/internal/game"
)

// ErrNotFound is returned for unknown session or match ids.
var ErrNotFound = errors.New("not found")

// Store is the persistence contract for both entity kinds.
type Store interface {
	SaveSession(ctx context.Context, s *game.Session) error
	GetSession(ctx context.Context, id string) (*game.Session, error)
	// UpdateSession loads the session, runs fn under the entity's lock and
	// writes the mutated state back. fn returning an error aborts the write.
	UpdateSession(ctx context.Context, id string, fn func(*game.Session) error) (*game.Session, error)

	SaveMatch(ctx context.Context, m *battle.Match) error
	GetMatch(ctx context.Context, id string) (*battle.Match, error)
	UpdateMatch(ctx context.Context, id string, fn func(*battle.Match) error) (*battle.Match, error)

	Ping(ctx context.Context) error
	Kind() string
}

// keyLocks hands out one mutex per entity key. Entries are refcounted and
// removed once the last holder releases, so the map never outgrows the set
// of keys currently being updated and a key's mutex is never replaced while
// someone holds or awaits it.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*refLock)}
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
