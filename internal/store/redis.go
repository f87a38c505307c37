// internal/store/redis.go
//
// Redis-backed Store implementation.
//
// Entities are JSON values under prefixed keys ("mh:v1:game:<id>",
// "mh:v1:battle:<id>") with a TTL refreshed on every save. Update runs its
// closure under the shared process-local per-id lock; the write-back is a
// plain SET, which assumes a single server instance owns the keys. Running
// several instances against one Redis would need WATCH/Lua instead.

package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mahjong-handle/go-server/internal/battle"
	"github.com/mahjong-handle/go-server/internal/game"
)

const (
	sessionPrefix = "mh:v1:game:"
	matchPrefix   = "mh:v1:battle:"
)

type redisStore struct {
	rdb   *redis.Client
	ttl   time.Duration
	locks *keyLocks
}

// NewRedis constructs a Redis-backed Store from a redis:// URL.
func NewRedis(url string, ttl time.Duration) (Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &redisStore{
		rdb:   redis.NewClient(opt),
		ttl:   ttl,
		locks: newKeyLocks(),
	}, nil
}

func (r *redisStore) Kind() string { return "redis" }

func (r *redisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *redisStore) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, raw, r.ttl).Err()
}

func (r *redisStore) get(ctx context.Context, key string, v any) error {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// --- sessions ---

func (r *redisStore) SaveSession(ctx context.Context, s *game.Session) error {
	return r.put(ctx, sessionPrefix+s.ID, s)
}

func (r *redisStore) GetSession(ctx context.Context, id string) (*game.Session, error) {
	var s game.Session
	if err := r.get(ctx, sessionPrefix+id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *redisStore) UpdateSession(ctx context.Context, id string, fn func(*game.Session) error) (*game.Session, error) {
	unlock := r.locks.lock(sessionPrefix + id)
	defer unlock()

	s, err := r.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := r.SaveSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// --- matches ---

func (r *redisStore) SaveMatch(ctx context.Context, m *battle.Match) error {
	return r.put(ctx, matchPrefix+m.ID, m)
}

func (r *redisStore) GetMatch(ctx context.Context, id string) (*battle.Match, error) {
	var m battle.Match
	if err := r.get(ctx, matchPrefix+id, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *redisStore) UpdateMatch(ctx context.Context, id string, fn func(*battle.Match) error) (*battle.Match, error) {
	unlock := r.locks.lock(matchPrefix + id)
	defer unlock()

	m, err := r.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(m); err != nil {
		return nil, err
	}
	if err := r.SaveMatch(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
