// Package lock serializes PutFile writers per document id.
//
// Readers never take a lock. Three modes exist: "local" guards a single process,
// "redis" guards every replica sharing one redis, and "none" gives no guarantee at
// all, so concurrent writers for the same id may interleave.
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wopihost/internal/config"
)

// Locker grants exclusive access to a document id. The returned unlock func must be
// called exactly once on every exit path; calling it again is a no-op.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// New builds the Locker selected by cfg.Mode. rdb is only used in "redis" mode.
func New(cfg config.LockConfig, rdb *redis.Client, log *zap.Logger) (Locker, error) {
	switch cfg.Mode {
	case "", "local":
		return NewKeyed(), nil
	case "none":
		return Nop{}, nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis lock mode requires a redis client")
		}
		return NewRedis(rdb, cfg.TTL, cfg.Retry, log), nil
	default:
		return nil, fmt.Errorf("unsupported lock mode: %q", cfg.Mode)
	}
}

// Nop never blocks.
type Nop struct{}

func (Nop) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// Keyed is an in-process mutex per key. Idle keys are dropped from the map.
type Keyed struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewKeyed returns an empty Keyed locker.
func NewKeyed() *Keyed {
	return &Keyed{slots: make(map[string]*slot)}
}

// Lock waits for key to be free or for ctx to end.
func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			k.release(key, s)
		})
	}, nil
}

func (k *Keyed) release(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// Len reports how many keys are held or waited on.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
