// Package lock implements the pipeline's third deduplication funnel
// stage: a distributed per-issue lock guarding the actual write, so
// that even if two processes both pass tracker and dedup for the same
// issue (a narrow race right at rollover), only one of them writes.
package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache is the subset of the Redis wrapper the lock needs.
type Cache interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Locker hands out per-issue locks, preferring Redis and falling back
// to an in-process mutex map when Redis is unreachable.
type Locker struct {
	cache     Cache
	keyPrefix string
	ttl       time.Duration

	mu    sync.Mutex
	local map[string]struct{}
}

// New builds a Locker. keyPrefix is typically "project:lock:issue:".
func New(cache Cache, keyPrefix string, ttl time.Duration) *Locker {
	return &Locker{
		cache:     cache,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		local:     make(map[string]struct{}),
	}
}

// Release unlocks issue.
type Release func()

// Acquire attempts to take the lock for issue. It returns ok=false,
// without error, when the lock is already held elsewhere -- the caller
// treats that as domain.ErrLockBusy and drops the draw silently.
func (l *Locker) Acquire(ctx context.Context, issue string) (Release, bool) {
	ok, err := l.cache.SetNX(ctx, l.keyPrefix+issue, 1, l.ttl)
	if err == nil {
		if !ok {
			return nil, false
		}
		return func() {
			if err := l.cache.Delete(context.Background(), l.keyPrefix+issue); err != nil {
				slog.Warn("failed to release distributed lock", slog.String("issue", issue), slog.Any("error", err))
			}
		}, true
	}

	slog.Warn("lock falling back to local mutex map", slog.Any("error", err))
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.local[issue]; held {
		return nil, false
	}
	l.local[issue] = struct{}{}
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.local, issue)
	}, true
}
