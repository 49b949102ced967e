// Package dedup implements the pipeline's second deduplication funnel
// stage: a distributed seen-set in Redis, shared across every process
// polling the same sources, so two processes racing on the same issue
// both back off rather than both writing it. If Redis is unreachable,
// dedup falls back to a process-local set so ingestion degrades to
// single-process-only guarantees instead of stopping outright.
package dedup

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache is the subset of the Redis wrapper dedup needs.
type Cache interface {
	Exists(ctx context.Context, keys ...string) (int64, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Store is the distributed seen-set with local fallback.
type Store struct {
	cache     Cache
	keyPrefix string
	ttl       time.Duration

	mu   sync.Mutex
	seen map[string]struct{}
}

// New builds a Store. keyPrefix is typically "project:seen:issue:".
func New(cache Cache, keyPrefix string, ttl time.Duration) *Store {
	return &Store{
		cache:     cache,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		seen:      make(map[string]struct{}),
	}
}

// Peek reports whether issue has already been marked seen, without
// mutating the seen-set. It is a read-only check: the coordinator
// calls it before validation/locking (fast-path duplicate rejection)
// and again right before the write (final race check), neither of
// which should itself mark anything seen. On Redis errors it falls
// back to the local set.
func (s *Store) Peek(ctx context.Context, issue string) bool {
	n, err := s.cache.Exists(ctx, s.keyPrefix+issue)
	if err == nil {
		return n > 0
	}

	slog.Warn("dedup store falling back to local set for peek", slog.Any("error", err))
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.seen[issue]
	return exists
}

// Mark records issue as seen for the configured TTL. Callers must only
// invoke this after the writer has successfully committed the draw;
// marking any earlier would permanently drop every later retry of an
// issue that failed validation or the write for a transient reason.
func (s *Store) Mark(ctx context.Context, issue string) {
	if err := s.cache.Set(ctx, s.keyPrefix+issue, 1, s.ttl); err != nil {
		slog.Warn("dedup store falling back to local set for mark", slog.Any("error", err))
		s.mu.Lock()
		s.seen[issue] = struct{}{}
		s.mu.Unlock()
	}
}
