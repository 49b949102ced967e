// Package cachemgr owns the cache key grammar and subscribes to
// domain.Bus events to invalidate dependent keys after every write,
// isolating each key class's failure from the others.
package cachemgr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/drawsync/pipeline/internal/domain"
)

// scanDeleter is the subset of the Redis wrapper cache invalidation
// needs.
type scanDeleter interface {
	ScanDelete(ctx context.Context, pattern string) (int64, error)
}

// Manager invalidates dependent cache entries on draw and prediction
// commits.
type Manager struct {
	cache     scanDeleter
	keyPrefix string
}

// New builds a Manager. keyPrefix is typically "project:".
func New(cache scanDeleter, keyPrefix string) *Manager {
	return &Manager{cache: cache, keyPrefix: keyPrefix}
}

// Run subscribes to all three event channels and invalidates on each,
// until ctx is canceled or every channel closes.
func (m *Manager) Run(ctx context.Context, draws <-chan domain.DrawCommitted, predictions <-chan domain.PredictionCommitted, allDone <-chan domain.AllPredictionsCommitted) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-draws:
				if !ok {
					return
				}
				m.invalidateOnDrawCommit(ctx)
			}
		}
	}()

	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-predictions:
				if !ok {
					return
				}
				m.invalidateOnPredictionCommit(ctx, ev.Type)
			}
		}
	}()

	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-allDone:
				if !ok {
					return
				}
				m.invalidateWinRates(ctx)
			}
		}
	}()

	wg.Wait()
}

// invalidateOnDrawCommit drops the key classes that changed when a new
// draw is written: all latest-draws limit variants, the omission and
// daily-stats snapshots, and cached export artifacts. Prediction caches
// are deliberately untouched here -- the new predictions for this
// issue have not been written yet.
func (m *Manager) invalidateOnDrawCommit(ctx context.Context) {
	classes := []string{
		m.keyPrefix + "kj:limit:*",
		m.keyPrefix + "yl",
		m.keyPrefix + "yk:*",
		m.keyPrefix + "excel:lottery:*",
		m.keyPrefix + "excel:stats:*",
	}
	m.invalidateEach(ctx, classes)
}

// invalidateOnPredictionCommit drops one type's prediction payload
// cache after a prediction-committed event.
func (m *Manager) invalidateOnPredictionCommit(ctx context.Context, t domain.PredictionType) {
	m.invalidateEach(ctx, []string{fmt.Sprintf("%spredict:%s:limit:*", m.keyPrefix, t)})
}

// invalidateWinRates drops every type's win-rate snapshot after all
// four prediction tasks for an issue complete.
func (m *Manager) invalidateWinRates(ctx context.Context) {
	m.invalidateEach(ctx, []string{m.keyPrefix + "winrate:*"})
}

// invalidateEach deletes each pattern independently so one class's
// failure never blocks the rest.
func (m *Manager) invalidateEach(ctx context.Context, patterns []string) {
	for _, pattern := range patterns {
		if _, err := m.cache.ScanDelete(ctx, pattern); err != nil {
			slog.Warn("cache invalidation failed", slog.String("pattern", pattern), slog.Any("error", err))
		}
	}
}
