// Package dailystats maintains the (date, category) hit/draw counters
// (component J), subscribing to domain.DrawCommitted and applying each
// draw exactly once per calendar day via the durable marker enforced
// by storage.DailyStatsRepository.
package dailystats

import (
	"context"
	"log/slog"
	"time"

	"github.com/drawsync/pipeline/internal/application/cachemgr"
	"github.com/drawsync/pipeline/internal/domain"
)

// Repository is the subset of storage.DailyStatsRepository the engine
// needs.
type Repository interface {
	ApplyDraw(ctx context.Context, date, issue string, held map[string]bool) error
}

// Cache is the subset of cache.RedisCache the marker fast path needs.
type Cache interface {
	Exists(ctx context.Context, keys ...string) (int64, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Engine applies every committed draw to its calendar day's counters.
// A cache marker backs a fast path ahead of the durable marker table:
// once (date, issue) is known applied, later deliveries of the same
// draw (e.g. a bus replay) skip straight past the repository without
// opening a transaction. The cache is an optimization only -- a miss,
// nil cache, or cache error always falls through to the durable path.
type Engine struct {
	repo      Repository
	cache     Cache
	keys      cachemgr.Keys
	markerTTL time.Duration
}

// New builds an Engine. cache may be nil, in which case every draw is
// applied straight through to the repository.
func New(repo Repository, cache Cache, keys cachemgr.Keys, markerTTL time.Duration) *Engine {
	return &Engine{repo: repo, cache: cache, keys: keys, markerTTL: markerTTL}
}

// Run subscribes to ch and applies every committed draw until ctx is
// canceled or ch closes.
func (e *Engine) Run(ctx context.Context, ch <-chan domain.DrawCommitted) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := e.applyOne(ctx, ev.Draw); err != nil {
				slog.Warn("daily stats apply failed", slog.String("issue", ev.Draw.Issue), slog.Any("error", err))
			}
		}
	}
}

func (e *Engine) applyOne(ctx context.Context, d domain.Draw) error {
	date := domain.DailyStatDate(d.OpenTime)

	if e.alreadyProcessed(ctx, date, d.Issue) {
		return nil
	}

	if err := e.repo.ApplyDraw(ctx, date, d.Issue, domain.HeldCategories(d)); err != nil {
		return err
	}
	e.markProcessed(ctx, date, d.Issue)
	return nil
}

func (e *Engine) alreadyProcessed(ctx context.Context, date, issue string) bool {
	if e.cache == nil {
		return false
	}
	n, err := e.cache.Exists(ctx, e.keys.TodayStatsProcessed(date, issue))
	if err != nil {
		slog.Warn("daily stats marker cache check failed, falling through to repository", slog.Any("error", err))
		return false
	}
	return n > 0
}

func (e *Engine) markProcessed(ctx context.Context, date, issue string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, e.keys.TodayStatsProcessed(date, issue), 1, e.markerTTL); err != nil {
		slog.Warn("daily stats marker cache set failed", slog.Any("error", err))
	}
}
