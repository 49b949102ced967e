// Package omission maintains the 49 miss-streak counters (component I
// of the pipeline) by subscribing to domain.DrawCommitted and applying
// each committed draw's held categories to the omission store in one
// batched update.
package omission

import (
	"context"
	"log/slog"

	"github.com/drawsync/pipeline/internal/domain"
)

// Repository is the subset of storage.OmissionRepository the engine
// needs.
type Repository interface {
	EnsureSeeded(ctx context.Context) error
	ApplyDraw(ctx context.Context, issue string, held map[string]bool) error
}

// DrawSource is the subset of storage.DrawRepository the bootstrap
// walk needs.
type DrawSource interface {
	BootstrapPage(ctx context.Context, beforeIssue string, pageSize int) ([]domain.Draw, error)
}

// Engine applies every committed draw to the 49 omission counters.
type Engine struct {
	repo         Repository
	draws        DrawSource
	bootCap      int
	bootPageSize int
}

// New builds an Engine. bootstrapCap and bootstrapPageSize bound the
// one-time historical backfill Bootstrap performs on startup, so a
// cold process doesn't walk the entire draws table before serving
// traffic.
func New(repo Repository, draws DrawSource, bootstrapCap, bootstrapPageSize int) *Engine {
	return &Engine{repo: repo, draws: draws, bootCap: bootstrapCap, bootPageSize: bootstrapPageSize}
}

// Bootstrap seeds the 49 category rows if missing, then walks the
// draws table backwards from the newest issue (oldest-first
// application, so streaks accumulate in draw order) up to bootCap
// draws, applying each to the counters. It is meant to run once at
// startup before the live subscription loop begins.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if err := e.repo.EnsureSeeded(ctx); err != nil {
		return err
	}

	var before string
	applied := 0
	var pages [][]domain.Draw
	for applied < e.bootCap {
		page, err := e.draws.BootstrapPage(ctx, before, e.bootPageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		pages = append(pages, page)
		applied += len(page)
		before = page[len(page)-1].Issue
	}

	for i := len(pages) - 1; i >= 0; i-- {
		page := pages[i]
		for j := len(page) - 1; j >= 0; j-- {
			if err := e.applyOne(ctx, page[j]); err != nil {
				return err
			}
		}
	}
	return nil
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
				slog.Warn("omission apply failed", slog.String("issue", ev.Draw.Issue), slog.Any("error", err))
			}
		}
	}
}

func (e *Engine) applyOne(ctx context.Context, d domain.Draw) error {
	return e.repo.ApplyDraw(ctx, d.Issue, domain.HeldCategories(d))
}
