// Package ingest wires the three-layer deduplication funnel
// (tracker -> dedup -> lock) together with validation, enrichment, and
// the write path, into a single Coordinator each poller handoff feeds.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/drawsync/pipeline/internal/application/dedup"
	"github.com/drawsync/pipeline/internal/application/lock"
	"github.com/drawsync/pipeline/internal/application/tracker"
	"github.com/drawsync/pipeline/internal/domain"
)

// Writer persists an enriched draw and reports success. It is
// implemented by DrawWriter in writer.go, kept as an interface here so
// tests can stub it out.
type Writer interface {
	Commit(ctx context.Context, d domain.Draw) error
}

// Coordinator runs every raw draw handed off by a poller through the
// funnel: tracker admits only strictly newer issues, dedup's
// distributed seen-set catches cross-process duplicates, and lock
// guards the write itself. Validation and enrichment run after the
// lock is taken and the seen-set re-checked, so an invalid fetch holds
// the issue's lock until it is rejected.
type Coordinator struct {
	tracker *tracker.Tracker
	dedup   *dedup.Store
	locker  *lock.Locker
	writer  Writer
}

// New builds a Coordinator.
func New(t *tracker.Tracker, d *dedup.Store, l *lock.Locker, w Writer) *Coordinator {
	return &Coordinator{tracker: t, dedup: d, locker: l, writer: w}
}

// Handle implements poller.Handler's signature so a Coordinator can be
// registered with a Scheduler directly.
func (c *Coordinator) Handle(ctx context.Context, raw domain.RawDraw) {
	if err := c.Ingest(ctx, raw); err != nil && !isBenignDrop(err) {
		slog.Warn("ingest failed", slog.String("issue", raw.Issue), slog.String("source", raw.Source), slog.Any("error", err))
	}
}

// Ingest runs one raw draw through the full funnel and, on success,
// the write path. It returns domain.ErrStale, domain.ErrDuplicateIssue,
// or domain.ErrLockBusy for any of the funnel's benign drops; callers
// that only care about unexpected failures should check isBenignDrop.
func (c *Coordinator) Ingest(ctx context.Context, raw domain.RawDraw) error {
	if !c.tracker.IsNew(raw.Issue) {
		return domain.ErrStale
	}
	if c.dedup.Peek(ctx, raw.Issue) {
		return domain.ErrStale
	}

	release, ok := c.locker.Acquire(ctx, raw.Issue)
	if !ok {
		return domain.ErrLockBusy
	}
	defer release()

	// Re-check now that the lock is held: another process may have
	// committed this issue between the first peek and acquiring the
	// lock. The seen-set is still only read here, never mutated.
	if c.dedup.Peek(ctx, raw.Issue) {
		return domain.ErrStale
	}

	openTime, _, err := domain.ValidateRaw(raw, "", time.Now())
	if err != nil {
		return err
	}

	sum := raw.Sum
	if !raw.HasSum {
		sum = domain.DigitSum(raw.OpenNums)
	}

	draw := domain.Enrich(domain.Draw{
		Issue:    raw.Issue,
		OpenTime: openTime,
		OpenNums: raw.OpenNums,
		Sum:      sum,
		Source:   raw.Source,
	})

	if err := c.writer.Commit(ctx, draw); err != nil {
		if errors.Is(err, domain.ErrDuplicateIssue) {
			c.dedup.Mark(ctx, raw.Issue)
			c.tracker.Update(raw.Issue)
			return domain.ErrDuplicateIssue
		}
		return err
	}
	c.dedup.Mark(ctx, raw.Issue)
	c.tracker.Update(raw.Issue)
	return nil
}

func isBenignDrop(err error) bool {
	return errors.Is(err, domain.ErrStale) || errors.Is(err, domain.ErrLockBusy) || errors.Is(err, domain.ErrDuplicateIssue)
}
