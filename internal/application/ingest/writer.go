package ingest

import (
	"context"
	"time"

	"github.com/drawsync/pipeline/internal/application/engine"
	"github.com/drawsync/pipeline/internal/domain"
)

// DrawRepository is the subset of storage.DrawRepository the writer
// needs.
type DrawRepository interface {
	Insert(ctx context.Context, d domain.Draw) error
}

// DrawWriter persists a committed draw and publishes domain.DrawCommitted
// once the write succeeds. It never publishes on a duplicate-issue
// write, since that issue was already committed (and published) once.
type DrawWriter struct {
	repo DrawRepository
	bus  *domain.Bus
}

// NewWriter builds a DrawWriter.
func NewWriter(repo DrawRepository, bus *domain.Bus) *DrawWriter {
	return &DrawWriter{repo: repo, bus: bus}
}

// Commit implements the ingest.Writer interface. An insert failing with
// an error that engine.Classify marks retryable is tried up to three
// times in all, waiting 2s and then 4s between attempts; any other
// error, including domain.ErrDuplicateIssue, is returned at once.
func (w *DrawWriter) Commit(ctx context.Context, d domain.Draw) error {
	retry := engine.RetryPolicy{MaxAttempts: 3, InitialDelay: 2 * time.Second, MaxDelay: 10 * time.Second, BackoffStrategy: engine.BackoffExponential}
	var err error
	for attempt := 1; ; attempt++ {
		err = w.repo.Insert(ctx, d)
		if err == nil || !engine.Classify(err).Retryable() || attempt >= retry.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(retry.GetDelay(attempt)):
		}
	}
	if err != nil {
		return err
	}
	w.bus.PublishDrawCommitted(domain.DrawCommitted{Draw: d})
	return nil
}
