package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/drawsync/pipeline/internal/domain"
)

// Handler receives every raw draw a source fetches. It runs on the
// cron goroutine; callers that need to do real work should hand off
// quickly (the ingest coordinator does its own validation/enrichment
// work synchronously but never blocks on the network again).
type Handler func(ctx context.Context, raw domain.RawDraw)

// Scheduler drives a set of Sources on independent fixed intervals
// using robfig/cron's "@every" spec, repurposed here from wall-clock
// cron triggers to fixed-interval source polling (see DESIGN.md).
type Scheduler struct {
	cron    *cron.Cron
	handler Handler
}

// NewScheduler builds a Scheduler.
func NewScheduler(handler Handler) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		handler: handler,
	}
}

// Add registers a source to be polled every interval.
func (s *Scheduler) Add(source Source, interval time.Duration) error {
	_, err := s.cron.AddFunc("@every "+interval.String(), func() {
		s.poll(source)
	})
	return err
}

// poll fetches from source exactly once. On non-200, transport error,
// or "no record", the poll is dropped silently and logged; the next
// scheduled tick is the retry, not an in-poll loop.
func (s *Scheduler) poll(source Source) {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	raw, err := source.Fetch(ctx)
	if err != nil {
		slog.Warn("source poll failed", slog.String("source", source.Name()), slog.Any("error", err))
		return
	}

	s.handler(ctx, raw)
}

// Start begins running the scheduler in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the scheduler and blocks until any in-flight job
// completes.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}
