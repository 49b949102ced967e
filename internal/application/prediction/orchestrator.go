// Package prediction drives the four independent LLM-backed prediction
// streams per committed draw (component K) and resolves their ground
// truth once the target issue's draw arrives (component L).
package prediction

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/drawsync/pipeline/internal/application/engine"
	"github.com/drawsync/pipeline/internal/application/lock"
	"github.com/drawsync/pipeline/internal/config"
	"github.com/drawsync/pipeline/internal/domain"
)

// Repository is the subset of storage.PredictionRepository the
// orchestrator and verifier need.
type Repository interface {
	Insert(ctx context.Context, p domain.Prediction) error
	Unverified(ctx context.Context, issue string, t domain.PredictionType) (domain.Prediction, error)
	MarkVerified(ctx context.Context, issue string, t domain.PredictionType, hit bool, at time.Time) error
	Latest(ctx context.Context, t domain.PredictionType, limit int) ([]domain.Prediction, error)
	HitRate(ctx context.Context, t domain.PredictionType, window int) (domain.HitRateSnapshot, error)
}

// DrawRepository is the subset of storage.DrawRepository the
// orchestrator needs for recent-history context.
type DrawRepository interface {
	Latest(ctx context.Context, limit int) ([]domain.Draw, error)
}

// Orchestrator dispatches four concurrent, fire-and-forget prediction
// tasks for every committed draw's next issue.
type Orchestrator struct {
	repo   Repository
	draws  DrawRepository
	client LLMClient
	locker *lock.Locker
	bus    *domain.Bus
	cfg    config.PredictionConfig
	retry  *engine.RetryPolicy

	mu      sync.Mutex
	pending map[string]int
}

// New builds an Orchestrator. locker should use a distinct key prefix
// from the write-path lock (e.g. "project:predict:lock:") since it
// guards the *next* issue's prediction cycle, not the current commit.
func New(repo Repository, draws DrawRepository, client LLMClient, locker *lock.Locker, bus *domain.Bus, cfg config.PredictionConfig) *Orchestrator {
	return &Orchestrator{
		repo:   repo,
		draws:  draws,
		client: client,
		locker: locker,
		bus:    bus,
		cfg:    cfg,
		retry: &engine.RetryPolicy{
			MaxAttempts:     cfg.MaxAttempts,
			InitialDelay:    2 * time.Second,
			MaxDelay:        10 * time.Second,
			BackoffStrategy: engine.BackoffExponential,
		},
		pending: make(map[string]int),
	}
}

// Run subscribes to ch and dispatches a prediction cycle for every
// committed draw's next issue, never blocking the subscriber loop
// itself on an LLM call.
func (o *Orchestrator) Run(ctx context.Context, ch <-chan domain.DrawCommitted) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			o.dispatch(ctx, ev.Draw)
		}
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, d domain.Draw) {
	nextIssue := nextIssueOf(d.Issue)

	release, ok := o.locker.Acquire(ctx, nextIssue)
	if !ok {
		return
	}

	recentDraws, err := o.draws.Latest(ctx, o.cfg.HistoryWindow)
	if err != nil {
		slog.Warn("prediction orchestrator: failed to load recent draws", slog.Any("error", err))
		release()
		return
	}

	o.mu.Lock()
	o.pending[nextIssue] = 0
	o.mu.Unlock()

	for _, t := range domain.AllPredictionTypes() {
		go o.runTask(ctx, nextIssue, t, recentDraws, release)
	}
}

func (o *Orchestrator) runTask(ctx context.Context, nextIssue string, t domain.PredictionType, recentDraws []domain.Draw, release lock.Release) {
	defer o.completeTask(nextIssue, release)

	recent, err := o.repo.Latest(ctx, t, o.cfg.BiasWindow)
	if err != nil {
		slog.Warn("prediction task: failed to load recent predictions", slog.String("type", string(t)), slog.Any("error", err))
		recent = nil
	}
	recentValues := make([]string, len(recent))
	for i, p := range recent {
		recentValues[i] = p.PredictedValue
	}

	systemPrompt, userPrompt := buildPrompt(t, nextIssue, recentDraws, recentValues, o.cfg.BiasThreshold)

	value, latencyMs, err := o.callWithRetry(ctx, systemPrompt, userPrompt)
	if err != nil {
		slog.Warn("prediction task failed", slog.String("issue", nextIssue), slog.String("type", string(t)), slog.Any("error", err))
		return
	}

	if !domain.ValidPredictedValue(t, value) {
		slog.Warn("prediction task: malformed reply", slog.String("issue", nextIssue), slog.String("type", string(t)), slog.String("value", value))
		return
	}

	p := domain.Prediction{
		Issue:          nextIssue,
		Type:           t,
		PredictedValue: value,
		ModelName:      o.cfg.Model,
		LatencyMs:      latencyMs,
		CreatedAt:      time.Now(),
	}
	if err := o.repo.Insert(ctx, p); err != nil {
		slog.Warn("prediction task: failed to persist", slog.String("issue", nextIssue), slog.String("type", string(t)), slog.Any("error", err))
		return
	}

	o.bus.PublishPredictionCommitted(domain.PredictionCommitted{
		Issue:      nextIssue,
		Type:       t,
		Value:      value,
		DurationMs: latencyMs,
	})
}

// callWithRetry retries a transient LLM failure per the classifier's
// taxonomy, up to o.retry.MaxAttempts, using the retry policy's
// exponential backoff curve as the delay source.
func (o *Orchestrator) callWithRetry(ctx context.Context, systemPrompt, userPrompt string) (string, int64, error) {
	maxAttempts := o.retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var value string
	var latency int64
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		value, latency, err = timedComplete(ctx, o.client, o.cfg.Timeout, systemPrompt, userPrompt)
		if err == nil {
			return value, latency, nil
		}
		if !engine.Classify(err).Retryable() || attempt >= maxAttempts {
			return "", latency, err
		}
		select {
		case <-ctx.Done():
			return "", latency, ctx.Err()
		case <-time.After(o.retry.GetDelay(attempt)):
		}
	}
	return "", latency, err
}

// completeTask releases the prediction lock exactly once, after the
// fourth task for this issue finishes, and publishes
// AllPredictionsCommitted at that point.
func (o *Orchestrator) completeTask(issue string, release lock.Release) {
	o.mu.Lock()
	o.pending[issue]++
	done := o.pending[issue] >= len(domain.AllPredictionTypes())
	if done {
		delete(o.pending, issue)
	}
	o.mu.Unlock()

	if done {
		release()
		o.bus.PublishAllPredictionsCommitted(domain.AllPredictionsCommitted{Issue: issue})
	}
}

// nextIssueOf increments a 7-digit issue string, preserving its width.
func nextIssueOf(issue string) string {
	n := 0
	for i := 0; i < len(issue); i++ {
		n = n*10 + int(issue[i]-'0')
	}
	n++
	digits := []byte(issue)
	for i := len(digits) - 1; i >= 0 && n > 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits)
}
