package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/drawsync/pipeline/internal/application/engine"
)

// HealthChecker pings both pools on a fixed cadence while healthy and
// backs off using the same exponential curve the pipeline's retry
// policy uses for transient transport errors, so a database outage
// doesn't turn into a ping storm.
type HealthChecker struct {
	db       *DB
	interval time.Duration
	backoff  *engine.RetryPolicy

	mu      chan struct{} // 1-buffered, acts as a mutex for healthy/attempt
	healthy bool
	attempt int
}

// NewHealthChecker builds a checker polling at interval when healthy.
func NewHealthChecker(db *DB, interval time.Duration) *HealthChecker {
	return &HealthChecker{
		db:       db,
		interval: interval,
		backoff: &engine.RetryPolicy{
			MaxAttempts:     0, // unused: Run drives its own loop
			InitialDelay:    interval,
			MaxDelay:        5 * time.Minute,
			BackoffStrategy: engine.BackoffExponential,
		},
		mu:      make(chan struct{}, 1),
		healthy: true,
	}
}

// Healthy reports the last observed state.
func (h *HealthChecker) Healthy() bool {
	h.mu <- struct{}{}
	defer func() { <-h.mu }()
	return h.healthy
}

// Run blocks until ctx is canceled, pinging on a cadence that stretches
// out exponentially for as long as the database stays unreachable and
// resets to h.interval the moment it recovers.
func (h *HealthChecker) Run(ctx context.Context) {
	for {
		delay := h.interval
		h.mu <- struct{}{}
		if !h.healthy {
			delay = h.backoff.GetDelay(h.attempt)
		}
		<-h.mu

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := h.db.Ping(pingCtx)
		cancel()

		h.mu <- struct{}{}
		if err != nil {
			h.healthy = false
			h.attempt++
			slog.Warn("database health check failed", slog.Int("attempt", h.attempt), slog.Any("error", err))
		} else {
			if !h.healthy {
				slog.Info("database connectivity restored", slog.Int("attempts", h.attempt))
			}
			h.healthy = true
			h.attempt = 0
		}
		<-h.mu
	}
}
