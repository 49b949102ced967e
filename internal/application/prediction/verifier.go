package prediction

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/drawsync/pipeline/internal/domain"
)

// Verifier resolves ground truth for a newly committed draw against
// any prior predictions targeting that issue.
type Verifier struct {
	repo Repository
	bus  *domain.Bus
}

// NewVerifier builds a Verifier.
func NewVerifier(repo Repository, bus *domain.Bus) *Verifier {
	return &Verifier{repo: repo, bus: bus}
}

// Run subscribes to ch and verifies every committed draw's predictions
// until ctx is canceled or ch closes.
func (v *Verifier) Run(ctx context.Context, ch <-chan domain.DrawCommitted) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			v.verifyOne(ctx, ev.Draw)
		}
	}
}

// verifyOne checks each of the four prediction types for a prior call
// targeting d.Issue, updates hit outcomes, and emits one audit line
// summarizing the draw's overall hit ratio.
func (v *Verifier) verifyOne(ctx context.Context, d domain.Draw) {
	now := time.Now()
	hits, resolved := 0, 0

	for _, t := range domain.AllPredictionTypes() {
		p, err := v.repo.Unverified(ctx, d.Issue, t)
		if errors.Is(err, domain.ErrPredictionNotFound) {
			continue
		}
		if err != nil {
			slog.Warn("verifier: lookup failed", slog.String("issue", d.Issue), slog.String("type", string(t)), slog.Any("error", err))
			continue
		}

		hit := domain.VerifyHit(t, p.PredictedValue, d)
		if err := v.repo.MarkVerified(ctx, d.Issue, t, hit, now); err != nil {
			slog.Warn("verifier: mark failed", slog.String("issue", d.Issue), slog.String("type", string(t)), slog.Any("error", err))
			continue
		}

		resolved++
		if hit {
			hits++
		}
	}

	if resolved > 0 {
		slog.Info("draw verified",
			slog.String("issue", d.Issue),
			slog.Int("resolved", resolved),
			slog.Int("hits", hits),
		)
	}
}

// RefreshHitRates recomputes and returns the hit-rate snapshot for
// every prediction type over its most recent window verified
// predictions. It does not cache the result.
func (v *Verifier) RefreshHitRates(ctx context.Context, window int) ([]domain.HitRateSnapshot, error) {
	out := make([]domain.HitRateSnapshot, 0, len(domain.AllPredictionTypes()))
	for _, t := range domain.AllPredictionTypes() {
		snap, err := v.repo.HitRate(ctx, t, window)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}
