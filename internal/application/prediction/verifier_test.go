package prediction

import (
	"context"
	"testing"
	"time"

	"github.com/drawsync/pipeline/internal/domain"
)

type verifyingPredictionRepo struct {
	predictions map[domain.PredictionType]domain.Prediction
	marked      map[domain.PredictionType]bool
}

func (r *verifyingPredictionRepo) Insert(ctx context.Context, p domain.Prediction) error { return nil }

func (r *verifyingPredictionRepo) Unverified(ctx context.Context, issue string, t domain.PredictionType) (domain.Prediction, error) {
	p, ok := r.predictions[t]
	if !ok {
		return domain.Prediction{}, domain.ErrPredictionNotFound
	}
	return p, nil
}

func (r *verifyingPredictionRepo) MarkVerified(ctx context.Context, issue string, t domain.PredictionType, hit bool, at time.Time) error {
	if r.marked == nil {
		r.marked = make(map[domain.PredictionType]bool)
	}
	r.marked[t] = hit
	return nil
}

func (r *verifyingPredictionRepo) Latest(ctx context.Context, t domain.PredictionType, limit int) ([]domain.Prediction, error) {
	return nil, nil
}

func (r *verifyingPredictionRepo) HitRate(ctx context.Context, t domain.PredictionType, window int) (domain.HitRateSnapshot, error) {
	return domain.HitRateSnapshot{Type: t}, nil
}

func TestVerifier_VerifyOne_ResolvesKnownTypes(t *testing.T) {
	t.Parallel()
	repo := &verifyingPredictionRepo{
		predictions: map[domain.PredictionType]domain.Prediction{
			domain.PredictionParity: {PredictedValue: "even"},
			domain.PredictionKill:   {PredictedValue: "small-even"},
		},
	}
	bus := domain.NewBus()
	v := NewVerifier(repo, bus)

	draw := domain.Enrich(domain.Draw{Issue: "0000005", OpenNums: "1+2+3", Sum: 6})
	v.verifyOne(context.Background(), draw)

	if hit, ok := repo.marked[domain.PredictionParity]; !ok || !hit {
		t.Fatalf("expected parity to hit (sum 6 is even), got %v, ok=%v", hit, ok)
	}
	if hit, ok := repo.marked[domain.PredictionKill]; !ok || hit {
		t.Fatalf("expected kill to miss (predicted label was drawn), got %v, ok=%v", hit, ok)
	}
	if _, ok := repo.marked[domain.PredictionMagnitude]; ok {
		t.Fatal("expected magnitude to be skipped (no prior prediction)")
	}
}
