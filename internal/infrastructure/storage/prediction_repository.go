package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/drawsync/pipeline/internal/domain"
)

// PredictionRepository persists the four independent prediction tasks
// run per issue and their eventual verification outcome.
type PredictionRepository struct {
	db *DB
}

// NewPredictionRepository builds a PredictionRepository.
func NewPredictionRepository(db *DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Insert writes a freshly produced prediction. A unique-violation on
// (issue, type) is translated to domain.ErrDuplicateIssue.
func (r *PredictionRepository) Insert(ctx context.Context, p domain.Prediction) error {
	model := NewPredictionModel(p)
	_, err := r.db.Write.NewInsert().Model(model).Exec(ctx)
	return ClassifyWriteError(err)
}

// Unverified returns the not-yet-verified prediction of type t made
// for the given issue, or domain.ErrPredictionNotFound if there is
// none.
func (r *PredictionRepository) Unverified(ctx context.Context, issue string, t domain.PredictionType) (domain.Prediction, error) {
	model := new(PredictionModel)
	err := r.db.Read.NewSelect().
		Model(model).
		Where("issue = ? AND type = ? AND verified_at IS NULL", issue, t).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Prediction{}, domain.ErrPredictionNotFound
	}
	if err != nil {
		return domain.Prediction{}, err
	}
	return model.ToDomain(), nil
}

// MarkVerified records the hit outcome and verification timestamp.
func (r *PredictionRepository) MarkVerified(ctx context.Context, issue string, t domain.PredictionType, hit bool, at time.Time) error {
	_, err := r.db.Write.NewUpdate().
		Model((*PredictionModel)(nil)).
		Set("hit = ?", hit).
		Set("verified_at = ?", at).
		Where("issue = ? AND type = ?", issue, t).
		Exec(ctx)
	return err
}

// Latest returns the most recent limit predictions of the given type,
// newest first.
func (r *PredictionRepository) Latest(ctx context.Context, t domain.PredictionType, limit int) ([]domain.Prediction, error) {
	var models []PredictionModel
	err := r.db.Read.NewSelect().
		Model(&models).
		Where("type = ?", t).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Prediction, len(models))
	for i, m := range models {
		out[i] = m.ToDomain()
	}
	return out, nil
}

// HitRate computes the win rate over the most recent window verified
// predictions of the given type.
func (r *PredictionRepository) HitRate(ctx context.Context, t domain.PredictionType, window int) (domain.HitRateSnapshot, error) {
	var models []PredictionModel
	err := r.db.Read.NewSelect().
		Model(&models).
		Where("type = ? AND hit IS NOT NULL", t).
		Order("verified_at DESC").
		Limit(window).
		Scan(ctx)
	if err != nil {
		return domain.HitRateSnapshot{}, err
	}

	snap := domain.HitRateSnapshot{Type: t, Window: window, UpdatedAt: time.Now()}
	for _, m := range models {
		snap.Total++
		if m.Hit != nil && *m.Hit {
			snap.Hits++
		}
	}
	return snap, nil
}
