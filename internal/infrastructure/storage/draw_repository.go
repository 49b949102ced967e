package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/drawsync/pipeline/internal/domain"
)

// DrawRepository persists committed draws against the write pool and
// serves reads off the read pool.
type DrawRepository struct {
	db *DB
}

// NewDrawRepository builds a DrawRepository.
func NewDrawRepository(db *DB) *DrawRepository {
	return &DrawRepository{db: db}
}

// Insert writes a newly enriched draw. A unique-violation on issue is
// translated to domain.ErrDuplicateIssue so the ingest coordinator can
// treat it as a successful no-op.
func (r *DrawRepository) Insert(ctx context.Context, d domain.Draw) error {
	model := NewDrawModel(d)
	_, err := r.db.Write.NewInsert().Model(model).Exec(ctx)
	return ClassifyWriteError(err)
}

// LastIssue returns the newest committed issue, or "" if the table is
// empty.
func (r *DrawRepository) LastIssue(ctx context.Context) (string, error) {
	model := new(DrawModel)
	err := r.db.Read.NewSelect().Model(model).Order("issue DESC").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model.Issue, nil
}

// Latest returns the most recent limit draws, newest first.
func (r *DrawRepository) Latest(ctx context.Context, limit int) ([]domain.Draw, error) {
	var models []DrawModel
	err := r.db.Read.NewSelect().Model(&models).Order("issue DESC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Draw, len(models))
	for i, m := range models {
		out[i] = m.ToDomain()
	}
	return out, nil
}

// ByIssue fetches a single committed draw.
func (r *DrawRepository) ByIssue(ctx context.Context, issue string) (domain.Draw, error) {
	model := new(DrawModel)
	err := r.db.Read.NewSelect().Model(model).Where("issue = ?", issue).Scan(ctx)
	if err != nil {
		return domain.Draw{}, err
	}
	return model.ToDomain(), nil
}

// BootstrapPage scans at most pageSize draws older than (or equal to,
// on the first call) beforeIssue, newest-first, for the omission
// engine's capped bootstrap walk.
func (r *DrawRepository) BootstrapPage(ctx context.Context, beforeIssue string, pageSize int) ([]domain.Draw, error) {
	q := r.db.Read.NewSelect().Model((*DrawModel)(nil)).Order("issue DESC").Limit(pageSize)
	if beforeIssue != "" {
		q = q.Where("issue < ?", beforeIssue)
	}
	var models []DrawModel
	if err := q.Scan(ctx, &models); err != nil {
		return nil, err
	}
	out := make([]domain.Draw, len(models))
	for i, m := range models {
		out[i] = m.ToDomain()
	}
	return out, nil
}
