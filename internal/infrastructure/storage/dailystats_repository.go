package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/drawsync/pipeline/internal/domain"
)

// DailyStatsRepository persists the per-(date, category) counters and
// the durable at-most-once marker that backstops the cache marker (see
// DESIGN.md's Open Question resolution).
type DailyStatsRepository struct {
	db *DB
}

// NewDailyStatsRepository builds a DailyStatsRepository.
func NewDailyStatsRepository(db *DB) *DailyStatsRepository {
	return &DailyStatsRepository{db: db}
}

// AlreadyApplied reports whether this issue has already incremented
// date's categories, consulting the durable marker table.
func (r *DailyStatsRepository) AlreadyApplied(ctx context.Context, date, issue string) (bool, error) {
	marker := new(DailyStatMarkerModel)
	err := r.db.Read.NewSelect().Model(marker).Where("date = ? AND issue = ?", date, issue).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ApplyDraw increments hit_count for every held category and
// draw_count for every category on that date, then records the
// idempotency marker, all inside one transaction. Re-applying the same
// (date, issue) pair a second time is a silent no-op.
func (r *DailyStatsRepository) ApplyDraw(ctx context.Context, date, issue string, held map[string]bool) error {
	return r.db.Write.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewInsert().
			Model(&DailyStatMarkerModel{Date: date, Issue: issue}).
			On("CONFLICT (date, issue) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return nil // this issue already applied to this date
		}

		for _, category := range domain.AllCategories() {
			hit := 0
			if held[category] {
				hit = 1
			}
			model := &DailyStatModel{Date: date, Category: category, HitCount: hit, DrawCount: 1}
			_, err := tx.NewInsert().
				Model(model).
				On("CONFLICT (date, category) DO UPDATE").
				Set("hit_count = daily_stats.hit_count + EXCLUDED.hit_count").
				Set("draw_count = daily_stats.draw_count + EXCLUDED.draw_count").
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ByDate returns every category's counters for the given date.
func (r *DailyStatsRepository) ByDate(ctx context.Context, date string) ([]domain.DailyStat, error) {
	var models []DailyStatModel
	err := r.db.Read.NewSelect().Model(&models).Where("date = ?", date).Order("category").Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DailyStat, len(models))
	for i, m := range models {
		out[i] = m.ToDomain()
	}
	return out, nil
}
