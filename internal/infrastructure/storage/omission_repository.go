package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/drawsync/pipeline/internal/domain"
)

// OmissionRepository persists the 49 fixed miss-streak counters.
type OmissionRepository struct {
	db *DB
}

// NewOmissionRepository builds an OmissionRepository.
func NewOmissionRepository(db *DB) *OmissionRepository {
	return &OmissionRepository{db: db}
}

// EnsureSeeded inserts a zeroed row for every category that doesn't
// already have one, so ApplyDraw's batched update always has 49 rows
// to touch.
func (r *OmissionRepository) EnsureSeeded(ctx context.Context) error {
	categories := domain.AllCategories()
	models := make([]*OmissionCounterModel, len(categories))
	for i, c := range categories {
		models[i] = &OmissionCounterModel{Category: c}
	}
	_, err := r.db.Write.NewInsert().
		Model(&models).
		On("CONFLICT (category) DO NOTHING").
		Exec(ctx)
	return err
}

// All returns every counter.
func (r *OmissionRepository) All(ctx context.Context) ([]domain.OmissionCounter, error) {
	var models []OmissionCounterModel
	if err := r.db.Read.NewSelect().Model(&models).Order("category").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.OmissionCounter, len(models))
	for i, m := range models {
		out[i] = m.ToDomain()
	}
	return out, nil
}

// ApplyDraw advances all 49 counters in a single statement: held
// categories reset to streak 0, every other category's streak (and,
// where it's a new max, max_streak) increments by one. Doing this as
// one CASE-expression UPDATE avoids 49 round trips per committed draw.
func (r *OmissionRepository) ApplyDraw(ctx context.Context, issue string, held map[string]bool) error {
	categories := domain.AllCategories()

	var heldList []string
	for _, c := range categories {
		if held[c] {
			heldList = append(heldList, fmt.Sprintf("'%s'", c))
		}
	}
	heldSet := "(" + strings.Join(heldList, ",") + ")"
	if len(heldList) == 0 {
		heldSet = "('')"
	}

	query := fmt.Sprintf(`
		UPDATE omission_counters
		SET
			streak = CASE WHEN category IN %s THEN 0 ELSE streak + 1 END,
			max_streak = CASE WHEN category IN %s THEN max_streak
			             ELSE GREATEST(max_streak, streak + 1) END,
			last_issue = ?,
			updated_at = now()
	`, heldSet, heldSet)

	_, err := r.db.Write.NewRaw(query, issue).Exec(ctx)
	return err
}
