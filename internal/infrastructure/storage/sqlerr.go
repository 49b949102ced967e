package storage

import (
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/drawsync/pipeline/internal/domain"
)

// uniqueViolationCode is the SQLSTATE Postgres raises for a unique
// constraint violation.
const uniqueViolationCode = "23505"

// ClassifyWriteError maps a raw error from a bun insert/update into the
// domain sentinel errors the ingest coordinator understands. Every
// other error is returned unchanged.
func ClassifyWriteError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolationCode {
		return domain.ErrDuplicateIssue
	}

	return err
}
