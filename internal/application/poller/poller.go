// Package poller fetches candidate draws from upstream sources on a
// fixed interval and hands each one to a callback for validation,
// enrichment and commit. Two source kinds are supported: a JSON API
// contract and an HTML table scraped as a same-shaped fallback.
package poller

import (
	"context"

	"github.com/drawsync/pipeline/internal/domain"
)

// Source fetches the newest candidate draw from one upstream.
type Source interface {
	// Name identifies the source for logging and the Draw.Source field.
	Name() string
	// Fetch returns the newest raw draw currently published.
	Fetch(ctx context.Context) (domain.RawDraw, error)
}
