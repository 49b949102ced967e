package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/drawsync/pipeline/internal/domain"
)

// JSONSource polls a JSON HTTP endpoint that always returns the newest
// published draw. The body is handed to the universal parser, which
// tolerates both documented shapes (the tabular sum feed and the keno
// reduction feed) plus any container/field-name variant in its name
// table, rather than assuming one fixed schema.
type JSONSource struct {
	name   string
	url    string
	client *http.Client
}

// NewJSONSource builds a JSONSource.
func NewJSONSource(name, url string, timeout time.Duration) *JSONSource {
	return &JSONSource{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Name implements Source.
func (s *JSONSource) Name() string { return s.name }

// Fetch implements Source.
func (s *JSONSource) Fetch(ctx context.Context) (domain.RawDraw, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return domain.RawDraw{}, fmt.Errorf("%s: build request: %w", s.name, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.RawDraw{}, fmt.Errorf("%s: fetch: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.RawDraw{}, fmt.Errorf("%s: unexpected status %d: %s", s.name, resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.RawDraw{}, fmt.Errorf("%s: read body: %w", s.name, err)
	}

	raw, ok, err := ParseUniversal(body, time.Now())
	if err != nil {
		return domain.RawDraw{}, fmt.Errorf("%s: %w", s.name, err)
	}
	if !ok {
		return domain.RawDraw{}, fmt.Errorf("%s: %w: no record in response", s.name, domain.ErrParseGrammar)
	}
	raw.Source = s.name
	return raw, nil
}
