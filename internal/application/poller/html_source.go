package poller

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/drawsync/pipeline/internal/domain"
)

// HTMLSource scrapes a backup HTML page whose rows carry the same
// three fields as the JSON contract: issue, open time, and the drawn
// numbers, read from selector's matched rows' cells in that order.
type HTMLSource struct {
	name     string
	url      string
	selector string
	client   *http.Client
}

// NewHTMLSource builds an HTMLSource. selector matches each draw's
// table row; its first three <td> cells are read as issue, open_time,
// open_nums.
func NewHTMLSource(name, url, selector string, timeout time.Duration) *HTMLSource {
	return &HTMLSource{
		name:     name,
		url:      url,
		selector: selector,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name implements Source.
func (s *HTMLSource) Name() string { return s.name }

// Fetch implements Source. It reads the first matching row, which the
// backup page always lists newest-first.
func (s *HTMLSource) Fetch(ctx context.Context) (domain.RawDraw, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return domain.RawDraw{}, fmt.Errorf("%s: build request: %w", s.name, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.RawDraw{}, fmt.Errorf("%s: fetch: %w", s.name, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.RawDraw{}, fmt.Errorf("%s: parse html: %w", s.name, domain.ErrParseGrammar)
	}

	row := doc.Find(s.selector).First()
	if row.Length() == 0 {
		return domain.RawDraw{}, fmt.Errorf("%s: %w: no rows matched selector %q", s.name, domain.ErrParseGrammar, s.selector)
	}

	cells := row.Find("td")
	if cells.Length() < 3 {
		return domain.RawDraw{}, fmt.Errorf("%s: %w: row has %d cells, want at least 3", s.name, domain.ErrParseGrammar, cells.Length())
	}

	issue := strings.TrimSpace(cells.Eq(0).Text())
	openTime := strings.TrimSpace(cells.Eq(1).Text())
	openNums := strings.TrimSpace(cells.Eq(2).Text())

	return domain.RawDraw{
		Issue:       issue,
		OpenTimeRaw: openTime,
		OpenNums:    openNums,
		Source:      s.name,
	}, nil
}
