package poller

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLSource_Fetch(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
			<table class="draws">
				<tr><td>2026073101</td><td>2026-07-31 09:15:00</td><td>3+4+5</td></tr>
				<tr><td>2026073100</td><td>2026-07-31 09:10:00</td><td>1+2+3</td></tr>
			</table>
		`))
	}))
	defer srv.Close()

	src := NewHTMLSource("backup", srv.URL, "table.draws tr", time.Second)
	raw, err := src.Fetch(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "2026073101", raw.Issue)
	assert.Equal(t, "3+4+5", raw.OpenNums)
	assert.Equal(t, "backup", raw.Source)
}

func TestHTMLSource_Fetch_NoMatchingRows(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>no table here</body></html>`))
	}))
	defer srv.Close()

	src := NewHTMLSource("backup", srv.URL, "table.draws tr", time.Second)
	_, err := src.Fetch(t.Context())
	require.Error(t, err)
}
