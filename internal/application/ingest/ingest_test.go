package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/drawsync/pipeline/internal/application/dedup"
	"github.com/drawsync/pipeline/internal/application/lock"
	"github.com/drawsync/pipeline/internal/application/tracker"
	"github.com/drawsync/pipeline/internal/domain"
)

// fakeCache backs both the dedup seen-set and the lock, in-memory,
// with no simulated Redis failures.
type fakeCache struct {
	mu   sync.Mutex
	seen map[string]bool
	held map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{seen: make(map[string]bool), held: make(map[string]bool)}
}

func (f *fakeCache) Exists(ctx context.Context, keys ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if f.seen[k] {
			n++
		}
	}
	return n, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[key] = true
	return nil
}

func (f *fakeCache) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.held, k)
	}
	return nil
}

type recordingWriter struct {
	commits []domain.Draw
	err     error
}

func (w *recordingWriter) Commit(ctx context.Context, d domain.Draw) error {
	if w.err != nil {
		return w.err
	}
	w.commits = append(w.commits, d)
	return nil
}

func newCoordinator(w Writer) *Coordinator {
	cache := newFakeCache()
	return New(
		tracker.New(""),
		dedup.New(cache, "project:seen:issue:", time.Minute),
		lock.New(cache, "project:lock:issue:", time.Minute),
		w,
	)
}

func TestCoordinator_Ingest_CommitsValidDraw(t *testing.T) {
	t.Parallel()
	w := &recordingWriter{}
	c := newCoordinator(w)

	err := c.Ingest(context.Background(), domain.RawDraw{
		Issue:       "0000001",
		OpenTimeRaw: "2026-07-31 09:15:00",
		OpenNums:    "3+4+5",
		Source:      "primary",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.commits) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(w.commits))
	}
	if w.commits[0].Sum != 12 {
		t.Fatalf("expected sum 12, got %d", w.commits[0].Sum)
	}
}

func TestCoordinator_Ingest_RejectsStaleIssue(t *testing.T) {
	t.Parallel()
	w := &recordingWriter{}
	c := newCoordinator(w)
	ctx := context.Background()

	raw := domain.RawDraw{Issue: "0000002", OpenTimeRaw: "2026-07-31 09:15:00", OpenNums: "1+2+3", Source: "primary"}
	if err := c.Ingest(ctx, raw); err != nil {
		t.Fatalf("first ingest: unexpected error: %v", err)
	}
	if err := c.Ingest(ctx, raw); !errors.Is(err, domain.ErrStale) {
		t.Fatalf("expected ErrStale on replay, got %v", err)
	}
	if len(w.commits) != 1 {
		t.Fatalf("expected exactly 1 commit, got %d", len(w.commits))
	}
}

func TestCoordinator_Ingest_RejectsInvalidGrammar(t *testing.T) {
	t.Parallel()
	w := &recordingWriter{}
	c := newCoordinator(w)

	err := c.Ingest(context.Background(), domain.RawDraw{
		Issue:       "0000003",
		OpenTimeRaw: "2026-07-31 09:15:00",
		OpenNums:    "bad",
		Source:      "primary",
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}
	if len(w.commits) != 0 {
		t.Fatalf("expected no commits, got %d", len(w.commits))
	}
}

func TestCoordinator_Ingest_PropagatesWriterError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	w := &recordingWriter{err: boom}
	c := newCoordinator(w)

	err := c.Ingest(context.Background(), domain.RawDraw{
		Issue:       "0000004",
		OpenTimeRaw: "2026-07-31 09:15:00",
		OpenNums:    "1+2+3",
		Source:      "primary",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error to propagate, got %v", err)
	}
}

// TestCoordinator_Ingest_RetriesAfterValidationFailure verifies that a
// raw draw rejected for a reason unrelated to the seen-set (bad
// grammar here) is not permanently dropped: a later, corrected fetch
// of the same issue must still be able to commit. The seen-set must
// only be mutated after a successful commit, never before.
func TestCoordinator_Ingest_RetriesAfterValidationFailure(t *testing.T) {
	t.Parallel()
	w := &recordingWriter{}
	c := newCoordinator(w)
	ctx := context.Background()

	bad := domain.RawDraw{Issue: "0000005", OpenTimeRaw: "2026-07-31 09:15:00", OpenNums: "bad", Source: "primary"}
	if err := c.Ingest(ctx, bad); err == nil {
		t.Fatal("expected the malformed fetch to be rejected")
	}

	good := domain.RawDraw{Issue: "0000005", OpenTimeRaw: "2026-07-31 09:15:00", OpenNums: "1+2+3", Source: "primary"}
	if err := c.Ingest(ctx, good); err != nil {
		t.Fatalf("expected the corrected retry to commit, got %v", err)
	}
	if len(w.commits) != 1 {
		t.Fatalf("expected exactly 1 commit, got %d", len(w.commits))
	}
}

// TestCoordinator_Ingest_RetriesAfterWriterFailure mirrors the above
// for a transient writer error: the seen-set must not have been
// marked, so a subsequent successful attempt still commits.
func TestCoordinator_Ingest_RetriesAfterWriterFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	w := &recordingWriter{err: boom}
	c := newCoordinator(w)
	ctx := context.Background()

	raw := domain.RawDraw{Issue: "0000006", OpenTimeRaw: "2026-07-31 09:15:00", OpenNums: "1+2+3", Source: "primary"}
	if err := c.Ingest(ctx, raw); !errors.Is(err, boom) {
		t.Fatalf("expected first attempt to fail with writer error, got %v", err)
	}

	w.err = nil
	if err := c.Ingest(ctx, raw); err != nil {
		t.Fatalf("expected retry to commit once the writer recovers, got %v", err)
	}
	if len(w.commits) != 1 {
		t.Fatalf("expected exactly 1 commit, got %d", len(w.commits))
	}
}
