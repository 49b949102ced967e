package poller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/drawsync/pipeline/internal/domain"
)

type stubSource struct {
	name    string
	results []domain.RawDraw
	errs    []error
	calls   int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context) (domain.RawDraw, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return domain.RawDraw{}, s.errs[i]
	}
	if i < len(s.results) {
		return s.results[i], nil
	}
	return domain.RawDraw{}, errors.New("no more stubbed results")
}

func TestScheduler_Poll_DeliversOnSuccess(t *testing.T) {
	t.Parallel()
	src := &stubSource{
		name:    "test",
		results: []domain.RawDraw{{Issue: "0000001", Source: "test"}},
	}

	var mu sync.Mutex
	var received domain.RawDraw
	handler := func(ctx context.Context, raw domain.RawDraw) {
		mu.Lock()
		defer mu.Unlock()
		received = raw
	}

	sched := NewScheduler(handler)
	sched.poll(src)

	mu.Lock()
	defer mu.Unlock()
	if received.Issue != "0000001" {
		t.Fatalf("expected handler to receive issue 0000001, got %q", received.Issue)
	}
	if src.calls != 1 {
		t.Fatalf("expected exactly one fetch attempt, got %d", src.calls)
	}
}

func TestScheduler_Poll_DropsSilentlyOnFailureWithoutRetry(t *testing.T) {
	t.Parallel()
	src := &stubSource{
		name: "test",
		errs: []error{errors.New("connection reset")},
	}

	called := false
	handler := func(ctx context.Context, raw domain.RawDraw) { called = true }

	sched := NewScheduler(handler)
	sched.poll(src)

	if called {
		t.Fatal("expected handler not to be called on a failed fetch")
	}
	if src.calls != 1 {
		t.Fatalf("expected exactly one fetch attempt (next tick is the retry), got %d", src.calls)
	}
}

func TestScheduler_Poll_DropsSilentlyOnDataInvariant(t *testing.T) {
	t.Parallel()
	src := &stubSource{
		name: "test",
		errs: []error{&domain.ValidationError{Reason: "bad grammar"}},
	}

	called := false
	handler := func(ctx context.Context, raw domain.RawDraw) { called = true }

	sched := NewScheduler(handler)
	sched.poll(src)

	if called {
		t.Fatal("expected handler not to be called on a data invariant error")
	}
	if src.calls != 1 {
		t.Fatalf("expected exactly one fetch attempt, got %d", src.calls)
	}
}
