package lock

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCache struct {
	fail  bool
	store map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]bool)}
}

func (f *fakeCache) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.fail {
		return false, errors.New("redis unreachable")
	}
	if f.store[key] {
		return false, nil
	}
	f.store[key] = true
	return true, nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.store, k)
	}
	return nil
}

func TestLocker_AcquireAndRelease(t *testing.T) {
	t.Parallel()
	cache := newFakeCache()
	l := New(cache, "project:lock:issue:", time.Second)

	release, ok := l.Acquire(context.Background(), "0000001")
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}

	if _, ok := l.Acquire(context.Background(), "0000001"); ok {
		t.Fatal("expected second acquire to fail while held")
	}

	release()

	if _, ok := l.Acquire(context.Background(), "0000001"); !ok {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestLocker_FallsBackToLocalOnRedisError(t *testing.T) {
	t.Parallel()
	cache := newFakeCache()
	cache.fail = true
	l := New(cache, "project:lock:issue:", time.Second)

	release, ok := l.Acquire(context.Background(), "0000002")
	if !ok {
		t.Fatal("expected local fallback acquire to succeed")
	}
	if _, ok := l.Acquire(context.Background(), "0000002"); ok {
		t.Fatal("expected local fallback to reject concurrent acquire")
	}
	release()
	if _, ok := l.Acquire(context.Background(), "0000002"); !ok {
		t.Fatal("expected acquire to succeed again after local release")
	}
}
