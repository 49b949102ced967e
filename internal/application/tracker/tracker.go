// Package tracker implements the pipeline's first deduplication
// funnel stage: a process-local, mutex-protected record of the newest
// issue committed so far. It exists to reject the overwhelming
// majority of duplicate poller ticks (the same issue re-fetched every
// few seconds until the source rolls over) without a network round
// trip to Redis.
package tracker

import "sync"

// Tracker holds the last-seen issue in memory.
type Tracker struct {
	mu        sync.RWMutex
	lastIssue string
}

// New builds a Tracker seeded with the newest issue already committed
// to the database, so a process restart doesn't re-admit old draws.
func New(seedIssue string) *Tracker {
	return &Tracker{lastIssue: seedIssue}
}

// LastIssue returns the newest issue observed so far.
func (t *Tracker) LastIssue() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastIssue
}

// IsNew reports whether issue is strictly newer than the high-water
// mark, without advancing it. It is a read-only check: a failed
// validation or write downstream must not have permanently consumed
// this issue's one shot at ingestion, so advancing the mark is a
// separate, explicit step (Update) taken only after a successful
// commit.
func (t *Tracker) IsNew(issue string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastIssue == "" || issue > t.lastIssue
}

// Update advances the high-water mark to issue if issue is strictly
// greater than the current mark; non-increasing updates are ignored.
// Callers invoke this only after a successful commit.
func (t *Tracker) Update(issue string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastIssue != "" && issue <= t.lastIssue {
		return
	}
	t.lastIssue = issue
}
