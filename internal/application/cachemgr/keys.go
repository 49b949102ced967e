package cachemgr

import "fmt"

// Keys builds the cache key grammar under a common namespace prefix.
// Every cache user (the REST handlers, the daily-stats processed
// marker) should go through these rather than formatting keys
// inline, so the grammar stays in one place.
type Keys struct {
	prefix string
}

// NewKeys builds a Keys for the given namespace prefix (typically
// "project:").
func NewKeys(prefix string) Keys {
	return Keys{prefix: prefix}
}

// LockIssue is the distributed per-issue write lock key.
func (k Keys) LockIssue(issue string) string { return k.prefix + "lock:issue:" + issue }

// SeenIssue is the distributed seen-set entry key.
func (k Keys) SeenIssue(issue string) string { return k.prefix + "seen:issue:" + issue }

// LastIssue is the shared last-issue pointer key.
func (k Keys) LastIssue() string { return k.prefix + "last:issue" }

// LatestDraws is the latest-draws payload key for a given limit.
func (k Keys) LatestDraws(limit int) string { return fmt.Sprintf("%skj:limit:%d", k.prefix, limit) }

// OmissionSnapshot is the omission snapshot payload key.
func (k Keys) OmissionSnapshot() string { return k.prefix + "yl" }

// DailyStatsSnapshot is the daily-stats snapshot payload key for one
// calendar date.
func (k Keys) DailyStatsSnapshot(date string) string { return fmt.Sprintf("%syk:%s", k.prefix, date) }

// PredictionLimit is a prediction-type payload key for a given limit.
func (k Keys) PredictionLimit(t, limit any) string {
	return fmt.Sprintf("%spredict:%v:limit:%v", k.prefix, t, limit)
}

// PredictionLock is the prediction-cycle lock key for an issue.
func (k Keys) PredictionLock(issue string) string { return k.prefix + "predict:lock:" + issue }

// WinRate is a prediction type's hit-rate snapshot key.
func (k Keys) WinRate(t any) string { return fmt.Sprintf("%swinrate:%v", k.prefix, t) }

// ExcelLottery is the cached export-artifact key for the latest N draws.
func (k Keys) ExcelLottery(n int) string { return fmt.Sprintf("%sexcel:lottery:%d", k.prefix, n) }

// ExcelStats is the cached export-artifact key for a stats window.
func (k Keys) ExcelStats(days int) string { return fmt.Sprintf("%sexcel:stats:%d", k.prefix, days) }

// TodayStatsProcessed marks an (date, issue) pair already applied to
// the day's counters, backing the fast-path idempotency check ahead of
// the durable daily_stats_markers table.
func (k Keys) TodayStatsProcessed(date, issue string) string {
	return fmt.Sprintf("%stoday_stats:processed:%s:%s", k.prefix, date, issue)
}
