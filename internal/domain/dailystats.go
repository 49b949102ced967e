package domain

import "time"

// DailyStat is a (date, category) counter in the source's +08:00 local
// calendar day, incremented at most once per issue per category (see
// internal/application/dailystats for the idempotency marker that
// enforces the at-most-once rule).
type DailyStat struct {
	Date      string `json:"date"` // "YYYY-MM-DD" in siteLocation
	Category  string `json:"category"`
	HitCount  int    `json:"hit_count"`
	DrawCount int    `json:"draw_count"`
}

// DailyStatDate returns the "YYYY-MM-DD" bucket a given open_time falls
// into, in the source's fixed +08:00 local zone.
func DailyStatDate(openTime time.Time) string {
	return openTime.In(siteLocation).Format("2006-01-02")
}
