// Package domain holds the pipeline's core types: the authoritative
// Draw record, its derived fields, omission/daily-stats counters,
// predictions, and the events that tie the pipeline stages together.
package domain

import "time"

// Combination is the magnitude x parity cross-product label.
type Combination string

const (
	CombinationBigOdd    Combination = "big-odd"
	CombinationSmallOdd  Combination = "small-odd"
	CombinationBigEven   Combination = "big-even"
	CombinationSmallEven Combination = "small-even"
)

// Draw is the authoritative record for one published issue, including
// the 19 fields derived once by Enrich (see enrich.go).
type Draw struct {
	Issue     string    `json:"issue"`
	OpenTime  time.Time `json:"open_time"`
	OpenNums  string    `json:"open_nums"`
	Sum       int       `json:"sum"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	IsBig          bool        `json:"is_big"`
	IsSmall        bool        `json:"is_small"`
	IsOdd          bool        `json:"is_odd"`
	IsEven         bool        `json:"is_even"`
	IsExtremeBig   bool        `json:"is_extreme_big"`
	IsExtremeSmall bool        `json:"is_extreme_small"`
	Combination    Combination `json:"combination"`
	IsTriple       bool        `json:"is_triple"`
	IsPair         bool        `json:"is_pair"`
	IsStraight     bool        `json:"is_straight"`
	IsMisc         bool        `json:"is_misc"`
	IsSmallEdge    bool        `json:"is_small_edge"`
	IsMiddle       bool        `json:"is_middle"`
	IsBigEdge      bool        `json:"is_big_edge"`
	IsEdge         bool        `json:"is_edge"`
	IsDragon       bool        `json:"is_dragon"`
	IsTiger        bool        `json:"is_tiger"`
	IsTie          bool        `json:"is_tie"`
}

// RawDraw is what a poller emits before validation and enrichment:
// the four fields a source contract always carries, plus the still-raw
// time string in the source's local representation.
type RawDraw struct {
	Issue         string
	OpenTimeRaw   string
	OpenNums      string
	Sum           int
	HasSum        bool
	Source        string
}

// Digits splits OpenNums ("a+b+c") into its three digits. Callers must
// validate OpenNums first; Digits panics on malformed input.
func (d *Draw) Digits() (a, b, c int) {
	return splitDigits(d.OpenNums)
}
