package domain

import "time"

// OmissionCounter tracks how many consecutive draws have passed since a
// category last appeared ("miss streak"), across the 49 fixed
// categories from AllCategories. A hit resets Streak to 0; every other
// category's streak increments by one.
type OmissionCounter struct {
	Category  string    `json:"category"`
	Streak    int       `json:"streak"`
	MaxStreak int       `json:"max_streak"`
	LastIssue string    `json:"last_issue"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyDraw advances a single counter given whether the incoming draw
// held this counter's category. The omission engine does not call it:
// the storage layer applies the same rule to all 49 categories for
// every committed draw in one batched SQL UPDATE.
func (c *OmissionCounter) ApplyDraw(issue string, held bool) {
	if held {
		c.Streak = 0
	} else {
		c.Streak++
	}
	if c.Streak > c.MaxStreak {
		c.MaxStreak = c.Streak
	}
	c.LastIssue = issue
}
