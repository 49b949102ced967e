package prediction

import (
	"fmt"
	"strings"

	"github.com/drawsync/pipeline/internal/domain"
)

// buildPrompt assembles the system+user prompt pair for one prediction
// type from recent draw history and the type's own recent call
// history, per the recency-bias balancing rule: if one label occupies
// more than biasThreshold of the last len(recentValues) calls, the
// prompt is given an explicit hint to favor the others.
func buildPrompt(t domain.PredictionType, nextIssue string, recentDraws []domain.Draw, recentValues []string, biasThreshold float64) (systemPrompt, userPrompt string) {
	systemPrompt = fmt.Sprintf(
		"You predict the next %s outcome of a 3-digit sum lottery draw (values 0-27). "+
			"Reply with exactly one value matching the allowed grammar and nothing else.",
		t,
	)

	var b strings.Builder
	fmt.Fprintf(&b, "Target issue: %s\n", nextIssue)
	fmt.Fprintf(&b, "Allowed values: %s\n\n", grammarHint(t))

	fmt.Fprintf(&b, "Recent draws (oldest to newest):\n")
	for i := len(recentDraws) - 1; i >= 0; i-- {
		d := recentDraws[i]
		fmt.Fprintf(&b, "- issue %s: open_nums=%s sum=%d combination=%s\n", d.Issue, d.OpenNums, d.Sum, d.Combination)
	}

	fmt.Fprintf(&b, "\n%s\n", trendSummary(recentDraws))
	fmt.Fprintf(&b, "%s\n", sameDaySummary(recentDraws))

	if hint := biasHint(t, recentValues, biasThreshold); hint != "" {
		fmt.Fprintf(&b, "\n%s\n", hint)
	}

	fmt.Fprintf(&b, "\nRespond with only the predicted value, matching the grammar exactly.")
	return systemPrompt, b.String()
}

func grammarHint(t domain.PredictionType) string {
	switch t {
	case domain.PredictionParity:
		return `"odd" or "even"`
	case domain.PredictionMagnitude:
		return `"big" or "small"`
	case domain.PredictionCombo:
		return `two distinct combination labels from "big-odd", "small-odd", "big-even", "small-even", comma-separated (e.g. "big-odd,small-even")`
	case domain.PredictionKill:
		return `a single combination label from "big-odd", "small-odd", "big-even", "small-even" believed unlikely to be drawn next`
	default:
		return ""
	}
}

// trendSummary describes the last up-to-3 draws' sum trajectory.
func trendSummary(recentDraws []domain.Draw) string {
	n := len(recentDraws)
	if n == 0 {
		return "Trend: no history."
	}
	window := n
	if window > 3 {
		window = 3
	}
	parts := make([]string, 0, window)
	for i := window - 1; i >= 0; i-- {
		parts = append(parts, fmt.Sprintf("%d", recentDraws[i].Sum))
	}
	return "Trend (oldest to newest of last " + fmt.Sprintf("%d", window) + "): " + strings.Join(parts, " -> ")
}

// sameDaySummary counts how many of the recent draws fall on the same
// calendar day as the most recent one.
func sameDaySummary(recentDraws []domain.Draw) string {
	if len(recentDraws) == 0 {
		return "Same-day count: 0."
	}
	today := domain.DailyStatDate(recentDraws[0].OpenTime)
	count := 0
	for _, d := range recentDraws {
		if domain.DailyStatDate(d.OpenTime) == today {
			count++
		}
	}
	return fmt.Sprintf("Same-day count (%s): %d draws so far.", today, count)
}

// biasHint returns a non-empty nudge when one label dominates more
// than biasThreshold of the recent call history.
func biasHint(t domain.PredictionType, recentValues []string, biasThreshold float64) string {
	if len(recentValues) == 0 {
		return ""
	}
	counts := make(map[string]int, 4)
	for _, v := range recentValues {
		counts[v]++
	}
	total := len(recentValues)
	for value, count := range counts {
		if float64(count)/float64(total) > biasThreshold {
			return fmt.Sprintf(
				"Note: the last %d calls for %s favored %q %d/%d times (%.0f%%). "+
					"Consider whether a different value is now more likely.",
				total, t, value, count, total, 100*float64(count)/float64(total),
			)
		}
	}
	return ""
}
