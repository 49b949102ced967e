package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	issuePattern   = regexp.MustCompile(`^\d{7}$`)
	numsPattern    = regexp.MustCompile(`^\d+\+\d+\+\d+$`)
	siteLocation   = mustLoadLocation("Asia/Shanghai") // the source's fixed +08:00 local zone
)

func mustLoadLocation(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone("+08:00", 8*60*60)
}

// ValidationError is returned for every rejection in ValidateRaw; the
// coordinator logs it at WARN and drops the draw without persisting.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// ValidateIssue checks the "exactly 7 ASCII digits" rule.
func ValidateIssue(issue string) error {
	if !issuePattern.MatchString(issue) {
		return &ValidationError{Reason: fmt.Sprintf("issue %q is not 7 ASCII digits", issue)}
	}
	return nil
}

// ValidateOpenNums checks the "^\d+\+\d+\+\d+$" grammar and that each
// digit is in [0,9].
func ValidateOpenNums(openNums string) error {
	if !numsPattern.MatchString(openNums) {
		return &ValidationError{Reason: fmt.Sprintf("open_nums %q does not match a+b+c grammar", openNums)}
	}
	parts := strings.Split(openNums, "+")
	for _, p := range parts {
		if len(p) != 1 {
			return &ValidationError{Reason: fmt.Sprintf("open_nums %q has a multi-digit component", openNums)}
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 9 {
			return &ValidationError{Reason: fmt.Sprintf("open_nums %q has an out-of-range digit", openNums)}
		}
	}
	return nil
}

// ParseOpenTime accepts "YYYY-MM-DD HH:MM:SS" or "MM-DD HH:MM:SS"
// (current year assumed), interpreted in the source's +08:00 local
// zone.
func ParseOpenTime(raw string, now time.Time) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", raw, siteLocation); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("01-02 15:04:05", raw, siteLocation); err == nil {
		year := now.In(siteLocation).Year()
		return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, siteLocation), nil
	}
	return time.Time{}, &ValidationError{Reason: fmt.Sprintf("open_time %q matches neither accepted layout", raw)}
}

// ValidateSumConsistency checks that the digit sum equals the declared sum.
func ValidateSumConsistency(openNums string, sum int) error {
	a, b, c := splitDigits(openNums)
	if a+b+c != sum {
		return &ValidationError{Reason: fmt.Sprintf("digit sum %d != declared sum %d", a+b+c, sum)}
	}
	return nil
}

// ValidateRaw runs the full battery of field and range checks on a raw draw and
// returns the parsed open_time on success. lastIssue is the issue to
// compare against ("" if none); nonRegressive is false when raw.Issue
// is not greater than it, which is NOT an error (multi-source
// concurrent back-fill is allowed). The ingest coordinator passes ""
// and ignores nonRegressive, so no regression warning is logged.
func ValidateRaw(raw RawDraw, lastIssue string, now time.Time) (openTime time.Time, nonRegressive bool, err error) {
	if err := ValidateIssue(raw.Issue); err != nil {
		return time.Time{}, false, err
	}
	if err := ValidateOpenNums(raw.OpenNums); err != nil {
		return time.Time{}, false, err
	}
	sum := raw.Sum
	if !raw.HasSum {
		a, b, c := splitDigits(raw.OpenNums)
		sum = a + b + c
	}
	if err := ValidateSumConsistency(raw.OpenNums, sum); err != nil {
		return time.Time{}, false, err
	}
	openTime, err = ParseOpenTime(raw.OpenTimeRaw, now)
	if err != nil {
		return time.Time{}, false, err
	}
	nonRegressive = lastIssue == "" || issueGreater(raw.Issue, lastIssue)
	return openTime, nonRegressive, nil
}

// issueGreater compares two 7-digit issue strings numerically.
func issueGreater(a, b string) bool {
	an, _ := strconv.Atoi(a)
	bn, _ := strconv.Atoi(b)
	return an > bn
}
