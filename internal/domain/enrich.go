package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// splitDigits parses "a+b+c" into three digits. The caller is expected
// to have already validated the string with ValidateOpenNums.
func splitDigits(openNums string) (a, b, c int) {
	parts := strings.Split(openNums, "+")
	if len(parts) != 3 {
		panic(fmt.Sprintf("domain: malformed open_nums %q", openNums))
	}
	a, _ = strconv.Atoi(parts[0])
	b, _ = strconv.Atoi(parts[1])
	c, _ = strconv.Atoi(parts[2])
	return a, b, c
}

// DigitSum parses "a+b+c" and returns a+b+c. Callers must validate
// openNums first with ValidateOpenNums.
func DigitSum(openNums string) int {
	a, b, c := splitDigits(openNums)
	return a + b + c
}

// Enrich derives the 19 boolean/enum fields from OpenNums and Sum and
// returns a new Draw with them populated. It is invoked exactly once
// per draw, strictly before the database write (see
// internal/application/ingest). Enrich never mutates its argument.
func Enrich(d Draw) Draw {
	a, b, c := splitDigits(d.OpenNums)
	sum := d.Sum

	out := d

	out.IsBig = sum >= 14
	out.IsSmall = !out.IsBig
	out.IsOdd = sum%2 == 1
	out.IsEven = !out.IsOdd
	out.IsExtremeBig = sum >= 22
	out.IsExtremeSmall = sum <= 5

	switch {
	case out.IsBig && out.IsOdd:
		out.Combination = CombinationBigOdd
	case out.IsSmall && out.IsOdd:
		out.Combination = CombinationSmallOdd
	case out.IsBig && out.IsEven:
		out.Combination = CombinationBigEven
	default:
		out.Combination = CombinationSmallEven
	}

	switch {
	case a == b && b == c:
		out.IsTriple = true
	case a == b || b == c || a == c:
		out.IsPair = true
	case isStraight(a, b, c):
		out.IsStraight = true
	default:
		out.IsMisc = true
	}

	out.IsSmallEdge = sum >= 0 && sum <= 9
	out.IsMiddle = sum >= 10 && sum <= 17
	out.IsBigEdge = sum >= 18 && sum <= 27
	out.IsEdge = out.IsSmallEdge || out.IsBigEdge

	out.IsDragon = a > c
	out.IsTiger = a < c
	out.IsTie = a == c

	return out
}

// isStraight reports whether the three digits form three consecutive
// values in any order, e.g. {3,4,5} or {5,4,3} or {4,3,5}.
func isStraight(a, b, c int) bool {
	vals := []int{a, b, c}
	// sort the three values manually (fixed small size, no need for sort pkg)
	if vals[0] > vals[1] {
		vals[0], vals[1] = vals[1], vals[0]
	}
	if vals[1] > vals[2] {
		vals[1], vals[2] = vals[2], vals[1]
	}
	if vals[0] > vals[1] {
		vals[0], vals[1] = vals[1], vals[0]
	}
	return vals[0] != vals[1] && vals[1] != vals[2] && vals[1]-vals[0] == 1 && vals[2]-vals[1] == 1
}

// SumBucket formats a sum 0..27 as the two-digit category key used in
// omission counters and daily stats, e.g. 5 -> "05", 16 -> "16".
func SumBucket(sum int) string {
	return fmt.Sprintf("%02d", sum)
}

// AllCategories is the fixed closed set of 49 omission/daily-stats
// categories: 21 boolean/enum labels plus 28 sum buckets "00".."27".
func AllCategories() []string {
	cats := make([]string, 0, 49)
	cats = append(cats,
		"big", "small", "odd", "even",
		"extreme_big", "extreme_small",
		"big-odd", "small-odd", "big-even", "small-even",
		"triple", "pair", "straight", "misc",
		"small_edge", "middle", "big_edge", "edge",
		"dragon", "tiger", "tie",
	)
	for s := 0; s <= 27; s++ {
		cats = append(cats, SumBucket(s))
	}
	return cats
}

// HeldCategories returns the set of categories this draw holds: every
// label whose corresponding derived boolean is true, plus the sum
// bucket (always held).
func HeldCategories(d Draw) map[string]bool {
	h := make(map[string]bool, 8)
	add := func(ok bool, name string) {
		if ok {
			h[name] = true
		}
	}
	add(d.IsBig, "big")
	add(d.IsSmall, "small")
	add(d.IsOdd, "odd")
	add(d.IsEven, "even")
	add(d.IsExtremeBig, "extreme_big")
	add(d.IsExtremeSmall, "extreme_small")
	h[string(d.Combination)] = true
	add(d.IsTriple, "triple")
	add(d.IsPair, "pair")
	add(d.IsStraight, "straight")
	add(d.IsMisc, "misc")
	add(d.IsSmallEdge, "small_edge")
	add(d.IsMiddle, "middle")
	add(d.IsBigEdge, "big_edge")
	add(d.IsEdge, "edge")
	add(d.IsDragon, "dragon")
	add(d.IsTiger, "tiger")
	add(d.IsTie, "tie")
	h[SumBucket(d.Sum)] = true
	return h
}
