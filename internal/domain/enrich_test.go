package domain

import (
	"fmt"
	"testing"
)

func enrichTriple(a, b, c int) Draw {
	sum := a + b + c
	return Enrich(Draw{OpenNums: fmt.Sprintf("%d+%d+%d", a, b, c), Sum: sum})
}

// TestEnrich_TriplePairStraightMiscAreMutuallyExclusiveAndExhaustive
// walks every one of the 1000 (a,b,c) digit triples and checks that
// exactly one of IsTriple/IsPair/IsStraight/IsMisc holds, and that it
// is the one the shape of the triple actually implies.
func TestEnrich_TriplePairStraightMiscAreMutuallyExclusiveAndExhaustive(t *testing.T) {
	for a := 0; a <= 9; a++ {
		for b := 0; b <= 9; b++ {
			for c := 0; c <= 9; c++ {
				d := enrichTriple(a, b, c)

				set := 0
				if d.IsTriple {
					set++
				}
				if d.IsPair {
					set++
				}
				if d.IsStraight {
					set++
				}
				if d.IsMisc {
					set++
				}
				if set != 1 {
					t.Fatalf("triple (%d,%d,%d): expected exactly one of triple/pair/straight/misc, got %d set (triple=%v pair=%v straight=%v misc=%v)",
						a, b, c, set, d.IsTriple, d.IsPair, d.IsStraight, d.IsMisc)
				}

				wantTriple := a == b && b == c
				if d.IsTriple != wantTriple {
					t.Fatalf("triple (%d,%d,%d): IsTriple=%v, want %v", a, b, c, d.IsTriple, wantTriple)
				}

				wantPair := !wantTriple && (a == b || b == c || a == c)
				if d.IsPair != wantPair {
					t.Fatalf("triple (%d,%d,%d): IsPair=%v, want %v", a, b, c, d.IsPair, wantPair)
				}

				wantStraight := !wantTriple && !wantPair && isStraight(a, b, c)
				if d.IsStraight != wantStraight {
					t.Fatalf("triple (%d,%d,%d): IsStraight=%v, want %v", a, b, c, d.IsStraight, wantStraight)
				}

				wantMisc := !wantTriple && !wantPair && !wantStraight
				if d.IsMisc != wantMisc {
					t.Fatalf("triple (%d,%d,%d): IsMisc=%v, want %v", a, b, c, d.IsMisc, wantMisc)
				}
			}
		}
	}
}

// TestEnrich_DragonTigerTieAreMutuallyExclusiveAndExhaustive covers the
// same exhaustive sweep for the first-vs-last digit comparison.
func TestEnrich_DragonTigerTieAreMutuallyExclusiveAndExhaustive(t *testing.T) {
	for a := 0; a <= 9; a++ {
		for b := 0; b <= 9; b++ {
			for c := 0; c <= 9; c++ {
				d := enrichTriple(a, b, c)

				set := 0
				if d.IsDragon {
					set++
				}
				if d.IsTiger {
					set++
				}
				if d.IsTie {
					set++
				}
				if set != 1 {
					t.Fatalf("triple (%d,%d,%d): expected exactly one of dragon/tiger/tie, got %d", a, b, c, set)
				}
				if d.IsDragon != (a > c) {
					t.Fatalf("triple (%d,%d,%d): IsDragon=%v, want %v", a, b, c, d.IsDragon, a > c)
				}
				if d.IsTiger != (a < c) {
					t.Fatalf("triple (%d,%d,%d): IsTiger=%v, want %v", a, b, c, d.IsTiger, a < c)
				}
				if d.IsTie != (a == c) {
					t.Fatalf("triple (%d,%d,%d): IsTie=%v, want %v", a, b, c, d.IsTie, a == c)
				}
			}
		}
	}
}

// TestEnrich_BigSmallOddEvenAreComplementaryAcrossEverySum walks every
// possible sum 0..27 and checks the big/small and odd/even pairs are
// each exactly one true, one false.
func TestEnrich_BigSmallOddEvenAreComplementaryAcrossEverySum(t *testing.T) {
	for sum := 0; sum <= 27; sum++ {
		d := Enrich(Draw{OpenNums: "0+0+0", Sum: sum})

		if d.IsBig == d.IsSmall {
			t.Fatalf("sum %d: IsBig and IsSmall must differ, got big=%v small=%v", sum, d.IsBig, d.IsSmall)
		}
		if d.IsOdd == d.IsEven {
			t.Fatalf("sum %d: IsOdd and IsEven must differ, got odd=%v even=%v", sum, d.IsOdd, d.IsEven)
		}

		wantBig := sum >= 14
		if d.IsBig != wantBig {
			t.Fatalf("sum %d: IsBig=%v, want %v", sum, d.IsBig, wantBig)
		}
		wantOdd := sum%2 == 1
		if d.IsOdd != wantOdd {
			t.Fatalf("sum %d: IsOdd=%v, want %v", sum, d.IsOdd, wantOdd)
		}
	}
}

// TestEnrich_ExtremeSumBoundaries pins the exact cutoffs for
// extreme-small/extreme-big and the small/middle/big edge bands,
// since an off-by-one here silently mislabels a whole sum bucket.
func TestEnrich_ExtremeSumBoundaries(t *testing.T) {
	cases := []struct {
		sum                              int
		extremeSmall, extremeBig         bool
		smallEdge, middle, bigEdge, edge bool
	}{
		{sum: 0, extremeSmall: true, smallEdge: true, edge: true},
		{sum: 5, extremeSmall: true, smallEdge: true, edge: true},
		{sum: 6, smallEdge: true, edge: true},
		{sum: 9, smallEdge: true, edge: true},
		{sum: 10, middle: true},
		{sum: 17, middle: true},
		{sum: 18, bigEdge: true, edge: true},
		{sum: 21, bigEdge: true, edge: true},
		{sum: 22, extremeBig: true, bigEdge: true, edge: true},
		{sum: 27, extremeBig: true, bigEdge: true, edge: true},
	}

	for _, tc := range cases {
		d := Enrich(Draw{OpenNums: "0+0+0", Sum: tc.sum})
		if d.IsExtremeSmall != tc.extremeSmall {
			t.Errorf("sum %d: IsExtremeSmall=%v, want %v", tc.sum, d.IsExtremeSmall, tc.extremeSmall)
		}
		if d.IsExtremeBig != tc.extremeBig {
			t.Errorf("sum %d: IsExtremeBig=%v, want %v", tc.sum, d.IsExtremeBig, tc.extremeBig)
		}
		if d.IsSmallEdge != tc.smallEdge {
			t.Errorf("sum %d: IsSmallEdge=%v, want %v", tc.sum, d.IsSmallEdge, tc.smallEdge)
		}
		if d.IsMiddle != tc.middle {
			t.Errorf("sum %d: IsMiddle=%v, want %v", tc.sum, d.IsMiddle, tc.middle)
		}
		if d.IsBigEdge != tc.bigEdge {
			t.Errorf("sum %d: IsBigEdge=%v, want %v", tc.sum, d.IsBigEdge, tc.bigEdge)
		}
		if d.IsEdge != tc.edge {
			t.Errorf("sum %d: IsEdge=%v, want %v", tc.sum, d.IsEdge, tc.edge)
		}
	}
}

// TestEnrich_CombinationMatchesBigSmallOddEven cross-checks the
// Combination label against the big/small and odd/even booleans it is
// derived from, across every sum 0..27.
func TestEnrich_CombinationMatchesBigSmallOddEven(t *testing.T) {
	for sum := 0; sum <= 27; sum++ {
		d := Enrich(Draw{OpenNums: "0+0+0", Sum: sum})

		var want Combination
		switch {
		case d.IsBig && d.IsOdd:
			want = CombinationBigOdd
		case d.IsSmall && d.IsOdd:
			want = CombinationSmallOdd
		case d.IsBig && d.IsEven:
			want = CombinationBigEven
		default:
			want = CombinationSmallEven
		}
		if d.Combination != want {
			t.Fatalf("sum %d: Combination=%q, want %q", sum, d.Combination, want)
		}
	}
}

func TestDigitSum_MatchesOpenNums(t *testing.T) {
	cases := []struct {
		openNums string
		want     int
	}{
		{"0+0+0", 0},
		{"9+9+9", 27},
		{"1+2+3", 6},
		{"4+0+9", 13},
	}
	for _, tc := range cases {
		if got := DigitSum(tc.openNums); got != tc.want {
			t.Errorf("DigitSum(%q) = %d, want %d", tc.openNums, got, tc.want)
		}
	}
}

func TestHeldCategories_AlwaysHoldsCombinationAndSumBucket(t *testing.T) {
	d := Enrich(Draw{OpenNums: "1+2+3", Sum: 6})
	held := HeldCategories(d)

	if !held[string(d.Combination)] {
		t.Fatalf("expected combination label %q to be held", d.Combination)
	}
	if !held[SumBucket(d.Sum)] {
		t.Fatalf("expected sum bucket %q to be held", SumBucket(d.Sum))
	}
}
