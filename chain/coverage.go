package chain

import (
	"sort"

	"github.com/mudesheng/tiledaligner/tilematch"
)

// Interval is a closed range of query offsets.
type Interval struct {
	Start, End int
}

// CoverageInterval returns the closed, clipped forward query interval of a
// run; ok is false when nothing is left after clipping.
func CoverageInterval(m tilematch.TileMatch, querySize, tileLength int) (Interval, bool) {
	s := m.StartPositionInSequence(querySize, tileLength)
	iv := Interval{Start: s, End: s + m.TileRunLength() + tileLength - 2}
	if iv.Start < 0 {
		iv.Start = 0
	}
	if iv.End > querySize-1 {
		iv.End = querySize - 1
	}
	return iv, iv.End >= iv.Start
}

// CoveredBases is the size of the union of the runs' coverage intervals.
func CoveredBases(set tilematch.Set, querySize, tileLength int) int {
	ivs := make([]Interval, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		if iv, ok := CoverageInterval(set.At(i), querySize, tileLength); ok {
			ivs = append(ivs, iv)
		}
	}
	return unionLength(ivs)
}

func unionLength(ivs []Interval) int {
	if len(ivs) == 0 {
		return 0
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })
	total := 0
	cur := ivs[0]
	for _, iv := range ivs[1:] {
		if iv.Start > cur.End+1 {
			total += cur.End - cur.Start + 1
			cur = iv
			continue
		}
		if iv.End > cur.End {
			cur.End = iv.End
		}
	}
	return total + cur.End - cur.Start + 1
}

// UncoveredRanges returns the half-open gaps of at least minSize bases left
// in [0, querySize) by the set's coverage.
func UncoveredRanges(set tilematch.Set, querySize, tileLength, minSize int) [][2]int {
	if minSize < 1 {
		minSize = 1
	}
	ivs := make([]Interval, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		if iv, ok := CoverageInterval(set.At(i), querySize, tileLength); ok {
			ivs = append(ivs, iv)
		}
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })
	var out [][2]int
	next := 0
	for _, iv := range ivs {
		if iv.Start-next >= minSize {
			out = append(out, [2]int{next, iv.Start})
		}
		if iv.End+1 > next {
			next = iv.End + 1
		}
	}
	if querySize-next >= minSize {
		out = append(out, [2]int{next, querySize})
	}
	return out
}

// MismatchTotal sums the mismatch counts of all runs.
func MismatchTotal(set tilematch.Set) int {
	total := 0
	for i := 0; i < set.Len(); i++ {
		total += set.At(i).MismatchCount()
	}
	return total
}
