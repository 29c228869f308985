// Package chain decides whether a set of tile runs forms one contiguous
// alignment and completes partial sets from a pool of candidate runs.
package chain

import (
	"sort"

	"github.com/mudesheng/tiledaligner/tilematch"
)

const (
	// DefaultDistanceMultiplier bounds the genomic gap between consecutive
	// runs as a multiple of their query gap.
	DefaultDistanceMultiplier = 5
	// DefaultGapSlack is added to the bound above so that deletions in the
	// query still validate.
	DefaultGapSlack = 10000
	// DefaultOverlapTolerance is how far consecutive runs may overlap in the query.
	DefaultOverlapTolerance = 10
)

type Params struct {
	TileLength         int
	DistanceMultiplier int
	GapSlack           int
	OverlapTolerance   int
}

func DefaultParams() Params {
	return Params{
		TileLength:         tilematch.DefaultTileLength,
		DistanceMultiplier: DefaultDistanceMultiplier,
		GapSlack:           DefaultGapSlack,
		OverlapTolerance:   DefaultOverlapTolerance,
	}
}

type run struct {
	m          tilematch.TileMatch
	start, end int // forward query coordinates, half-open
}

func sortedRuns(set tilematch.Set, querySize, tileLength int) []run {
	runs := make([]run, set.Len())
	for i := range runs {
		m := set.At(i)
		s := m.StartPositionInSequence(querySize, tileLength)
		runs[i] = run{m: m, start: s, end: s + m.Length(tileLength)}
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].start != runs[j].start {
			return runs[i].start < runs[j].start
		}
		return runs[i].m.ReferencePosition() < runs[j].m.ReferencePosition()
	})
	return runs
}

// IsValidSingleRecord reports whether all runs of set can be modelled as
// blocks of one alignment record. A single run is trivially valid.
func IsValidSingleRecord(set tilematch.Set, querySize int, p Params) bool {
	if set.Len() < 2 {
		return set.Len() == 1
	}
	runs := sortedRuns(set, querySize, p.TileLength)
	reverse := runs[0].m.Reverse()
	for i, r := range runs {
		if r.m.Reverse() != reverse || r.start < 0 || r.end > querySize {
			return false
		}
		if i == 0 {
			continue
		}
		prev := runs[i-1]
		if r.start <= prev.start || prev.end-r.start > p.OverlapTolerance {
			return false
		}
	}

	// walk in genomic order: stored offsets increase with genomic position on either strand
	if reverse {
		for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
			runs[i], runs[j] = runs[j], runs[i]
		}
	}
	for i := 1; i < len(runs); i++ {
		a, b := runs[i-1].m, runs[i].m
		if b.ReferencePosition() <= a.ReferencePosition() {
			return false
		}
		queryGap := b.SequenceOffset() - (a.SequenceOffset() + a.Length(p.TileLength))
		if queryGap < 0 {
			queryGap = 0
		}
		genomicGap := int(b.ReferencePosition() - (a.ReferencePosition() + int64(a.Length(p.TileLength))))
		if genomicGap > p.DistanceMultiplier*queryGap+p.GapSlack {
			return false
		}
	}
	return true
}

// BestPartner picks the candidate whose genomic distance from anchor best
// agrees with its query distance. Candidates on the other strand, or whose
// genomic and query distances differ in sign, never qualify.
func BestPartner(anchor tilematch.TileMatch, candidates []tilematch.TileMatch) (tilematch.TileMatch, bool) {
	best, bestScore := -1, int64(0)
	for i, c := range candidates {
		if c == anchor || c.Reverse() != anchor.Reverse() {
			continue
		}
		qd := int64(c.SequenceOffset() - anchor.SequenceOffset())
		gd := c.ReferencePosition() - anchor.ReferencePosition()
		if qd == 0 || gd == 0 || (qd > 0) != (gd > 0) {
			continue
		}
		score := gd - qd
		if score < 0 {
			score = -score
		}
		if best < 0 || score < bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return tilematch.TileMatch{}, false
	}
	return candidates[best], true
}

// strongest returns the run with the most tiles, fewest mismatches on ties.
func strongest(set tilematch.Set) tilematch.TileMatch {
	best := set.At(0)
	for i := 1; i < set.Len(); i++ {
		m := set.At(i)
		if m.TileRunLength() > best.TileRunLength() ||
			(m.TileRunLength() == best.TileRunLength() && m.MismatchCount() < best.MismatchCount()) {
			best = m
		}
	}
	return best
}

// Extend looks for one partner per uncovered query range among candidates
// and returns the set with any partners found appended. The returned set has
// the same size as set when nothing qualified.
func Extend(set tilematch.Set, candidates []tilematch.TileMatch, querySize int, p Params) tilematch.Set {
	if set.Len() == 0 {
		return set
	}
	anchor := strongest(set)
	var added []tilematch.TileMatch
	for _, r := range UncoveredRanges(set, querySize, p.TileLength, p.TileLength) {
		var pool []tilematch.TileMatch
		for _, c := range candidates {
			if set.Contains(c) {
				continue
			}
			iv, ok := CoverageInterval(c, querySize, p.TileLength)
			if ok && iv.Start >= r[0] && iv.End < r[1] {
				pool = append(pool, c)
			}
		}
		if m, ok := BestPartner(anchor, pool); ok {
			added = append(added, m)
		}
	}
	if len(added) == 0 {
		return set
	}
	return set.Add(added...)
}
