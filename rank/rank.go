// Package rank chooses among competing alignment records of one query.
package rank

import (
	"sort"

	"github.com/rdleal/intervalst/interval"

	"github.com/mudesheng/tiledaligner/psl"
	"github.com/mudesheng/tiledaligner/utils"
)

var cmpFn = func(x, y int) int { return x - y }

// Overlap reports whether a and b lie on the same target and strand and
// their half-open target ranges intersect.
func Overlap(a, b psl.Record) bool {
	return a.TName == b.TName && a.Strand == b.Strand && a.TStart < b.TEnd && b.TStart < a.TEnd
}

func overlapLength(a, b psl.Record) int {
	return utils.MaxInt(0, utils.MinInt(a.TEnd, b.TEnd)-utils.MaxInt(a.TStart, b.TStart))
}

type targetKey struct {
	name   string
	strand string
}

// RemoveOverlapping keeps records greedily by descending score, stable on
// ties. A record is dropped when its target range overlaps a kept record on
// the same target and strand, or when its query range lies inside the query
// range of a kept record on any target or strand. Kept records are returned
// best first.
func RemoveOverlapping(records []psl.Record) []psl.Record {
	rs := append([]psl.Record(nil), records...)
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Score() > rs[j].Score() })

	trees := make(map[targetKey]*interval.SearchTree[int, int])
	var kept []psl.Record
	for _, r := range rs {
		k := targetKey{r.TName, r.Strand}
		tree := trees[k]
		if tree != nil && r.TEnd > r.TStart {
			if _, ok := tree.AnyIntersection(r.TStart, r.TEnd-1); ok {
				continue
			}
		}
		contained := false
		for _, o := range kept {
			if o.QStart <= r.QStart && r.QEnd <= o.QEnd {
				contained = true
				break
			}
		}
		if contained {
			continue
		}
		if r.TEnd > r.TStart {
			if tree == nil {
				tree = interval.NewSearchTree[int, int](cmpFn)
				trees[k] = tree
			}
			// intervals in the tree are closed
			if err := tree.Insert(r.TStart, r.TEnd-1, len(kept)); err != nil {
				continue
			}
		}
		kept = append(kept, r)
	}
	return kept
}

// CombinedNonOverlappingScore scores a pair of records as one candidate:
// the better score and the overlap length when they overlap, otherwise the
// sum of both scores and zero.
func CombinedNonOverlappingScore(a, b psl.Record) (score, overlap int) {
	if Overlap(a, b) {
		score = a.Score()
		if b.Score() > score {
			score = b.Score()
		}
		return score, overlapLength(a, b)
	}
	return a.Score() + b.Score(), 0
}

// FindInRange returns the first record whose query range is exactly
// [queryStart, queryEnd).
func FindInRange(records []psl.Record, queryStart, queryEnd int) (psl.Record, bool) {
	for _, r := range records {
		if r.QStart == queryStart && r.QEnd == queryEnd {
			return r, true
		}
	}
	return psl.Record{}, false
}
