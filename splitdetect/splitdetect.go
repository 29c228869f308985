// Package splitdetect groups tile index hits into multi-run hypotheses that
// may explain a query spanning more than one locus.
package splitdetect

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/tiledaligner/chain"
	"github.com/mudesheng/tiledaligner/tilematch"
	"github.com/mudesheng/tiledaligner/utils"
)

// DefaultMaxPairs bounds the hypotheses Detect builds for one query.
const DefaultMaxPairs = 64

type Params struct {
	MinTileCount  int
	OverlapBuffer int
	TileLength    int
	// MaxHitsPerBucket skips buckets holding more hits than this; zero means no limit.
	MaxHitsPerBucket int
	// MaxPairs stops pairing once this many distinct hypotheses exist; zero means no limit.
	MaxPairs int
}

func DefaultParams() Params {
	return Params{
		MinTileCount:  2,
		OverlapBuffer: 5,
		TileLength:    tilematch.DefaultTileLength,
		MaxPairs:      DefaultMaxPairs,
	}
}

type hit struct {
	m     tilematch.TileMatch
	cover chain.Interval
}

// PossibleTileRanges returns the half-open parts of the query before and
// after an anchor run that are at least minSize long and so could still hold
// a partner run. With fromEnd set the anchor offset is measured on the
// reverse complemented query.
func PossibleTileRanges(querySize, anchorOffset, tileLength, tileCount, minSize int, fromEnd bool) [][2]int {
	length := tileCount + tileLength - 1
	start := anchorOffset
	if fromEnd {
		start = querySize - anchorOffset - length
	}
	end := start + length
	if minSize < 1 {
		minSize = 1
	}
	var ranges [][2]int
	if start >= minSize {
		ranges = append(ranges, [2]int{0, start})
	}
	if end < 0 {
		end = 0
	}
	if querySize-end >= minSize {
		ranges = append(ranges, [2]int{end, querySize})
	}
	return ranges
}

func contains(a, b chain.Interval) bool {
	return a.Start <= b.Start && b.End <= a.End
}

func overlap(a, b chain.Interval) int {
	return utils.MinInt(a.End, b.End) - utils.MaxInt(a.Start, b.Start) + 1
}

func inRanges(ranges [][2]int, iv chain.Interval, buffer int) bool {
	for _, r := range ranges {
		if iv.Start >= r[0]-buffer && iv.End < r[1]+buffer {
			return true
		}
	}
	return false
}

// Detect returns distinct two-run hypotheses keyed by the number of query
// bases they cover together. The map is empty when one run dominates.
func Detect(hits tilematch.Hits, p Params) (map[int][]tilematch.Set, error) {
	querySize := len(hits.Sequence)
	var pool []hit
	for _, q := range hits.Qualities() {
		if tc, _ := tilematch.UnpackQuality(q); tc < p.MinTileCount {
			continue
		}
		if p.MaxHitsPerBucket > 0 && len(hits.ByQuality[q]) > p.MaxHitsPerBucket {
			log.Debugf("[Detect] %s: skipping bucket with %d hits", hits.Name, len(hits.ByQuality[q]))
			continue
		}
		bucket, err := hits.Bucket(q)
		if err != nil {
			return nil, err
		}
		for _, m := range bucket {
			if iv, ok := chain.CoverageInterval(m, querySize, p.TileLength); ok {
				pool = append(pool, hit{m: m, cover: iv})
			}
		}
	}

	minSize := p.MinTileCount + p.TileLength - 1 - p.OverlapBuffer
	idx := tilematch.NewSetIndex()
	// pool is strongest first, so pool[i] is the anchor of each pair
	// and the pairs kept under MaxPairs are those of the strongest anchors
pairing:
	for i := 0; i < len(pool); i++ {
		a := pool[i]
		ranges := PossibleTileRanges(querySize, a.cover.Start, p.TileLength, a.m.TileRunLength(), minSize, false)
		if len(ranges) == 0 {
			continue
		}
		for j := i + 1; j < len(pool); j++ {
			b := pool[j]
			if a.m == b.m || contains(a.cover, b.cover) || contains(b.cover, a.cover) {
				continue
			}
			if overlap(a.cover, b.cover) > p.OverlapBuffer {
				continue
			}
			if !inRanges(ranges, b.cover, p.OverlapBuffer) {
				continue
			}
			idx.Add(tilematch.NewSet(a.m, b.m))
			if p.MaxPairs > 0 && idx.Len() >= p.MaxPairs {
				log.Debugf("[Detect] %s: stopped pairing at %d hypotheses", hits.Name, idx.Len())
				break pairing
			}
		}
	}

	out := make(map[int][]tilematch.Set)
	for _, s := range idx.Sets() {
		k := chain.CoveredBases(s, querySize, p.TileLength)
		out[k] = append(out[k], s)
	}
	return out, nil
}

// Keys returns the coverage keys of a Detect result, largest first.
func Keys(m map[int][]tilematch.Set) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))
	return keys
}
