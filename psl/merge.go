package psl

import (
	"sort"

	"github.com/mudesheng/tiledaligner/blocks"
	"github.com/mudesheng/tiledaligner/genome"
	"github.com/mudesheng/tiledaligner/utils"
)

// DefaultMergeTolerance is how far apart, in target bases, two records may
// end and start and still be merged.
const DefaultMergeTolerance = 10

func mergeable(a, b Record, tolerance int) bool {
	if a.QName != b.QName || a.TName != b.TName || a.Strand != b.Strand {
		return false
	}
	if utils.AbsInt(b.TStart-a.TEnd) > tolerance {
		return false
	}
	aq, _ := a.OrientedQueryRange()
	bq, _ := b.OrientedQueryRange()
	return bq >= aq
}

func sortByTarget(rs []Record) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].TStart != rs[j].TStart {
			return rs[i].TStart < rs[j].TStart
		}
		return rs[i].TEnd < rs[j].TEnd
	})
}

// Merge joins records of one query that sit next to each other on the same
// target and strand into a single record. Blocks are concatenated, any
// overlap at the joins is trimmed and the counts are summed. It reports
// false when the records cannot be merged.
func Merge(records []Record, tolerance int) (Record, bool) {
	switch len(records) {
	case 0:
		return Record{}, false
	case 1:
		return records[0].Clone(), true
	}
	rs := append([]Record(nil), records...)
	sortByTarget(rs)
	for i := 1; i < len(rs); i++ {
		if !mergeable(rs[i-1], rs[i], tolerance) {
			return Record{}, false
		}
	}

	var bs []blocks.Block
	var sum Record
	for _, r := range rs {
		for i, size := range r.BlockSizes {
			bs = append(bs, blocks.Block{
				Target:     genome.ChrPosition{Chromosome: r.TName, Start: r.TStarts[i], End: r.TStarts[i] + size},
				QueryStart: r.QStarts[i],
				QueryEnd:   r.QStarts[i] + size,
			})
		}
		sum.Matches += r.Matches
		sum.MisMatches += r.MisMatches
		sum.RepMatches += r.RepMatches
		sum.NCount += r.NCount
	}
	// oriented coordinates increase together on both strands
	sort.SliceStable(bs, func(i, j int) bool {
		if bs[i].QueryStart != bs[j].QueryStart {
			return bs[i].QueryStart < bs[j].QueryStart
		}
		return bs[i].Target.Start < bs[j].Target.Start
	})
	bs = blocks.TrimOverlap(bs)
	if len(bs) == 0 {
		return Record{}, false
	}

	first := rs[0]
	b := newBuilder(first.QName, first.QSize, first.TName, first.Reverse(), bs[0].QueryStart, bs[0].Target.Start)
	for _, blk := range bs {
		b.skip(blk.QueryStart-b.q, blk.Target.Start-b.t)
		b.aligned(blk.Len(), 0)
	}
	out, ok := b.record()
	if !ok {
		return Record{}, false
	}
	out.Matches = sum.Matches
	out.MisMatches = sum.MisMatches
	out.RepMatches = sum.RepMatches
	out.NCount = sum.NCount
	out.TSize = first.TSize
	return out, true
}

// MergeAdjacent groups records by query, target and strand and merges each
// run of neighbours that Merge accepts. Records that cannot be merged are
// returned unchanged. The result is ordered by target name then start.
func MergeAdjacent(records []Record, tolerance int) []Record {
	type key struct{ q, t, s string }
	groups := make(map[key][]Record)
	var order []key
	for _, r := range records {
		k := key{r.QName, r.TName, r.Strand}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}
	var out []Record
	for _, k := range order {
		g := groups[k]
		sortByTarget(g)
		cur := g[0]
		for _, r := range g[1:] {
			if m, ok := Merge([]Record{cur, r}, tolerance); ok {
				cur = m
				continue
			}
			out = append(out, cur)
			cur = r
		}
		out = append(out, cur)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TName != out[j].TName {
			return out[i].TName < out[j].TName
		}
		return out[i].TStart < out[j].TStart
	})
	return out
}
