// Package blocks turns packed tile runs into query/target block pairs and
// resolves overlaps between neighbouring blocks.
package blocks

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mudesheng/tiledaligner/genome"
	"github.com/mudesheng/tiledaligner/tilematch"
)

// ErrUnmapped is returned for a run that does not fall on a single contig.
var ErrUnmapped = errors.New("run does not map onto a single contig")

// Block is an ungapped query range, in forward query coordinates, paired
// with the target range it aligns to.
type Block struct {
	Target     genome.ChrPosition
	QueryStart int
	QueryEnd   int
	Reverse    bool
}

func (b Block) Len() int {
	return b.QueryEnd - b.QueryStart
}

func (b Block) String() string {
	strand := '+'
	if b.Reverse {
		strand = '-'
	}
	return fmt.Sprintf("[query:%d-%d, target:%s, strand:%c]", b.QueryStart, b.QueryEnd, b.Target, strand)
}

// ForwardStrandStartAndStop returns the half-open forward-strand query range
// of a run whose offset was stored on its own strand.
func ForwardStrandStartAndStop(tileCount, offset, tileLength, querySize int, reverse bool) (start, stop int) {
	length := tileCount + tileLength - 1
	if reverse {
		start = querySize - offset - length
	} else {
		start = offset
	}
	return start, start + length
}

// ChrPositionsAndBlocks maps every run of set onto its contig and returns
// one block per run ordered by query start. Runs hanging off either end of
// the query are clipped.
func ChrPositionsAndBlocks(set tilematch.Set, querySize, tileLength int, cm genome.CoordinateMap) ([]Block, error) {
	out := make([]Block, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		m := set.At(i)
		reverse := m.Reverse()
		start, stop := ForwardStrandStartAndStop(m.TileRunLength(), m.SequenceOffset(), tileLength, querySize, reverse)
		length := stop - start
		tStart, tEnd := 0, length
		if start < 0 {
			if reverse {
				tEnd += start
			} else {
				tStart -= start
			}
			start = 0
		}
		if stop > querySize {
			if reverse {
				tStart += stop - querySize
			} else {
				tEnd -= stop - querySize
			}
			stop = querySize
		}
		if stop <= start {
			return nil, fmt.Errorf("run %v lies outside query of %d bases: %w", m, querySize, ErrUnmapped)
		}

		cp, ok := cm.PositionToChrPosition(m.ReferencePosition())
		if !ok {
			return nil, fmt.Errorf("run %v: %w", m, ErrUnmapped)
		}
		contigLen, _ := cm.ContigLength(cp.Chromosome)
		if cp.Start+length > contigLen {
			return nil, fmt.Errorf("run %v crosses the end of %s: %w", m, cp.Chromosome, ErrUnmapped)
		}
		out = append(out, Block{
			Target:     genome.ChrPosition{Chromosome: cp.Chromosome, Start: cp.Start + tStart, End: cp.Start + tEnd},
			QueryStart: start,
			QueryEnd:   stop,
			Reverse:    reverse,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].QueryStart != out[j].QueryStart {
			return out[i].QueryStart < out[j].QueryStart
		}
		return out[i].Target.Start < out[j].Target.Start
	})
	return out, nil
}

func colinear(a, b Block) bool {
	if a.Target.Chromosome != b.Target.Chromosome || a.Reverse != b.Reverse {
		return false
	}
	if a.Reverse {
		return b.Target.Start <= a.Target.Start
	}
	return b.Target.Start >= a.Target.Start
}

func trimEnd(b *Block, n int) {
	b.QueryEnd -= n
	if b.Reverse {
		b.Target.Start += n
	} else {
		b.Target.End -= n
	}
}

func trimStart(b *Block, n int) {
	b.QueryStart += n
	if b.Reverse {
		b.Target.End -= n
	} else {
		b.Target.Start += n
	}
}

// TrimOverlap walks blocks sorted by query start and removes any query or
// target overlap between neighbours, splitting it between the two blocks.
// When one side would be left empty the other absorbs the whole overlap; a
// block neither side can absorb is dropped. Query and target ranges are
// shrunk together so blocks stay ungapped. Passes repeat until nothing
// changes, so running it again on its output is a no-op.
func TrimOverlap(bs []Block) []Block {
	for {
		var changed bool
		bs, changed = trimPass(bs)
		if !changed {
			return bs
		}
	}
}

func trimPass(bs []Block) ([]Block, bool) {
	changed := false
	for i := 0; i+1 < len(bs); {
		a, b := &bs[i], &bs[i+1]
		ov := a.QueryEnd - b.QueryStart
		if colinear(*a, *b) {
			tov := a.Target.End - b.Target.Start
			if a.Reverse {
				tov = b.Target.End - a.Target.Start
			}
			if tov > ov {
				ov = tov
			}
		}
		if ov <= 0 {
			i++
			continue
		}
		changed = true
		aTrim := ov / 2
		bTrim := ov - aTrim
		if a.Len()-aTrim <= 0 {
			aTrim, bTrim = 0, ov
		} else if b.Len()-bTrim <= 0 {
			aTrim, bTrim = ov, 0
		}
		if a.Len()-aTrim <= 0 || b.Len()-bTrim <= 0 {
			bs = append(bs[:i+1], bs[i+2:]...)
			continue
		}
		trimEnd(a, aTrim)
		trimStart(b, bTrim)
		i++
	}
	return bs, changed
}
