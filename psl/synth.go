package psl

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/tiledaligner/blocks"
	"github.com/mudesheng/tiledaligner/chain"
	"github.com/mudesheng/tiledaligner/genome"
	"github.com/mudesheng/tiledaligner/tilematch"
)

var errSpansContigs = errors.New("blocks span more than one contig")

type State int

const (
	Unresolved State = iota
	SingleRecord
	MultiBlockRecord
	IndependentRecords
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "Unresolved"
	case SingleRecord:
		return "SingleRecord"
	case MultiBlockRecord:
		return "MultiBlockRecord"
	case IndependentRecords:
		return "IndependentRecords"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Query struct {
	Name string
	Size int
}

type Result struct {
	State   State
	Records []Record
}

// FromBlocks builds one record from blocks sorted by forward query start
// that lie on one contig and one strand. mismatches is capped at the number
// of aligned bases.
func FromBlocks(q Query, bs []blocks.Block, mismatches int, cm genome.CoordinateMap) (Record, bool) {
	if len(bs) == 0 {
		return Record{}, false
	}
	chr, reverse := bs[0].Target.Chromosome, bs[0].Reverse
	for _, b := range bs {
		if b.Target.Chromosome != chr || b.Reverse != reverse || b.Len() <= 0 {
			return Record{}, false
		}
	}
	ordered := make([]blocks.Block, len(bs))
	for i, b := range bs {
		if reverse {
			ordered[len(bs)-1-i] = b
		} else {
			ordered[i] = b
		}
	}
	first := ordered[0]
	qStart := first.QueryStart
	if reverse {
		qStart = q.Size - first.QueryEnd
	}
	bd := newBuilder(q.Name, q.Size, chr, reverse, qStart, first.Target.Start)
	for _, b := range ordered {
		qs := b.QueryStart
		if reverse {
			qs = q.Size - b.QueryEnd
		}
		bd.skip(qs-bd.q, b.Target.Start-bd.t)
		bd.aligned(b.Len(), 0)
	}
	r, ok := bd.record()
	if !ok {
		return r, false
	}
	aligned := r.AlignedBases()
	if mismatches > aligned {
		mismatches = aligned
	}
	r.MisMatches = mismatches
	r.Matches = aligned - mismatches
	r.TSize, _ = cm.ContigLength(chr)
	return r, true
}

// Synthesize turns one hypothesis into PSL records. A set that validates as
// a single alignment becomes one multi-block record; otherwise every run is
// reported on its own. Runs that do not map onto a contig are dropped; an
// error is returned only when none of them maps.
func Synthesize(q Query, set tilematch.Set, cm genome.CoordinateMap, p chain.Params) (Result, error) {
	switch {
	case set.Len() == 0:
		return Result{State: Unresolved}, nil
	case set.Len() == 1:
		r, err := independent(q, set, cm, p)
		if err != nil || len(r) == 0 {
			return Result{State: Unresolved}, err
		}
		return Result{State: SingleRecord, Records: r}, nil
	}

	if chain.IsValidSingleRecord(set, q.Size, p) {
		bs, err := blocks.ChrPositionsAndBlocks(set, q.Size, p.TileLength, cm)
		if err == nil {
			bs = blocks.TrimOverlap(bs)
			r, ok := FromBlocks(q, bs, chain.MismatchTotal(set), cm)
			if !ok {
				err = errSpansContigs
			} else if err = r.Validate(); err == nil {
				return Result{State: MultiBlockRecord, Records: []Record{r}}, nil
			}
		}
		log.Debugf("[Synthesize] %s: %v, falling back to independent records", q.Name, err)
	}
	rs, err := independent(q, set, cm, p)
	if err != nil || len(rs) == 0 {
		return Result{State: Unresolved}, err
	}
	return Result{State: IndependentRecords, Records: rs}, nil
}

func independent(q Query, set tilematch.Set, cm genome.CoordinateMap, p chain.Params) ([]Record, error) {
	var out []Record
	var lastErr error
	for i := 0; i < set.Len(); i++ {
		m := set.At(i)
		bs, err := blocks.ChrPositionsAndBlocks(tilematch.NewSet(m), q.Size, p.TileLength, cm)
		if err != nil {
			log.Debugf("[Synthesize] %s: %v", q.Name, err)
			lastErr = err
			continue
		}
		if r, ok := FromBlocks(q, bs, m.MismatchCount(), cm); ok {
			out = append(out, r)
		}
	}
	if len(out) == 0 && lastErr != nil {
		return nil, fmt.Errorf("[Synthesize] %s: no run maps: %w", q.Name, lastErr)
	}
	return out, nil
}
