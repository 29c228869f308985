package psl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mudesheng/tiledaligner/genome"
)

// ErrMalformedDiff is returned for a three row alignment whose rows differ in length.
var ErrMalformedDiff = errors.New("malformed alignment text")

// DetailsFromAlignedText builds a record from a three row pairwise alignment:
// reference row, symbol row ('|' for identical columns) and query row, with
// '-' marking a base missing from that row. The reference row starts at
// window.Start plus its offset inside windowSeq, when windowSeq is given.
// The query row is located in sequence, or in its reverse complement when
// forward is false. No result is returned for an empty alignment or when a
// row cannot be located.
func DetailsFromAlignedText(window genome.ChrPosition, diff [3]string, name, sequence string, forward bool, windowSeq string) (Record, bool, error) {
	ref, sym, qry := diff[0], diff[1], diff[2]
	if len(ref) != len(sym) || len(ref) != len(qry) {
		return Record{}, false, fmt.Errorf("%s: row lengths %d, %d, %d: %w", name, len(ref), len(sym), len(qry), ErrMalformedDiff)
	}
	ungappedRef := strings.ReplaceAll(ref, "-", "")
	ungappedQry := strings.ReplaceAll(qry, "-", "")
	if ungappedRef == "" || ungappedQry == "" {
		return Record{}, false, nil
	}
	if sequence == "" {
		sequence = ungappedQry
	}
	oriented := sequence
	if !forward {
		oriented = ReverseComplement(sequence)
	}
	qOff := indexFold(oriented, ungappedQry)
	if qOff < 0 {
		return Record{}, false, nil
	}
	tOff := 0
	if windowSeq != "" {
		if tOff = indexFold(windowSeq, ungappedRef); tOff < 0 {
			return Record{}, false, nil
		}
	}

	b := newBuilder(name, len(sequence), window.Chromosome, !forward, qOff, window.Start+tOff)
	for i := 0; i < len(ref); i++ {
		switch {
		case ref[i] == '-' && qry[i] == '-':
		case ref[i] == '-':
			b.skip(1, 0)
		case qry[i] == '-':
			b.skip(0, 1)
		case sym[i] == '|':
			b.aligned(1, 0)
		default:
			b.aligned(1, 1)
		}
	}
	r, ok := b.record()
	return r, ok, nil
}

// Segment is an exact match between a query range, in strand-oriented
// query coordinates, and a target range of the same length.
type Segment struct {
	QueryStart int
	QueryEnd   int
	Target     genome.ChrPosition
}

// DetailsFromChrPositions builds a record from exact-match segments already
// located on the target. Segments must be ordered, non-overlapping on both
// sequences and on one contig; anything else gives no result.
func DetailsFromChrPositions(name string, querySize int, segments []Segment, forward bool) (Record, bool) {
	if len(segments) == 0 {
		return Record{}, false
	}
	chr := segments[0].Target.Chromosome
	for i, s := range segments {
		l := s.QueryEnd - s.QueryStart
		if l <= 0 || l != s.Target.Len() || s.Target.Chromosome != chr || s.QueryStart < 0 || s.QueryEnd > querySize {
			return Record{}, false
		}
		if i > 0 {
			prev := segments[i-1]
			if s.QueryStart < prev.QueryEnd || s.Target.Start < prev.Target.End {
				return Record{}, false
			}
		}
	}
	b := newBuilder(name, querySize, chr, !forward, segments[0].QueryStart, segments[0].Target.Start)
	for _, s := range segments {
		b.skip(s.QueryStart-b.q, s.Target.Start-b.t)
		b.aligned(s.QueryEnd-s.QueryStart, 0)
	}
	return b.record()
}
