// Package samout writes PSL records as SAM.
package samout

import (
	"fmt"
	"io"

	"github.com/biogo/hts/sam"

	"github.com/mudesheng/tiledaligner/genome"
	"github.com/mudesheng/tiledaligner/psl"
)

const mapQUnavailable = 255

// Cigar converts the blocks of r into a CIGAR in reference order, with the
// unaligned query ends soft clipped.
func Cigar(r psl.Record) sam.Cigar {
	co, _ := cigar(r)
	return co
}

// cigar also returns the inserted plus deleted bases between blocks.
func cigar(r psl.Record) (co sam.Cigar, indels int) {
	if r.BlockCount == 0 {
		return co, 0
	}
	if r.QStarts[0] > 0 {
		co = append(co, sam.NewCigarOp(sam.CigarSoftClipped, r.QStarts[0]))
	}
	for i := 0; i < r.BlockCount; i++ {
		if i > 0 {
			qGap := r.QStarts[i] - (r.QStarts[i-1] + r.BlockSizes[i-1])
			tGap := r.TStarts[i] - (r.TStarts[i-1] + r.BlockSizes[i-1])
			if qGap > 0 {
				co = append(co, sam.NewCigarOp(sam.CigarInsertion, qGap))
				indels += qGap
			}
			if tGap > 0 {
				co = append(co, sam.NewCigarOp(sam.CigarDeletion, tGap))
				indels += tGap
			}
		}
		co = append(co, sam.NewCigarOp(sam.CigarMatch, r.BlockSizes[i]))
	}
	last := r.BlockCount - 1
	if tail := r.QSize - (r.QStarts[last] + r.BlockSizes[last]); tail > 0 {
		co = append(co, sam.NewCigarOp(sam.CigarSoftClipped, tail))
	}
	return co, indels
}

// Writer emits the records of each query as one primary line followed by
// supplementary lines.
type Writer struct {
	sw   *sam.Writer
	refs map[string]*sam.Reference
}

func NewWriter(w io.Writer, contigs []genome.Contig) (*Writer, error) {
	refs := make([]*sam.Reference, 0, len(contigs))
	byName := make(map[string]*sam.Reference, len(contigs))
	for _, c := range contigs {
		ref, err := sam.NewReference(c.Name, "", "", c.Length, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("[NewWriter] reference %s: %w", c.Name, err)
		}
		refs = append(refs, ref)
		byName[c.Name] = ref
	}
	h, err := sam.NewHeader(nil, refs)
	if err != nil {
		return nil, fmt.Errorf("[NewWriter] header: %w", err)
	}
	sw, err := sam.NewWriter(w, h, sam.FlagDecimal)
	if err != nil {
		return nil, fmt.Errorf("[NewWriter] %w", err)
	}
	return &Writer{sw: sw, refs: byName}, nil
}

// Record converts r. seq is the forward query sequence and may be empty.
func (w *Writer) Record(r psl.Record, seq string, supplementary bool) (*sam.Record, error) {
	ref, ok := w.refs[r.TName]
	if !ok {
		return nil, fmt.Errorf("[Record] %s: unknown target %s", r.QName, r.TName)
	}
	co, indels := cigar(r)
	var bases []byte
	if seq != "" {
		if len(seq) != r.QSize {
			return nil, fmt.Errorf("[Record] %s: sequence has %d bases, record says %d", r.QName, len(seq), r.QSize)
		}
		if r.Reverse() {
			seq = psl.ReverseComplement(seq)
		}
		bases = []byte(seq)
	}
	nm, err := sam.NewAux(sam.NewTag("NM"), int32(r.MisMatches+indels))
	if err != nil {
		return nil, err
	}
	rec, err := sam.NewRecord(r.QName, ref, nil, r.TStart, -1, 0, mapQUnavailable, co, bases, nil, []sam.Aux{nm})
	if err != nil {
		return nil, fmt.Errorf("[Record] %s: %w", r.QName, err)
	}
	if r.Reverse() {
		rec.Flags |= sam.Reverse
	}
	if supplementary {
		rec.Flags |= sam.Supplementary
	}
	return rec, nil
}

// Write emits the records of one query, the first as primary.
func (w *Writer) Write(recs []psl.Record, seq string) error {
	for i, r := range recs {
		rec, err := w.Record(r, seq, i > 0)
		if err != nil {
			return err
		}
		if err := w.sw.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
