package psl

import (
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"
)

// builder accumulates blocks in strand-oriented coordinates: query offsets
// are on the reverse complement for minus strand records, target offsets
// always increase.
type builder struct {
	rec        Record
	q, t       int
	gapQ, gapT int
	open       bool
}

func newBuilder(qName string, qSize int, tName string, reverse bool, q, t int) *builder {
	strand := "+"
	if reverse {
		strand = "-"
	}
	return &builder{
		rec: Record{Strand: strand, QName: qName, QSize: qSize, TName: tName},
		q:   q,
		t:   t,
	}
}

// skip moves the cursors over unaligned bases. Bases skipped before the
// first block or after the last one are not counted as inserts.
func (b *builder) skip(dq, dt int) {
	b.q += dq
	b.t += dt
	if len(b.rec.BlockSizes) > 0 {
		b.gapQ += dq
		b.gapT += dt
	}
	b.open = false
}

// aligned extends the current block, or opens a new one, by n columns of
// which mismatches are not identical.
func (b *builder) aligned(n, mismatches int) {
	if n <= 0 {
		return
	}
	if !b.open {
		if b.gapQ > 0 {
			b.rec.QNumInsert++
			b.rec.QBaseInsert += b.gapQ
		}
		if b.gapT > 0 {
			b.rec.TNumInsert++
			b.rec.TBaseInsert += b.gapT
		}
		b.gapQ, b.gapT = 0, 0
		b.rec.BlockSizes = append(b.rec.BlockSizes, 0)
		b.rec.QStarts = append(b.rec.QStarts, b.q)
		b.rec.TStarts = append(b.rec.TStarts, b.t)
		b.open = true
	}
	b.rec.BlockSizes[len(b.rec.BlockSizes)-1] += n
	b.rec.Matches += n - mismatches
	b.rec.MisMatches += mismatches
	b.q += n
	b.t += n
}

func (b *builder) record() (Record, bool) {
	r := b.rec
	n := len(r.BlockSizes)
	if n == 0 {
		return r, false
	}
	last := n - 1
	oStart, oEnd := r.QStarts[0], r.QStarts[last]+r.BlockSizes[last]
	if oEnd-oStart <= 0 {
		return r, false
	}
	if r.Reverse() {
		r.QStart, r.QEnd = r.QSize-oEnd, r.QSize-oStart
	} else {
		r.QStart, r.QEnd = oStart, oEnd
	}
	r.TStart = r.TStarts[0]
	r.TEnd = r.TStarts[last] + r.BlockSizes[last]
	r.BlockCount = n
	return r, true
}

// ReverseComplement returns the reverse complement of a DNA string.
func ReverseComplement(s string) string {
	sq := linear.NewSeq("", alphabet.BytesToLetters([]byte(s)), alphabet.DNA)
	sq.RevComp()
	return string(alphabet.LettersToBytes(sq.Seq))
}

func indexFold(s, sub string) int {
	return strings.Index(strings.ToUpper(s), strings.ToUpper(sub))
}
