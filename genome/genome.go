// Package genome translates absolute linear genome coordinates to contig
// positions and back.
package genome

import (
	"fmt"
	"io"
	"sort"

	"github.com/biogo/hts/fai"
)

// ChrPosition is a 0-based half-open range on one contig.
type ChrPosition struct {
	Chromosome string
	Start, End int
}

func (cp ChrPosition) Len() int {
	return cp.End - cp.Start
}

func (cp ChrPosition) String() string {
	return fmt.Sprintf("%s:%d-%d", cp.Chromosome, cp.Start, cp.End)
}

// CoordinateMap is the read-only translator used by the block builder.
type CoordinateMap interface {
	// PositionToChrPosition returns the contig and local offset of an
	// absolute position as a one-base ChrPosition.
	PositionToChrPosition(pos int64) (ChrPosition, bool)
	ChrPositionToPosition(chr string, offset int) (int64, bool)
	ContigLength(chr string) (int, bool)
}

// Contig is one entry of the linear layout.
type Contig struct {
	Name   string
	Length int
	start  int64
}

// Map is an in-memory CoordinateMap; contigs are laid out end to end in
// the order given.
type Map struct {
	contigs []Contig
	byName  map[string]int
	size    int64
}

func New(contigs []Contig) (*Map, error) {
	m := &Map{byName: make(map[string]int, len(contigs))}
	for _, c := range contigs {
		if c.Length <= 0 {
			return nil, fmt.Errorf("contig %q has invalid length %d", c.Name, c.Length)
		}
		if _, ok := m.byName[c.Name]; ok {
			return nil, fmt.Errorf("duplicate contig %q", c.Name)
		}
		c.start = m.size
		m.byName[c.Name] = len(m.contigs)
		m.contigs = append(m.contigs, c)
		m.size += int64(c.Length)
	}
	return m, nil
}

// LoadFai builds a Map from a samtools faidx index, keeping the order in
// which contigs appear in the indexed FASTA.
func LoadFai(r io.Reader) (*Map, error) {
	idx, err := fai.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("reading fai: %v", err)
	}
	recs := make([]fai.Record, 0, len(idx))
	for _, rec := range idx {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Start < recs[j].Start })
	contigs := make([]Contig, len(recs))
	for i, rec := range recs {
		contigs[i] = Contig{Name: rec.Name, Length: rec.Length}
	}
	return New(contigs)
}

func (m *Map) Size() int64 {
	return m.size
}

func (m *Map) Contigs() []Contig {
	cp := make([]Contig, len(m.contigs))
	copy(cp, m.contigs)
	return cp
}

func (m *Map) PositionToChrPosition(pos int64) (ChrPosition, bool) {
	if pos < 0 || pos >= m.size {
		return ChrPosition{}, false
	}
	i := sort.Search(len(m.contigs), func(i int) bool {
		return m.contigs[i].start+int64(m.contigs[i].Length) > pos
	})
	c := m.contigs[i]
	off := int(pos - c.start)
	return ChrPosition{Chromosome: c.Name, Start: off, End: off + 1}, true
}

func (m *Map) ChrPositionToPosition(chr string, offset int) (int64, bool) {
	i, ok := m.byName[chr]
	if !ok || offset < 0 || offset >= m.contigs[i].Length {
		return 0, false
	}
	return m.contigs[i].start + int64(offset), true
}

func (m *Map) ContigLength(chr string) (int, bool) {
	i, ok := m.byName[chr]
	if !ok {
		return 0, false
	}
	return m.contigs[i].Length, true
}
