// Package psl builds, merges and serializes BLAT PSL alignment records.
package psl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedRecord = errors.New("malformed psl record")
	ErrInvalidRecord   = errors.New("inconsistent psl record")
)

const numFields = 21

// Record is one PSL line. QStart and QEnd are forward-strand query
// coordinates; on the minus strand QStarts are on the reverse complemented
// query, as BLAT writes them.
type Record struct {
	Matches     int
	MisMatches  int
	RepMatches  int
	NCount      int
	QNumInsert  int
	QBaseInsert int
	TNumInsert  int
	TBaseInsert int
	Strand      string
	QName       string
	QSize       int
	QStart      int
	QEnd        int
	TName       string
	TSize       int
	TStart      int
	TEnd        int
	BlockCount  int
	BlockSizes  []int
	QStarts     []int
	TStarts     []int
}

func (r Record) Score() int {
	return r.Matches
}

func (r Record) Reverse() bool {
	return r.Strand == "-"
}

// AlignedBases is the number of query bases inside blocks.
func (r Record) AlignedBases() int {
	n := 0
	for _, s := range r.BlockSizes {
		n += s
	}
	return n
}

// OrientedQueryRange returns the query range in the coordinates QStarts
// uses, i.e. on the reverse complement for minus strand records.
func (r Record) OrientedQueryRange() (start, end int) {
	if r.Reverse() {
		return r.QSize - r.QEnd, r.QSize - r.QStart
	}
	return r.QStart, r.QEnd
}

func (r Record) Clone() Record {
	c := r
	c.BlockSizes = append([]int(nil), r.BlockSizes...)
	c.QStarts = append([]int(nil), r.QStarts...)
	c.TStarts = append([]int(nil), r.TStarts...)
	return c
}

func (r Record) Validate() error {
	if r.Strand != "+" && r.Strand != "-" {
		return fmt.Errorf("%s: strand %q: %w", r.QName, r.Strand, ErrInvalidRecord)
	}
	if r.BlockCount != len(r.BlockSizes) || r.BlockCount != len(r.QStarts) || r.BlockCount != len(r.TStarts) {
		return fmt.Errorf("%s: block count %d does not match block lists: %w", r.QName, r.BlockCount, ErrInvalidRecord)
	}
	if r.QStart < 0 || r.QEnd > r.QSize || r.QStart >= r.QEnd {
		return fmt.Errorf("%s: query range %d-%d of %d: %w", r.QName, r.QStart, r.QEnd, r.QSize, ErrInvalidRecord)
	}
	if r.TStart < 0 || r.TStart >= r.TEnd || (r.TSize > 0 && r.TEnd > r.TSize) {
		return fmt.Errorf("%s: target range %d-%d of %d: %w", r.QName, r.TStart, r.TEnd, r.TSize, ErrInvalidRecord)
	}
	if got := r.AlignedBases() + r.QBaseInsert; got != r.QEnd-r.QStart {
		return fmt.Errorf("%s: blocks plus query inserts cover %d bases, range is %d: %w", r.QName, got, r.QEnd-r.QStart, ErrInvalidRecord)
	}
	for i := 1; i < r.BlockCount; i++ {
		if r.QStarts[i] <= r.QStarts[i-1] || r.TStarts[i] <= r.TStarts[i-1] {
			return fmt.Errorf("%s: block %d starts are not increasing: %w", r.QName, i, ErrInvalidRecord)
		}
	}
	return nil
}

func joinInts(a []int) string {
	var sb strings.Builder
	for _, v := range a {
		sb.WriteString(strconv.Itoa(v))
		sb.WriteByte(',')
	}
	return sb.String()
}

// String renders the 21 tab separated PSL columns without a newline.
func (r Record) String() string {
	fields := []string{
		strconv.Itoa(r.Matches),
		strconv.Itoa(r.MisMatches),
		strconv.Itoa(r.RepMatches),
		strconv.Itoa(r.NCount),
		strconv.Itoa(r.QNumInsert),
		strconv.Itoa(r.QBaseInsert),
		strconv.Itoa(r.TNumInsert),
		strconv.Itoa(r.TBaseInsert),
		r.Strand,
		r.QName,
		strconv.Itoa(r.QSize),
		strconv.Itoa(r.QStart),
		strconv.Itoa(r.QEnd),
		r.TName,
		strconv.Itoa(r.TSize),
		strconv.Itoa(r.TStart),
		strconv.Itoa(r.TEnd),
		strconv.Itoa(r.BlockCount),
		joinInts(r.BlockSizes),
		joinInts(r.QStarts),
		joinInts(r.TStarts),
	}
	return strings.Join(fields, "\t")
}

func splitInts(s string) ([]int, error) {
	s = strings.TrimSuffix(s, ",")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Parse reads one PSL line as written by String or by BLAT.
func Parse(line string) (Record, error) {
	var r Record
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) != numFields {
		return r, fmt.Errorf("%d columns: %w", len(fields), ErrMalformedRecord)
	}
	ints := []struct {
		col int
		dst *int
	}{
		{0, &r.Matches}, {1, &r.MisMatches}, {2, &r.RepMatches}, {3, &r.NCount},
		{4, &r.QNumInsert}, {5, &r.QBaseInsert}, {6, &r.TNumInsert}, {7, &r.TBaseInsert},
		{10, &r.QSize}, {11, &r.QStart}, {12, &r.QEnd},
		{14, &r.TSize}, {15, &r.TStart}, {16, &r.TEnd}, {17, &r.BlockCount},
	}
	for _, f := range ints {
		v, err := strconv.Atoi(fields[f.col])
		if err != nil {
			return r, fmt.Errorf("column %d: %v: %w", f.col+1, err, ErrMalformedRecord)
		}
		*f.dst = v
	}
	r.Strand = fields[8]
	r.QName = fields[9]
	r.TName = fields[13]
	lists := []struct {
		col int
		dst *[]int
	}{{18, &r.BlockSizes}, {19, &r.QStarts}, {20, &r.TStarts}}
	for _, l := range lists {
		v, err := splitInts(fields[l.col])
		if err != nil {
			return r, fmt.Errorf("column %d: %v: %w", l.col+1, err, ErrMalformedRecord)
		}
		*l.dst = v
	}
	return r, nil
}
