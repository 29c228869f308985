package hitio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mudesheng/tiledaligner/genome"
)

// ErrMalformedAlignmentFile is returned for an alignment file entry that cannot be parsed.
var ErrMalformedAlignmentFile = errors.New("malformed alignment file")

// DiffEntry is one pairwise alignment of a query against a reference window.
type DiffEntry struct {
	Name      string
	Window    genome.ChrPosition
	Forward   bool
	WindowSeq string
	Rows      [3]string
}

// DiffReader reads entries of the form
//
//	><name>\t<chr>:<start>-<end>\t<+|->[\t<windowSeq>]
//	<reference row>
//	<symbol row>
//	<query row>
type DiffReader struct {
	sc   *bufio.Scanner
	line int
}

func NewDiffReader(r io.Reader) *DiffReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, bufSize), 1<<28)
	return &DiffReader{sc: sc}
}

func (dr *DiffReader) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s: %w", dr.line, fmt.Sprintf(format, args...), ErrMalformedAlignmentFile)
}

// ParseRegion parses chr:start-end with a 0-based start and exclusive end.
func ParseRegion(s string) (genome.ChrPosition, error) {
	var cp genome.ChrPosition
	colon := strings.LastIndexByte(s, ':')
	if colon <= 0 {
		return cp, fmt.Errorf("region %q", s)
	}
	dash := strings.IndexByte(s[colon:], '-')
	if dash < 0 {
		return cp, fmt.Errorf("region %q", s)
	}
	start, err := strconv.Atoi(s[colon+1 : colon+dash])
	if err != nil {
		return cp, fmt.Errorf("region %q: %v", s, err)
	}
	end, err := strconv.Atoi(s[colon+dash+1:])
	if err != nil {
		return cp, fmt.Errorf("region %q: %v", s, err)
	}
	if start < 0 || end < start {
		return cp, fmt.Errorf("region %q: bad range", s)
	}
	return genome.ChrPosition{Chromosome: s[:colon], Start: start, End: end}, nil
}

// Read returns the next entry, or io.EOF after the last one.
func (dr *DiffReader) Read() (DiffEntry, error) {
	var e DiffEntry
	var header string
	for dr.sc.Scan() {
		dr.line++
		l := strings.TrimRight(dr.sc.Text(), "\r")
		if l != "" {
			header = l
			break
		}
	}
	if header == "" {
		if err := dr.sc.Err(); err != nil {
			return e, err
		}
		return e, io.EOF
	}
	if header[0] != '>' {
		return e, dr.errorf("expected alignment header, got %q", header)
	}
	fields := strings.Split(header[1:], "\t")
	if len(fields) < 3 || len(fields) > 4 || fields[0] == "" {
		return e, dr.errorf("alignment header %q", header)
	}
	e.Name = fields[0]
	window, err := ParseRegion(fields[1])
	if err != nil {
		return e, dr.errorf("%v", err)
	}
	e.Window = window
	switch fields[2] {
	case "+":
		e.Forward = true
	case "-":
	default:
		return e, dr.errorf("strand %q", fields[2])
	}
	if len(fields) == 4 {
		e.WindowSeq = fields[3]
	}
	for i := range e.Rows {
		if !dr.sc.Scan() {
			if err := dr.sc.Err(); err != nil {
				return e, err
			}
			return e, dr.errorf("%s: alignment has %d rows", e.Name, i)
		}
		dr.line++
		e.Rows[i] = strings.TrimRight(dr.sc.Text(), "\r")
	}
	return e, nil
}
