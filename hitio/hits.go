package hitio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mudesheng/tiledaligner/tilematch"
)

// ErrMalformedHits is returned for a hits file line that cannot be parsed.
var ErrMalformedHits = errors.New("malformed hits file")

// HitsReader reads queries in the hits text format:
//
//	@<name>\t<sequence>
//	<tileRunLength>\t<mismatchCount>\t<pos>:<offset>:<+|->[,...]
//
// Every bucket line belongs to the last query header above it.
type HitsReader struct {
	sc      *bufio.Scanner
	line    int
	header  string
	hasNext bool
}

func NewHitsReader(r io.Reader) *HitsReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, bufSize), 1<<28)
	return &HitsReader{sc: sc}
}

func (hr *HitsReader) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s: %w", hr.line, fmt.Sprintf(format, args...), ErrMalformedHits)
}

func (hr *HitsReader) nextHeader() (string, error) {
	if hr.hasNext {
		hr.hasNext = false
		return hr.header, nil
	}
	for hr.sc.Scan() {
		hr.line++
		l := strings.TrimRight(hr.sc.Text(), "\r")
		if l == "" {
			continue
		}
		if l[0] != '@' {
			return "", hr.errorf("expected query header, got %q", l)
		}
		return l, nil
	}
	if err := hr.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// skipQuery discards bucket lines up to the next query header.
func (hr *HitsReader) skipQuery() error {
	for hr.sc.Scan() {
		hr.line++
		l := strings.TrimRight(hr.sc.Text(), "\r")
		if l != "" && l[0] == '@' {
			hr.header, hr.hasNext = l, true
			return nil
		}
	}
	return hr.sc.Err()
}

// Read returns the next query, or io.EOF after the last one. A query with a
// field that does not fit its packed width is skipped whole: the returned
// Hits carries its name and the error wraps tilematch.ErrInvalidEncoding,
// and the next Read continues with the following query.
func (hr *HitsReader) Read() (tilematch.Hits, error) {
	var h tilematch.Hits
	header, err := hr.nextHeader()
	if err != nil {
		return h, err
	}
	fields := strings.SplitN(header[1:], "\t", 2)
	if len(fields) != 2 || fields[0] == "" {
		return h, hr.errorf("query header %q", header)
	}
	h.Name, h.Sequence = fields[0], fields[1]
	h.ByQuality = make(map[uint32][]uint64)
	for hr.sc.Scan() {
		hr.line++
		l := strings.TrimRight(hr.sc.Text(), "\r")
		if l == "" {
			continue
		}
		if l[0] == '@' {
			hr.header, hr.hasNext = l, true
			return h, nil
		}
		if err := hr.parseBucket(&h, l); err != nil {
			if !errors.Is(err, tilematch.ErrInvalidEncoding) {
				return h, err
			}
			if serr := hr.skipQuery(); serr != nil {
				return h, serr
			}
			return h, fmt.Errorf("query %s: %w", h.Name, err)
		}
	}
	return h, hr.sc.Err()
}

func (hr *HitsReader) parseBucket(h *tilematch.Hits, l string) error {
	fields := strings.Split(l, "\t")
	if len(fields) != 3 {
		return hr.errorf("%d columns", len(fields))
	}
	tiles, err := strconv.Atoi(fields[0])
	if err != nil {
		return hr.errorf("tile run length: %v", err)
	}
	mismatches, err := strconv.Atoi(fields[1])
	if err != nil {
		return hr.errorf("mismatch count: %v", err)
	}
	for _, e := range strings.Split(fields[2], ",") {
		if e == "" {
			continue
		}
		parts := strings.Split(e, ":")
		if len(parts) != 3 || (parts[2] != "+" && parts[2] != "-") {
			return hr.errorf("hit %q", e)
		}
		pos, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return hr.errorf("position: %v", err)
		}
		offset, err := strconv.Atoi(parts[1])
		if err != nil {
			return hr.errorf("offset: %v", err)
		}
		if err := h.Add(tiles, mismatches, pos, offset, parts[2] == "-"); err != nil {
			return fmt.Errorf("line %d: %w", hr.line, err)
		}
	}
	return nil
}

// WriteHits writes one query in the format HitsReader reads, strongest
// bucket first.
func WriteHits(w io.Writer, h tilematch.Hits) error {
	if _, err := fmt.Fprintf(w, "@%s\t%s\n", h.Name, h.Sequence); err != nil {
		return err
	}
	for _, q := range h.Qualities() {
		tiles, mismatches := tilematch.UnpackQuality(q)
		entries := make([]string, len(h.ByQuality[q]))
		for i, p := range h.ByQuality[q] {
			pos, offset, reverse := tilematch.UnpackPosition(p)
			strand := "+"
			if reverse {
				strand = "-"
			}
			entries[i] = fmt.Sprintf("%d:%d:%s", pos, offset, strand)
		}
		if _, err := fmt.Fprintf(w, "%d\t%d\t%s\n", tiles, mismatches, strings.Join(entries, ",")); err != nil {
			return err
		}
	}
	return nil
}
