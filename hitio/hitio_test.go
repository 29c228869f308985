package hitio

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudesheng/tiledaligner/genome"
	"github.com/mudesheng/tiledaligner/tilematch"
)

func TestOpenCreateByExtension(t *testing.T) {
	dir := t.TempDir()
	text := strings.Repeat("@q1\tACGTACGT\n10\t0\t100:0:+\n", 50)
	for _, ext := range []string{".txt", ".zst", ".gz", ".br"} {
		t.Run(ext, func(t *testing.T) {
			fn := filepath.Join(dir, "hits"+ext)
			w, err := Create(fn)
			require.NoError(t, err)
			_, err = io.WriteString(w, text)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := Open(fn)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, text, string(got))
		})
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.zst"))
	assert.Error(t, err)
}

const hitsText = `@q1	ACGTACGTACGTACGTACGTACGTACGTAC
12	0	1000:0:+,5000:3:-
3	1	777:20:+

@q2	TTTTGGGGCCCCAAAA
5	0	42:1:+
`

func TestHitsReader(t *testing.T) {
	hr := NewHitsReader(strings.NewReader(hitsText))

	h, err := hr.Read()
	require.NoError(t, err)
	assert.Equal(t, "q1", h.Name)
	assert.Equal(t, "ACGTACGTACGTACGTACGTACGTACGTAC", h.Sequence)
	all, err := h.All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 12, all[0].TileRunLength())
	assert.Equal(t, int64(1000), all[0].ReferencePosition())
	assert.True(t, all[1].Reverse())
	assert.Equal(t, 3, all[1].SequenceOffset())
	assert.Equal(t, 1, all[2].MismatchCount())

	h, err = hr.Read()
	require.NoError(t, err)
	assert.Equal(t, "q2", h.Name)
	assert.Len(t, h.ByQuality, 1)

	_, err = hr.Read()
	assert.Equal(t, io.EOF, err)
}

func TestHitsWriteThenRead(t *testing.T) {
	h := tilematch.Hits{Name: "q9", Sequence: "ACGTTGCA"}
	require.NoError(t, h.Add(4, 0, 123456789, 2, true))
	require.NoError(t, h.Add(4, 0, 99, 1, false))
	require.NoError(t, h.Add(2, 1, 5, 0, false))

	var buf bytes.Buffer
	require.NoError(t, WriteHits(&buf, h))
	assert.True(t, strings.HasPrefix(buf.String(), "@q9\tACGTTGCA\n4\t0\t"))

	got, err := NewHitsReader(&buf).Read()
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHitsReaderMalformed(t *testing.T) {
	testCases := []struct {
		name string
		in   string
	}{
		{"bucket before header", "12\t0\t1:0:+\n"},
		{"missing sequence", "@q1\n"},
		{"bad strand", "@q1\tACGT\n12\t0\t1:0:x\n"},
		{"bad column count", "@q1\tACGT\n12\t0\n"},
		{"bad position", "@q1\tACGT\n12\t0\tabc:0:+\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewHitsReader(strings.NewReader(tc.in)).Read()
			assert.True(t, errors.Is(err, ErrMalformedHits), "%v", err)
		})
	}

	_, err := NewHitsReader(strings.NewReader("@q1\tACGT\n0\t0\t1:0:+\n")).Read()
	assert.True(t, errors.Is(err, tilematch.ErrInvalidEncoding))
}

func TestHitsReaderSkipsOverflowingQuery(t *testing.T) {
	in := "@q1\tACGTACGT\n" +
		"10\t0\t5000:70000:+\n" +
		"8\t0\t6000:0:+\n" +
		"@q2\tTTTTGGGG\n" +
		"5\t0\t42:1:+\n"
	hr := NewHitsReader(strings.NewReader(in))

	h, err := hr.Read()
	assert.True(t, errors.Is(err, tilematch.ErrInvalidEncoding), "%v", err)
	assert.False(t, errors.Is(err, ErrMalformedHits))
	assert.Equal(t, "q1", h.Name)

	h, err = hr.Read()
	require.NoError(t, err)
	assert.Equal(t, "q2", h.Name)
	assert.Len(t, h.ByQuality, 1)

	_, err = hr.Read()
	assert.Equal(t, io.EOF, err)
}

func TestDiffReader(t *testing.T) {
	in := ">q1\tchr1:5000-5100\t+\tACGTTACG\n" +
		"ACGTTACG\n" +
		"|||  |||\n" +
		"ACG--ACG\n" +
		"\n" +
		">q2\tchrUn:KI270742v1:10-20\t-\n" +
		"AC\n" +
		"||\n" +
		"AC\n"
	dr := NewDiffReader(strings.NewReader(in))

	e, err := dr.Read()
	require.NoError(t, err)
	assert.Equal(t, "q1", e.Name)
	assert.Equal(t, genome.ChrPosition{Chromosome: "chr1", Start: 5000, End: 5100}, e.Window)
	assert.True(t, e.Forward)
	assert.Equal(t, "ACGTTACG", e.WindowSeq)
	assert.Equal(t, "|||  |||", e.Rows[1])

	e, err = dr.Read()
	require.NoError(t, err)
	assert.Equal(t, "chrUn:KI270742v1", e.Window.Chromosome)
	assert.False(t, e.Forward)
	assert.Equal(t, "", e.WindowSeq)

	_, err = dr.Read()
	assert.Equal(t, io.EOF, err)

	_, err = NewDiffReader(strings.NewReader(">q1\tchr1:1-2\t+\nAC\n||\n")).Read()
	assert.True(t, errors.Is(err, ErrMalformedAlignmentFile))
	_, err = NewDiffReader(strings.NewReader(">q1\tchr1\t+\nAC\n||\nAC\n")).Read()
	assert.True(t, errors.Is(err, ErrMalformedAlignmentFile))
}

func TestReadFasta(t *testing.T) {
	seqs, err := ReadFasta(strings.NewReader(">q1 first read\nACGT\nTTGA\n>q2\nGGCC\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"q1": "ACGTTTGA", "q2": "GGCC"}, seqs)
}

func TestReadWritePSL(t *testing.T) {
	in := "psLayout version 3\n\n" +
		"match\tmis-\trep.\tN's\tQ gap\tQ gap\tT gap\tT gap\tstrand\tQ\tQ\tQ\tQ\tT\tT\tT\tT\tblock\tblockSizes\tqStarts\ttStarts\n" +
		"---------------------------------------------------------------------------------------------------------------------------------------------------------------\n" +
		"57\t7\t0\t0\t1\t1\t0\t0\t+\tq1\t100\t10\t75\tchr1\t1000\t200\t264\t2\t44,20,\t10,55,\t200,244,\n"
	recs, err := ReadPSL(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "q1", recs[0].QName)

	var buf bytes.Buffer
	require.NoError(t, WritePSL(&buf, recs))
	assert.Equal(t, "57\t7\t0\t0\t1\t1\t0\t0\t+\tq1\t100\t10\t75\tchr1\t1000\t200\t264\t2\t44,20,\t10,55,\t200,244,\n", buf.String())

	_, err = ReadPSL(strings.NewReader("1\t2\t3\n"))
	assert.Error(t, err)
}
