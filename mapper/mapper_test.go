package mapper

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudesheng/tiledaligner/genome"
	"github.com/mudesheng/tiledaligner/tilematch"
)

var seq100 = strings.Repeat("ACGTTGCAAC", 10)

func testGenome(t *testing.T) *genome.Map {
	m, err := genome.New([]genome.Contig{{Name: "chr1", Length: 100000}, {Name: "chr2", Length: 50000}})
	require.NoError(t, err)
	return m
}

func TestAlignColinear(t *testing.T) {
	h := tilematch.Hits{Name: "q1", Sequence: seq100}
	require.NoError(t, h.Add(10, 0, 5000, 0, false))
	require.NoError(t, h.Add(10, 1, 6050, 50, false))

	recs, err := Align(h, testGenome(t), DefaultParams())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, "chr1", r.TName)
	assert.Equal(t, 2, r.BlockCount)
	assert.Equal(t, 0, r.QStart)
	assert.Equal(t, 72, r.QEnd)
	assert.Equal(t, 43, r.Matches)
	assert.NoError(t, r.Validate())
}

func TestAlignChimeric(t *testing.T) {
	h := tilematch.Hits{Name: "q2", Sequence: seq100}
	require.NoError(t, h.Add(10, 0, 5000, 0, false))
	require.NoError(t, h.Add(10, 0, 120000, 50, false)) // chr2:20000

	recs, err := Align(h, testGenome(t), DefaultParams())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	sort.Slice(recs, func(i, j int) bool { return recs[i].QStart < recs[j].QStart })
	assert.Equal(t, "chr1", recs[0].TName)
	assert.Equal(t, 5000, recs[0].TStart)
	assert.Equal(t, "chr2", recs[1].TName)
	assert.Equal(t, 20000, recs[1].TStart)
	assert.Equal(t, 50, recs[1].QStart)
}

func TestAlignEmptyAndInvalid(t *testing.T) {
	g := testGenome(t)
	recs, err := Align(tilematch.Hits{Name: "none", Sequence: seq100}, g, DefaultParams())
	assert.NoError(t, err)
	assert.Empty(t, recs)

	bad := tilematch.Hits{Name: "bad", Sequence: seq100, ByQuality: map[uint32][]uint64{0: {5000}}}
	_, err = Align(bad, g, DefaultParams())
	assert.True(t, errors.Is(err, tilematch.ErrInvalidEncoding))
}

func TestAlignUnmappedRunIsSkipped(t *testing.T) {
	h := tilematch.Hits{Name: "q3", Sequence: seq100}
	require.NoError(t, h.Add(10, 0, 99990, 0, false))
	recs, err := Align(h, testGenome(t), DefaultParams())
	assert.NoError(t, err)
	assert.Empty(t, recs)
}

func TestWithTileLength(t *testing.T) {
	p := DefaultParams().WithTileLength(11)
	assert.Equal(t, 11, p.Split.TileLength)
	assert.Equal(t, 11, p.Chain.TileLength)
}

func TestRun(t *testing.T) {
	g := testGenome(t)
	var queries []tilematch.Hits
	for i, name := range []string{"a", "b", "c", "d", "e"} {
		h := tilematch.Hits{Name: name, Sequence: seq100}
		require.NoError(t, h.Add(20, 0, int64(1000*(i+1)), 0, false))
		queries = append(queries, h)
	}
	in := make(chan tilematch.Hits)
	go func() {
		defer close(in)
		for _, h := range queries {
			in <- h
		}
	}()
	var names []string
	for res := range Run(context.Background(), in, 3, g, DefaultParams()) {
		require.NoError(t, res.Err)
		assert.Len(t, res.Records, 1)
		names = append(names, res.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := make(chan tilematch.Hits)
	out := Run(ctx, in, 2, testGenome(t), DefaultParams())
	for range out {
	}
	close(in)
}
