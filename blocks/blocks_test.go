package blocks

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudesheng/tiledaligner/genome"
	"github.com/mudesheng/tiledaligner/tilematch"
)

func testGenome(t *testing.T) *genome.Map {
	m, err := genome.New([]genome.Contig{{Name: "chr1", Length: 100000}, {Name: "chr2", Length: 50000}})
	require.NoError(t, err)
	return m
}

func mustMatch(t *testing.T, tiles, mismatches int, position int64, offset int, reverse bool) tilematch.TileMatch {
	t.Helper()
	m, err := tilematch.New(tiles, mismatches, position, offset, reverse)
	require.NoError(t, err)
	return m
}

func TestForwardStrandStartAndStop(t *testing.T) {
	start, stop := ForwardStrandStartAndStop(10, 5, 13, 100, false)
	assert.Equal(t, 5, start)
	assert.Equal(t, 27, stop)

	start, stop = ForwardStrandStartAndStop(10, 5, 13, 100, true)
	assert.Equal(t, 73, start)
	assert.Equal(t, 95, stop)
}

func TestChrPositionsAndBlocks(t *testing.T) {
	g := testGenome(t)
	set := tilematch.NewSet(
		mustMatch(t, 10, 0, 101000, 50, false), // chr2:1000
		mustMatch(t, 10, 0, 5000, 0, false),    // chr1:5000
	)
	bs, err := ChrPositionsAndBlocks(set, 100, 13, g)
	require.NoError(t, err)
	require.Len(t, bs, 2)
	assert.Equal(t, Block{Target: genome.ChrPosition{Chromosome: "chr1", Start: 5000, End: 5022}, QueryStart: 0, QueryEnd: 22}, bs[0])
	assert.Equal(t, Block{Target: genome.ChrPosition{Chromosome: "chr2", Start: 1000, End: 1022}, QueryStart: 50, QueryEnd: 72}, bs[1])
}

func TestChrPositionsAndBlocksReverseClipped(t *testing.T) {
	g := testGenome(t)
	// reverse run whose forward start falls before the query start
	set := tilematch.NewSet(mustMatch(t, 10, 0, 7000, 85, true))
	bs, err := ChrPositionsAndBlocks(set, 100, 13, g)
	require.NoError(t, err)
	require.Len(t, bs, 1)
	// forward range [-7,15) is clipped to [0,15): the lost bases come off the target end
	assert.Equal(t, 0, bs[0].QueryStart)
	assert.Equal(t, 15, bs[0].QueryEnd)
	assert.Equal(t, genome.ChrPosition{Chromosome: "chr1", Start: 7000, End: 7015}, bs[0].Target)
	assert.True(t, bs[0].Reverse)
}

func TestChrPositionsAndBlocksUnmapped(t *testing.T) {
	g := testGenome(t)
	_, err := ChrPositionsAndBlocks(tilematch.NewSet(mustMatch(t, 10, 0, 99990, 0, false)), 100, 13, g)
	assert.True(t, errors.Is(err, ErrUnmapped))
	_, err = ChrPositionsAndBlocks(tilematch.NewSet(mustMatch(t, 10, 0, 150000, 0, false)), 100, 13, g)
	assert.True(t, errors.Is(err, ErrUnmapped))
}

func block(chr string, qs, qe, ts int, reverse bool) Block {
	return Block{Target: genome.ChrPosition{Chromosome: chr, Start: ts, End: ts + qe - qs}, QueryStart: qs, QueryEnd: qe, Reverse: reverse}
}

func TestTrimOverlap(t *testing.T) {
	testCases := []struct {
		name string
		in   []Block
		want []Block
	}{
		{
			"no overlap",
			[]Block{block("chr1", 0, 20, 100, false), block("chr1", 25, 45, 130, false)},
			[]Block{block("chr1", 0, 20, 100, false), block("chr1", 25, 45, 130, false)},
		},
		{
			"query overlap split in half",
			[]Block{block("chr1", 0, 22, 100, false), block("chr1", 18, 40, 130, false)},
			[]Block{block("chr1", 0, 20, 100, false), block("chr1", 20, 40, 132, false)},
		},
		{
			"odd overlap gives the extra base to the right block",
			[]Block{block("chr1", 0, 22, 1000, false), block("chr1", 21, 79, 1021, false)},
			[]Block{block("chr1", 0, 22, 1000, false), block("chr1", 22, 79, 1022, false)},
		},
		{
			"target overlap",
			[]Block{block("chr1", 0, 20, 100, false), block("chr1", 30, 50, 116, false)},
			[]Block{block("chr1", 0, 18, 100, false), block("chr1", 32, 50, 118, false)},
		},
		{
			"short block keeps its base and the neighbour absorbs the overlap",
			[]Block{block("chr1", 0, 22, 100, false), block("chr1", 20, 21, 120, false)},
			[]Block{block("chr1", 0, 20, 100, false), block("chr1", 20, 21, 120, false)},
		},
		{
			"reverse strand",
			[]Block{block("chr1", 0, 22, 500, true), block("chr1", 20, 40, 482, true)},
			[]Block{block("chr1", 0, 21, 501, true), block("chr1", 21, 40, 482, true)},
		},
		{
			"different contigs only trim the query",
			[]Block{block("chr1", 0, 22, 500, false), block("chr2", 20, 40, 10, false)},
			[]Block{block("chr1", 0, 21, 500, false), block("chr2", 21, 40, 11, false)},
		},
		{
			"duplicate block is split",
			[]Block{block("chr1", 0, 30, 100, false), block("chr1", 0, 30, 100, false)},
			[]Block{block("chr1", 0, 15, 100, false), block("chr1", 15, 30, 115, false)},
		},
		{
			"block neither side can absorb is dropped",
			[]Block{block("chr1", 0, 4, 100, false), block("chr1", 4, 5, 100, false)},
			[]Block{block("chr1", 0, 4, 100, false)},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := TrimOverlap(tc.in)
			assert.Equal(t, tc.want, got)
			again := TrimOverlap(append([]Block(nil), got...))
			assert.Equal(t, got, again)
		})
	}
}

func TestTrimOverlapIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 300; i++ {
		n := 2 + r.Intn(4)
		reverse := r.Intn(2) == 1
		bs := make([]Block, n)
		q, tpos := 0, 10000
		for j := range bs {
			l := 5 + r.Intn(30)
			bs[j] = block("chr1", q, q+l, tpos, reverse)
			q += l - r.Intn(8)
			if reverse {
				tpos -= l - r.Intn(8)
			} else {
				tpos += l - r.Intn(8)
			}
		}
		sort.SliceStable(bs, func(a, b int) bool { return bs[a].QueryStart < bs[b].QueryStart })
		once := TrimOverlap(bs)
		for j := 1; j < len(once); j++ {
			assert.LessOrEqual(t, once[j-1].QueryEnd, once[j].QueryStart)
			assert.Equal(t, once[j].Len(), once[j].Target.Len())
		}
		cp := append([]Block(nil), once...)
		assert.Equal(t, cp, TrimOverlap(once))
	}
}
