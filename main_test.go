package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudesheng/tiledaligner/cfg"
	"github.com/mudesheng/tiledaligner/hitio"
	"github.com/mudesheng/tiledaligner/psl"
	"github.com/mudesheng/tiledaligner/tilematch"
	"github.com/mudesheng/tiledaligner/utils"
)

const faiText = "chr1\t100000\t6\t60\t61\nchr2\t50000\t101680\t60\t61\n"

func testEnv(t *testing.T) *env {
	fn := filepath.Join(t.TempDir(), "ref.fa.fai")
	require.NoError(t, os.WriteFile(fn, []byte(faiText), 0o644))
	gm, err := loadGenome(fn)
	require.NoError(t, err)
	return &env{
		opt:    utils.ArgsOpt{NumCPU: 2, Genome: fn},
		conf:   cfg.Default(),
		genome: gm,
		logger: log.NewEntry(log.StandardLogger()),
	}
}

func writeFile(t *testing.T, name, text string) string {
	fn := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fn, []byte(text), 0o644))
	return fn
}

func readPSL(t *testing.T, fn string) []psl.Record {
	fp, err := hitio.Open(fn)
	require.NoError(t, err)
	defer fp.Close()
	recs, err := hitio.ReadPSL(fp)
	require.NoError(t, err)
	return recs
}

func TestLoadGenome(t *testing.T) {
	e := testEnv(t)
	cs := e.genome.Contigs()
	require.Len(t, cs, 2)
	assert.Equal(t, "chr1", cs[0].Name)
	assert.Equal(t, 50000, cs[1].Length)

	_, err := loadGenome(filepath.Join(t.TempDir(), "missing.fai"))
	assert.Error(t, err)
}

func TestResolveConfig(t *testing.T) {
	conf, err := resolveConfig(utils.ArgsOpt{TileLength: 11, LogLevel: "warn"})
	require.NoError(t, err)
	assert.Equal(t, 11, conf.Split.TileLength)
	assert.Equal(t, "warn", conf.LogLevel)
	assert.Equal(t, 11, conf.MapperParams().Chain.TileLength)

	fn := writeFile(t, "aligner.toml", "[split]\ntile-length = 15\n")
	conf, err = resolveConfig(utils.ArgsOpt{CfgFn: fn})
	require.NoError(t, err)
	assert.Equal(t, 15, conf.Split.TileLength)
	assert.Equal(t, "info", conf.LogLevel)

	_, err = resolveConfig(utils.ArgsOpt{CfgFn: filepath.Join(t.TempDir(), "missing.toml")})
	assert.Error(t, err)
}

func hitsFile(t *testing.T, ext string) string {
	seq := strings.Repeat("ACGTTGCAAC", 10)
	q1 := tilematch.Hits{Name: "q1", Sequence: seq}
	require.NoError(t, q1.Add(10, 0, 5000, 0, false))
	require.NoError(t, q1.Add(10, 1, 6050, 50, false))
	none := tilematch.Hits{Name: "none", Sequence: seq}
	require.NoError(t, none.Add(10, 0, 99990, 0, false))

	fn := filepath.Join(t.TempDir(), "hits"+ext)
	w, err := hitio.Create(fn)
	require.NoError(t, err)
	require.NoError(t, hitio.WriteHits(w, q1))
	require.NoError(t, hitio.WriteHits(w, none))
	require.NoError(t, w.Close())
	return fn
}

func TestRunAlignPSL(t *testing.T) {
	e := testEnv(t)
	dir := t.TempDir()
	opt := alignOptions{
		hits:  hitsFile(t, ".zst"),
		out:   filepath.Join(dir, "out.psl.gz"),
		graph: filepath.Join(dir, "split.dot"),
	}
	st, err := runAlign(context.Background(), e, opt)
	require.NoError(t, err)
	assert.Equal(t, alignStats{queries: 2, mapped: 1, records: 1}, st)

	recs := readPSL(t, opt.out)
	require.Len(t, recs, 1)
	assert.Equal(t, "q1", recs[0].QName)
	assert.Equal(t, "chr1", recs[0].TName)
	assert.Equal(t, 100000, recs[0].TSize)
	assert.Equal(t, 2, recs[0].BlockCount)
	assert.NoError(t, recs[0].Validate())

	dot, err := os.ReadFile(opt.graph)
	require.NoError(t, err)
	assert.Contains(t, string(dot), "q1")
	assert.Contains(t, string(dot), "none")
}

func TestRunAlignSAM(t *testing.T) {
	e := testEnv(t)
	e.conf.Output.Format = "sam"
	opt := alignOptions{hits: hitsFile(t, ".txt"), out: filepath.Join(t.TempDir(), "out.sam")}
	_, err := runAlign(context.Background(), e, opt)
	require.NoError(t, err)

	out, err := os.ReadFile(opt.out)
	require.NoError(t, err)
	assert.Contains(t, string(out), "@SQ\tSN:chr2\tLN:50000")
	assert.Contains(t, string(out), "q1\t0\tchr1\t5001\t255\t")
	assert.NotContains(t, string(out), "none\t")
}

func TestRunAlignMalformedHits(t *testing.T) {
	e := testEnv(t)
	opt := alignOptions{
		hits: writeFile(t, "hits.txt", "@q1\tACGT\n12\t0\t1:0:x\n"),
		out:  filepath.Join(t.TempDir(), "out.psl"),
	}
	_, err := runAlign(context.Background(), e, opt)
	assert.ErrorIs(t, err, hitio.ErrMalformedHits)
}

func TestRunAlignSkipsOverflowingQuery(t *testing.T) {
	e := testEnv(t)
	seq := strings.Repeat("ACGTTGCAAC", 10)
	opt := alignOptions{
		hits: writeFile(t, "hits.txt",
			"@q1\t"+seq+"\n10\t0\t5000:70000:+\n"+
				"@q2\t"+seq+"\n10\t0\t5000:0:+\n10\t1\t6050:50:+\n"),
		out: filepath.Join(t.TempDir(), "out.psl"),
	}
	st, err := runAlign(context.Background(), e, opt)
	require.NoError(t, err)
	assert.Equal(t, alignStats{queries: 2, mapped: 1, records: 1, failures: 1}, st)

	recs := readPSL(t, opt.out)
	require.Len(t, recs, 1)
	assert.Equal(t, "q2", recs[0].QName)
}

func TestRunDiff(t *testing.T) {
	e := testEnv(t)
	diffs := writeFile(t, "aln.txt",
		">q2\tchr2:100-108\t+\n"+
			"ACGTTACG\n"+
			"|||  |||\n"+
			"ACG--ACG\n"+
			"\n"+
			">q9\tchr1:0-4\t+\n"+
			"ACGT\n"+
			"||||\n"+
			"ACGT\n")
	queries := writeFile(t, "queries.fa", ">q2\nACGACG\n")
	out := filepath.Join(t.TempDir(), "out.psl")

	n, err := runDiff(e, diffOptions{diffs: diffs, queries: queries, out: out})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	recs := readPSL(t, out)
	require.Len(t, recs, 1)
	assert.Equal(t, 50000, recs[0].TSize)
	assert.Equal(t, []int{100, 105}, recs[0].TStarts)
	assert.Equal(t, 2, recs[0].TBaseInsert)

	// without queries the query row is the sequence
	n, err = runDiff(e, diffOptions{diffs: diffs, out: out})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func record(q string, matches, qStart, tStart int) psl.Record {
	return psl.Record{
		Matches:    matches,
		Strand:     "+",
		QName:      q,
		QSize:      100,
		QStart:     qStart,
		QEnd:       qStart + matches,
		TName:      "chr1",
		TSize:      100000,
		TStart:     tStart,
		TEnd:       tStart + matches,
		BlockCount: 1,
		BlockSizes: []int{matches},
		QStarts:    []int{qStart},
		TStarts:    []int{tStart},
	}
}

func TestRunRank(t *testing.T) {
	e := testEnv(t)
	var sb strings.Builder
	for _, r := range []psl.Record{
		record("q1", 30, 0, 120),
		record("q1", 50, 0, 100),
		record("q2", 20, 0, 1000),
		record("q2", 20, 20, 1020),
	} {
		sb.WriteString(r.String() + "\n")
	}
	in := writeFile(t, "in.psl", sb.String())
	out := filepath.Join(t.TempDir(), "out.psl")

	before, after, err := runRank(e, rankOptions{in: in, out: out})
	require.NoError(t, err)
	assert.Equal(t, 4, before)
	assert.Equal(t, 2, after)

	recs := readPSL(t, out)
	require.Len(t, recs, 2)
	assert.Equal(t, "q1", recs[0].QName)
	assert.Equal(t, 50, recs[0].Matches)
	assert.Equal(t, "q2", recs[1].QName)
	assert.Equal(t, 1000, recs[1].TStart)
	assert.Equal(t, 1040, recs[1].TEnd)
	assert.Equal(t, 40, recs[1].Matches)
}
