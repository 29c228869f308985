package main

import (
	"github.com/jwaldrip/odin/cli"
)

var app = cli.New("1.0.0", "Reconcile tile index hits into BLAT PSL alignments", func(c cli.Command) {})

func init() {
	app.DefineStringFlag("C", "", "configure file (TOML), defaults apply when empty")
	app.DefineStringFlag("cpuprofile", "", "write cpu profile to this directory")
	app.DefineStringFlag("genome", "", "samtools faidx index of the reference")
	app.DefineStringFlag("log-level", "", "panic|fatal|error|warn|info|debug|trace, overrides the configure file")
	app.DefineIntFlag("K", 0, "tile length, 0 takes it from the configure file")
	app.DefineIntFlag("t", 1, "number of CPU used")

	align := app.DefineSubCommand("align", "align queries from their tile index hits", Align)
	{
		align.DefineStringFlag("hits", "/dev/stdin", "tile hits file[.zst|.gz|.br]")
		align.DefineStringFlag("o", "/dev/stdout", "output file[.zst|.gz|.br]")
		align.DefineStringFlag("format", "", "output format[psl|sam], overrides the configure file")
		align.DefineStringFlag("graph", "", "write split hypotheses as dot graphs to this file")
	}
	diff := app.DefineSubCommand("diff", "convert pairwise alignment text to PSL", Diff)
	{
		diff.DefineStringFlag("diffs", "/dev/stdin", "alignment text file")
		diff.DefineStringFlag("queries", "", "query FASTA file")
		diff.DefineStringFlag("o", "/dev/stdout", "output PSL file")
	}
	rank := app.DefineSubCommand("rank", "merge adjacent and drop overlapping PSL records per query", Rank)
	{
		rank.DefineStringFlag("psl", "/dev/stdin", "input PSL file")
		rank.DefineStringFlag("o", "/dev/stdout", "output PSL file")
	}
}

func main() {
	app.Start()
}
