package main

import (
	"fmt"
	"io"

	"github.com/jwaldrip/odin/cli"
	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/tiledaligner/hitio"
	"github.com/mudesheng/tiledaligner/psl"
)

type diffOptions struct {
	diffs   string
	queries string
	out     string
}

func Diff(c cli.Command) {
	e, stop := setup("Diff", c)
	defer stop()
	opt := diffOptions{
		diffs:   c.Flag("diffs").String(),
		queries: c.Flag("queries").String(),
		out:     c.Flag("o").String(),
	}
	n, err := runDiff(e, opt)
	if err != nil {
		log.Fatalf("[Diff] %v", err)
	}
	e.logger.WithField("records", n).Info("[Diff] finished")
}

func readQueries(fn string) (map[string]string, error) {
	if fn == "" {
		return nil, nil
	}
	fp, err := hitio.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return hitio.ReadFasta(fp)
}

// runDiff converts every entry of the alignment file to a PSL record.
// Entries whose rows cannot be located in their query are skipped; without
// a query FASTA the query row itself stands in for the sequence.
func runDiff(e *env, opt diffOptions) (n int, err error) {
	queries, err := readQueries(opt.queries)
	if err != nil {
		return 0, err
	}
	fp, err := hitio.Open(opt.diffs)
	if err != nil {
		return 0, err
	}
	defer fp.Close()
	w, err := hitio.Create(opt.out)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	dr := hitio.NewDiffReader(fp)
	for {
		de, err := dr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
		seq := ""
		if queries != nil {
			var ok bool
			if seq, ok = queries[de.Name]; !ok {
				e.logger.WithField("query", de.Name).Warn("[runDiff] not in the query file")
				continue
			}
		}
		rec, ok, err := psl.DetailsFromAlignedText(de.Window, de.Rows, de.Name, seq, de.Forward, de.WindowSeq)
		if err != nil {
			return n, fmt.Errorf("[runDiff] %w", err)
		}
		if !ok {
			e.logger.WithFields(log.Fields{"query": de.Name, "window": de.Window}).Debug("[runDiff] no alignment")
			continue
		}
		if l, ok := e.genome.ContigLength(rec.TName); ok {
			rec.TSize = l
		}
		if err := hitio.WritePSL(w, []psl.Record{rec}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
