package main

import (
	"github.com/jwaldrip/odin/cli"
	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/tiledaligner/hitio"
	"github.com/mudesheng/tiledaligner/psl"
	"github.com/mudesheng/tiledaligner/rank"
)

type rankOptions struct {
	in  string
	out string
}

func Rank(c cli.Command) {
	e, stop := setup("Rank", c)
	defer stop()
	opt := rankOptions{in: c.Flag("psl").String(), out: c.Flag("o").String()}
	before, after, err := runRank(e, opt)
	if err != nil {
		log.Fatalf("[Rank] %v", err)
	}
	e.logger.WithFields(log.Fields{"in": before, "out": after}).Info("[Rank] finished")
}

// groupByQuery splits recs by query name, in order of first appearance.
func groupByQuery(recs []psl.Record) [][]psl.Record {
	idx := make(map[string]int)
	var groups [][]psl.Record
	for _, r := range recs {
		i, ok := idx[r.QName]
		if !ok {
			i = len(groups)
			idx[r.QName] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], r)
	}
	return groups
}

func runRank(e *env, opt rankOptions) (before, after int, err error) {
	fp, err := hitio.Open(opt.in)
	if err != nil {
		return 0, 0, err
	}
	defer fp.Close()
	recs, err := hitio.ReadPSL(fp)
	if err != nil {
		return 0, 0, err
	}
	w, err := hitio.Create(opt.out)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	before = len(recs)
	for _, g := range groupByQuery(recs) {
		kept := rank.RemoveOverlapping(psl.MergeAdjacent(g, e.conf.Merge.Tolerance))
		if err := hitio.WritePSL(w, kept); err != nil {
			return before, after, err
		}
		after += len(kept)
	}
	return before, after, nil
}
