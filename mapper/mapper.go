// Package mapper runs the per-query pipeline from tile index hits to
// ranked PSL records, one query per worker.
package mapper

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/tiledaligner/blocks"
	"github.com/mudesheng/tiledaligner/chain"
	"github.com/mudesheng/tiledaligner/genome"
	"github.com/mudesheng/tiledaligner/psl"
	"github.com/mudesheng/tiledaligner/rank"
	"github.com/mudesheng/tiledaligner/splitdetect"
	"github.com/mudesheng/tiledaligner/tilematch"
)

// DefaultMaxHypotheses caps the number of tile sets synthesized per query.
const DefaultMaxHypotheses = 64

type Params struct {
	Split          splitdetect.Params
	Chain          chain.Params
	MergeTolerance int
	// MaxHypotheses of zero means no cap.
	MaxHypotheses int
}

func DefaultParams() Params {
	return Params{
		Split:          splitdetect.DefaultParams(),
		Chain:          chain.DefaultParams(),
		MergeTolerance: psl.DefaultMergeTolerance,
		MaxHypotheses:  DefaultMaxHypotheses,
	}
}

// WithTileLength returns p with the tile length of every stage set to k.
func (p Params) WithTileLength(k int) Params {
	p.Split.TileLength = k
	p.Chain.TileLength = k
	return p
}

// Align produces the ranked records of one query. Every run of the best
// quality bucket is tried on its own, then every split hypothesis, largest
// coverage first; each is completed from the remaining hits before it is
// synthesized. An error is returned only for badly encoded hits.
func Align(hits tilematch.Hits, cm genome.CoordinateMap, p Params) ([]psl.Record, error) {
	all, err := hits.All()
	if err != nil {
		return nil, fmt.Errorf("[Align] %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	q := psl.Query{Name: hits.Name, Size: len(hits.Sequence)}

	var hypotheses []tilematch.Set
	best, err := hits.Bucket(hits.Qualities()[0])
	if err != nil {
		return nil, fmt.Errorf("[Align] %w", err)
	}
	for _, m := range best {
		hypotheses = append(hypotheses, tilematch.NewSet(m))
	}
	splits, err := splitdetect.Detect(hits, p.Split)
	if err != nil {
		return nil, fmt.Errorf("[Align] %w", err)
	}
	for _, k := range splitdetect.Keys(splits) {
		hypotheses = append(hypotheses, splits[k]...)
	}

	seen := tilematch.NewSetIndex()
	var records []psl.Record
	for _, s := range hypotheses {
		if p.MaxHypotheses > 0 && seen.Len() >= p.MaxHypotheses {
			log.Debugf("[Align] %s: stopping after %d hypotheses", q.Name, seen.Len())
			break
		}
		s = chain.Extend(s, all, q.Size, p.Chain)
		if !seen.Add(s) {
			continue
		}
		res, err := psl.Synthesize(q, s, cm, p.Chain)
		if err != nil {
			if errors.Is(err, blocks.ErrUnmapped) {
				log.Debugf("[Align] %s: %v", q.Name, err)
				continue
			}
			return nil, err
		}
		recs := res.Records
		if res.State == psl.IndependentRecords {
			recs = psl.MergeAdjacent(recs, p.MergeTolerance)
		}
		log.WithFields(log.Fields{"query": q.Name, "state": res.State}).Debugf("[Align] %d runs gave %d records", s.Len(), len(recs))
		records = append(records, recs...)
	}
	return rank.RemoveOverlapping(records), nil
}

type Result struct {
	Name     string
	Sequence string
	Records  []psl.Record
	Err      error
}

// Run aligns every query read from in using numCPU workers and closes the
// returned channel once in is drained or ctx is done. Results come back in
// completion order.
func Run(ctx context.Context, in <-chan tilematch.Hits, numCPU int, cm genome.CoordinateMap, p Params) <-chan Result {
	if numCPU < 1 {
		numCPU = 1
	}
	out := make(chan Result, numCPU)
	var wg sync.WaitGroup
	for i := 0; i < numCPU; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				var h tilematch.Hits
				var ok bool
				select {
				case <-ctx.Done():
					return
				case h, ok = <-in:
					if !ok {
						return
					}
				}
				recs, err := Align(h, cm, p)
				select {
				case out <- Result{Name: h.Name, Sequence: h.Sequence, Records: recs, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
