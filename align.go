package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jwaldrip/odin/cli"
	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/tiledaligner/hitio"
	"github.com/mudesheng/tiledaligner/mapper"
	"github.com/mudesheng/tiledaligner/samout"
	"github.com/mudesheng/tiledaligner/splitdetect"
	"github.com/mudesheng/tiledaligner/tilematch"
)

type alignOptions struct {
	hits   string
	out    string
	format string
	graph  string
}

type alignStats struct {
	queries  int
	mapped   int
	records  int
	failures int
}

func Align(c cli.Command) {
	e, stop := setup("Align", c)
	defer stop()
	opt := alignOptions{
		hits:   c.Flag("hits").String(),
		out:    c.Flag("o").String(),
		format: c.Flag("format").String(),
		graph:  c.Flag("graph").String(),
	}
	if opt.format != "" {
		e.conf.Output.Format = opt.format
		if err := e.conf.Validate(); err != nil {
			log.Fatalf("[Align] args 'format': %v", err)
		}
	}
	st, err := runAlign(context.Background(), e, opt)
	if err != nil {
		log.Fatalf("[Align] %v", err)
	}
	e.logger.WithFields(log.Fields{
		"queries":  st.queries,
		"mapped":   st.mapped,
		"records":  st.records,
		"failures": st.failures,
	}).Info("[Align] finished")
}

type feedResult struct {
	skipped int
	err     error
}

// feedHits sends every query of r to in, writing its split hypotheses to
// dot first when dot is not nil. Queries whose hits overflow the packed
// encoding are logged and skipped. in is closed on return.
func feedHits(ctx context.Context, r io.Reader, in chan<- tilematch.Hits, dot io.Writer, sp splitdetect.Params, logger *log.Entry) (skipped int, err error) {
	defer close(in)
	hr := hitio.NewHitsReader(r)
	for {
		h, err := hr.Read()
		if err == io.EOF {
			return skipped, nil
		}
		if errors.Is(err, tilematch.ErrInvalidEncoding) {
			skipped++
			logger.WithField("query", h.Name).Warnf("[feedHits] %v", err)
			continue
		}
		if err != nil {
			return skipped, err
		}
		if dot != nil {
			m, err := splitdetect.Detect(h, sp)
			if err != nil {
				return skipped, err
			}
			if err := splitdetect.WriteDot(dot, h.Name, m); err != nil {
				return skipped, err
			}
		}
		select {
		case in <- h:
		case <-ctx.Done():
			return skipped, ctx.Err()
		}
	}
}

func runAlign(ctx context.Context, e *env, opt alignOptions) (st alignStats, err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fp, err := hitio.Open(opt.hits)
	if err != nil {
		return st, err
	}
	defer fp.Close()
	w, err := hitio.Create(opt.out)
	if err != nil {
		return st, err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	var dot io.WriteCloser
	if opt.graph != "" {
		if dot, err = hitio.Create(opt.graph); err != nil {
			return st, err
		}
		defer func() {
			if cerr := dot.Close(); err == nil {
				err = cerr
			}
		}()
	}

	var sw *samout.Writer
	if e.conf.Output.Format == "sam" {
		if sw, err = samout.NewWriter(w, e.genome.Contigs()); err != nil {
			return st, err
		}
	}

	p := e.conf.MapperParams()
	numCPU := e.opt.NumCPU
	in := make(chan tilematch.Hits, numCPU)
	fed := make(chan feedResult, 1)
	go func() {
		skipped, err := feedHits(ctx, fp, in, dot, p.Split, e.logger)
		fed <- feedResult{skipped: skipped, err: err}
	}()

	results := mapper.Run(ctx, in, numCPU, e.genome, p)
	for res := range results {
		st.queries++
		if res.Err != nil {
			st.failures++
			e.logger.WithField("query", res.Name).Warnf("[runAlign] %v", res.Err)
			continue
		}
		if len(res.Records) == 0 {
			e.logger.WithField("query", res.Name).Debug("[runAlign] unmapped")
			continue
		}
		st.mapped++
		st.records += len(res.Records)
		if sw != nil {
			err = sw.Write(res.Records, res.Sequence)
		} else {
			err = hitio.WritePSL(w, res.Records)
		}
		if err != nil {
			cancel()
			for range results {
			}
			return st, fmt.Errorf("[runAlign] writing %s: %w", res.Name, err)
		}
	}
	fr := <-fed
	st.queries += fr.skipped
	st.failures += fr.skipped
	if fr.err != nil {
		return st, fmt.Errorf("[runAlign] %s: %w", opt.hits, fr.err)
	}
	return st, nil
}
