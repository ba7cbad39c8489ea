// Package ingest drives the fetch, parse and persist loop over a source
// archive. Pages are processed sequentially so a partially broken site
// yields a partial ingest rather than none.
package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nadlan-labs/shuma-cli/internal/fetch"
	"github.com/nadlan-labs/shuma-cli/internal/model"
	"github.com/nadlan-labs/shuma-cli/internal/parse"
	"github.com/nadlan-labs/shuma-cli/internal/store"
	"github.com/nadlan-labs/shuma-cli/internal/title"
)

const (
	// DefaultMaxPages is the page cap when the caller does not request one.
	DefaultMaxPages = 50

	// stopAfterEmpty ends the walk after this many consecutive pages
	// with no extractions. One empty page can be a hiccup; two in a row
	// means we ran off the end of the archive.
	stopAfterEmpty = 2
)

// Options controls a single ingest run.
type Options struct {
	Source    model.SourceCategory
	StartPage int
	MaxPages  int
}

// Result summarizes what an ingest run did.
type Result struct {
	RunID      string `json:"run_id"`
	Pages      int    `json:"pages"`
	Extracted  int    `json:"extracted"`
	Saved      int    `json:"saved"`
	Duplicates int    `json:"duplicates"`
	Failed     int    `json:"failed"`
}

// Pipeline wires a fetcher, a parse chain and a store into an ingest loop.
type Pipeline struct {
	fetcher fetch.Fetcher
	chain   *parse.Chain
	store   store.Store
}

func NewPipeline(fetcher fetch.Fetcher, chain *parse.Chain, st store.Store) *Pipeline {
	return &Pipeline{fetcher: fetcher, chain: chain, store: st}
}

// Run walks the source's result pages until the page cap or the end of the
// archive. Page-level failures are logged and counted, not fatal; the run
// only errors when the store itself is unusable.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.StartPage <= 0 {
		opts.StartPage = 1
	}

	run, err := p.store.CreateIngestRun(ctx, opts.Source)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: create run")
	}

	res := &Result{RunID: run.ID}
	log := zap.L().With(
		zap.String("component", "ingest"),
		zap.String("source", string(opts.Source)),
		zap.String("run_id", run.ID))
	log.Info("ingest started", zap.Int("start_page", opts.StartPage), zap.Int("max_pages", opts.MaxPages))

	consecutiveEmpty := 0
	for page := opts.StartPage; page < opts.StartPage+opts.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			p.finish(ctx, res, model.RunStatusFailed)
			return res, eris.Wrap(err, "ingest: cancelled")
		}
		res.Pages++

		doc, err := p.fetcher.FetchPage(ctx, opts.Source, page)
		if err != nil {
			log.Warn("page fetch failed", zap.Int("page", page), zap.Error(err))
			res.Failed++
			consecutiveEmpty = 0
			continue
		}

		raws := p.chain.Parse(ctx, doc, opts.Source, page)
		if len(raws) == 0 {
			consecutiveEmpty++
			if consecutiveEmpty >= stopAfterEmpty {
				log.Info("end of archive reached", zap.Int("page", page))
				res.Pages -= consecutiveEmpty - 1
				break
			}
			continue
		}
		consecutiveEmpty = 0
		res.Extracted += len(raws)

		saved, dup, failed := p.savePage(ctx, raws, opts.Source, page)
		res.Saved += saved
		res.Duplicates += dup
		res.Failed += failed
	}

	status := model.RunStatusComplete
	if res.Saved == 0 && res.Failed > 0 {
		status = model.RunStatusFailed
	}
	p.finish(ctx, res, status)

	log.Info("ingest finished",
		zap.Int("pages", res.Pages),
		zap.Int("extracted", res.Extracted),
		zap.Int("saved", res.Saved),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("failed", res.Failed),
		zap.String("status", status))
	return res, nil
}

func (p *Pipeline) savePage(ctx context.Context, raws []model.RawExtraction, source model.SourceCategory, page int) (saved, dup, failed int) {
	for _, raw := range raws {
		fields := title.Parse(raw.Title, source)
		d := model.NewDecision(raw, fields, source, page)
		d.CreatedAt = time.Now().UTC()

		inserted, err := p.store.SaveDecision(ctx, d)
		if err != nil {
			zap.L().Warn("save failed",
				zap.String("component", "ingest"),
				zap.String("decision_id", d.ID),
				zap.Error(err))
			failed++
			continue
		}
		if inserted {
			saved++
		} else {
			dup++
		}
	}
	return saved, dup, failed
}

func (p *Pipeline) finish(ctx context.Context, res *Result, status string) {
	// Run bookkeeping must land even when the run itself was cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := p.store.FinishIngestRun(ctx, res.RunID, res.Pages, res.Saved, res.Failed, status); err != nil {
		zap.L().Warn("finish ingest run failed",
			zap.String("component", "ingest"),
			zap.String("run_id", res.RunID),
			zap.Error(err))
	}
}
