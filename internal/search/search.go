// Package search runs term-and-value queries over stored decision documents
// and aggregates the extracted numbers.
package search

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nadlan-labs/shuma-cli/internal/extract"
	"github.com/nadlan-labs/shuma-cli/internal/model"
	"github.com/nadlan-labs/shuma-cli/internal/stats"
	"github.com/nadlan-labs/shuma-cli/internal/store"
)

const (
	// DefaultLimit bounds the preview rows returned to the caller.
	// Statistics always cover the full matching set.
	DefaultLimit = 20

	defaultConcurrency = 8

	snippetRunes = 120
)

// Options describes one search request. Terms are Hebrew keywords to locate
// in document text; each term becomes a numeric field in the result.
type Options struct {
	Terms     []string
	Window    int
	Limit     int
	Source    model.SourceCategory
	Year      int
	Appraiser string
	CaseType  string
}

// Result pairs the preview rows with aggregate statistics over all matches.
type Result struct {
	Rows  []model.AggregatedRow `json:"rows"`
	Stats model.SummaryStats    `json:"stats"`
}

// Service executes searches against a decision store.
type Service struct {
	store         store.Store
	maxConcurrent int
}

func NewService(st store.Store) *Service {
	return &Service{store: st, maxConcurrent: defaultConcurrency}
}

// Run lists matching decisions, extracts values near each term concurrently
// and summarizes the full set. Only the returned rows honor Limit.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.Terms) == 0 {
		return nil, eris.New("search: at least one term required")
	}
	if opts.Window <= 0 {
		opts.Window = extract.DefaultWindow
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	decisions, err := s.store.ListDecisions(ctx, store.DecisionFilter{
		Source:       opts.Source,
		Year:         opts.Year,
		Appraiser:    opts.Appraiser,
		CaseType:     opts.CaseType,
		TextContains: opts.Terms[0],
	})
	if err != nil {
		return nil, eris.Wrap(err, "search: list decisions")
	}

	rows := make([]model.AggregatedRow, len(decisions))
	matched := make([]bool, len(decisions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	var mu sync.Mutex

	for i, d := range decisions {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, ok := aggregateRow(d, opts.Terms, opts.Window)
			mu.Lock()
			rows[i] = row
			matched[i] = ok
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "search: extract values")
	}

	var hits []model.AggregatedRow
	for i, row := range rows {
		if matched[i] {
			hits = append(hits, row)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Year != hits[j].Year {
			return hits[i].Year > hits[j].Year
		}
		return hits[i].DecisionID < hits[j].DecisionID
	})

	summary := stats.Summarize(hits, opts.Terms)

	shown := hits
	if len(shown) > opts.Limit {
		shown = shown[:opts.Limit]
	}
	summary.Shown = len(shown)

	zap.L().Info("search completed",
		zap.String("component", "search"),
		zap.Strings("terms", opts.Terms),
		zap.Int("candidates", len(decisions)),
		zap.Int("matches", len(hits)),
		zap.Int("shown", len(shown)))
	return &Result{Rows: shown, Stats: summary}, nil
}

// aggregateRow extracts values for every term from one decision. A decision
// counts as a match when any term yields at least one value.
func aggregateRow(d model.Decision, terms []string, window int) (model.AggregatedRow, bool) {
	row := model.AggregatedRow{
		DecisionID: d.ID,
		Appraiser:  d.Appraiser,
		Block:      d.Block,
		Plot:       d.Plot,
		Year:       d.Year,
		Values:     map[string][]float64{},
	}

	matched := false
	firstOffset := -1
	for _, term := range terms {
		obs := extract.Observations(d.DocText, term, window)
		if len(obs) == 0 {
			continue
		}
		matched = true
		vals := make([]float64, len(obs))
		for i, o := range obs {
			vals[i] = o.Value
		}
		row.Values[term] = vals
		if firstOffset < 0 || obs[0].Offset < firstOffset {
			firstOffset = obs[0].Offset
		}
	}
	if matched {
		row.Snippet = snippet(d.DocText, firstOffset)
	}
	return row, matched
}

// snippet returns a window of text around a rune offset, whitespace intact.
func snippet(text string, offset int) string {
	runes := []rune(text)
	start := offset - snippetRunes/2
	if start < 0 {
		start = 0
	}
	end := start + snippetRunes
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}
