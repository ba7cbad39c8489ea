package parse

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

// Recaller returns previously persisted decisions for a (source, page)
// coordinate.
type Recaller interface {
	LastGood(ctx context.Context, source model.SourceCategory, page int) ([]model.Decision, error)
}

// LastGoodStrategy replays the most recent successful extraction for the
// same (source, page) slot when every real extraction strategy has failed.
// Every result carries the Stale flag: freshness cannot be guaranteed.
type LastGoodStrategy struct {
	Store Recaller
}

func (LastGoodStrategy) Name() string { return "lastgood" }

func (s LastGoodStrategy) Extract(ctx context.Context, _ []byte, source model.SourceCategory, page int) ([]model.RawExtraction, error) {
	if s.Store == nil {
		return nil, nil
	}

	decisions, err := s.Store.LastGood(ctx, source, page)
	if err != nil {
		return nil, eris.Wrapf(err, "parse: lastgood: recall %s page %d", source, page)
	}
	if len(decisions) == 0 {
		return nil, nil
	}

	zap.L().Warn("parse: serving stale last-known-good data",
		zap.String("source", string(source)),
		zap.Int("page", page),
		zap.Int("items", len(decisions)),
	)

	items := make([]model.RawExtraction, 0, len(decisions))
	for _, d := range decisions {
		items = append(items, model.RawExtraction{
			Title:       d.Title,
			URL:         d.URL,
			PublishDate: d.PublishDate,
			Block:       d.Block,
			Plot:        d.Plot,
			Strategy:    s.Name(),
			Stale:       true,
		})
	}
	return items, nil
}
