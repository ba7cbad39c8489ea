package doctext

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nadlan-labs/shuma-cli/internal/model"
	"github.com/nadlan-labs/shuma-cli/internal/store"
)

const maxPDFSize = 32 << 20

// FillResult summarizes one fill pass.
type FillResult struct {
	Candidates int `json:"candidates"`
	Filled     int `json:"filled"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Filler walks stored decisions that still lack document text, downloads
// each document and stores the extracted text.
type Filler struct {
	store     store.Store
	extractor Extractor
	client    *http.Client
	limiter   *rate.Limiter
}

func NewFiller(st store.Store, extractor Extractor, ratePerSec float64) *Filler {
	if ratePerSec <= 0 {
		ratePerSec = 1.0
	}
	return &Filler{
		store:     st,
		extractor: extractor,
		client:    &http.Client{Timeout: 60 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

// Fill processes up to limit decisions from one source (limit <= 0 means
// all). Per-document failures are logged and counted, not fatal.
func (f *Filler) Fill(ctx context.Context, source model.SourceCategory, limit int) (*FillResult, error) {
	decisions, err := f.store.ListDecisions(ctx, store.DecisionFilter{Source: source})
	if err != nil {
		return nil, eris.Wrap(err, "doctext: list decisions")
	}

	log := zap.L().With(
		zap.String("component", "doctext"),
		zap.String("source", string(source)))

	res := &FillResult{}
	for _, d := range decisions {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "doctext: cancelled")
		}
		if limit > 0 && res.Filled >= limit {
			break
		}
		if d.DocText != "" || d.URL == "" {
			res.Skipped++
			continue
		}
		res.Candidates++

		text, err := f.fetchText(ctx, d.URL)
		if err != nil {
			log.Warn("document text extraction failed",
				zap.String("decision_id", d.ID),
				zap.String("url", d.URL),
				zap.Error(err))
			res.Failed++
			continue
		}
		if err := f.store.SetDocText(ctx, d.ID, text); err != nil {
			log.Warn("store doc text failed",
				zap.String("decision_id", d.ID),
				zap.Error(err))
			res.Failed++
			continue
		}
		res.Filled++
	}

	log.Info("fill pass finished",
		zap.Int("candidates", res.Candidates),
		zap.Int("filled", res.Filled),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed))
	return res, nil
}

// fetchText downloads one document to a temp file and extracts its text.
func (f *Filler) fetchText(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "doctext: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", eris.Wrapf(err, "doctext: build request for %s", url)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "doctext: get %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("doctext: get %s: status %d", url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "shuma-*.pdf")
	if err != nil {
		return "", eris.Wrap(err, "doctext: create temp file")
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, io.LimitReader(resp.Body, maxPDFSize))
	closeErr := tmp.Close()
	if err != nil {
		return "", eris.Wrapf(err, "doctext: download %s", url)
	}
	if closeErr != nil {
		return "", eris.Wrap(closeErr, "doctext: close temp file")
	}

	return f.extractor.ExtractText(ctx, filepath.Clean(tmp.Name()))
}
