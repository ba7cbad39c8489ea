package fetch

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "shuma-cli/1.0 (+https://github.com/nadlan-labs/shuma-cli)"

	// maxBodySize caps response reads. Result pages are a few hundred KB
	// at most; anything larger is the site misbehaving.
	maxBodySize = 8 << 20
)

// Fetcher retrieves one result page of a source archive.
type Fetcher interface {
	FetchPage(ctx context.Context, source model.SourceCategory, page int) ([]byte, error)
}

// HTTPFetcher is the production Fetcher. Requests are rate limited across
// all sources to avoid hammering the archive servers.
type HTTPFetcher struct {
	client   *http.Client
	registry Registry
	limiter  *rate.Limiter
	ua       string
}

// NewHTTPFetcher builds a fetcher over the given registry. ratePerSec
// bounds the request rate; values <= 0 fall back to one request per second.
func NewHTTPFetcher(registry Registry, ratePerSec float64) *HTTPFetcher {
	if ratePerSec <= 0 {
		ratePerSec = 1.0
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: defaultTimeout},
		registry: registry,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), 1),
		ua:       defaultUserAgent,
	}
}

// FetchPage downloads a result page and returns its body decoded to UTF-8.
// A failed request is returned as an error after a single attempt; retry
// policy belongs to the caller.
func (f *HTTPFetcher) FetchPage(ctx context.Context, source model.SourceCategory, page int) ([]byte, error) {
	pageURL, err := f.registry.PageURL(source, page)
	if err != nil {
		return nil, err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetch: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: build request for %s", pageURL)
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: get %s", pageURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("fetch: get %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: read body of %s", pageURL)
	}

	decoded, err := decodeCharset(body, resp.Header.Get("Content-Type"))
	if err != nil {
		zap.L().Warn("charset decode failed, using raw body",
			zap.String("component", "fetch"),
			zap.String("url", pageURL),
			zap.Error(err))
		decoded = body
	}

	zap.L().Debug("fetched page",
		zap.String("component", "fetch"),
		zap.String("source", string(source)),
		zap.Int("page", page),
		zap.Int("bytes", len(decoded)),
		zap.Duration("elapsed", time.Since(start)))
	return decoded, nil
}

// decodeCharset converts a response body to UTF-8 based on the Content-Type
// charset parameter. Government archives still commonly serve windows-1255.
func decodeCharset(body []byte, contentType string) ([]byte, error) {
	if contentType == "" {
		return body, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: parse content type")
	}
	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return body, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: unknown charset %s", charset)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: decode %s", charset)
	}
	return decoded, nil
}
