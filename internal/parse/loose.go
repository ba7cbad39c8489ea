package parse

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

// LooseStrategy keys off attribute fragments instead of exact selectors:
// any anchor whose href points at a decision document. Tolerant of both
// renamed classes and restructured tables; no publish dates.
type LooseStrategy struct{}

func (LooseStrategy) Name() string { return "loose" }

func (s LooseStrategy) Extract(_ context.Context, doc []byte, _ model.SourceCategory, _ int) ([]model.RawExtraction, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, eris.Wrap(err, "parse: loose: parse html")
	}

	seen := make(map[string]bool)
	var items []model.RawExtraction
	d.Find(`a[href$=".pdf"], a[href*="Decision"], a[href*="decision"]`).Each(func(_ int, link *goquery.Selection) {
		title := strings.TrimSpace(link.Text())
		if title == "" || !containsHebrew(title) {
			return
		}
		href, _ := link.Attr("href")
		if seen[href+title] {
			return
		}
		seen[href+title] = true
		items = append(items, model.RawExtraction{
			Title:    title,
			URL:      href,
			Strategy: s.Name(),
		})
	})
	return items, nil
}

// rawAnchorRe pulls decision anchors straight out of the markup text. The
// title must carry a decision marker word so navigation links don't leak in.
var rawAnchorRe = regexp.MustCompile(
	`(?is)<a[^>]+href="([^"]+)"[^>]*>\s*([^<]*(?:החלטת|החלטה|שומה|השגה|ערר)[^<]*?)\s*</a>`)

// RawTextStrategy runs a regular expression over the raw markup with no DOM
// assumptions at all. Most tolerant and least precise; every use is logged
// as degraded quality.
type RawTextStrategy struct{}

func (RawTextStrategy) Name() string { return "rawtext" }

func (s RawTextStrategy) Extract(_ context.Context, doc []byte, source model.SourceCategory, page int) ([]model.RawExtraction, error) {
	matches := rawAnchorRe.FindAllSubmatch(doc, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	zap.L().Warn("parse: rawtext strategy engaged, extraction quality degraded",
		zap.String("source", string(source)),
		zap.Int("page", page),
		zap.Int("items", len(matches)),
	)

	items := make([]model.RawExtraction, 0, len(matches))
	for _, m := range matches {
		title := strings.Join(strings.Fields(string(m[2])), " ")
		if title == "" {
			continue
		}
		items = append(items, model.RawExtraction{
			Title:    title,
			URL:      string(m[1]),
			Strategy: s.Name(),
		})
	}
	return items, nil
}
