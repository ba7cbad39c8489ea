package parse

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

var pageDateRe = regexp.MustCompile(`\d{1,2}[./-]\d{1,2}[./-]\d{2,4}`)

// StructuralStrategy parses the results grid through the site's current
// markup: exact grid id and row classes. Fastest and most precise, and the
// first to break when the markup changes — which is exactly what the rest
// of the chain is for.
type StructuralStrategy struct{}

func (StructuralStrategy) Name() string { return "structural" }

func (s StructuralStrategy) Extract(_ context.Context, doc []byte, _ model.SourceCategory, _ int) ([]model.RawExtraction, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, eris.Wrap(err, "parse: structural: parse html")
	}

	var items []model.RawExtraction
	d.Find("table#resultsGrid tr.resultRow, table#resultsGrid tr.resultRowAlt").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("td.title a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}
		href, _ := link.Attr("href")
		items = append(items, model.RawExtraction{
			Title:       title,
			URL:         href,
			PublishDate: strings.TrimSpace(row.Find("td.publishDate").First().Text()),
			Strategy:    s.Name(),
		})
	})
	return items, nil
}

// PathStrategy matches the results grid by shape rather than by id or class
// names: any table row holding a link cell plus a date-looking cell.
// Survives renamed classes at the cost of occasionally catching navigation
// tables.
type PathStrategy struct{}

func (PathStrategy) Name() string { return "path" }

func (s PathStrategy) Extract(_ context.Context, doc []byte, _ model.SourceCategory, _ int) ([]model.RawExtraction, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, eris.Wrap(err, "parse: path: parse html")
	}

	var items []model.RawExtraction
	d.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		link := row.Find("td a[href]").First()
		title := strings.TrimSpace(link.Text())
		if title == "" || !containsHebrew(title) {
			return
		}
		href, _ := link.Attr("href")

		var publish string
		cells.Each(func(_ int, cell *goquery.Selection) {
			if publish != "" {
				return
			}
			if txt := strings.TrimSpace(cell.Text()); pageDateRe.MatchString(txt) && len(txt) <= 12 {
				publish = txt
			}
		})
		if publish == "" {
			return
		}

		items = append(items, model.RawExtraction{
			Title:       title,
			URL:         href,
			PublishDate: publish,
			Strategy:    s.Name(),
		})
	})
	return items, nil
}

func containsHebrew(s string) bool {
	for _, r := range s {
		if r >= 0x0590 && r <= 0x05FF {
			return true
		}
	}
	return false
}
