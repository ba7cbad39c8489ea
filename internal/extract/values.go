package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

var (
	numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	dateRe   = regexp.MustCompile(`\d{1,2}[./-]\d{1,2}[./-]\d{2,4}`)
	wordRe   = regexp.MustCompile(`[\p{L}"']+`)
)

const (
	// DefaultWindow is the scan window after each term occurrence, in runes.
	DefaultWindow = 150

	// maxLeadingWords is the table-header heuristic: a number preceded by
	// this many natural-language words inside the window is descriptive
	// prose, not a value assignment.
	maxLeadingWords = 3

	// charsPerPage estimates the page number from a rune offset.
	charsPerPage = 3000
)

// NearbyValues returns the numeric values that plausibly correspond to the
// search term inside text. See Observations for the scan rules.
func NearbyValues(text, term string, window int) []float64 {
	obs := Observations(text, term, window)
	if len(obs) == 0 {
		return nil
	}
	vals := make([]float64, len(obs))
	for i, o := range obs {
		vals[i] = o.Value
	}
	return vals
}

// Observations scans text for case-insensitive occurrences of term and
// returns at most one surviving numeric observation per occurrence: the
// first number inside the following window that is not part of a calendar
// date, parses under the locale rules, falls inside the term's registered
// plausible range, and is not preceded by enough words to look like a table
// header. Scanning resumes one rune after each occurrence so overlapping
// occurrences are not skipped.
func Observations(text, term string, window int) []model.ValueObservation {
	if text == "" || term == "" {
		return nil
	}
	if window <= 0 {
		window = DefaultWindow
	}

	runes := []rune(text)
	termLen := utf8.RuneCountInString(term)
	if termLen == 0 || termLen > len(runes) {
		return nil
	}

	vr, hasRange := RangeFor(term)

	var out []model.ValueObservation
	for i := 0; i+termLen <= len(runes); i++ {
		if !strings.EqualFold(string(runes[i:i+termLen]), term) {
			continue
		}
		end := i + termLen
		wEnd := end + window
		if wEnd > len(runes) {
			wEnd = len(runes)
		}
		if obs, ok := firstValue(string(runes[end:wEnd]), vr, hasRange); ok {
			obs.Offset += end
			obs.Page = obs.Offset/charsPerPage + 1
			out = append(out, obs)
		}
	}
	return out
}

// firstValue finds the first numeric token in the window that survives all
// filters. Offset in the returned observation is the rune position within
// the window.
func firstValue(window string, vr ValueRange, hasRange bool) (model.ValueObservation, bool) {
	dateSpans := dateRe.FindAllStringIndex(window, -1)

	for _, loc := range numberRe.FindAllStringIndex(window, -1) {
		if overlapsAny(dateSpans, loc) {
			continue
		}

		if words := wordRe.FindAllString(window[:loc[0]], -1); len(words) >= maxLeadingWords {
			// Too much prose between the term and the number. Every later
			// token only has more words in front of it, so give up on this
			// occurrence entirely.
			return model.ValueObservation{}, false
		}

		tok := window[loc[0]:loc[1]]
		v, err := ParseLocaleNumber(tok)
		if err != nil {
			continue
		}
		if hasRange && !vr.Contains(v) {
			continue
		}

		return model.ValueObservation{
			Raw:    tok,
			Value:  v,
			Offset: utf8.RuneCountInString(window[:loc[0]]),
		}, true
	}
	return model.ValueObservation{}, false
}

func overlapsAny(spans [][]int, loc []int) bool {
	for _, s := range spans {
		if loc[0] < s[1] && loc[1] > s[0] {
			return true
		}
	}
	return false
}
