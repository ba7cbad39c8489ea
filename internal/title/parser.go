// Package title recovers structured fields from the free-text Hebrew titles
// of appraisal decisions. A composite pattern for the fully structured title
// form is tried first; when it fails, independent per-field cascades run so
// one field's ambiguity cannot corrupt another's extraction. Absence of a
// match is always an empty field, never an error.
package title

import (
	"regexp"
	"strings"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

// compositeRe matches the fully structured title form of the dominant
// decisive-appraiser category, extracting all six fields atomically:
// decision word, date, case type, committee, block/plot, trailing actor.
var compositeRe = regexp.MustCompile(
	`^החלט[הת]\s+` +
		`(?:ה?שמאית?\s+ה?מכריעה?|ועדת\s+ה?השגות)?\s*` +
		`מיום\s+(\d{1,4}[./-]\d{1,2}[./-]\d{1,4})\s+` +
		`בעניין\s+(.+?)\s*[-–]\s*` +
		`(.+?)\s*[-–]\s*` +
		`גוש\s+(\d+)\s+חלק(?:ה|ות)\s+(\d+(?:[-,]\d+)*)\s*[-–]\s*` +
		`(.+?)\s*$`)

// appealsCompositeRe covers the appeal-numbered variant used by the appeals
// stream ("ערר (1234/21) מיום ...").
var appealsCompositeRe = regexp.MustCompile(
	`^ערר\s+\(?[\d/]+\)?\s+` +
		`מיום\s+(\d{1,4}[./-]\d{1,2}[./-]\d{1,4})\s+` +
		`בעניין\s+(.+?)\s*[-–]\s*` +
		`(.+?)\s*[-–]\s*` +
		`גוש\s+(\d+)\s+חלק(?:ה|ות)\s+(\d+(?:[-,]\d+)*)\s*[-–]\s*` +
		`(.+?)\s*$`)

var blockPatterns = []*regexp.Regexp{
	regexp.MustCompile(`גוש\s*:?\s*(\d+)`),
	regexp.MustCompile(`גו"ש\s*(\d+)`),
}

var plotPatterns = []*regexp.Regexp{
	regexp.MustCompile(`חלק(?:ה|ות)\s*:?\s*(\d+(?:[-,]\d+)*)`),
	regexp.MustCompile(`ח"ח\s*(\d+(?:[-,]\d+)*)`),
}

var committeePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(ה?ו?ועדה\s+ה?מקומית\s+לתכנון\s+ו?ל?בניי?ה\s+[\p{Hebrew}][\p{Hebrew}\s"']*?)(?:\s*[-–,]|\s+גוש|\s*$)`),
	regexp.MustCompile(`(ה?ו?ועדה\s+ה?מקומית\s+[\p{Hebrew}][\p{Hebrew}\s"']*?)(?:\s*[-–,]|\s+גוש|\s*$)`),
	regexp.MustCompile(`(ועדת\s+ערר\s+[\p{Hebrew}][\p{Hebrew}\s"']*?)(?:\s*[-–,]|\s+גוש|\s*$)`),
}

var actorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`ה?שמאית?\s+ה?מכריעה?\s+([\p{Hebrew}]+(?:\s+[\p{Hebrew}]+){0,3})`),
	regexp.MustCompile(`מאת\s+([\p{Hebrew}]+(?:\s+[\p{Hebrew}]+){0,2})`),
	regexp.MustCompile(`[-–]\s*([\p{Hebrew}]+(?:\s+[\p{Hebrew}]+){0,3})\s*$`),
}

// actorStopwords reject captures that are title scaffolding rather than a
// person's name (the loose actor patterns would otherwise swallow the word
// following "שמאי מכריע").
var actorStopwords = map[string]bool{
	"מיום":   true,
	"מתאריך": true,
	"ביום":   true,
	"בעניין": true,
	"בנושא":  true,
	"החליט":  true,
	"החליטה": true,
	"קבע":    true,
	"קבעה":   true,
}

var explicitDateRe = regexp.MustCompile(`(?:מיום|מתאריך|ביום)\s*:?\s*(\d{1,4}[./-]\d{1,2}[./-]\d{1,4})`)

// committeePrefixes is the administrative boilerplate stripped from
// committee names, longest variants first.
var committeePrefixes = []string{
	"הוועדה המקומית לתכנון ולבנייה",
	"הוועדה המקומית לתכנון ובנייה",
	"הועדה המקומית לתכנון ולבניה",
	"הועדה המקומית לתכנון ובניה",
	"ועדה מקומית לתכנון ולבניה",
	"ועדה מקומית לתכנון ובניה",
	"הוועדה המקומית",
	"הועדה המקומית",
	"ועדה מקומית",
	"ועדת ערר",
}

// Parse extracts structured fields from a decision title. The composite
// pattern wins when it matches; otherwise each field falls back to its own
// pattern cascade independently. Parse never fails.
func Parse(title string, source model.SourceCategory) model.TitleFields {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.TitleFields{}
	}

	for _, re := range compositesFor(source) {
		if f, ok := parseComposite(re, title); ok {
			return f
		}
	}

	return model.TitleFields{
		Block:        firstGroup(blockPatterns, title),
		Plot:         firstGroup(plotPatterns, title),
		Committee:    normalizeCommittee(firstGroup(committeePatterns, title)),
		Appraiser:    parseActor(title),
		CaseType:     CaseType(title),
		DecisionDate: parseDate(title),
	}
}

func compositesFor(source model.SourceCategory) []*regexp.Regexp {
	if source == model.SourceAppeals {
		return []*regexp.Regexp{appealsCompositeRe, compositeRe}
	}
	return []*regexp.Regexp{compositeRe}
}

func parseComposite(re *regexp.Regexp, title string) (model.TitleFields, bool) {
	m := re.FindStringSubmatch(title)
	if m == nil {
		return model.TitleFields{}, false
	}

	date, ok := NormalizeDate(m[1])
	if !ok {
		return model.TitleFields{}, false
	}

	caseType := CaseType(m[2])
	if caseType == "" {
		caseType = strings.TrimSpace(m[2])
	}

	return model.TitleFields{
		DecisionDate: date,
		CaseType:     caseType,
		Committee:    normalizeCommittee(m[3]),
		Block:        m[4],
		Plot:         m[5],
		Appraiser:    strings.TrimSpace(m[6]),
	}, true
}

func firstGroup(patterns []*regexp.Regexp, title string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(title); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func parseActor(title string) string {
	for _, re := range actorPatterns {
		m := re.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		if name := trimAtStopword(m[1]); name != "" {
			return name
		}
	}
	return ""
}

// trimAtStopword cuts a captured actor name at the first scaffolding word,
// so "יעקב גולן בעניין דמי" becomes "יעקב גולן".
func trimAtStopword(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		if actorStopwords[w] {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}

func parseDate(title string) string {
	if m := explicitDateRe.FindStringSubmatch(title); m != nil {
		if norm, ok := NormalizeDate(m[1]); ok {
			return norm
		}
	}
	if norm, ok := FindDate(title); ok {
		return norm
	}
	return ""
}

func normalizeCommittee(s string) string {
	s = strings.TrimSpace(s)
	for _, p := range committeePrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(strings.TrimPrefix(s, p))
			break
		}
	}
	return s
}
