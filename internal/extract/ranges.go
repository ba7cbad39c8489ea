package extract

import "strings"

// ValueRange bounds the plausible values for a family of search terms.
// A range applies when any of its keywords is contained in the search term.
type ValueRange struct {
	Keywords []string
	Min      float64
	Max      float64
}

// defaultRanges lists the domain plausibility filters. Appraisal
// coefficients cluster well under 2.5; percentages and rates are bounded by
// definition; per-sqm land values below ~50 NIS or above 200k NIS are table
// noise, not appraisals.
var defaultRanges = []ValueRange{
	{Keywords: []string{"מקדם", "coefficient"}, Min: 0.01, Max: 2.5},
	{Keywords: []string{"אחוז", "שיעור", "percent", "rate", "%"}, Min: 0, Max: 100},
	{Keywords: []string{`למ"ר`, `שווי מ"ר`, "per sqm"}, Min: 50, Max: 200000},
}

// RangeFor returns the plausible range registered for a search term, if any
// of the registered keyword families matches it.
func RangeFor(term string) (ValueRange, bool) {
	lower := strings.ToLower(term)
	for _, r := range defaultRanges {
		for _, k := range r.Keywords {
			if strings.Contains(lower, strings.ToLower(k)) {
				return r, true
			}
		}
	}
	return ValueRange{}, false
}

// Contains reports whether v falls inside the range.
func (r ValueRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}
