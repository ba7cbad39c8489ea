package title

import "strings"

// caseTypeTable maps title keywords to canonical case types, most specific
// first. Multi-word phrases must come before the generic single words they
// contain, so an expropriation-compensation case is never classified as
// generic compensation.
var caseTypeTable = []struct {
	keyword  string
	caseType string
}{
	{"פיצויים בגין הפקעה", "פיצויי הפקעה"},
	{"פיצויי הפקעה", "פיצויי הפקעה"},
	{"תביעת פיצויים לפי סעיף 197", "תביעה לפי סעיף 197"},
	{"תביעה לפי סעיף 197", "תביעה לפי סעיף 197"},
	{"סעיף 197", "תביעה לפי סעיף 197"},
	{"ירידת ערך", "ירידת ערך"},
	{"היטל השבחה", "היטל השבחה"},
	{"דמי היתר", "דמי היתר"},
	{"דמי הסכמה", "דמי הסכמה"},
	{"הפקעה", "פיצויי הפקעה"},
	{"פיצויים", "פיצויים"},
	{"השבחה", "היטל השבחה"},
}

// CaseType classifies a title through the priority-ordered keyword table.
// Returns an empty string when nothing matches.
func CaseType(title string) string {
	for _, e := range caseTypeTable {
		if strings.Contains(title, e.keyword) {
			return e.caseType
		}
	}
	return ""
}
