// Package extract locates numeric values near a search term inside long
// document texts, with locale-aware number parsing and domain plausibility
// filters.
package extract

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ParseLocaleNumber parses a numeric token under the source documents' mixed
// separator conventions: a comma followed by exactly three digits is a
// thousands separator, a comma followed by one or two digits is a decimal
// separator, and a period is always a decimal separator.
func ParseLocaleNumber(token string) (float64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, eris.New("extract: empty numeric token")
	}
	if strings.Count(token, ".") > 1 {
		// "2.4.2003" and friends are dates, not numbers.
		return 0, eris.Errorf("extract: ambiguous numeric token %q", token)
	}

	if strings.Contains(token, ",") {
		intPart, fracPart, hasFrac := strings.Cut(token, ".")
		groups := strings.Split(intPart, ",")

		thousands := true
		for _, g := range groups[1:] {
			if len(g) != 3 {
				thousands = false
				break
			}
		}

		switch {
		case thousands:
			token = strings.Join(groups, "")
			if hasFrac {
				token += "." + fracPart
			}
		case len(groups) == 2 && !hasFrac && len(groups[1]) >= 1 && len(groups[1]) <= 2:
			// "0,85" is a decimal comma.
			token = groups[0] + "." + groups[1]
		default:
			return 0, eris.Errorf("extract: malformed numeric token %q", token)
		}
	}

	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "extract: parse %q", token)
	}
	return v, nil
}
