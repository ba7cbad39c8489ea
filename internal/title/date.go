package title

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var dateTokenRe = regexp.MustCompile(`\d{1,4}[./-]\d{1,2}[./-]\d{1,4}`)

// FindDate locates the first full calendar date in s and returns it
// normalized to DD-MM-YYYY. A candidate with a digit immediately adjacent on
// either side is a fragment of a longer date string and is rejected.
func FindDate(s string) (string, bool) {
	for _, loc := range dateTokenRe.FindAllStringIndex(s, -1) {
		if loc[0] > 0 && isDigit(s[loc[0]-1]) {
			continue
		}
		if loc[1] < len(s) && isDigit(s[loc[1]]) {
			continue
		}
		if norm, ok := NormalizeDate(s[loc[0]:loc[1]]); ok {
			return norm, true
		}
	}
	return "", false
}

// NormalizeDate converts a date token to the fixed DD-MM-YYYY form,
// accepting `.`, `/` and `-` separators and either day-first or year-first
// field order. Two-digit years are expanded around the 1970 pivot.
func NormalizeDate(token string) (string, bool) {
	parts := strings.FieldsFunc(token, func(r rune) bool {
		return r == '.' || r == '/' || r == '-'
	})
	if len(parts) != 3 {
		return "", false
	}

	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	c, errC := strconv.Atoi(parts[2])
	if errA != nil || errB != nil || errC != nil {
		return "", false
	}

	var d, m, y int
	if a > 31 {
		y, m, d = a, b, c
	} else {
		d, m, y = a, b, c
	}

	if y < 100 {
		if y >= 70 {
			y += 1900
		} else {
			y += 2000
		}
	}

	if d < 1 || d > 31 || m < 1 || m > 12 || y < 1900 || y > 2100 {
		return "", false
	}
	return fmt.Sprintf("%02d-%02d-%04d", d, m, y), true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
