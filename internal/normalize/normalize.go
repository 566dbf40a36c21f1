// Package normalize canonicalizes extracted values so that two passes reading
// the same printed text compare equal.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	spaceRun = regexp.MustCompile(`\s+`)

	// 2024-01-05, 2024.1.5, 2024/01/05, 2024. 01. 05.
	dateSep = regexp.MustCompile(`^(\d{4})\s*[-./]\s*(\d{1,2})\s*[-./]\s*(\d{1,2})\.?$`)
	// 2024년 1월 5일
	dateKor = regexp.MustCompile(`^(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일$`)
	// 20240105
	dateCompact = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)

	// 1,234.50 optionally followed by a unit. NFKC has already turned ㎡ into m2.
	numberWithUnit = regexp.MustCompile(`^([-+]?[\d,]*\.?\d+)\s*(m2|%|세대|호|동|층|개|원)?$`)
)

// Text folds width variants (full-width digits and latin), applies NFKC and
// collapses runs of whitespace.
func Text(s string) string {
	s = width.Fold.String(s)
	s = norm.NFKC.String(s)
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// Date returns s as YYYY-MM-DD when it is a recognizable calendar date.
func Date(s string) (string, bool) {
	s = Text(s)
	for _, re := range []*regexp.Regexp{dateSep, dateKor, dateCompact} {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if mo < 1 || mo > 12 || d < 1 || d > 31 {
			return "", false
		}
		return pad(y, 4) + "-" + pad(mo, 2) + "-" + pad(d, 2), true
	}
	return "", false
}

// Number returns s as a canonical decimal with its unit, dropping thousands
// separators and trailing zeros: "1,234.50 ㎡" becomes "1234.5㎡".
func Number(s string) (string, bool) {
	s = Text(s)
	m := numberWithUnit.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return "", false
	}
	unit := m[2]
	if unit == "m2" {
		unit = "㎡"
	}
	return strconv.FormatFloat(f, 'f', -1, 64) + unit, true
}

// Value canonicalizes an extracted value for comparison. Dates and numbers
// are normalized to a single form; everything else is width-folded with
// whitespace collapsed.
func Value(s string) string {
	if d, ok := Date(s); ok {
		return d
	}
	if n, ok := Number(s); ok {
		return n
	}
	return Text(s)
}

// Equal reports whether a and b are the same value after normalization.
func Equal(a, b string) bool {
	return Value(a) == Value(b)
}

func pad(n, digits int) string {
	s := strconv.Itoa(n)
	for len(s) < digits {
		s = "0" + s
	}
	return s
}
