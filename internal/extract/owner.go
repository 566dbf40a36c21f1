package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"housingreview/internal/domain"
	"housingreview/internal/normalize"
)

var ownerNamePath = domain.FieldPath(domain.DocSaleApplication, "owner.name")

// namePlaceholders are values models emit when a name box is blank or unreadable.
var namePlaceholders = map[string]bool{
	"-": true, "--": true, "n/a": true, "na": true, "none": true, "null": true,
	"unknown": true, "없음": true, "미기재": true, "미상": true, "불명": true,
	"확인불가": true, "판독불가": true, "성명": true, "소유자": true,
}

// WellFormedName reports whether s looks like a real person or corporate
// name: at least two characters, at least one letter, and not a
// placeholder.
func WellFormedName(s string) bool {
	s = normalize.Text(s)
	if utf8.RuneCountInString(s) < 2 {
		return false
	}
	if namePlaceholders[strings.ToLower(strings.ReplaceAll(s, " ", ""))] {
		return false
	}
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
