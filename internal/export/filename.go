package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// unsafeChars matches characters that are not letters, digits, hyphen or underscore.
var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition. Korean
// letters are kept; the result is truncated to 100 runes.
func SanitizeFilename(name string) string {
	s := unsafeChars.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if r := []rune(s); len(r) > 100 {
		s = string(r[:100])
	}
	if s == "" {
		s = "review"
	}
	return s
}

// BuildFilename returns "{name}_{YYYY-MM-DD}.{ext}".
func BuildFilename(name, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), now.Format("2006-01-02"), ext)
}
