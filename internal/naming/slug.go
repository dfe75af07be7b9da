package naming

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugDisallowed = regexp.MustCompile(`[^\w\s-]`)
	slugSeparators = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts a display name into an ASCII, lowercase, hyphenated slug.
// Accented letters are decomposed and reduced to their ASCII base; other
// non-ASCII runes are dropped.
func Slugify(value string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	ascii, _, err := transform.String(t, value)
	if err != nil {
		ascii = value
	}
	ascii = slugDisallowed.ReplaceAllString(strings.ToLower(ascii), "")
	ascii = slugSeparators.ReplaceAllString(ascii, "-")
	return strings.Trim(ascii, "-_")
}
