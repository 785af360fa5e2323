package keyword

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSlugChars = regexp.MustCompile(`[^\pL\pN]+`)

// Takes an arbitrary string of free-form text and returns a version with all
// non-letter, non-digit characters removed, all lower-case, and combining
// marks stripped (so "rácìst" folds to "racist").
func Slugify(orig string) string {
	bare := strings.ToLower(nonSlugChars.ReplaceAllString(orig, ""))
	// needs to be constructed per call to prevent a race condition
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(normFunc, bare)
	if err != nil {
		return bare
	}
	return folded
}
