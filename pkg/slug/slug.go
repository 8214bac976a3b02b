// Package slug generates URL-safe slugs from arbitrary titles.
package slug

import (
	"strings"
	"unicode"
)

var transliterations = map[rune]string{
	'ı': "i", 'İ': "i",
	'ş': "s", 'Ş': "s",
	'ğ': "g", 'Ğ': "g",
	'ü': "u", 'Ü': "u",
	'ö': "o", 'Ö': "o",
	'ç': "c", 'Ç': "c",
	'é': "e", 'è': "e", 'ê': "e",
	'á': "a", 'à': "a", 'â': "a",
	'&': "and",
}

// Generate converts a title into a lowercase hyphen-separated slug.
// Non-ASCII letters with a known transliteration are replaced, everything
// else that is not alphanumeric collapses into a single hyphen.
func Generate(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	prevHyphen := true
	for _, r := range title {
		if replacement, ok := transliterations[r]; ok {
			b.WriteString(replacement)
			prevHyphen = false
			continue
		}

		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
