package viaf

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// letterFolds covers lowercase letters whose diacritic or ligature has no
// Unicode decomposition.
var letterFolds = strings.NewReplacer(
	"ł", "l",
	"ø", "o",
	"đ", "d",
	"ð", "d",
	"ħ", "h",
	"ı", "i",
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
	"þ", "th",
)

// Normalize produces the grouping key for free-text facet values:
//  1. Decompose and drop combining marks ("é" -> "e")
//  2. Lowercase and fold undecomposable letters ("ł" -> "l", "æ" -> "ae")
//  3. Replace every run of punctuation or whitespace with one space
//  4. Trim
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err == nil {
		s = folded
	}

	s = letterFolds.Replace(strings.ToLower(s))
	s = nonWordRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// DefaultKey groups occurrences by their normalized display text.
func DefaultKey(o Occurrence) string {
	return Normalize(o.Text)
}

// ExactKey groups occurrences by their display text unchanged.
func ExactKey(o Occurrence) string {
	return o.Text
}
