package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text and strips diacritics ("Catálogo" -> "catalogo").
// It is idempotent and safe for concurrent use.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	// transform chains keep internal buffers, so each call builds its own
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.M)), norm.NFC)
	result, _, err := transform.String(stripMarks, strings.ToLower(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return result
}
