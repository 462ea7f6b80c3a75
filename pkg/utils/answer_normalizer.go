package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// affirmativeTokens are compared after NormalizeAnswer.
var affirmativeTokens = map[string]struct{}{
	"si": {},
}

// FoldDiacritics strips combining marks, so "sí" becomes "si".
func FoldDiacritics(value string) string {
	// transform chains keep state and must not be shared between goroutines
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return folded
}

// NormalizeAnswer trims, lowercases and folds diacritics of a free-text answer.
func NormalizeAnswer(answer string) string {
	return FoldDiacritics(strings.ToLower(strings.TrimSpace(answer)))
}

// IsAffirmative reports whether a screening answer means "yes".
func IsAffirmative(answer string) bool {
	_, ok := affirmativeTokens[NormalizeAnswer(answer)]
	return ok
}

// NormalizeText collapses whitespace and case for use in cache keys and keyword matching.
func NormalizeText(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return ""
	}
	return strings.Join(strings.Fields(FoldDiacritics(trimmed)), " ")
}
