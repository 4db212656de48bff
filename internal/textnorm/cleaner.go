// Package textnorm normalizes raw recognized text into training-ready labels.
package textnorm

import (
	"strings"
	"unicode"
)

// digitWords maps single digits to their German word form. Replacement is a
// naive substring substitution with no word-boundary check: digits embedded
// in longer numbers are expanded digit by digit ("123" becomes
// "eins zwei drei"). This is a known limitation, not a number-to-words
// converter.
var digitWords = [10]string{
	"null", "eins", "zwei", "drei", "vier",
	"fünf", "sechs", "sieben", "acht", "neun",
}

// Clean lowercases the text, treats hyphens as word separators, expands
// single digits to their word form, strips the remaining punctuation and
// collapses whitespace runs to single spaces. It is pure and total: every
// input yields a string, possibly empty.
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteByte(' ')
			b.WriteString(digitWords[r-'0'])
			b.WriteByte(' ')
		case r == '-':
			b.WriteByte(' ')
		case unicode.IsLetter(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
