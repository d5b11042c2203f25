package nc

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds a title for recurrence matching: diacritics stripped,
// lower-cased, non-alphanumeric runs collapsed to a single space, trimmed.
// It is pure and locale-independent, and idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(s string) string {
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	pendingSpace := false
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			// Combining mark left over from NFD decomposition.
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSpace = true
	}
	return b.String()
}
