package psid

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ToID produces the canonical simulator identifier for a display name.
// Behavior: folds diacritics, lower-cases and strips every character
// outside [a-z0-9]. "Flabébé" -> "flabebe", "King's Rock" -> "kingsrock",
// "Landorus-Therian" -> "landorustherian". Suitable for stable DB keys.
func ToID(name string) string {
	s, _, err := transform.String(deaccent, name)
	if err != nil {
		s = name
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Equal reports whether two display names fold to the same identifier.
func Equal(a, b string) bool {
	return ToID(a) == ToID(b)
}
