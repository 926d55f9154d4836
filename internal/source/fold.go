package source

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldForMatch lowercases a string and strips combining marks so that
// composed and decomposed spellings ("Pokémon", "Poke\u0301mon") compare
// equal to the plain ASCII vocabulary and catalog names.
func foldForMatch(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
