package search

import (
	"regexp"
	"strings"
)

// tokenPattern matches letter/digit runs, including apostrophe joins
// ("don't" stays one token).
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:'[\p{L}]+)*`)

// Tokenize lowercases text and splits it into searchable terms. No
// stemming, no stopword removal: the same normalization is shared by
// the indexing and query paths so both sides agree on term identity.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}
