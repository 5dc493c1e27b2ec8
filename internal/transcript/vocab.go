// internal/transcript/vocab.go
package transcript

import "strings"

// fillerWords is the closed vocabulary of acknowledgement/filler tokens.
// A clause made up exclusively of these words carries no intent and is
// dropped during segmentation.
var fillerWords = map[string]struct{}{
	"okay":     {},
	"ok":       {},
	"yeah":     {},
	"yes":      {},
	"yep":      {},
	"no":       {},
	"nope":     {},
	"hmm":      {},
	"hm":       {},
	"uh":       {},
	"um":       {},
	"uhm":      {},
	"so":       {},
	"well":     {},
	"right":    {},
	"alright":  {},
	"sure":     {},
	"cool":     {},
	"nice":     {},
	"good":     {},
	"thanks":   {},
	"thank":    {},
	"you":      {},
	"like":     {},
	"anyway":   {},
	"whatever": {},
}

// IsFillerWord reports whether a single lowercased word is filler.
func IsFillerWord(w string) bool {
	_, ok := fillerWords[w]
	return ok
}

// IsFillerOnly reports whether a clause consists entirely of filler words.
// Matching is case-insensitive and ignores punctuation.
func IsFillerOnly(clause string) bool {
	words := strings.Fields(stripPunct(strings.ToLower(clause)))
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		if !IsFillerWord(w) {
			return false
		}
	}
	return true
}

// stripPunct removes everything except letters, digits, spaces and
// apostrophes.
func stripPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '\'':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}
