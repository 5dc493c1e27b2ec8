// internal/extraction/duration.go
//
// Spoken duration phrase recognition: "for two hours", "that takes 30
// minutes", "will take an hour". Numbers are resolved through the fixed
// one-to-ten word table in vocab.go.
package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	numPattern  = `half an|half a|\d+(?:\.\d+)?|one|two|three|four|five|six|seven|eight|nine|ten|an|a`
	unitPattern = `hours?|hrs?|minutes?|mins?`
)

var (
	// "that takes 30 minutes", "it will take one hour", "takes two hours"
	takesRe = regexp.MustCompile(`(?i)\b(?:(?:that|this|it|which)\s+)?(?:might\s+|will\s+|should\s+)?takes?\s+(?:about\s+|around\s+|maybe\s+)?(` + numPattern + `)\s+(` + unitPattern + `)\b`)

	// "for two hours", "about 45 minutes"
	forRe = regexp.MustCompile(`(?i)\b(?:for|about|around)\s+(` + numPattern + `)\s+(` + unitPattern + `)\b`)

	// A clause that is nothing but a duration, optionally led by
	// "it takes" / "that will take".
	standaloneRe = regexp.MustCompile(`(?i)^\s*(?:(?:it|that|this)\s+(?:might\s+|will\s+|should\s+)?takes?\s+)?(?:about\s+|around\s+)?(` + numPattern + `)\s+(` + unitPattern + `)\s*[.!?]*\s*$`)
)

// parseNumber resolves a numeric token or a number word to a float.
func parseNumber(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// toMinutes converts a parsed amount and unit to whole minutes.
func toMinutes(n float64, unit string) int {
	if strings.HasPrefix(strings.ToLower(unit), "h") {
		return int(n * 60)
	}
	return int(n)
}

// findDurationMatch locates the first duration phrase in text and
// returns its value in minutes plus the match bounds for stripping.
// The "takes" form is preferred over the bare "for" form when both
// appear, since it is more specific about intent.
func findDurationMatch(text string) (minutes int, start, end int, ok bool) {
	for _, re := range []*regexp.Regexp{takesRe, forRe} {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		num, numOK := parseNumber(text[loc[2]:loc[3]])
		if !numOK {
			continue
		}
		unit := text[loc[4]:loc[5]]
		return toMinutes(num, unit), loc[0], loc[1], true
	}
	return 0, 0, 0, false
}

// FindDuration returns the first duration found in text, in minutes.
func FindDuration(text string) (*int, bool) {
	minutes, _, _, ok := findDurationMatch(text)
	if !ok {
		return nil, false
	}
	return IntPtr(minutes), true
}

// ExtractDuration pulls the first duration phrase out of text and
// returns the remaining text with all duration phrases stripped.
func ExtractDuration(text string) (minutes *int, cleaned string, ok bool) {
	m, start, end, found := findDurationMatch(text)
	if !found {
		return nil, text, false
	}
	cleaned = text[:start] + " " + text[end:]
	// Strip any further phrases; the first one won.
	for {
		_, s, e, more := findDurationMatch(cleaned)
		if !more {
			break
		}
		cleaned = cleaned[:s] + " " + cleaned[e:]
	}
	return IntPtr(m), tidyAfterStrip(cleaned), true
}

// StripDurations removes every duration phrase from text.
func StripDurations(text string) string {
	for {
		_, s, e, ok := findDurationMatch(text)
		if !ok {
			return tidyAfterStrip(text)
		}
		text = text[:s] + " " + text[e:]
	}
}

// IsStandaloneDuration reports whether the clause is purely a duration
// phrase ("three hours", "it takes two hours") with no action of its own.
func IsStandaloneDuration(text string) bool {
	return standaloneRe.MatchString(strings.TrimSpace(text))
}

// StandaloneDurationMinutes parses a standalone duration clause.
func StandaloneDurationMinutes(text string) (*int, bool) {
	m := standaloneRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil, false
	}
	n, ok := parseNumber(m[1])
	if !ok {
		return nil, false
	}
	return IntPtr(toMinutes(n, m[2])), true
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// tidyAfterStrip cleans up the hole a removed phrase leaves behind:
// doubled spaces, dangling connectives, stray trailing punctuation.
func tidyAfterStrip(s string) string {
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	for {
		trimmed := strings.TrimRight(s, " .,;:!?")
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasSuffix(lower, " for"):
			trimmed = trimmed[:len(trimmed)-4]
		case strings.HasSuffix(lower, " and"):
			trimmed = trimmed[:len(trimmed)-4]
		case strings.HasSuffix(lower, " that"):
			trimmed = trimmed[:len(trimmed)-5]
		case strings.HasSuffix(lower, " it"):
			trimmed = trimmed[:len(trimmed)-3]
		default:
			return strings.TrimSpace(trimmed)
		}
		s = strings.TrimSpace(trimmed)
	}
}
