// internal/extraction/normalize.go
package extraction

import (
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/braindump/internal/transcript"
)

// Drop reasons recorded when a candidate is rejected.
const (
	reasonTooShort     = "too_short"
	reasonTooFewWords  = "too_few_words"
	reasonFiller       = "filler"
	reasonDurationOnly = "duration_only"
	reasonNoAction     = "no_action"
)

// Minimum bars for a valid title; the relaxed bar keeps borderline
// candidates that still look like actions.
const (
	minTitleLen        = 6
	minTitleWords      = 2
	relaxedMinTitleLen = 4
)

var (
	normSpaceRe = regexp.MustCompile(`\s+`)

	// Multi-word action phrases that the single-verb list misses.
	actionPatternRe = regexp.MustCompile(`(?i)\b(follow up|look into|reach out|take care of|figure out)\b`)
)

// NormalizeTitle strips leading filler and lead-in phrases, collapses
// whitespace and trims trailing punctuation.
func NormalizeTitle(title string) string {
	s := normSpaceRe.ReplaceAllString(strings.TrimSpace(title), " ")

	for {
		before := s
		s = stripLeadingFiller(s)
		s = stripLeadIns(s)
		if s == before {
			break
		}
	}

	s = strings.TrimRight(s, " .,;:!?")
	return strings.TrimSpace(s)
}

// stripLeadingFiller removes filler words from the front of a title,
// each optionally followed by a comma: "okay, yeah, call mom".
func stripLeadingFiller(s string) string {
	for {
		words := strings.SplitN(s, " ", 2)
		if len(words) == 0 {
			return s
		}
		first := strings.ToLower(strings.Trim(words[0], ",.!?"))
		if !transcript.IsFillerWord(first) {
			return s
		}
		if len(words) == 1 {
			return ""
		}
		s = strings.TrimSpace(words[1])
	}
}

// stripLeadIns removes "I need to"-style prefixes, repeatedly, so
// "okay I need to I want to call mom" still reduces.
func stripLeadIns(s string) string {
	for {
		lower := strings.ToLower(s)
		matched := false
		for _, lead := range leadIns {
			if strings.HasPrefix(lower, lead+" ") {
				s = strings.TrimSpace(s[len(lead):])
				matched = true
				break
			}
		}
		if !matched {
			return s
		}
	}
}

// ValidateTitle checks a normalized title against the closed validation
// rules. Returns ok, or false plus the drop reason.
func ValidateTitle(title string) (bool, string) {
	t := strings.TrimSpace(title)
	if len(t) < minTitleLen {
		return false, reasonTooShort
	}
	if len(strings.Fields(t)) < minTitleWords {
		return false, reasonTooFewWords
	}
	if transcript.IsFillerOnly(t) {
		return false, reasonFiller
	}
	if IsStandaloneDuration(t) {
		return false, reasonDurationOnly
	}
	if !hasActionIndicator(t) && !actionPatternRe.MatchString(t) {
		return false, reasonNoAction
	}
	return true, ""
}

// isBorderline reports whether a title that failed strict validation
// still plausibly contains an action and meets the relaxed length bar.
func isBorderline(title string) bool {
	t := strings.TrimSpace(title)
	if len(t) < relaxedMinTitleLen {
		return false
	}
	return hasActionIndicator(t) || actionPatternRe.MatchString(t)
}

// negationRules detect retracted intentions when a cancel item carries
// no explicit targets. Ordered; first match wins.
var negationRules = []struct {
	name string
	re   *regexp.Regexp
}{
	{name: "maybe_not", re: regexp.MustCompile(`(?i)\bmaybe\s+(?:the\s+)?(.+?)\s+not\b`)},
	{name: "skip", re: regexp.MustCompile(`(?i)\bskip\s+(?:the\s+)?(.+)$`)},
	{name: "not_the", re: regexp.MustCompile(`(?i)\bnot\s+the\s+(.+)$`)},
	{name: "cancel", re: regexp.MustCompile(`(?i)\bcancel\s+(?:the\s+)?(.+)$`)},
	{name: "forget", re: regexp.MustCompile(`(?i)\bforget\s+(?:about\s+)?(?:the\s+)?(.+)$`)},
	{name: "dont", re: regexp.MustCompile(`(?i)\bdon'?t\s+(?:do\s+)?(?:the\s+)?(.+)$`)},
	{name: "no_x", re: regexp.MustCompile(`(?i)^no\s+(.+)$`)},
}

// dontForgetRe guards the "don't" rule: "don't forget to buy milk" is
// a reminder, not a retraction.
var dontForgetRe = regexp.MustCompile(`(?i)\bdon'?t\s+forget\b`)

// ExtractNegationTarget pulls a cancellation phrase out of free text.
func ExtractNegationTarget(text string) (string, bool) {
	t := strings.TrimRight(strings.TrimSpace(text), ".!?")
	if dontForgetRe.MatchString(t) {
		return "", false
	}
	for _, rule := range negationRules {
		if m := rule.re.FindStringSubmatch(t); m != nil {
			target := NormalizeCancelTarget(m[1])
			if target != "" {
				return target, true
			}
		}
	}
	return "", false
}

// NormalizeCancelTarget lowercases, trims and stopword-strips a
// cancellation phrase so it matches loosely against titles.
func NormalizeCancelTarget(s string) string {
	return stripStopwords(s)
}

// matchesCancellation reports whether a task's title or source text
// contains any cancellation target as a stopword-stripped substring.
func matchesCancellation(task Task, targets []string) bool {
	if len(targets) == 0 {
		return false
	}
	title := stripStopwords(task.Title)
	source := stripStopwords(task.SourceText)
	for _, target := range targets {
		if target == "" {
			continue
		}
		if strings.Contains(title, target) || strings.Contains(source, target) {
			return true
		}
	}
	return false
}
