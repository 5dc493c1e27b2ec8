// internal/extraction/rules.go
//
// Connector-based title expansion as an ordered list of named rules.
// Each rule either splits a fragment or leaves it alone; rules run as a
// cascade ("or" branches first, then "and" within each branch, then
// contact lists) and the first matching split position wins inside a
// rule. The lists driving the decisions live in vocab.go.
package extraction

import (
	"regexp"
	"strings"
)

type splitRule struct {
	name  string
	apply func(fragment string) ([]string, bool)
}

var splitRules = []splitRule{
	{name: "or_branches", apply: splitOnOr},
	{name: "and_new_action", apply: splitOnAnd},
	{name: "contact_list", apply: expandContactList},
}

// ExpandTitle applies the connector rules to a title and returns the
// resulting candidate tasks, in spoken order. A title that no rule
// touches comes back as a single fragment.
func ExpandTitle(title string) []string {
	fragments := []string{strings.TrimSpace(title)}
	for _, rule := range splitRules {
		next := make([]string, 0, len(fragments))
		for _, f := range fragments {
			if parts, ok := rule.apply(f); ok {
				next = append(next, parts...)
			} else {
				next = append(next, f)
			}
		}
		fragments = next
	}

	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ContainsConnector reports whether unresolved " or "/" and " patterns
// remain in a title. Used by the safety splitter's second chance.
func ContainsConnector(title string) bool {
	lower := " " + strings.ToLower(title) + " "
	return strings.Contains(lower, " or ") || strings.Contains(lower, " and ")
}

var orSplitRe = regexp.MustCompile(`(?i)\s+or\s+`)

// splitOnOr splits on every " or "; each branch is a candidate task.
func splitOnOr(fragment string) ([]string, bool) {
	parts := orSplitRe.Split(fragment, -1)
	if len(parts) < 2 {
		return nil, false
	}
	return trimAll(parts), true
}

// splitOnAnd splits on " and " only when the next token starts a new
// action (a known verb, or an elided-verb preposition like "on"/"to")
// and is not a continuation word. When the new clause starts with a
// preposition, the leading verb of the first clause is carried over:
// "work on the podcast ... and on the website" keeps "work".
func splitOnAnd(fragment string) ([]string, bool) {
	words := strings.Fields(fragment)
	if len(words) < 3 {
		return nil, false
	}

	var parts []string
	start := 0
	for i := 1; i < len(words)-1; i++ {
		if !strings.EqualFold(words[i], "and") {
			continue
		}
		next := strings.Trim(words[i+1], ".,;:!?")
		if !startsNewAction(next) {
			continue
		}
		parts = append(parts, strings.Join(words[start:i], " "))
		start = i + 1
	}
	if len(parts) == 0 {
		return nil, false
	}
	parts = append(parts, strings.Join(words[start:], " "))

	// Carry the elided verb into preposition-led clauses.
	leadVerb := ""
	if first := strings.ToLower(words[0]); isActionVerb(first) {
		leadVerb = words[0]
	}
	for i := 1; i < len(parts); i++ {
		fw := strings.ToLower(strings.Fields(parts[i])[0])
		if _, elided := actionPrepositions[fw]; elided && leadVerb != "" {
			parts[i] = leadVerb + " " + parts[i]
		}
	}
	return trimAll(parts), true
}

var contactListSplitRe = regexp.MustCompile(`(?i)\s*,\s*|\s+and\s+`)

// expandContactList turns "call Tom, Alice and Bob" into one task per
// name. Requires a single leading contact verb, at least one comma and
// 2-6 plausible names. A bare "and"-joined pair with no comma is left
// alone: that is two objects of one action, not two actions.
func expandContactList(fragment string) ([]string, bool) {
	words := strings.Fields(fragment)
	if len(words) < 2 || !isContactVerb(words[0]) {
		return nil, false
	}
	rest := strings.TrimSpace(fragment[len(words[0]):])
	if !strings.Contains(rest, ",") {
		return nil, false
	}

	names := trimAll(contactListSplitRe.Split(rest, -1))
	if len(names) < 2 || len(names) > 6 {
		return nil, false
	}
	for _, name := range names {
		if name == "" {
			return nil, false
		}
		nameWords := strings.Fields(name)
		if len(nameWords) > 3 {
			return nil, false
		}
		// A "name" containing an action verb means this was never a
		// contact list.
		for _, w := range nameWords {
			if isActionVerb(w) {
				return nil, false
			}
		}
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, words[0]+" "+name)
	}
	return out, true
}

func trimAll(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, " ,")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
