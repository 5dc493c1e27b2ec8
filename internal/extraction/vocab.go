// internal/extraction/vocab.go
//
// Fixed vocabularies used by the splitting and validation heuristics.
// These lists were tuned against failing transcripts; they are the
// knobs, the rules in rules.go are the machinery.
package extraction

import "strings"

// actionVerbs recognizes a word that starts a new action. Non-exhaustive
// by design; extend against the regression transcripts.
var actionVerbs = map[string]struct{}{
	"call": {}, "email": {}, "text": {}, "message": {}, "phone": {},
	"write": {}, "work": {}, "working": {}, "buy": {}, "get": {}, "grab": {},
	"send": {}, "schedule": {}, "book": {}, "clean": {}, "fix": {},
	"finish": {}, "prepare": {}, "plan": {}, "review": {}, "check": {},
	"pay": {}, "order": {}, "pick": {}, "organize": {}, "update": {},
	"create": {}, "make": {}, "read": {}, "study": {}, "practice": {},
	"meet": {}, "visit": {}, "research": {}, "build": {}, "record": {},
	"submit": {}, "print": {}, "install": {}, "renew": {}, "file": {},
	"draft": {}, "upload": {}, "publish": {}, "translate": {}, "learn": {},
	"go": {}, "do": {}, "set": {}, "sort": {}, "wash": {}, "cook": {},
	"answer": {}, "reply": {}, "respond": {}, "ask": {}, "invite": {},
}

// actionPrepositions begin a new clause after "and" when the verb is
// elided: "work on the podcast ... and on the website".
var actionPrepositions = map[string]struct{}{
	"on": {}, "to": {},
}

// continuationWords after "and" mark a continuation of the same action,
// never a new one: "call Tom and tell him about the plan".
var continuationWords = map[string]struct{}{
	"tell": {}, "about": {}, "what": {}, "then": {}, "him": {},
	"her": {}, "them": {}, "that": {}, "the": {},
}

// contactVerbs can take a list of people as objects and expand into one
// task per person.
var contactVerbs = map[string]struct{}{
	"call": {}, "email": {}, "text": {}, "message": {}, "phone": {},
	"ping": {}, "invite": {}, "write": {},
}

// leadIns are stripped from the front of titles during normalization.
// Longest-prefix first.
var leadIns = []string{
	"do not forget to",
	"don't forget to",
	"dont forget to",
	"i would like to",
	"i'd like to",
	"remind me to",
	"i need to",
	"i want to",
	"i have to",
	"we need to",
	"i should",
	"i gotta",
	"i must",
	"let me",
	"please",
}

// matchStopwords are removed before cancellation-target substring
// matching so "the website" cancels "work on website".
var matchStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "my": {}, "our": {}, "your": {},
	"his": {}, "her": {}, "their": {}, "this": {}, "that": {},
	"to": {}, "on": {}, "for": {}, "of": {}, "at": {}, "in": {},
	"with": {}, "maybe": {}, "please": {},
}

// numberWords maps spoken numbers one through ten, plus articles used
// as "one" ("an hour") and the half-hour idiom.
var numberWords = map[string]float64{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"a": 1, "an": 1,
	"half a": 0.5, "half an": 0.5,
}

func isActionVerb(w string) bool {
	_, ok := actionVerbs[strings.ToLower(w)]
	return ok
}

func isContinuationWord(w string) bool {
	_, ok := continuationWords[strings.ToLower(w)]
	return ok
}

// startsNewAction reports whether a token immediately after "and" begins
// a new clause. Continuation words win over everything else.
func startsNewAction(w string) bool {
	lw := strings.ToLower(w)
	if _, ok := continuationWords[lw]; ok {
		return false
	}
	if _, ok := actionVerbs[lw]; ok {
		return true
	}
	_, ok := actionPrepositions[lw]
	return ok
}

func isContactVerb(w string) bool {
	_, ok := contactVerbs[strings.ToLower(w)]
	return ok
}

// hasActionIndicator reports whether any word of the text is a
// recognized action verb.
func hasActionIndicator(text string) bool {
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?")
		if _, ok := actionVerbs[w]; ok {
			return true
		}
	}
	return false
}

// HasActionIndicator reports whether free text plausibly describes an
// action. The pipeline uses it to find segments the model skipped.
func HasActionIndicator(text string) bool {
	return hasActionIndicator(text)
}

// stripStopwords removes match stopwords from a lowercased phrase and
// collapses the remainder.
func stripStopwords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	kept := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?'\"")
		if w == "" {
			continue
		}
		if _, ok := matchStopwords[w]; ok {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
