// internal/transcript/segmenter.go
package transcript

import (
	"regexp"
	"strings"
	"time"
)

// DefaultPauseThreshold is the silence gap that starts a new segment
// when timestamped spans are available.
const DefaultPauseThreshold = 600 * time.Millisecond

// Segmenter splits a transcript into ordered segments. Two strategies:
// timestamp-aware merging of spans, and text-only clause splitting when
// no timestamps exist. Callers pick by input availability.
type Segmenter struct {
	PauseThreshold time.Duration
}

// NewSegmenter returns a Segmenter with the given pause threshold.
// A zero threshold falls back to DefaultPauseThreshold.
func NewSegmenter(pauseThreshold time.Duration) *Segmenter {
	if pauseThreshold <= 0 {
		pauseThreshold = DefaultPauseThreshold
	}
	return &Segmenter{PauseThreshold: pauseThreshold}
}

// SegmentSpans merges consecutive timestamped spans into segments.
// Spans separated by less than the pause threshold join one segment;
// a gap at or above the threshold starts a new one. Filler-only
// segments are dropped and indices reassigned in merge order.
//
// Empty input yields an empty slice, never an error.
func (s *Segmenter) SegmentSpans(spans []Span) []Segment {
	var merged []Segment
	thresholdMS := int(s.PauseThreshold / time.Millisecond)

	var cur *Segment
	for _, span := range spans {
		text := strings.TrimSpace(span.Text)
		if text == "" {
			continue
		}
		if cur != nil && span.StartMS-cur.EndMS < thresholdMS {
			cur.Text = cur.Text + " " + text
			cur.EndMS = span.EndMS
			continue
		}
		if cur != nil {
			merged = append(merged, *cur)
		}
		cur = &Segment{
			StartMS: span.StartMS,
			EndMS:   span.EndMS,
			Text:    text,
		}
	}
	if cur != nil {
		merged = append(merged, *cur)
	}

	segments := make([]Segment, 0, len(merged))
	for _, seg := range merged {
		if IsFillerOnly(seg.Text) {
			continue
		}
		seg.Index = len(segments)
		segments = append(segments, seg)
	}
	return segments
}

var (
	// Narrative connectors become explicit clause breaks before splitting.
	// "and then" must be replaced before the bare "then".
	connectorRe = regexp.MustCompile(`(?i)[,\s]*\b(and then|after that|later|then)\b[\s,]*`)
	breakRe     = regexp.MustCompile(`[;/\n]+`)
	sentenceRe  = regexp.MustCompile(`[.!?]+`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// SegmentText splits plain text into segments when no timestamps exist.
// Narrative connectors, semicolons and slashes become clause breaks,
// then the text splits on sentence terminators. Filler-only clauses are
// dropped.
//
// Empty input yields an empty slice, never an error.
func (s *Segmenter) SegmentText(text string) []Segment {
	// Break on ;, / and newlines before whitespace collapsing eats the
	// newlines.
	normalized := breakRe.ReplaceAllString(strings.TrimSpace(text), ". ")
	normalized = spaceRe.ReplaceAllString(normalized, " ")
	if normalized == "" {
		return []Segment{}
	}

	normalized = connectorRe.ReplaceAllString(normalized, ". ")

	clauses := sentenceRe.Split(normalized, -1)

	segments := make([]Segment, 0, len(clauses))
	for _, clause := range clauses {
		clause = strings.Trim(clause, " ,")
		if clause == "" || IsFillerOnly(clause) {
			continue
		}
		segments = append(segments, Segment{
			Index: len(segments),
			Text:  clause,
		})
	}
	return segments
}
