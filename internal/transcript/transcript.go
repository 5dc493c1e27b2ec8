// Package transcript turns raw speech-to-text output into ordered,
// indexed segments. A segment is the unit every extracted item refers
// back to; indices are assigned once and never mutated.
package transcript

// Span is a timestamped piece of transcription as produced by the
// speech-to-text boundary. Times are milliseconds from stream start.
type Span struct {
	StartMS int    `json:"start_ms"`
	EndMS   int    `json:"end_ms"`
	Text    string `json:"text"`
}

// Segment is an ordered, indexed clause of the transcript.
//
// Index is the primary join key between segments and extracted items.
// For text-only segmentation StartMS and EndMS are zero.
type Segment struct {
	Index   int    `json:"index"`
	StartMS int    `json:"start_ms"`
	EndMS   int    `json:"end_ms"`
	Text    string `json:"text"`
}
