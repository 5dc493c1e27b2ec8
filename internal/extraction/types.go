package extraction

import (
	"context"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/braindump/internal/transcript"
)

// ItemType tags a RawItem. The model may only return these four types;
// anything else fails parsing.
type ItemType string

const (
	ItemTask           ItemType = "task"
	ItemCancelTask     ItemType = "cancel_task"
	ItemIgnore         ItemType = "ignore"
	ItemDurationAttach ItemType = "duration_attach"
)

// Method records which extraction path produced the final task list.
type Method string

const (
	// MethodPrimary: first model call succeeded.
	MethodPrimary Method = "primary"
	// MethodUpgraded: the model-upgrade retry succeeded.
	MethodUpgraded Method = "upgraded"
	// MethodUpgradedSimple: the upgraded model with simplified
	// instructions succeeded.
	MethodUpgradedSimple Method = "upgraded_simple"
	// MethodAllFailed: every escalation step returned zero items.
	MethodAllFailed Method = "all_failed"
	// MethodDeterministic: the model-free extractor produced the list.
	MethodDeterministic Method = "deterministic_fallback"
	// MethodNone: nothing ran (empty input).
	MethodNone Method = "none"
)

// RawItem is one unit returned by the structured-output model.
//
// Every item declares the segment it was read from; items never span
// segments. OrderInSegment is a stable, zero-based, gap-tolerant
// ordering within a segment, used only for intra-segment tie-breaking.
type RawItem struct {
	SegmentIndex    int      `json:"segment_index"`
	OrderInSegment  int      `json:"order_in_segment"`
	Type            ItemType `json:"type"`
	Title           string   `json:"title,omitempty"`
	DueText         string   `json:"due_text,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	Targets         []string `json:"targets,omitempty"`
	SourceText      string   `json:"source_text,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
}

// Validate checks that the item is well-typed. Parsing rejects the whole
// payload if any item fails, which triggers the strict retry.
func (r *RawItem) Validate() error {
	switch r.Type {
	case ItemTask, ItemCancelTask, ItemIgnore, ItemDurationAttach:
	default:
		return fmt.Errorf("unknown item type %q", r.Type)
	}
	if r.SegmentIndex < 0 {
		return fmt.Errorf("negative segment_index %d", r.SegmentIndex)
	}
	if r.OrderInSegment < 0 {
		return fmt.Errorf("negative order_in_segment %d", r.OrderInSegment)
	}
	if r.DurationMinutes != nil && *r.DurationMinutes <= 0 {
		return fmt.Errorf("non-positive duration_minutes %d", *r.DurationMinutes)
	}
	return nil
}

// Task is the normalized output unit.
//
// Title is always non-empty after postprocessing: an item carrying a
// duration but no usable title gets a title reconstructed from its
// source text instead of being dropped.
type Task struct {
	Title           string  `json:"title"`
	DueText         string  `json:"due_text,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	SegmentIndex    int     `json:"segment_index"`
	OrderInSegment  int     `json:"order_in_segment"`
	SourceText      string  `json:"source_text,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	Confidence      float64 `json:"confidence,omitempty"`
}

// Result is built fresh per extraction request and never persisted here;
// persistence is the caller's concern.
type Result struct {
	Items      []Task               `json:"items"`
	Segments   []transcript.Segment `json:"segments"`
	RawCount   int                  `json:"raw_count"`
	FinalCount int                  `json:"final_count"`
	Method     Method               `json:"method"`
}

// Client is the boundary to the external structured-JSON-generation
// capability. Implementations must treat malformed payloads as errors
// after one strict retry at temperature 0; callers treat any error as
// "returned 0 items" for escalation purposes.
type Client interface {
	Extract(ctx context.Context, segments []transcript.Segment, model string, temperature float64, simplified bool) ([]RawItem, error)
}

// Config holds provider-specific client configuration.
type Config struct {
	Provider  string        `json:"provider"` // "anthropic", "openai", "disabled"
	Model     string        `json:"model,omitempty"`
	APIKey    string        `json:"-"` // Never serialize API keys
	BaseURL   string        `json:"base_url,omitempty"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`
}

// IntPtr returns a pointer to v. Convenience for building items.
func IntPtr(v int) *int {
	return &v
}
