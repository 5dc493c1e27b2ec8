package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestHeuristicExtractText_Splitting(t *testing.T) {
	h := NewHeuristic(nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "or and and-branches",
			text: "call Oliver and Roberta or write them per WhatsApp and work on podcast",
			want: []string{"call Oliver and Roberta", "write them per WhatsApp", "work on podcast"},
		},
		{
			name: "contact list",
			text: "call Tom, Alice and Bob",
			want: []string{"call Tom", "call Alice", "call Bob"},
		},
		{
			name: "sentences",
			text: "Buy groceries. Clean the kitchen.",
			want: []string{"Buy groceries", "Clean the kitchen"},
		},
		{
			name: "lead-ins stripped",
			text: "I need to renew the passport. I want to book the flights.",
			want: []string{"renew the passport", "book the flights"},
		},
		{
			name: "pure filler",
			text: "Okay.",
			want: []string{},
		},
		{
			name: "duration and filler only",
			text: "three hours. Yeah.",
			want: []string{},
		},
		{
			name: "closing acknowledgement",
			text: "Buy groceries. That's it.",
			want: []string{"Buy groceries"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.ExtractText(ctx, tt.text)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestHeuristicExtractText_PerBranchDurations(t *testing.T) {
	h := NewHeuristic(nil, nil)

	got := h.ExtractText(context.Background(),
		"work on the podcast for two hours and on the website for three hours")
	require.Len(t, got, 2)

	assert.Equal(t, "work on the podcast", got[0].Title)
	require.NotNil(t, got[0].DurationMinutes)
	assert.Equal(t, 120, *got[0].DurationMinutes)

	assert.Equal(t, "work on the website", got[1].Title)
	require.NotNil(t, got[1].DurationMinutes)
	assert.Equal(t, 180, *got[1].DurationMinutes)
}

func TestHeuristicExtractText_TrailingTakesAttaches(t *testing.T) {
	h := NewHeuristic(nil, nil)

	got := h.ExtractText(context.Background(), "buy groceries, that takes an hour")
	require.Len(t, got, 1)
	assert.Equal(t, "buy groceries", got[0].Title)
	require.NotNil(t, got[0].DurationMinutes)
	assert.Equal(t, 60, *got[0].DurationMinutes)
}

func TestHeuristicExtractText_StandaloneDurationAttaches(t *testing.T) {
	h := NewHeuristic(nil, nil)

	got := h.ExtractText(context.Background(), "prepare the workshop slides. it takes two hours.")
	require.Len(t, got, 1)
	assert.Equal(t, "prepare the workshop slides", got[0].Title)
	require.NotNil(t, got[0].DurationMinutes)
	assert.Equal(t, 120, *got[0].DurationMinutes)
}

func TestHeuristicExtractText_Cancellation(t *testing.T) {
	h := NewHeuristic(nil, nil)

	got := h.ExtractText(context.Background(), "work on the website. maybe website not.")
	assert.Empty(t, got, "retracted intention must not survive")
}

func TestHeuristicExtractText_DontForgetIsATask(t *testing.T) {
	h := NewHeuristic(nil, nil)

	got := h.ExtractText(context.Background(), "don't forget to buy milk.")
	require.Len(t, got, 1)
	assert.Equal(t, "buy milk", got[0].Title)
}

func TestHeuristicExtract_OrderAndConfidence(t *testing.T) {
	h := NewHeuristic(nil, nil)

	got := h.ExtractText(context.Background(), "call the plumber then email the landlord")
	require.Len(t, got, 2)
	assert.Equal(t, "call the plumber", got[0].Title)
	assert.Equal(t, "email the landlord", got[1].Title)
	for _, task := range got {
		assert.InDelta(t, 0.5, task.Confidence, 0.001)
	}
	assert.LessOrEqual(t, got[0].SegmentIndex, got[1].SegmentIndex)
}
