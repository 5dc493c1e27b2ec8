package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeBlob(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"call the dentist", false},
		{"call the dentist.", false}, // trailing terminator alone is not a blob
		{"call the dentist. buy groceries", true},
		{"clean the garage and then i need to call mom i want to finish the report", true},
		{"i need to call mom", false}, // one restart phrase only
	}
	for _, tt := range tests {
		if got := LooksLikeBlob(tt.title); got != tt.want {
			t.Errorf("LooksLikeBlob(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestSafetySplit_TerminatorBlob(t *testing.T) {
	tasks := []Task{{
		Title:        "call the dentist. buy groceries. email the landlord",
		SegmentIndex: 0,
		SourceText:   "call the dentist. buy groceries. email the landlord",
	}}

	got := SafetySplit(context.Background(), nil, tasks)
	require.Len(t, got, 3)
	assert.Equal(t, "call the dentist", got[0].Title)
	assert.Equal(t, "buy groceries", got[1].Title)
	assert.Equal(t, "email the landlord", got[2].Title)
}

func TestSafetySplit_IntentRestart(t *testing.T) {
	tasks := []Task{{
		Title:        "clean the garage and I need to call the plumber",
		SegmentIndex: 0,
		SourceText:   "clean the garage and I need to call the plumber",
	}}

	got := SafetySplit(context.Background(), nil, tasks)
	require.Len(t, got, 2)
	assert.Equal(t, "clean the garage", got[0].Title)
	assert.Equal(t, "call the plumber", got[1].Title)
}

func TestSafetySplit_DurationFragmentRemerged(t *testing.T) {
	tasks := []Task{{
		Title:        "work on the thesis. it takes two hours",
		SegmentIndex: 0,
		SourceText:   "work on the thesis. it takes two hours",
	}}

	got := SafetySplit(context.Background(), nil, tasks)
	require.Len(t, got, 1)
	assert.Equal(t, "work on the thesis", got[0].Title)
	require.NotNil(t, got[0].DurationMinutes)
	assert.Equal(t, 120, *got[0].DurationMinutes)
}

func TestSafetySplit_ParentDurationStaysWithFirst(t *testing.T) {
	tasks := []Task{{
		Title:           "call the dentist. buy groceries",
		DurationMinutes: IntPtr(30),
		SegmentIndex:    0,
		SourceText:      "call the dentist. buy groceries",
	}}

	got := SafetySplit(context.Background(), nil, tasks)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].DurationMinutes)
	assert.Equal(t, 30, *got[0].DurationMinutes)
	assert.Nil(t, got[1].DurationMinutes)
}

func TestSafetySplit_CleanTasksUntouched(t *testing.T) {
	tasks := []Task{
		{Title: "call the dentist", SegmentIndex: 0, OrderInSegment: 0},
		{Title: "buy groceries", SegmentIndex: 1, OrderInSegment: 0},
	}

	got := SafetySplit(context.Background(), nil, tasks)
	require.Len(t, got, 2)
	assert.Equal(t, "call the dentist", got[0].Title)
	assert.Equal(t, "buy groceries", got[1].Title)
}

func TestSafetySplit_NoBlobsSurvive(t *testing.T) {
	tasks := []Task{{
		Title:        "clean the garage and then i want to call mom and then i need to finish the report",
		SegmentIndex: 0,
		SourceText:   "clean the garage and then i want to call mom and then i need to finish the report",
	}}

	got := SafetySplit(context.Background(), nil, tasks)
	require.NotEmpty(t, got)
	for _, task := range got {
		assert.False(t, LooksLikeBlob(task.Title), "blob survived: %q", task.Title)
	}
}

func TestSafetySplit_SecondChanceConnectors(t *testing.T) {
	tasks := []Task{{
		Title:        "call the plumber and email the landlord and fix the bike",
		SegmentIndex: 0,
		SourceText:   "call the plumber and email the landlord and fix the bike",
	}}

	got := SafetySplit(context.Background(), nil, tasks)
	require.Len(t, got, 3)
	assert.Equal(t, "call the plumber", got[0].Title)
	assert.Equal(t, "email the landlord", got[1].Title)
	assert.Equal(t, "fix the bike", got[2].Title)
}
