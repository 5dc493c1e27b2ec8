package extraction

import (
	"reflect"
	"testing"
)

func TestExpandTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{
			name:  "no connectors",
			title: "buy groceries",
			want:  []string{"buy groceries"},
		},
		{
			name:  "or branches split",
			title: "call Oliver and Roberta or write them per WhatsApp and work on podcast",
			want:  []string{"call Oliver and Roberta", "write them per WhatsApp", "work on podcast"},
		},
		{
			name:  "and with new action verb",
			title: "clean the kitchen and fix the bike",
			want:  []string{"clean the kitchen", "fix the bike"},
		},
		{
			name:  "and with continuation word stays whole",
			title: "call Tom and tell him about the plan",
			want:  []string{"call Tom and tell him about the plan"},
		},
		{
			name:  "elided verb carried onto preposition clause",
			title: "work on the podcast for two hours and on the website for three hours",
			want:  []string{"work on the podcast for two hours", "work on the website for three hours"},
		},
		{
			name:  "contact list with comma expands",
			title: "call Tom, Alice and Bob",
			want:  []string{"call Tom", "call Alice", "call Bob"},
		},
		{
			name:  "two names without comma stay one task",
			title: "call Oliver and Roberta",
			want:  []string{"call Oliver and Roberta"},
		},
		{
			name:  "contact list rejected when names carry verbs",
			title: "call Tom, buy milk and Bob",
			want:  []string{"call Tom, buy milk and Bob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandTitle(tt.title)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExpandTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestContainsConnector(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"call mom and email bob", true},
		{"finish the report or ask for an extension", true},
		{"buy groceries", false},
		{"sand the door", false},
	}
	for _, tt := range tests {
		if got := ContainsConnector(tt.title); got != tt.want {
			t.Errorf("ContainsConnector(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestStartsNewAction(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"call", true},
		{"on", true},
		{"to", true},
		{"tell", false},
		{"them", false},
		{"Roberta", false},
	}
	for _, tt := range tests {
		if got := startsNewAction(tt.word); got != tt.want {
			t.Errorf("startsNewAction(%q) = %v, want %v", tt.word, got, tt.want)
		}
	}
}
