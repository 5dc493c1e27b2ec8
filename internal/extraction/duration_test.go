package extraction

import "testing"

func TestFindDuration(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
		ok   bool
	}{
		{"for with word number", "work on the podcast for two hours", 120, true},
		{"for with digits", "review the slides for 45 minutes", 45, true},
		{"takes form", "buy groceries, that takes 30 minutes", 30, true},
		{"will take", "it will take one hour", 60, true},
		{"article as one", "write the intro for an hour", 60, true},
		{"half an hour", "walk the dog for half an hour", 30, true},
		{"abbreviated units", "stretch for 10 mins", 10, true},
		{"takes preferred over for", "prepare for the exam, that takes three hours", 180, true},
		{"no duration", "call the plumber", 0, false},
		{"bare number no unit", "call 30 people", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindDuration(tt.text)
			if ok != tt.ok {
				t.Fatalf("FindDuration(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && *got != tt.want {
				t.Errorf("FindDuration(%q) = %d, want %d", tt.text, *got, tt.want)
			}
		})
	}
}

func TestExtractDuration(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantMinutes int
		wantCleaned string
		ok          bool
	}{
		{
			name:        "for phrase stripped",
			text:        "work on the website for three hours",
			wantMinutes: 180,
			wantCleaned: "work on the website",
			ok:          true,
		},
		{
			name:        "takes phrase stripped with dangling connective",
			text:        "clean the garage and that takes two hours",
			wantMinutes: 120,
			wantCleaned: "clean the garage",
			ok:          true,
		},
		{
			name:        "no duration leaves text alone",
			text:        "call the dentist",
			wantMinutes: 0,
			wantCleaned: "call the dentist",
			ok:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minutes, cleaned, ok := ExtractDuration(tt.text)
			if ok != tt.ok {
				t.Fatalf("ExtractDuration(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && *minutes != tt.wantMinutes {
				t.Errorf("minutes = %d, want %d", *minutes, tt.wantMinutes)
			}
			if cleaned != tt.wantCleaned {
				t.Errorf("cleaned = %q, want %q", cleaned, tt.wantCleaned)
			}
		})
	}
}

func TestIsStandaloneDuration(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"three hours", true},
		{"three hours.", true},
		{"it takes two hours", true},
		{"that will take 45 minutes", true},
		{"about an hour", true},
		{"work for three hours", false},
		{"three hours of sleep", false},
		{"call mom", false},
	}
	for _, tt := range tests {
		if got := IsStandaloneDuration(tt.text); got != tt.want {
			t.Errorf("IsStandaloneDuration(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestStandaloneDurationMinutes(t *testing.T) {
	minutes, ok := StandaloneDurationMinutes("it takes two hours.")
	if !ok {
		t.Fatal("StandaloneDurationMinutes() ok = false, want true")
	}
	if *minutes != 120 {
		t.Errorf("minutes = %d, want 120", *minutes)
	}

	if _, ok := StandaloneDurationMinutes("work on the site"); ok {
		t.Error("StandaloneDurationMinutes() matched a non-duration clause")
	}
}

func TestStripDurations(t *testing.T) {
	got := StripDurations("work on the podcast for two hours and on the website for three hours")
	want := "work on the podcast and on the website"
	if got != want {
		t.Errorf("StripDurations() = %q, want %q", got, want)
	}
}
