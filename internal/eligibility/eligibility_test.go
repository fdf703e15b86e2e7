package eligibility

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  Classification
	}{
		{"empty", "", Eligible},
		{"whitespace only", "   ", Eligible},
		{"future date", "2099-07-01", Eligible},
		{"future date range", "2099-07-01 to 2099-07-08", Eligible},
		{"past date", "2001-01-01", Ineligible},
		{"past date range", "2001-01-01 to 2099-01-01", Ineligible},
		{"next month", "next month", Eligible},
		{"case insensitive next", "NEXT Summer", Eligible},
		{"contains for", "A week for Paris", Eligible},
		{"unparseable", "xyz123", Unknown},
		{"garbage words", "sometime soon", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.input, now); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsEligible_FailOpen(t *testing.T) {
	now := time.Now()

	if !IsEligible("xyz123", now) {
		t.Error("expected unparseable travel dates to be eligible")
	}
	if !IsEligible("", now) {
		t.Error("expected missing travel dates to be eligible")
	}
	if IsEligible("2001-01-01", now) {
		t.Error("expected past date to be ineligible")
	}
}

func TestClassify_StrictlyAfterNow(t *testing.T) {
	// Dates are parsed in the local zone; the same instant is not "after".
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.Local)

	if got := Classify("2030-01-01", now); got != Ineligible {
		t.Errorf("Classify at the same instant = %v, want %v", got, Ineligible)
	}
}

func TestFilter(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	items := []string{"2001-01-01", "", "next week", "2099-01-01", "xyz"}

	got := Filter(items, now, func(s string) string { return s })
	want := []string{"", "next week", "2099-01-01", "xyz"}

	if len(got) != len(want) {
		t.Fatalf("Filter returned %d items, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClassification_String(t *testing.T) {
	if Eligible.String() != "eligible" || Ineligible.String() != "ineligible" || Unknown.String() != "unknown" {
		t.Error("unexpected Classification string values")
	}
}
