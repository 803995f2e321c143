package grading

import (
	"testing"
	"time"
)

func TestDaysLate(t *testing.T) {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		at   time.Time
		want int
	}{
		{"early", due.Add(-time.Hour), 0},
		{"on time", due, 0},
		{"one minute late", due.Add(time.Minute), 1},
		{"just under a day", due.Add(23 * time.Hour), 1},
		{"exactly one day", due.Add(24 * time.Hour), 1},
		{"a day and a second", due.Add(24*time.Hour + time.Second), 2},
		{"ten days", due.Add(10 * 24 * time.Hour), 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysLate(due, tc.at); got != tc.want {
				t.Fatalf("DaysLate = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestLatePenaltyCap(t *testing.T) {
	// Due 2024-01-01, cap 20%, submitted 10 days late: min(20, 10*5) = 20.
	if got := LatePenalty(20, 10); got != 20 {
		t.Fatalf("penalty = %v, want 20", got)
	}
	if got := LatePenalty(20, 2); got != 10 {
		t.Fatalf("penalty = %v, want 10", got)
	}
	if got := LatePenalty(20, 0); got != 0 {
		t.Fatalf("penalty = %v, want 0", got)
	}
}

func TestScoreSubmission(t *testing.T) {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	res := ScoreSubmission(90, 100, due, due.Add(48*time.Hour), 20, 60)
	if res.RawPercentage != 90 || res.PenaltyPct != 10 || res.Percentage != 80 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Grade != "B-" || !res.Passed {
		t.Fatalf("grade/pass wrong: %+v", res)
	}

	// Penalty can drive the percentage to the floor but never below 0.
	res = ScoreSubmission(5, 100, due, due.Add(30*24*time.Hour), 100, 60)
	if res.Percentage != 0 || res.Grade != "F" || res.Passed {
		t.Fatalf("floor not applied: %+v", res)
	}

	// Zero-total guard mirrors the quiz path.
	res = ScoreSubmission(0, 0, due, due, 20, 0)
	if res.Percentage != 0 || res.Grade != "F" || res.Passed {
		t.Fatalf("zero-total guard failed: %+v", res)
	}
}
