package grading

import "testing"

func TestLetterBoundaries(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{100, "A+"},
		{97, "A+"},
		{96.99, "A"},
		{93, "A"},
		{90, "A-"},
		{89.99, "B+"},
		{87, "B+"},
		{83, "B"},
		{80, "B-"},
		{77, "C+"},
		{73, "C"},
		{70, "C-"},
		{67, "D+"},
		{63, "D"},
		{60, "D-"},
		{59.99, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		if got := Letter(tc.pct); got != tc.want {
			t.Errorf("Letter(%v) = %q, want %q", tc.pct, got, tc.want)
		}
	}
}
