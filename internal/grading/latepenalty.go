package grading

import "time"

// lateRatePerDay is the percentage-point deduction per calendar day late.
// The assignment's own LatePenaltyPct acts as a cap on the escalation.
const lateRatePerDay = 5.0

// DaysLate is the ceiling of the elapsed time past the due date in days.
// On-time or early submissions are 0 days late.
func DaysLate(dueAt, submittedAt time.Time) int {
	if !submittedAt.After(dueAt) {
		return 0
	}
	elapsed := submittedAt.Sub(dueAt)
	days := int(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// LatePenalty is the effective deduction in percentage points:
// min(capPct, daysLate * 5).
func LatePenalty(capPct float64, daysLate int) float64 {
	p := float64(daysLate) * lateRatePerDay
	if p > capPct {
		p = capPct
	}
	if p < 0 {
		p = 0
	}
	return p
}

// SubmissionResult is the scored outcome of one assignment submission.
type SubmissionResult struct {
	RawPercentage float64 `json:"raw_percentage"`
	PenaltyPct    float64 `json:"penalty_pct"`
	Percentage    float64 `json:"percentage"`
	Grade         string  `json:"grade"`
	Passed        bool    `json:"passed"`
}

// ScoreSubmission computes the late-penalty-adjusted percentage and letter
// for an assignment submission. The same zero-total guard as quizzes applies.
func ScoreSubmission(points, totalPoints float64, dueAt, submittedAt time.Time, latePenaltyCap, passingScore float64) SubmissionResult {
	var res SubmissionResult
	if totalPoints > 0 {
		res.RawPercentage = points / totalPoints * 100
	}
	res.PenaltyPct = LatePenalty(latePenaltyCap, DaysLate(dueAt, submittedAt))
	res.Percentage = res.RawPercentage - res.PenaltyPct
	if res.Percentage < 0 {
		res.Percentage = 0
	}
	res.Grade = Letter(res.Percentage)
	res.Passed = totalPoints > 0 && res.Percentage >= passingScore
	return res
}
