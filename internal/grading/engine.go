package grading

import (
	"errors"
	"fmt"
	"strings"
)

// Quiz is a minimal view of a quiz needed for grading.
// Keep this in sync with whatever fields your store uses.
type Quiz struct {
	Questions    []Question
	TotalPoints  float64
	PassingScore float64 // 0..100
}

// ErrMalformedAttempt is returned when an answer sequence does not line up
// with the quiz's question sequence, or an answer's shape does not match its
// question's declared type. The engine never guesses at malformed input.
var ErrMalformedAttempt = errors.New("malformed attempt")

func malformed(idx int, reason string) error {
	return fmt.Errorf("%w: question %d: %s", ErrMalformedAttempt, idx, reason)
}

// strategy decides correctness for one auto-gradable question type.
type strategy interface {
	grade(idx int, q Question, a Answer) (bool, error)
}

var strategies = map[QuestionType]strategy{
	SingleChoice: selectionStrategy{},
	MultiChoice:  selectionStrategy{},
	TrueFalse:    trueFalseStrategy{},
	ShortAnswer:  shortAnswerStrategy{},
	Matching:     matchingStrategy{},
	FillBlank:    fillBlankStrategy{},
}

// GradeAttempt grades answers against quiz, one answer per question index.
// It is a pure function: recomputing from the same inputs yields the same
// GradedAttempt, and a re-run after manual essay scores recomputes the whole
// aggregate rather than patching one field.
func GradeAttempt(quiz Quiz, answers []Answer) (GradedAttempt, error) {
	if len(answers) != len(quiz.Questions) {
		return GradedAttempt{}, fmt.Errorf("%w: %d answers for %d questions",
			ErrMalformedAttempt, len(answers), len(quiz.Questions))
	}

	out := GradedAttempt{Answers: make([]GradedAnswer, len(answers))}
	for i, q := range quiz.Questions {
		ga, err := gradeOne(i, q, answers[i])
		if err != nil {
			return GradedAttempt{}, err
		}
		out.Answers[i] = ga
		out.TotalScore += ga.PointsEarned
		if ga.PendingManual {
			out.PendingManual = true
		}
	}

	// Guard: a zero-point quiz grades to 0% rather than NaN.
	if quiz.TotalPoints > 0 {
		out.Percentage = out.TotalScore / quiz.TotalPoints * 100
		out.Passed = out.Percentage >= quiz.PassingScore
	}
	out.Grade = Letter(out.Percentage)
	return out, nil
}

func gradeOne(idx int, q Question, a Answer) (GradedAnswer, error) {
	if a.variantCount() > 1 {
		return GradedAnswer{}, malformed(idx, "multiple response variants")
	}

	if q.Type == Essay {
		return gradeEssay(q, a), nil
	}

	if a.Empty() {
		// Unanswered is not an error: incorrect, zero points.
		return GradedAnswer{IsCorrect: boolPtr(false)}, nil
	}

	s, ok := strategies[q.Type]
	if !ok {
		return GradedAnswer{}, malformed(idx, "unknown question type "+string(q.Type))
	}
	correct, err := s.grade(idx, q, a)
	if err != nil {
		return GradedAnswer{}, err
	}
	ga := GradedAnswer{IsCorrect: boolPtr(correct)}
	if correct {
		ga.PointsEarned = q.Points
	}
	return ga, nil
}

// gradeEssay leaves IsCorrect nil; points come only from a human grader.
func gradeEssay(q Question, a Answer) GradedAnswer {
	if a.Empty() && a.ManualPoints == nil {
		return GradedAnswer{IsCorrect: boolPtr(false)}
	}
	ga := GradedAnswer{Feedback: a.ManualFeedback}
	if a.ManualPoints == nil {
		ga.PendingManual = true
		return ga
	}
	pts := *a.ManualPoints
	if pts < 0 {
		pts = 0
	}
	if pts > q.Points {
		pts = q.Points
	}
	ga.PointsEarned = pts
	return ga
}

// --- Strategies ---

// selectionStrategy scores single and multi choice by exact set equality
// against the key. Order and duplicates in the selection are irrelevant;
// extra or missing picks mean zero credit.
type selectionStrategy struct{}

func (selectionStrategy) grade(idx int, q Question, a Answer) (bool, error) {
	sel, err := selectedSet(idx, q, a)
	if err != nil {
		return false, err
	}
	return setEqual(sel, toSet(q.Key.Correct)), nil
}

type trueFalseStrategy struct{}

func (trueFalseStrategy) grade(idx int, q Question, a Answer) (bool, error) {
	sel, err := selectedSet(idx, q, a)
	if err != nil {
		return false, err
	}
	if len(sel) != 1 {
		return false, malformed(idx, "true/false expects exactly one selection")
	}
	if len(q.Key.Correct) == 0 {
		return false, nil
	}
	_, ok := sel[q.Key.Correct[0]]
	return ok, nil
}

// shortAnswerStrategy is a trimmed, case-insensitive exact match. No fuzzy
// or partial matching.
type shortAnswerStrategy struct{}

func (shortAnswerStrategy) grade(idx int, q Question, a Answer) (bool, error) {
	if a.Text == nil {
		return false, malformed(idx, "short answer expects a text response")
	}
	got := strings.TrimSpace(a.Text.Text)
	want := strings.TrimSpace(q.Key.Text)
	return strings.EqualFold(got, want), nil
}

// matchingStrategy requires every left item mapped to its keyed right item.
// All pairs must match for credit.
type matchingStrategy struct{}

func (matchingStrategy) grade(idx int, q Question, a Answer) (bool, error) {
	if a.Matching == nil {
		return false, malformed(idx, "matching expects index pairs")
	}
	got := map[int]int{}
	for _, p := range a.Matching.Pairs {
		if p.Left < 0 || p.Left >= len(q.Key.Pairs) || p.Right < 0 {
			return false, malformed(idx, "pair index out of range")
		}
		if _, dup := got[p.Left]; dup {
			return false, malformed(idx, "duplicate left index")
		}
		got[p.Left] = p.Right
	}
	if len(got) != len(q.Key.Pairs) {
		return false, nil
	}
	for _, k := range q.Key.Pairs {
		r, ok := got[k.Left]
		if !ok || r != k.Right {
			return false, nil
		}
	}
	return true, nil
}

// fillBlankStrategy requires every blank to match its reference, each blank
// honoring its own case-sensitivity flag. All blanks or nothing.
type fillBlankStrategy struct{}

func (fillBlankStrategy) grade(idx int, q Question, a Answer) (bool, error) {
	if a.FillBlank == nil {
		return false, malformed(idx, "fill-blank expects per-blank strings")
	}
	if len(a.FillBlank.Blanks) != len(q.Key.Blanks) {
		return false, malformed(idx, "blank count mismatch")
	}
	for i, k := range q.Key.Blanks {
		got := strings.TrimSpace(a.FillBlank.Blanks[i])
		want := strings.TrimSpace(k.Answer)
		if k.CaseSensitive {
			if got != want {
				return false, nil
			}
		} else if !strings.EqualFold(got, want) {
			return false, nil
		}
	}
	return true, nil
}

// helpers

func selectedSet(idx int, q Question, a Answer) (map[int]struct{}, error) {
	if a.Selection == nil {
		return nil, malformed(idx, "expected option selection")
	}
	set := make(map[int]struct{}, len(a.Selection.Selected))
	for _, n := range a.Selection.Selected {
		if n < 0 || (len(q.Options) > 0 && n >= len(q.Options)) {
			return nil, malformed(idx, "option index out of range")
		}
		set[n] = struct{}{}
	}
	return set, nil
}

func toSet(arr []int) map[int]struct{} {
	m := make(map[int]struct{}, len(arr))
	for _, n := range arr {
		m[n] = struct{}{}
	}
	return m
}

func setEqual(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func boolPtr(b bool) *bool { return &b }
