package quiz

import (
	"errors"
	"fmt"

	"github.com/classhub/classhub-lms/internal/grading"
)

// Quiz is an instructor-authored quiz definition. Questions embed their
// answer keys; stores strip keys before serving to students.
type Quiz struct {
	ID           string             `json:"id"`
	CourseID     string             `json:"course_id,omitempty"`
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	Questions    []grading.Question `json:"questions"`
	TotalPoints  float64            `json:"total_points"`
	PassingScore float64            `json:"passing_score"`  // 0..100
	MaxAttempts  int                `json:"max_attempts"`   // >= 1
	TimeLimitSec int                `json:"time_limit_sec"` // 0 = unlimited
	CreatedBy    string             `json:"created_by,omitempty"`
	CreatedAt    int64              `json:"created_at,omitempty"`
}

// RecomputeTotalPoints keeps TotalPoints in sync with the question list.
// Called whenever questions change.
func (q *Quiz) RecomputeTotalPoints() {
	sum := 0.0
	for _, qu := range q.Questions {
		sum += qu.Points
	}
	q.TotalPoints = sum
}

// Normalize recomputes derived fields and applies authoring defaults.
func (q *Quiz) Normalize() {
	q.RecomputeTotalPoints()
	if q.MaxAttempts < 1 {
		q.MaxAttempts = 1
	}
}

// Validate checks authoring invariants before a quiz is stored.
func (q *Quiz) Validate() error {
	if q.Title == "" {
		return errors.New("title required")
	}
	if len(q.Questions) == 0 {
		return errors.New("at least one question required")
	}
	if q.TotalPoints < 1 {
		return errors.New("total points must be >= 1")
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		return errors.New("passing score must be 0..100")
	}
	for i, qu := range q.Questions {
		if qu.Points < 0 {
			return fmt.Errorf("question %d: negative points", i)
		}
		if qu.Type == "" {
			return fmt.Errorf("question %d: type required", i)
		}
	}
	return nil
}

// GradingView is the engine's read of this quiz.
func (q *Quiz) GradingView() grading.Quiz {
	return grading.Quiz{
		Questions:    q.Questions,
		TotalPoints:  q.TotalPoints,
		PassingScore: q.PassingScore,
	}
}

type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "in_progress"
	StatusCompleted  AttemptStatus = "completed"
	StatusAbandoned  AttemptStatus = "abandoned"
	StatusTimeout    AttemptStatus = "timeout"
)

// Terminal reports whether the attempt can no longer accept answers.
func (s AttemptStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned || s == StatusTimeout
}

// Attempt is one student's pass at a quiz. Answers is index-aligned with the
// quiz's questions; Graded and the aggregate fields are engine output,
// populated on submission.
type Attempt struct {
	ID            string                 `json:"id"`
	QuizID        string                 `json:"quiz_id"`
	UserID        string                 `json:"user_id"`
	AttemptNumber int                    `json:"attempt_number"` // 1-based, unique per user+quiz
	Status        AttemptStatus          `json:"status"`
	Answers       []grading.Answer       `json:"answers"`
	Graded        []grading.GradedAnswer `json:"graded,omitempty"`
	TotalScore    float64                `json:"total_score"`
	Percentage    float64                `json:"percentage"`
	Grade         string                 `json:"grade,omitempty"`
	Passed        bool                   `json:"passed"`
	PendingManual bool                   `json:"pending_manual,omitempty"`
	StartedAt     int64                  `json:"started_at"`
	CompletedAt   int64                  `json:"completed_at,omitempty"`
	TimeSpentSec  int64                  `json:"time_spent_sec,omitempty"`
}
