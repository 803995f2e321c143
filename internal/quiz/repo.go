package quiz

import (
	"context"
	"errors"

	"github.com/classhub/classhub-lms/internal/grading"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrAttemptNotFound = errors.New("attempt not found")

	// ErrQuizLocked: editing is forbidden once any attempt exists.
	ErrQuizLocked = errors.New("quiz has attempts and can no longer be edited")

	// ErrAttemptLimit: the student has used all allowed attempts.
	ErrAttemptLimit = errors.New("attempt limit reached")

	// ErrAttemptClosed: the attempt is terminal and cannot take answers.
	ErrAttemptClosed = errors.New("attempt is no longer in progress")

	// ErrNotSubmitted: manual grading needs a submitted attempt.
	ErrNotSubmitted = errors.New("attempt not submitted")
)

type ListOpts struct {
	CourseID string
	Q        string // title substring filter
	Limit    int
	Offset   int
}

type AttemptListOpts struct {
	QuizID string
	UserID string
	Status string
	Limit  int
	Offset int
}

// ManualGradeInput is a human grader's score for one essay answer.
type ManualGradeInput struct {
	Points   float64 `json:"points"`
	Feedback string  `json:"feedback,omitempty"`
}

// Store persists quizzes and attempts and owns the attempt lifecycle policy:
// attempt counting, edit-after-attempt locking, time-limit timeout, and the
// at-most-one-committed-grading guarantee (via the in-progress status guard).
// Grading itself is delegated to the grading package on submit.
type Store interface {
	PutQuiz(ctx context.Context, q Quiz) (Quiz, error)
	GetQuiz(ctx context.Context, id string) (Quiz, error)       // student-safe: answer keys stripped
	GetQuizAuthor(ctx context.Context, id string) (Quiz, error) // full quiz, for teachers/grading
	ListQuizzes(ctx context.Context, opts ListOpts) ([]Quiz, error)

	StartAttempt(ctx context.Context, quizID, userID string) (Attempt, error)
	SaveAnswers(ctx context.Context, attemptID string, answers []grading.Answer) (Attempt, error)
	Submit(ctx context.Context, attemptID string) (Attempt, error)
	Abandon(ctx context.Context, attemptID string) (Attempt, error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)

	// ApplyManualGrades records essay scores keyed by question ID and
	// re-runs the full grading aggregation.
	ApplyManualGrades(ctx context.Context, attemptID string, updates map[string]ManualGradeInput, gradedBy string) (Attempt, error)
}
