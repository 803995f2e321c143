package assignment

import (
	"context"
	"errors"
)

// Assignment is teacher-authored work graded by hand; scoring applies the
// shared letter table after a late-penalty deduction.
type Assignment struct {
	ID             string  `json:"id"`
	CourseID       string  `json:"course_id,omitempty"`
	Title          string  `json:"title"`
	Instructions   string  `json:"instructions,omitempty"`
	TotalPoints    float64 `json:"total_points"`
	PassingScore   float64 `json:"passing_score"`
	DueAt          int64   `json:"due_at"`
	LatePenaltyPct float64 `json:"late_penalty_pct"` // cap on the 5%/day escalation
	AttachmentKey  string  `json:"attachment_key,omitempty"`
	CreatedBy      string  `json:"created_by,omitempty"`
	CreatedAt      int64   `json:"created_at,omitempty"`
}

func (a *Assignment) Validate() error {
	if a.Title == "" {
		return errors.New("title required")
	}
	if a.TotalPoints < 1 {
		return errors.New("total points must be >= 1")
	}
	if a.DueAt == 0 {
		return errors.New("due date required")
	}
	if a.LatePenaltyPct < 0 || a.LatePenaltyPct > 100 {
		return errors.New("late penalty must be 0..100")
	}
	return nil
}

type SubmissionStatus string

const (
	StatusSubmitted SubmissionStatus = "submitted"
	StatusGraded    SubmissionStatus = "graded"
)

// Submission is one student's turned-in work. Scoring fields are populated
// when a teacher grades it.
type Submission struct {
	ID            string           `json:"id"`
	AssignmentID  string           `json:"assignment_id"`
	UserID        string           `json:"user_id"`
	Content       string           `json:"content,omitempty"`
	AttachmentKey string           `json:"attachment_key,omitempty"`
	Status        SubmissionStatus `json:"status"`
	SubmittedAt   int64            `json:"submitted_at"`
	Score         float64          `json:"score"`
	RawPercentage float64          `json:"raw_percentage"`
	PenaltyPct    float64          `json:"penalty_pct"`
	Percentage    float64          `json:"percentage"`
	Grade         string           `json:"grade,omitempty"`
	Passed        bool             `json:"passed"`
	Feedback      string           `json:"feedback,omitempty"`
	GradedBy      string           `json:"graded_by,omitempty"`
	GradedAt      int64            `json:"graded_at,omitempty"`
}

var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrAlreadyGraded: graded submissions are terminal; no resubmission.
	ErrAlreadyGraded = errors.New("submission already graded")
)

type SubmissionListOpts struct {
	AssignmentID string
	UserID       string
	Status       string
	Limit        int
	Offset       int
}

// Store persists assignments and submissions. Grading a submission computes
// the late-penalty-adjusted percentage from the assignment's due date and the
// submission's timestamp.
type Store interface {
	PutAssignment(ctx context.Context, a Assignment) (Assignment, error)
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	ListAssignments(ctx context.Context, courseID string, limit, offset int) ([]Assignment, error)

	SubmitWork(ctx context.Context, assignmentID, userID, content, attachmentKey string) (Submission, error)
	GetSubmission(ctx context.Context, id string) (Submission, error)
	ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]Submission, error)
	GradeSubmission(ctx context.Context, submissionID string, points float64, feedback, gradedBy string) (Submission, error)
}
