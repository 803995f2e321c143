package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/classhub/classhub-lms/internal/grading"
)

type SQLStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, now: time.Now}
}

func (s *SQLStore) PutAssignment(ctx context.Context, a Assignment) (Assignment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := a.Validate(); err != nil {
		return Assignment{}, err
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = s.now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO assignments
		(id,course_id,title,instructions,total_points,passing_score,due_at,late_penalty_pct,attachment_key,created_by,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
		  course_id=EXCLUDED.course_id, title=EXCLUDED.title, instructions=EXCLUDED.instructions,
		  total_points=EXCLUDED.total_points, passing_score=EXCLUDED.passing_score, due_at=EXCLUDED.due_at,
		  late_penalty_pct=EXCLUDED.late_penalty_pct, attachment_key=EXCLUDED.attachment_key`,
		a.ID, a.CourseID, a.Title, a.Instructions, a.TotalPoints, a.PassingScore,
		a.DueAt, a.LatePenaltyPct, a.AttachmentKey, a.CreatedBy, a.CreatedAt)
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (s *SQLStore) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,course_id,title,instructions,total_points,passing_score,
		due_at,late_penalty_pct,attachment_key,created_by,created_at FROM assignments WHERE id=$1`, id)
	var a Assignment
	if err := row.Scan(&a.ID, &a.CourseID, &a.Title, &a.Instructions, &a.TotalPoints, &a.PassingScore,
		&a.DueAt, &a.LatePenaltyPct, &a.AttachmentKey, &a.CreatedBy, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, ErrAssignmentNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}

func (s *SQLStore) ListAssignments(ctx context.Context, courseID string, limit, offset int) ([]Assignment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT id,course_id,title,instructions,total_points,passing_score,due_at,late_penalty_pct,attachment_key,created_by,created_at
		FROM assignments`
	args := []any{}
	if courseID != "" {
		q += ` WHERE course_id=$1 ORDER BY due_at ASC LIMIT $2 OFFSET $3`
		args = append(args, courseID, limit, offset)
	} else {
		q += ` ORDER BY due_at ASC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.CourseID, &a.Title, &a.Instructions, &a.TotalPoints, &a.PassingScore,
			&a.DueAt, &a.LatePenaltyPct, &a.AttachmentKey, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SubmitWork records a submission, replacing an earlier ungraded one from the
// same student. Graded submissions are terminal.
func (s *SQLStore) SubmitWork(ctx context.Context, assignmentID, userID, content, attachmentKey string) (Submission, error) {
	if _, err := s.GetAssignment(ctx, assignmentID); err != nil {
		return Submission{}, err
	}

	var existingID, status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id,status FROM submissions WHERE assignment_id=$1 AND user_id=$2`,
		assignmentID, userID).Scan(&existingID, &status)
	switch {
	case err == nil:
		if SubmissionStatus(status) == StatusGraded {
			return Submission{}, ErrAlreadyGraded
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE submissions SET content=$1, attachment_key=$2, submitted_at=$3 WHERE id=$4`,
			content, attachmentKey, s.now().Unix(), existingID); err != nil {
			return Submission{}, err
		}
		return s.GetSubmission(ctx, existingID)
	case errors.Is(err, sql.ErrNoRows):
		sub := Submission{
			ID:            uuid.NewString(),
			AssignmentID:  assignmentID,
			UserID:        userID,
			Content:       content,
			AttachmentKey: attachmentKey,
			Status:        StatusSubmitted,
			SubmittedAt:   s.now().Unix(),
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO submissions
			(id,assignment_id,user_id,content,attachment_key,status,submitted_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			sub.ID, sub.AssignmentID, sub.UserID, sub.Content, sub.AttachmentKey,
			string(sub.Status), sub.SubmittedAt); err != nil {
			return Submission{}, err
		}
		return sub, nil
	default:
		return Submission{}, err
	}
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,assignment_id,user_id,content,attachment_key,status,submitted_at,
		score,raw_percentage,penalty_pct,percentage,grade,passed,feedback,graded_by,COALESCE(graded_at,0)
		FROM submissions WHERE id=$1`, id)
	var sub Submission
	var status string
	if err := row.Scan(&sub.ID, &sub.AssignmentID, &sub.UserID, &sub.Content, &sub.AttachmentKey, &status,
		&sub.SubmittedAt, &sub.Score, &sub.RawPercentage, &sub.PenaltyPct, &sub.Percentage,
		&sub.Grade, &sub.Passed, &sub.Feedback, &sub.GradedBy, &sub.GradedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrSubmissionNotFound
		}
		return Submission{}, err
	}
	sub.Status = SubmissionStatus(status)
	return sub, nil
}

func (s *SQLStore) ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]Submission, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT id,assignment_id,user_id,content,attachment_key,status,submitted_at,
		score,raw_percentage,penalty_pct,percentage,grade,passed,feedback,graded_by,COALESCE(graded_at,0)
		FROM submissions WHERE 1=1`
	args := []any{}
	n := 0
	add := func(col string, v any) {
		n++
		q += fmt.Sprintf(" AND %s=$%d", col, n)
		args = append(args, v)
	}
	if opts.AssignmentID != "" {
		add("assignment_id", opts.AssignmentID)
	}
	if opts.UserID != "" {
		add("user_id", opts.UserID)
	}
	if opts.Status != "" {
		add("status", opts.Status)
	}
	q += fmt.Sprintf(" ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Submission
	for rows.Next() {
		var sub Submission
		var status string
		if err := rows.Scan(&sub.ID, &sub.AssignmentID, &sub.UserID, &sub.Content, &sub.AttachmentKey, &status,
			&sub.SubmittedAt, &sub.Score, &sub.RawPercentage, &sub.PenaltyPct, &sub.Percentage,
			&sub.Grade, &sub.Passed, &sub.Feedback, &sub.GradedBy, &sub.GradedAt); err != nil {
			return nil, err
		}
		sub.Status = SubmissionStatus(status)
		out = append(out, sub)
	}
	return out, rows.Err()
}

// GradeSubmission applies the raw score, deducts the late penalty, and maps
// the adjusted percentage through the shared letter table. Re-grading is
// allowed and recomputes everything from the stored timestamps.
func (s *SQLStore) GradeSubmission(ctx context.Context, submissionID string, points float64, feedback, gradedBy string) (Submission, error) {
	sub, err := s.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	a, err := s.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if points < 0 {
		points = 0
	}
	if points > a.TotalPoints {
		points = a.TotalPoints
	}

	res := grading.ScoreSubmission(points, a.TotalPoints,
		time.Unix(a.DueAt, 0), time.Unix(sub.SubmittedAt, 0),
		a.LatePenaltyPct, a.PassingScore)

	if _, err := s.db.ExecContext(ctx, `UPDATE submissions SET
		status=$1, score=$2, raw_percentage=$3, penalty_pct=$4, percentage=$5,
		grade=$6, passed=$7, feedback=$8, graded_by=$9, graded_at=$10 WHERE id=$11`,
		string(StatusGraded), points, res.RawPercentage, res.PenaltyPct, res.Percentage,
		res.Grade, res.Passed, feedback, gradedBy, s.now().Unix(), submissionID); err != nil {
		return Submission{}, err
	}
	return s.GetSubmission(ctx, submissionID)
}
