package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/classhub/classhub-lms/internal/grading"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, now: time.Now}
}

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) (Quiz, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.Normalize()
	if err := q.Validate(); err != nil {
		return Quiz{}, err
	}

	// Edit-after-attempt invariant: a quiz with attempts is immutable.
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM quiz_attempts WHERE quiz_id=$1`, q.ID).Scan(&n); err != nil {
		return Quiz{}, err
	}
	if n > 0 {
		return Quiz{}, ErrQuizLocked
	}

	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return Quiz{}, err
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = s.now().Unix()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes
		(id,course_id,title,description,questions_json,total_points,passing_score,max_attempts,time_limit_sec,created_by,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
		  course_id=EXCLUDED.course_id, title=EXCLUDED.title, description=EXCLUDED.description,
		  questions_json=EXCLUDED.questions_json, total_points=EXCLUDED.total_points,
		  passing_score=EXCLUDED.passing_score, max_attempts=EXCLUDED.max_attempts,
		  time_limit_sec=EXCLUDED.time_limit_sec`,
		q.ID, q.CourseID, q.Title, q.Description, string(qj), q.TotalPoints,
		q.PassingScore, q.MaxAttempts, q.TimeLimitSec, q.CreatedBy, q.CreatedAt)
	if err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) getQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,course_id,title,description,questions_json,
		total_points,passing_score,max_attempts,time_limit_sec,created_by,created_at
		FROM quizzes WHERE id=$1`, id)
	var q Quiz
	var qjson string
	if err := row.Scan(&q.ID, &q.CourseID, &q.Title, &q.Description, &qjson,
		&q.TotalPoints, &q.PassingScore, &q.MaxAttempts, &q.TimeLimitSec, &q.CreatedBy, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, fmt.Errorf("decode questions: %w", err)
	}
	return q, nil
}

// GetQuiz strips answer keys; students never see them.
func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	q, err := s.getQuiz(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	for i := range q.Questions {
		q.Questions[i].Key = grading.AnswerKey{}
	}
	return q, nil
}

func (s *SQLStore) GetQuizAuthor(ctx context.Context, id string) (Quiz, error) {
	return s.getQuiz(ctx, id)
}

func (s *SQLStore) ListQuizzes(ctx context.Context, opts ListOpts) ([]Quiz, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT id,course_id,title,description,total_points,passing_score,max_attempts,time_limit_sec,created_by,created_at
		FROM quizzes WHERE 1=1`
	args := []any{}
	n := 0
	if opts.CourseID != "" {
		n++
		q += fmt.Sprintf(" AND course_id=$%d", n)
		args = append(args, opts.CourseID)
	}
	if opts.Q != "" {
		n++
		q += fmt.Sprintf(" AND title LIKE $%d", n)
		args = append(args, "%"+opts.Q+"%")
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Quiz
	for rows.Next() {
		var it Quiz
		if err := rows.Scan(&it.ID, &it.CourseID, &it.Title, &it.Description,
			&it.TotalPoints, &it.PassingScore, &it.MaxAttempts, &it.TimeLimitSec, &it.CreatedBy, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLStore) StartAttempt(ctx context.Context, quizID, userID string) (Attempt, error) {
	q, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return Attempt{}, err
	}

	var used int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM quiz_attempts WHERE quiz_id=$1 AND user_id=$2`, quizID, userID).Scan(&used); err != nil {
		return Attempt{}, err
	}
	if used >= q.MaxAttempts {
		return Attempt{}, ErrAttemptLimit
	}

	a := Attempt{
		ID:            uuid.NewString(),
		QuizID:        quizID,
		UserID:        userID,
		AttemptNumber: used + 1,
		Status:        StatusInProgress,
		Answers:       make([]grading.Answer, len(q.Questions)),
		StartedAt:     s.now().Unix(),
	}
	aj, _ := json.Marshal(a.Answers)
	_, err = s.db.ExecContext(ctx, `INSERT INTO quiz_attempts
		(id,quiz_id,user_id,attempt_number,status,answers_json,graded_json,total_score,percentage,grade,passed,pending_manual,started_at)
		VALUES ($1,$2,$3,$4,$5,$6,'',0,0,'',FALSE,FALSE,$7)`,
		a.ID, a.QuizID, a.UserID, a.AttemptNumber, string(a.Status), string(aj), a.StartedAt)
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) SaveAnswers(ctx context.Context, attemptID string, answers []grading.Answer) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status.Terminal() {
		return Attempt{}, ErrAttemptClosed
	}
	q, err := s.getQuiz(ctx, a.QuizID)
	if err != nil {
		return Attempt{}, err
	}
	if len(answers) != len(q.Questions) {
		return Attempt{}, fmt.Errorf("%w: %d answers for %d questions",
			grading.ErrMalformedAttempt, len(answers), len(q.Questions))
	}
	aj, err := json.Marshal(answers)
	if err != nil {
		return Attempt{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE quiz_attempts SET answers_json=$1 WHERE id=$2 AND status=$3`,
		string(aj), attemptID, string(StatusInProgress)); err != nil {
		return Attempt{}, err
	}
	return s.GetAttempt(ctx, attemptID)
}

// Submit grades the attempt and moves it to a terminal status. The status
// guard in the UPDATE means only one grading pass can commit: a concurrent
// timeout auto-submit and a manual submit race to flip in_progress, and the
// loser's write is a no-op.
func (s *SQLStore) Submit(ctx context.Context, attemptID string) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status.Terminal() {
		return a, nil
	}
	q, err := s.getQuiz(ctx, a.QuizID)
	if err != nil {
		return Attempt{}, err
	}

	res, err := grading.GradeAttempt(q.GradingView(), a.Answers)
	if err != nil {
		return Attempt{}, err
	}

	now := s.now().Unix()
	status := StatusCompleted
	if q.TimeLimitSec > 0 && now > a.StartedAt+int64(q.TimeLimitSec) {
		status = StatusTimeout
	}

	aj, _ := json.Marshal(a.Answers)
	gj, _ := json.Marshal(res.Answers)
	r, err := s.db.ExecContext(ctx, `UPDATE quiz_attempts SET
		status=$1, answers_json=$2, graded_json=$3, total_score=$4, percentage=$5,
		grade=$6, passed=$7, pending_manual=$8, completed_at=$9, time_spent_sec=$10
		WHERE id=$11 AND status=$12`,
		string(status), string(aj), string(gj), res.TotalScore, res.Percentage,
		res.Grade, res.Passed, res.PendingManual, now, now-a.StartedAt,
		attemptID, string(StatusInProgress))
	if err != nil {
		return Attempt{}, err
	}
	if n, _ := r.RowsAffected(); n == 0 {
		// Lost the race; the committed result is authoritative.
		return s.GetAttempt(ctx, attemptID)
	}
	return s.GetAttempt(ctx, attemptID)
}

func (s *SQLStore) Abandon(ctx context.Context, attemptID string) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status.Terminal() {
		return a, nil
	}
	now := s.now().Unix()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE quiz_attempts SET status=$1, completed_at=$2, time_spent_sec=$3 WHERE id=$4 AND status=$5`,
		string(StatusAbandoned), now, now-a.StartedAt, attemptID, string(StatusInProgress)); err != nil {
		return Attempt{}, err
	}
	return s.GetAttempt(ctx, attemptID)
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,user_id,attempt_number,status,
		answers_json,graded_json,total_score,percentage,grade,passed,pending_manual,
		started_at,COALESCE(completed_at,0),COALESCE(time_spent_sec,0)
		FROM quiz_attempts WHERE id=$1`, id)
	var a Attempt
	var status, ajson, gjson string
	if err := row.Scan(&a.ID, &a.QuizID, &a.UserID, &a.AttemptNumber, &status,
		&ajson, &gjson, &a.TotalScore, &a.Percentage, &a.Grade, &a.Passed, &a.PendingManual,
		&a.StartedAt, &a.CompletedAt, &a.TimeSpentSec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	a.Status = AttemptStatus(status)
	if err := json.Unmarshal([]byte(ajson), &a.Answers); err != nil {
		return Attempt{}, fmt.Errorf("decode answers: %w", err)
	}
	if gjson != "" {
		if err := json.Unmarshal([]byte(gjson), &a.Graded); err != nil {
			return Attempt{}, fmt.Errorf("decode graded answers: %w", err)
		}
	}
	return a, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT id,quiz_id,user_id,attempt_number,status,total_score,percentage,grade,passed,pending_manual,
		started_at,COALESCE(completed_at,0),COALESCE(time_spent_sec,0)
		FROM quiz_attempts WHERE 1=1`
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		q += fmt.Sprintf(" AND %s=$%d", cond, n)
		args = append(args, v)
	}
	if opts.QuizID != "" {
		add("quiz_id", opts.QuizID)
	}
	if opts.UserID != "" {
		add("user_id", opts.UserID)
	}
	if opts.Status != "" {
		add("status", opts.Status)
	}
	q += fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attempt
	for rows.Next() {
		var a Attempt
		var status string
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &a.AttemptNumber, &status,
			&a.TotalScore, &a.Percentage, &a.Grade, &a.Passed, &a.PendingManual,
			&a.StartedAt, &a.CompletedAt, &a.TimeSpentSec); err != nil {
			return nil, err
		}
		a.Status = AttemptStatus(status)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ApplyManualGrades attaches essay scores and re-runs the full aggregation,
// so score, percentage, grade and pass state stay consistent.
func (s *SQLStore) ApplyManualGrades(ctx context.Context, attemptID string, updates map[string]ManualGradeInput, gradedBy string) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if !a.Status.Terminal() || a.Status == StatusAbandoned {
		return Attempt{}, ErrNotSubmitted
	}
	q, err := s.getQuiz(ctx, a.QuizID)
	if err != nil {
		return Attempt{}, err
	}

	for i := range q.Questions {
		in, ok := updates[q.Questions[i].ID]
		if !ok {
			continue
		}
		if q.Questions[i].Type != grading.Essay {
			return Attempt{}, fmt.Errorf("question %s is not manually graded", q.Questions[i].ID)
		}
		pts := in.Points
		a.Answers[i].ManualPoints = &pts
		a.Answers[i].ManualFeedback = in.Feedback
	}

	res, err := grading.GradeAttempt(q.GradingView(), a.Answers)
	if err != nil {
		return Attempt{}, err
	}

	aj, _ := json.Marshal(a.Answers)
	gj, _ := json.Marshal(res.Answers)
	if _, err := s.db.ExecContext(ctx, `UPDATE quiz_attempts SET
		answers_json=$1, graded_json=$2, total_score=$3, percentage=$4, grade=$5,
		passed=$6, pending_manual=$7, graded_by=$8 WHERE id=$9`,
		string(aj), string(gj), res.TotalScore, res.Percentage, res.Grade,
		res.Passed, res.PendingManual, gradedBy, attemptID); err != nil {
		return Attempt{}, err
	}
	return s.GetAttempt(ctx, attemptID)
}
