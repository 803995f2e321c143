package course

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) PutCourse(ctx context.Context, c Course) (Course, error) {
	if c.Title == "" {
		return Course{}, errors.New("title required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = s.now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO courses (id,title,description,teacher_id,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description`,
		c.ID, c.Title, c.Description, c.TeacherID, c.CreatedAt)
	if err != nil {
		return Course{}, err
	}
	return c, nil
}

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,description,teacher_id,created_at FROM courses WHERE id=$1`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.TeacherID, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrCourseNotFound
		}
		return Course{}, err
	}
	return c, nil
}

func (s *SQLStore) ListCourses(ctx context.Context, teacherID string, limit, offset int) ([]Course, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT id,title,description,teacher_id,created_at FROM courses`
	args := []any{}
	if teacherID != "" {
		q += ` WHERE teacher_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, teacherID, limit, offset)
	} else {
		q += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.TeacherID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutLesson(ctx context.Context, l Lesson) (Lesson, error) {
	if l.Title == "" {
		return Lesson{}, errors.New("title required")
	}
	if _, err := s.GetCourse(ctx, l.CourseID); err != nil {
		return Lesson{}, err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt == 0 {
		l.CreatedAt = s.now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO lessons (id,course_id,title,content,position,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, content=EXCLUDED.content, position=EXCLUDED.position`,
		l.ID, l.CourseID, l.Title, l.Content, l.Position, l.CreatedAt)
	if err != nil {
		return Lesson{}, err
	}
	return l, nil
}

func (s *SQLStore) GetLesson(ctx context.Context, id string) (Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,course_id,title,content,position,created_at FROM lessons WHERE id=$1`, id)
	var l Lesson
	if err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.Position, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lesson{}, ErrLessonNotFound
		}
		return Lesson{}, err
	}
	return l, nil
}

func (s *SQLStore) ListLessons(ctx context.Context, courseID string) ([]Lesson, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,course_id,title,content,position,created_at FROM lessons
		 WHERE course_id=$1 ORDER BY position ASC, created_at ASC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.Position, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) Enroll(ctx context.Context, courseID, userID string) error {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO enrollments (course_id,user_id,enrolled_at)
		VALUES ($1,$2,$3) ON CONFLICT (course_id,user_id) DO NOTHING`,
		courseID, userID, s.now().Unix())
	return err
}

func (s *SQLStore) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM enrollments WHERE course_id=$1 AND user_id=$2`,
		courseID, userID).Scan(&n)
	return n > 0, err
}

func (s *SQLStore) ListEnrollments(ctx context.Context, courseID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM enrollments WHERE course_id=$1 ORDER BY enrolled_at ASC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
