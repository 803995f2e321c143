package course

import (
	"context"
	"errors"
)

type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	TeacherID   string `json:"teacher_id"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}

type Lesson struct {
	ID        string `json:"id"`
	CourseID  string `json:"course_id"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Position  int    `json:"position"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
)

// Store persists course content and enrollment.
type Store interface {
	PutCourse(ctx context.Context, c Course) (Course, error)
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context, teacherID string, limit, offset int) ([]Course, error)

	PutLesson(ctx context.Context, l Lesson) (Lesson, error)
	GetLesson(ctx context.Context, id string) (Lesson, error)
	ListLessons(ctx context.Context, courseID string) ([]Lesson, error)

	Enroll(ctx context.Context, courseID, userID string) error
	IsEnrolled(ctx context.Context, courseID, userID string) (bool, error)
	ListEnrollments(ctx context.Context, courseID string) ([]string, error)
}
