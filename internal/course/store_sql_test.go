package course_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/classhub/classhub-lms/internal/course"
	"github.com/classhub/classhub-lms/internal/db"
)

func openStore(t *testing.T) *course.SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?cache=shared&mode=rwc"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return course.NewSQLStore(dbh)
}

func TestCourseLessonsAndEnrollment(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	c, err := st.PutCourse(ctx, course.Course{Title: "Biology 101", TeacherID: "t1"})
	if err != nil {
		t.Fatalf("put course: %v", err)
	}
	if c.ID == "" || c.CreatedAt == 0 {
		t.Fatalf("missing generated fields: %+v", c)
	}

	// lessons come back in position order
	if _, err := st.PutLesson(ctx, course.Lesson{CourseID: c.ID, Title: "Cells", Position: 2}); err != nil {
		t.Fatalf("put lesson: %v", err)
	}
	if _, err := st.PutLesson(ctx, course.Lesson{CourseID: c.ID, Title: "Intro", Position: 1}); err != nil {
		t.Fatalf("put lesson: %v", err)
	}
	lessons, err := st.ListLessons(ctx, c.ID)
	if err != nil {
		t.Fatalf("list lessons: %v", err)
	}
	if len(lessons) != 2 || lessons[0].Title != "Intro" || lessons[1].Title != "Cells" {
		t.Fatalf("lesson order wrong: %+v", lessons)
	}

	// lesson for a missing course is rejected
	if _, err := st.PutLesson(ctx, course.Lesson{CourseID: "nope", Title: "Orphan"}); !errors.Is(err, course.ErrCourseNotFound) {
		t.Fatalf("orphan lesson err = %v, want ErrCourseNotFound", err)
	}

	if err := st.Enroll(ctx, c.ID, "s1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	// re-enrolling is a no-op
	if err := st.Enroll(ctx, c.ID, "s1"); err != nil {
		t.Fatalf("re-enroll: %v", err)
	}
	ok, err := st.IsEnrolled(ctx, c.ID, "s1")
	if err != nil || !ok {
		t.Fatalf("IsEnrolled = %v, %v", ok, err)
	}
	if ok, _ := st.IsEnrolled(ctx, c.ID, "s2"); ok {
		t.Fatal("s2 should not be enrolled")
	}
	roster, err := st.ListEnrollments(ctx, c.ID)
	if err != nil || len(roster) != 1 || roster[0] != "s1" {
		t.Fatalf("roster = %v, %v", roster, err)
	}

	if err := st.Enroll(ctx, "nope", "s1"); !errors.Is(err, course.ErrCourseNotFound) {
		t.Fatalf("enroll missing course err = %v", err)
	}
}

func TestCourseUpsert(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	c, err := st.PutCourse(ctx, course.Course{ID: "c1", Title: "Old Title", TeacherID: "t1"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	c.Title = "New Title"
	c.Description = "updated"
	if _, err := st.PutCourse(ctx, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := st.GetCourse(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "New Title" || got.Description != "updated" {
		t.Fatalf("update not applied: %+v", got)
	}

	if _, err := st.GetCourse(ctx, "missing"); !errors.Is(err, course.ErrCourseNotFound) {
		t.Fatalf("missing course err = %v", err)
	}
}
