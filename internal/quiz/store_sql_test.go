package quiz_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/classhub/classhub-lms/internal/db"
	"github.com/classhub/classhub-lms/internal/grading"
	"github.com/classhub/classhub-lms/internal/quiz"
)

func openSQLStore(t *testing.T) *quiz.SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?cache=shared&mode=rwc"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return quiz.NewSQLStore(dbh, "sqlite")
}

func TestSQLStore_FullAttemptFlow(t *testing.T) {
	st := openSQLStore(t)
	ctx := context.Background()

	q, err := st.PutQuiz(ctx, quiz.Quiz{
		Title:        "Midterm",
		PassingScore: 60,
		MaxAttempts:  1,
		Questions: []grading.Question{
			{ID: "q1", Type: grading.MultiChoice, Options: []string{"a", "b", "c", "d"}, Points: 5, Key: grading.AnswerKey{Correct: []int{1}}},
			{ID: "q2", Type: grading.TrueFalse, Options: []string{"true", "false"}, Points: 5, Key: grading.AnswerKey{Correct: []int{0}}},
		},
	})
	if err != nil {
		t.Fatalf("put quiz: %v", err)
	}
	if q.TotalPoints != 10 {
		t.Fatalf("total points = %v, want 10", q.TotalPoints)
	}

	// Student view round-trips without keys.
	safe, err := st.GetQuiz(ctx, q.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(safe.Questions[0].Key.Correct) != 0 {
		t.Fatalf("student view leaked the answer key")
	}

	a, err := st.StartAttempt(ctx, q.ID, "alice")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answers := []grading.Answer{
		{Selection: &grading.SelectionAnswer{Selected: []int{1}}},
		{Selection: &grading.SelectionAnswer{Selected: []int{1}}},
	}
	if _, err := st.SaveAnswers(ctx, a.ID, answers); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := st.Submit(ctx, a.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Status != quiz.StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if got.TotalScore != 5 || got.Percentage != 50 || got.Grade != "F" || got.Passed {
		t.Fatalf("aggregate wrong: %+v", got)
	}

	// The quiz is now locked for editing.
	if _, err := st.PutQuiz(ctx, q); !errors.Is(err, quiz.ErrQuizLocked) {
		t.Fatalf("want ErrQuizLocked, got %v", err)
	}
	// And alice is out of attempts.
	if _, err := st.StartAttempt(ctx, q.ID, "alice"); !errors.Is(err, quiz.ErrAttemptLimit) {
		t.Fatalf("want ErrAttemptLimit, got %v", err)
	}

	list, err := st.ListAttempts(ctx, quiz.AttemptListOpts{QuizID: q.ID, UserID: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("list attempts wrong: %+v", list)
	}
}

func TestSQLStore_ManualGradeRoundTrip(t *testing.T) {
	st := openSQLStore(t)
	ctx := context.Background()

	q, err := st.PutQuiz(ctx, quiz.Quiz{
		Title:        "Essay Quiz",
		PassingScore: 60,
		MaxAttempts:  1,
		Questions: []grading.Question{
			{ID: "q1", Type: grading.ShortAnswer, Points: 5, Key: grading.AnswerKey{Text: "chlorophyll"}},
			{ID: "q2", Type: grading.Essay, Points: 5},
		},
	})
	if err != nil {
		t.Fatalf("put quiz: %v", err)
	}

	a, err := st.StartAttempt(ctx, q.ID, "bob")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answers := []grading.Answer{
		{Text: &grading.TextAnswer{Text: " Chlorophyll "}},
		{Text: &grading.TextAnswer{Text: "long essay text"}},
	}
	if _, err := st.SaveAnswers(ctx, a.ID, answers); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := st.Submit(ctx, a.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.TotalScore != 5 || !got.PendingManual {
		t.Fatalf("pre-manual state wrong: %+v", got)
	}
	if got.Graded[1].IsCorrect != nil {
		t.Fatalf("essay must persist with nil correctness")
	}

	got, err = st.ApplyManualGrades(ctx, a.ID, map[string]quiz.ManualGradeInput{
		"q2": {Points: 4, Feedback: "good"},
	}, "teacher-1")
	if err != nil {
		t.Fatalf("manual grade: %v", err)
	}
	if got.TotalScore != 9 || got.Percentage != 90 || got.Grade != "A-" || !got.Passed {
		t.Fatalf("post-manual aggregate wrong: %+v", got)
	}
	if got.PendingManual {
		t.Fatalf("pending flag should clear")
	}
}
