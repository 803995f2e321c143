package quiz_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/classhub/classhub-lms/internal/grading"
	"github.com/classhub/classhub-lms/internal/quiz"
)

func seedQuiz(t *testing.T, st quiz.Store, maxAttempts, timeLimitSec int) quiz.Quiz {
	t.Helper()
	q, err := st.PutQuiz(context.Background(), quiz.Quiz{
		Title:        "Unit 1 Check",
		PassingScore: 60,
		MaxAttempts:  maxAttempts,
		TimeLimitSec: timeLimitSec,
		Questions: []grading.Question{
			{ID: "q1", Type: grading.SingleChoice, Options: []string{"a", "b"}, Points: 5, Key: grading.AnswerKey{Correct: []int{1}}},
			{ID: "q2", Type: grading.Essay, Points: 5},
		},
	})
	if err != nil {
		t.Fatalf("put quiz: %v", err)
	}
	return q
}

func TestPutQuiz_RecomputesTotalPoints(t *testing.T) {
	st := quiz.NewInMemoryStore()
	q := seedQuiz(t, st, 1, 0)
	if q.TotalPoints != 10 {
		t.Fatalf("total points = %v, want 10", q.TotalPoints)
	}
}

func TestPutQuiz_LockedAfterAttempt(t *testing.T) {
	st := quiz.NewInMemoryStore()
	q := seedQuiz(t, st, 1, 0)
	if _, err := st.StartAttempt(context.Background(), q.ID, "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err := st.PutQuiz(context.Background(), q)
	if !errors.Is(err, quiz.ErrQuizLocked) {
		t.Fatalf("want ErrQuizLocked, got %v", err)
	}
}

func TestGetQuiz_StripsAnswerKeys(t *testing.T) {
	st := quiz.NewInMemoryStore()
	q := seedQuiz(t, st, 1, 0)

	safe, err := st.GetQuiz(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for i, qu := range safe.Questions {
		if len(qu.Key.Correct) != 0 || qu.Key.Text != "" || len(qu.Key.Pairs) != 0 || len(qu.Key.Blanks) != 0 {
			t.Fatalf("question %d leaked its answer key", i)
		}
	}

	full, err := st.GetQuizAuthor(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("get author: %v", err)
	}
	if len(full.Questions[0].Key.Correct) == 0 {
		t.Fatalf("author view must keep answer keys")
	}
}

func TestStartAttempt_EnforcesLimit(t *testing.T) {
	st := quiz.NewInMemoryStore()
	q := seedQuiz(t, st, 2, 0)
	ctx := context.Background()

	a1, err := st.StartAttempt(ctx, q.ID, "alice")
	if err != nil {
		t.Fatalf("attempt 1: %v", err)
	}
	if a1.AttemptNumber != 1 {
		t.Fatalf("attempt number = %d, want 1", a1.AttemptNumber)
	}
	a2, err := st.StartAttempt(ctx, q.ID, "alice")
	if err != nil {
		t.Fatalf("attempt 2: %v", err)
	}
	if a2.AttemptNumber != 2 {
		t.Fatalf("attempt number = %d, want 2", a2.AttemptNumber)
	}
	if _, err := st.StartAttempt(ctx, q.ID, "alice"); !errors.Is(err, quiz.ErrAttemptLimit) {
		t.Fatalf("want ErrAttemptLimit, got %v", err)
	}
	// A different student is unaffected.
	if _, err := st.StartAttempt(ctx, q.ID, "bob"); err != nil {
		t.Fatalf("bob attempt: %v", err)
	}
}

func TestSubmit_GradesAndBecomesTerminal(t *testing.T) {
	st := quiz.NewInMemoryStore()
	q := seedQuiz(t, st, 1, 0)
	ctx := context.Background()

	a, err := st.StartAttempt(ctx, q.ID, "alice")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answers := []grading.Answer{
		{Selection: &grading.SelectionAnswer{Selected: []int{1}}},
		{Text: &grading.TextAnswer{Text: "my essay"}},
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
	if !got.PendingManual {
		t.Fatalf("essay should leave attempt pending manual grading")
	}

	// Terminal: saving is rejected, re-submit is an idempotent read.
	if _, err := st.SaveAnswers(ctx, a.ID, answers); !errors.Is(err, quiz.ErrAttemptClosed) {
		t.Fatalf("want ErrAttemptClosed, got %v", err)
	}
	again, err := st.Submit(ctx, a.ID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.TotalScore != got.TotalScore || again.CompletedAt != got.CompletedAt {
		t.Fatalf("resubmit must not regrade: %+v vs %+v", again, got)
	}
}

func TestSubmit_TimeLimitForcesTimeoutStatus(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	st := quiz.NewInMemoryStoreAt(func() time.Time { return now })
	q := seedQuiz(t, st, 1, 600)
	ctx := context.Background()

	a, err := st.StartAttempt(ctx, q.ID, "alice")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	now = now.Add(11 * time.Minute)
	got, err := st.Submit(ctx, a.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Status != quiz.StatusTimeout {
		t.Fatalf("status = %s, want timeout", got.Status)
	}
	// Timeout still grades: unanswered questions are zero, not errors.
	if got.TotalScore != 0 || got.Grade != "F" {
		t.Fatalf("timeout grading wrong: %+v", got)
	}
	if got.TimeSpentSec != 660 {
		t.Fatalf("time spent = %d, want 660", got.TimeSpentSec)
	}
}

func TestApplyManualGrades_RecomputesAggregate(t *testing.T) {
	st := quiz.NewInMemoryStore()
	q := seedQuiz(t, st, 1, 0)
	ctx := context.Background()

	a, _ := st.StartAttempt(ctx, q.ID, "alice")
	answers := []grading.Answer{
		{Selection: &grading.SelectionAnswer{Selected: []int{1}}},
		{Text: &grading.TextAnswer{Text: "my essay"}},
	}
	if _, err := st.SaveAnswers(ctx, a.ID, answers); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := st.Submit(ctx, a.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	got, err := st.ApplyManualGrades(ctx, a.ID, map[string]quiz.ManualGradeInput{
		"q2": {Points: 5, Feedback: "well argued"},
	}, "teacher-1")
	if err != nil {
		t.Fatalf("manual grade: %v", err)
	}
	if got.TotalScore != 10 || got.Percentage != 100 || got.Grade != "A+" || !got.Passed {
		t.Fatalf("aggregate after manual grade wrong: %+v", got)
	}
	if got.PendingManual {
		t.Fatalf("nothing left to grade manually")
	}
	if got.Graded[1].IsCorrect != nil {
		t.Fatalf("essay correctness stays nil after manual grading")
	}
}

func TestApplyManualGrades_RejectsInProgressAndNonEssay(t *testing.T) {
	st := quiz.NewInMemoryStore()
	q := seedQuiz(t, st, 1, 0)
	ctx := context.Background()

	a, _ := st.StartAttempt(ctx, q.ID, "alice")
	if _, err := st.ApplyManualGrades(ctx, a.ID, map[string]quiz.ManualGradeInput{"q2": {Points: 5}}, "t"); !errors.Is(err, quiz.ErrNotSubmitted) {
		t.Fatalf("want ErrNotSubmitted, got %v", err)
	}

	if _, err := st.Submit(ctx, a.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := st.ApplyManualGrades(ctx, a.ID, map[string]quiz.ManualGradeInput{"q1": {Points: 5}}, "t"); err == nil {
		t.Fatalf("manual grade on auto-graded question must fail")
	}
}
