package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/classhub/classhub-lms/internal/api/http"
	authmw "github.com/classhub/classhub-lms/internal/auth/middleware"
	"github.com/classhub/classhub-lms/internal/grading"
	"github.com/classhub/classhub-lms/internal/notify"
	"github.com/classhub/classhub-lms/internal/quiz"
	"github.com/classhub/classhub-lms/internal/rbac"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, e notify.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

// asUser injects subject and role the way the JWT middleware would.
func asUser(sub, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := authmw.WithSubject(r.Context(), sub)
			ctx = rbac.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestRouter(store quiz.Store, events notify.Dispatcher, sub, role string) chi.Router {
	checker := rbac.NewChecker(nil)
	r := chi.NewRouter()
	r.Use(asUser(sub, role))
	r.Post("/quizzes", api.CreateQuizHandler(store))
	r.Get("/quizzes/{quizID}", api.GetQuizHandler(store, checker))
	r.Post("/attempts", api.StartAttemptHandler(store))
	r.Post("/attempts/{attemptID}/answers", api.SaveAnswersHandler(store))
	r.Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(store, events))
	r.Get("/attempts/{attemptID}", api.GetAttemptHandler(store, checker))
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAttemptFlowOverHTTP(t *testing.T) {
	store := quiz.NewInMemoryStore()
	events := &recordingDispatcher{}

	teacher := newTestRouter(store, events, "t1", "teacher")
	student := newTestRouter(store, events, "s1", "student")

	resp := doJSON(t, teacher, "POST", "/quizzes", quiz.Quiz{
		Title: "Photosynthesis",
		Questions: []grading.Question{
			{ID: "q1", Type: grading.SingleChoice, Points: 5, Key: grading.AnswerKey{Correct: []int{1}}},
			{ID: "q2", Type: grading.TrueFalse, Points: 5, Key: grading.AnswerKey{Correct: []int{0}}},
		},
		PassingScore: 60,
		MaxAttempts:  2,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("create quiz: %d %s", resp.Code, resp.Body.String())
	}
	var created quiz.Quiz
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.TotalPoints != 10 {
		t.Fatalf("TotalPoints = %v, want 10", created.TotalPoints)
	}

	// student view must not leak answer keys
	resp = doJSON(t, student, "GET", "/quizzes/"+created.ID, nil)
	var studentView quiz.Quiz
	if err := json.Unmarshal(resp.Body.Bytes(), &studentView); err != nil {
		t.Fatal(err)
	}
	for i, q := range studentView.Questions {
		if len(q.Key.Correct) != 0 {
			t.Errorf("question %d: answer key leaked to student", i)
		}
	}

	resp = doJSON(t, student, "POST", "/attempts", map[string]string{"quiz_id": created.ID})
	if resp.Code != http.StatusOK {
		t.Fatalf("start attempt: %d %s", resp.Code, resp.Body.String())
	}
	var att quiz.Attempt
	if err := json.Unmarshal(resp.Body.Bytes(), &att); err != nil {
		t.Fatal(err)
	}

	answers := []grading.Answer{
		{Selection: &grading.SelectionAnswer{Selected: []int{1}}},
		{Selection: &grading.SelectionAnswer{Selected: []int{1}}}, // wrong
	}
	resp = doJSON(t, student, "POST", "/attempts/"+att.ID+"/answers", map[string]any{"answers": answers})
	if resp.Code != http.StatusOK {
		t.Fatalf("save answers: %d %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, student, "POST", "/attempts/"+att.ID+"/submit", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", resp.Code, resp.Body.String())
	}
	var graded quiz.Attempt
	if err := json.Unmarshal(resp.Body.Bytes(), &graded); err != nil {
		t.Fatal(err)
	}
	if graded.Status != quiz.StatusCompleted {
		t.Errorf("status = %s, want completed", graded.Status)
	}
	if graded.TotalScore != 5 || graded.Percentage != 50 || graded.Grade != "F" || graded.Passed {
		t.Errorf("got score=%v pct=%v grade=%s passed=%v", graded.TotalScore, graded.Percentage, graded.Grade, graded.Passed)
	}

	if len(events.events) != 1 || events.events[0].Type != notify.TypeAttemptGraded {
		t.Fatalf("events = %+v, want one AttemptGraded", events.events)
	}
	// resubmit is idempotent and must not re-emit
	resp = doJSON(t, student, "POST", "/attempts/"+att.ID+"/submit", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("resubmit: %d %s", resp.Code, resp.Body.String())
	}
	if len(events.events) != 1 {
		t.Errorf("resubmit emitted a duplicate event")
	}
}

func TestAttemptOwnership(t *testing.T) {
	store := quiz.NewInMemoryStore()
	events := &recordingDispatcher{}

	teacher := newTestRouter(store, events, "t1", "teacher")
	alice := newTestRouter(store, events, "alice", "student")
	mallory := newTestRouter(store, events, "mallory", "student")

	resp := doJSON(t, teacher, "POST", "/quizzes", quiz.Quiz{
		Title: "Quiz",
		Questions: []grading.Question{
			{ID: "q1", Type: grading.TrueFalse, Points: 1, Key: grading.AnswerKey{Correct: []int{0}}},
		},
	})
	var q quiz.Quiz
	_ = json.Unmarshal(resp.Body.Bytes(), &q)

	resp = doJSON(t, alice, "POST", "/attempts", map[string]string{"quiz_id": q.ID})
	var att quiz.Attempt
	_ = json.Unmarshal(resp.Body.Bytes(), &att)

	if resp := doJSON(t, mallory, "GET", "/attempts/"+att.ID, nil); resp.Code != http.StatusForbidden {
		t.Errorf("foreign attempt read: code = %d, want 403", resp.Code)
	}
	if resp := doJSON(t, mallory, "POST", "/attempts/"+att.ID+"/submit", nil); resp.Code != http.StatusForbidden {
		t.Errorf("foreign submit: code = %d, want 403", resp.Code)
	}
	// teachers may read any attempt
	if resp := doJSON(t, teacher, "GET", "/attempts/"+att.ID, nil); resp.Code != http.StatusOK {
		t.Errorf("teacher attempt read: code = %d, want 200", resp.Code)
	}
}
