package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/classhub/classhub-lms/internal/auth/middleware"
	"github.com/classhub/classhub-lms/internal/grading"
	"github.com/classhub/classhub-lms/internal/notify"
	"github.com/classhub/classhub-lms/internal/quiz"
	"github.com/classhub/classhub-lms/internal/rbac"
)

func StartAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID string `json:"quiz_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.QuizID) == "" {
			http.Error(w, "quiz_id required", http.StatusBadRequest)
			return
		}
		sub := authmw.SubjectFromContext(r.Context())
		a, err := store.StartAttempt(r.Context(), req.QuizID, sub)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, a)
	}
}

func SaveAnswersHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		var req struct {
			Answers []grading.Answer `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := store.GetAttempt(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		if a.UserID != authmw.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		a, err = store.SaveAnswers(r.Context(), id, req.Answers)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, a)
	}
}

func SubmitAttemptHandler(store quiz.Store, events notify.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := store.GetAttempt(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		if a.UserID != authmw.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		wasTerminal := a.Status.Terminal()
		a, err = store.Submit(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		if !wasTerminal {
			if err := events.Dispatch(r.Context(), notify.Event{
				Type: notify.TypeAttemptGraded,
				Key:  a.ID,
				Data: map[string]any{
					"quiz_id":    a.QuizID,
					"user_id":    a.UserID,
					"percentage": a.Percentage,
					"grade":      a.Grade,
					"passed":     a.Passed,
				},
			}); err != nil {
				log.Printf("dispatch attempt graded: %v", err)
			}
		}
		writeJSON(w, a)
	}
}

func AbandonAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := store.GetAttempt(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		if a.UserID != authmw.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		a, err = store.Abandon(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, a)
	}
}

// GetAttemptHandler: students see their own attempts; attempt:view-all sees any.
func GetAttemptHandler(store quiz.Store, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := store.GetAttempt(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		sub := authmw.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())
		if a.UserID != sub && !checker.Has(role, "attempt:view-all") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, a)
	}
}

func ListAttemptsHandler(store quiz.Store, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := quiz.AttemptListOpts{
			QuizID: strings.TrimSpace(r.URL.Query().Get("quiz_id")),
			UserID: strings.TrimSpace(r.URL.Query().Get("user_id")),
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:  queryInt(r, "limit", 50),
			Offset: queryInt(r, "offset", 0),
		}
		sub := authmw.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())
		if !checker.Has(role, "attempt:view-all") {
			opts.UserID = sub
		}
		out, err := store.ListAttempts(r.Context(), opts)
		if err != nil {
			storeError(w, err)
			return
		}
		if out == nil {
			out = []quiz.Attempt{}
		}
		writeJSON(w, out)
	}
}
