package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/classhub/classhub-lms/internal/auth/middleware"
	"github.com/classhub/classhub-lms/internal/quiz"
	"github.com/classhub/classhub-lms/internal/rbac"
)

// Handlers only — routes remain in main.go

func CreateQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Quiz
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q.CreatedBy = authmw.SubjectFromContext(r.Context())
		saved, err := store.PutQuiz(r.Context(), q)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, saved)
	}
}

// GetQuizHandler serves the student-safe view (answer keys stripped) unless
// the caller may see keys.
func GetQuizHandler(store quiz.Store, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "quizID")
		role := rbac.RoleFromContext(r.Context())
		var (
			q   quiz.Quiz
			err error
		)
		if checker.Has(role, "quiz:view-keys") {
			q, err = store.GetQuizAuthor(r.Context(), id)
		} else {
			q, err = store.GetQuiz(r.Context(), id)
		}
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, q)
	}
}

func ListQuizzesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := quiz.ListOpts{
			CourseID: strings.TrimSpace(r.URL.Query().Get("course_id")),
			Q:        strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:    queryInt(r, "limit", 50),
			Offset:   queryInt(r, "offset", 0),
		}
		out, err := store.ListQuizzes(r.Context(), opts)
		if err != nil {
			storeError(w, err)
			return
		}
		if out == nil {
			out = []quiz.Quiz{}
		}
		writeJSON(w, out)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	if key == "limit" && v > 200 {
		return 200
	}
	return v
}
