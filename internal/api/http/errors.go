package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/classhub/classhub-lms/internal/assignment"
	"github.com/classhub/classhub-lms/internal/course"
	"github.com/classhub/classhub-lms/internal/grading"
	"github.com/classhub/classhub-lms/internal/quiz"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// storeError maps store sentinels to HTTP statuses; anything unrecognized
// is a 500.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound),
		errors.Is(err, quiz.ErrAttemptNotFound),
		errors.Is(err, assignment.ErrAssignmentNotFound),
		errors.Is(err, assignment.ErrSubmissionNotFound),
		errors.Is(err, course.ErrCourseNotFound),
		errors.Is(err, course.ErrLessonNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrQuizLocked),
		errors.Is(err, quiz.ErrAttemptClosed),
		errors.Is(err, quiz.ErrNotSubmitted),
		errors.Is(err, assignment.ErrAlreadyGraded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, quiz.ErrAttemptLimit):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, grading.ErrMalformedAttempt):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
