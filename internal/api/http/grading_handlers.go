package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/classhub/classhub-lms/internal/auth/middleware"
	"github.com/classhub/classhub-lms/internal/notify"
	"github.com/classhub/classhub-lms/internal/quiz"
)

type applyGradesReq struct {
	Items map[string]quiz.ManualGradeInput `json:"items"` // question_id -> grade
}

type gradingItem struct {
	QuestionID    string   `json:"question_id"`
	Type          string   `json:"type"`
	Text          string   `json:"text,omitempty"`
	Points        float64  `json:"points"`
	Response      string   `json:"response,omitempty"`
	PointsEarned  float64  `json:"points_earned"`
	IsCorrect     *bool    `json:"is_correct"`
	PendingManual bool     `json:"pending_manual,omitempty"`
	ManualPoints  *float64 `json:"manual_points,omitempty"`
	Feedback      string   `json:"feedback,omitempty"`
}

// GET /attempts/{attemptID}/grading — per-question worksheet for graders.
func GetAttemptGradingHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := strings.TrimSpace(chi.URLParam(r, "attemptID"))
		a, err := store.GetAttempt(r.Context(), attemptID)
		if err != nil {
			storeError(w, err)
			return
		}
		q, err := store.GetQuizAuthor(r.Context(), a.QuizID)
		if err != nil {
			storeError(w, err)
			return
		}
		items := make([]gradingItem, 0, len(q.Questions))
		for i, qu := range q.Questions {
			it := gradingItem{
				QuestionID: qu.ID,
				Type:       string(qu.Type),
				Text:       qu.Text,
				Points:     qu.Points,
			}
			if i < len(a.Answers) {
				ans := a.Answers[i]
				if ans.Text != nil {
					it.Response = ans.Text.Text
				}
				it.ManualPoints = ans.ManualPoints
				it.Feedback = ans.ManualFeedback
			}
			if i < len(a.Graded) {
				it.PointsEarned = a.Graded[i].PointsEarned
				it.IsCorrect = a.Graded[i].IsCorrect
				it.PendingManual = a.Graded[i].PendingManual
			}
			items = append(items, it)
		}
		writeJSON(w, items)
	}
}

// POST /attempts/{attemptID}/grading
func ApplyAttemptGradingHandler(store quiz.Store, events notify.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := strings.TrimSpace(chi.URLParam(r, "attemptID"))
		if attemptID == "" {
			http.Error(w, "attemptID required", http.StatusBadRequest)
			return
		}
		var req applyGradesReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.Items) == 0 {
			http.Error(w, "no grades supplied", http.StatusBadRequest)
			return
		}
		gradedBy := authmw.SubjectFromContext(r.Context())
		a, err := store.ApplyManualGrades(r.Context(), attemptID, req.Items, gradedBy)
		if err != nil {
			storeError(w, err)
			return
		}
		if !a.PendingManual {
			if err := events.Dispatch(r.Context(), notify.Event{
				Type: notify.TypeAttemptGraded,
				Key:  a.ID,
				Data: map[string]any{
					"quiz_id":    a.QuizID,
					"user_id":    a.UserID,
					"percentage": a.Percentage,
					"grade":      a.Grade,
					"passed":     a.Passed,
					"manual":     true,
				},
			}); err != nil {
				log.Printf("dispatch attempt graded: %v", err)
			}
		}
		writeJSON(w, a)
	}
}
