package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/classhub/classhub-lms/internal/assignment"
	authmw "github.com/classhub/classhub-lms/internal/auth/middleware"
	"github.com/classhub/classhub-lms/internal/notify"
	"github.com/classhub/classhub-lms/internal/rbac"
	"github.com/classhub/classhub-lms/internal/storage"
)

func CreateAssignmentHandler(store assignment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a assignment.Assignment
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a.CreatedBy = authmw.SubjectFromContext(r.Context())
		saved, err := store.PutAssignment(r.Context(), a)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, saved)
	}
}

func GetAssignmentHandler(store assignment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := store.GetAssignment(r.Context(), chi.URLParam(r, "assignmentID"))
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, a)
	}
}

func ListAssignmentsHandler(store assignment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSpace(r.URL.Query().Get("course_id"))
		out, err := store.ListAssignments(r.Context(), courseID, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
		if err != nil {
			storeError(w, err)
			return
		}
		if out == nil {
			out = []assignment.Assignment{}
		}
		writeJSON(w, out)
	}
}

// SubmitWorkHandler accepts either JSON {content} or multipart with a
// file= part, which is stashed in the blob store and referenced by key.
func SubmitWorkHandler(store assignment.Store, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID := chi.URLParam(r, "assignmentID")
		sub := authmw.SubjectFromContext(r.Context())

		var content, attachmentKey string
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			f, hdr, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			key := "submissions/" + assignmentID + "/" + sub + "/" + hdr.Filename
			if _, err := blobs.Put(key, f); err != nil {
				http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
				return
			}
			attachmentKey = key
			content = r.FormValue("content")
		} else {
			var req struct {
				Content string `json:"content"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
			content = req.Content
		}

		s, err := store.SubmitWork(r.Context(), assignmentID, sub, content, attachmentKey)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, s)
	}
}

func GetSubmissionHandler(store assignment.Store, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.GetSubmission(r.Context(), chi.URLParam(r, "submissionID"))
		if err != nil {
			storeError(w, err)
			return
		}
		sub := authmw.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())
		if s.UserID != sub && !checker.Has(role, "submission:view-all") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, s)
	}
}

func ListSubmissionsHandler(store assignment.Store, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := assignment.SubmissionListOpts{
			AssignmentID: strings.TrimSpace(r.URL.Query().Get("assignment_id")),
			UserID:       strings.TrimSpace(r.URL.Query().Get("user_id")),
			Status:       strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:        queryInt(r, "limit", 50),
			Offset:       queryInt(r, "offset", 0),
		}
		role := rbac.RoleFromContext(r.Context())
		if !checker.Has(role, "submission:view-all") {
			opts.UserID = authmw.SubjectFromContext(r.Context())
		}
		out, err := store.ListSubmissions(r.Context(), opts)
		if err != nil {
			storeError(w, err)
			return
		}
		if out == nil {
			out = []assignment.Submission{}
		}
		writeJSON(w, out)
	}
}

// POST /submissions/{submissionID}/grade
func GradeSubmissionHandler(store assignment.Store, events notify.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "submissionID")
		var req struct {
			Points   float64 `json:"points"`
			Feedback string  `json:"feedback,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		gradedBy := authmw.SubjectFromContext(r.Context())
		s, err := store.GradeSubmission(r.Context(), id, req.Points, req.Feedback, gradedBy)
		if err != nil {
			storeError(w, err)
			return
		}
		if err := events.Dispatch(r.Context(), notify.Event{
			Type: notify.TypeSubmissionGraded,
			Key:  s.ID,
			Data: map[string]any{
				"assignment_id": s.AssignmentID,
				"user_id":       s.UserID,
				"percentage":    s.Percentage,
				"penalty_pct":   s.PenaltyPct,
				"grade":         s.Grade,
				"passed":        s.Passed,
			},
		}); err != nil {
			log.Printf("dispatch submission graded: %v", err)
		}
		writeJSON(w, s)
	}
}
