package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/classhub/classhub-lms/internal/auth/middleware"
	"github.com/classhub/classhub-lms/internal/course"
	"github.com/classhub/classhub-lms/internal/rbac"
)

func CreateCourseHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c course.Course
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil || strings.TrimSpace(c.Title) == "" {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		c.TeacherID = authmw.SubjectFromContext(r.Context())
		saved, err := store.PutCourse(r.Context(), c)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, saved)
	}
}

func GetCourseHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, c)
	}
}

// ListCoursesHandler: teachers see their own courses by default; admins can
// pass teacher_id= or omit it for everything.
func ListCoursesHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teacherID := strings.TrimSpace(r.URL.Query().Get("teacher_id"))
		role := rbac.RoleFromContext(r.Context())
		if role == "teacher" && teacherID == "" {
			teacherID = authmw.SubjectFromContext(r.Context())
		}
		out, err := store.ListCourses(r.Context(), teacherID, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
		if err != nil {
			storeError(w, err)
			return
		}
		if out == nil {
			out = []course.Course{}
		}
		writeJSON(w, out)
	}
}

func CreateLessonHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var l course.Lesson
		if err := json.NewDecoder(r.Body).Decode(&l); err != nil || strings.TrimSpace(l.Title) == "" {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		l.CourseID = chi.URLParam(r, "courseID")
		saved, err := store.PutLesson(r.Context(), l)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, saved)
	}
}

func GetLessonHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := store.GetLesson(r.Context(), chi.URLParam(r, "lessonID"))
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, l)
	}
}

func ListLessonsHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListLessons(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			storeError(w, err)
			return
		}
		if out == nil {
			out = []course.Lesson{}
		}
		writeJSON(w, out)
	}
}

// EnrollHandler: students enroll themselves; teachers/admins may enroll others
// via user_ids.
func EnrollHandler(store course.Store, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		sub := authmw.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())

		var req struct {
			UserIDs []string `json:"user_ids,omitempty"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		ids := req.UserIDs
		if len(ids) == 0 {
			ids = []string{sub}
		} else if !checker.Has(role, "enrollment:manage") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		for _, uid := range ids {
			uid = strings.TrimSpace(uid)
			if uid == "" {
				continue
			}
			if err := store.Enroll(r.Context(), courseID, uid); err != nil {
				storeError(w, err)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListEnrollmentsHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListEnrollments(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			storeError(w, err)
			return
		}
		if out == nil {
			out = []string{}
		}
		writeJSON(w, out)
	}
}
