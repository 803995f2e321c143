package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/classhub/classhub-lms/internal/api/http"
	"github.com/classhub/classhub-lms/internal/assignment"
	auth "github.com/classhub/classhub-lms/internal/auth/middleware"
	"github.com/classhub/classhub-lms/internal/config"
	"github.com/classhub/classhub-lms/internal/course"
	"github.com/classhub/classhub-lms/internal/db"
	"github.com/classhub/classhub-lms/internal/notify"
	"github.com/classhub/classhub-lms/internal/quiz"
	"github.com/classhub/classhub-lms/internal/rbac"
	"github.com/classhub/classhub-lms/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	quizzes := quiz.NewSQLStore(dbh, cfg.DBDriver)
	assignments := assignment.NewSQLStore(dbh, cfg.DBDriver)
	courses := course.NewSQLStore(dbh)
	events := notify.NewEventLogDispatcher(dbh)
	checker := rbac.NewChecker(nil)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)
	admin := auth.AdminCreds{User: cfg.AdminUser, PassHash: cfg.AdminPassHash}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, admin))

	// assets routes (protected)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Route("/assets", func(ar chi.Router) {
			api.MountAssets(ar, bs)
		})
	})

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, true))

		// Courses and lessons
		pr.With(rbac.Require("course:create")).
			Post("/courses", api.CreateCourseHandler(courses))
		pr.With(rbac.Require("course:view")).
			Get("/courses", api.ListCoursesHandler(courses))
		pr.With(rbac.Require("course:view")).
			Get("/courses/{courseID}", api.GetCourseHandler(courses))
		pr.With(rbac.Require("lesson:create")).
			Post("/courses/{courseID}/lessons", api.CreateLessonHandler(courses))
		pr.With(rbac.Require("lesson:view")).
			Get("/courses/{courseID}/lessons", api.ListLessonsHandler(courses))
		pr.With(rbac.Require("lesson:view")).
			Get("/lessons/{lessonID}", api.GetLessonHandler(courses))
		pr.With(rbac.Require("course:view")).
			Post("/courses/{courseID}/enroll", api.EnrollHandler(courses, checker))
		pr.With(rbac.Require("enrollment:manage")).
			Get("/courses/{courseID}/enrollments", api.ListEnrollmentsHandler(courses))

		// Quizzes
		pr.With(rbac.Require("quiz:create")).
			Post("/quizzes", api.CreateQuizHandler(quizzes))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes", api.ListQuizzesHandler(quizzes))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/{quizID}", api.GetQuizHandler(quizzes, checker))

		// Attempt flow
		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", api.StartAttemptHandler(quizzes))
		pr.With(rbac.Require("attempt:save")).
			Post("/attempts/{attemptID}/answers", api.SaveAnswersHandler(quizzes))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(quizzes, events))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/abandon", api.AbandonAttemptHandler(quizzes))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(quizzes, checker))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(quizzes, checker))
		pr.With(rbac.Require("attempt:grade")).
			Get("/attempts/{attemptID}/grading", api.GetAttemptGradingHandler(quizzes))
		pr.With(rbac.Require("attempt:grade")).
			Post("/attempts/{attemptID}/grading", api.ApplyAttemptGradingHandler(quizzes, events))

		// Assignments and submissions
		pr.With(rbac.Require("assignment:create")).
			Post("/assignments", api.CreateAssignmentHandler(assignments))
		pr.With(rbac.Require("assignment:view")).
			Get("/assignments", api.ListAssignmentsHandler(assignments))
		pr.With(rbac.Require("assignment:view")).
			Get("/assignments/{assignmentID}", api.GetAssignmentHandler(assignments))
		pr.With(rbac.Require("submission:create")).
			Post("/assignments/{assignmentID}/submissions", api.SubmitWorkHandler(assignments, bs))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions", api.ListSubmissionsHandler(assignments, checker))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions/{submissionID}", api.GetSubmissionHandler(assignments, checker))
		pr.With(rbac.Require("submission:grade")).
			Post("/submissions/{submissionID}/grade", api.GradeSubmissionHandler(assignments, events))

		// Users (teacher/admin)
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
