package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:classhub.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/classhub?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  pass_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  teacher_id TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS lessons (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  position INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS enrollments (
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  enrolled_at INTEGER NOT NULL,
  PRIMARY KEY (course_id, user_id)
);

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  questions_json TEXT NOT NULL,
  total_points REAL NOT NULL,
  passing_score REAL NOT NULL DEFAULT 60,
  max_attempts INTEGER NOT NULL DEFAULT 1,
  time_limit_sec INTEGER NOT NULL DEFAULT 0,
  created_by TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS quiz_attempts (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  attempt_number INTEGER NOT NULL,
  status TEXT NOT NULL,
  answers_json TEXT NOT NULL,
  graded_json TEXT NOT NULL DEFAULT '',
  total_score REAL NOT NULL DEFAULT 0,
  percentage REAL NOT NULL DEFAULT 0,
  grade TEXT NOT NULL DEFAULT '',
  passed BOOLEAN NOT NULL DEFAULT FALSE,
  pending_manual BOOLEAN NOT NULL DEFAULT FALSE,
  graded_by TEXT NOT NULL DEFAULT '',
  started_at INTEGER NOT NULL,
  completed_at INTEGER,
  time_spent_sec INTEGER,
  UNIQUE (quiz_id, user_id, attempt_number)
);

CREATE TABLE IF NOT EXISTS assignments (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  instructions TEXT NOT NULL DEFAULT '',
  total_points REAL NOT NULL,
  passing_score REAL NOT NULL DEFAULT 60,
  due_at INTEGER NOT NULL,
  late_penalty_pct REAL NOT NULL DEFAULT 0,
  attachment_key TEXT NOT NULL DEFAULT '',
  created_by TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  attachment_key TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  submitted_at INTEGER NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  raw_percentage REAL NOT NULL DEFAULT 0,
  penalty_pct REAL NOT NULL DEFAULT 0,
  percentage REAL NOT NULL DEFAULT 0,
  grade TEXT NOT NULL DEFAULT '',
  passed BOOLEAN NOT NULL DEFAULT FALSE,
  feedback TEXT NOT NULL DEFAULT '',
  graded_by TEXT NOT NULL DEFAULT '',
  graded_at INTEGER,
  UNIQUE (assignment_id, user_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  offset INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  typ TEXT NOT NULL,                        -- e.g., AttemptGraded
  key TEXT NOT NULL,                        -- natural key: attemptID / submissionID
  data TEXT NOT NULL,                       -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  pass_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  teacher_id TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS lessons (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  position INTEGER NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS enrollments (
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  enrolled_at BIGINT NOT NULL,
  PRIMARY KEY (course_id, user_id)
);

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  questions_json TEXT NOT NULL,
  total_points DOUBLE PRECISION NOT NULL,
  passing_score DOUBLE PRECISION NOT NULL DEFAULT 60,
  max_attempts INTEGER NOT NULL DEFAULT 1,
  time_limit_sec INTEGER NOT NULL DEFAULT 0,
  created_by TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS quiz_attempts (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  attempt_number INTEGER NOT NULL,
  status TEXT NOT NULL,
  answers_json TEXT NOT NULL,
  graded_json TEXT NOT NULL DEFAULT '',
  total_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
  grade TEXT NOT NULL DEFAULT '',
  passed BOOLEAN NOT NULL DEFAULT FALSE,
  pending_manual BOOLEAN NOT NULL DEFAULT FALSE,
  graded_by TEXT NOT NULL DEFAULT '',
  started_at BIGINT NOT NULL,
  completed_at BIGINT,
  time_spent_sec BIGINT,
  UNIQUE (quiz_id, user_id, attempt_number)
);

CREATE TABLE IF NOT EXISTS assignments (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  instructions TEXT NOT NULL DEFAULT '',
  total_points DOUBLE PRECISION NOT NULL,
  passing_score DOUBLE PRECISION NOT NULL DEFAULT 60,
  due_at BIGINT NOT NULL,
  late_penalty_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
  attachment_key TEXT NOT NULL DEFAULT '',
  created_by TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  attachment_key TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  submitted_at BIGINT NOT NULL,
  score DOUBLE PRECISION NOT NULL DEFAULT 0,
  raw_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
  penalty_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
  percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
  grade TEXT NOT NULL DEFAULT '',
  passed BOOLEAN NOT NULL DEFAULT FALSE,
  feedback TEXT NOT NULL DEFAULT '',
  graded_by TEXT NOT NULL DEFAULT '',
  graded_at BIGINT,
  UNIQUE (assignment_id, user_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
