package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types emitted after grading results are persisted. Consumers (mailers,
// dashboards, sync daemons) tail the event log; nothing here sends email.
const (
	TypeAttemptGraded    = "AttemptGraded"
	TypeSubmissionGraded = "SubmissionGraded"
)

type Event struct {
	Type string // e.g., AttemptGraded
	Key  string // natural key: attemptID / submissionID
	Data any    // JSON-serializable payload
}

// Dispatcher informs interested parties that a grading result exists.
type Dispatcher interface {
	Dispatch(ctx context.Context, e Event) error
}

// EventLogDispatcher appends events to the event_log table.
type EventLogDispatcher struct {
	db  *sql.DB
	now func() time.Time
}

func NewEventLogDispatcher(db *sql.DB) *EventLogDispatcher {
	return &EventLogDispatcher{db: db, now: time.Now}
}

func (d *EventLogDispatcher) Dispatch(ctx context.Context, e Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		e.Type, e.Key, string(data), d.now().Unix())
	return err
}

// Nop discards events; handy for tests and offline runs.
type Nop struct{}

func (Nop) Dispatch(context.Context, Event) error { return nil }
