package notify_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/classhub/classhub-lms/internal/db"
	"github.com/classhub/classhub-lms/internal/notify"
)

func TestEventLogDispatcherAppends(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?cache=shared&mode=rwc"
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })

	d := notify.NewEventLogDispatcher(dbh)
	for i, e := range []notify.Event{
		{Type: notify.TypeAttemptGraded, Key: "att-1", Data: map[string]any{"grade": "B+"}},
		{Type: notify.TypeSubmissionGraded, Key: "sub-1", Data: map[string]any{"grade": "A-"}},
	} {
		if err := d.Dispatch(ctx, e); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}

	rows, err := dbh.QueryContext(ctx, `SELECT typ, key, data FROM event_log ORDER BY "offset" ASC`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var got []notify.Event
	for rows.Next() {
		var typ, key, data string
		if err := rows.Scan(&typ, &key, &data); err != nil {
			t.Fatal(err)
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			t.Fatalf("payload for %s is not JSON: %v", key, err)
		}
		got = append(got, notify.Event{Type: typ, Key: key, Data: payload})
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Type != notify.TypeAttemptGraded || got[0].Key != "att-1" {
		t.Errorf("first event = %+v", got[0])
	}
	if got[1].Type != notify.TypeSubmissionGraded || got[1].Key != "sub-1" {
		t.Errorf("second event = %+v", got[1])
	}
}
