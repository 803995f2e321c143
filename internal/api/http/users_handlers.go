package http

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type userRow struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Role     string `json:"role"`               // usually "student"
	Password string `json:"password,omitempty"` // plaintext optional (LAN-only)
}

// BulkUpsertUsersHandler accepts either multipart file= (CSV or JSON) or a
// raw JSON array in the body. Intended for classroom roster imports.
func BulkUpsertUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			// sniff CSV vs JSON by first non-space byte
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				http.Error(w, "empty file", http.StatusBadRequest)
				return
			}
			if s, ok := f.(io.Seeker); ok {
				_, _ = s.Seek(0, io.SeekStart)
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					http.Error(w, "bad json", http.StatusBadRequest)
					return
				}
			} else {
				rs, err := parseRosterCSV(f)
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), http.StatusBadRequest)
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
				return
			}
		}
		if len(rows) == 0 {
			writeJSON(w, map[string]any{"inserted": 0, "updated": 0})
			return
		}

		ins, upd, err := upsertUsers(r.Context(), db, rows)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"inserted": ins, "updated": upd})
	}
}

func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var rows *sql.Rows
		var err error
		if role == "" {
			rows, err = db.QueryContext(r.Context(), `SELECT id, username, role FROM users ORDER BY username`)
		} else {
			rows, err = db.QueryContext(r.Context(), `SELECT id, username, role FROM users WHERE role=$1 ORDER BY username`, role)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := []userRow{}
		for rows.Next() {
			var u userRow
			if err := rows.Scan(&u.ID, &u.Username, &u.Role); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, u)
		}
		writeJSON(w, out)
	}
}

func parseRosterCSV(r io.Reader) ([]userRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["username"]; !ok {
		return nil, errors.New("missing column: username")
	}
	var rows []userRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := userRow{Username: rec[idx["username"]]}
		if i, ok := idx["id"]; ok {
			row.ID = rec[i]
		}
		if i, ok := idx["role"]; ok {
			row.Role = strings.ToLower(rec[i])
		}
		if i, ok := idx["password"]; ok {
			row.Password = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func upsertUsers(ctx context.Context, db *sql.DB, rows []userRow) (inserted, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	for _, u := range rows {
		u.Username = strings.TrimSpace(u.Username)
		if u.Username == "" {
			return inserted, updated, errors.New("username required")
		}
		if u.Role == "" {
			u.Role = "student"
		}
		if u.Role != "student" && u.Role != "teacher" && u.Role != "admin" {
			return inserted, updated, errors.New("invalid role: " + u.Role)
		}
		var phash string
		if u.Password != "" {
			b, e := bcrypt.GenerateFromPassword([]byte(u.Password), 12)
			if e != nil {
				return inserted, updated, e
			}
			phash = string(b)
		}

		var existingID string
		err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username=$1`, u.Username).Scan(&existingID)
		switch {
		case err == nil:
			if phash != "" {
				_, err = tx.ExecContext(ctx, `UPDATE users SET role=$1, pass_hash=$2 WHERE id=$3`, u.Role, phash, existingID)
			} else {
				_, err = tx.ExecContext(ctx, `UPDATE users SET role=$1 WHERE id=$2`, u.Role, existingID)
			}
			if err != nil {
				return inserted, updated, err
			}
			updated++
		case errors.Is(err, sql.ErrNoRows):
			if phash == "" {
				return inserted, updated, errors.New("password required for new user: " + u.Username)
			}
			id := u.ID
			if id == "" {
				id = uuid.NewString()
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id, username, pass_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
				id, u.Username, phash, u.Role, now)
			if err != nil {
				return inserted, updated, err
			}
			inserted++
		default:
			return inserted, updated, err
		}
	}
	return
}
