// Package sqlite provides a single-file session store for local play,
// built on the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/oops"
	// Register the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
	"github.com/greggjuri/chaos-dungeon/internal/game/session"
)

//go:embed schema.sql
var schema string

// Store persists sessions and audit records in SQLite.
type Store struct {
	db *sql.DB
}

var _ session.Store = (*Store)(nil)

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

// Open opens (creating if needed) the database at path and applies the schema.
//
// Precondition: path must be non-empty.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load retrieves a session by ID.
//
// Postcondition: Returns an error satisfying errors.Is(err,
// session.ErrSessionNotFound) when id is unknown.
func (s *Store) Load(ctx context.Context, id string) (*session.Session, error) {
	var state []byte
	err := s.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, id).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("SESSION_NOT_FOUND").With("session_id", id).Wrap(session.ErrSessionNotFound)
		}
		return nil, oops.Code("SESSION_LOAD_FAILED").With("session_id", id).Wrap(err)
	}
	var out session.Session
	if err := json.Unmarshal(state, &out); err != nil {
		return nil, oops.Code("SESSION_CORRUPT").With("session_id", id).Wrap(err)
	}
	return &out, nil
}

// Save upserts the whole session document.
func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	if sess.ID == "" {
		return oops.Code("SESSION_SAVE_FAILED").Errorf("session id is required")
	}
	state, err := json.Marshal(sess)
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("session_id", sess.ID).Wrap(err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, character, turn, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET turn = excluded.turn, state = excluded.state, updated_at = excluded.updated_at`,
		sess.ID, sess.Character.Name, sess.Turn, state, toMillis(sess.CreatedAt), toMillis(sess.UpdatedAt),
	)
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("session_id", sess.ID).Wrap(err)
	}
	return nil
}

// List returns the IDs of the most recently updated sessions.
func (s *Store) List(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY updated_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, oops.Code("SESSION_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, oops.Code("SESSION_LIST_FAILED").Wrap(err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Record stores gate audit records for one turn in a single transaction.
// Records already present are ignored.
func (s *Store) Record(ctx context.Context, sessionID string, turn int, recs []authority.AuditRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.Code("AUDIT_WRITE_FAILED").With("session_id", sessionID).Wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range recs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO resource_audit (id, session_id, turn, action, field, proposed, intent, detail, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			r.ID, sessionID, turn, string(r.Action), r.Field, r.Proposed, r.Intent, r.Detail, toMillis(r.At),
		)
		if err != nil {
			return oops.Code("AUDIT_WRITE_FAILED").With("session_id", sessionID).With("audit_id", r.ID).Wrap(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return oops.Code("AUDIT_WRITE_FAILED").With("session_id", sessionID).Wrap(err)
	}
	return nil
}

// AuditCount returns the number of audit records stored for sessionID.
func (s *Store) AuditCount(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM resource_audit WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
