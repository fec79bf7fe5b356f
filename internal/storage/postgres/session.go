package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/greggjuri/chaos-dungeon/internal/game/session"
)

// SessionStore persists sessions as JSONB documents.
type SessionStore struct {
	db Querier
}

// NewSessionStore creates a SessionStore backed by db.
//
// Precondition: db must be a valid, open connection pool.
func NewSessionStore(db Querier) *SessionStore {
	return &SessionStore{db: db}
}

var _ session.Store = (*SessionStore)(nil)

// Load retrieves a session by ID.
//
// Postcondition: Returns the Session or an error satisfying
// errors.Is(err, session.ErrSessionNotFound).
func (s *SessionStore) Load(ctx context.Context, id string) (*session.Session, error) {
	var state []byte
	err := s.db.QueryRow(ctx, `SELECT state FROM sessions WHERE id = $1`, id).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
//
// Precondition: sess.ID must be a UUID; sess.Character must not be nil.
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	state, err := json.Marshal(sess)
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("session_id", sess.ID).Wrap(err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO sessions (id, character, turn, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET turn = EXCLUDED.turn, state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		sess.ID, sess.Character.Name, sess.Turn, state, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("session_id", sess.ID).Wrap(err)
	}
	return nil
}

// List returns the IDs of the most recently updated sessions.
func (s *SessionStore) List(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM sessions ORDER BY updated_at DESC LIMIT $1`, limit)
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
