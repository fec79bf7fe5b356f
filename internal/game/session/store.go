package session

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned by Store.Load for unknown IDs.
var ErrSessionNotFound = errors.New("session not found")

// Store persists whole Session aggregates. Save must be atomic per session.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}
