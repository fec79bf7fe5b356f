package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. Sessions are kept encoded so callers
// never alias stored state.
// All methods are safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte // id → JSON
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

// Load returns a fresh copy of the stored session.
//
// Postcondition: Returns ErrSessionNotFound if id is unknown.
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session %q: %w", id, err)
	}
	return &s, nil
}

// Save replaces the stored session.
//
// Precondition: s.ID must be non-empty.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s.ID == "" {
		return fmt.Errorf("session: save requires an id")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session %q: %w", s.ID, err)
	}
	m.mu.Lock()
	m.sessions[s.ID] = data
	m.mu.Unlock()
	return nil
}

// IDs returns all stored session IDs in sorted order.
func (m *MemoryStore) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
