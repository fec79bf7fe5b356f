// Package session defines the Session aggregate that owns one player's
// character ledger, encounter and pending records, plus the Store contract
// and per-session serialization used by callers of the engine.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/greggjuri/chaos-dungeon/internal/game/character"
	"github.com/greggjuri/chaos-dungeon/internal/game/combat"
	"github.com/greggjuri/chaos-dungeon/internal/game/confirm"
	"github.com/greggjuri/chaos-dungeon/internal/game/loot"
)

// Mode is the session's current interaction mode, derived from which of the
// nullable records is present.
type Mode int

const (
	ModeExploration Mode = iota
	ModeInCombat
	ModeAwaitingConfirmation
)

// String returns the mode label.
func (m Mode) String() string {
	switch m {
	case ModeInCombat:
		return "in_combat"
	case ModeAwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return "exploration"
	}
}

// Session is the aggregate persisted between turns.
//
// Invariant: Combat, when non-nil, is active; at most one of Combat and
// PendingConfirmation is non-nil; at most one PendingLoot exists.
type Session struct {
	ID                  string            `json:"id"`
	Character           *character.Ledger `json:"character"`
	Combat              *combat.State     `json:"combat"`
	PendingLoot         *loot.PendingLoot `json:"pending_loot"`
	PendingConfirmation *confirm.Pending  `json:"pending_confirmation"`
	Scene               string            `json:"scene,omitempty"`
	Turn                int               `json:"turn"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// New starts a session for ledger with a fresh random ID.
//
// Precondition: ledger must not be nil.
func New(ledger *character.Ledger, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Character: ledger,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Mode derives the current mode.
func (s *Session) Mode() Mode {
	switch {
	case s.Combat != nil && s.Combat.Active:
		return ModeInCombat
	case s.PendingConfirmation != nil:
		return ModeAwaitingConfirmation
	default:
		return ModeExploration
	}
}

// Ledger returns the character ledger.
func (s *Session) Ledger() *character.Ledger { return s.Character }

// PeekPendingLoot returns the pending loot, if any, leaving it in place.
func (s *Session) PeekPendingLoot() *loot.PendingLoot { return s.PendingLoot }

// TakePendingLoot returns the pending loot and clears it.
func (s *Session) TakePendingLoot() *loot.PendingLoot {
	p := s.PendingLoot
	s.PendingLoot = nil
	return p
}

// Clone returns a deep copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Character = s.Character.Clone()
	cp.Combat = s.Combat.Clone()
	cp.PendingLoot = s.PendingLoot.Clone()
	cp.PendingConfirmation = s.PendingConfirmation.Clone()
	return &cp
}
