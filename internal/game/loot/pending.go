package loot

import (
	"fmt"
	"slices"
)

// Source records what produced a PendingLoot.
type Source int

const (
	SourceCombatVictory Source = iota
)

// String returns the source label.
func (s Source) String() string {
	if s == SourceCombatVictory {
		return "combat_victory"
	}
	return "unknown"
}

// MarshalText encodes the source label.
func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a source label.
func (s *Source) UnmarshalText(text []byte) error {
	if string(text) != "combat_victory" {
		return fmt.Errorf("loot: unknown source %q", text)
	}
	*s = SourceCombatVictory
	return nil
}

// PendingLoot is an unclaimed, single-use reward.
//
// Invariant: Gold >= 0; at most one exists per session.
type PendingLoot struct {
	Gold   int      `json:"gold"`
	Items  []string `json:"items"`
	Source Source   `json:"source"`
}

// Empty reports whether the loot holds nothing.
func (p *PendingLoot) Empty() bool { return p.Gold == 0 && len(p.Items) == 0 }

// Clone returns a deep copy.
func (p *PendingLoot) Clone() *PendingLoot {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Items = slices.Clone(p.Items)
	return &cp
}
