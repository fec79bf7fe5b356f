package loot

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/game/bestiary"
	"github.com/greggjuri/chaos-dungeon/internal/game/character"
	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
)

// ErrUnknownLootTable is returned by Table for keys with no table.
var ErrUnknownLootTable = errors.New("unknown loot table")

// Roller is the dice surface the loot engine needs. *dice.Roller satisfies it.
type Roller interface {
	Roll(expr dice.Expression) (dice.RollResult, error)
	Die(sides int) int
}

var defaultFallback = Table{Key: FallbackKey, Gold: "1d4"}

// Engine rolls loot from a fixed set of tables.
type Engine struct {
	tables   map[string]*Table
	fallback *Table
	logger   *zap.Logger
}

// New builds an Engine. Tables must already be validated.
//
// Postcondition: returns an error on duplicate keys; a fallback table always exists.
func New(tables []*Table, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{tables: make(map[string]*Table, len(tables)), logger: logger}
	for _, t := range tables {
		if _, dup := e.tables[t.Key]; dup {
			return nil, fmt.Errorf("loot: table %q already registered", t.Key)
		}
		e.tables[t.Key] = t
	}
	if fb, ok := e.tables[FallbackKey]; ok {
		e.fallback = fb
	} else {
		fb := defaultFallback
		if err := fb.Validate(); err != nil {
			return nil, err
		}
		e.fallback = &fb
	}
	return e, nil
}

// Table returns the table registered under key.
func (e *Engine) Table(key string) (*Table, error) {
	t, ok := e.tables[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrUnknownLootTable)
	}
	return t, nil
}

// tableFor resolves key, falling back to the generic table. Empty keys fall
// back silently; unknown keys are logged.
func (e *Engine) tableFor(key string) *Table {
	if key == "" {
		return e.fallback
	}
	t, err := e.Table(key)
	if err != nil {
		e.logger.Warn("unknown loot table, using fallback", zap.String("loot_table", key), zap.Error(err))
		return e.fallback
	}
	return t
}

// RollLoot rolls every defeated enemy's table in order: gold first, then its
// weighted draws.
//
// Postcondition: result is non-nil with Gold >= 0 and Source SourceCombatVictory;
// identical roller sequences produce identical results.
func (e *Engine) RollLoot(defeated []bestiary.EnemyInstance, roller Roller) *PendingLoot {
	p := &PendingLoot{Source: SourceCombatVictory, Items: []string{}}
	for _, enemy := range defeated {
		t := e.tableFor(enemy.LootTable)
		if t.hasGold {
			res, err := roller.Roll(t.gold)
			if err == nil {
				p.Gold += max(0, res.Total())
			}
		}
		for range t.Draws {
			if item := WeightedChoice(t.Entries, roller); item != "" {
				p.Items = append(p.Items, item)
			}
		}
	}
	e.logger.Info("loot rolled", zap.Int("gold", p.Gold), zap.Strings("items", p.Items))
	return p
}

// WeightedChoice returns the ItemID of the entry selected by a roll in
// [1, totalWeight] over cumulative weights.
//
// Precondition: every weight >= 1.
func WeightedChoice(entries []Entry, roller Roller) string {
	total := 0
	for _, en := range entries {
		total += en.Weight
	}
	if total <= 0 {
		return ""
	}
	roll := roller.Die(total)
	cum := 0
	for _, en := range entries {
		cum += en.Weight
		if roll <= cum {
			return en.ItemID
		}
	}
	return ""
}

// Holder is a session-like aggregate owning a ledger and at most one pending loot.
type Holder interface {
	Ledger() *character.Ledger
	// PeekPendingLoot returns the pending loot without clearing it.
	PeekPendingLoot() *PendingLoot
	// TakePendingLoot returns the pending loot and clears it.
	TakePendingLoot() *PendingLoot
}

// ClaimedLoot is what a claim actually credited.
type ClaimedLoot struct {
	Gold  int      `json:"gold"`
	Items []string `json:"items"`
}

// ClaimPendingLoot moves pending gold and items onto the ledger through
// character.SourceLootClaim and clears the pending record.
//
// Postcondition: returns nil and mutates nothing when no loot is pending; a
// second consecutive call always returns nil. On error neither the ledger nor
// the pending record changes.
func ClaimPendingLoot(h Holder) (*ClaimedLoot, error) {
	p := h.PeekPendingLoot()
	if p == nil {
		return nil, nil
	}
	l := h.Ledger()
	next := l.Clone()
	claimed := &ClaimedLoot{Items: []string{}}
	if p.Gold > 0 {
		if err := next.Credit(character.SourceLootClaim, p.Gold); err != nil {
			return nil, fmt.Errorf("loot: crediting gold: %w", err)
		}
		claimed.Gold = p.Gold
	}
	for _, id := range p.Items {
		if err := next.AddItem(character.SourceLootClaim, id, 1); err != nil {
			return nil, fmt.Errorf("loot: adding %q: %w", id, err)
		}
		claimed.Items = append(claimed.Items, id)
	}
	*l = *next
	h.TakePendingLoot()
	return claimed, nil
}
