package inventory

import (
	"errors"
	"fmt"

	"github.com/greggjuri/chaos-dungeon/internal/game/character"
	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
)

var (
	// ErrNotOwned is returned when using an item the ledger does not hold.
	ErrNotOwned = errors.New("item not owned")
	// ErrNotConsumable is returned when using an item that has no use effect.
	ErrNotConsumable = errors.New("item is not consumable")
)

// HealRoller rolls a parsed dice expression.
type HealRoller interface {
	Roll(expr dice.Expression) (dice.RollResult, error)
}

// UseResult describes one consumed unit.
type UseResult struct {
	ItemID   string          `json:"item_id"`
	ItemName string          `json:"item_name"`
	HealRoll dice.RollResult `json:"heal_roll,omitzero"`
	Healed   int             `json:"healed"`
	HPAfter  int             `json:"hp_after"`
}

// Use consumes exactly one unit of itemID from l and applies its effect.
//
// Precondition: l must not be nil.
// Postcondition: on error, l is unchanged; on success one unit is removed via
// character.SourceItemConsumption and HP is clamped to MaxHP.
func (r *Registry) Use(l *character.Ledger, itemID string, roller HealRoller) (UseResult, error) {
	if !l.Has(itemID) {
		return UseResult{}, fmt.Errorf("use %q: %w", itemID, ErrNotOwned)
	}
	def, ok := r.Item(itemID)
	if !ok || !def.Consumable() {
		return UseResult{}, fmt.Errorf("use %q: %w", itemID, ErrNotConsumable)
	}
	res := UseResult{ItemID: def.ID, ItemName: def.Name}
	if expr, heals := def.HealDice(); heals {
		roll, err := roller.Roll(expr)
		if err != nil {
			return UseResult{}, fmt.Errorf("use %q: %w", itemID, err)
		}
		res.HealRoll = roll
	}
	if err := l.RemoveItem(character.SourceItemConsumption, itemID, 1); err != nil {
		return UseResult{}, fmt.Errorf("use %q: %w", itemID, err)
	}
	if res.HealRoll.Expression != "" {
		res.Healed = l.Heal(res.HealRoll.Total())
	}
	res.HPAfter = l.HP()
	return res, nil
}
