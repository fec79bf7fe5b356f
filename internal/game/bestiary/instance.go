package bestiary

import (
	"fmt"

	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
)

// EnemyInstance is a live enemy in one encounter. It is created at combat
// start and discarded when combat ends.
type EnemyInstance struct {
	// ID is unique within the encounter ("e1", "e2", ...).
	ID         string `json:"id"`
	TemplateID string `json:"template_id"`
	// BaseName is the undecorated name used to detect duplicates.
	BaseName string `json:"base_name"`
	// DisplayName is BaseName plus a disambiguating index when duplicates exist.
	DisplayName string          `json:"display_name"`
	HP          int             `json:"hp"`
	MaxHP       int             `json:"max_hp"`
	AC          int             `json:"ac"`
	AttackBonus int             `json:"attack_bonus"`
	Damage      dice.Expression `json:"damage"`
	XP          int             `json:"xp"`
	LootTable   string          `json:"loot_table"`
}

// IsDead reports whether the enemy has no hit points left.
func (e *EnemyInstance) IsDead() bool { return e.HP <= 0 }

// ApplyDamage subtracts amount from HP, flooring at zero.
func (e *EnemyInstance) ApplyDamage(amount int) {
	e.HP -= amount
	if e.HP < 0 {
		e.HP = 0
	}
}

// HealthDescription returns a coarse health label for narration.
//
// Postcondition: Returns one of "unharmed", "barely scratched", "wounded",
// "badly wounded", "near death", "dead".
func (e *EnemyInstance) HealthDescription() string {
	if e.IsDead() {
		return "dead"
	}
	pct := float64(e.HP) / float64(e.MaxHP)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.75:
		return "barely scratched"
	case pct >= 0.50:
		return "wounded"
	case pct >= 0.25:
		return "badly wounded"
	default:
		return "near death"
	}
}

// AssignDisplayNames sets DisplayName on every enemy. A base name held by a
// single enemy stays unsuffixed; otherwise every holder is numbered from 1 in
// slice order.
func AssignDisplayNames(enemies []*EnemyInstance) {
	counts := make(map[string]int, len(enemies))
	for _, e := range enemies {
		counts[e.BaseName]++
	}
	seen := make(map[string]int, len(counts))
	for _, e := range enemies {
		if counts[e.BaseName] == 1 {
			e.DisplayName = e.BaseName
			continue
		}
		seen[e.BaseName]++
		e.DisplayName = fmt.Sprintf("%s %d", e.BaseName, seen[e.BaseName])
	}
}
