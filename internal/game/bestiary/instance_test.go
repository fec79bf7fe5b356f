package bestiary_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/greggjuri/chaos-dungeon/internal/game/bestiary"
)

func TestEnemyInstance_ApplyDamage(t *testing.T) {
	e := &bestiary.EnemyInstance{HP: 4, MaxHP: 4}
	e.ApplyDamage(2)
	assert.Equal(t, 2, e.HP)
	assert.False(t, e.IsDead())
	e.ApplyDamage(9)
	assert.Equal(t, 0, e.HP)
	assert.True(t, e.IsDead())
}

func TestEnemyInstance_HealthDescription(t *testing.T) {
	cases := map[int]string{8: "unharmed", 7: "barely scratched", 4: "wounded", 2: "badly wounded", 1: "near death", 0: "dead"}
	for hp, want := range cases {
		e := &bestiary.EnemyInstance{HP: hp, MaxHP: 8}
		assert.Equal(t, want, e.HealthDescription(), "hp %d", hp)
	}
}

func TestProperty_AssignDisplayNames_Unique(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		bases := rapid.SliceOfN(rapid.SampledFrom([]string{"Goblin", "Orc", "Rat"}), 1, 8).Draw(rt, "bases")
		enemies := make([]*bestiary.EnemyInstance, len(bases))
		for i, b := range bases {
			enemies[i] = &bestiary.EnemyInstance{BaseName: b}
		}
		bestiary.AssignDisplayNames(enemies)
		seen := map[string]bool{}
		for _, e := range enemies {
			if seen[e.DisplayName] {
				rt.Fatalf("duplicate display name %q", e.DisplayName)
			}
			seen[e.DisplayName] = true
		}
	})
}
