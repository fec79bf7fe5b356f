package loot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/greggjuri/chaos-dungeon/internal/game/bestiary"
	"github.com/greggjuri/chaos-dungeon/internal/game/character"
	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
	"github.com/greggjuri/chaos-dungeon/internal/game/loot"
	"github.com/greggjuri/chaos-dungeon/internal/testutil"
)

const tablesYAML = `
- key: goblin
  gold: 2d6
  draws: 1
  entries:
    - item: ""
      weight: 5
    - item: dagger
      weight: 3
    - item: torch
      weight: 2
- key: generic
  gold: 1d4
`

func newEngine(t *testing.T, logger *zap.Logger) *loot.Engine {
	t.Helper()
	tables, err := loot.LoadTablesFromBytes([]byte(tablesYAML))
	require.NoError(t, err)
	e, err := loot.New(tables, logger)
	require.NoError(t, err)
	return e
}

func roller(faces ...int) *dice.Roller {
	return dice.NewLoggedRoller(testutil.NewScriptedSource(faces...), nil)
}

func TestRollLoot_Deterministic(t *testing.T) {
	e := newEngine(t, nil)
	goblin := bestiary.EnemyInstance{ID: "e1", LootTable: "goblin"}
	// gold 2d6: 3+4; draw roll 6 lands in dagger's band (6..8)
	p := e.RollLoot([]bestiary.EnemyInstance{goblin}, roller(3, 4, 6))
	assert.Equal(t, &loot.PendingLoot{Gold: 7, Items: []string{"dagger"}, Source: loot.SourceCombatVictory}, p)
}

func TestRollLoot_NothingDraw(t *testing.T) {
	e := newEngine(t, nil)
	p := e.RollLoot([]bestiary.EnemyInstance{{LootTable: "goblin"}}, roller(1, 1, 5))
	assert.Equal(t, 2, p.Gold)
	assert.Empty(t, p.Items)
}

func TestRollLoot_AccumulatesAcrossEnemies(t *testing.T) {
	e := newEngine(t, nil)
	defeated := []bestiary.EnemyInstance{{LootTable: "goblin"}, {LootTable: "goblin"}}
	p := e.RollLoot(defeated, roller(1, 2, 10, 6, 6, 9))
	assert.Equal(t, 15, p.Gold)
	assert.Equal(t, []string{"torch", "torch"}, p.Items)
}

func TestRollLoot_UnknownTableFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := newEngine(t, zap.New(core))
	p := e.RollLoot([]bestiary.EnemyInstance{{LootTable: "dragon_hoard"}}, roller(3))
	assert.Equal(t, 3, p.Gold)
	assert.Equal(t, 1, logs.FilterMessage("unknown loot table, using fallback").Len())

	_, err := e.Table("dragon_hoard")
	assert.ErrorIs(t, err, loot.ErrUnknownLootTable)
}

func TestRollLoot_EmptyKeyFallsBackSilently(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := newEngine(t, zap.New(core))
	p := e.RollLoot([]bestiary.EnemyInstance{{}}, roller(2))
	assert.Equal(t, 2, p.Gold)
	assert.Zero(t, logs.Len())
}

func TestNew_BuiltInFallback(t *testing.T) {
	e, err := loot.New(nil, nil)
	require.NoError(t, err)
	p := e.RollLoot([]bestiary.EnemyInstance{{LootTable: "x"}}, roller(4))
	assert.Equal(t, 4, p.Gold)
}

func TestNew_DuplicateKey(t *testing.T) {
	tables, err := loot.LoadTablesFromBytes([]byte(tablesYAML))
	require.NoError(t, err)
	_, err = loot.New(append(tables, tables[0]), nil)
	assert.Error(t, err)
}

func TestLoadTablesFromBytes_Invalid(t *testing.T) {
	for _, c := range []string{
		"- gold: 1d4\n",
		"- key: x\n  gold: lots\n",
		"- key: x\n  draws: -1\n",
		"- key: x\n  draws: 1\n",
		"- key: x\n  draws: 1\n  entries:\n    - item: a\n      weight: 0\n",
	} {
		_, err := loot.LoadTablesFromBytes([]byte(c))
		assert.Error(t, err, c)
	}
}

func TestWeightedChoice_Bands(t *testing.T) {
	entries := []loot.Entry{{ItemID: "", Weight: 5}, {ItemID: "dagger", Weight: 3}, {ItemID: "torch", Weight: 2}}
	want := map[int]string{1: "", 5: "", 6: "dagger", 8: "dagger", 9: "torch", 10: "torch"}
	for face, id := range want {
		assert.Equal(t, id, loot.WeightedChoice(entries, roller(face)), "roll %d", face)
	}
	assert.Equal(t, "", loot.WeightedChoice(nil, roller()))
}

func TestProperty_WeightedChoice_AlwaysAnEntry(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(rt, "n")
		entries := make([]loot.Entry, n)
		total := 0
		for i := range entries {
			w := rapid.IntRange(1, 10).Draw(rt, "w")
			entries[i] = loot.Entry{ItemID: string(rune('a' + i)), Weight: w}
			total += w
		}
		face := rapid.IntRange(1, total).Draw(rt, "face")
		got := loot.WeightedChoice(entries, roller(face))
		if got == "" {
			rt.Fatalf("roll %d of %d selected nothing", face, total)
		}
	})
}

type holder struct {
	ledger  *character.Ledger
	pending *loot.PendingLoot
}

func (h *holder) Ledger() *character.Ledger { return h.ledger }

func (h *holder) PeekPendingLoot() *loot.PendingLoot { return h.pending }

func (h *holder) TakePendingLoot() *loot.PendingLoot {
	p := h.pending
	h.pending = nil
	return p
}

func TestClaimPendingLoot_Idempotent(t *testing.T) {
	l, err := character.New("Aria", "fighter", character.WithGold(3))
	require.NoError(t, err)
	h := &holder{ledger: l, pending: &loot.PendingLoot{Gold: 7, Items: []string{"dagger", "dagger", "torch"}}}

	claimed, err := loot.ClaimPendingLoot(h)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, 7, claimed.Gold)
	assert.Equal(t, []string{"dagger", "dagger", "torch"}, claimed.Items)
	assert.Equal(t, 10, l.Gold())
	assert.Equal(t, 2, l.Quantity("dagger"))

	again, err := loot.ClaimPendingLoot(h)
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Equal(t, 10, l.Gold(), "no double credit")
}

func TestClaimPendingLoot_AtomicOnBadItem(t *testing.T) {
	l, err := character.New("Aria", "fighter")
	require.NoError(t, err)
	pending := &loot.PendingLoot{Gold: 5, Items: []string{"dagger", ""}}
	h := &holder{ledger: l, pending: pending}

	_, err = loot.ClaimPendingLoot(h)
	assert.Error(t, err)
	assert.Equal(t, 0, l.Gold())
	assert.False(t, l.Has("dagger"))
	// The failed claim keeps the loot pending.
	assert.Same(t, pending, h.pending)

	h.pending.Items = []string{"dagger"}
	claimed, err := loot.ClaimPendingLoot(h)
	require.NoError(t, err)
	assert.Equal(t, 5, claimed.Gold)
	assert.Equal(t, 5, l.Gold())
	assert.True(t, l.Has("dagger"))
	assert.Nil(t, h.pending)
}

func TestPendingLoot_Clone(t *testing.T) {
	p := &loot.PendingLoot{Gold: 1, Items: []string{"torch"}}
	cp := p.Clone()
	cp.Items[0] = "dagger"
	assert.Equal(t, "torch", p.Items[0])
	assert.Nil(t, (*loot.PendingLoot)(nil).Clone())
	assert.False(t, p.Empty())
	assert.True(t, (&loot.PendingLoot{}).Empty())
}
