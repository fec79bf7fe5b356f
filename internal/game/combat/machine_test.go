package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/greggjuri/chaos-dungeon/internal/game/bestiary"
	"github.com/greggjuri/chaos-dungeon/internal/game/character"
	"github.com/greggjuri/chaos-dungeon/internal/game/combat"
	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
	"github.com/greggjuri/chaos-dungeon/internal/game/inventory"
	"github.com/greggjuri/chaos-dungeon/internal/testutil"
)

const enemiesYAML = `
- id: goblin
  name: Goblin
  hp: 1d8-1
  ac: 6
  damage: 1d6
  xp: 5
  loot_table: goblin
- id: orc
  name: Orc
  hp: 1d8
  ac: 6
  attack_bonus: 2
  damage: 1d8
  xp: 10
  loot_table: orc
`

func newMachine(t *testing.T, rules combat.Rules, logger *zap.Logger) *combat.Machine {
	t.Helper()
	tmpls, err := bestiary.LoadTemplateFromBytes([]byte(enemiesYAML))
	require.NoError(t, err)
	b, err := bestiary.New(tmpls, nil)
	require.NoError(t, err)
	items, err := inventory.NewRegistryFrom([]*inventory.ItemDef{
		{ID: "healing_potion", Name: "Healing Potion", Kind: inventory.KindConsumable, Value: 50, Heal: "1d8"},
		{ID: "torch", Name: "Torch", Kind: inventory.KindGear, Value: 1},
	})
	require.NoError(t, err)
	return combat.NewMachine(b, items, rules, logger)
}

func scripted(faces ...int) (*dice.Roller, *testutil.ScriptedSource) {
	src := testutil.NewScriptedSource(faces...)
	return dice.NewLoggedRoller(src, nil), src
}

func ledger(t *testing.T, class string, opts ...character.Option) *character.Ledger {
	t.Helper()
	l, err := character.New("Aria", class, opts...)
	require.NoError(t, err)
	return l
}

func TestInitiateCombat_PlayerFirst(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, src := scripted(5, 4, 2) // goblin hp 1d8-1 -> 4; player init 4; enemy init 2
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)
	assert.Zero(t, src.Remaining())
	assert.True(t, s.Active)
	assert.Equal(t, 1, s.Round)
	assert.Equal(t, combat.PhaseAwaitingPlayerAction, s.Phase)
	require.Len(t, s.Enemies, 1)
	assert.Equal(t, 4, s.Enemies[0].HP)
}

func TestInitiateCombat_TieGoesToPlayer(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, _ := scripted(5, 3, 3)
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)
	assert.Equal(t, combat.PhaseAwaitingPlayerAction, s.Phase)
}

func TestInitiateCombat_EnemiesFirst(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, _ := scripted(5, 2, 6)
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)
	assert.Equal(t, combat.PhaseEnemyTurn, s.Phase)
}

func TestInitiateCombat_NoEnemies(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, _ := scripted()
	_, err := m.InitiateCombat(nil, r)
	assert.ErrorIs(t, err, combat.ErrNoEnemies)
}

func TestResolvePlayerTurn_KillingBlowIsVictory(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, src := scripted(5, 4, 2, 15, 3) // goblin 4 hp; d20 15+1=16 vs AC 6; 1d8 3 + STR 1 = 4
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)
	l := ledger(t, "fighter")

	res, err := m.ResolvePlayerTurn(s, l, combat.Attack("e1"), r)
	require.NoError(t, err)
	assert.Zero(t, src.Remaining())
	require.NotNil(t, res.Attack)
	assert.True(t, res.Attack.Hit)
	assert.Equal(t, 4, res.Attack.Damage)
	assert.True(t, res.Attack.Killed)
	assert.Equal(t, combat.ResultVictory, res.End)
	assert.Equal(t, combat.PhaseEnded, s.Phase)
	assert.False(t, s.Active)
	assert.Equal(t, combat.ResultVictory, combat.CheckEndCondition(s, l))
	require.Len(t, s.Log, 1)
	assert.Equal(t, combat.TagKilled, s.Log[0].Result)
}

func TestResolvePlayerTurn_LogKeepsPreClampHP(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, _ := scripted(2, 4, 2, 15, 8) // goblin 1 hp; damage 8+1 = 9
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)

	res, err := m.ResolvePlayerTurn(s, ledger(t, "fighter"), combat.Attack("e1"), r)
	require.NoError(t, err)
	assert.Equal(t, -8, res.Attack.TargetHPRaw)
	assert.Equal(t, 0, res.Attack.TargetHP)
	assert.Equal(t, 0, s.Enemies[0].HP)
	assert.Equal(t, -8, s.Log[0].TargetHPRaw)
}

func TestResolvePlayerTurn_MissMovesToEnemyTurn(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, _ := scripted(5, 4, 2, 4) // 4+1 = 5 < AC 6
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)

	res, err := m.ResolvePlayerTurn(s, ledger(t, "fighter"), combat.Attack("e1"), r)
	require.NoError(t, err)
	assert.False(t, res.Attack.Hit)
	assert.Zero(t, res.Attack.Damage)
	assert.Equal(t, combat.ResultNone, res.End)
	assert.Equal(t, combat.PhaseEnemyTurn, s.Phase)
	assert.Equal(t, combat.TagMiss, s.Log[0].Result)
}

func TestResolvePlayerTurn_InvalidTarget(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, _ := scripted(5, 4, 2)
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)
	l := ledger(t, "fighter")

	_, err = m.ResolvePlayerTurn(s, l, combat.Attack("e9"), r)
	assert.ErrorIs(t, err, combat.ErrInvalidTarget)
	assert.Equal(t, combat.PhaseAwaitingPlayerAction, s.Phase)

	s.Enemies[0].HP = 0
	_, err = m.ResolvePlayerTurn(s, l, combat.Attack("e1"), r)
	assert.ErrorIs(t, err, combat.ErrInvalidTarget, "dead enemies are not valid targets")
	assert.Empty(t, s.Log)
}

func TestResolvePlayerTurn_WrongPhase(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	m := newMachine(t, combat.DefaultRules(), zap.New(core))
	r, _ := scripted(5, 2, 6)
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)
	require.Equal(t, combat.PhaseEnemyTurn, s.Phase)

	_, err = m.ResolvePlayerTurn(s, ledger(t, "fighter"), combat.Defend(), r)
	assert.ErrorIs(t, err, combat.ErrInvalidPhaseTransition)
	assert.Equal(t, 1, logs.FilterMessage("invalid phase transition").Len())

	_, err = m.ResolveEnemyPhase(nil, ledger(t, "fighter"), r)
	assert.ErrorIs(t, err, combat.ErrInvalidPhaseTransition)
}

func TestResolveEnemyPhase_WrongPhase(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, _ := scripted(5, 4, 2)
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)
	_, err = m.ResolveEnemyPhase(s, ledger(t, "fighter"), r)
	assert.ErrorIs(t, err, combat.ErrInvalidPhaseTransition)
}

func TestDefend_RaisesACForEnemyPhaseOnly(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	// goblin; player first; defend; goblin rolls 7 vs AC 7+2 -> miss
	r, src := scripted(5, 4, 2, 7)
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)
	l := ledger(t, "fighter")

	res, err := m.ResolvePlayerTurn(s, l, combat.Defend(), r)
	require.NoError(t, err)
	assert.True(t, res.Defended)
	assert.True(t, s.PlayerDefending)

	atks, err := m.ResolveEnemyPhase(s, l, r)
	require.NoError(t, err)
	assert.Zero(t, src.Remaining())
	require.Len(t, atks, 1)
	assert.Equal(t, 9, atks[0].TargetAC)
	assert.False(t, atks[0].Hit)
	assert.False(t, s.PlayerDefending, "defending clears at end of round")
	assert.Equal(t, 2, s.Round)
	assert.Equal(t, combat.PhaseAwaitingPlayerAction, s.Phase)

	// Next round without defending, the same roll hits AC 7.
	r2, _ := scripted(1, 7, 2) // player attack fumbles; goblin 7 vs 7; damage 2
	_, err = m.ResolvePlayerTurn(s, l, combat.Attack("e1"), r2)
	require.NoError(t, err)
	atks, err = m.ResolveEnemyPhase(s, l, r2)
	require.NoError(t, err)
	assert.True(t, atks[0].Hit)
	assert.Equal(t, 6, l.HP())
}

func TestFlee_SuccessEndsCombat(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, _ := scripted(5, 4, 2, 10)
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)

	res, err := m.ResolvePlayerTurn(s, ledger(t, "fighter"), combat.Flee(), r)
	require.NoError(t, err)
	assert.True(t, res.Fled)
	assert.Equal(t, combat.ResultFled, res.End)
	assert.Equal(t, combat.PhaseEnded, s.Phase)
	assert.False(t, s.Active)
	assert.False(t, s.Enemies[0].IsDead(), "fleeing defeats no one")
	assert.Equal(t, combat.TagFled, s.Log[0].Result)
}

func TestFlee_FailureGivesEnemyTurn(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, _ := scripted(5, 4, 2, 9)
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)

	res, err := m.ResolvePlayerTurn(s, ledger(t, "fighter"), combat.Flee(), r)
	require.NoError(t, err)
	assert.False(t, res.Fled)
	assert.Equal(t, 9, res.FleeRoll)
	assert.Equal(t, combat.PhaseEnemyTurn, s.Phase)
	assert.Equal(t, combat.TagFleeFailed, s.Log[0].Result)
}

func TestUseItem_HealsAndConsumes(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, _ := scripted(5, 4, 2, 6)
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)
	l := ledger(t, "fighter", character.WithHP(3),
		character.WithItems(character.ItemStack{ItemID: "healing_potion", Quantity: 1}))

	res, err := m.ResolvePlayerTurn(s, l, combat.UseItem("healing_potion"), r)
	require.NoError(t, err)
	require.NotNil(t, res.ItemUse)
	assert.Equal(t, 5, res.ItemUse.Healed, "heal clamps at max HP")
	assert.Equal(t, 8, l.HP())
	assert.False(t, l.Has("healing_potion"))
	assert.Equal(t, combat.PhaseEnemyTurn, s.Phase)
}

func TestUseItem_NotOwnedOrNotConsumable(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, _ := scripted(5, 4, 2)
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)
	l := ledger(t, "fighter", character.WithItems(character.ItemStack{ItemID: "torch", Quantity: 1}))

	_, err = m.ResolvePlayerTurn(s, l, combat.UseItem("healing_potion"), r)
	assert.ErrorIs(t, err, inventory.ErrNotOwned)
	_, err = m.ResolvePlayerTurn(s, l, combat.UseItem("torch"), r)
	assert.ErrorIs(t, err, inventory.ErrNotConsumable)
	assert.Equal(t, 1, l.Quantity("torch"))
	assert.Equal(t, combat.PhaseAwaitingPlayerAction, s.Phase)
}

func TestEnemyPhase_DeathStopsAttacks(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	// two orcs (hp 6, 6); enemies first; orc 1 hits 3-hp magic-user for 8
	r, src := scripted(6, 6, 1, 5, 15, 8)
	s, err := m.InitiateCombat([]string{"orc", "orc"}, r)
	require.NoError(t, err)
	l := ledger(t, "magic-user")

	atks, err := m.ResolveEnemyPhase(s, l, r)
	require.NoError(t, err)
	assert.Zero(t, src.Remaining())
	assert.Len(t, atks, 1)
	assert.Equal(t, 0, l.HP())
	assert.Equal(t, -5, atks[0].TargetHPRaw)
	assert.Equal(t, combat.ResultDeath, s.Result)
	assert.Equal(t, combat.ResultDeath, combat.CheckEndCondition(s, l))
}

func TestDeterminism_SameSeedSameEncounter(t *testing.T) {
	run := func() *combat.State {
		m := newMachine(t, combat.DefaultRules(), nil)
		r := dice.NewLoggedRoller(dice.NewSeededSource(1234), nil)
		l := ledger(t, "fighter")
		s, err := m.InitiateCombat([]string{"goblin", "orc"}, r)
		require.NoError(t, err)
		for i := 0; i < 10 && s.Phase != combat.PhaseEnded; i++ {
			if s.Phase == combat.PhaseAwaitingPlayerAction {
				target, _ := s.FirstLivingEnemy()
				_, err = m.ResolvePlayerTurn(s, l, combat.Attack(target.ID), r)
				require.NoError(t, err)
			}
			if s.Phase == combat.PhaseEnemyTurn {
				_, err = m.ResolveEnemyPhase(s, l, r)
				require.NoError(t, err)
			}
		}
		return s
	}
	assert.Equal(t, run(), run())
}

func TestState_Clone(t *testing.T) {
	m := newMachine(t, combat.DefaultRules(), nil)
	r, _ := scripted(5, 4, 2, 15, 1)
	s, err := m.InitiateCombat([]string{"goblin"}, r)
	require.NoError(t, err)
	cp := s.Clone()
	_, err = m.ResolvePlayerTurn(cp, ledger(t, "fighter"), combat.Attack("e1"), r)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Enemies[0].HP)
	assert.Empty(t, s.Log)
	assert.Equal(t, combat.PhaseAwaitingPlayerAction, s.Phase)
	assert.Nil(t, (*combat.State)(nil).Clone())
}
