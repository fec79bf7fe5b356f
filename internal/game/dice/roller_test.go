package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
	"github.com/greggjuri/chaos-dungeon/internal/testutil"
)

// TestRoll_TotalWithinBounds verifies that for any seed, Roll("NdS+M") lies in [N+M, N*S+M].
func TestRoll_TotalWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := dice.Expression{
			Count:    rapid.IntRange(1, 10).Draw(rt, "count"),
			Sides:    rapid.IntRange(2, 20).Draw(rt, "sides"),
			Modifier: rapid.IntRange(-10, 10).Draw(rt, "modifier"),
		}
		src := dice.NewSeededSource(rapid.Int64().Draw(rt, "seed"))
		res, err := dice.Roll(e, src)
		require.NoError(rt, err)
		assert.Len(rt, res.Dice, e.Count)
		assert.GreaterOrEqual(rt, res.Total(), e.Count+e.Modifier)
		assert.LessOrEqual(rt, res.Total(), e.Count*e.Sides+e.Modifier)
	})
}

// TestRoll_UniformFaces is a chi-square sanity check on the seeded source.
func TestRoll_UniformFaces(t *testing.T) {
	const (
		sides   = 6
		samples = 60000
	)
	src := dice.NewSeededSource(7)
	counts := make([]int, sides)
	e := dice.MustParse("1d6")
	for i := 0; i < samples; i++ {
		res, err := dice.Roll(e, src)
		require.NoError(t, err)
		counts[res.Dice[0]-1]++
	}
	expected := float64(samples) / sides
	chi := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		chi += d * d / expected
	}
	// 5 degrees of freedom; p=0.001 critical value is 20.52.
	assert.Less(t, chi, 20.52, "face counts %v", counts)
}

func TestRoll_RejectsInvalidExpression(t *testing.T) {
	_, err := dice.Roll(dice.Expression{Count: 0, Sides: 6}, testutil.FixedSource{Face: 1})
	assert.ErrorIs(t, err, dice.ErrInvalidDiceNotation)
}

func TestRoller_RollD20WithBonus(t *testing.T) {
	r := dice.NewLoggedRoller(testutil.NewScriptedSource(17), zap.NewNop())
	total, natural := r.RollD20WithBonus(2)
	assert.Equal(t, 17, natural)
	assert.Equal(t, 19, total)
}

func TestRoller_RollInitiative_InRange(t *testing.T) {
	r := dice.NewLoggedRoller(dice.NewSeededSource(1), nil)
	for i := 0; i < 500; i++ {
		v := r.RollInitiative()
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 6)
	}
}

func TestRoller_LogsEveryRoll(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := dice.NewLoggedRoller(testutil.NewScriptedSource(4, 5), zap.New(core))
	res, err := r.RollExpr("2d6+3")
	require.NoError(t, err)
	assert.Equal(t, 12, res.Total())
	entries := logs.FilterMessage("dice roll").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "2d6+3", entries[0].ContextMap()["expression"])
	assert.Equal(t, int64(12), entries[0].ContextMap()["total"])
}
