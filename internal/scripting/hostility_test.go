package scripting_test

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/content"
	"github.com/greggjuri/chaos-dungeon/internal/game/confirm"
	"github.com/greggjuri/chaos-dungeon/internal/scripting"
)

func loadDefault(t *testing.T) *scripting.HostilityScript {
	t.Helper()
	src, err := fs.ReadFile(content.FS(), content.HostilityScriptPath)
	require.NoError(t, err)
	h, err := scripting.NewHostilityScript(string(src), 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h
}

func TestHostilityScript_DefaultContent(t *testing.T) {
	h := loadDefault(t)
	cases := []struct {
		target string
		want   confirm.Hostility
		ok     bool
	}{
		{"goblin", confirm.Hostile, true},
		{"the snarling Orc", confirm.Hostile, true},
		{"innkeeper", confirm.NonHostile, true},
		{"town guard", confirm.NonHostile, true},
		{"hooded stranger", confirm.NonHostile, false},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			got, ok, err := h.ClassifyHostility(context.Background(), tc.target, "a smoky tavern")
			require.NoError(t, err)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestHostilityScript_RuntimeErrorHasNoOpinion(t *testing.T) {
	h, err := scripting.NewHostilityScript(`function classify(t, s) error("boom") end`, 0, zap.NewNop())
	require.NoError(t, err)
	defer h.Close()

	_, ok, err := h.ClassifyHostility(context.Background(), "goblin", "")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestHostilityScript_RunawayScriptIsCut(t *testing.T) {
	h, err := scripting.NewHostilityScript(`function classify(t, s) while true do end end`, 100, zap.NewNop())
	require.NoError(t, err)
	defer h.Close()

	for range 2 {
		_, ok, err := h.ClassifyHostility(context.Background(), "goblin", "")
		assert.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestNewHostilityScript_MissingHook(t *testing.T) {
	_, err := scripting.NewHostilityScript(`x = 1`, 0, zap.NewNop())
	assert.Error(t, err)
}

func TestHostilityScript_InChain(t *testing.T) {
	h := loadDefault(t)
	asked := false
	fallback := confirm.ClassifierFunc(func(context.Context, string, string) (confirm.Hostility, bool, error) {
		asked = true
		return confirm.Hostile, true, nil
	})
	chain := confirm.NewChain(zap.NewNop(), h, fallback)

	assert.Equal(t, confirm.NonHostile, chain.Classify(context.Background(), "merchant", ""))
	assert.False(t, asked)
	assert.Equal(t, confirm.Hostile, chain.Classify(context.Background(), "hooded stranger", ""))
	assert.True(t, asked)
}
