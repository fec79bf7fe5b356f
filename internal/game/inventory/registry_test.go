package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greggjuri/chaos-dungeon/internal/game/inventory"
)

func catalog(t *testing.T) *inventory.Registry {
	t.Helper()
	r, err := inventory.NewRegistryFrom([]*inventory.ItemDef{
		{ID: "torch", Name: "Torch", Kind: inventory.KindGear, Value: 1},
		{ID: "healing_potion", Name: "Healing Potion", Kind: inventory.KindConsumable, Value: 50, Heal: "1d8", Aliases: []string{"potion"}},
		{ID: "short_sword", Name: "Short Sword", Kind: inventory.KindWeapon, Value: 7},
	})
	require.NoError(t, err)
	return r
}

func TestRegistry_RegisterItem_CollisionError(t *testing.T) {
	r := inventory.NewRegistry()
	d := &inventory.ItemDef{ID: "torch", Name: "Torch", Kind: inventory.KindGear}
	require.NoError(t, r.RegisterItem(d))
	assert.Error(t, r.RegisterItem(d))
}

func TestRegistry_Item(t *testing.T) {
	r := catalog(t)
	d, ok := r.Item("torch")
	require.True(t, ok)
	assert.Equal(t, "Torch", d.Name)
	_, ok = r.Item("lantern")
	assert.False(t, ok)
}

func TestRegistry_Resolve(t *testing.T) {
	r := catalog(t)
	cases := map[string]string{
		"torch":            "torch",
		"my torch":         "torch",
		"Torches":          "",
		"the  Short Sword": "short_sword",
		"potion":           "healing_potion",
		"a healing potion": "healing_potion",
		"short_sword":      "short_sword",
		"lantern":          "",
	}
	for text, want := range cases {
		got, ok := r.Resolve(text)
		assert.Equal(t, want != "", ok, text)
		assert.Equal(t, want, got, text)
	}
}

func TestRegistry_All_SortedByID(t *testing.T) {
	all := catalog(t).All()
	require.Len(t, all, 3)
	assert.Equal(t, "healing_potion", all[0].ID)
	assert.Equal(t, "torch", all[2].ID)
}
