package authority_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
	"github.com/greggjuri/chaos-dungeon/internal/game/character"
	"github.com/greggjuri/chaos-dungeon/internal/game/commerce"
	"github.com/greggjuri/chaos-dungeon/internal/game/intent"
	"github.com/greggjuri/chaos-dungeon/internal/game/inventory"
)

func newGate(t testing.TB, logger *zap.Logger) *authority.Gate {
	t.Helper()
	reg, err := inventory.NewRegistryFrom([]*inventory.ItemDef{
		{ID: "torch", Name: "Torch", Kind: inventory.KindGear, Value: 4},
		{ID: "rope", Name: "Rope", Kind: inventory.KindGear, Value: 3, Aliases: []string{"hemp rope"}},
		{ID: "short_sword", Name: "Short Sword", Kind: inventory.KindWeapon, Value: 7},
	})
	require.NoError(t, err)
	return authority.NewGate(commerce.NewResolver(reg), reg, logger)
}

func fighter(t testing.TB, opts ...character.Option) *character.Ledger {
	t.Helper()
	l, err := character.New("Aria", "fighter", opts...)
	require.NoError(t, err)
	return l
}

func TestApplyProposedChanges_RejectsGoldGrant(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	g := newGate(t, zap.New(core))
	l := fighter(t, character.WithGold(10))

	out := g.ApplyProposedChanges(l, authority.ProposedDelta{GoldDelta: 500}, authority.TurnContext{Intent: intent.Classify("I open the chest")})

	assert.Equal(t, 0, out.Applied.GoldDelta)
	assert.Equal(t, 10, l.Gold())
	require.Len(t, out.Audit, 1)
	rec := out.Audit[0]
	assert.Equal(t, authority.AuditRejected, rec.Action)
	assert.Equal(t, "gold_delta", rec.Field)
	assert.Equal(t, "+500", rec.Proposed)
	assert.Equal(t, "other", rec.Intent)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 1, logs.FilterMessage("rejected narrator resource change").Len())
}

func TestApplyProposedChanges_RejectsInventory(t *testing.T) {
	g := newGate(t, nil)
	l := fighter(t, character.WithItems(character.ItemStack{ItemID: "torch", Quantity: 1}))

	out := g.ApplyProposedChanges(l, authority.ProposedDelta{
		InventoryAdd:    []string{"vorpal sword"},
		InventoryRemove: []string{"torch"},
	}, authority.TurnContext{Intent: intent.Classify("I wave my torch")})

	assert.Empty(t, out.Applied.InventoryAdded)
	assert.Empty(t, out.Applied.InventoryRemoved)
	assert.Equal(t, 1, l.Quantity("torch"))
	assert.Len(t, out.Audit, 2)
}

func TestApplyProposedChanges_PassThrough(t *testing.T) {
	g := newGate(t, nil)
	l := fighter(t, character.WithHP(5))

	out := g.ApplyProposedChanges(l, authority.ProposedDelta{
		HPDelta:    10,
		XPDelta:    25,
		Location:   "Crypt",
		WorldFlags: map[string]string{"crypt_door": "open"},
	}, authority.TurnContext{})

	assert.Equal(t, 3, out.Applied.HPDelta, "clamped at max HP")
	assert.Equal(t, 8, l.HP())
	assert.Equal(t, 25, l.XP)
	assert.Equal(t, "Crypt", l.Location)
	assert.Equal(t, "open", l.Flags["crypt_door"])
	assert.Empty(t, out.Audit)
}

func TestApplyProposedChanges_HPDamageClampsAtZero(t *testing.T) {
	g := newGate(t, nil)
	l := fighter(t, character.WithHP(2))
	out := g.ApplyProposedChanges(l, authority.ProposedDelta{HPDelta: -9}, authority.TurnContext{})
	assert.Equal(t, -2, out.Applied.HPDelta)
	assert.Equal(t, 0, l.HP())
}

func TestApplyProposedChanges_CombatDefersHP(t *testing.T) {
	g := newGate(t, nil)
	l := fighter(t, character.WithHP(2))
	out := g.ApplyProposedChanges(l, authority.ProposedDelta{HPDelta: 6}, authority.TurnContext{InCombat: true})
	assert.Equal(t, 0, out.Applied.HPDelta)
	assert.Equal(t, 2, l.HP())
	require.Len(t, out.Audit, 1)
	assert.Equal(t, authority.AuditDeferred, out.Audit[0].Action)
}

func TestApplyProposedChanges_NegativeXPIgnored(t *testing.T) {
	g := newGate(t, nil)
	l := fighter(t)
	l.XP = 10
	out := g.ApplyProposedChanges(l, authority.ProposedDelta{XPDelta: -5}, authority.TurnContext{})
	assert.Zero(t, out.Applied.XPDelta)
	assert.Equal(t, 10, l.XP)
}

func TestReconcile_SellUsesCatalogPrice(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	g := newGate(t, zap.New(core))
	l := fighter(t, character.WithItems(character.ItemStack{ItemID: "torch", Quantity: 1}))

	out := g.ApplyProposedChanges(l, authority.ProposedDelta{
		GoldDelta:       100,
		InventoryRemove: []string{"Torch"},
	}, authority.TurnContext{Intent: intent.Classify("sell it to the merchant")})

	assert.Equal(t, 2, out.Applied.GoldDelta, "floor(4/2), never the narrator's 100")
	assert.Equal(t, []string{"torch"}, out.Applied.InventoryRemoved)
	assert.Equal(t, []authority.Reconciliation{{Kind: "sell", ItemID: "torch", Gold: 2}}, out.Applied.Reconciled)
	assert.Equal(t, 2, l.Gold())
	assert.False(t, l.Has("torch"))

	actions := map[authority.AuditAction]int{}
	for _, r := range out.Audit {
		actions[r.Action]++
	}
	assert.Equal(t, 2, actions[authority.AuditRejected])
	assert.Equal(t, 1, actions[authority.AuditReconciled])
	assert.Equal(t, 1, logs.FilterMessage("reconciled narrator sale").Len())
}

func TestReconcile_SellNeverManufacturesItems(t *testing.T) {
	g := newGate(t, nil)
	l := fighter(t)
	out := g.ApplyProposedChanges(l, authority.ProposedDelta{
		GoldDelta:       50,
		InventoryRemove: []string{"torch", "crown jewels"},
	}, authority.TurnContext{Intent: intent.Classify("sell the torch")})

	assert.Zero(t, out.Applied.GoldDelta)
	assert.Empty(t, out.Applied.Reconciled)
	assert.Zero(t, l.Gold())
}

func TestReconcile_SkippedWhenCommerceHandled(t *testing.T) {
	g := newGate(t, nil)
	l := fighter(t, character.WithItems(character.ItemStack{ItemID: "torch", Quantity: 2}))
	out := g.ApplyProposedChanges(l, authority.ProposedDelta{InventoryRemove: []string{"torch"}},
		authority.TurnContext{Intent: intent.Classify("sell my torch"), CommerceHandled: true})

	assert.Empty(t, out.Applied.Reconciled)
	assert.Equal(t, 2, l.Quantity("torch"))
}

func TestReconcile_Buy(t *testing.T) {
	g := newGate(t, nil)
	l := fighter(t, character.WithGold(5))
	out := g.ApplyProposedChanges(l, authority.ProposedDelta{
		GoldDelta:    -1,
		InventoryAdd: []string{"hemp rope", "short sword"},
	}, authority.TurnContext{Intent: intent.Classify("buy some supplies")})

	assert.Equal(t, -3, out.Applied.GoldDelta)
	assert.Equal(t, []string{"rope"}, out.Applied.InventoryAdded, "the sword costs 7, more than the 2 gold left")
	assert.Equal(t, 2, l.Gold())
	assert.Equal(t, 1, l.Quantity("rope"))
	assert.False(t, l.Has("short_sword"))
}

func TestProperty_ResourceProposalsNeverApplyWithoutCommerceIntent(t *testing.T) {
	g := newGate(t, nil)
	rapid.Check(t, func(rt *rapid.T) {
		l := fighter(t, character.WithGold(rapid.IntRange(0, 50).Draw(rt, "gold")),
			character.WithItems(character.ItemStack{ItemID: "torch", Quantity: rapid.IntRange(1, 3).Draw(rt, "torches")}))
		before := l.Clone()
		names := rapid.SliceOfN(rapid.SampledFrom([]string{"torch", "rope", "short sword", "gem"}), 0, 4)
		proposed := authority.ProposedDelta{
			GoldDelta:       rapid.IntRange(-1000, 1000).Draw(rt, "gold_delta"),
			InventoryAdd:    names.Draw(rt, "add"),
			InventoryRemove: names.Draw(rt, "remove"),
		}
		text := rapid.SampledFrom([]string{"look around", "attack the goblin", "search", "I flee"}).Draw(rt, "text")

		out := g.ApplyProposedChanges(l, proposed, authority.TurnContext{Intent: intent.Classify(text)})

		if out.Applied.GoldDelta != 0 || len(out.Applied.InventoryAdded) != 0 || len(out.Applied.InventoryRemoved) != 0 {
			rt.Fatalf("applied resource change %+v", out.Applied)
		}
		if l.Gold() != before.Gold() {
			rt.Fatalf("gold changed %d -> %d", before.Gold(), l.Gold())
		}
		assert.Equal(rt, before.Inventory(), l.Inventory())
		if proposed.HasResourceChanges() && len(out.Audit) == 0 {
			rt.Fatalf("rejection not audited")
		}
	})
}

func TestProposedDelta_HasResourceChanges(t *testing.T) {
	assert.False(t, authority.ProposedDelta{HPDelta: -3, Location: "x"}.HasResourceChanges())
	assert.True(t, authority.ProposedDelta{GoldDelta: -1}.HasResourceChanges())
	assert.True(t, authority.ProposedDelta{InventoryRemove: []string{"x"}}.HasResourceChanges())
}
