package authority

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/game/character"
	"github.com/greggjuri/chaos-dungeon/internal/game/commerce"
	"github.com/greggjuri/chaos-dungeon/internal/game/intent"
)

// Commerce executes validated transactions; *commerce.Resolver satisfies it.
type Commerce interface {
	ExecuteSell(l *character.Ledger, itemID string) (commerce.SellResult, error)
	ExecuteBuy(l *character.Ledger, itemID string, price int) (commerce.BuyResult, error)
	CatalogPrice(itemID string) (int, error)
}

// ItemResolver maps narrator item text to catalog IDs; *inventory.Registry satisfies it.
type ItemResolver interface {
	Resolve(text string) (string, bool)
}

// TurnContext is what the caller knows about the turn that produced a proposal.
type TurnContext struct {
	Intent intent.Intent
	// CommerceHandled is true when the turn already executed a transaction
	// directly, so reconciliation must not repeat it.
	CommerceHandled bool
	// InCombat defers narrator HP changes to combat authority.
	InCombat bool
}

// Outcome is the result of gating one proposal.
type Outcome struct {
	Applied AppliedDelta
	Audit   []AuditRecord
}

// Gate validates narrator proposals against the ledger.
type Gate struct {
	commerce Commerce
	items    ItemResolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewGate returns a Gate.
//
// Precondition: commerce and items must not be nil.
func NewGate(c Commerce, items ItemResolver, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{commerce: c, items: items, logger: logger, now: time.Now}
}

// ApplyProposedChanges gates proposed against l.
//
// Any non-zero GoldDelta and any InventoryAdd or InventoryRemove entry is
// rejected and audited. When the turn's intent was a sale (or purchase) that
// was not already executed, rejected removals (or additions) naming items the
// catalog knows are replayed through Commerce at catalog prices. HP, XP,
// location and world flags are applied directly.
//
// Postcondition: l.Gold() and l.Inventory() change only through Commerce;
// 0 <= l.HP() <= l.MaxHP().
func (g *Gate) ApplyProposedChanges(l *character.Ledger, proposed ProposedDelta, tc TurnContext) Outcome {
	proposed = proposed.clone()
	var out Outcome
	intentLabel := tc.Intent.Kind.String()

	if proposed.GoldDelta != 0 {
		out.Audit = append(out.Audit, g.record(AuditRejected, "gold_delta", fmt.Sprintf("%+d", proposed.GoldDelta), intentLabel, ""))
	}
	if len(proposed.InventoryAdd) > 0 {
		out.Audit = append(out.Audit, g.record(AuditRejected, "inventory_add", strings.Join(proposed.InventoryAdd, ","), intentLabel, ""))
	}
	if len(proposed.InventoryRemove) > 0 {
		out.Audit = append(out.Audit, g.record(AuditRejected, "inventory_remove", strings.Join(proposed.InventoryRemove, ","), intentLabel, ""))
	}
	for _, rec := range out.Audit {
		g.logger.Warn("rejected narrator resource change",
			zap.String("audit_id", rec.ID),
			zap.String("field", rec.Field),
			zap.String("proposed", rec.Proposed),
			zap.String("intent", rec.Intent),
		)
	}

	if !tc.CommerceHandled {
		switch tc.Intent.Kind {
		case intent.KindSell:
			for _, name := range proposed.InventoryRemove {
				g.reconcileSell(l, name, intentLabel, &out)
			}
		case intent.KindBuy:
			for _, name := range proposed.InventoryAdd {
				g.reconcileBuy(l, name, intentLabel, &out)
			}
		}
	}

	if proposed.HPDelta != 0 {
		if tc.InCombat {
			out.Audit = append(out.Audit, g.record(AuditDeferred, "hp_delta", fmt.Sprintf("%+d", proposed.HPDelta), intentLabel, "combat owns hit points"))
		} else {
			out.Applied.HPDelta = l.ApplyHPDelta(proposed.HPDelta)
		}
	}
	out.Applied.XPDelta = l.AddXP(proposed.XPDelta)
	if proposed.Location != "" {
		l.Location = proposed.Location
		out.Applied.Location = proposed.Location
	}
	if len(proposed.WorldFlags) > 0 {
		if l.Flags == nil {
			l.Flags = make(map[string]string, len(proposed.WorldFlags))
		}
		for k, v := range proposed.WorldFlags {
			l.Flags[k] = v
		}
		out.Applied.WorldFlags = proposed.WorldFlags
	}
	if out.Applied.InventoryAdded == nil {
		out.Applied.InventoryAdded = []string{}
	}
	if out.Applied.InventoryRemoved == nil {
		out.Applied.InventoryRemoved = []string{}
	}
	return out
}

func (g *Gate) reconcileSell(l *character.Ledger, name, intentLabel string, out *Outcome) {
	id, ok := g.items.Resolve(name)
	if !ok || !l.Has(id) {
		return
	}
	res, err := g.commerce.ExecuteSell(l, id)
	if err != nil {
		g.logger.Warn("sell reconciliation failed", zap.String("item_id", id), zap.Error(err))
		return
	}
	out.Applied.GoldDelta += res.GoldGained
	out.Applied.InventoryRemoved = append(out.Applied.InventoryRemoved, id)
	out.Applied.Reconciled = append(out.Applied.Reconciled, Reconciliation{Kind: "sell", ItemID: id, Gold: res.GoldGained})
	rec := g.record(AuditReconciled, "inventory_remove", name, intentLabel, fmt.Sprintf("sold %s for %d gold at catalog price", id, res.GoldGained))
	out.Audit = append(out.Audit, rec)
	g.logger.Warn("reconciled narrator sale", zap.String("audit_id", rec.ID), zap.String("item_id", id), zap.Int("gold", res.GoldGained))
}

func (g *Gate) reconcileBuy(l *character.Ledger, name, intentLabel string, out *Outcome) {
	id, ok := g.items.Resolve(name)
	if !ok {
		return
	}
	price, err := g.commerce.CatalogPrice(id)
	if err != nil {
		return
	}
	res, err := g.commerce.ExecuteBuy(l, id, price)
	if err != nil {
		if !errors.Is(err, commerce.ErrInsufficientGold) {
			g.logger.Warn("buy reconciliation failed", zap.String("item_id", id), zap.Error(err))
		}
		return
	}
	out.Applied.GoldDelta -= res.Price
	out.Applied.InventoryAdded = append(out.Applied.InventoryAdded, id)
	out.Applied.Reconciled = append(out.Applied.Reconciled, Reconciliation{Kind: "buy", ItemID: id, Gold: res.Price})
	rec := g.record(AuditReconciled, "inventory_add", name, intentLabel, fmt.Sprintf("bought %s for %d gold at catalog price", id, res.Price))
	out.Audit = append(out.Audit, rec)
	g.logger.Warn("reconciled narrator purchase", zap.String("audit_id", rec.ID), zap.String("item_id", id), zap.Int("gold", res.Price))
}

func (g *Gate) record(action AuditAction, field, proposed, intentLabel, detail string) AuditRecord {
	return AuditRecord{
		ID:       ulid.Make().String(),
		At:       g.now().UTC(),
		Action:   action,
		Field:    field,
		Proposed: proposed,
		Intent:   intentLabel,
		Detail:   detail,
	}
}
