package engine

import (
	"errors"

	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/game/combat"
	"github.com/greggjuri/chaos-dungeon/internal/game/commerce"
	"github.com/greggjuri/chaos-dungeon/internal/game/confirm"
	"github.com/greggjuri/chaos-dungeon/internal/game/intent"
	"github.com/greggjuri/chaos-dungeon/internal/game/loot"
)

// confirmationTurn resolves the player's reply to a held attack. Confirm
// replays the attack, cancel drops it, and anything else drops it and is
// processed as a fresh exploration turn.
func (e *Engine) confirmationTurn(t *turn) {
	pending := t.s.PendingConfirmation
	t.s.PendingConfirmation = nil
	switch t.intent.Kind {
	case intent.KindConfirm:
		t.logger.Info("attack confirmed", zap.String("target", pending.TargetDescriptor))
		e.beginAttack(t, pending.Enemies, pending.TargetDescriptor)
	case intent.KindCancel:
		t.req.Kind = OutcomeConfirmCancelled
		t.req.note("left " + pending.TargetDescriptor + " alone")
	default:
		e.explorationTurn(t)
	}
}

func (e *Engine) explorationTurn(t *turn) {
	switch t.intent.Kind {
	case intent.KindAttack:
		e.attackOutsideCombat(t)
	case intent.KindSell:
		e.sell(t)
	case intent.KindBuy:
		e.buy(t)
	case intent.KindSearch:
		e.search(t)
	case intent.KindUseItem:
		e.useItem(t)
	}
	if !t.combatStarted && t.intent.Kind != intent.KindAttack && len(t.in.Proposed.Enemies) > 0 {
		t.logger.Info("ambush", zap.Strings("enemies", t.in.Proposed.Enemies))
		e.startCombat(t, t.in.Proposed.Enemies)
	}
}

// attackOutsideCombat starts combat against the narrator's proposed enemies,
// or the named target when the narrator proposed none, after passing the
// confirmation gate.
func (e *Engine) attackOutsideCombat(t *turn) {
	enemies := t.in.Proposed.Enemies
	if len(enemies) == 0 && t.intent.Object != "" {
		enemies = []string{t.intent.Object}
	}
	if len(enemies) == 0 {
		t.req.note("there is nothing to attack")
		return
	}
	target := t.intent.Object
	if target == "" {
		target = enemies[0]
	}
	hostility := confirm.NonHostile
	if t.in.TargetHostility != nil {
		hostility = *t.in.TargetHostility
	}
	if confirm.Evaluate(e.opts.ConfirmNonHostile, hostility) == confirm.Hold {
		t.s.PendingConfirmation = &confirm.Pending{
			TargetDescriptor: target,
			OriginalAction:   t.in.Text,
			CreatedAt:        t.in.Now.UTC(),
			Enemies:          append([]string(nil), enemies...),
		}
		t.req.Kind = OutcomeConfirmRequired
		return
	}
	e.beginAttack(t, enemies, target)
}

// beginAttack starts combat and replays the player's attack if they are
// still able to act after any opening enemy phase.
func (e *Engine) beginAttack(t *turn, enemies []string, target string) {
	if !e.startCombat(t, enemies) {
		return
	}
	state := t.s.Combat
	if state == nil || state.Phase != combat.PhaseAwaitingPlayerAction {
		return
	}
	e.playerAction(t, combat.Attack(matchEnemy(state, target)))
}

func (e *Engine) sell(t *turn) {
	id, ok := e.items.Resolve(t.intent.Object)
	if !ok {
		return
	}
	t.commerceHandled = true
	res, err := e.commerce.ExecuteSell(t.s.Character, id)
	if err != nil {
		t.req.Kind = OutcomeTransactionFailed
		if errors.Is(err, commerce.ErrItemNotOwned) {
			t.req.note("nothing to sell")
		} else {
			t.req.note(err.Error())
		}
		return
	}
	t.req.Kind = OutcomeSold
	t.req.Sale = &res
}

func (e *Engine) buy(t *turn) {
	id, ok := e.items.Resolve(t.intent.Object)
	if !ok {
		return
	}
	t.commerceHandled = true
	price, err := e.commerce.CatalogPrice(id)
	if err == nil {
		var res commerce.BuyResult
		res, err = e.commerce.ExecuteBuy(t.s.Character, id, price)
		if err == nil {
			t.req.Kind = OutcomeBought
			t.req.Purchase = &res
			return
		}
	}
	t.req.Kind = OutcomeTransactionFailed
	if errors.Is(err, commerce.ErrInsufficientGold) {
		t.req.note("not enough gold")
	} else {
		t.req.note(err.Error())
	}
}

func (e *Engine) search(t *turn) {
	claimed, err := loot.ClaimPendingLoot(t.s)
	if err != nil {
		t.logger.Error("loot claim failed", zap.Error(err))
	}
	if claimed == nil {
		t.req.Kind = OutcomeNothingFound
		return
	}
	t.req.Kind = OutcomeLootClaimed
	t.req.Loot = claimed
}

func (e *Engine) useItem(t *turn) {
	id, ok := e.items.Resolve(t.intent.Object)
	if !ok {
		t.req.Kind = OutcomeItemFailed
		t.req.note("no such item: " + t.intent.Object)
		return
	}
	res, err := e.items.Use(t.s.Character, id, t.roller)
	if err != nil {
		t.req.Kind = OutcomeItemFailed
		t.req.note(err.Error())
		return
	}
	t.req.Kind = OutcomeItemUsed
	t.req.ItemUse = &res
}
