package narrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
	"github.com/greggjuri/chaos-dungeon/internal/game/combat"
	"github.com/greggjuri/chaos-dungeon/internal/game/confirm"
	"github.com/greggjuri/chaos-dungeon/internal/game/engine"
)

// Static is a deterministic Narrator built only from the resolved outcome.
// It is the offline provider and the fallback when a model is unavailable.
type Static struct{}

// NewStatic returns a Static narrator.
func NewStatic() Static { return Static{} }

// Narrate implements Narrator.
func (Static) Narrate(_ context.Context, req engine.NarrationRequest, _ string) (string, error) {
	return Describe(req), nil
}

// ParseProposedIntent implements Narrator. Static has no world model, so it
// proposes nothing.
func (Static) ParseProposedIntent(context.Context, IntentRequest) (authority.ProposedDelta, error) {
	return authority.ProposedDelta{}, nil
}

// ClassifyHostility implements confirm.Classifier. Static never has an opinion.
func (Static) ClassifyHostility(context.Context, string, string) (confirm.Hostility, bool, error) {
	return confirm.NonHostile, false, nil
}

// Describe renders req as plain sentences.
func Describe(req engine.NarrationRequest) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, format, args...)
	}

	if req.DroppedLoot != nil && !req.DroppedLoot.Empty() {
		line("The unclaimed spoils are lost as new foes close in.")
	}
	switch req.Kind {
	case engine.OutcomeCombatStarted:
		line("Combat begins against %s!", enemyList(req.Enemies))
	case engine.OutcomeConfirmRequired:
		if req.Confirmation != nil {
			line("%s does not seem hostile. Attack anyway? (yes/no)", capitalize(req.Confirmation.TargetDescriptor))
		}
	case engine.OutcomeConfirmCancelled:
		line("You lower your weapon.")
	case engine.OutcomeDead:
		line("%s is dead. The adventure is over.", req.Player.Name)
		return b.String()
	}

	for _, ev := range req.Events {
		line("%s", describeEvent(ev))
	}

	switch req.Kind {
	case engine.OutcomeVictory:
		line("Victory! You gain %d XP.", req.XPAwarded)
		if req.LootPending {
			line("The fallen may carry something worth taking.")
		}
	case engine.OutcomeDeath:
		line("You fall, and do not rise.")
	case engine.OutcomeFled:
		line("You escape.")
	case engine.OutcomeLootClaimed:
		if req.Loot != nil {
			line("You find %d gold%s.", req.Loot.Gold, itemSuffix(req.Loot.Items))
		}
	case engine.OutcomeNothingFound:
		line("You search but find nothing of value.")
	case engine.OutcomeSold:
		if req.Sale != nil {
			line("You sell the %s for %d gold.", req.Sale.ItemName, req.Sale.GoldGained)
		} else {
			line("The sale is made at the going rate.")
		}
	case engine.OutcomeBought:
		if req.Purchase != nil {
			line("You buy the %s for %d gold.", req.Purchase.ItemName, req.Purchase.Price)
		} else {
			line("The purchase is made at the going rate.")
		}
	case engine.OutcomeTransactionFailed, engine.OutcomeItemFailed, engine.OutcomeActionUnavailable:
		if len(req.Notes) > 0 {
			line("%s.", capitalize(req.Notes[0]))
		} else {
			line("Nothing happens.")
		}
	case engine.OutcomeItemUsed:
		if req.ItemUse != nil && req.Events == nil {
			line("You use the %s and recover %d HP.", req.ItemUse.ItemName, req.ItemUse.Healed)
		}
	case engine.OutcomeExploration:
		if b.Len() == 0 {
			line("You press on into the dark.")
		}
	}

	if req.Kind == engine.OutcomeCombatRound || (req.Kind == engine.OutcomeCombatStarted && req.CombatResult == combat.ResultNone) {
		line("You have %d/%d HP.", req.Player.HP, req.Player.MaxHP)
	}
	return b.String()
}

func describeEvent(ev engine.Event) string {
	switch ev.Action {
	case "attack":
		switch {
		case ev.Fumble:
			return fmt.Sprintf("%s fumbles the attack on %s.", ev.Actor, ev.Target)
		case !ev.Hit:
			return fmt.Sprintf("%s misses %s.", ev.Actor, ev.Target)
		case ev.Killed:
			return fmt.Sprintf("%s strikes %s for %d damage, felling them.", ev.Actor, ev.Target, ev.Damage)
		default:
			return fmt.Sprintf("%s hits %s for %d damage.", ev.Actor, ev.Target, ev.Damage)
		}
	case "defend":
		return fmt.Sprintf("%s takes a defensive stance.", ev.Actor)
	case "flee":
		if ev.Hit {
			return fmt.Sprintf("%s breaks away.", ev.Actor)
		}
		return fmt.Sprintf("%s tries to flee but is cut off.", ev.Actor)
	case "use_item":
		return fmt.Sprintf("%s uses the %s.", ev.Actor, ev.Target)
	default:
		return fmt.Sprintf("%s acts.", ev.Actor)
	}
}

func enemyList(enemies []engine.EnemyStatus) string {
	names := make([]string, 0, len(enemies))
	for _, e := range enemies {
		names = append(names, e.Name)
	}
	switch len(names) {
	case 0:
		return "an unseen foe"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

func itemSuffix(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return " and " + strings.ReplaceAll(strings.Join(items, ", "), "_", " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
