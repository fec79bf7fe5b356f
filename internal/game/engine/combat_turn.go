package engine

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/game/combat"
	"github.com/greggjuri/chaos-dungeon/internal/game/intent"
)

// startCombat opens an encounter, discarding any unclaimed loot. When the
// enemies win initiative their opening phase is resolved immediately.
func (e *Engine) startCombat(t *turn, enemies []string) bool {
	if t.s.PendingLoot != nil {
		t.logger.Info("pending loot discarded by new combat",
			zap.Int("gold", t.s.PendingLoot.Gold),
			zap.Strings("items", t.s.PendingLoot.Items),
		)
		t.req.DroppedLoot = t.s.PendingLoot
		t.s.PendingLoot = nil
	}
	state, err := e.machine.InitiateCombat(enemies, t.roller)
	if err != nil {
		t.logger.Warn("combat could not start", zap.Strings("enemies", enemies), zap.Error(err))
		t.req.note("no enemies to fight")
		return false
	}
	t.s.Combat = state
	t.s.PendingConfirmation = nil
	t.combatStarted = true
	t.req.Kind = OutcomeCombatStarted
	if state.Phase == combat.PhaseEnemyTurn {
		e.enemyPhase(t)
	}
	return true
}

// combatTurn maps the player's intent to a combat action and resolves the
// round. Commerce and searching are refused without spending the turn;
// anything else unrecognised is an attack.
func (e *Engine) combatTurn(t *turn) {
	state := t.s.Combat
	if state.Phase == combat.PhaseEnemyTurn {
		e.enemyPhase(t)
		if t.s.Combat == nil {
			return
		}
	}
	t.req.Kind = OutcomeCombatRound

	var action combat.Action
	switch t.intent.Kind {
	case intent.KindDefend:
		action = combat.Defend()
	case intent.KindFlee:
		action = combat.Flee()
	case intent.KindUseItem:
		id, ok := e.items.Resolve(t.intent.Object)
		if !ok {
			t.req.Kind = OutcomeItemFailed
			t.req.note("no such item: " + t.intent.Object)
			return
		}
		action = combat.UseItem(id)
	case intent.KindSell, intent.KindBuy, intent.KindSearch:
		t.req.Kind = OutcomeActionUnavailable
		t.req.note("not while enemies are fighting")
		// Refused here, so the gate must not reconcile it into a trade.
		t.commerceHandled = true
		return
	default:
		action = combat.Attack(matchEnemy(state, t.intent.Object))
	}
	e.playerAction(t, action)
}

// playerAction resolves one player action, retrying an attack on the first
// living enemy when the named target is invalid, then runs the enemy phase.
func (e *Engine) playerAction(t *turn, action combat.Action) {
	state := t.s.Combat
	res, err := e.machine.ResolvePlayerTurn(state, t.s.Character, action, t.roller)
	if errors.Is(err, combat.ErrInvalidTarget) {
		first, ok := state.FirstLivingEnemy()
		if !ok {
			return
		}
		t.logger.Debug("defaulting attack target", zap.String("requested", action.TargetID), zap.String("target", first.ID))
		res, err = e.machine.ResolvePlayerTurn(state, t.s.Character, combat.Attack(first.ID), t.roller)
	}
	if err != nil {
		if action.Kind == combat.ActionUseItem {
			t.req.Kind = OutcomeItemFailed
			t.req.note(err.Error())
			return
		}
		t.logger.Error("player action failed", zap.Stringer("action", action.Kind), zap.Error(err))
		t.req.note("the moment passes")
		return
	}

	if res.Attack != nil {
		t.req.Events = append(t.req.Events, e.attackEvent(t, *res.Attack))
	}
	if res.ItemUse != nil {
		t.req.ItemUse = res.ItemUse
		t.req.Events = append(t.req.Events, Event{Round: state.Round, Actor: t.s.Character.Name, Action: "use_item", Target: res.ItemUse.ItemName, TargetHP: res.ItemUse.HPAfter})
	}
	if res.Defended {
		t.req.Events = append(t.req.Events, Event{Round: state.Round, Actor: t.s.Character.Name, Action: "defend", TargetHP: t.s.Character.HP()})
	}
	if action.Kind == combat.ActionFlee {
		t.req.Events = append(t.req.Events, Event{Round: state.Round, Actor: t.s.Character.Name, Action: "flee", Hit: res.Fled, TargetHP: t.s.Character.HP()})
	}
	if res.End != combat.ResultNone {
		e.endCombat(t)
		return
	}
	e.enemyPhase(t)
}

func (e *Engine) enemyPhase(t *turn) {
	state := t.s.Combat
	results, err := e.machine.ResolveEnemyPhase(state, t.s.Character, t.roller)
	if err != nil {
		t.logger.Error("enemy phase failed", zap.Error(err))
		return
	}
	for _, r := range results {
		t.req.Events = append(t.req.Events, e.attackEvent(t, r))
	}
	if state.Phase == combat.PhaseEnded {
		e.endCombat(t)
	}
}

// endCombat applies the end condition and clears the encounter. Victory awards
// XP and rolls pending loot; death and flight leave no loot.
func (e *Engine) endCombat(t *turn) {
	state := t.s.Combat
	t.req.CombatResult = state.Result
	t.req.Enemies = enemyStatuses(state)
	switch state.Result {
	case combat.ResultVictory:
		defeated := state.DefeatedEnemies()
		xp := 0
		for _, en := range defeated {
			xp += en.XP
		}
		t.req.XPAwarded = t.s.Character.AddXP(xp)
		t.s.PendingLoot = e.loot.RollLoot(defeated, t.roller)
		t.req.Kind = OutcomeVictory
	case combat.ResultDeath:
		t.req.Kind = OutcomeDeath
	case combat.ResultFled:
		t.req.Kind = OutcomeFled
	}
	t.logger.Info("combat ended", zap.Stringer("result", state.Result), zap.Int("rounds", state.Round))
	t.s.Combat = nil
}

func (e *Engine) attackEvent(t *turn, r combat.AttackResult) Event {
	name := func(id string) string {
		if id == combat.PlayerID {
			return t.s.Character.Name
		}
		if t.s.Combat != nil {
			if en, ok := t.s.Combat.Enemy(id); ok {
				return en.DisplayName
			}
		}
		return id
	}
	round := 0
	if t.s.Combat != nil {
		round = t.s.Combat.Round
	}
	return Event{
		Round:    round,
		Actor:    name(r.AttackerID),
		Action:   "attack",
		Target:   name(r.TargetID),
		Hit:      r.Hit,
		Fumble:   r.Fumble,
		Damage:   r.Damage,
		TargetHP: r.TargetHP,
		Killed:   r.Killed,
	}
}

// matchEnemy maps free text to an enemy ID by ID, display name or base name,
// preferring living enemies. Unmatched text is returned unchanged so the
// machine reports ErrInvalidTarget.
func matchEnemy(s *combat.State, text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		if first, ok := s.FirstLivingEnemy(); ok {
			return first.ID
		}
		return ""
	}
	for _, en := range s.Enemies {
		if strings.EqualFold(en.ID, text) || strings.EqualFold(en.DisplayName, text) {
			return en.ID
		}
	}
	for _, en := range s.LivingEnemies() {
		base := strings.ToLower(en.BaseName)
		if base == text || base+"s" == text || strings.Contains(text, base) {
			return en.ID
		}
	}
	return text
}
