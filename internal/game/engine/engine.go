// Package engine exposes ProcessTurn, the single entry point that resolves one
// player input against a Session: confirmation gate, combat, loot, commerce
// and the resource authority gate. It performs no I/O and holds no state
// between calls.
package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
	"github.com/greggjuri/chaos-dungeon/internal/game/bestiary"
	"github.com/greggjuri/chaos-dungeon/internal/game/combat"
	"github.com/greggjuri/chaos-dungeon/internal/game/commerce"
	"github.com/greggjuri/chaos-dungeon/internal/game/confirm"
	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
	"github.com/greggjuri/chaos-dungeon/internal/game/intent"
	"github.com/greggjuri/chaos-dungeon/internal/game/inventory"
	"github.com/greggjuri/chaos-dungeon/internal/game/loot"
	"github.com/greggjuri/chaos-dungeon/internal/game/session"
)

// Input is one player turn plus what the caller learned from the narrator
// before resolution.
type Input struct {
	Text string
	// Proposed is the narrator's parsed intent for Text. Only its enemy list,
	// HP, XP, location and flags can take effect.
	Proposed authority.ProposedDelta
	// TargetHostility classifies the attack target when Text is an attack
	// outside combat. Nil is treated as non-hostile.
	TargetHostility *confirm.Hostility
	Now             time.Time
}

// Options configure an Engine.
type Options struct {
	Rules combat.Rules
	// ConfirmNonHostile enables the pre-combat confirmation gate.
	ConfirmNonHostile bool
}

// Engine resolves turns. It is safe for concurrent use across sessions; the
// caller must serialize calls for one session.
type Engine struct {
	machine  *combat.Machine
	loot     *loot.Engine
	commerce *commerce.Resolver
	gate     *authority.Gate
	items    *inventory.Registry
	opts     Options
	logger   *zap.Logger
}

// New wires an Engine from its content.
//
// Precondition: all collaborators must be non-nil.
func New(b *bestiary.Bestiary, items *inventory.Registry, lootEngine *loot.Engine, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := commerce.NewResolver(items)
	return &Engine{
		machine:  combat.NewMachine(b, items, opts.Rules, logger),
		loot:     lootEngine,
		commerce: resolver,
		gate:     authority.NewGate(resolver, items, logger),
		items:    items,
		opts:     opts,
		logger:   logger,
	}
}

// turn carries the working state of one ProcessTurn call.
type turn struct {
	s               *session.Session
	in              Input
	intent          intent.Intent
	roller          *dice.Roller
	req             *NarrationRequest
	logger          *zap.Logger
	commerceHandled bool
	combatStarted   bool
}

// ProcessTurn resolves in against a copy of s using src for every roll.
//
// Postcondition: s is not modified; the returned session is independent of s;
// every failure degrades to a narrated no-op, so no error is returned.
func (e *Engine) ProcessTurn(s *session.Session, in Input, src dice.Source) (*session.Session, NarrationRequest) {
	next := s.Clone()
	next.Turn++
	if !in.Now.IsZero() {
		next.UpdatedAt = in.Now.UTC()
	}
	logger := e.logger.With(zap.String("session_id", next.ID), zap.Int("turn", next.Turn))
	t := &turn{
		s:      next,
		in:     in,
		intent: intent.Classify(in.Text),
		roller: dice.NewLoggedRoller(src, logger),
		req:    &NarrationRequest{Kind: OutcomeExploration, PlayerText: in.Text},
		logger: logger,
	}
	t.req.Intent = t.intent.Kind.String()
	startMode := next.Mode()

	switch {
	case next.Character.IsDead():
		t.req.Kind = OutcomeDead
		t.req.note("the character is dead")
		e.finish(t)
		return next, *t.req
	case startMode == session.ModeInCombat:
		e.combatTurn(t)
	case startMode == session.ModeAwaitingConfirmation:
		e.confirmationTurn(t)
	default:
		e.explorationTurn(t)
	}

	proposed := in.Proposed
	proposed.Enemies = nil
	out := e.gate.ApplyProposedChanges(next.Character, proposed, authority.TurnContext{
		Intent:          t.intent,
		CommerceHandled: t.commerceHandled,
		InCombat:        startMode == session.ModeInCombat || t.combatStarted,
	})
	t.req.Applied = out.Applied
	t.req.Audit = out.Audit
	for _, r := range out.Applied.Reconciled {
		switch {
		case r.Kind == "sell" && t.req.Kind == OutcomeExploration:
			t.req.Kind = OutcomeSold
		case r.Kind == "buy" && t.req.Kind == OutcomeExploration:
			t.req.Kind = OutcomeBought
		}
	}
	e.finish(t)
	return next, *t.req
}

// finish fills the status snapshot shared by every outcome.
func (e *Engine) finish(t *turn) {
	l := t.s.Character
	t.req.Mode = t.s.Mode()
	t.req.Player = PlayerStatus{
		Name:   l.Name,
		Class:  l.Class,
		HP:     l.HP(),
		MaxHP:  l.MaxHP(),
		Gold:   l.Gold(),
		XP:     l.XP,
		IsDead: l.IsDead(),
	}
	if t.s.Combat != nil {
		t.req.Enemies = enemyStatuses(t.s.Combat)
	}
	t.req.LootPending = t.s.PendingLoot != nil
	t.req.Confirmation = t.s.PendingConfirmation.Clone()
}

func enemyStatuses(s *combat.State) []EnemyStatus {
	out := make([]EnemyStatus, 0, len(s.Enemies))
	for _, en := range s.Enemies {
		out = append(out, EnemyStatus{
			ID:     en.ID,
			Name:   en.DisplayName,
			HP:     en.HP,
			MaxHP:  en.MaxHP,
			Health: en.HealthDescription(),
			IsDead: en.IsDead(),
		})
	}
	return out
}
