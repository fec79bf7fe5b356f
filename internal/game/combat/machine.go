package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/game/bestiary"
	"github.com/greggjuri/chaos-dungeon/internal/game/character"
	"github.com/greggjuri/chaos-dungeon/internal/game/inventory"
)

// Rules are the tunable constants of combat resolution.
type Rules struct {
	// FleeDifficulty is the d20 + DEX target for a successful flee.
	FleeDifficulty int
	// DefendACBonus is added to player AC during the enemy phase after Defend.
	DefendACBonus int
	// NaturalTwentyCrit doubles damage dice on a natural 20 (house rule).
	NaturalTwentyCrit bool
}

// DefaultRules returns BECMI defaults: flee DC 10, defend +2, no crits.
func DefaultRules() Rules {
	return Rules{FleeDifficulty: 10, DefendACBonus: 2}
}

// Spawner creates enemy instances; *bestiary.Bestiary satisfies it.
type Spawner interface {
	Spawn(typeNames []string, roller bestiary.Roller) ([]*bestiary.EnemyInstance, error)
}

// ItemUser consumes an item from a ledger; *inventory.Registry satisfies it.
type ItemUser interface {
	Use(l *character.Ledger, itemID string, roller inventory.HealRoller) (inventory.UseResult, error)
}

// Machine resolves encounters. It holds no per-session state; every call
// receives the State, the Ledger and the per-call Roller explicitly.
type Machine struct {
	spawner Spawner
	items   ItemUser
	rules   Rules
	logger  *zap.Logger
}

// NewMachine returns a Machine.
//
// Precondition: spawner and items must not be nil.
func NewMachine(spawner Spawner, items ItemUser, rules Rules, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{spawner: spawner, items: items, rules: rules, logger: logger}
}

// Rules returns the machine's rules.
func (m *Machine) Rules() Rules { return m.rules }

// InitiateCombat spawns the named enemies and rolls initiative once per side.
// When the enemies' initiative strictly exceeds the player's, the encounter
// opens in PhaseEnemyTurn; otherwise in PhaseAwaitingPlayerAction.
//
// Precondition: len(enemyTypes) >= 1.
// Postcondition: returns an active State with Round 1.
func (m *Machine) InitiateCombat(enemyTypes []string, roller Roller) (*State, error) {
	if len(enemyTypes) == 0 {
		return nil, ErrNoEnemies
	}
	enemies, err := m.spawner.Spawn(enemyTypes, roller)
	if err != nil {
		return nil, fmt.Errorf("combat: spawning enemies: %w", err)
	}
	s := &State{
		Active:  true,
		Round:   1,
		Phase:   PhaseStarting,
		Enemies: enemies,
	}
	s.PlayerInitiative = roller.RollInitiative()
	s.EnemyInitiative = roller.RollInitiative()
	if s.EnemyInitiative > s.PlayerInitiative {
		s.Phase = PhaseEnemyTurn
	} else {
		s.Phase = PhaseAwaitingPlayerAction
	}
	m.logger.Info("combat initiated",
		zap.Int("enemies", len(enemies)),
		zap.Int("player_initiative", s.PlayerInitiative),
		zap.Int("enemy_initiative", s.EnemyInitiative),
		zap.Stringer("phase", s.Phase),
	)
	return s, nil
}

// PlayerTurnResult describes what the player's action did.
type PlayerTurnResult struct {
	Action   Action
	Attack   *AttackResult
	Defended bool
	// FleeRoll is the d20 + DEX total for ActionFlee.
	FleeRoll int
	Fled     bool
	ItemUse  *inventory.UseResult
	// End is the end condition checked after the player's action.
	End Result
}

// ResolvePlayerTurn applies the player's action.
//
// Precondition: s.Phase == PhaseAwaitingPlayerAction.
// Postcondition: on ErrInvalidTarget or an item error, s is unchanged and stays in
// PhaseAwaitingPlayerAction; otherwise s is in PhaseEnemyTurn or PhaseEnded.
func (m *Machine) ResolvePlayerTurn(s *State, l *character.Ledger, action Action, roller Roller) (PlayerTurnResult, error) {
	if err := m.expectPhase(s, PhaseAwaitingPlayerAction, "ResolvePlayerTurn"); err != nil {
		return PlayerTurnResult{}, err
	}
	s.Phase = PhaseResolvingPlayer
	res := PlayerTurnResult{Action: action}

	switch action.Kind {
	case ActionAttack:
		target, ok := s.Enemy(action.TargetID)
		if !ok || target.IsDead() {
			s.Phase = PhaseAwaitingPlayerAction
			return PlayerTurnResult{}, fmt.Errorf("attack %q: %w", action.TargetID, ErrInvalidTarget)
		}
		atk := ResolveAttack(AttackParams{
			AttackerID:  PlayerID,
			TargetID:    target.ID,
			AttackBonus: l.AttackBonus,
			Damage:      l.WeaponDamage,
			DamageMod:   l.StrMod,
			TargetAC:    target.AC,
			TargetHP:    target.HP,
		}, roller, m.rules)
		target.HP = atk.TargetHP
		res.Attack = &atk
		s.appendLog(LogEntry{
			ActorID: PlayerID, Action: ActionAttack, TargetID: target.ID,
			Natural: atk.Natural, Total: atk.Total, TargetAC: atk.TargetAC,
			Damage: atk.Damage, TargetHPRaw: atk.TargetHPRaw, Result: atk.Tag(),
		})

	case ActionDefend:
		s.PlayerDefending = true
		res.Defended = true
		s.appendLog(LogEntry{ActorID: PlayerID, Action: ActionDefend, TargetHPRaw: l.HP(), Result: TagDefended})

	case ActionFlee:
		total, natural := roller.RollD20WithBonus(l.DexMod)
		res.FleeRoll = total
		entry := LogEntry{ActorID: PlayerID, Action: ActionFlee, Natural: natural, Total: total, TargetAC: m.rules.FleeDifficulty, TargetHPRaw: l.HP()}
		if total >= m.rules.FleeDifficulty {
			entry.Result = TagFled
			s.appendLog(entry)
			s.end(ResultFled)
			res.Fled = true
			res.End = ResultFled
			return res, nil
		}
		entry.Result = TagFleeFailed
		s.appendLog(entry)

	case ActionUseItem:
		use, err := m.items.Use(l, action.ItemID, roller)
		if err != nil {
			s.Phase = PhaseAwaitingPlayerAction
			return PlayerTurnResult{}, err
		}
		res.ItemUse = &use
		s.appendLog(LogEntry{ActorID: PlayerID, Action: ActionUseItem, TargetID: use.ItemID, Damage: -use.Healed, TargetHPRaw: use.HPAfter, Result: TagUsedItem})

	default:
		s.Phase = PhaseAwaitingPlayerAction
		return PlayerTurnResult{}, fmt.Errorf("combat: unknown action %d: %w", action.Kind, ErrInvalidPhaseTransition)
	}

	if end := CheckEndCondition(s, l); end != ResultNone {
		s.end(end)
		res.End = end
		return res, nil
	}
	s.Phase = PhaseEnemyTurn
	return res, nil
}

// ResolveEnemyPhase has every living enemy attack the player once, in spawn
// order. Player AC is raised by DefendACBonus when the player defended. Attacks
// stop once the player reaches 0 HP.
//
// Precondition: s.Phase == PhaseEnemyTurn.
// Postcondition: s is in PhaseEnded(Death) or PhaseAwaitingPlayerAction of the
// next round with PlayerDefending cleared.
func (m *Machine) ResolveEnemyPhase(s *State, l *character.Ledger, roller Roller) ([]AttackResult, error) {
	if err := m.expectPhase(s, PhaseEnemyTurn, "ResolveEnemyPhase"); err != nil {
		return nil, err
	}
	ac := l.AC
	if s.PlayerDefending {
		ac += m.rules.DefendACBonus
	}
	var results []AttackResult
	for _, e := range s.Enemies {
		if e.IsDead() || l.IsDead() {
			continue
		}
		atk := ResolveAttack(AttackParams{
			AttackerID:  e.ID,
			TargetID:    PlayerID,
			AttackBonus: e.AttackBonus,
			Damage:      e.Damage,
			TargetAC:    ac,
			TargetHP:    l.HP(),
		}, roller, m.rules)
		l.ApplyDamage(atk.Damage)
		results = append(results, atk)
		s.appendLog(LogEntry{
			ActorID: e.ID, Action: ActionAttack, TargetID: PlayerID,
			Natural: atk.Natural, Total: atk.Total, TargetAC: atk.TargetAC,
			Damage: atk.Damage, TargetHPRaw: atk.TargetHPRaw, Result: atk.Tag(),
		})
	}

	if end := CheckEndCondition(s, l); end != ResultNone {
		s.end(end)
		return results, nil
	}
	s.Round++
	s.PlayerDefending = false
	s.Phase = PhaseAwaitingPlayerAction
	return results, nil
}

// CheckEndCondition reports Victory iff every enemy is dead, Death iff the
// player has no HP, otherwise None. Victory wins a simultaneous tie since the
// player phase is checked first.
func CheckEndCondition(s *State, l *character.Ledger) Result {
	switch {
	case s.Result == ResultFled:
		return ResultFled
	case s.AllEnemiesDead():
		return ResultVictory
	case l.IsDead():
		return ResultDeath
	default:
		return ResultNone
	}
}

func (m *Machine) expectPhase(s *State, want Phase, op string) error {
	if s == nil {
		m.logger.Error("resolve called without an encounter", zap.String("op", op))
		return fmt.Errorf("%s: no active encounter: %w", op, ErrInvalidPhaseTransition)
	}
	if s.Phase != want {
		err := fmt.Errorf("%s: phase %s, want %s: %w", op, s.Phase, want, ErrInvalidPhaseTransition)
		m.logger.Error("invalid phase transition", zap.String("op", op), zap.Error(err))
		return err
	}
	return nil
}
