// Package combat implements the server-authoritative encounter state machine:
// initiative, player and enemy phases, attack resolution and end conditions.
package combat

import (
	"errors"
	"fmt"
	"slices"

	"github.com/greggjuri/chaos-dungeon/internal/game/bestiary"
)

var (
	// ErrInvalidPhaseTransition signals a resolve call made in the wrong phase.
	// It is a routing bug, never a player-facing condition.
	ErrInvalidPhaseTransition = errors.New("invalid phase transition")
	// ErrInvalidTarget is returned when an attack names no living enemy in the encounter.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrNoEnemies is returned when combat is initiated with an empty enemy list.
	ErrNoEnemies = errors.New("no enemies to fight")
)

// Phase is the state of an encounter.
type Phase int

const (
	PhaseStarting Phase = iota
	PhaseAwaitingPlayerAction
	PhaseResolvingPlayer
	PhaseEnemyTurn
	PhaseEnded
)

var phaseNames = [...]string{"starting", "awaiting_player_action", "resolving_player", "enemy_turn", "ended"}

// String returns the snake_case phase label.
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// MarshalText encodes the phase label.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a phase label.
func (p *Phase) UnmarshalText(text []byte) error {
	i := slices.Index(phaseNames[:], string(text))
	if i < 0 {
		return fmt.Errorf("combat: unknown phase %q", text)
	}
	*p = Phase(i)
	return nil
}

// Result is the end condition of an encounter.
type Result int

const (
	ResultNone Result = iota
	ResultVictory
	ResultDeath
	ResultFled
)

var resultNames = [...]string{"none", "victory", "death", "fled"}

// String returns the result label.
func (r Result) String() string {
	if r < 0 || int(r) >= len(resultNames) {
		return "unknown"
	}
	return resultNames[r]
}

// MarshalText encodes the result label.
func (r Result) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText decodes a result label.
func (r *Result) UnmarshalText(text []byte) error {
	i := slices.Index(resultNames[:], string(text))
	if i < 0 {
		return fmt.Errorf("combat: unknown result %q", text)
	}
	*r = Result(i)
	return nil
}

// State is one session's active encounter. A nil *State means exploration.
//
// Invariant: Round >= 1; Enemies keep spawn order; Log is append-only.
type State struct {
	Active           bool                      `json:"active"`
	Round            int                       `json:"round"`
	Phase            Phase                     `json:"phase"`
	Result           Result                    `json:"result"`
	Enemies          []*bestiary.EnemyInstance `json:"enemies"`
	PlayerDefending  bool                      `json:"player_defending"`
	PlayerInitiative int                       `json:"player_initiative"`
	EnemyInitiative  int                       `json:"enemy_initiative"`
	Log              []LogEntry                `json:"log"`
}

// Enemy returns the enemy with the given ID.
func (s *State) Enemy(id string) (*bestiary.EnemyInstance, bool) {
	for _, e := range s.Enemies {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// LivingEnemies returns living enemies in spawn order.
func (s *State) LivingEnemies() []*bestiary.EnemyInstance {
	var out []*bestiary.EnemyInstance
	for _, e := range s.Enemies {
		if !e.IsDead() {
			out = append(out, e)
		}
	}
	return out
}

// FirstLivingEnemy returns the default attack target.
func (s *State) FirstLivingEnemy() (*bestiary.EnemyInstance, bool) {
	for _, e := range s.Enemies {
		if !e.IsDead() {
			return e, true
		}
	}
	return nil, false
}

// DefeatedEnemies returns dead enemies in spawn order.
func (s *State) DefeatedEnemies() []bestiary.EnemyInstance {
	var out []bestiary.EnemyInstance
	for _, e := range s.Enemies {
		if e.IsDead() {
			out = append(out, *e)
		}
	}
	return out
}

// AllEnemiesDead reports whether every enemy has been defeated.
func (s *State) AllEnemiesDead() bool {
	for _, e := range s.Enemies {
		if !e.IsDead() {
			return false
		}
	}
	return len(s.Enemies) > 0
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Enemies = make([]*bestiary.EnemyInstance, len(s.Enemies))
	for i, e := range s.Enemies {
		ec := *e
		cp.Enemies[i] = &ec
	}
	cp.Log = slices.Clone(s.Log)
	return &cp
}

func (s *State) appendLog(e LogEntry) {
	e.Round = s.Round
	s.Log = append(s.Log, e)
}

func (s *State) end(r Result) {
	s.Phase = PhaseEnded
	s.Result = r
	s.Active = false
}
