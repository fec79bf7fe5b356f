package combat

import (
	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
)

// Roller is the dice surface combat needs. *dice.Roller satisfies it.
type Roller interface {
	Roll(expr dice.Expression) (dice.RollResult, error)
	RollD20WithBonus(bonus int) (total, natural int)
	RollInitiative() int
}

// AttackParams parameterises one attack for either side.
type AttackParams struct {
	AttackerID  string
	TargetID    string
	AttackBonus int
	Damage      dice.Expression
	// DamageMod is added to the damage roll (strength for player melee).
	DamageMod int
	TargetAC  int
	TargetHP  int
}

// AttackResult holds the outcome of a single attack.
type AttackResult struct {
	AttackerID string          `json:"attacker_id"`
	TargetID   string          `json:"target_id"`
	Natural    int             `json:"natural"`
	Total      int             `json:"total"`
	TargetAC   int             `json:"target_ac"`
	Hit        bool            `json:"hit"`
	Fumble     bool            `json:"fumble"`
	DamageRoll dice.RollResult `json:"damage_roll,omitzero"`
	Damage     int             `json:"damage"`
	// TargetHPRaw is HP after damage before clamping; may be negative.
	TargetHPRaw int  `json:"target_hp_raw"`
	TargetHP    int  `json:"target_hp"`
	Killed      bool `json:"killed"`
}

// Tag returns the log tag for this attack.
func (r AttackResult) Tag() Tag {
	switch {
	case r.Killed:
		return TagKilled
	case r.Hit:
		return TagHit
	default:
		return TagMiss
	}
}

// ResolveAttack rolls d20 + AttackBonus against TargetAC and, on a hit, damage.
// A natural 1 always misses. A natural 20 is an ordinary hit unless
// rules.NaturalTwentyCrit doubles the damage dice. Damage is at least 1.
//
// Postcondition: TargetHP == max(0, TargetHPRaw); Damage == 0 iff !Hit.
func ResolveAttack(p AttackParams, roller Roller, rules Rules) AttackResult {
	total, natural := roller.RollD20WithBonus(p.AttackBonus)
	res := AttackResult{
		AttackerID:  p.AttackerID,
		TargetID:    p.TargetID,
		Natural:     natural,
		Total:       total,
		TargetAC:    p.TargetAC,
		TargetHPRaw: p.TargetHP,
		TargetHP:    p.TargetHP,
	}
	if natural == 1 {
		res.Fumble = true
		return res
	}
	if total < p.TargetAC {
		return res
	}
	res.Hit = true
	expr := p.Damage
	if natural == 20 && rules.NaturalTwentyCrit {
		expr.Count *= 2
	}
	roll, err := roller.Roll(expr)
	if err != nil {
		// Invalid damage dice still land a blow.
		roll = dice.RollResult{Expression: expr.String()}
	}
	res.DamageRoll = roll
	res.Damage = max(1, roll.Total()+p.DamageMod)
	res.TargetHPRaw = p.TargetHP - res.Damage
	res.TargetHP = max(0, res.TargetHPRaw)
	res.Killed = res.TargetHP == 0
	return res
}
