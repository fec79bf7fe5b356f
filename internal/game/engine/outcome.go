package engine

import (
	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
	"github.com/greggjuri/chaos-dungeon/internal/game/combat"
	"github.com/greggjuri/chaos-dungeon/internal/game/commerce"
	"github.com/greggjuri/chaos-dungeon/internal/game/confirm"
	"github.com/greggjuri/chaos-dungeon/internal/game/inventory"
	"github.com/greggjuri/chaos-dungeon/internal/game/loot"
	"github.com/greggjuri/chaos-dungeon/internal/game/session"
)

// OutcomeKind names the headline of a resolved turn.
type OutcomeKind string

const (
	OutcomeExploration       OutcomeKind = "exploration"
	OutcomeCombatStarted     OutcomeKind = "combat_started"
	OutcomeCombatRound       OutcomeKind = "combat_round"
	OutcomeVictory           OutcomeKind = "victory"
	OutcomeDeath             OutcomeKind = "death"
	OutcomeFled              OutcomeKind = "fled"
	OutcomeLootClaimed       OutcomeKind = "loot_claimed"
	OutcomeNothingFound      OutcomeKind = "nothing_found"
	OutcomeSold              OutcomeKind = "sold"
	OutcomeBought            OutcomeKind = "bought"
	OutcomeTransactionFailed OutcomeKind = "transaction_failed"
	OutcomeItemUsed          OutcomeKind = "item_used"
	OutcomeItemFailed        OutcomeKind = "item_failed"
	OutcomeConfirmRequired   OutcomeKind = "confirm_required"
	OutcomeConfirmCancelled  OutcomeKind = "confirm_cancelled"
	OutcomeActionUnavailable OutcomeKind = "action_unavailable"
	OutcomeDead              OutcomeKind = "dead"
)

// Event is one resolved mechanical fact, named for narration. Raw dice are
// deliberately absent.
type Event struct {
	Round    int    `json:"round,omitempty"`
	Actor    string `json:"actor"`
	Action   string `json:"action"`
	Target   string `json:"target,omitempty"`
	Hit      bool   `json:"hit"`
	Fumble   bool   `json:"fumble,omitempty"`
	Damage   int    `json:"damage,omitempty"`
	TargetHP int    `json:"target_hp"`
	Killed   bool   `json:"killed,omitempty"`
}

// PlayerStatus is the player's state after the turn.
type PlayerStatus struct {
	Name   string `json:"name"`
	Class  string `json:"class"`
	HP     int    `json:"hp"`
	MaxHP  int    `json:"max_hp"`
	Gold   int    `json:"gold"`
	XP     int    `json:"xp"`
	IsDead bool   `json:"is_dead"`
}

// EnemyStatus is one enemy's state after the turn.
type EnemyStatus struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	HP     int    `json:"hp"`
	MaxHP  int    `json:"max_hp"`
	Health string `json:"health"`
	IsDead bool   `json:"is_dead"`
}

// NarrationRequest is the fully-resolved outcome of a turn, handed to the
// narrator for prose. The narrator may describe it but never alter it.
type NarrationRequest struct {
	Kind         OutcomeKind             `json:"kind"`
	PlayerText   string                  `json:"player_text"`
	Intent       string                  `json:"intent"`
	Mode         session.Mode            `json:"-"`
	Player       PlayerStatus            `json:"player"`
	Enemies      []EnemyStatus           `json:"enemies,omitempty"`
	Events       []Event                 `json:"events,omitempty"`
	CombatResult combat.Result           `json:"combat_result"`
	XPAwarded    int                     `json:"xp_awarded,omitempty"`
	LootPending  bool                    `json:"loot_pending,omitempty"`
	Loot         *loot.ClaimedLoot       `json:"loot,omitempty"`
	DroppedLoot  *loot.PendingLoot       `json:"dropped_loot,omitempty"`
	Sale         *commerce.SellResult    `json:"sale,omitempty"`
	Purchase     *commerce.BuyResult     `json:"purchase,omitempty"`
	ItemUse      *inventory.UseResult    `json:"item_use,omitempty"`
	Confirmation *confirm.Pending        `json:"confirmation,omitempty"`
	Applied      authority.AppliedDelta  `json:"applied"`
	Audit        []authority.AuditRecord `json:"-"`
	Notes        []string                `json:"notes,omitempty"`
}

func (r *NarrationRequest) note(n string) {
	r.Notes = append(r.Notes, n)
}
