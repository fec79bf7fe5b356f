package combat

import (
	"fmt"
	"slices"
)

// PlayerID is the actor ID used for the player in log entries.
const PlayerID = "player"

// ActionKind is one of the player's combat options.
type ActionKind int

const (
	ActionAttack ActionKind = iota
	ActionDefend
	ActionFlee
	ActionUseItem
)

var actionNames = [...]string{"attack", "defend", "flee", "use_item"}

// String returns the action label.
func (a ActionKind) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// MarshalText encodes the action label.
func (a ActionKind) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText decodes an action label.
func (a *ActionKind) UnmarshalText(text []byte) error {
	i := slices.Index(actionNames[:], string(text))
	if i < 0 {
		return fmt.Errorf("combat: unknown action %q", text)
	}
	*a = ActionKind(i)
	return nil
}

// Action is a player's chosen action for one turn.
type Action struct {
	Kind ActionKind
	// TargetID is the enemy ID for ActionAttack.
	TargetID string
	// ItemID is the catalog item for ActionUseItem.
	ItemID string
}

// Attack returns an attack action on targetID.
func Attack(targetID string) Action { return Action{Kind: ActionAttack, TargetID: targetID} }

// Defend returns a defend action.
func Defend() Action { return Action{Kind: ActionDefend} }

// Flee returns a flee action.
func Flee() Action { return Action{Kind: ActionFlee} }

// UseItem returns a use-item action.
func UseItem(itemID string) Action { return Action{Kind: ActionUseItem, ItemID: itemID} }
