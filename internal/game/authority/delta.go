// Package authority is the sole gate between narrator-proposed state changes
// and the character ledger. Gold and inventory proposals are always rejected
// and audited; HP, XP, location and world flags pass through.
package authority

import (
	"maps"
	"slices"
	"time"
)

// ProposedDelta is the narrator's best-effort guess at what a turn changed.
// It is never trusted for gold or inventory.
type ProposedDelta struct {
	GoldDelta       int               `json:"gold_delta,omitempty" jsonschema:"description=Gold the scene implies the player gained (positive) or lost (negative)"`
	InventoryAdd    []string          `json:"inventory_add,omitempty" jsonschema:"description=Item names the scene implies the player gained"`
	InventoryRemove []string          `json:"inventory_remove,omitempty" jsonschema:"description=Item names the scene implies the player lost or gave away"`
	HPDelta         int               `json:"hp_delta,omitempty" jsonschema:"description=Hit point change outside combat (negative for harm)"`
	XPDelta         int               `json:"xp_delta,omitempty" jsonschema:"minimum=0,description=Experience awarded for non-combat achievements"`
	Location        string            `json:"location,omitempty" jsonschema:"description=New location name if the player moved"`
	WorldFlags      map[string]string `json:"world_flags,omitempty" jsonschema:"description=Named world facts that changed such as door_opened"`
	Enemies         []string          `json:"enemies,omitempty" jsonschema:"description=Enemy types that begin fighting the player this turn with one entry per creature"`
}

// HasResourceChanges reports whether the delta proposes any gold or inventory change.
func (d ProposedDelta) HasResourceChanges() bool {
	return d.GoldDelta != 0 || len(d.InventoryAdd) > 0 || len(d.InventoryRemove) > 0
}

// AppliedDelta is what the gate actually applied.
//
// Invariant: GoldDelta, InventoryAdded and InventoryRemoved only ever reflect
// reconciled commerce, never a narrator figure.
type AppliedDelta struct {
	GoldDelta        int               `json:"gold_delta"`
	InventoryAdded   []string          `json:"inventory_added"`
	InventoryRemoved []string          `json:"inventory_removed"`
	HPDelta          int               `json:"hp_delta"`
	XPDelta          int               `json:"xp_delta"`
	Location         string            `json:"location,omitempty"`
	WorldFlags       map[string]string `json:"world_flags,omitempty"`
	Reconciled       []Reconciliation  `json:"reconciled,omitempty"`
}

// Reconciliation is a commerce transaction synthesized from rejected proposals.
type Reconciliation struct {
	Kind   string `json:"kind"` // "sell" or "buy"
	ItemID string `json:"item_id"`
	Gold   int    `json:"gold"`
}

// AuditAction classifies an audit record.
type AuditAction string

const (
	AuditRejected   AuditAction = "rejected"
	AuditReconciled AuditAction = "reconciled"
	AuditDeferred   AuditAction = "deferred"
)

// AuditRecord documents one rejected, reconciled or deferred proposal.
type AuditRecord struct {
	ID     string      `json:"id"`
	At     time.Time   `json:"at"`
	Action AuditAction `json:"action"`
	Field  string      `json:"field"`
	// Proposed is the narrator's value, rendered for the audit trail.
	Proposed string `json:"proposed"`
	Intent   string `json:"intent"`
	Detail   string `json:"detail,omitempty"`
}

func (d ProposedDelta) clone() ProposedDelta {
	d.InventoryAdd = slices.Clone(d.InventoryAdd)
	d.InventoryRemove = slices.Clone(d.InventoryRemove)
	d.WorldFlags = maps.Clone(d.WorldFlags)
	d.Enemies = slices.Clone(d.Enemies)
	return d
}
