package character

import "fmt"

// MutationSource tags the call site requesting a gold or inventory change.
// Narrator-proposed changes carry SourceNarrator, which no operation accepts.
type MutationSource int

const (
	SourceUnknown MutationSource = iota // zero value; never authorized
	SourceNarrator
	SourceLootClaim
	SourceCommerceSell
	SourceCommerceBuy
	SourceItemConsumption
)

// String returns the audit label for the source.
func (s MutationSource) String() string {
	switch s {
	case SourceNarrator:
		return "narrator"
	case SourceLootClaim:
		return "loot_claim"
	case SourceCommerceSell:
		return "commerce_sell"
	case SourceCommerceBuy:
		return "commerce_buy"
	case SourceItemConsumption:
		return "item_consumption"
	default:
		return "unknown"
	}
}

type operation int

const (
	opCredit operation = iota
	opDebit
	opAddItem
	opRemoveItem
)

func (o operation) String() string {
	return [...]string{"credit", "debit", "add_item", "remove_item"}[o]
}

// allowed is the complete allow-list of resource mutation call sites.
var allowed = map[operation]map[MutationSource]bool{
	opCredit:     {SourceLootClaim: true, SourceCommerceSell: true},
	opDebit:      {SourceCommerceBuy: true},
	opAddItem:    {SourceLootClaim: true, SourceCommerceBuy: true},
	opRemoveItem: {SourceCommerceSell: true, SourceItemConsumption: true},
}

func (s MutationSource) authorize(op operation) error {
	if !allowed[op][s] {
		return fmt.Errorf("%s via %s: %w", op, s, ErrUnauthorizedMutation)
	}
	return nil
}
