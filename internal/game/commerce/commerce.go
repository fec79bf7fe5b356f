// Package commerce executes validated buy and sell transactions against the
// item catalog and the character ledger.
package commerce

import (
	"errors"
	"fmt"

	"github.com/greggjuri/chaos-dungeon/internal/game/character"
	"github.com/greggjuri/chaos-dungeon/internal/game/inventory"
)

var (
	// ErrItemNotOwned is returned when selling an item not in the ledger.
	ErrItemNotOwned = errors.New("item not owned")
	// ErrInsufficientGold is returned when a purchase costs more than the ledger holds.
	ErrInsufficientGold = errors.New("insufficient gold")
	// ErrUnknownItem is returned for item IDs missing from the catalog.
	ErrUnknownItem = errors.New("unknown item")
)

// Catalog looks up item definitions; *inventory.Registry satisfies it.
type Catalog interface {
	Item(id string) (*inventory.ItemDef, bool)
}

// Resolver executes commerce transactions.
type Resolver struct {
	catalog Catalog
}

// NewResolver returns a Resolver over catalog.
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// SellResult reports a completed sale.
type SellResult struct {
	ItemID     string `json:"item_id"`
	ItemName   string `json:"item_name"`
	GoldGained int    `json:"gold_gained"`
}

// BuyResult reports a completed purchase.
type BuyResult struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Price    int    `json:"price"`
}

// SellPrice returns what the catalog pays for one unit of itemID.
func (r *Resolver) SellPrice(itemID string) (int, error) {
	def, ok := r.catalog.Item(itemID)
	if !ok {
		return 0, fmt.Errorf("sell price of %q: %w", itemID, ErrUnknownItem)
	}
	return def.SellPrice(), nil
}

// CatalogPrice returns the base value of itemID, used when a buy names no price.
func (r *Resolver) CatalogPrice(itemID string) (int, error) {
	def, ok := r.catalog.Item(itemID)
	if !ok {
		return 0, fmt.Errorf("price of %q: %w", itemID, ErrUnknownItem)
	}
	return def.Value, nil
}

// ExecuteSell sells one unit of itemID for floor(value/2), minimum 1.
//
// Precondition: l must not be nil.
// Postcondition: on success one unit is removed and the price credited; on
// error l is unchanged.
func (r *Resolver) ExecuteSell(l *character.Ledger, itemID string) (SellResult, error) {
	if !l.Has(itemID) {
		return SellResult{}, fmt.Errorf("sell %q: %w", itemID, ErrItemNotOwned)
	}
	def, ok := r.catalog.Item(itemID)
	if !ok {
		return SellResult{}, fmt.Errorf("sell %q: %w", itemID, ErrUnknownItem)
	}
	price := def.SellPrice()
	next := l.Clone()
	if err := next.RemoveItem(character.SourceCommerceSell, itemID, 1); err != nil {
		return SellResult{}, fmt.Errorf("sell %q: %w", itemID, err)
	}
	if err := next.Credit(character.SourceCommerceSell, price); err != nil {
		return SellResult{}, fmt.Errorf("sell %q: %w", itemID, err)
	}
	*l = *next
	return SellResult{ItemID: def.ID, ItemName: def.Name, GoldGained: price}, nil
}

// ExecuteBuy buys one unit of itemID for price gold.
//
// Precondition: l must not be nil; price >= 0.
// Postcondition: on success price is debited and one unit added; on error l is
// unchanged.
func (r *Resolver) ExecuteBuy(l *character.Ledger, itemID string, price int) (BuyResult, error) {
	def, ok := r.catalog.Item(itemID)
	if !ok {
		return BuyResult{}, fmt.Errorf("buy %q: %w", itemID, ErrUnknownItem)
	}
	if price < 0 {
		return BuyResult{}, fmt.Errorf("buy %q: negative price %d", itemID, price)
	}
	if l.Gold() < price {
		return BuyResult{}, fmt.Errorf("buy %q for %d with %d gold: %w", itemID, price, l.Gold(), ErrInsufficientGold)
	}
	next := l.Clone()
	if err := next.Debit(character.SourceCommerceBuy, price); err != nil {
		return BuyResult{}, fmt.Errorf("buy %q: %w", itemID, err)
	}
	if err := next.AddItem(character.SourceCommerceBuy, def.ID, 1); err != nil {
		return BuyResult{}, fmt.Errorf("buy %q: %w", itemID, err)
	}
	*l = *next
	return BuyResult{ItemID: def.ID, ItemName: def.Name, Price: price}, nil
}
