// Package character defines the character ledger: hit points, gold and
// inventory, together with the allow-list that decides which call sites may
// change gold and inventory.
package character

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
)

// ErrUnauthorizedMutation is returned when a gold or inventory change is attempted
// from a MutationSource that is not allowed for that operation.
var ErrUnauthorizedMutation = errors.New("unauthorized resource mutation")

// ErrNegativeGold is returned when a debit would take gold below zero.
var ErrNegativeGold = errors.New("gold would become negative")

// ErrInsufficientQuantity is returned when removing more units than a stack holds.
var ErrInsufficientQuantity = errors.New("insufficient item quantity")

// ItemStack is a quantity of one catalog item.
//
// Invariant: Quantity >= 1 for any stack held by a Ledger.
type ItemStack struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Ledger is the subset of character state owned by the rules engine.
//
// Invariant: 0 <= HP() <= MaxHP(); Gold() >= 0; every stack has Quantity >= 1.
// Gold and inventory are unexported so they can only change through the
// MutationSource-checked methods below.
type Ledger struct {
	Name         string
	Class        string
	Level        int
	XP           int
	AC           int
	AttackBonus  int
	StrMod       int
	DexMod       int
	WeaponDamage dice.Expression
	Location     string
	Flags        map[string]string

	hp        int
	maxHP     int
	gold      int
	inventory []ItemStack
}

// HP returns current hit points.
func (l *Ledger) HP() int { return l.hp }

// MaxHP returns maximum hit points.
func (l *Ledger) MaxHP() int { return l.maxHP }

// Gold returns the current gold balance.
func (l *Ledger) Gold() int { return l.gold }

// IsDead reports whether the character has no hit points left.
func (l *Ledger) IsDead() bool { return l.hp <= 0 }

// Inventory returns a copy of the inventory stacks in acquisition order.
func (l *Ledger) Inventory() []ItemStack {
	return slices.Clone(l.inventory)
}

// Quantity returns how many units of itemID the ledger holds.
func (l *Ledger) Quantity(itemID string) int {
	for _, s := range l.inventory {
		if s.ItemID == itemID {
			return s.Quantity
		}
	}
	return 0
}

// Has reports whether at least one unit of itemID is held.
func (l *Ledger) Has(itemID string) bool { return l.Quantity(itemID) > 0 }

// ApplyDamage reduces HP by amount, flooring at zero.
//
// Precondition: amount >= 0.
// Postcondition: HP() >= 0.
func (l *Ledger) ApplyDamage(amount int) {
	l.hp -= amount
	if l.hp < 0 {
		l.hp = 0
	}
}

// Heal restores amount HP, capped at MaxHP.
//
// Postcondition: HP() <= MaxHP(). Returns the HP actually restored.
func (l *Ledger) Heal(amount int) int {
	before := l.hp
	l.hp = min(l.maxHP, l.hp+max(0, amount))
	return l.hp - before
}

// ApplyHPDelta applies a signed HP change clamped to [0, MaxHP].
// Returns the change actually applied.
func (l *Ledger) ApplyHPDelta(delta int) int {
	before := l.hp
	l.hp = max(0, min(l.maxHP, l.hp+delta))
	return l.hp - before
}

// AddXP adds a non-negative experience award and returns the amount applied.
func (l *Ledger) AddXP(amount int) int {
	if amount <= 0 {
		return 0
	}
	l.XP += amount
	return amount
}

// Credit adds gold. Only loot claims and sales may credit gold.
//
// Postcondition: on error, the ledger is unchanged.
func (l *Ledger) Credit(src MutationSource, amount int) error {
	if err := src.authorize(opCredit); err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("credit of %d: %w", amount, ErrNegativeGold)
	}
	l.gold += amount
	return nil
}

// Debit removes gold. Only purchases may debit gold.
//
// Postcondition: on error, the ledger is unchanged; Gold() >= 0.
func (l *Ledger) Debit(src MutationSource, amount int) error {
	if err := src.authorize(opDebit); err != nil {
		return err
	}
	if amount < 0 || amount > l.gold {
		return fmt.Errorf("debit of %d from %d: %w", amount, l.gold, ErrNegativeGold)
	}
	l.gold -= amount
	return nil
}

// AddItem appends qty units of itemID, merging into an existing stack.
//
// Precondition: qty >= 1.
func (l *Ledger) AddItem(src MutationSource, itemID string, qty int) error {
	if err := src.authorize(opAddItem); err != nil {
		return err
	}
	if qty < 1 || itemID == "" {
		return fmt.Errorf("add %d x %q: %w", qty, itemID, ErrInsufficientQuantity)
	}
	for i := range l.inventory {
		if l.inventory[i].ItemID == itemID {
			l.inventory[i].Quantity += qty
			return nil
		}
	}
	l.inventory = append(l.inventory, ItemStack{ItemID: itemID, Quantity: qty})
	return nil
}

// RemoveItem removes qty units of itemID. A stack that reaches zero is deleted.
//
// Postcondition: on error, the ledger is unchanged; no zero-quantity stack remains.
func (l *Ledger) RemoveItem(src MutationSource, itemID string, qty int) error {
	if err := src.authorize(opRemoveItem); err != nil {
		return err
	}
	for i := range l.inventory {
		if l.inventory[i].ItemID != itemID {
			continue
		}
		if qty < 1 || qty > l.inventory[i].Quantity {
			return fmt.Errorf("remove %d x %q (have %d): %w", qty, itemID, l.inventory[i].Quantity, ErrInsufficientQuantity)
		}
		l.inventory[i].Quantity -= qty
		if l.inventory[i].Quantity == 0 {
			l.inventory = slices.Delete(l.inventory, i, i+1)
		}
		return nil
	}
	return fmt.Errorf("remove %d x %q (have 0): %w", qty, itemID, ErrInsufficientQuantity)
}

// Clone returns a deep copy that shares no mutable state with l.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	cp := *l
	cp.inventory = slices.Clone(l.inventory)
	cp.Flags = maps.Clone(l.Flags)
	return &cp
}

// ledgerJSON is the persisted shape of a Ledger.
type ledgerJSON struct {
	Name         string            `json:"name"`
	Class        string            `json:"class"`
	Level        int               `json:"level"`
	XP           int               `json:"xp"`
	HP           int               `json:"hp"`
	MaxHP        int               `json:"max_hp"`
	AC           int               `json:"ac"`
	AttackBonus  int               `json:"attack_bonus"`
	StrMod       int               `json:"str_mod"`
	DexMod       int               `json:"dex_mod"`
	WeaponDamage dice.Expression   `json:"weapon_damage"`
	Gold         int               `json:"gold"`
	Inventory    []ItemStack       `json:"inventory"`
	Location     string            `json:"location,omitempty"`
	Flags        map[string]string `json:"flags,omitempty"`
}

// MarshalJSON encodes the ledger, including its unexported resource fields.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(ledgerJSON{
		Name: l.Name, Class: l.Class, Level: l.Level, XP: l.XP,
		HP: l.hp, MaxHP: l.maxHP, AC: l.AC, AttackBonus: l.AttackBonus,
		StrMod: l.StrMod, DexMod: l.DexMod, WeaponDamage: l.WeaponDamage,
		Gold: l.gold, Inventory: l.inventory, Location: l.Location, Flags: l.Flags,
	})
}

// UnmarshalJSON restores a persisted ledger and re-establishes its invariants.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var w ledgerJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.MaxHP < 1 || w.HP < 0 || w.HP > w.MaxHP {
		return fmt.Errorf("character: persisted hp %d/%d violates 0 <= hp <= max_hp", w.HP, w.MaxHP)
	}
	if w.Gold < 0 {
		return fmt.Errorf("character: persisted gold %d: %w", w.Gold, ErrNegativeGold)
	}
	inv := make([]ItemStack, 0, len(w.Inventory))
	for _, s := range w.Inventory {
		if s.Quantity >= 1 && s.ItemID != "" {
			inv = append(inv, s)
		}
	}
	*l = Ledger{
		Name: w.Name, Class: w.Class, Level: w.Level, XP: w.XP,
		AC: w.AC, AttackBonus: w.AttackBonus, StrMod: w.StrMod, DexMod: w.DexMod,
		WeaponDamage: w.WeaponDamage, Location: w.Location, Flags: w.Flags,
		hp: w.HP, maxHP: w.MaxHP, gold: w.Gold, inventory: inv,
	}
	return nil
}
