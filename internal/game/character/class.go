package character

import (
	"fmt"
	"sort"

	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
)

// Class is a level-1 BECMI character class.
type Class struct {
	ID           string
	Name         string
	MaxHP        int
	AC           int
	AttackBonus  int
	StrMod       int
	DexMod       int
	WeaponDamage dice.Expression
}

var classes = map[string]Class{
	"fighter":    {ID: "fighter", Name: "Fighter", MaxHP: 8, AC: 7, AttackBonus: 1, StrMod: 1, WeaponDamage: dice.MustParse("1d8")},
	"cleric":     {ID: "cleric", Name: "Cleric", MaxHP: 6, AC: 6, AttackBonus: 1, WeaponDamage: dice.MustParse("1d6")},
	"magic-user": {ID: "magic-user", Name: "Magic-User", MaxHP: 3, AC: 3, WeaponDamage: dice.MustParse("1d4")},
	"thief":      {ID: "thief", Name: "Thief", MaxHP: 4, AC: 5, AttackBonus: 1, DexMod: 1, WeaponDamage: dice.MustParse("1d6")},
	"dwarf":      {ID: "dwarf", Name: "Dwarf", MaxHP: 8, AC: 7, AttackBonus: 1, StrMod: 1, WeaponDamage: dice.MustParse("1d8")},
	"elf":        {ID: "elf", Name: "Elf", MaxHP: 6, AC: 6, AttackBonus: 1, DexMod: 1, WeaponDamage: dice.MustParse("1d8")},
	"halfling":   {ID: "halfling", Name: "Halfling", MaxHP: 6, AC: 6, AttackBonus: 1, DexMod: 1, WeaponDamage: dice.MustParse("1d6")},
}

// LookupClass returns the class with the given ID.
func LookupClass(id string) (Class, bool) {
	c, ok := classes[id]
	return c, ok
}

// ClassIDs returns all known class IDs in sorted order.
func ClassIDs() []string {
	ids := make([]string, 0, len(classes))
	for id := range classes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Option customises a Ledger at creation time.
type Option func(*Ledger)

// WithGold sets the starting gold.
func WithGold(gold int) Option {
	return func(l *Ledger) { l.gold = max(0, gold) }
}

// WithItems sets the starting inventory; stacks with quantity < 1 are dropped.
func WithItems(stacks ...ItemStack) Option {
	return func(l *Ledger) {
		for _, s := range stacks {
			if s.Quantity >= 1 && s.ItemID != "" {
				l.inventory = append(l.inventory, s)
			}
		}
	}
}

// WithHP sets current hit points, clamped to [0, MaxHP].
func WithHP(hp int) Option {
	return func(l *Ledger) { l.hp = max(0, min(l.maxHP, hp)) }
}

// WithMaxHP overrides maximum hit points and resets current HP to the new maximum.
func WithMaxHP(maxHP int) Option {
	return func(l *Ledger) {
		l.maxHP = max(1, maxHP)
		l.hp = l.maxHP
	}
}

// New builds a level-1 ledger for the named class.
//
// Precondition: name must be non-empty.
// Postcondition: Returns a Ledger at full HP, or an error for an unknown class.
func New(name, classID string, opts ...Option) (*Ledger, error) {
	if name == "" {
		return nil, fmt.Errorf("character: name must not be empty")
	}
	c, ok := LookupClass(classID)
	if !ok {
		return nil, fmt.Errorf("character: unknown class %q", classID)
	}
	l := &Ledger{
		Name:         name,
		Class:        c.ID,
		Level:        1,
		AC:           c.AC,
		AttackBonus:  c.AttackBonus,
		StrMod:       c.StrMod,
		DexMod:       c.DexMod,
		WeaponDamage: c.WeaponDamage,
		hp:           c.MaxHP,
		maxHP:        c.MaxHP,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}
