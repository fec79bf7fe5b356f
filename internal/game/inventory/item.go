// Package inventory holds the item catalog: static item definitions used to
// price commerce transactions and resolve consumable effects.
package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
)

// Kind constants for ItemDef.Kind.
const (
	KindWeapon     = "weapon"
	KindArmor      = "armor"
	KindConsumable = "consumable"
	KindGear       = "gear"
	KindTreasure   = "treasure"
)

var validKinds = map[string]bool{
	KindWeapon:     true,
	KindArmor:      true,
	KindConsumable: true,
	KindGear:       true,
	KindTreasure:   true,
}

// ItemDef defines the static properties of a catalog item loaded from YAML.
type ItemDef struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Kind        string   `yaml:"kind"`
	Value       int      `yaml:"value"`
	Aliases     []string `yaml:"aliases"`
	// Heal is the dice rolled when a consumable is used; empty for non-healing items.
	Heal string `yaml:"heal"`
}

// Consumable reports whether using the item consumes one unit.
func (d *ItemDef) Consumable() bool { return d.Kind == KindConsumable }

// HealDice returns the parsed heal expression and whether the item heals.
func (d *ItemDef) HealDice() (dice.Expression, bool) {
	if d.Heal == "" {
		return dice.Expression{}, false
	}
	expr, err := dice.Parse(d.Heal)
	if err != nil {
		return dice.Expression{}, false
	}
	return expr, true
}

// SellPrice is half the base value, floored, never below 1.
func (d *ItemDef) SellPrice() int {
	return max(1, d.Value/2)
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validKinds[d.Kind] {
		errs = append(errs, fmt.Errorf("Kind must be one of weapon, armor, consumable, gear, treasure; got %q", d.Kind))
	}
	if d.Value < 0 {
		errs = append(errs, errors.New("Value must be >= 0"))
	}
	if d.Heal != "" {
		if _, err := dice.Parse(d.Heal); err != nil {
			errs = append(errs, fmt.Errorf("Heal: %w", err))
		}
		if d.Kind != KindConsumable {
			errs = append(errs, errors.New("Heal is only valid on consumables"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// LoadItems reads all *.yaml and *.yml files from dir. Each file holds a
// YAML list of ItemDefs.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	return LoadItemsFS(os.DirFS(dir), ".")
}

// LoadItemsFS is LoadItems over an fs.FS, used for embedded content.
func LoadItemsFS(fsys fs.FS, dir string) ([]*ItemDef, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", p, err)
		}
		var defs []*ItemDef
		if err := yaml.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("LoadItems: cannot parse file %q: %w", p, err)
		}
		for _, d := range defs {
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("LoadItems: invalid item %q in %q: %w", d.ID, p, err)
			}
		}
		items = append(items, defs...)
	}
	return items, nil
}
