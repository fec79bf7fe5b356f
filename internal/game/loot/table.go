// Package loot rolls weighted loot tables into a single-claim pending loot
// record and applies claims to the character ledger.
package loot

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
)

// FallbackKey is the table used for unknown or empty loot table keys.
const FallbackKey = "generic"

// Entry is one weighted outcome of a draw. An empty ItemID means "nothing".
type Entry struct {
	ItemID string `yaml:"item"`
	Weight int    `yaml:"weight"`
}

// Table defines the gold and item drops for one enemy or container type.
type Table struct {
	Key     string  `yaml:"key"`
	Gold    string  `yaml:"gold"`
	Draws   int     `yaml:"draws"`
	Entries []Entry `yaml:"entries"`

	gold    dice.Expression
	hasGold bool
}

// TotalWeight returns the sum of entry weights.
func (t *Table) TotalWeight() int {
	total := 0
	for _, e := range t.Entries {
		total += e.Weight
	}
	return total
}

// Validate checks the table's invariants and caches its gold expression.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff Key is non-empty, Gold is empty or valid dice
// notation, Draws >= 0, every weight >= 1, and draws have something to draw from.
func (t *Table) Validate() error {
	if t.Key == "" {
		return fmt.Errorf("loot table: key must not be empty")
	}
	if t.Gold != "" {
		g, err := dice.Parse(t.Gold)
		if err != nil {
			return fmt.Errorf("loot table %q: gold: %w", t.Key, err)
		}
		t.gold, t.hasGold = g, true
	}
	if t.Draws < 0 {
		return fmt.Errorf("loot table %q: draws must be >= 0, got %d", t.Key, t.Draws)
	}
	for i, e := range t.Entries {
		if e.Weight < 1 {
			return fmt.Errorf("loot table %q: entry[%d] weight must be >= 1, got %d", t.Key, i, e.Weight)
		}
	}
	if t.Draws > 0 && len(t.Entries) == 0 {
		return fmt.Errorf("loot table %q: draws set without entries", t.Key)
	}
	return nil
}

// LoadTablesFromBytes parses a YAML list of tables.
func LoadTablesFromBytes(data []byte) ([]*Table, error) {
	var tables []*Table
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parsing loot YAML: %w", err)
	}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

// LoadTables reads all *.yaml files in dir.
func LoadTables(dir string) ([]*Table, error) {
	return LoadTablesFS(os.DirFS(dir), ".")
}

// LoadTablesFS is LoadTables over an fs.FS.
func LoadTablesFS(fsys fs.FS, dir string) ([]*Table, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading loot dir %q: %w", dir, err)
	}
	var tables []*Table
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		ts, err := LoadTablesFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", p, err)
		}
		tables = append(tables, ts...)
	}
	return tables, nil
}
