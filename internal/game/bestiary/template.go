// Package bestiary provides enemy templates and the factory that spawns
// concrete enemy instances for an encounter.
package bestiary

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
)

// FallbackID is the template used when the narrator names an enemy type the
// bestiary does not know.
const FallbackID = "unknown"

// Template defines a reusable enemy archetype loaded from YAML.
type Template struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Aliases     []string `yaml:"aliases"`
	HP          string   `yaml:"hp"`
	AC          int      `yaml:"ac"`
	AttackBonus int      `yaml:"attack_bonus"`
	Damage      string   `yaml:"damage"`
	XP          int      `yaml:"xp"`
	LootTable   string   `yaml:"loot_table"`

	hp     dice.Expression
	damage dice.Expression
}

// HitDice returns the parsed HP expression. Valid only after Validate.
func (t *Template) HitDice() dice.Expression { return t.hp }

// DamageDice returns the parsed damage expression. Valid only after Validate.
func (t *Template) DamageDice() dice.Expression { return t.damage }

// Validate checks that the template satisfies basic invariants and caches its
// parsed dice expressions.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, HP and Damage parse
// as dice notation, and XP >= 0.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("enemy template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("enemy template %q: name must not be empty", t.ID)
	}
	hp, err := dice.Parse(t.HP)
	if err != nil {
		return fmt.Errorf("enemy template %q: hp: %w", t.ID, err)
	}
	dmg, err := dice.Parse(t.Damage)
	if err != nil {
		return fmt.Errorf("enemy template %q: damage: %w", t.ID, err)
	}
	if t.XP < 0 {
		return fmt.Errorf("enemy template %q: xp must be >= 0", t.ID)
	}
	t.hp, t.damage = hp, dmg
	return nil
}

// LoadTemplateFromBytes parses a YAML list of templates.
//
// Postcondition: Returns validated templates, or an error on the first violation.
func LoadTemplateFromBytes(data []byte) ([]*Template, error) {
	var tmpls []*Template
	if err := yaml.Unmarshal(data, &tmpls); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	for _, t := range tmpls {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return tmpls, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	return LoadTemplatesFS(os.DirFS(dir), ".")
}

// LoadTemplatesFS is LoadTemplates over an fs.FS.
func LoadTemplatesFS(fsys fs.FS, dir string) ([]*Template, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading bestiary dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		tmpls, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", p, err)
		}
		templates = append(templates, tmpls...)
	}
	return templates, nil
}
