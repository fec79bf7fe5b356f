package bestiary

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
)

// ErrUnknownEnemyType is returned by Lookup for names with no template.
var ErrUnknownEnemyType = errors.New("unknown enemy type")

// Roller rolls a parsed dice expression.
type Roller interface {
	Roll(expr dice.Expression) (dice.RollResult, error)
}

// defaultFallback is used when the loaded content has no "unknown" template.
var defaultFallback = Template{
	ID:          FallbackID,
	Name:        "Unknown Enemy",
	HP:          "1d8",
	AC:          5,
	AttackBonus: 1,
	Damage:      "1d6",
	XP:          10,
	LootTable:   "generic",
}

// Bestiary indexes enemy templates by ID, name and alias.
type Bestiary struct {
	templates map[string]*Template
	byName    map[string]string
	fallback  *Template
	logger    *zap.Logger
}

// New builds a Bestiary from tmpls. Templates must already be validated.
//
// Postcondition: returns an error on duplicate IDs; a fallback template is
// always available.
func New(tmpls []*Template, logger *zap.Logger) (*Bestiary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bestiary{
		templates: make(map[string]*Template, len(tmpls)),
		byName:    make(map[string]string),
		logger:    logger,
	}
	for _, t := range tmpls {
		if _, dup := b.templates[t.ID]; dup {
			return nil, fmt.Errorf("bestiary: template ID %q already registered", t.ID)
		}
		b.templates[t.ID] = t
		for _, key := range append([]string{t.ID, t.Name}, t.Aliases...) {
			if k := normalize(key); k != "" {
				if _, taken := b.byName[k]; !taken {
					b.byName[k] = t.ID
				}
			}
		}
	}
	if fb, ok := b.templates[FallbackID]; ok {
		b.fallback = fb
	} else {
		fb := defaultFallback
		if err := fb.Validate(); err != nil {
			return nil, err
		}
		b.fallback = &fb
	}
	return b, nil
}

// Lookup resolves a narrator-supplied enemy type name ("Goblin", "goblins",
// "giant rat") to its template.
func (b *Bestiary) Lookup(name string) (*Template, error) {
	k := normalize(name)
	if id, ok := b.byName[k]; ok {
		return b.templates[id], nil
	}
	if id, ok := b.byName[strings.TrimSuffix(k, "s")]; ok {
		return b.templates[id], nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownEnemyType)
}

// Spawn creates one instance per type name in order, rolling HP for each and
// assigning encounter-unique IDs and display names. Unknown names spawn the
// fallback template under the narrator's own name, logged as a warning.
//
// Postcondition: len(result) == len(typeNames); every instance has HP >= 1.
func (b *Bestiary) Spawn(typeNames []string, roller Roller) ([]*EnemyInstance, error) {
	enemies := make([]*EnemyInstance, 0, len(typeNames))
	title := cases.Title(language.English)
	for i, name := range typeNames {
		tmpl, err := b.Lookup(name)
		baseName := ""
		if err != nil {
			b.logger.Warn("unknown enemy type, using fallback template",
				zap.String("enemy_type", name),
				zap.Error(err),
			)
			tmpl = b.fallback
			baseName = title.String(strings.TrimSpace(name))
		}
		if baseName == "" {
			baseName = tmpl.Name
		}
		hp, err := roller.Roll(tmpl.HitDice())
		if err != nil {
			return nil, fmt.Errorf("bestiary: rolling hp for %q: %w", tmpl.ID, err)
		}
		maxHP := max(1, hp.Total())
		enemies = append(enemies, &EnemyInstance{
			ID:          fmt.Sprintf("e%d", i+1),
			TemplateID:  tmpl.ID,
			BaseName:    baseName,
			HP:          maxHP,
			MaxHP:       maxHP,
			AC:          tmpl.AC,
			AttackBonus: tmpl.AttackBonus,
			Damage:      tmpl.DamageDice(),
			XP:          tmpl.XP,
			LootTable:   tmpl.LootTable,
		})
	}
	AssignDisplayNames(enemies)
	return enemies, nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(s, "_", " "))), " ")
}
