// Package content embeds the default bestiary, item catalog, loot tables and
// hostility script, and builds the runtime registries from them or from
// operator-supplied override directories.
package content

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/game/bestiary"
	"github.com/greggjuri/chaos-dungeon/internal/game/inventory"
	"github.com/greggjuri/chaos-dungeon/internal/game/loot"
)

//go:embed bestiary/*.yaml items/*.yaml loot/*.yaml scripts/*.lua
var embedded embed.FS

// HostilityScriptPath is the embedded path of the default hostility script.
const HostilityScriptPath = "scripts/hostility.lua"

// FS returns the embedded default content.
func FS() fs.FS { return embedded }

// Dirs names optional override directories. An empty field selects the
// embedded default for that content kind.
type Dirs struct {
	Bestiary        string
	Items           string
	Loot            string
	HostilityScript string // path to a Lua file, not a directory
}

// Library is the fully built, cross-validated content set.
type Library struct {
	Bestiary        *bestiary.Bestiary
	Items           *inventory.Registry
	Loot            *loot.Engine
	HostilityScript string
}

// Load builds a Library from dirs, falling back to the embedded content for
// every empty field.
//
// Precondition: logger must not be nil.
// Postcondition: every loot entry names a catalog item; every bestiary loot
// table key resolves (unknown keys are logged and fall back at roll time).
func Load(dirs Dirs, logger *zap.Logger) (*Library, error) {
	tmpls, err := bestiary.LoadTemplatesFS(pick(dirs.Bestiary, "bestiary"))
	if err != nil {
		return nil, fmt.Errorf("loading bestiary: %w", err)
	}
	defs, err := inventory.LoadItemsFS(pick(dirs.Items, "items"))
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	tables, err := loot.LoadTablesFS(pick(dirs.Loot, "loot"))
	if err != nil {
		return nil, fmt.Errorf("loading loot tables: %w", err)
	}

	items, err := inventory.NewRegistryFrom(defs)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		for _, e := range t.Entries {
			if e.ItemID == "" {
				continue
			}
			if _, ok := items.Item(e.ItemID); !ok {
				return nil, fmt.Errorf("loot table %q references unknown item %q", t.Key, e.ItemID)
			}
		}
	}

	b, err := bestiary.New(tmpls, logger)
	if err != nil {
		return nil, err
	}
	le, err := loot.New(tables, logger)
	if err != nil {
		return nil, err
	}
	for _, t := range tmpls {
		if t.LootTable == "" {
			continue
		}
		if _, err := le.Table(t.LootTable); err != nil {
			logger.Warn("bestiary entry references unknown loot table",
				zap.String("enemy", t.ID),
				zap.String("loot_table", t.LootTable),
			)
		}
	}

	script, err := readScript(dirs.HostilityScript)
	if err != nil {
		return nil, err
	}

	logger.Info("content loaded",
		zap.Int("enemies", len(tmpls)),
		zap.Int("items", len(defs)),
		zap.Int("loot_tables", len(tables)),
	)
	return &Library{Bestiary: b, Items: items, Loot: le, HostilityScript: script}, nil
}

// MustLoadDefault loads the embedded content, panicking on error. Intended for
// tests and tools.
func MustLoadDefault(logger *zap.Logger) *Library {
	lib, err := Load(Dirs{}, logger)
	if err != nil {
		panic(fmt.Sprintf("content: embedded content invalid: %v", err))
	}
	return lib
}

func pick(override, embeddedDir string) (fs.FS, string) {
	if override != "" {
		return os.DirFS(override), "."
	}
	return embedded, embeddedDir
}

func readScript(path string) (string, error) {
	if path == "" {
		data, err := fs.ReadFile(embedded, HostilityScriptPath)
		if err != nil {
			return "", fmt.Errorf("reading embedded hostility script: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading hostility script %q: %w", path, err)
	}
	return string(data), nil
}
