package inventory

import (
	"fmt"
	"sort"
	"strings"
)

// Registry holds all loaded item definitions indexed by ID and by lowercase
// name/alias for resolving player text.
type Registry struct {
	items  map[string]*ItemDef
	byName map[string]string
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{
		items:  make(map[string]*ItemDef),
		byName: make(map[string]string),
	}
}

// NewRegistryFrom builds a Registry from defs.
//
// Postcondition: returns an error on the first duplicate ID.
func NewRegistryFrom(defs []*ItemDef) (*Registry, error) {
	r := NewRegistry()
	for _, d := range defs {
		if err := r.RegisterItem(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegisterItem adds d to the registry.
//
// Precondition:  d must not be nil.
// Postcondition: Item(d.ID) returns (d, true); returns error if d.ID already registered.
func (r *Registry) RegisterItem(d *ItemDef) error {
	if _, exists := r.items[d.ID]; exists {
		return fmt.Errorf("inventory: Registry.RegisterItem: item ID %q already registered", d.ID)
	}
	r.items[d.ID] = d
	for _, key := range append([]string{d.ID, d.Name}, d.Aliases...) {
		k := normalize(key)
		if _, taken := r.byName[k]; !taken && k != "" {
			r.byName[k] = d.ID
		}
	}
	return nil
}

// Item returns the ItemDef for the given id and whether it was found.
//
// Postcondition: ok is true iff the id is registered.
func (r *Registry) Item(id string) (*ItemDef, bool) {
	d, ok := r.items[id]
	return d, ok
}

// Resolve maps free text ("Torch", "healing potion", "potion") to an item ID.
// A leading article and a trailing plural "s" are ignored.
func (r *Registry) Resolve(text string) (string, bool) {
	k := normalize(text)
	for _, article := range []string{"a ", "an ", "the ", "my ", "some "} {
		k = strings.TrimPrefix(k, article)
	}
	if id, ok := r.byName[k]; ok {
		return id, true
	}
	if id, ok := r.byName[strings.TrimSuffix(k, "s")]; ok {
		return id, true
	}
	return "", false
}

// All returns every ItemDef sorted by ID.
func (r *Registry) All() []*ItemDef {
	out := make([]*ItemDef, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
