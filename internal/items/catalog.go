// Package items loads and serves the fixed catalog of things the pet
// can be fed, cleaned, and entertained with. The catalog is read-only
// after load and safe to share for the engine's lifetime.
package items

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Category groups items by the command that consumes them.
type Category string

const (
	CategoryFood  Category = "food"
	CategoryClean Category = "clean"
	CategoryPlay  Category = "play"
	CategoryCare  Category = "care"
)

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryClean, CategoryPlay, CategoryCare:
		return true
	}
	return false
}

// statNames are the engine stat fields an item effect may target.
var statNames = map[string]bool{
	"hunger":    true,
	"hygiene":   true,
	"mood":      true,
	"energy":    true,
	"affection": true,
	"health":    true,
}

// Item is a single usable thing: signed stat deltas applied on use,
// plus a per-item cooldown. Immutable once loaded.
type Item struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Category    Category           `yaml:"category"`
	Effects     map[string]float64 `yaml:"effects"`
	CooldownS   int                `yaml:"cooldown_s"`
}

// Cooldown returns the item's cooldown as a duration.
func (i Item) Cooldown() time.Duration {
	return time.Duration(i.CooldownS) * time.Second
}

// CatalogError reports malformed item data. It is fatal at startup:
// the game cannot run without a valid catalog.
type CatalogError struct {
	ItemID string
	Reason string
}

func (e *CatalogError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("item catalog: %s", e.Reason)
	}
	return fmt.Sprintf("item catalog: item %q: %s", e.ItemID, e.Reason)
}

// UnknownItemError reports a lookup for an item id not in the catalog.
type UnknownItemError struct {
	ID string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("no such item %q", e.ID)
}

// Catalog is the loaded item set, keyed by id.
type Catalog struct {
	items map[string]Item
	order []string
}

// Load parses a YAML list of item definitions from r.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading items: %w", err)
	}

	var defs []Item
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, &CatalogError{Reason: fmt.Sprintf("parse: %v", err)}
	}
	return New(defs)
}

// New builds a catalog from an in-memory list, validating every entry.
func New(defs []Item) (*Catalog, error) {
	c := &Catalog{items: make(map[string]Item, len(defs))}
	for _, item := range defs {
		if item.ID == "" {
			return nil, &CatalogError{Reason: "missing id"}
		}
		if _, dup := c.items[item.ID]; dup {
			return nil, &CatalogError{ItemID: item.ID, Reason: "duplicate id"}
		}
		if !item.Category.Valid() {
			return nil, &CatalogError{ItemID: item.ID, Reason: fmt.Sprintf("unknown category %q", item.Category)}
		}
		if item.CooldownS < 0 {
			return nil, &CatalogError{ItemID: item.ID, Reason: "negative cooldown"}
		}
		for stat := range item.Effects {
			if !statNames[stat] {
				return nil, &CatalogError{ItemID: item.ID, Reason: fmt.Sprintf("unknown effect stat %q", stat)}
			}
		}
		c.items[item.ID] = item
		c.order = append(c.order, item.ID)
	}
	return c, nil
}

// Get returns the item with the given id.
func (c *Catalog) Get(id string) (Item, error) {
	item, ok := c.items[id]
	if !ok {
		return Item{}, &UnknownItemError{ID: id}
	}
	return item, nil
}

// InCategory returns the items of one category in load order.
func (c *Catalog) InCategory(cat Category) []Item {
	var out []Item
	for _, id := range c.order {
		if item := c.items[id]; item.Category == cat {
			out = append(out, item)
		}
	}
	return out
}

// Len returns the number of items in the catalog.
func (c *Catalog) Len() int {
	return len(c.items)
}

// IsReady reports whether the item's cooldown has elapsed, given the
// per-item last-used timestamps the engine tracks.
func (c *Catalog) IsReady(id string, now time.Time, lastUsed map[string]time.Time) (bool, error) {
	item, err := c.Get(id)
	if err != nil {
		return false, err
	}
	last, used := lastUsed[id]
	if !used {
		return true, nil
	}
	return now.Sub(last) >= item.Cooldown(), nil
}

// Defaults is the built-in catalog used when no items file is
// configured. It mirrors data/items.yaml.
func Defaults() *Catalog {
	c, err := New([]Item{
		{ID: "kibble", Name: "Kibble", Description: "Basic pet food", Category: CategoryFood,
			Effects: map[string]float64{"hunger": 15, "affection": 2}, CooldownS: 300},
		{ID: "kibble_small", Name: "Small Kibble", Description: "A light snack", Category: CategoryFood,
			Effects: map[string]float64{"hunger": 10}, CooldownS: 120},
		{ID: "premium_food", Name: "Premium Food", Description: "High quality pet food", Category: CategoryFood,
			Effects: map[string]float64{"hunger": 25, "mood": 5, "affection": 5}, CooldownS: 600},
		{ID: "soap", Name: "Soap", Description: "Basic cleaning soap", Category: CategoryClean,
			Effects: map[string]float64{"hygiene": 20, "affection": 1}, CooldownS: 600},
		{ID: "shampoo", Name: "Shampoo", Description: "Premium pet shampoo", Category: CategoryClean,
			Effects: map[string]float64{"hygiene": 35, "mood": 3, "affection": 3}, CooldownS: 900},
		{ID: "ball", Name: "Ball", Description: "A simple bouncy ball", Category: CategoryPlay,
			Effects: map[string]float64{"mood": 15, "energy": -5, "affection": 3}, CooldownS: 300},
		{ID: "puzzle", Name: "Puzzle Toy", Description: "Mental stimulation toy", Category: CategoryPlay,
			Effects: map[string]float64{"mood": 20, "energy": -3, "affection": 5}, CooldownS: 900},
		{ID: "medicine", Name: "Medicine", Description: "Helps when feeling unwell", Category: CategoryCare,
			Effects: map[string]float64{"health": 20}, CooldownS: 600},
		{ID: "vet_visit", Name: "Vet Visit", Description: "A proper checkup", Category: CategoryCare,
			Effects: map[string]float64{"health": 60, "mood": -5}, CooldownS: 21600},
	})
	if err != nil {
		panic(err) // built-in data, cannot fail
	}
	return c
}
