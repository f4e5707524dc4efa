// Package catalog serves the fixed list of suggestions members can pick from
// instead of typing free-form ideas.
package catalog

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Type     string `json:"type"`
}

var seed = []Item{
	{ID: "p1", Name: "Eiffel Tower", Category: "Landmark", Type: "place"},
	{ID: "r1", Name: "Pizza Place Roma", Category: "Italian", Type: "restaurant"},
	{ID: "a1", Name: "Cinema City - Action Movie", Category: "Entertainment", Type: "activity"},
	{ID: "p2", Name: "Louvre Museum", Category: "Art", Type: "place"},
	{ID: "r2", Name: "Sushi Samba", Category: "Japanese", Type: "restaurant"},
	{ID: "a2", Name: "The Board Room Cafe", Category: "Games", Type: "activity"},
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	items []Item
	byID  map[string]Item
}

// New builds a catalog from items. With no items the built-in suggestions are used.
func New(items ...Item) *Catalog {
	if len(items) == 0 {
		items = seed
	}
	items = slices.Clone(items)
	return &Catalog{
		items: items,
		byID:  lo.KeyBy(items, func(it Item) string { return it.ID }),
	}
}

func (c *Catalog) Lookup(id string) (Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// Search filters by item type and by a case-insensitive substring of the name
// or category. Empty arguments match everything.
func (c *Catalog) Search(query, typ string) []Item {
	query = strings.ToLower(strings.TrimSpace(query))
	typ = strings.ToLower(strings.TrimSpace(typ))

	return lo.Filter(c.items, func(it Item, _ int) bool {
		if typ != "" && strings.ToLower(it.Type) != typ {
			return false
		}
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(it.Name), query) ||
			strings.Contains(strings.ToLower(it.Category), query)
	})
}

// Types lists the distinct item types in catalog order.
func (c *Catalog) Types() []string {
	return lo.Uniq(lo.Map(c.items, func(it Item, _ int) string { return it.Type }))
}
