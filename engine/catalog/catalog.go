// Package catalog holds the immutable project catalog: every item the
// service can recommend, together with an embedding precomputed from the
// item's combined text. The catalog is built once at startup and never
// mutated afterwards, so it can be read concurrently without locks.
package catalog

import (
	"fmt"

	"github.com/MuseLabAI/muse-mvp/engine/domain"
)

// Item is one row of the project corpus.
type Item struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Technology   string    `json:"technology,omitempty"`
	CombinedText string    `json:"-"`
	Embedding    []float32 `json:"-"`
}

// CombinedText derives the text an item is embedded from. Computed once at
// load; the same derivation must be used for every item.
func CombinedText(title, description, technology string) string {
	return title + ". " + description + ". " + technology
}

// Catalog is an immutable, index-aligned collection of items and their
// embeddings.
type Catalog struct {
	items []Item
	dims  int
}

// New builds a Catalog from fully-populated items. Every item must carry an
// embedding of the same dimensionality; a catalog with zero items is an
// error (the service must not start without one).
func New(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, domain.ErrCatalogEmpty
	}
	dims := len(items[0].Embedding)
	for i, it := range items {
		if it.Title == "" {
			return nil, fmt.Errorf("catalog: item %d has empty title", i)
		}
		if len(it.Embedding) == 0 {
			return nil, fmt.Errorf("catalog: item %d (%s) has no embedding", i, it.Title)
		}
		if len(it.Embedding) != dims {
			return nil, fmt.Errorf("catalog: item %d (%s) embedding dims %d != %d", i, it.Title, len(it.Embedding), dims)
		}
	}
	return &Catalog{items: items, dims: dims}, nil
}

// Items returns the catalog rows in load order. Callers must treat the
// returned slice as read-only.
func (c *Catalog) Items() []Item { return c.items }

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Dims returns the embedding dimensionality shared by all items.
func (c *Catalog) Dims() int { return c.dims }
