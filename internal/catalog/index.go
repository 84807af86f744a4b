// Package catalog holds the read-only product snapshot used while planning,
// together with the pricing and package rounding rules shared by every component.
package catalog

import (
	"strings"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
)

// Index is an immutable lookup over the products allowed in meal planning.
// Build one per operation; it is safe for concurrent reads.
type Index struct {
	products []model.Product
	byID     map[uuid.UUID]int
	byName   map[string]int
}

// NewIndex indexes products by id and by normalised name. On duplicate names the
// first product wins.
func NewIndex(products []model.Product) *Index {
	idx := &Index{
		products: products,
		byID:     make(map[uuid.UUID]int, len(products)),
		byName:   make(map[string]int, len(products)),
	}
	for i, p := range products {
		idx.byID[p.ID] = i
		key := NormalizeName(p.Name)
		if _, dup := idx.byName[key]; !dup {
			idx.byName[key] = i
		}
	}
	return idx
}

// NormalizeName lowercases and trims. No other folding is applied.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (x *Index) ByID(id uuid.UUID) (model.Product, bool) {
	i, ok := x.byID[id]
	if !ok {
		return model.Product{}, false
	}
	return x.products[i], true
}

func (x *Index) ByName(name string) (model.Product, bool) {
	i, ok := x.byName[NormalizeName(name)]
	if !ok {
		return model.Product{}, false
	}
	return x.products[i], true
}

// Products returns the indexed products in their original order.
func (x *Index) Products() []model.Product { return x.products }

func (x *Index) Len() int { return len(x.products) }
