package service

import (
	"github.com/xalleer/kitchen-os-backend/internal/ai"
	"github.com/xalleer/kitchen-os-backend/internal/catalog"
	"github.com/xalleer/kitchen-os-backend/internal/model"
)

// ResolvedIngredient is a model-proposed ingredient pinned to a catalog product.
type ResolvedIngredient struct {
	Product model.Product
	Amount  float64
}

// ResolveIngredients maps every ingredient onto the catalog, by id first and then
// by normalised name, keeping input order. A single miss fails the whole list and
// the error names every miss.
func ResolveIngredients(idx *catalog.Index, ings []ai.Ingredient) ([]ResolvedIngredient, error) {
	out := make([]ResolvedIngredient, 0, len(ings))
	var missing []UnresolvedIngredient
	for _, ing := range ings {
		p, ok := lookup(idx, ing)
		if !ok {
			missing = append(missing, UnresolvedIngredient{ProductID: ing.ProductID, ProductName: ing.ProductName})
			continue
		}
		out = append(out, ResolvedIngredient{Product: p, Amount: ing.Amount})
	}
	if len(missing) > 0 {
		return nil, &UnresolvedIngredientsError{Ingredients: missing}
	}
	return out, nil
}

func lookup(idx *catalog.Index, ing ai.Ingredient) (model.Product, bool) {
	if ing.ByID() {
		if p, ok := idx.ByID(*ing.ProductID); ok {
			return p, true
		}
	}
	if ing.ProductName == "" {
		return model.Product{}, false
	}
	return idx.ByName(ing.ProductName)
}
