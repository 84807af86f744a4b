package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/catalog"
	"github.com/xalleer/kitchen-os-backend/internal/model"
	"github.com/xalleer/kitchen-os-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultShoppingDays = 7

type ShoppingCategory struct {
	Category string                   `json:"category"`
	Items    []model.ShoppingListItem `json:"items"`
}

type ShoppingSummary struct {
	TotalItems    int             `json:"total_items"`
	BoughtItems   int             `json:"bought_items"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	BudgetLimit   decimal.Decimal `json:"budget_limit"`
	WithinBudget  bool            `json:"within_budget"`
}

type ShoppingList struct {
	Items      []model.ShoppingListItem `json:"items"`
	Summary    ShoppingSummary          `json:"summary"`
	ByCategory []ShoppingCategory       `json:"grouped_by_category"`
}

type ManualItem struct {
	ProductID uuid.UUID
	Quantity  float64
	Note      *string
}

type CompleteResult struct {
	MovedToInventory int             `json:"moved_to_inventory"`
	EstimatedTotal   decimal.Decimal `json:"estimated_total"`
	ActualTotal      decimal.Decimal `json:"actual_total"`
	Difference       decimal.Decimal `json:"difference"`
}

// ShoppingListService derives and maintains a family's list of things to buy.
type ShoppingListService interface {
	// Generate replaces the list with what the plans in [from, to] need beyond
	// current stock. Bounds default to today and the following six days.
	Generate(ctx context.Context, familyID uuid.UUID, from, to *time.Time) (*ShoppingList, error)
	List(ctx context.Context, familyID uuid.UUID) (*ShoppingList, error)
	Update(ctx context.Context, familyID, itemID uuid.UUID, quantity float64, note *string) (*model.ShoppingListItem, error)
	MarkBought(ctx context.Context, familyID, itemID uuid.UUID, bought bool, actualPrice *decimal.Decimal) (*model.ShoppingListItem, error)
	Delete(ctx context.Context, familyID, itemID uuid.UUID) error
	// AddManual merges into an open entry for the same product when there is one.
	AddManual(ctx context.Context, familyID uuid.UUID, items []ManualItem) ([]model.ShoppingListItem, error)
	Clear(ctx context.Context, familyID uuid.UUID) error
	// Complete moves bought entries into undated inventory batches and drops them.
	Complete(ctx context.Context, familyID uuid.UUID) (*CompleteResult, error)
}

type shoppingListService struct {
	db        *gorm.DB
	items     repository.ShoppingListRepository
	plans     repository.MealPlanRepository
	products  repository.ProductRepository
	families  repository.FamilyRepository
	inventory InventoryService
	clock     Clock
}

func NewShoppingListService(
	db *gorm.DB,
	items repository.ShoppingListRepository,
	plans repository.MealPlanRepository,
	products repository.ProductRepository,
	families repository.FamilyRepository,
	inventory InventoryService,
	clock Clock,
) ShoppingListService {
	return &shoppingListService{
		db:        db,
		items:     items,
		plans:     plans,
		products:  products,
		families:  families,
		inventory: inventory,
		clock:     clock,
	}
}

func (s *shoppingListService) Generate(ctx context.Context, familyID uuid.UUID, from, to *time.Time) (*ShoppingList, error) {
	family, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return nil, notFound("Family", err)
	}
	if from == nil && to == nil {
		start := startOfDay(s.clock.now())
		end := start.AddDate(0, 0, defaultShoppingDays-1)
		from, to = &start, &end
	}

	plans, err := s.plans.List(ctx, familyID, from, to)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, newValidation("No meal plans found for the selected period")
	}

	required := make(map[uuid.UUID]float64)
	products := make(map[uuid.UUID]model.Product)
	var order []uuid.UUID
	for _, mp := range plans {
		for _, ing := range mp.Recipe.Ingredients {
			if _, seen := required[ing.ProductID]; !seen {
				order = append(order, ing.ProductID)
				products[ing.ProductID] = ing.Product
			}
			required[ing.ProductID] += ing.Amount
		}
	}

	stock, err := s.inventory.Totals(ctx, familyID, order)
	if err != nil {
		return nil, err
	}

	var fresh []model.ShoppingListItem
	for _, pid := range order {
		short := required[pid] - stock[pid]
		if short <= qtyEpsilon {
			continue
		}
		p := products[pid]
		qty := catalog.RoundToPackage(p, short)
		fresh = append(fresh, model.ShoppingListItem{
			FamilyID:       familyID,
			ProductID:      pid,
			Quantity:       qty,
			EstimatedPrice: catalog.EstimateCost(p, qty).Round(2),
		})
	}

	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		return s.items.ReplaceAllTx(tx, familyID, fresh)
	})
	if err != nil {
		return nil, fmt.Errorf("replace shopping list: %w", err)
	}
	for i := range fresh {
		fresh[i].Product = products[fresh[i].ProductID]
	}

	log.Info().
		Str("family_id", familyID.String()).
		Int("meal_plans", len(plans)).
		Int("items", len(fresh)).
		Msg("shopping: list generated")
	return buildList(fresh, family.BudgetLimit), nil
}

func (s *shoppingListService) List(ctx context.Context, familyID uuid.UUID) (*ShoppingList, error) {
	family, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return nil, notFound("Family", err)
	}
	items, err := s.items.List(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return buildList(items, family.BudgetLimit), nil
}

func (s *shoppingListService) Update(ctx context.Context, familyID, itemID uuid.UUID, quantity float64, note *string) (*model.ShoppingListItem, error) {
	if quantity <= 0 {
		return nil, newValidation("quantity must be positive")
	}
	item, err := s.items.FindByID(ctx, familyID, itemID)
	if err != nil {
		return nil, notFound("Shopping list item", err)
	}
	item.Quantity = quantity
	item.Note = note
	item.EstimatedPrice = catalog.EstimateCost(item.Product, quantity).Round(2)
	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *shoppingListService) MarkBought(ctx context.Context, familyID, itemID uuid.UUID, bought bool, actualPrice *decimal.Decimal) (*model.ShoppingListItem, error) {
	if actualPrice != nil && actualPrice.IsNegative() {
		return nil, newValidation("actual price must not be negative")
	}
	item, err := s.items.FindByID(ctx, familyID, itemID)
	if err != nil {
		return nil, notFound("Shopping list item", err)
	}
	item.IsBought = bought
	if bought {
		now := s.clock.now()
		item.BoughtAt = &now
		if actualPrice != nil {
			p := actualPrice.Round(2)
			item.ActualPrice = &p
		}
	} else {
		item.BoughtAt = nil
		item.ActualPrice = nil
	}
	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *shoppingListService) Delete(ctx context.Context, familyID, itemID uuid.UUID) error {
	if err := s.items.Delete(ctx, familyID, itemID); err != nil {
		return notFound("Shopping list item", err)
	}
	return nil
}

func (s *shoppingListService) AddManual(ctx context.Context, familyID uuid.UUID, items []ManualItem) ([]model.ShoppingListItem, error) {
	out := make([]model.ShoppingListItem, 0, len(items))
	for _, in := range items {
		if in.Quantity <= 0 {
			return nil, newValidation("quantity must be positive")
		}
		product, err := s.products.FindByID(ctx, in.ProductID)
		if err != nil {
			return nil, notFound("Product", err)
		}

		item, err := s.items.FindOpenByProduct(ctx, familyID, in.ProductID)
		switch {
		case err == nil:
			item.Quantity += in.Quantity
			if in.Note != nil {
				item.Note = in.Note
			}
			item.EstimatedPrice = catalog.EstimateCost(*product, item.Quantity).Round(2)
			err = s.items.Save(ctx, item)
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = &model.ShoppingListItem{
				FamilyID:       familyID,
				ProductID:      in.ProductID,
				Quantity:       in.Quantity,
				Note:           in.Note,
				EstimatedPrice: catalog.EstimateCost(*product, in.Quantity).Round(2),
			}
			err = s.items.Create(ctx, item)
		}
		if err != nil {
			return nil, fmt.Errorf("add shopping item: %w", err)
		}
		item.Product = *product
		out = append(out, *item)
	}
	return out, nil
}

func (s *shoppingListService) Clear(ctx context.Context, familyID uuid.UUID) error {
	return s.items.Clear(ctx, familyID)
}

func (s *shoppingListService) Complete(ctx context.Context, familyID uuid.UUID) (*CompleteResult, error) {
	res := &CompleteResult{}
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		bought, err := s.items.ListBoughtTx(tx, familyID)
		if err != nil {
			return err
		}
		if len(bought) == 0 {
			return &StateConflictError{Message: "No items marked as bought"}
		}
		for _, it := range bought {
			if err := s.inventory.RestockTx(tx, familyID, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("restock %s: %w", it.ProductID, err)
			}
			res.EstimatedTotal = res.EstimatedTotal.Add(it.EstimatedPrice)
			if it.ActualPrice != nil {
				res.ActualTotal = res.ActualTotal.Add(*it.ActualPrice)
			} else {
				res.ActualTotal = res.ActualTotal.Add(it.EstimatedPrice)
			}
		}
		res.MovedToInventory = len(bought)
		return s.items.DeleteBoughtTx(tx, familyID)
	})
	if err != nil {
		return nil, err
	}
	res.Difference = res.ActualTotal.Sub(res.EstimatedTotal)
	log.Info().
		Str("family_id", familyID.String()).
		Int("moved", res.MovedToInventory).
		Str("difference", res.Difference.String()).
		Msg("shopping: completed")
	return res, nil
}

func buildList(items []model.ShoppingListItem, budget decimal.Decimal) *ShoppingList {
	list := &ShoppingList{Items: items}
	pos := make(map[string]int)
	for _, it := range items {
		list.Summary.EstimatedCost = list.Summary.EstimatedCost.Add(it.EstimatedPrice)
		if it.IsBought {
			list.Summary.BoughtItems++
		}
		cat := it.Product.Category
		i, ok := pos[cat]
		if !ok {
			i = len(list.ByCategory)
			pos[cat] = i
			list.ByCategory = append(list.ByCategory, ShoppingCategory{Category: cat})
		}
		list.ByCategory[i].Items = append(list.ByCategory[i].Items, it)
	}
	list.Summary.TotalItems = len(items)
	list.Summary.BudgetLimit = budget
	list.Summary.WithinBudget = list.Summary.EstimatedCost.LessThanOrEqual(budget)
	return list
}
