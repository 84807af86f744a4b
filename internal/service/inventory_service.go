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

// quantities below this are treated as zero
const qtyEpsilon = 1e-9

const defaultExpiringDays = 2

type AddInventoryInput struct {
	ProductID        uuid.UUID
	Quantity         float64
	ExpiryDate       *time.Time
	DeductFromBudget bool
	PurchasePrice    *decimal.Decimal
	Retailer         *string
}

type UpdateInventoryInput struct {
	Quantity         *float64
	ExpiryDate       *time.Time
	ClearExpiry      bool
	DeductFromBudget *bool
	PurchasePrice    *decimal.Decimal
}

type InventoryGroup struct {
	Category string                `json:"category"`
	Items    []model.InventoryItem `json:"items"`
}

type Availability struct {
	Available   bool    `json:"available"`
	InInventory float64 `json:"in_inventory"`
	Required    float64 `json:"required"`
}

type DeductRequest struct {
	ProductID uuid.UUID
	Quantity  float64
}

type DeductResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested float64   `json:"requested"`
	Deducted  float64   `json:"deducted"`
	Success   bool      `json:"success"`
}

// InventoryService is the per-family ledger of product batches.
//
// A batch's BudgetCharge is the part of its charge that is still reversible:
// removing stock by hand (Remove, or Update lowering the quantity) reverses it pro
// rata, consumption by cooking keeps the consumed share charged. Raising the
// quantity through Update charges nothing. Ledger moves share the batch's transaction.
type InventoryService interface {
	List(ctx context.Context, familyID uuid.UUID) ([]InventoryGroup, error)
	Add(ctx context.Context, familyID uuid.UUID, in AddInventoryInput) (*model.InventoryItem, error)
	Update(ctx context.Context, familyID, itemID uuid.UUID, in UpdateInventoryInput) (*model.InventoryItem, error)
	// Remove takes qty out of a batch; the returned item is nil when the batch is gone.
	Remove(ctx context.Context, familyID, itemID uuid.UUID, qty float64) (*model.InventoryItem, error)
	Delete(ctx context.Context, familyID, itemID uuid.UUID) error
	CheckAvailability(ctx context.Context, familyID, productID uuid.UUID, required float64) (*Availability, error)
	Totals(ctx context.Context, familyID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]float64, error)
	Deduct(ctx context.Context, familyID uuid.UUID, reqs []DeductRequest) ([]DeductResult, error)
	DeductTx(tx *gorm.DB, familyID uuid.UUID, reqs []DeductRequest) ([]DeductResult, error)
	// RestockTx merges qty into the product's undated batch. No budget effect.
	RestockTx(tx *gorm.DB, familyID, productID uuid.UUID, qty float64) error
	Expiring(ctx context.Context, familyID uuid.UUID, daysAhead int) ([]model.InventoryItem, error)
}

type inventoryService struct {
	db       *gorm.DB
	items    repository.InventoryRepository
	products repository.ProductRepository
	budget   WeeklyBudgetService
	prices   PriceService
	clock    Clock
}

func NewInventoryService(
	db *gorm.DB,
	items repository.InventoryRepository,
	products repository.ProductRepository,
	budget WeeklyBudgetService,
	prices PriceService,
	clock Clock,
) InventoryService {
	return &inventoryService{db: db, items: items, products: products, budget: budget, prices: prices, clock: clock}
}

func (s *inventoryService) List(ctx context.Context, familyID uuid.UUID) ([]InventoryGroup, error) {
	items, err := s.items.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	var groups []InventoryGroup
	pos := make(map[string]int)
	for _, it := range items {
		cat := it.Product.Category
		i, ok := pos[cat]
		if !ok {
			i = len(groups)
			pos[cat] = i
			groups = append(groups, InventoryGroup{Category: cat})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups, nil
}

func (s *inventoryService) Add(ctx context.Context, familyID uuid.UUID, in AddInventoryInput) (*model.InventoryItem, error) {
	if in.Quantity <= 0 {
		return nil, newValidation("quantity must be positive")
	}
	if in.PurchasePrice != nil && in.PurchasePrice.IsNegative() {
		return nil, newValidation("purchase price must not be negative")
	}
	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, notFound("Product", err)
	}

	expiry := dayPtr(in.ExpiryDate)
	var cost *decimal.Decimal
	switch {
	case in.PurchasePrice != nil:
		cost = in.PurchasePrice
	case in.DeductFromBudget:
		est := catalog.EstimateCost(*product, in.Quantity).Round(2)
		cost = &est
	}
	// only this purchase is charged, whatever the batch it lands in already carries
	charge := decimal.Zero
	if in.DeductFromBudget && cost != nil {
		charge = *cost
	}

	var item *model.InventoryItem
	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		existing, err := s.items.FindBatchTx(tx, familyID, in.ProductID, expiry)
		switch {
		case err == nil:
			existing.Quantity += in.Quantity
			existing.PurchasePrice = addPrice(existing.PurchasePrice, cost)
			existing.BudgetCharge = existing.BudgetCharge.Add(charge)
			existing.DeductFromBudget = existing.DeductFromBudget || in.DeductFromBudget
			item = existing
			if err := s.settle(tx, familyID, charge, item.CreatedAt); err != nil {
				return err
			}
			return s.items.SaveTx(tx, item)
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = &model.InventoryItem{
				FamilyID:         familyID,
				ProductID:        in.ProductID,
				Quantity:         in.Quantity,
				ExpiryDate:       expiry,
				DeductFromBudget: in.DeductFromBudget,
				PurchasePrice:    addPrice(nil, cost),
				BudgetCharge:     charge,
				CreatedAt:        s.clock.now(),
			}
			if err := s.settle(tx, familyID, charge, item.CreatedAt); err != nil {
				return err
			}
			return s.items.CreateTx(tx, item)
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("add inventory: %w", err)
	}

	if in.PurchasePrice != nil && s.prices != nil && in.PurchasePrice.IsPositive() {
		perPackage := in.PurchasePrice.
			Mul(decimal.NewFromFloat(catalog.BaseAmount(*product))).
			Div(decimal.NewFromFloat(in.Quantity)).
			Round(2)
		if _, err := s.prices.Record(ctx, familyID, product.ID, perPackage, in.Retailer); err != nil {
			log.Warn().Err(err).Str("product_id", product.ID.String()).Msg("inventory: price observation not recorded")
		}
	}
	item.Product = *product
	return item, nil
}

func (s *inventoryService) Update(ctx context.Context, familyID, itemID uuid.UUID, in UpdateInventoryInput) (*model.InventoryItem, error) {
	if in.Quantity != nil && *in.Quantity <= 0 {
		return nil, newValidation("quantity must be positive; delete the item instead")
	}
	if in.PurchasePrice != nil && in.PurchasePrice.IsNegative() {
		return nil, newValidation("purchase price must not be negative")
	}

	var item *model.InventoryItem
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		item, err = s.items.FindByIDTx(tx, familyID, itemID)
		if err != nil {
			return notFound("Inventory item", err)
		}
		before := item.BudgetCharge

		if in.ExpiryDate != nil || in.ClearExpiry {
			expiry := dayPtr(in.ExpiryDate)
			if in.ClearExpiry {
				expiry = nil
			}
			if !sameDay(expiry, item.ExpiryDate) {
				other, err := s.items.FindBatchTx(tx, familyID, item.ProductID, expiry)
				if err == nil && other.ID != item.ID {
					return newValidation("a batch with this expiry date already exists")
				}
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				item.ExpiryDate = expiry
			}
		}
		if in.Quantity != nil {
			if *in.Quantity < item.Quantity {
				shrink(item, *in.Quantity)
			} else {
				item.Quantity = *in.Quantity
			}
		}
		if in.PurchasePrice != nil {
			p := *in.PurchasePrice
			item.PurchasePrice = &p
		}

		flagged := item.DeductFromBudget
		if in.DeductFromBudget != nil {
			flagged = *in.DeductFromBudget
		}
		switch {
		case !flagged:
			item.BudgetCharge = decimal.Zero
		case in.PurchasePrice != nil:
			item.BudgetCharge = *in.PurchasePrice
		case !item.DeductFromBudget:
			if item.PurchasePrice == nil {
				product, err := s.products.FindByID(ctx, item.ProductID)
				if err != nil {
					return notFound("Product", err)
				}
				est := catalog.EstimateCost(*product, item.Quantity).Round(2)
				item.PurchasePrice = &est
			}
			item.BudgetCharge = *item.PurchasePrice
		}
		item.DeductFromBudget = flagged

		if err := s.settle(tx, familyID, item.BudgetCharge.Sub(before), item.CreatedAt); err != nil {
			return err
		}
		return s.items.SaveTx(tx, item)
	})
	if err != nil {
		return nil, err
	}
	return s.items.FindByID(ctx, familyID, item.ID)
}

func (s *inventoryService) Remove(ctx context.Context, familyID, itemID uuid.UUID, qty float64) (*model.InventoryItem, error) {
	if qty <= 0 {
		return nil, newValidation("quantity must be positive")
	}
	var item *model.InventoryItem
	gone := false
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		item, err = s.items.FindByIDTx(tx, familyID, itemID)
		if err != nil {
			return notFound("Inventory item", err)
		}
		before := item.BudgetCharge
		if qty >= item.Quantity-qtyEpsilon {
			gone = true
			if err := s.settle(tx, familyID, before.Neg(), item.CreatedAt); err != nil {
				return err
			}
			return s.items.DeleteTx(tx, item.ID)
		}
		shrink(item, item.Quantity-qty)
		if err := s.settle(tx, familyID, item.BudgetCharge.Sub(before), item.CreatedAt); err != nil {
			return err
		}
		return s.items.SaveTx(tx, item)
	})
	if err != nil {
		return nil, err
	}
	if gone {
		return nil, nil
	}
	return item, nil
}

func (s *inventoryService) Delete(ctx context.Context, familyID, itemID uuid.UUID) error {
	return runTx(ctx, s.db, func(tx *gorm.DB) error {
		item, err := s.items.FindByIDTx(tx, familyID, itemID)
		if err != nil {
			return notFound("Inventory item", err)
		}
		if err := s.settle(tx, familyID, item.BudgetCharge.Neg(), item.CreatedAt); err != nil {
			return err
		}
		return s.items.DeleteTx(tx, item.ID)
	})
}

func (s *inventoryService) CheckAvailability(ctx context.Context, familyID, productID uuid.UUID, required float64) (*Availability, error) {
	totals, err := s.items.TotalsByProduct(ctx, familyID, []uuid.UUID{productID})
	if err != nil {
		return nil, err
	}
	have := totals[productID]
	return &Availability{Available: have+qtyEpsilon >= required, InInventory: have, Required: required}, nil
}

func (s *inventoryService) Totals(ctx context.Context, familyID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	return s.items.TotalsByProduct(ctx, familyID, productIDs)
}

func (s *inventoryService) Deduct(ctx context.Context, familyID uuid.UUID, reqs []DeductRequest) ([]DeductResult, error) {
	var results []DeductResult
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		results, err = s.DeductTx(tx, familyID, reqs)
		return err
	})
	return results, err
}

// DeductTx consumes stock first-expiring-first-out. Running out of batches is not
// an error: what could be taken stays taken and the result reports Success=false.
func (s *inventoryService) DeductTx(tx *gorm.DB, familyID uuid.UUID, reqs []DeductRequest) ([]DeductResult, error) {
	results := make([]DeductResult, 0, len(reqs))
	for _, req := range reqs {
		res := DeductResult{ProductID: req.ProductID, Requested: req.Quantity}
		if req.Quantity <= qtyEpsilon {
			res.Success = true
			results = append(results, res)
			continue
		}

		batches, err := s.items.LockBatchesTx(tx, familyID, req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("lock batches: %w", err)
		}
		remaining := req.Quantity
		for i := range batches {
			if remaining <= qtyEpsilon {
				break
			}
			b := &batches[i]
			if b.Quantity <= remaining+qtyEpsilon {
				if err := s.items.DeleteTx(tx, b.ID); err != nil {
					return nil, err
				}
				remaining -= b.Quantity
				continue
			}
			shrink(b, b.Quantity-remaining)
			if err := s.items.SaveTx(tx, b); err != nil {
				return nil, err
			}
			remaining = 0
		}
		if remaining < 0 {
			remaining = 0
		}
		res.Deducted = req.Quantity - remaining
		res.Success = remaining <= qtyEpsilon
		results = append(results, res)
	}
	return results, nil
}

func (s *inventoryService) RestockTx(tx *gorm.DB, familyID, productID uuid.UUID, qty float64) error {
	existing, err := s.items.FindBatchTx(tx, familyID, productID, nil)
	switch {
	case err == nil:
		existing.Quantity += qty
		return s.items.SaveTx(tx, existing)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.items.CreateTx(tx, &model.InventoryItem{
			FamilyID:  familyID,
			ProductID: productID,
			Quantity:  qty,
			CreatedAt: s.clock.now(),
		})
	default:
		return err
	}
}

func (s *inventoryService) Expiring(ctx context.Context, familyID uuid.UUID, daysAhead int) ([]model.InventoryItem, error) {
	if daysAhead <= 0 {
		daysAhead = defaultExpiringDays
	}
	until := startOfDay(s.clock.now()).AddDate(0, 0, daysAhead)
	return s.items.ListExpiring(ctx, familyID, until)
}

// settle books delta in tx, ahead of the batch write it belongs to: charges land
// in the current week, reversals in the week the batch was bought.
func (s *inventoryService) settle(tx *gorm.DB, familyID uuid.UUID, delta decimal.Decimal, boughtAt time.Time) error {
	if delta.IsZero() || s.budget == nil {
		return nil
	}
	var err error
	if delta.IsPositive() {
		_, err = s.budget.AddExpenseTx(tx, familyID, delta, s.clock.now())
	} else {
		if boughtAt.IsZero() {
			boughtAt = s.clock.now()
		}
		_, err = s.budget.RemoveExpenseTx(tx, familyID, delta.Neg(), boughtAt)
	}
	if err != nil {
		log.Error().Err(err).Str("family_id", familyID.String()).Str("delta", delta.String()).Msg("inventory: budget ledger update failed")
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

// shrink lowers the quantity and pro-rates the price and the budget charge with it.
func shrink(it *model.InventoryItem, newQty float64) {
	if it.Quantity > 0 {
		ratio := decimal.NewFromFloat(newQty / it.Quantity)
		if it.PurchasePrice != nil {
			p := it.PurchasePrice.Mul(ratio).Round(2)
			it.PurchasePrice = &p
		}
		it.BudgetCharge = it.BudgetCharge.Mul(ratio).Round(2)
	}
	it.Quantity = newQty
}

func addPrice(existing, extra *decimal.Decimal) *decimal.Decimal {
	switch {
	case extra == nil && existing == nil:
		return nil
	case extra == nil:
		return existing
	case existing == nil:
		p := *extra
		return &p
	}
	p := existing.Add(*extra)
	return &p
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := startOfDay(*t)
	return &d
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
