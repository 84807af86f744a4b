package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var mealTimePattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

var defaultMealTimes = map[model.MealType]string{
	model.MealBreakfast: "09:00",
	model.MealLunch:     "13:00",
	model.MealDinner:    "20:00",
	model.MealSnack:     "17:00",
}

type requirement struct {
	product  model.Product
	quantity float64
}

func cookLockKey(familyID uuid.UUID) string { return "cook:" + familyID.String() }

// requirementsOf sums ingredient amounts per product, keeping first-seen order.
func requirementsOf(ings []model.RecipeIngredient) ([]uuid.UUID, map[uuid.UUID]*requirement) {
	var order []uuid.UUID
	required := make(map[uuid.UUID]*requirement)
	for _, ing := range ings {
		r, ok := required[ing.ProductID]
		if !ok {
			r = &requirement{product: ing.Product}
			required[ing.ProductID] = r
			order = append(order, ing.ProductID)
		}
		r.quantity += ing.Amount
	}
	return order, required
}

// pantry consumes recipe ingredients from a family's stock. Callers hold the
// family's cook lock.
type pantry struct {
	db        *gorm.DB
	inventory InventoryService
	shopping  ShoppingListService
}

type IngredientStock struct {
	ProductID   uuid.UUID      `json:"product_id"`
	ProductName string         `json:"product_name"`
	BaseUnit    model.BaseUnit `json:"base_unit"`
	Required    float64        `json:"required"`
	InInventory float64        `json:"in_inventory"`
	Available   bool           `json:"available"`
}

type CookPreview struct {
	Ingredients  []IngredientStock `json:"ingredients"`
	CanCook      bool              `json:"can_cook"`
	MissingItems []MissingItem     `json:"missing_items,omitempty"`
}

// preview reports stock against the ingredients without changing anything.
func (p pantry) preview(ctx context.Context, familyID uuid.UUID, ings []model.RecipeIngredient) (*CookPreview, error) {
	order, required := requirementsOf(ings)
	stock, err := p.inventory.Totals(ctx, familyID, order)
	if err != nil {
		return nil, err
	}
	out := &CookPreview{Ingredients: make([]IngredientStock, 0, len(order))}
	for _, pid := range order {
		r := required[pid]
		out.Ingredients = append(out.Ingredients, IngredientStock{
			ProductID:   pid,
			ProductName: r.product.Name,
			BaseUnit:    r.product.BaseUnit,
			Required:    r.quantity,
			InInventory: stock[pid],
			Available:   r.quantity-stock[pid] <= qtyEpsilon,
		})
	}
	out.MissingItems = shortfalls(order, required, stock)
	out.CanCook = len(out.MissingItems) == 0
	return out, nil
}

// consume deducts the ingredients first-expiring-first-out and runs commit in the
// same transaction. Without IgnoreMissing any shortfall aborts with nothing
// deducted; with it, what is there is taken.
func (p pantry) consume(ctx context.Context, familyID uuid.UUID, ings []model.RecipeIngredient, in CookInput, commit func(tx *gorm.DB) error) ([]DeductResult, []MissingItem, error) {
	order, required := requirementsOf(ings)
	stock, err := p.inventory.Totals(ctx, familyID, order)
	if err != nil {
		return nil, nil, err
	}
	missing := shortfalls(order, required, stock)

	if len(missing) > 0 {
		if in.AddToShoppingList && p.shopping != nil {
			manual := make([]ManualItem, len(missing))
			for i, m := range missing {
				manual[i] = ManualItem{ProductID: m.ProductID, Quantity: m.Missing}
			}
			if _, err := p.shopping.AddManual(ctx, familyID, manual); err != nil {
				return nil, nil, fmt.Errorf("add missing to shopping list: %w", err)
			}
		}
		if !in.IgnoreMissing {
			return nil, nil, &InsufficientStockError{Missing: missing, AddedToShoppingList: in.AddToShoppingList}
		}
	}

	reqs := make([]DeductRequest, 0, len(order))
	for _, pid := range order {
		qty := required[pid].quantity
		if in.IgnoreMissing {
			qty = min(qty, stock[pid])
		}
		if qty > qtyEpsilon {
			reqs = append(reqs, DeductRequest{ProductID: pid, Quantity: qty})
		}
	}

	var deducted []DeductResult
	err = runTx(ctx, p.db, func(tx *gorm.DB) error {
		var err error
		deducted, err = p.inventory.DeductTx(tx, familyID, reqs)
		if err != nil {
			return err
		}
		if !in.IgnoreMissing {
			if lost := lostStock(deducted, required); len(lost) > 0 {
				return &InsufficientStockError{Missing: lost}
			}
		}
		if commit != nil {
			return commit(tx)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return deducted, missing, nil
}

func (s *mealPlanService) pantry() pantry {
	return pantry{db: s.db, inventory: s.inventory, shopping: s.shopping}
}

// Cook consumes the recipe's ingredients and marks the slot cooked. It runs under
// a per-family lock and re-checks stock under row locks inside the deduction
// transaction, so two cooks never spend the same batch.
func (s *mealPlanService) Cook(ctx context.Context, familyID, mealPlanID uuid.UUID, in CookInput) (*CookResult, error) {
	release, err := s.locker.Acquire(ctx, cookLockKey(familyID))
	if err != nil {
		return nil, err
	}
	defer release()

	mp, err := s.plans.FindByID(ctx, familyID, mealPlanID)
	if err != nil {
		return nil, notFound("Meal plan", err)
	}
	if mp.IsCooked {
		return &CookResult{AlreadyCooked: true, MealPlan: mp}, nil
	}
	if mp.IsSkipped {
		return nil, &StateConflictError{Message: "Meal is skipped"}
	}

	now := s.clock.now()
	deducted, missing, err := s.pantry().consume(ctx, familyID, mp.Recipe.Ingredients, in, func(tx *gorm.DB) error {
		ok, err := s.plans.MarkCookedTx(tx, mp.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return &StateConflictError{Message: "Meal plan was changed by another request"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	mp.IsCooked = true
	mp.CookedAt = &now
	log.Info().
		Str("family_id", familyID.String()).
		Str("meal_plan_id", mp.ID.String()).
		Int("products", len(deducted)).
		Int("missing", len(missing)).
		Msg("meal plan: cooked")
	return &CookResult{Deducted: deducted, MissingItems: missing, MealPlan: mp}, nil
}

func shortfalls(order []uuid.UUID, required map[uuid.UUID]*requirement, stock map[uuid.UUID]float64) []MissingItem {
	var missing []MissingItem
	for _, pid := range order {
		r := required[pid]
		have := stock[pid]
		if r.quantity-have <= qtyEpsilon {
			continue
		}
		missing = append(missing, MissingItem{
			ProductID:   pid,
			ProductName: r.product.Name,
			BaseUnit:    r.product.BaseUnit,
			Required:    r.quantity,
			InInventory: have,
			Missing:     r.quantity - have,
		})
	}
	return missing
}

// lostStock reports products that vanished between the availability read and the
// locked deduction.
func lostStock(results []DeductResult, required map[uuid.UUID]*requirement) []MissingItem {
	var lost []MissingItem
	for _, r := range results {
		if r.Success {
			continue
		}
		req := required[r.ProductID]
		lost = append(lost, MissingItem{
			ProductID:   r.ProductID,
			ProductName: req.product.Name,
			BaseUnit:    req.product.BaseUnit,
			Required:    r.Requested,
			InInventory: r.Deducted,
			Missing:     r.Requested - r.Deducted,
		})
	}
	return lost
}

func (s *mealPlanService) Skip(ctx context.Context, familyID, mealPlanID uuid.UUID) (*SkipResult, error) {
	mp, err := s.plans.FindByID(ctx, familyID, mealPlanID)
	if err != nil {
		return nil, notFound("Meal plan", err)
	}
	for attempt := 0; attempt < 2; attempt++ {
		if mp.IsCooked {
			return nil, &StateConflictError{Message: "Meal already cooked"}
		}
		if mp.IsSkipped {
			return &SkipResult{AlreadySkipped: true, MealPlan: mp}, nil
		}

		now := s.clock.now()
		ok, err := s.plans.MarkSkipped(ctx, mp.ID, now)
		if err != nil {
			return nil, err
		}
		if ok {
			mp.IsSkipped = true
			mp.SkippedAt = &now
			return &SkipResult{MealPlan: mp}, nil
		}
		// lost a race; look at what won
		if mp, err = s.plans.FindByID(ctx, familyID, mealPlanID); err != nil {
			return nil, notFound("Meal plan", err)
		}
	}
	return nil, &StateConflictError{Message: "Meal plan was changed by another request"}
}

type scheduledMeal struct {
	mealType model.MealType
	at       time.Time
}

// CurrentMeal picks the latest enabled meal whose time has come today and returns
// the first slot from there on that is neither cooked nor skipped.
func (s *mealPlanService) CurrentMeal(ctx context.Context, familyID, userID uuid.UUID) (*CurrentMeal, error) {
	pref, err := s.families.FindPreference(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref = nil
	} else if err != nil {
		return nil, err
	}

	now := s.clock.now()
	today := startOfDay(now)
	schedule := mealSchedule(today, pref)

	enabled := make(map[model.MealType]bool, len(schedule))
	for _, m := range schedule {
		enabled[m.mealType] = true
	}
	plans, err := s.plans.List(ctx, familyID, &today, &today)
	if err != nil {
		return nil, err
	}
	byType := make(map[model.MealType]*model.MealPlan)
	available := 0
	for i := range plans {
		if !enabled[plans[i].Type] {
			continue
		}
		available++
		byType[plans[i].Type] = &plans[i]
	}

	startIdx := 0
	for i, m := range schedule {
		if !now.Before(m.at) {
			startIdx = i
		}
	}
	res := &CurrentMeal{Date: today.Format(time.DateOnly), Now: now, AvailableMealsCount: available}
	for _, m := range schedule[startIdx:] {
		if mp := byType[m.mealType]; mp != nil && !mp.IsCooked && !mp.IsSkipped {
			res.Meal = mp
			break
		}
	}
	return res, nil
}

// mealSchedule lists the user's enabled meal types with today's times, earliest first.
func mealSchedule(day time.Time, pref *model.UserPreference) []scheduledMeal {
	enabled := func(flag *bool, def bool) bool {
		if flag == nil {
			return def
		}
		return *flag
	}
	var eats [4]bool
	var times [4]*string
	if pref != nil {
		eats = [4]bool{
			enabled(pref.EatsBreakfast, true),
			enabled(pref.EatsLunch, true),
			enabled(pref.EatsDinner, true),
			enabled(pref.EatsSnack, false),
		}
		times = [4]*string{pref.BreakfastTime, pref.LunchTime, pref.DinnerTime, pref.SnackTime}
	} else {
		eats = [4]bool{true, true, true, false}
	}

	types := [4]model.MealType{model.MealBreakfast, model.MealLunch, model.MealDinner, model.MealSnack}
	var out []scheduledMeal
	for i, t := range types {
		if !eats[i] {
			continue
		}
		out = append(out, scheduledMeal{mealType: t, at: mealTime(day, t, times[i])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })
	return out
}

// mealTime resolves an "HH:MM" setting on day, falling back to the type's default.
func mealTime(day time.Time, t model.MealType, configured *string) time.Time {
	value := defaultMealTimes[t]
	if configured != nil && mealTimePattern.MatchString(*configured) {
		value = *configured
	}
	m := mealTimePattern.FindStringSubmatch(value)
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return day.Add(time.Duration(h)*time.Hour + time.Duration(mm)*time.Minute)
}
