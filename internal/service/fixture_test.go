package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/ai"
	"github.com/xalleer/kitchen-os-backend/internal/model"
	"github.com/xalleer/kitchen-os-backend/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// 2026-01-05 is a Monday.
var monday = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

type genResponse struct {
	plan *ai.Plan
	err  error
}

// fakeGenerator replays canned responses; the last one repeats.
type fakeGenerator struct {
	mu        sync.Mutex
	responses []genResponse
	requests  []ai.PlanRequest

	recipe         *ai.Recipe
	recipeErr      error
	recipeRequests []ai.RecipeRequest
}

func (g *fakeGenerator) GeneratePlan(_ context.Context, req ai.PlanRequest) (*ai.Plan, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if len(g.responses) == 0 {
		return nil, ai.ErrMalformedPlan
	}
	r := g.responses[0]
	if len(g.responses) > 1 {
		g.responses = g.responses[1:]
	}
	return r.plan, r.err
}

func (g *fakeGenerator) GenerateRecipe(_ context.Context, req ai.RecipeRequest) (*ai.Recipe, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recipeRequests = append(g.recipeRequests, req)
	if g.recipe == nil && g.recipeErr == nil {
		return nil, ai.ErrMalformedRecipe
	}
	return g.recipe, g.recipeErr
}

func (g *fakeGenerator) push(plan *ai.Plan, err error) {
	g.responses = append(g.responses, genResponse{plan: plan, err: err})
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type recordingNotifier struct{ ids []uuid.UUID }

func (n *recordingNotifier) Enqueue(_ context.Context, id uuid.UUID) error {
	n.ids = append(n.ids, id)
	return nil
}

type fixture struct {
	now      time.Time
	familyID uuid.UUID

	families  *stubFamilyRepo
	products  *stubProductRepo
	inventory *stubInventoryRepo
	weeks     *stubWeekRepo
	plans     *stubMealPlanRepo
	recipes   *stubRecipeRepo
	shopping  *stubShoppingRepo
	jobs      *stubJobRepo
	prices    *stubPriceRepo
	gen       *fakeGenerator
	notifier  *recordingNotifier

	budgetSvc    service.WeeklyBudgetService
	priceSvc     service.PriceService
	inventorySvc service.InventoryService
	shoppingSvc  service.ShoppingListService
	mealSvc      service.MealPlanService
	recipeSvc    service.RecipeService
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{now: now}
	clock := service.Clock(func() time.Time { return f.now })

	f.families = newStubFamilyRepo()
	f.products = newStubProductRepo()
	f.inventory = newStubInventoryRepo(f.products)
	f.weeks = newStubWeekRepo()
	f.plans, f.recipes = newStubPlanStore()
	f.shopping = newStubShoppingRepo(f.products)
	f.jobs = newStubJobRepo()
	f.prices = &stubPriceRepo{}
	f.gen = &fakeGenerator{}
	f.notifier = &recordingNotifier{}

	f.budgetSvc = service.NewWeeklyBudgetService(nil, f.families, f.weeks, clock)
	f.priceSvc = service.NewPriceService(nil, f.products, f.prices, clock)
	f.inventorySvc = service.NewInventoryService(nil, f.inventory, f.products, f.budgetSvc, f.priceSvc, clock)
	f.shoppingSvc = service.NewShoppingListService(nil, f.shopping, f.plans, f.products, f.families, f.inventorySvc, clock)
	f.mealSvc = service.NewMealPlanService(service.MealPlanDeps{
		Families:  f.families,
		Products:  f.products,
		Recipes:   f.recipes,
		MealPlans: f.plans,
		Jobs:      f.jobs,
		Inventory: f.inventorySvc,
		Shopping:  f.shoppingSvc,
		AI:        f.gen,
		Notifier:  f.notifier,
		Clock:     clock,
	})

	f.recipeSvc = service.NewRecipeService(service.RecipeDeps{
		Families:  f.families,
		Products:  f.products,
		Recipes:   f.recipes,
		Inventory: f.inventorySvc,
		Shopping:  f.shoppingSvc,
		AI:        f.gen,
		Clock:     clock,
	})

	family := &model.Family{
		Name:        "Kovalenko",
		BudgetLimit: decimal.NewFromInt(1000),
		Members:     []model.FamilyMember{{Name: "Olena", Goal: "MAINTAIN", EatsBreakfast: true, EatsLunch: true, EatsDinner: true}},
	}
	require.NoError(t, f.families.Create(context.Background(), family))
	f.familyID = family.ID
	return f
}

func (f *fixture) product(name, category string, unit model.BaseUnit, avgPrice float64) model.Product {
	p := &model.Product{
		ID:           uuid.New(),
		Name:         name,
		Category:     category,
		BaseUnit:     unit,
		AveragePrice: decimal.NewFromFloat(avgPrice),
	}
	f.products.products[p.ID] = p
	return *p
}

func (f *fixture) stock(p model.Product, qty float64, expiry *time.Time) model.InventoryItem {
	it := &model.InventoryItem{FamilyID: f.familyID, ProductID: p.ID, Quantity: qty, ExpiryDate: expiry}
	_ = f.inventory.CreateTx(nil, it)
	return *it
}

func (f *fixture) batches(p model.Product) []model.InventoryItem {
	out, _ := f.inventory.LockBatchesTx(nil, f.familyID, p.ID)
	return out
}

// slot stores a meal plan row with a recipe made of the given ingredients.
func (f *fixture) slot(date time.Time, mt model.MealType, ings ...model.RecipeIngredient) model.MealPlan {
	fid := f.familyID
	rec := &model.Recipe{Name: string(mt) + " dish", FamilyID: &fid, Ingredients: ings}
	_ = f.recipes.CreateTx(nil, rec)
	mp := &model.MealPlan{FamilyID: f.familyID, Date: date, Type: mt, RecipeID: rec.ID}
	_ = f.plans.CreateTx(nil, mp)
	return *mp
}

func needs(p model.Product, amount float64) model.RecipeIngredient {
	return model.RecipeIngredient{ProductID: p.ID, Amount: amount, Product: p}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func price(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func ing(name string, amount float64) ai.Ingredient {
	return ai.Ingredient{ProductName: name, Amount: amount, Unit: "g"}
}

func meal(mt model.MealType, name string, ings ...ai.Ingredient) ai.Meal {
	return ai.Meal{Type: mt, Recipe: ai.Recipe{Name: name, Instructions: []string{"Prepare", "Serve"}, Ingredients: ings}}
}

// planOfDays builds n identical days of breakfast and dinner.
func planOfDays(n int, ings ...ai.Ingredient) *ai.Plan {
	plan := &ai.Plan{}
	for i := 0; i < n; i++ {
		plan.Days = append(plan.Days, ai.Day{Meals: []ai.Meal{
			meal(model.MealBreakfast, "Porridge", ings...),
			meal(model.MealDinner, "Stew", ings...),
		}})
	}
	return plan
}
