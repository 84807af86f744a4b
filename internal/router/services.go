package router

import (
	"github.com/xalleer/kitchen-os-backend/internal/ai"
	"github.com/xalleer/kitchen-os-backend/internal/config"
	"github.com/xalleer/kitchen-os-backend/internal/infra"
	"github.com/xalleer/kitchen-os-backend/internal/repository"
	"github.com/xalleer/kitchen-os-backend/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the composition root shared by the HTTP layer and the workers.
type Services struct {
	Budget    service.WeeklyBudgetService
	Prices    service.PriceService
	Inventory service.InventoryService
	Shopping  service.ShoppingListService
	MealPlans service.MealPlanService
	Recipes   service.RecipeService
}

// NewServices wires repositories and services. rdb may be nil.
// Dependency graph: Service ← Repository ← DB/Redis
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, gen ai.Generator, notifier service.JobNotifier) *Services {
	// ── Repositories ─────────────────────────────────────────────────────────
	familyRepo := repository.NewFamilyRepository(db)
	productRepo := repository.NewCachedProductRepository(repository.NewProductRepository(db), rdb, cfg.CatalogCacheTTL)
	inventoryRepo := repository.NewInventoryRepository(db)
	weekRepo := repository.NewWeeklyBudgetRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	mealPlanRepo := repository.NewMealPlanRepository(db)
	shoppingRepo := repository.NewShoppingListRepository(db)
	jobRepo := repository.NewJobRepository(db)
	priceRepo := repository.NewPriceObservationRepository(db)

	// meal-plan and recipe cooking serialise on the same family keys
	cookLocker := infra.NewLocker(rdb, cfg.CookLockTTL)

	// ── Services ─────────────────────────────────────────────────────────────
	budgetSvc := service.NewWeeklyBudgetService(db, familyRepo, weekRepo, nil)
	priceSvc := service.NewPriceService(db, productRepo, priceRepo, nil)
	inventorySvc := service.NewInventoryService(db, inventoryRepo, productRepo, budgetSvc, priceSvc, nil)
	shoppingSvc := service.NewShoppingListService(db, shoppingRepo, mealPlanRepo, productRepo, familyRepo, inventorySvc, nil)
	mealPlanSvc := service.NewMealPlanService(service.MealPlanDeps{
		DB:        db,
		Families:  familyRepo,
		Products:  productRepo,
		Recipes:   recipeRepo,
		MealPlans: mealPlanRepo,
		Jobs:      jobRepo,
		Inventory: inventorySvc,
		Shopping:  shoppingSvc,
		AI:        gen,
		Locker:    cookLocker,
		Notifier:  notifier,
	})
	recipeSvc := service.NewRecipeService(service.RecipeDeps{
		DB:        db,
		Families:  familyRepo,
		Products:  productRepo,
		Recipes:   recipeRepo,
		Inventory: inventorySvc,
		Shopping:  shoppingSvc,
		AI:        gen,
		Locker:    cookLocker,
	})

	return &Services{
		Budget:    budgetSvc,
		Prices:    priceSvc,
		Inventory: inventorySvc,
		Shopping:  shoppingSvc,
		MealPlans: mealPlanSvc,
		Recipes:   recipeSvc,
	}
}
