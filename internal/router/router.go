package router

import (
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/config"
	"github.com/xalleer/kitchen-os-backend/internal/handler"
	"github.com/xalleer/kitchen-os-backend/internal/infra"
	"github.com/xalleer/kitchen-os-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New returns a configured Gin engine over already wired services.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, aiCB *infra.CircuitBreaker, svcs *Services) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(max(cfg.RateLimitRPM, 1), time.Minute))

	// ── Handlers ─────────────────────────────────────────────────────────────
	mealPlansH := handler.NewMealPlansHandler(svcs.MealPlans)
	inventoryH := handler.NewInventoryHandler(svcs.Inventory)
	shoppingH := handler.NewShoppingListHandler(svcs.Shopping)
	budgetH := handler.NewBudgetHandler(svcs.Budget)
	pricesH := handler.NewPricesHandler(svcs.Prices)
	recipesH := handler.NewRecipesHandler(svcs.Recipes)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, aiCB))

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		plans := v1.Group("/meal-plans")
		{
			plans.GET("", mealPlansH.List)
			plans.DELETE("", mealPlansH.DeleteAll)
			plans.GET("/current", mealPlansH.Current)
			plans.POST("/generate", mealPlansH.Generate)
			plans.POST("/async", mealPlansH.GenerateAsync)
			plans.GET("/jobs/:id", mealPlansH.GetJob)
			plans.POST("/regenerate-day", mealPlansH.RegenerateDay)
		}

		// single slots
		meals := v1.Group("/meals")
		{
			meals.POST("/:id/regenerate", mealPlansH.RegenerateMeal)
			meals.POST("/:id/cook", mealPlansH.Cook)
			meals.POST("/:id/skip", mealPlansH.Skip)
		}

		recipes := v1.Group("/recipes")
		{
			recipes.GET("", recipesH.List)
			recipes.POST("", recipesH.Create)
			recipes.GET("/expiring", recipesH.SuggestFromExpiring)
			recipes.POST("/cook", recipesH.CookIngredients)
			recipes.GET("/:id", recipesH.Get)
			recipes.DELETE("/:id", recipesH.Delete)
			recipes.GET("/:id/cook-preview", recipesH.CookPreview)
			recipes.POST("/:id/cook", recipesH.Cook)
			recipes.PUT("/:id/saved", mealPlansH.SaveRecipe)
		}

		inv := v1.Group("/inventory")
		{
			inv.GET("", inventoryH.List)
			inv.POST("", inventoryH.Add)
			inv.GET("/expiring", inventoryH.Expiring)
			inv.GET("/availability", inventoryH.Availability)
			inv.POST("/deduct", inventoryH.Deduct)
			inv.PATCH("/items/:id", inventoryH.Update)
			inv.POST("/items/:id/remove", inventoryH.Remove)
			inv.DELETE("/items/:id", inventoryH.Delete)
		}

		shop := v1.Group("/shopping-list")
		{
			shop.GET("", shoppingH.List)
			shop.DELETE("", shoppingH.Clear)
			shop.POST("/generate", shoppingH.Generate)
			shop.POST("/complete", shoppingH.Complete)
			shop.POST("/items", shoppingH.AddItems)
			shop.PATCH("/items/:id", shoppingH.UpdateItem)
			shop.POST("/items/:id/bought", shoppingH.MarkBought)
			shop.DELETE("/items/:id", shoppingH.DeleteItem)
		}

		budget := v1.Group("/budget")
		{
			budget.GET("/current", budgetH.Current)
			budget.GET("/period", budgetH.Period)
			budget.PUT("/limit", budgetH.SetLimit)
		}

		v1.POST("/products/:id/prices", pricesH.Record)
		v1.GET("/products/:id/prices", pricesH.History)
	}

	return r
}
