package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/ai"
	"github.com/xalleer/kitchen-os-backend/internal/catalog"
	"github.com/xalleer/kitchen-os-backend/internal/infra"
	"github.com/xalleer/kitchen-os-backend/internal/model"
	"github.com/xalleer/kitchen-os-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const defaultPortions = 2

type IngredientInput struct {
	ProductID uuid.UUID
	Amount    float64
}

type NewRecipeInput struct {
	Name         string
	Description  string
	Instructions []string
	CookingTime  int
	Servings     int
	Calories     float64
	Category     *string
	Ingredients  []IngredientInput
}

type SuggestInput struct {
	DaysAhead int
	Portions  int
	// Save keeps the suggestion as a saved recipe instead of only returning it.
	Save bool
}

type ExpiringProduct struct {
	ProductID  uuid.UUID      `json:"product_id"`
	Name       string         `json:"name"`
	Quantity   float64        `json:"quantity"`
	BaseUnit   model.BaseUnit `json:"base_unit"`
	ExpiryDate *time.Time     `json:"expiry_date"`
}

type Suggestion struct {
	ExpiringProducts []ExpiringProduct `json:"expiring_products"`
	Recipe           *model.Recipe     `json:"suggested_recipe"`
	Stock            *CookPreview      `json:"stock,omitempty"`
}

type RecipeCookResult struct {
	RecipeName   string         `json:"recipe_name"`
	Deducted     []DeductResult `json:"deducted"`
	MissingItems []MissingItem  `json:"missing_items,omitempty"`
}

// RecipeService is the family's recipe book and the cooking of recipes outside
// any meal-plan slot. Cooking shares the meal plan's per-family lock.
type RecipeService interface {
	ListSaved(ctx context.Context, familyID uuid.UUID) ([]model.Recipe, error)
	Get(ctx context.Context, familyID, recipeID uuid.UUID) (*model.Recipe, error)
	Create(ctx context.Context, familyID uuid.UUID, in NewRecipeInput) (*model.Recipe, error)
	// Delete refuses recipes a meal plan still uses.
	Delete(ctx context.Context, familyID, recipeID uuid.UUID) error
	CookPreview(ctx context.Context, familyID, recipeID uuid.UUID) (*CookPreview, error)
	Cook(ctx context.Context, familyID, recipeID uuid.UUID, in CookInput) (*RecipeCookResult, error)
	// CookIngredients cooks an ad-hoc ingredient list, e.g. an unsaved suggestion.
	CookIngredients(ctx context.Context, familyID uuid.UUID, name string, ings []IngredientInput, in CookInput) (*RecipeCookResult, error)
	// SuggestFromExpiring asks the model for a recipe that uses up stock expiring
	// within DaysAhead. No expiring stock means no model call and a nil recipe.
	SuggestFromExpiring(ctx context.Context, familyID uuid.UUID, in SuggestInput) (*Suggestion, error)
}

type RecipeDeps struct {
	DB        *gorm.DB
	Families  repository.FamilyRepository
	Products  repository.ProductRepository
	Recipes   repository.RecipeRepository
	Inventory InventoryService
	Shopping  ShoppingListService
	AI        ai.Generator
	Locker    infra.Locker
	Clock     Clock
}

type recipeService struct {
	db       *gorm.DB
	families repository.FamilyRepository
	products repository.ProductRepository
	recipes  repository.RecipeRepository
	pantry   pantry
	ai       ai.Generator
	locker   infra.Locker
	clock    Clock
}

func NewRecipeService(d RecipeDeps) RecipeService {
	locker := d.Locker
	if locker == nil {
		locker = infra.NewLocalLocker()
	}
	return &recipeService{
		db:       d.DB,
		families: d.Families,
		products: d.Products,
		recipes:  d.Recipes,
		pantry:   pantry{db: d.DB, inventory: d.Inventory, shopping: d.Shopping},
		ai:       d.AI,
		locker:   locker,
		clock:    d.Clock,
	}
}

func (s *recipeService) ListSaved(ctx context.Context, familyID uuid.UUID) ([]model.Recipe, error) {
	return s.recipes.ListSaved(ctx, familyID)
}

func (s *recipeService) Get(ctx context.Context, familyID, recipeID uuid.UUID) (*model.Recipe, error) {
	rec, err := s.recipes.FindByID(ctx, familyID, recipeID)
	if err != nil {
		return nil, notFound("Recipe", err)
	}
	return rec, nil
}

func (s *recipeService) Create(ctx context.Context, familyID uuid.UUID, in NewRecipeInput) (*model.Recipe, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidation("recipe name is required")
	}
	ings, err := s.ingredients(ctx, in.Ingredients)
	if err != nil {
		return nil, err
	}
	fid := familyID
	rec := &model.Recipe{
		Name:         name,
		Description:  in.Description,
		Instructions: strings.Join(in.Instructions, "\n"),
		CookingTime:  in.CookingTime,
		Servings:     in.Servings,
		Calories:     in.Calories,
		Category:     in.Category,
		Saved:        true,
		FamilyID:     &fid,
		Ingredients:  ings,
	}
	if err := s.persist(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *recipeService) persist(ctx context.Context, rec *model.Recipe) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock.now()
	}
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		return s.recipes.CreateTx(tx, rec)
	})
	if err != nil {
		return fmt.Errorf("create recipe: %w", err)
	}
	return nil
}

func (s *recipeService) Delete(ctx context.Context, familyID, recipeID uuid.UUID) error {
	if _, err := s.recipes.FindByID(ctx, familyID, recipeID); err != nil {
		return notFound("Recipe", err)
	}
	return runTx(ctx, s.db, func(tx *gorm.DB) error {
		used, err := s.recipes.InUseTx(tx, recipeID)
		if err != nil {
			return err
		}
		if used {
			return &StateConflictError{Message: "Cannot delete recipe that is used in meal plans"}
		}
		return s.recipes.DeleteTx(tx, recipeID)
	})
}

func (s *recipeService) CookPreview(ctx context.Context, familyID, recipeID uuid.UUID) (*CookPreview, error) {
	rec, err := s.Get(ctx, familyID, recipeID)
	if err != nil {
		return nil, err
	}
	return s.pantry.preview(ctx, familyID, rec.Ingredients)
}

func (s *recipeService) Cook(ctx context.Context, familyID, recipeID uuid.UUID, in CookInput) (*RecipeCookResult, error) {
	rec, err := s.Get(ctx, familyID, recipeID)
	if err != nil {
		return nil, err
	}
	return s.cook(ctx, familyID, rec.Name, rec.Ingredients, in)
}

func (s *recipeService) CookIngredients(ctx context.Context, familyID uuid.UUID, name string, list []IngredientInput, in CookInput) (*RecipeCookResult, error) {
	ings, err := s.ingredients(ctx, list)
	if err != nil {
		return nil, err
	}
	return s.cook(ctx, familyID, strings.TrimSpace(name), ings, in)
}

func (s *recipeService) cook(ctx context.Context, familyID uuid.UUID, name string, ings []model.RecipeIngredient, in CookInput) (*RecipeCookResult, error) {
	release, err := s.locker.Acquire(ctx, cookLockKey(familyID))
	if err != nil {
		return nil, err
	}
	defer release()

	deducted, missing, err := s.pantry.consume(ctx, familyID, ings, in, nil)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("family_id", familyID.String()).
		Str("recipe", name).
		Int("products", len(deducted)).
		Int("missing", len(missing)).
		Msg("recipe: cooked")
	return &RecipeCookResult{RecipeName: name, Deducted: deducted, MissingItems: missing}, nil
}

// ingredients pins an input list to catalog products, keeping its order.
func (s *recipeService) ingredients(ctx context.Context, list []IngredientInput) ([]model.RecipeIngredient, error) {
	if len(list) == 0 {
		return nil, newValidation("no ingredients provided")
	}
	ids := make([]uuid.UUID, 0, len(list))
	for _, ing := range list {
		if ing.Amount <= 0 {
			return nil, newValidation("ingredient amounts must be positive")
		}
		ids = append(ids, ing.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]model.RecipeIngredient, 0, len(list))
	for i, ing := range list {
		p, ok := byID[ing.ProductID]
		if !ok {
			return nil, &NotFoundError{Entity: "Product"}
		}
		out = append(out, model.RecipeIngredient{ProductID: p.ID, Amount: ing.Amount, Position: i, Product: p})
	}
	return out, nil
}

func (s *recipeService) SuggestFromExpiring(ctx context.Context, familyID uuid.UUID, in SuggestInput) (*Suggestion, error) {
	family, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return nil, notFound("Family", err)
	}
	expiring, err := s.pantry.inventory.Expiring(ctx, familyID, in.DaysAhead)
	if err != nil {
		return nil, err
	}
	out := &Suggestion{ExpiringProducts: make([]ExpiringProduct, 0, len(expiring))}
	if len(expiring) == 0 {
		return out, nil
	}

	products, err := s.products.ListPlanning(ctx)
	if err != nil {
		return nil, fmt.Errorf("load planning catalog: %w", err)
	}
	known := make(map[uuid.UUID]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}
	var focus []string
	focused := make(map[uuid.UUID]bool, len(expiring))
	for _, it := range expiring {
		out.ExpiringProducts = append(out.ExpiringProducts, ExpiringProduct{
			ProductID:  it.ProductID,
			Name:       it.Product.Name,
			Quantity:   it.Quantity,
			BaseUnit:   it.Product.BaseUnit,
			ExpiryDate: it.ExpiryDate,
		})
		if !known[it.ProductID] {
			known[it.ProductID] = true
			products = append(products, it.Product)
		}
		if !focused[it.ProductID] {
			focused[it.ProductID] = true
			focus = append(focus, it.Product.Name)
		}
	}
	idx := catalog.NewIndex(products)

	portions := in.Portions
	if portions <= 0 {
		portions = defaultPortions
	}
	proposal, err := s.ai.GenerateRecipe(ctx, ai.RecipeRequest{
		Focus:        focus,
		Portions:     portions,
		Restrictions: familyRestrictions(family),
		Products:     catalogEntries(idx),
	})
	if err != nil {
		log.Warn().Err(err).Str("family_id", familyID.String()).Msg("recipe: suggestion failed")
		return nil, &ValidationError{Message: "Failed to generate recipe. AI response could not be processed.", Details: err.Error()}
	}
	rec, _, err := draftRecipe(idx, familyID, *proposal)
	if err != nil {
		return nil, err
	}
	if rec.Servings <= 0 {
		rec.Servings = portions
	}
	if in.Save {
		rec.Saved = true
		if err := s.persist(ctx, &rec); err != nil {
			return nil, err
		}
	}
	out.Recipe = &rec

	if out.Stock, err = s.pantry.preview(ctx, familyID, rec.Ingredients); err != nil {
		return nil, err
	}
	return out, nil
}
