package service

import (
	"context"
	"errors"
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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxPlanDays = 7

const (
	msgAIUnprocessable = "Failed to generate meal plan. AI response could not be processed."
	msgAIIncomplete    = "AI returned incomplete meal plan"
)

type GenerateInput struct {
	Days int
	// Date targets a single day; exactly one day is then expected from the model.
	Date *time.Time
}

type GenerateResult struct {
	EstimatedCost decimal.Decimal  `json:"estimated_cost"`
	BudgetLimit   decimal.Decimal  `json:"budget_limit"`
	DaysCount     int              `json:"days_count"`
	TotalMeals    int              `json:"total_meals"`
	MealPlans     []model.MealPlan `json:"meal_plans"`
}

type MealPlanView struct {
	MealPlans    []model.MealPlan            `json:"meal_plans"`
	GroupedByDay map[string][]model.MealPlan `json:"grouped_by_day"`
	TotalDays    int                         `json:"total_days"`
	TotalMeals   int                         `json:"total_meals"`
}

type CookInput struct {
	IgnoreMissing     bool
	AddToShoppingList bool
}

type CookResult struct {
	AlreadyCooked bool            `json:"already_cooked"`
	Deducted      []DeductResult  `json:"deducted,omitempty"`
	MissingItems  []MissingItem   `json:"missing_items,omitempty"`
	MealPlan      *model.MealPlan `json:"meal_plan"`
}

type SkipResult struct {
	AlreadySkipped bool            `json:"already_skipped"`
	MealPlan       *model.MealPlan `json:"meal_plan"`
}

type CurrentMeal struct {
	Date                string          `json:"date"`
	Now                 time.Time       `json:"now"`
	Meal                *model.MealPlan `json:"meal"`
	AvailableMealsCount int             `json:"available_meals_count"`
}

type JobTicket struct {
	JobID     uuid.UUID       `json:"job_id"`
	Status    model.JobStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// JobNotifier hands a freshly created job to whatever runs jobs.
type JobNotifier interface {
	Enqueue(ctx context.Context, jobID uuid.UUID) error
}

// MealPlanService turns model proposals into persisted plans and drives each
// slot through cooking or skipping.
type MealPlanService interface {
	Generate(ctx context.Context, familyID uuid.UUID, in GenerateInput) (*GenerateResult, error)
	RegenerateDay(ctx context.Context, familyID uuid.UUID, date time.Time) (*GenerateResult, error)
	RegenerateMeal(ctx context.Context, familyID, mealPlanID uuid.UUID) (*model.MealPlan, error)
	List(ctx context.Context, familyID uuid.UUID, from, to *time.Time) (*MealPlanView, error)
	CurrentMeal(ctx context.Context, familyID, userID uuid.UUID) (*CurrentMeal, error)
	DeleteAll(ctx context.Context, familyID uuid.UUID) error
	Cook(ctx context.Context, familyID, mealPlanID uuid.UUID, in CookInput) (*CookResult, error)
	Skip(ctx context.Context, familyID, mealPlanID uuid.UUID) (*SkipResult, error)
	SaveRecipe(ctx context.Context, familyID, recipeID uuid.UUID, saved bool) error

	GenerateAsync(ctx context.Context, familyID, userID uuid.UUID, days int) (*JobTicket, error)
	GetJob(ctx context.Context, familyID, jobID uuid.UUID) (*model.MealPlanGenerationJob, error)
	// NextPendingJob reports the oldest PENDING job, if any.
	NextPendingJob(ctx context.Context) (uuid.UUID, bool, error)
	// ProcessJob claims and runs a job. Losing the claim is not an error.
	ProcessJob(ctx context.Context, jobID uuid.UUID) error
}

type MealPlanDeps struct {
	DB        *gorm.DB
	Families  repository.FamilyRepository
	Products  repository.ProductRepository
	Recipes   repository.RecipeRepository
	MealPlans repository.MealPlanRepository
	Jobs      repository.JobRepository
	Inventory InventoryService
	Shopping  ShoppingListService
	AI        ai.Generator
	Locker    infra.Locker
	Notifier  JobNotifier
	Clock     Clock
}

type mealPlanService struct {
	db        *gorm.DB
	families  repository.FamilyRepository
	products  repository.ProductRepository
	recipes   repository.RecipeRepository
	plans     repository.MealPlanRepository
	jobs      repository.JobRepository
	inventory InventoryService
	shopping  ShoppingListService
	ai        ai.Generator
	locker    infra.Locker
	notifier  JobNotifier
	clock     Clock
}

func NewMealPlanService(d MealPlanDeps) MealPlanService {
	locker := d.Locker
	if locker == nil {
		locker = infra.NewLocalLocker()
	}
	return &mealPlanService{
		db:        d.DB,
		families:  d.Families,
		products:  d.Products,
		recipes:   d.Recipes,
		plans:     d.MealPlans,
		jobs:      d.Jobs,
		inventory: d.Inventory,
		shopping:  d.Shopping,
		ai:        d.AI,
		locker:    locker,
		notifier:  d.Notifier,
		clock:     d.Clock,
	}
}

// daysUntilSunday counts today through the coming Sunday, inclusive.
func daysUntilSunday(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 1
	}
	return 7 - int(t.Weekday()) + 1
}

func clampDays(days int) int {
	if days <= 0 || days > maxPlanDays {
		return maxPlanDays
	}
	return days
}

func (s *mealPlanService) Generate(ctx context.Context, familyID uuid.UUID, in GenerateInput) (*GenerateResult, error) {
	days := clampDays(in.Days)
	now := s.clock.now()

	start := startOfDay(now)
	expected := min(days, daysUntilSunday(now))
	var from, to *time.Time
	if in.Date != nil {
		start = startOfDay(*in.Date)
		expected = 1
		from, to = &start, &start
	}

	family, idx, err := s.planningContext(ctx, familyID)
	if err != nil {
		return nil, err
	}
	req := planRequest(family, idx, start, expected)

	plan, err := s.requestPlan(ctx, req, expected, in.Date == nil)
	if err != nil {
		return nil, err
	}
	drafts, cost, err := draftDays(idx, familyID, plan.Days[:expected], start)
	if err != nil {
		return nil, err
	}

	saved, err := s.replaceSlots(ctx, familyID, from, to, drafts)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("family_id", familyID.String()).
		Int("days", expected).
		Int("meals", len(saved)).
		Str("estimated_cost", cost.String()).
		Msg("meal plan: generated")

	return &GenerateResult{
		EstimatedCost: cost.Round(2),
		BudgetLimit:   family.BudgetLimit,
		DaysCount:     expected,
		TotalMeals:    len(saved),
		MealPlans:     saved,
	}, nil
}

func (s *mealPlanService) RegenerateDay(ctx context.Context, familyID uuid.UUID, date time.Time) (*GenerateResult, error) {
	return s.Generate(ctx, familyID, GenerateInput{Days: 1, Date: &date})
}

func (s *mealPlanService) RegenerateMeal(ctx context.Context, familyID, mealPlanID uuid.UUID) (*model.MealPlan, error) {
	mp, err := s.plans.FindByID(ctx, familyID, mealPlanID)
	if err != nil {
		return nil, notFound("Meal plan", err)
	}
	if mp.IsCooked {
		return nil, &StateConflictError{Message: "Meal already cooked"}
	}

	family, idx, err := s.planningContext(ctx, familyID)
	if err != nil {
		return nil, err
	}
	plan, err := s.ai.GeneratePlan(ctx, planRequest(family, idx, mp.Date, 1))
	if err != nil {
		log.Warn().Err(err).Str("meal_plan_id", mealPlanID.String()).Msg("meal plan: regenerate meal failed")
		return nil, &ValidationError{Message: "Failed to regenerate meal. AI response could not be processed.", Details: err.Error()}
	}
	if len(plan.Days) == 0 {
		return nil, newValidation("Invalid AI response: days array is missing")
	}

	var proposal *ai.Meal
	for i := range plan.Days[0].Meals {
		if plan.Days[0].Meals[i].Type == mp.Type {
			proposal = &plan.Days[0].Meals[i]
			break
		}
	}
	if proposal == nil {
		return nil, newValidation("Failed to generate new meal")
	}
	recipe, _, err := draftRecipe(idx, familyID, proposal.Recipe)
	if err != nil {
		return nil, err
	}

	oldRecipe := mp.RecipeID
	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.recipes.CreateTx(tx, &recipe); err != nil {
			return err
		}
		if err := s.plans.SetRecipeTx(tx, mp.ID, recipe.ID); err != nil {
			return err
		}
		_, err := s.recipes.DeleteOrphansTx(tx, []uuid.UUID{oldRecipe})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("replace recipe: %w", err)
	}
	mp.RecipeID = recipe.ID
	mp.Recipe = recipe
	return mp, nil
}

func (s *mealPlanService) List(ctx context.Context, familyID uuid.UUID, from, to *time.Time) (*MealPlanView, error) {
	plans, err := s.plans.List(ctx, familyID, from, to)
	if err != nil {
		return nil, err
	}
	view := &MealPlanView{MealPlans: plans, GroupedByDay: make(map[string][]model.MealPlan), TotalMeals: len(plans)}
	for _, mp := range plans {
		key := mp.Date.Format(time.DateOnly)
		view.GroupedByDay[key] = append(view.GroupedByDay[key], mp)
	}
	view.TotalDays = len(view.GroupedByDay)
	return view, nil
}

func (s *mealPlanService) DeleteAll(ctx context.Context, familyID uuid.UUID) error {
	return runTx(ctx, s.db, func(tx *gorm.DB) error {
		ids, err := s.plans.DeleteRangeTx(tx, familyID, nil, nil)
		if err != nil {
			return err
		}
		_, err = s.recipes.DeleteOrphansTx(tx, ids)
		return err
	})
}

func (s *mealPlanService) SaveRecipe(ctx context.Context, familyID, recipeID uuid.UUID, saved bool) error {
	if err := s.recipes.SetSaved(ctx, familyID, recipeID, saved); err != nil {
		return notFound("Recipe", err)
	}
	if saved {
		return nil
	}
	return runTx(ctx, s.db, func(tx *gorm.DB) error {
		_, err := s.recipes.DeleteOrphansTx(tx, []uuid.UUID{recipeID})
		return err
	})
}

// planningContext loads the family and the catalog snapshot a generation works against.
func (s *mealPlanService) planningContext(ctx context.Context, familyID uuid.UUID) (*model.Family, *catalog.Index, error) {
	family, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return nil, nil, notFound("Family", err)
	}
	if len(family.Members) == 0 {
		return nil, nil, newValidation("Family has no members")
	}
	products, err := s.products.ListPlanning(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load planning catalog: %w", err)
	}
	return family, catalog.NewIndex(products), nil
}

func planRequest(family *model.Family, idx *catalog.Index, start time.Time, days int) ai.PlanRequest {
	req := ai.PlanRequest{
		Budget:       family.BudgetLimit,
		StartDate:    start,
		Days:         days,
		Restrictions: familyRestrictions(family),
		Products:     catalogEntries(idx),
	}
	for _, m := range family.Members {
		req.Members = append(req.Members, ai.MemberProfile{
			Name:          m.Name,
			Goal:          m.Goal,
			Allergies:     m.AllergyList(),
			EatsBreakfast: m.EatsBreakfast,
			EatsLunch:     m.EatsLunch,
			EatsDinner:    m.EatsDinner,
			EatsSnack:     m.EatsSnack,
		})
	}
	return req
}

// familyRestrictions is the union of every member's allergies, first spelling wins.
func familyRestrictions(family *model.Family) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range family.Members {
		for _, a := range m.AllergyList() {
			key := catalog.NormalizeName(a)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, strings.TrimSpace(a))
		}
	}
	return out
}

func catalogEntries(idx *catalog.Index) []ai.CatalogEntry {
	out := make([]ai.CatalogEntry, 0, idx.Len())
	for _, p := range idx.Products() {
		out = append(out, ai.CatalogEntry{ID: p.ID, Name: p.Name, Category: p.Category, Unit: p.BaseUnit})
	}
	return out
}

// requestPlan asks the model for a plan, retrying once when it comes back short.
func (s *mealPlanService) requestPlan(ctx context.Context, req ai.PlanRequest, expected int, retryShort bool) (*ai.Plan, error) {
	plan, err := s.ai.GeneratePlan(ctx, req)
	if err == nil && retryShort && len(plan.Days) < expected {
		log.Info().Int("received", len(plan.Days)).Int("expected", expected).Msg("meal plan: short response, retrying once")
		plan, err = s.ai.GeneratePlan(ctx, req)
	}
	if err != nil {
		log.Warn().Err(err).Msg("meal plan: ai generation failed")
		return nil, &ValidationError{Message: msgAIUnprocessable, Details: err.Error()}
	}
	if len(plan.Days) < expected {
		return nil, &ValidationError{Message: msgAIIncomplete, ExpectedDays: expected, ReceivedDays: len(plan.Days)}
	}
	return plan, nil
}

type slotDraft struct {
	date     time.Time
	mealType model.MealType
	recipe   model.Recipe
}

// draftDays resolves and prices every proposed meal without touching storage.
// Day i lands on start+i whatever date the model put on it. Unresolved
// ingredients are collected across the whole plan.
func draftDays(idx *catalog.Index, familyID uuid.UUID, days []ai.Day, start time.Time) ([]slotDraft, decimal.Decimal, error) {
	var drafts []slotDraft
	var unresolved []UnresolvedIngredient
	total := decimal.Zero
	for i, day := range days {
		date := start.AddDate(0, 0, i)
		seen := make(map[model.MealType]bool, len(day.Meals))
		for _, meal := range day.Meals {
			if seen[meal.Type] {
				return nil, decimal.Zero, &ValidationError{
					Message: msgAIUnprocessable,
					Details: fmt.Sprintf("day %d has more than one %s", i+1, meal.Type),
				}
			}
			seen[meal.Type] = true

			recipe, cost, err := draftRecipe(idx, familyID, meal.Recipe)
			var ue *UnresolvedIngredientsError
			if errors.As(err, &ue) {
				unresolved = append(unresolved, ue.Ingredients...)
				continue
			}
			if err != nil {
				return nil, decimal.Zero, err
			}
			total = total.Add(cost)
			drafts = append(drafts, slotDraft{date: date, mealType: meal.Type, recipe: recipe})
		}
	}
	if len(unresolved) > 0 {
		return nil, decimal.Zero, &UnresolvedIngredientsError{Ingredients: unresolved}
	}
	return drafts, total, nil
}

func draftRecipe(idx *catalog.Index, familyID uuid.UUID, r ai.Recipe) (model.Recipe, decimal.Decimal, error) {
	resolved, err := ResolveIngredients(idx, r.Ingredients)
	if err != nil {
		return model.Recipe{}, decimal.Zero, err
	}
	fid := familyID
	rec := model.Recipe{
		Name:         strings.TrimSpace(r.Name),
		Description:  r.Description,
		Instructions: strings.Join(r.Instructions, "\n"),
		CookingTime:  r.CookingTime,
		Servings:     r.Servings,
		Calories:     r.Calories,
		Category:     r.Category,
		FamilyID:     &fid,
	}
	cost := decimal.Zero
	for i, ing := range resolved {
		rec.Ingredients = append(rec.Ingredients, model.RecipeIngredient{
			ProductID: ing.Product.ID,
			Amount:    ing.Amount,
			Position:  i,
			Product:   ing.Product,
		})
		cost = cost.Add(catalog.EstimateCost(ing.Product, ing.Amount))
	}
	return rec, cost, nil
}

// replaceSlots swaps the slots in [from, to] for drafts and reclaims the recipes
// nothing points at any more, all in one transaction.
func (s *mealPlanService) replaceSlots(ctx context.Context, familyID uuid.UUID, from, to *time.Time, drafts []slotDraft) ([]model.MealPlan, error) {
	saved := make([]model.MealPlan, 0, len(drafts))
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		old, err := s.plans.DeleteRangeTx(tx, familyID, from, to)
		if err != nil {
			return fmt.Errorf("delete slots: %w", err)
		}
		for i := range drafts {
			d := &drafts[i]
			if err := s.recipes.CreateTx(tx, &d.recipe); err != nil {
				return fmt.Errorf("create recipe: %w", err)
			}
			mp := model.MealPlan{FamilyID: familyID, Date: d.date, Type: d.mealType, RecipeID: d.recipe.ID}
			if err := s.plans.CreateTx(tx, &mp); err != nil {
				return fmt.Errorf("create slot: %w", err)
			}
			mp.Recipe = d.recipe
			saved = append(saved, mp)
		}
		gone, err := s.recipes.DeleteOrphansTx(tx, old)
		if err != nil {
			return fmt.Errorf("reclaim recipes: %w", err)
		}
		log.Debug().Int("slots_replaced", len(old)).Int("recipes_reclaimed", len(gone)).Msg("meal plan: slots replaced")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
