package repository

import (
	"context"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const mealTypeOrder = "CASE type WHEN 'BREAKFAST' THEN 0 WHEN 'LUNCH' THEN 1 WHEN 'SNACK' THEN 2 ELSE 3 END"

type MealPlanRepository interface {
	// List returns slots with recipes and ingredients in [from, to] (either bound optional).
	List(ctx context.Context, familyID uuid.UUID, from, to *time.Time) ([]model.MealPlan, error)
	FindByID(ctx context.Context, familyID, id uuid.UUID) (*model.MealPlan, error)
	// MarkSkipped only flips a slot that is neither cooked nor skipped.
	MarkSkipped(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// DeleteRangeTx deletes slots in range (all of the family's when both bounds
	// are nil) and returns the recipe ids they referenced.
	DeleteRangeTx(tx *gorm.DB, familyID uuid.UUID, from, to *time.Time) ([]uuid.UUID, error)
	CreateTx(tx *gorm.DB, mp *model.MealPlan) error
	SetRecipeTx(tx *gorm.DB, id, recipeID uuid.UUID) error
	// MarkCookedTx only flips a slot that is neither cooked nor skipped.
	MarkCookedTx(tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error)
}

type mealPlanRepo struct{ db *gorm.DB }

func NewMealPlanRepository(db *gorm.DB) MealPlanRepository { return &mealPlanRepo{db: db} }

func withRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Recipe.Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Recipe.Ingredients.Product")
}

func dateRange(q *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where("date >= ?", from.Format(time.DateOnly))
	}
	if to != nil {
		q = q.Where("date <= ?", to.Format(time.DateOnly))
	}
	return q
}

func (r *mealPlanRepo) List(ctx context.Context, familyID uuid.UUID, from, to *time.Time) ([]model.MealPlan, error) {
	var plans []model.MealPlan
	q := withRecipe(r.db.WithContext(ctx)).Where("family_id = ?", familyID)
	err := dateRange(q, from, to).
		Order("date ASC").
		Order(mealTypeOrder).
		Find(&plans).Error
	return plans, err
}

func (r *mealPlanRepo) FindByID(ctx context.Context, familyID, id uuid.UUID) (*model.MealPlan, error) {
	var mp model.MealPlan
	err := withRecipe(r.db.WithContext(ctx)).
		Where("id = ? AND family_id = ?", id, familyID).
		First(&mp).Error
	return &mp, err
}

func (r *mealPlanRepo) MarkSkipped(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.MealPlan{}).
		Where("id = ? AND is_cooked = false AND is_skipped = false", id).
		Updates(map[string]interface{}{"is_skipped": true, "skipped_at": at})
	return res.RowsAffected == 1, res.Error
}

func (r *mealPlanRepo) DeleteRangeTx(tx *gorm.DB, familyID uuid.UUID, from, to *time.Time) ([]uuid.UUID, error) {
	var deleted []model.MealPlan
	q := dateRange(tx.Where("family_id = ?", familyID), from, to)
	if err := q.Clauses(clause.Returning{Columns: []clause.Column{{Name: "recipe_id"}}}).
		Delete(&deleted).Error; err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(deleted))
	ids := make([]uuid.UUID, 0, len(deleted))
	for _, mp := range deleted {
		if !seen[mp.RecipeID] {
			seen[mp.RecipeID] = true
			ids = append(ids, mp.RecipeID)
		}
	}
	return ids, nil
}

func (r *mealPlanRepo) CreateTx(tx *gorm.DB, mp *model.MealPlan) error {
	return tx.Omit(clause.Associations).Create(mp).Error
}

func (r *mealPlanRepo) SetRecipeTx(tx *gorm.DB, id, recipeID uuid.UUID) error {
	return tx.Model(&model.MealPlan{}).Where("id = ?", id).Update("recipe_id", recipeID).Error
}

func (r *mealPlanRepo) MarkCookedTx(tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error) {
	res := tx.Model(&model.MealPlan{}).
		Where("id = ? AND is_cooked = false AND is_skipped = false", id).
		Updates(map[string]interface{}{"is_cooked": true, "cooked_at": at})
	return res.RowsAffected == 1, res.Error
}
