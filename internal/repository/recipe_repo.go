package repository

import (
	"context"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecipeRepository interface {
	FindByID(ctx context.Context, familyID, id uuid.UUID) (*model.Recipe, error)
	SetSaved(ctx context.Context, familyID, id uuid.UUID, saved bool) error
	// ListSaved returns the family's saved recipes, newest first.
	ListSaved(ctx context.Context, familyID uuid.UUID) ([]model.Recipe, error)

	// CreateTx inserts the recipe and its ingredient rows.
	CreateTx(tx *gorm.DB, r *model.Recipe) error
	// DeleteOrphansTx removes, among ids, every recipe that is not saved and no
	// meal plan references any more. Ingredients go first. Returns the deleted ids.
	DeleteOrphansTx(tx *gorm.DB, ids []uuid.UUID) ([]uuid.UUID, error)
	// InUseTx reports whether any meal plan references the recipe.
	InUseTx(tx *gorm.DB, id uuid.UUID) (bool, error)
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
}

type recipeRepo struct{ db *gorm.DB }

func NewRecipeRepository(db *gorm.DB) RecipeRepository { return &recipeRepo{db: db} }

func withIngredients(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Ingredients.Product")
}

func (r *recipeRepo) FindByID(ctx context.Context, familyID, id uuid.UUID) (*model.Recipe, error) {
	var rec model.Recipe
	err := withIngredients(r.db.WithContext(ctx)).
		Where("id = ? AND family_id = ?", id, familyID).
		First(&rec).Error
	return &rec, err
}

func (r *recipeRepo) SetSaved(ctx context.Context, familyID, id uuid.UUID, saved bool) error {
	res := r.db.WithContext(ctx).Model(&model.Recipe{}).
		Where("id = ? AND family_id = ?", id, familyID).
		Update("saved", saved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeRepo) ListSaved(ctx context.Context, familyID uuid.UUID) ([]model.Recipe, error) {
	var recipes []model.Recipe
	err := withIngredients(r.db.WithContext(ctx)).
		Where("family_id = ? AND saved = true", familyID).
		Order("created_at DESC").
		Find(&recipes).Error
	return recipes, err
}

func (r *recipeRepo) CreateTx(tx *gorm.DB, rec *model.Recipe) error {
	if err := tx.Omit(clause.Associations).Create(rec).Error; err != nil {
		return err
	}
	for i := range rec.Ingredients {
		rec.Ingredients[i].RecipeID = rec.ID
	}
	if len(rec.Ingredients) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).Create(&rec.Ingredients).Error
}

func (r *recipeRepo) DeleteOrphansTx(tx *gorm.DB, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var orphans []uuid.UUID
	err := tx.Model(&model.Recipe{}).
		Where("id IN ? AND saved = false", ids).
		Where("NOT EXISTS (SELECT 1 FROM meal_plans mp WHERE mp.recipe_id = recipes.id)").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Pluck("id", &orphans).Error
	if err != nil || len(orphans) == 0 {
		return nil, err
	}
	if err := tx.Where("recipe_id IN ?", orphans).Delete(&model.RecipeIngredient{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", orphans).Delete(&model.Recipe{}).Error; err != nil {
		return nil, err
	}
	return orphans, nil
}

func (r *recipeRepo) InUseTx(tx *gorm.DB, id uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&model.MealPlan{}).Where("recipe_id = ?", id).Limit(1).Count(&n).Error
	return n > 0, err
}

func (r *recipeRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("recipe_id = ?", id).Delete(&model.RecipeIngredient{}).Error; err != nil {
		return err
	}
	res := tx.Where("id = ?", id).Delete(&model.Recipe{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
