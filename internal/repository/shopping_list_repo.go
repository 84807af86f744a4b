package repository

import (
	"context"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShoppingListRepository interface {
	List(ctx context.Context, familyID uuid.UUID) ([]model.ShoppingListItem, error)
	FindByID(ctx context.Context, familyID, id uuid.UUID) (*model.ShoppingListItem, error)
	// FindOpenByProduct returns the not-yet-bought entry for a product.
	FindOpenByProduct(ctx context.Context, familyID, productID uuid.UUID) (*model.ShoppingListItem, error)
	Create(ctx context.Context, item *model.ShoppingListItem) error
	Save(ctx context.Context, item *model.ShoppingListItem) error
	Delete(ctx context.Context, familyID, id uuid.UUID) error
	Clear(ctx context.Context, familyID uuid.UUID) error

	ReplaceAllTx(tx *gorm.DB, familyID uuid.UUID, items []model.ShoppingListItem) error
	ListBoughtTx(tx *gorm.DB, familyID uuid.UUID) ([]model.ShoppingListItem, error)
	DeleteBoughtTx(tx *gorm.DB, familyID uuid.UUID) error
}

type shoppingListRepo struct{ db *gorm.DB }

func NewShoppingListRepository(db *gorm.DB) ShoppingListRepository {
	return &shoppingListRepo{db: db}
}

func (r *shoppingListRepo) List(ctx context.Context, familyID uuid.UUID) ([]model.ShoppingListItem, error) {
	var items []model.ShoppingListItem
	err := r.db.WithContext(ctx).Preload("Product").
		Where("family_id = ?", familyID).
		Order("is_bought ASC, created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *shoppingListRepo) FindByID(ctx context.Context, familyID, id uuid.UUID) (*model.ShoppingListItem, error) {
	var item model.ShoppingListItem
	err := r.db.WithContext(ctx).Preload("Product").
		Where("id = ? AND family_id = ?", id, familyID).
		First(&item).Error
	return &item, err
}

func (r *shoppingListRepo) FindOpenByProduct(ctx context.Context, familyID, productID uuid.UUID) (*model.ShoppingListItem, error) {
	var item model.ShoppingListItem
	err := r.db.WithContext(ctx).
		Where("family_id = ? AND product_id = ? AND is_bought = false", familyID, productID).
		First(&item).Error
	return &item, err
}

func (r *shoppingListRepo) Create(ctx context.Context, item *model.ShoppingListItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *shoppingListRepo) Save(ctx context.Context, item *model.ShoppingListItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error
}

func (r *shoppingListRepo) Delete(ctx context.Context, familyID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND family_id = ?", id, familyID).Delete(&model.ShoppingListItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *shoppingListRepo) Clear(ctx context.Context, familyID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("family_id = ?", familyID).Delete(&model.ShoppingListItem{}).Error
}

func (r *shoppingListRepo) ReplaceAllTx(tx *gorm.DB, familyID uuid.UUID, items []model.ShoppingListItem) error {
	if err := tx.Where("family_id = ?", familyID).Delete(&model.ShoppingListItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).Create(&items).Error
}

func (r *shoppingListRepo) ListBoughtTx(tx *gorm.DB, familyID uuid.UUID) ([]model.ShoppingListItem, error) {
	var items []model.ShoppingListItem
	err := tx.Preload("Product").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("family_id = ? AND is_bought = true", familyID).
		Find(&items).Error
	return items, err
}

func (r *shoppingListRepo) DeleteBoughtTx(tx *gorm.DB, familyID uuid.UUID) error {
	return tx.Where("family_id = ? AND is_bought = true", familyID).Delete(&model.ShoppingListItem{}).Error
}
