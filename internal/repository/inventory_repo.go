package repository

import (
	"context"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// fefoOrder consumes the soonest-to-spoil batch first; undated batches go last.
const fefoOrder = "expiry_date ASC NULLS LAST, created_at ASC"

type InventoryRepository interface {
	// ListByFamily orders by expiry (undated last) then newest first, with products.
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]model.InventoryItem, error)
	FindByID(ctx context.Context, familyID, id uuid.UUID) (*model.InventoryItem, error)
	ListExpiring(ctx context.Context, familyID uuid.UUID, until time.Time) ([]model.InventoryItem, error)
	TotalsByProduct(ctx context.Context, familyID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]float64, error)

	// Used inside transactions: callers must pass the tx instance.
	// The Find/Lock variants take row locks (FOR UPDATE).
	FindByIDTx(tx *gorm.DB, familyID, id uuid.UUID) (*model.InventoryItem, error)
	FindBatchTx(tx *gorm.DB, familyID, productID uuid.UUID, expiry *time.Time) (*model.InventoryItem, error)
	LockBatchesTx(tx *gorm.DB, familyID, productID uuid.UUID) ([]model.InventoryItem, error)
	CreateTx(tx *gorm.DB, item *model.InventoryItem) error
	SaveTx(tx *gorm.DB, item *model.InventoryItem) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("family_id = ?", familyID).
		Order("expiry_date ASC NULLS LAST, created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *inventoryRepo) FindByID(ctx context.Context, familyID, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).Preload("Product").
		Where("id = ? AND family_id = ?", id, familyID).
		First(&item).Error
	return &item, err
}

func (r *inventoryRepo) ListExpiring(ctx context.Context, familyID uuid.UUID, until time.Time) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).Preload("Product").
		Where("family_id = ? AND expiry_date IS NOT NULL AND expiry_date <= ?", familyID, until.Format(time.DateOnly)).
		Order(fefoOrder).
		Find(&items).Error
	return items, err
}

func (r *inventoryRepo) TotalsByProduct(ctx context.Context, familyID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	totals := make(map[uuid.UUID]float64, len(productIDs))
	if len(productIDs) == 0 {
		return totals, nil
	}
	var rows []struct {
		ProductID uuid.UUID
		Total     float64
	}
	err := r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Select("product_id, SUM(quantity) AS total").
		Where("family_id = ? AND product_id IN ?", familyID, productIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		totals[row.ProductID] = row.Total
	}
	return totals, nil
}

func (r *inventoryRepo) FindByIDTx(tx *gorm.DB, familyID, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND family_id = ?", id, familyID).
		First(&item).Error
	return &item, err
}

func (r *inventoryRepo) FindBatchTx(tx *gorm.DB, familyID, productID uuid.UUID, expiry *time.Time) (*model.InventoryItem, error) {
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("family_id = ? AND product_id = ?", familyID, productID)
	if expiry == nil {
		q = q.Where("expiry_date IS NULL")
	} else {
		q = q.Where("expiry_date = ?", expiry.Format(time.DateOnly))
	}
	var item model.InventoryItem
	err := q.First(&item).Error
	return &item, err
}

func (r *inventoryRepo) LockBatchesTx(tx *gorm.DB, familyID, productID uuid.UUID) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("family_id = ? AND product_id = ?", familyID, productID).
		Order(fefoOrder).
		Find(&items).Error
	return items, err
}

func (r *inventoryRepo) CreateTx(tx *gorm.DB, item *model.InventoryItem) error {
	return tx.Omit(clause.Associations).Create(item).Error
}

func (r *inventoryRepo) SaveTx(tx *gorm.DB, item *model.InventoryItem) error {
	return tx.Omit(clause.Associations).Save(item).Error
}

func (r *inventoryRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.InventoryItem{}, "id = ?", id).Error
}
