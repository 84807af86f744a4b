package repository

import (
	"context"
	"errors"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceStats is the aggregate recomputed from recent price observations.
type PriceStats struct {
	Average decimal.Decimal
	Min     decimal.Decimal
	Max     decimal.Decimal
	Last    decimal.Decimal
	Samples int
}

// ProductRepository defines the data access contract for the catalog.
// Services depend on this interface so the planning catalog can be cached or stubbed.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	// ListPlanning returns the global (non member-scoped) catalog ordered by name.
	ListPlanning(ctx context.Context) ([]model.Product, error)
	// EnsureGlobal inserts p unless a global product with the same name exists.
	EnsureGlobal(ctx context.Context, p *model.Product) (created bool, err error)
	UpdatePriceStatsTx(tx *gorm.DB, id uuid.UUID, stats PriceStats) error
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *productRepo) ListPlanning(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("family_member_id IS NULL").
		Order("name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) EnsureGlobal(ctx context.Context, p *model.Product) (bool, error) {
	var existing model.Product
	err := r.db.WithContext(ctx).
		Where("lower(name) = lower(?) AND family_member_id IS NULL", p.Name).
		First(&existing).Error
	if err == nil {
		*p = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return true, r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) UpdatePriceStatsTx(tx *gorm.DB, id uuid.UUID, stats PriceStats) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"average_price": stats.Average,
		"min_price":     stats.Min,
		"max_price":     stats.Max,
		"last_price":    stats.Last,
		"price_samples": stats.Samples,
	}).Error
}
