package repository

import (
	"context"
	"errors"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PriceObservationRepository interface {
	// ListByProduct returns the newest observations first.
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.PriceObservation, error)
	CreateTx(tx *gorm.DB, o *model.PriceObservation) error
	// StatsSinceTx aggregates observations recorded at or after since.
	StatsSinceTx(tx *gorm.DB, productID uuid.UUID, since time.Time) (*PriceStats, error)
}

type priceObservationRepo struct{ db *gorm.DB }

func NewPriceObservationRepository(db *gorm.DB) PriceObservationRepository {
	return &priceObservationRepo{db: db}
}

func (r *priceObservationRepo) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.PriceObservation, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var rows []model.PriceObservation
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *priceObservationRepo) CreateTx(tx *gorm.DB, o *model.PriceObservation) error {
	return tx.Omit("Product").Create(o).Error
}

func (r *priceObservationRepo) StatsSinceTx(tx *gorm.DB, productID uuid.UUID, since time.Time) (*PriceStats, error) {
	var agg struct {
		Avg   decimal.NullDecimal
		Min   decimal.NullDecimal
		Max   decimal.NullDecimal
		Count int
	}
	err := tx.Model(&model.PriceObservation{}).
		Select("AVG(price) AS avg, MIN(price) AS min, MAX(price) AS max, COUNT(*) AS count").
		Where("product_id = ? AND created_at >= ?", productID, since).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	if agg.Count == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var last model.PriceObservation
	err = tx.Where("product_id = ? AND created_at >= ?", productID, since).
		Order("created_at DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &PriceStats{
		Average: agg.Avg.Decimal.Round(2),
		Min:     agg.Min.Decimal,
		Max:     agg.Max.Decimal,
		Last:    last.Price,
		Samples: agg.Count,
	}, nil
}
