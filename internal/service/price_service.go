package service

import (
	"context"
	"errors"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/model"
	"github.com/xalleer/kitchen-os-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// priceWindow bounds the observations that feed a product's price statistics.
const priceWindow = 90 * 24 * time.Hour

// PriceService records observed package prices and keeps product statistics in step.
type PriceService interface {
	Record(ctx context.Context, familyID, productID uuid.UUID, price decimal.Decimal, retailer *string) (*model.Product, error)
	History(ctx context.Context, productID uuid.UUID, limit int) ([]model.PriceObservation, error)
}

type priceService struct {
	db           *gorm.DB
	products     repository.ProductRepository
	observations repository.PriceObservationRepository
	clock        Clock
}

func NewPriceService(db *gorm.DB, products repository.ProductRepository, observations repository.PriceObservationRepository, clock Clock) PriceService {
	return &priceService{db: db, products: products, observations: observations, clock: clock}
}

func (s *priceService) Record(ctx context.Context, familyID, productID uuid.UUID, price decimal.Decimal, retailer *string) (*model.Product, error) {
	if !price.IsPositive() {
		return nil, newValidation("price must be positive")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, notFound("Product", err)
	}

	now := s.clock.now()
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		obs := &model.PriceObservation{
			ProductID: productID,
			FamilyID:  familyID,
			Price:     price.Round(2),
			Retailer:  retailer,
			CreatedAt: now,
		}
		if err := s.observations.CreateTx(tx, obs); err != nil {
			return err
		}
		stats, err := s.observations.StatsSinceTx(tx, productID, now.Add(-priceWindow))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.products.UpdatePriceStatsTx(tx, productID, *stats)
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("product_id", productID.String()).
		Str("price", price.String()).
		Msg("price: observation recorded")
	return s.products.FindByID(ctx, productID)
}

func (s *priceService) History(ctx context.Context, productID uuid.UUID, limit int) ([]model.PriceObservation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.observations.ListByProduct(ctx, productID, limit)
}
