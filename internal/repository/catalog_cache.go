package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const planningCatalogKey = "catalog:planning"

// cachedProductRepo keeps the planning catalog in Redis. Any write through it
// drops the cached copy; the TTL bounds staleness from writes made elsewhere.
type cachedProductRepo struct {
	ProductRepository
	rdb *redis.Client
	ttl time.Duration
}

// NewCachedProductRepository returns inner unchanged when rdb is nil.
func NewCachedProductRepository(inner ProductRepository, rdb *redis.Client, ttl time.Duration) ProductRepository {
	if rdb == nil || ttl <= 0 {
		return inner
	}
	return &cachedProductRepo{ProductRepository: inner, rdb: rdb, ttl: ttl}
}

func (r *cachedProductRepo) ListPlanning(ctx context.Context) ([]model.Product, error) {
	if raw, err := r.rdb.Get(ctx, planningCatalogKey).Bytes(); err == nil {
		var products []model.Product
		if err := json.Unmarshal(raw, &products); err == nil {
			return products, nil
		}
	} else if err != redis.Nil {
		log.Warn().Err(err).Msg("catalog cache: read failed")
	}

	products, err := r.ProductRepository.ListPlanning(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(products); err == nil {
		if err := r.rdb.Set(ctx, planningCatalogKey, raw, r.ttl).Err(); err != nil {
			log.Warn().Err(err).Msg("catalog cache: write failed")
		}
	}
	return products, nil
}

func (r *cachedProductRepo) EnsureGlobal(ctx context.Context, p *model.Product) (bool, error) {
	created, err := r.ProductRepository.EnsureGlobal(ctx, p)
	if created {
		r.invalidate(ctx)
	}
	return created, err
}

func (r *cachedProductRepo) UpdatePriceStatsTx(tx *gorm.DB, id uuid.UUID, stats PriceStats) error {
	if err := r.ProductRepository.UpdatePriceStatsTx(tx, id, stats); err != nil {
		return err
	}
	ctx := context.Background()
	if tx != nil && tx.Statement != nil && tx.Statement.Context != nil {
		ctx = tx.Statement.Context
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedProductRepo) invalidate(ctx context.Context) {
	if err := r.rdb.Del(ctx, planningCatalogKey).Err(); err != nil {
		log.Warn().Err(err).Msg("catalog cache: invalidate failed")
	}
}
