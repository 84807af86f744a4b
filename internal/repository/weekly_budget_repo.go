package repository

import (
	"context"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WeeklyBudgetRepository interface {
	// ListRange returns weeks starting in [start, end], newest first.
	ListRange(ctx context.Context, familyID uuid.UUID, start, end time.Time) ([]model.WeeklyBudget, error)

	// Ledger writes run inside the caller's transaction so an expense lands
	// together with the inventory change that caused it.
	FindByWeekTx(tx *gorm.DB, familyID uuid.UUID, weekStart time.Time) (*model.WeeklyBudget, error)
	// CreateIfAbsentTx is a no-op when the (family, week) row already exists.
	CreateIfAbsentTx(tx *gorm.DB, wb *model.WeeklyBudget) error
	// SetTotalTx re-derives remaining from the stored spent.
	SetTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) (*model.WeeklyBudget, error)
	// AddSpentTx applies delta atomically, flooring spent at zero.
	AddSpentTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) (*model.WeeklyBudget, error)
}

type weeklyBudgetRepo struct{ db *gorm.DB }

func NewWeeklyBudgetRepository(db *gorm.DB) WeeklyBudgetRepository {
	return &weeklyBudgetRepo{db: db}
}

func (r *weeklyBudgetRepo) FindByWeekTx(tx *gorm.DB, familyID uuid.UUID, weekStart time.Time) (*model.WeeklyBudget, error) {
	var wb model.WeeklyBudget
	err := tx.
		Where("family_id = ? AND week_start = ?", familyID, weekStart).
		First(&wb).Error
	return &wb, err
}

func (r *weeklyBudgetRepo) CreateIfAbsentTx(tx *gorm.DB, wb *model.WeeklyBudget) error {
	return tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "family_id"}, {Name: "week_start"}},
			DoNothing: true,
		}).
		Create(wb).Error
}

func (r *weeklyBudgetRepo) SetTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) (*model.WeeklyBudget, error) {
	var wb model.WeeklyBudget
	err := tx.Model(&wb).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total":     total,
			"remaining": gorm.Expr("? - spent", total),
		}).Error
	return &wb, err
}

func (r *weeklyBudgetRepo) AddSpentTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) (*model.WeeklyBudget, error) {
	var wb model.WeeklyBudget
	// both SET expressions read the pre-update row
	err := tx.Model(&wb).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"spent":     gorm.Expr("GREATEST(spent + ?, 0)", delta),
			"remaining": gorm.Expr("total - GREATEST(spent + ?, 0)", delta),
		}).Error
	return &wb, err
}

func (r *weeklyBudgetRepo) ListRange(ctx context.Context, familyID uuid.UUID, start, end time.Time) ([]model.WeeklyBudget, error) {
	var weeks []model.WeeklyBudget
	err := r.db.WithContext(ctx).
		Where("family_id = ? AND week_start >= ? AND week_start <= ?", familyID, start, end).
		Order("week_start DESC").
		Find(&weeks).Error
	return weeks, err
}
