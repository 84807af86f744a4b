package repository

import (
	"context"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type FamilyRepository interface {
	Create(ctx context.Context, f *model.Family) error
	// FindByID preloads members.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Family, error)
	UpdateBudgetLimit(ctx context.Context, id uuid.UUID, limit decimal.Decimal) error
	FindPreference(ctx context.Context, userID uuid.UUID) (*model.UserPreference, error)
	// BudgetLimitTx reads the weekly cap without members.
	BudgetLimitTx(tx *gorm.DB, id uuid.UUID) (decimal.Decimal, error)
}

type familyRepo struct{ db *gorm.DB }

func NewFamilyRepository(db *gorm.DB) FamilyRepository { return &familyRepo{db: db} }

func (r *familyRepo) Create(ctx context.Context, f *model.Family) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *familyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Family, error) {
	var f model.Family
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&f, "id = ?", id).Error
	return &f, err
}

func (r *familyRepo) UpdateBudgetLimit(ctx context.Context, id uuid.UUID, limit decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&model.Family{}).Where("id = ?", id).Update("budget_limit", limit)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *familyRepo) FindPreference(ctx context.Context, userID uuid.UUID) (*model.UserPreference, error) {
	var p model.UserPreference
	err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error
	return &p, err
}

func (r *familyRepo) BudgetLimitTx(tx *gorm.DB, id uuid.UUID) (decimal.Decimal, error) {
	var f model.Family
	err := tx.Select("id", "budget_limit").First(&f, "id = ?", id).Error
	return f.BudgetLimit, err
}
