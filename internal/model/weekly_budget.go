package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WeeklyBudget is the spend ledger for one family and one Monday-start week.
// Remaining is always Total - Spent and may be negative.
type WeeklyBudget struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FamilyID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_weekly_budgets_family_week" json:"family_id"`
	WeekStart time.Time       `gorm:"not null;uniqueIndex:idx_weekly_budgets_family_week" json:"week_start"`
	WeekEnd   time.Time       `gorm:"not null" json:"week_end"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Spent     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"spent"`
	Remaining decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"remaining"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (WeeklyBudget) TableName() string { return "weekly_budgets" }
