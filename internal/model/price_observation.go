package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceObservation is one user-reported package price for a product.
// Rows are append-only; product price statistics are recomputed from them.
type PriceObservation struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	FamilyID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"family_id"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Retailer  *string         `json:"retailer,omitempty"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"-"`
}

func (PriceObservation) TableName() string { return "price_observations" }
