package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BaseUnit is the unit every quantity of a product is expressed in.
type BaseUnit string

const (
	UnitGrams       BaseUnit = "GRAMS"
	UnitMilliliters BaseUnit = "MILLILITERS"
	UnitPieces      BaseUnit = "PIECES"
)

// IsMeasured reports whether the unit is weight or volume (as opposed to discrete pieces).
func (u BaseUnit) IsMeasured() bool {
	return u == UnitGrams || u == UnitMilliliters
}

// Product is a catalog entry. Global products have no FamilyMemberID and are the
// only ones offered to meal planning; the name is unique among them.
// Prices are per standard package (or per 1000 g/ml, 1 pc when StandardAmount is unset).
type Product struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name           string           `gorm:"not null;index" json:"name"`
	Category       string           `gorm:"not null;default:'Other'" json:"category"`
	BaseUnit       BaseUnit         `gorm:"type:varchar(16);not null" json:"base_unit"`
	AveragePrice   decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"average_price"`
	MinPrice       *decimal.Decimal `gorm:"type:decimal(12,2)" json:"min_price,omitempty"`
	MaxPrice       *decimal.Decimal `gorm:"type:decimal(12,2)" json:"max_price,omitempty"`
	LastPrice      *decimal.Decimal `gorm:"type:decimal(12,2)" json:"last_price,omitempty"`
	PriceSamples   int              `gorm:"not null;default:0" json:"price_samples"`
	StandardAmount *float64         `json:"standard_amount,omitempty"`
	CaloriesPer100 *float64         `json:"calories_per_100,omitempty"`
	FamilyMemberID *uuid.UUID       `gorm:"type:uuid;index" json:"family_member_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (Product) TableName() string { return "products" }
