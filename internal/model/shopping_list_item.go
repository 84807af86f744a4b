package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ShoppingListItem struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FamilyID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"family_id"`
	ProductID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity       float64          `gorm:"not null" json:"quantity"`
	IsBought       bool             `gorm:"not null;default:false" json:"is_bought"`
	BoughtAt       *time.Time       `json:"bought_at,omitempty"`
	Note           *string          `json:"note,omitempty"`
	EstimatedPrice decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"estimated_price"`
	ActualPrice    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"actual_price,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}

func (ShoppingListItem) TableName() string { return "shopping_list_items" }
