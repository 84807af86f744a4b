package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is one batch of a product held by a family. Batches of the same
// product are told apart by ExpiryDate (nil is its own bucket). Quantity is always
// > 0: a consumed batch is deleted, never left at zero.
//
// PurchasePrice is what the stock in the batch cost, when known. BudgetCharge is
// the part of it currently charged to a weekly budget; a batch merged from flagged
// and unflagged purchases carries only the flagged share there.
type InventoryItem struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FamilyID         uuid.UUID        `gorm:"type:uuid;not null;index" json:"family_id"`
	ProductID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity         float64          `gorm:"not null" json:"quantity"`
	ExpiryDate       *time.Time       `gorm:"type:date" json:"expiry_date,omitempty"`
	DeductFromBudget bool             `gorm:"not null;default:false" json:"deduct_from_budget"`
	PurchasePrice    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"purchase_price,omitempty"`
	BudgetCharge     decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"budget_charge"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}

func (InventoryItem) TableName() string { return "inventory_items" }
