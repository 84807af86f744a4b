package dto

import "github.com/shopspring/decimal"

type AddInventoryRequest struct {
	ProductID        string           `json:"product_id"         validate:"required,uuid"`
	Quantity         float64          `json:"quantity"           validate:"gt=0"`
	ExpiryDate       *string          `json:"expiry_date"        validate:"omitempty,datetime=2006-01-02"`
	DeductFromBudget bool             `json:"deduct_from_budget"`
	PurchasePrice    *decimal.Decimal `json:"purchase_price"`
	Retailer         *string          `json:"retailer"           validate:"omitempty,max=120"`
}

type UpdateInventoryRequest struct {
	Quantity         *float64         `json:"quantity"           validate:"omitempty,gt=0"`
	ExpiryDate       *string          `json:"expiry_date"        validate:"omitempty,datetime=2006-01-02"`
	ClearExpiry      bool             `json:"clear_expiry"`
	DeductFromBudget *bool            `json:"deduct_from_budget"`
	PurchasePrice    *decimal.Decimal `json:"purchase_price"`
}

type RemoveInventoryRequest struct {
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

type DeductItem struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Quantity  float64 `json:"quantity"   validate:"gt=0"`
}

type DeductRequest struct {
	Items []DeductItem `json:"items" validate:"required,min=1,dive"`
}

type AvailabilityQuery struct {
	ProductID string  `form:"product_id" validate:"required,uuid"`
	Required  float64 `form:"required"   validate:"gt=0"`
}

type ExpiringQuery struct {
	Days int `form:"days" validate:"omitempty,min=1,max=60"`
}
