package dto

import "github.com/shopspring/decimal"

type GenerateShoppingListRequest struct {
	From *string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   *string `json:"to"   validate:"omitempty,datetime=2006-01-02"`
}

type ManualItemRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Quantity  float64 `json:"quantity"   validate:"gt=0"`
	Note      *string `json:"note"       validate:"omitempty,max=255"`
}

type AddShoppingItemsRequest struct {
	Items []ManualItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateShoppingItemRequest struct {
	Quantity float64 `json:"quantity" validate:"gt=0"`
	Note     *string `json:"note"     validate:"omitempty,max=255"`
}

type MarkBoughtRequest struct {
	Bought      *bool            `json:"bought"       validate:"required"`
	ActualPrice *decimal.Decimal `json:"actual_price"`
}
