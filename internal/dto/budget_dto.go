package dto

import "github.com/shopspring/decimal"

type SetBudgetLimitRequest struct {
	Limit decimal.Decimal `json:"limit" validate:"min=0"`
}

type BudgetPeriodQuery struct {
	Start string `form:"start" validate:"required,datetime=2006-01-02"`
	End   string `form:"end"   validate:"required,datetime=2006-01-02"`
}

type RecordPriceRequest struct {
	Price    decimal.Decimal `json:"price"    validate:"required,gt=0"`
	Retailer *string         `json:"retailer" validate:"omitempty,max=120"`
}

type PriceHistoryQuery struct {
	Limit int `form:"limit,default=20" validate:"min=1,max=100"`
}
