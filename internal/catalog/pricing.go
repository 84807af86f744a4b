package catalog

import (
	"math"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/shopspring/decimal"
)

// BaseAmount is the quantity the product's average price refers to: the explicit
// standard package when set, otherwise 1000 g/ml or 1 piece.
func BaseAmount(p model.Product) float64 {
	if p.StandardAmount != nil && *p.StandardAmount > 0 {
		return *p.StandardAmount
	}
	if p.BaseUnit == model.UnitPieces {
		return 1
	}
	return 1000
}

// EstimateCost prices quantity of p as (quantity / baseAmount) * averagePrice.
func EstimateCost(p model.Product, quantity float64) decimal.Decimal {
	if quantity <= 0 || p.AveragePrice.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(quantity).
		Div(decimal.NewFromFloat(BaseAmount(p))).
		Mul(p.AveragePrice)
}

var (
	volumeBands = []float64{200, 500, 1000, 2000}
	weightBands = []float64{100, 200, 500, 1000}
)

// RoundToPackage rounds a positive shortfall up to something that can be bought.
// An explicit standard package wins; otherwise volume and weight climb fixed bands
// and then whole kilos/litres, and pieces round to the next whole unit.
func RoundToPackage(p model.Product, shortfall float64) float64 {
	if shortfall <= 0 {
		return 0
	}
	if p.StandardAmount != nil && *p.StandardAmount > 0 {
		std := *p.StandardAmount
		return math.Ceil(shortfall/std) * std
	}
	switch p.BaseUnit {
	case model.UnitMilliliters:
		return band(shortfall, volumeBands)
	case model.UnitGrams:
		return band(shortfall, weightBands)
	default:
		return math.Ceil(shortfall)
	}
}

func band(q float64, bands []float64) float64 {
	for _, b := range bands {
		if q <= b {
			return b
		}
	}
	return math.Ceil(q/1000) * 1000
}
