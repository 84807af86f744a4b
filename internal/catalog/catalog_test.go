package catalog

import (
	"testing"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func product(name string, unit model.BaseUnit, price int64, std *float64) model.Product {
	return model.Product{
		ID:             uuid.New(),
		Name:           name,
		BaseUnit:       unit,
		AveragePrice:   decimal.NewFromInt(price),
		StandardAmount: std,
	}
}

func TestIndex_LookupByIDAndName(t *testing.T) {
	milk := product("Milk", model.UnitMilliliters, 35, ptr(1000))
	onion := product("  Onion ", model.UnitGrams, 20, nil)
	idx := NewIndex([]model.Product{milk, onion})

	got, ok := idx.ByID(milk.ID)
	require.True(t, ok)
	assert.Equal(t, "Milk", got.Name)

	got, ok = idx.ByName("ONION")
	require.True(t, ok)
	assert.Equal(t, onion.ID, got.ID)

	_, ok = idx.ByName("onions")
	assert.False(t, ok, "no stemming")

	_, ok = idx.ByID(uuid.New())
	assert.False(t, ok)
	assert.Equal(t, 2, idx.Len())
}

func TestIndex_DuplicateNameKeepsFirst(t *testing.T) {
	a := product("Rice", model.UnitGrams, 50, nil)
	b := product("rice", model.UnitGrams, 60, nil)
	idx := NewIndex([]model.Product{a, b})

	got, ok := idx.ByName("Rice")
	require.True(t, ok)
	assert.Equal(t, a.ID, got.ID)
}

func TestEstimateCost(t *testing.T) {
	cases := []struct {
		name string
		p    model.Product
		qty  float64
		want string
	}{
		{"weight default base", product("Flour", model.UnitGrams, 40, nil), 250, "10"},
		{"volume explicit package", product("Milk", model.UnitMilliliters, 35, ptr(900)), 450, "17.5"},
		{"pieces default base", product("Egg", model.UnitPieces, 5, nil), 3, "15"},
		{"zero quantity", product("Egg", model.UnitPieces, 5, nil), 0, "0"},
		{"no price", product("Salt", model.UnitGrams, 0, nil), 100, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EstimateCost(tc.p, tc.qty)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestRoundToPackage(t *testing.T) {
	ml := product("Milk", model.UnitMilliliters, 35, nil)
	g := product("Flour", model.UnitGrams, 40, nil)
	pcs := product("Egg", model.UnitPieces, 5, nil)
	bag := product("Sugar", model.UnitGrams, 45, ptr(1000))

	assert.Equal(t, 200.0, RoundToPackage(ml, 150))
	assert.Equal(t, 500.0, RoundToPackage(ml, 300))
	assert.Equal(t, 1000.0, RoundToPackage(ml, 900))
	assert.Equal(t, 2000.0, RoundToPackage(ml, 1200))
	assert.Equal(t, 3000.0, RoundToPackage(ml, 2100))

	assert.Equal(t, 100.0, RoundToPackage(g, 80))
	assert.Equal(t, 500.0, RoundToPackage(g, 201))
	assert.Equal(t, 2000.0, RoundToPackage(g, 1001))

	assert.Equal(t, 3.0, RoundToPackage(pcs, 2.2))
	assert.Equal(t, 2000.0, RoundToPackage(bag, 1500))
	assert.Equal(t, 0.0, RoundToPackage(bag, 0))
}
