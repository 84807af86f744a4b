// cmd/seedcatalog inserts the starter global product catalog.
// Usage: go run ./cmd/seedcatalog
package main

import (
	"context"
	"os"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/config"
	"github.com/xalleer/kitchen-os-backend/internal/infra"
	"github.com/xalleer/kitchen-os-backend/internal/model"
	"github.com/xalleer/kitchen-os-backend/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/logger"
)

type seed struct {
	name     string
	category string
	unit     model.BaseUnit
	price    string
	standard float64
	kcal     float64
}

var catalog = []seed{
	{"Chicken breast", "Meat", model.UnitGrams, "180", 1000, 165},
	{"Ground beef", "Meat", model.UnitGrams, "220", 1000, 250},
	{"Salmon fillet", "Fish", model.UnitGrams, "520", 1000, 208},
	{"Eggs", "Dairy & Eggs", model.UnitPieces, "60", 10, 155},
	{"Milk", "Dairy & Eggs", model.UnitMilliliters, "42", 1000, 64},
	{"Butter", "Dairy & Eggs", model.UnitGrams, "75", 200, 717},
	{"Cheese", "Dairy & Eggs", model.UnitGrams, "90", 250, 402},
	{"Greek yogurt", "Dairy & Eggs", model.UnitGrams, "38", 400, 59},
	{"Rice", "Grains", model.UnitGrams, "60", 900, 130},
	{"Pasta", "Grains", model.UnitGrams, "45", 500, 131},
	{"Oats", "Grains", model.UnitGrams, "35", 800, 389},
	{"Flour", "Grains", model.UnitGrams, "30", 1000, 364},
	{"Bread", "Bakery", model.UnitPieces, "32", 1, 265},
	{"Potatoes", "Vegetables", model.UnitGrams, "25", 1000, 77},
	{"Onion", "Vegetables", model.UnitGrams, "20", 1000, 40},
	{"Carrot", "Vegetables", model.UnitGrams, "22", 1000, 41},
	{"Tomato", "Vegetables", model.UnitGrams, "70", 1000, 18},
	{"Cucumber", "Vegetables", model.UnitGrams, "60", 1000, 15},
	{"Garlic", "Vegetables", model.UnitGrams, "12", 100, 149},
	{"Apple", "Fruit", model.UnitGrams, "40", 1000, 52},
	{"Banana", "Fruit", model.UnitGrams, "55", 1000, 89},
	{"Sunflower oil", "Pantry", model.UnitMilliliters, "65", 1000, 884},
	{"Sugar", "Pantry", model.UnitGrams, "33", 1000, 387},
	{"Salt", "Pantry", model.UnitGrams, "12", 1000, 0},
	{"Buckwheat", "Grains", model.UnitGrams, "48", 1000, 343},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(infra.DatabaseConfig{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		LogLevel:        logger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	products := repository.NewProductRepository(db)
	ctx := context.Background()
	created := 0
	for _, s := range catalog {
		standard, kcal := s.standard, s.kcal
		p := &model.Product{
			Name:           s.name,
			Category:       s.category,
			BaseUnit:       s.unit,
			AveragePrice:   decimal.RequireFromString(s.price),
			StandardAmount: &standard,
			CaloriesPer100: &kcal,
		}
		ok, err := products.EnsureGlobal(ctx, p)
		if err != nil {
			log.Fatal().Err(err).Str("product", s.name).Msg("seed failed")
		}
		if ok {
			created++
		}
	}
	log.Info().Int("created", created).Int("total", len(catalog)).Msg("catalog seeded")
}
