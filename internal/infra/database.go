package infra

import (
	"fmt"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// NewDatabase opens the pool, migrates every model and applies the SQL patches
// AutoMigrate cannot express.
func NewDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Warn
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(max(cfg.MaxOpenConns, 1))
	sqlDB.SetMaxIdleConns(max(cfg.MaxIdleConns, 1))
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations is also used by the integration tests against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Product{},
		&model.PriceObservation{},
		&model.Family{},
		&model.FamilyMember{},
		&model.UserPreference{},
		&model.InventoryItem{},
		&model.Recipe{},
		&model.RecipeIngredient{},
		&model.MealPlan{},
		&model.MealPlanGenerationJob{},
		&model.WeeklyBudget{},
		&model.ShoppingListItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches holds partial and expression indexes. Every statement is idempotent.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"unique global product name", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_global_name
    ON products (lower(name)) WHERE family_member_id IS NULL`},
		// one batch per (family, product, expiry); NULL expiry is its own bucket
		{"unique dated batch", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_batch_dated
    ON inventory_items (family_id, product_id, expiry_date) WHERE expiry_date IS NOT NULL`},
		{"unique undated batch", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_batch_undated
    ON inventory_items (family_id, product_id) WHERE expiry_date IS NULL`},
		{"positive batch quantity", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_inventory_items_quantity_positive') THEN
    ALTER TABLE inventory_items ADD CONSTRAINT chk_inventory_items_quantity_positive CHECK (quantity > 0);
  END IF;
END $$`},
		{"pending job queue", `
CREATE INDEX IF NOT EXISTS idx_meal_plan_jobs_pending
    ON meal_plan_generation_jobs (created_at) WHERE status = 'PENDING'`},
		{"cooked xor skipped", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_meal_plans_cooked_skipped') THEN
    ALTER TABLE meal_plans ADD CONSTRAINT chk_meal_plans_cooked_skipped CHECK (NOT (is_cooked AND is_skipped));
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
