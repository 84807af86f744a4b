//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/infra"
	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("kitchen_test"),
		tcPostgres.WithUsername("kitchen"),
		tcPostgres.WithPassword("kitchen"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// NewDatabase runs the migrations
	db, err := infra.NewDatabase(infra.DatabaseConfig{DSN: dsn, MaxOpenConns: 4, MaxIdleConns: 2, LogLevel: logger.Silent})
	require.NoError(t, err)
	return db
}

func TestProductRepository_EnsureGlobalIsIdempotent(t *testing.T) {
	db := setupDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	first := &model.Product{Name: "Flour", Category: "Grains", BaseUnit: model.UnitGrams, AveragePrice: decimal.NewFromInt(30)}
	created, err := repo.EnsureGlobal(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	again := &model.Product{Name: "flour", Category: "Other", BaseUnit: model.UnitGrams}
	created, err = repo.EnsureGlobal(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	planning, err := repo.ListPlanning(ctx)
	require.NoError(t, err)
	assert.Len(t, planning, 1)
}

func TestInventoryRepository_BatchesAndTotals(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	products := NewProductRepository(db)
	families := NewFamilyRepository(db)
	inv := NewInventoryRepository(db)

	family := &model.Family{Name: "Test", BudgetLimit: decimal.NewFromInt(1000)}
	require.NoError(t, families.Create(ctx, family))
	milk := &model.Product{Name: "Milk", Category: "Dairy", BaseUnit: model.UnitMilliliters}
	_, err := products.EnsureGlobal(ctx, milk)
	require.NoError(t, err)

	soon := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)
	later := soon.AddDate(0, 0, 5)
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, b := range []struct {
			qty    float64
			expiry *time.Time
		}{{500, &later}, {300, nil}, {200, &soon}} {
			item := &model.InventoryItem{FamilyID: family.ID, ProductID: milk.ID, Quantity: b.qty, ExpiryDate: b.expiry}
			if err := inv.CreateTx(tx, item); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		batches, err := inv.LockBatchesTx(tx, family.ID, milk.ID)
		require.NoError(t, err)
		require.Len(t, batches, 3)
		// soonest first, undated last
		assert.Equal(t, 200.0, batches[0].Quantity)
		assert.Equal(t, 500.0, batches[1].Quantity)
		assert.Nil(t, batches[2].ExpiryDate)

		undated, err := inv.FindBatchTx(tx, family.ID, milk.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 300.0, undated.Quantity)

		dated, err := inv.FindBatchTx(tx, family.ID, milk.ID, &later)
		require.NoError(t, err)
		assert.Equal(t, 500.0, dated.Quantity)
		return nil
	})
	require.NoError(t, err)

	totals, err := inv.TotalsByProduct(ctx, family.ID, []uuid.UUID{milk.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, totals[milk.ID])
	assert.Len(t, totals, 1)

	expiring, err := inv.ListExpiring(ctx, family.ID, soon.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "Milk", expiring[0].Product.Name)
}

func seedFamily(t *testing.T, db *gorm.DB) *model.Family {
	t.Helper()
	family := &model.Family{Name: "Test", BudgetLimit: decimal.NewFromInt(1000)}
	require.NoError(t, NewFamilyRepository(db).Create(context.Background(), family))
	return family
}

func seedRecipe(t *testing.T, db *gorm.DB, familyID uuid.UUID, name string, saved bool, product uuid.UUID) *model.Recipe {
	t.Helper()
	rec := &model.Recipe{
		Name:        name,
		Saved:       saved,
		FamilyID:    &familyID,
		Ingredients: []model.RecipeIngredient{{ProductID: product, Amount: 100}},
	}
	require.NoError(t, NewRecipeRepository(db).CreateTx(db, rec))
	return rec
}

func TestJobRepository_ClaimHasOneWinner(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	jobs := NewJobRepository(db)
	family := seedFamily(t, db)

	job := &model.MealPlanGenerationJob{FamilyID: family.ID, UserID: uuid.New(), DaysCount: 3, Status: model.JobPending}
	require.NoError(t, jobs.Create(ctx, job))

	const workers = 8
	wins := make(chan bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := jobs.Claim(ctx, job.ID, time.Now())
			assert.NoError(t, err)
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	assert.Equal(t, 1, won)

	again, err := jobs.Claim(ctx, job.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, again)

	stored, err := jobs.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobRunning, stored.Status)
	assert.NotNil(t, stored.StartedAt)
}

func TestWeeklyBudgetRepository_AddSpentFloorsAtZero(t *testing.T) {
	db := setupDB(t)
	weeks := NewWeeklyBudgetRepository(db)
	family := seedFamily(t, db)

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	wb := &model.WeeklyBudget{
		FamilyID:  family.ID,
		WeekStart: start,
		WeekEnd:   start.AddDate(0, 0, 7).Add(-time.Millisecond),
		Total:     decimal.NewFromInt(1000),
		Remaining: decimal.NewFromInt(1000),
	}
	require.NoError(t, weeks.CreateIfAbsentTx(db, wb))
	// second insert for the same week is a no-op
	require.NoError(t, weeks.CreateIfAbsentTx(db, &model.WeeklyBudget{
		FamilyID: family.ID, WeekStart: start, WeekEnd: wb.WeekEnd, Total: decimal.NewFromInt(5), Remaining: decimal.NewFromInt(5),
	}))
	stored, err := weeks.FindByWeekTx(db, family.ID, start)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(1000)))

	got, err := weeks.AddSpentTx(db, stored.ID, decimal.NewFromFloat(120.5))
	require.NoError(t, err)
	assert.True(t, got.Spent.Equal(decimal.NewFromFloat(120.5)), "spent %s", got.Spent)
	assert.True(t, got.Remaining.Equal(decimal.NewFromFloat(879.5)), "remaining %s", got.Remaining)

	got, err = weeks.AddSpentTx(db, stored.ID, decimal.NewFromInt(-500))
	require.NoError(t, err)
	assert.True(t, got.Spent.IsZero(), "spent %s", got.Spent)
	assert.True(t, got.Remaining.Equal(got.Total), "remaining %s", got.Remaining)

	got, err = weeks.SetTotalTx(db, stored.ID, decimal.NewFromInt(800))
	require.NoError(t, err)
	assert.True(t, got.Remaining.Equal(decimal.NewFromInt(800)))
}

func TestMealPlanRepository_DeleteRangeReturnsRecipes(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	plans := NewMealPlanRepository(db)
	family := seedFamily(t, db)
	rice := &model.Product{Name: "Rice", Category: "Grains", BaseUnit: model.UnitGrams}
	_, err := NewProductRepository(db).EnsureGlobal(ctx, rice)
	require.NoError(t, err)

	a := seedRecipe(t, db, family.ID, "A", false, rice.ID)
	b := seedRecipe(t, db, family.ID, "B", false, rice.ID)
	c := seedRecipe(t, db, family.ID, "C", false, rice.ID)
	day := func(d int) time.Time { return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC) }
	for _, mp := range []model.MealPlan{
		{FamilyID: family.ID, Date: day(5), Type: model.MealBreakfast, RecipeID: a.ID},
		{FamilyID: family.ID, Date: day(6), Type: model.MealLunch, RecipeID: a.ID},
		{FamilyID: family.ID, Date: day(7), Type: model.MealDinner, RecipeID: b.ID},
		{FamilyID: family.ID, Date: day(10), Type: model.MealDinner, RecipeID: c.ID},
	} {
		mp := mp
		require.NoError(t, plans.CreateTx(db, &mp))
	}

	from, to := day(5), day(7)
	var ids []uuid.UUID
	err = db.Transaction(func(tx *gorm.DB) error {
		ids, err = plans.DeleteRangeTx(tx, family.ID, &from, &to)
		return err
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, ids)

	left, err := plans.List(ctx, family.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, c.ID, left[0].RecipeID)
	assert.Equal(t, "C", left[0].Recipe.Name)
}

func TestRecipeRepository_DeleteOrphansKeepsSavedAndReferenced(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	recipes := NewRecipeRepository(db)
	plans := NewMealPlanRepository(db)
	family := seedFamily(t, db)
	rice := &model.Product{Name: "Rice", Category: "Grains", BaseUnit: model.UnitGrams}
	_, err := NewProductRepository(db).EnsureGlobal(ctx, rice)
	require.NoError(t, err)

	referenced := seedRecipe(t, db, family.ID, "Referenced", false, rice.ID)
	orphan := seedRecipe(t, db, family.ID, "Orphan", false, rice.ID)
	saved := seedRecipe(t, db, family.ID, "Saved", true, rice.ID)
	require.NoError(t, plans.CreateTx(db, &model.MealPlan{
		FamilyID: family.ID, Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Type: model.MealDinner, RecipeID: referenced.ID,
	}))

	var deleted []uuid.UUID
	err = db.Transaction(func(tx *gorm.DB) error {
		deleted, err = recipes.DeleteOrphansTx(tx, []uuid.UUID{referenced.ID, orphan.ID, saved.ID})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{orphan.ID}, deleted)

	_, err = recipes.FindByID(ctx, family.ID, orphan.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	var ingredients int64
	require.NoError(t, db.Model(&model.RecipeIngredient{}).Where("recipe_id = ?", orphan.ID).Count(&ingredients).Error)
	assert.Zero(t, ingredients)

	for _, keep := range []*model.Recipe{referenced, saved} {
		got, err := recipes.FindByID(ctx, family.ID, keep.ID)
		require.NoError(t, err)
		assert.Len(t, got.Ingredients, 1)
	}
}
