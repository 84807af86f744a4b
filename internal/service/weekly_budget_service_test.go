package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func assertDec(t *testing.T, want float64, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %v, got %s", msg, want, got)
}

func TestWeekBounds_MondayToSunday(t *testing.T) {
	sunday := time.Date(2026, 1, 11, 22, 30, 0, 0, time.UTC)
	start, end := service.WeekBounds(sunday)

	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 11, 23, 59, 59, int(999*time.Millisecond), time.UTC), end)

	start, _ = service.WeekBounds(monday)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), start)
}

func TestAddExpense_CapChangeRederivesOpenWeek(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()

	res, err := f.budgetSvc.AddExpense(ctx, f.familyID, dec(300), monday)
	require.NoError(t, err)
	assertDec(t, 300, res.Week.Spent, "spent")
	assertDec(t, 700, res.Remaining, "remaining")
	assert.False(t, res.IsOverBudget)

	require.NoError(t, f.families.UpdateBudgetLimit(ctx, f.familyID, dec(1200)))
	wb, err := f.budgetSvc.GetOrCreate(ctx, f.familyID, monday)
	require.NoError(t, err)
	assertDec(t, 1200, wb.Total, "total")
	assertDec(t, 300, wb.Spent, "spent")
	assertDec(t, 900, wb.Remaining, "remaining")
}

func TestGetOrCreate_PastWeekKeepsItsTotal(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()
	lastMonth := monday.AddDate(0, 0, -28)

	_, err := f.budgetSvc.AddExpense(ctx, f.familyID, dec(100), lastMonth)
	require.NoError(t, err)
	require.NoError(t, f.families.UpdateBudgetLimit(ctx, f.familyID, dec(2000)))

	wb, err := f.budgetSvc.GetOrCreate(ctx, f.familyID, lastMonth)
	require.NoError(t, err)
	assertDec(t, 1000, wb.Total, "closed week total")
	assertDec(t, 900, wb.Remaining, "closed week remaining")
}

func TestRemoveExpense_RestoresAndFloorsAtZero(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()

	_, err := f.budgetSvc.AddExpense(ctx, f.familyID, dec(45.5), monday)
	require.NoError(t, err)
	res, err := f.budgetSvc.RemoveExpense(ctx, f.familyID, dec(45.5), monday)
	require.NoError(t, err)
	assertDec(t, 0, res.Week.Spent, "spent after symmetric removal")
	assertDec(t, 1000, res.Remaining, "remaining after symmetric removal")

	res, err = f.budgetSvc.RemoveExpense(ctx, f.familyID, dec(20), monday)
	require.NoError(t, err)
	assertDec(t, 0, res.Week.Spent, "spent never negative")
	assertDec(t, 1000, res.Remaining, "remaining = total - spent")
}

func TestAddExpense_OverBudgetIsNotAnError(t *testing.T) {
	f := newFixture(t, monday)

	res, err := f.budgetSvc.AddExpense(context.Background(), f.familyID, dec(1250), monday)
	require.NoError(t, err)
	assert.True(t, res.IsOverBudget)
	assertDec(t, -250, res.Remaining, "remaining")
}

func TestAddExpense_UsesEventWeekNotToday(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()
	nextWeek := monday.AddDate(0, 0, 8)

	_, err := f.budgetSvc.AddExpense(ctx, f.familyID, dec(80), nextWeek)
	require.NoError(t, err)

	current, err := f.budgetSvc.CurrentWeek(ctx, f.familyID)
	require.NoError(t, err)
	assertDec(t, 0, current.Spent, "current week untouched")
}

func TestAddExpense_UnknownFamily(t *testing.T) {
	f := newFixture(t, monday)

	_, err := f.budgetSvc.AddExpense(context.Background(), uuid.New(), dec(10), monday)
	var nf *service.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Family", nf.Entity)
}

func TestCurrentWeek_SpentPercentage(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()

	_, err := f.budgetSvc.AddExpense(ctx, f.familyID, dec(333.3), monday)
	require.NoError(t, err)

	sum, err := f.budgetSvc.CurrentWeek(ctx, f.familyID)
	require.NoError(t, err)
	assert.Equal(t, int64(33), sum.SpentPercentage)
	assert.False(t, sum.IsOverBudget)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), sum.WeekStart)
}

func TestForPeriod_SumsAndAverages(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()

	_, err := f.budgetSvc.AddExpense(ctx, f.familyID, dec(100), monday.AddDate(0, 0, -7))
	require.NoError(t, err)
	_, err = f.budgetSvc.AddExpense(ctx, f.familyID, dec(250), monday)
	require.NoError(t, err)

	sum, err := f.budgetSvc.ForPeriod(ctx, f.familyID, monday.AddDate(0, 0, -14), monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, sum.Weeks, 2)
	assert.True(t, sum.Weeks[0].WeekStart.After(sum.Weeks[1].WeekStart), "newest first")
	assertDec(t, 2000, sum.TotalBudget, "total budget")
	assertDec(t, 350, sum.TotalSpent, "total spent")
	assertDec(t, 1650, sum.TotalRemaining, "total remaining")
	assertDec(t, 175, sum.AverageSpentPerWeek, "average")
}

func TestSetLimit_RejectsNegative(t *testing.T) {
	f := newFixture(t, monday)

	_, err := f.budgetSvc.SetLimit(context.Background(), f.familyID, dec(-1))
	var ve *service.ValidationError
	assert.True(t, errors.As(err, &ve))
}
