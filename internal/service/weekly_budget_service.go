package service

import (
	"context"
	"errors"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/model"
	"github.com/xalleer/kitchen-os-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseResult struct {
	Week         *model.WeeklyBudget `json:"weekly_budget"`
	IsOverBudget bool                `json:"is_over_budget"`
	Remaining    decimal.Decimal     `json:"remaining"`
}

type WeekSummary struct {
	WeekStart       time.Time       `json:"week_start"`
	WeekEnd         time.Time       `json:"week_end"`
	Total           decimal.Decimal `json:"total"`
	Spent           decimal.Decimal `json:"spent"`
	Remaining       decimal.Decimal `json:"remaining"`
	IsOverBudget    bool            `json:"is_over_budget"`
	SpentPercentage int64           `json:"spent_percentage"`
}

type PeriodSummary struct {
	Weeks               []model.WeeklyBudget `json:"weeks"`
	TotalBudget         decimal.Decimal      `json:"total_budget"`
	TotalSpent          decimal.Decimal      `json:"total_spent"`
	TotalRemaining      decimal.Decimal      `json:"total_remaining"`
	AverageSpentPerWeek decimal.Decimal      `json:"average_spent_per_week"`
}

// WeeklyBudgetService keeps one spend ledger row per family and Monday-start week.
type WeeklyBudgetService interface {
	GetOrCreate(ctx context.Context, familyID uuid.UUID, date time.Time) (*model.WeeklyBudget, error)
	AddExpense(ctx context.Context, familyID uuid.UUID, amount decimal.Decimal, date time.Time) (*ExpenseResult, error)
	RemoveExpense(ctx context.Context, familyID uuid.UUID, amount decimal.Decimal, date time.Time) (*ExpenseResult, error)
	// AddExpenseTx and RemoveExpenseTx book the expense in the caller's transaction.
	AddExpenseTx(tx *gorm.DB, familyID uuid.UUID, amount decimal.Decimal, date time.Time) (*ExpenseResult, error)
	RemoveExpenseTx(tx *gorm.DB, familyID uuid.UUID, amount decimal.Decimal, date time.Time) (*ExpenseResult, error)
	CurrentWeek(ctx context.Context, familyID uuid.UUID) (*WeekSummary, error)
	ForPeriod(ctx context.Context, familyID uuid.UUID, start, end time.Time) (*PeriodSummary, error)
	// SetLimit changes the family's cap and re-derives the current week.
	SetLimit(ctx context.Context, familyID uuid.UUID, limit decimal.Decimal) (*model.WeeklyBudget, error)
}

type weeklyBudgetService struct {
	db       *gorm.DB
	families repository.FamilyRepository
	weeks    repository.WeeklyBudgetRepository
	clock    Clock
}

func NewWeeklyBudgetService(db *gorm.DB, families repository.FamilyRepository, weeks repository.WeeklyBudgetRepository, clock Clock) WeeklyBudgetService {
	return &weeklyBudgetService{db: db, families: families, weeks: weeks, clock: clock}
}

// WeekBounds returns Monday 00:00:00 and Sunday 23:59:59.999 of t's week, in t's location.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	offset := (int(t.Weekday()) + 6) % 7
	start := startOfDay(t).AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return start, end
}

func (s *weeklyBudgetService) GetOrCreate(ctx context.Context, familyID uuid.UUID, date time.Time) (*model.WeeklyBudget, error) {
	var wb *model.WeeklyBudget
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		wb, err = s.getOrCreateTx(tx, familyID, date)
		return err
	})
	return wb, err
}

func (s *weeklyBudgetService) getOrCreateTx(tx *gorm.DB, familyID uuid.UUID, date time.Time) (*model.WeeklyBudget, error) {
	limit, err := s.families.BudgetLimitTx(tx, familyID)
	if err != nil {
		return nil, notFound("Family", err)
	}
	start, end := WeekBounds(date)

	wb, err := s.weeks.FindByWeekTx(tx, familyID, start)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fresh := &model.WeeklyBudget{
			FamilyID:  familyID,
			WeekStart: start,
			WeekEnd:   end,
			Total:     limit,
			Spent:     decimal.Zero,
			Remaining: limit,
		}
		if err := s.weeks.CreateIfAbsentTx(tx, fresh); err != nil {
			return nil, err
		}
		// re-read: a concurrent caller may have won the insert
		return s.weeks.FindByWeekTx(tx, familyID, start)
	}
	if err != nil {
		return nil, err
	}

	open := !wb.WeekEnd.Before(s.clock.now())
	consistent := wb.Remaining.Equal(wb.Total.Sub(wb.Spent))
	switch {
	case open && (!wb.Total.Equal(limit) || !consistent):
		log.Debug().Str("family_id", familyID.String()).Str("total", limit.String()).Msg("budget: re-deriving open week")
		return s.weeks.SetTotalTx(tx, wb.ID, limit)
	case !consistent:
		return s.weeks.SetTotalTx(tx, wb.ID, wb.Total)
	}
	return wb, nil
}

func (s *weeklyBudgetService) AddExpense(ctx context.Context, familyID uuid.UUID, amount decimal.Decimal, date time.Time) (*ExpenseResult, error) {
	var res *ExpenseResult
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		res, err = s.applyExpenseTx(tx, familyID, amount, date)
		return err
	})
	return res, err
}

func (s *weeklyBudgetService) RemoveExpense(ctx context.Context, familyID uuid.UUID, amount decimal.Decimal, date time.Time) (*ExpenseResult, error) {
	return s.AddExpense(ctx, familyID, amount.Neg(), date)
}

func (s *weeklyBudgetService) AddExpenseTx(tx *gorm.DB, familyID uuid.UUID, amount decimal.Decimal, date time.Time) (*ExpenseResult, error) {
	return s.applyExpenseTx(tx, familyID, amount, date)
}

func (s *weeklyBudgetService) RemoveExpenseTx(tx *gorm.DB, familyID uuid.UUID, amount decimal.Decimal, date time.Time) (*ExpenseResult, error) {
	return s.applyExpenseTx(tx, familyID, amount.Neg(), date)
}

func (s *weeklyBudgetService) applyExpenseTx(tx *gorm.DB, familyID uuid.UUID, delta decimal.Decimal, date time.Time) (*ExpenseResult, error) {
	wb, err := s.getOrCreateTx(tx, familyID, date)
	if err != nil {
		return nil, err
	}
	if !delta.IsZero() {
		wb, err = s.weeks.AddSpentTx(tx, wb.ID, delta)
		if err != nil {
			return nil, err
		}
		log.Debug().
			Str("family_id", familyID.String()).
			Str("delta", delta.String()).
			Str("spent", wb.Spent.String()).
			Msg("budget: expense applied")
	}
	return &ExpenseResult{Week: wb, IsOverBudget: wb.Remaining.IsNegative(), Remaining: wb.Remaining}, nil
}

func (s *weeklyBudgetService) CurrentWeek(ctx context.Context, familyID uuid.UUID) (*WeekSummary, error) {
	wb, err := s.GetOrCreate(ctx, familyID, s.clock.now())
	if err != nil {
		return nil, err
	}
	pct := int64(0)
	if wb.Total.IsPositive() {
		pct = wb.Spent.Div(wb.Total).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	}
	return &WeekSummary{
		WeekStart:       wb.WeekStart,
		WeekEnd:         wb.WeekEnd,
		Total:           wb.Total,
		Spent:           wb.Spent,
		Remaining:       wb.Remaining,
		IsOverBudget:    wb.Remaining.IsNegative(),
		SpentPercentage: pct,
	}, nil
}

func (s *weeklyBudgetService) ForPeriod(ctx context.Context, familyID uuid.UUID, start, end time.Time) (*PeriodSummary, error) {
	if end.Before(start) {
		return nil, newValidation("period end is before its start")
	}
	if _, err := s.families.FindByID(ctx, familyID); err != nil {
		return nil, notFound("Family", err)
	}
	weeks, err := s.weeks.ListRange(ctx, familyID, start, end)
	if err != nil {
		return nil, err
	}

	sum := &PeriodSummary{Weeks: weeks}
	for _, w := range weeks {
		sum.TotalBudget = sum.TotalBudget.Add(w.Total)
		sum.TotalSpent = sum.TotalSpent.Add(w.Spent)
		sum.TotalRemaining = sum.TotalRemaining.Add(w.Remaining)
	}
	if len(weeks) > 0 {
		sum.AverageSpentPerWeek = sum.TotalSpent.Div(decimal.NewFromInt(int64(len(weeks)))).Round(2)
	}
	return sum, nil
}

func (s *weeklyBudgetService) SetLimit(ctx context.Context, familyID uuid.UUID, limit decimal.Decimal) (*model.WeeklyBudget, error) {
	if limit.IsNegative() {
		return nil, newValidation("budget limit must not be negative")
	}
	if err := s.families.UpdateBudgetLimit(ctx, familyID, limit); err != nil {
		return nil, notFound("Family", err)
	}
	return s.GetOrCreate(ctx, familyID, s.clock.now())
}
