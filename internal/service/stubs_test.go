package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/model"
	"github.com/xalleer/kitchen-os-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ── In-memory FamilyRepository stub ──────────────────────────────────────────

type stubFamilyRepo struct {
	families map[uuid.UUID]*model.Family
	prefs    map[uuid.UUID]*model.UserPreference
}

var _ repository.FamilyRepository = (*stubFamilyRepo)(nil)

func newStubFamilyRepo() *stubFamilyRepo {
	return &stubFamilyRepo{
		families: make(map[uuid.UUID]*model.Family),
		prefs:    make(map[uuid.UUID]*model.UserPreference),
	}
}

func (r *stubFamilyRepo) Create(_ context.Context, f *model.Family) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	r.families[f.ID] = f
	return nil
}

func (r *stubFamilyRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Family, error) {
	f, ok := r.families[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *stubFamilyRepo) UpdateBudgetLimit(_ context.Context, id uuid.UUID, limit decimal.Decimal) error {
	f, ok := r.families[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.BudgetLimit = limit
	return nil
}

func (r *stubFamilyRepo) BudgetLimitTx(_ *gorm.DB, id uuid.UUID) (decimal.Decimal, error) {
	f, ok := r.families[id]
	if !ok {
		return decimal.Zero, gorm.ErrRecordNotFound
	}
	return f.BudgetLimit, nil
}

func (r *stubFamilyRepo) FindPreference(_ context.Context, userID uuid.UUID) (*model.UserPreference, error) {
	p, ok := r.prefs[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

// ── In-memory ProductRepository stub ─────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
	stats    map[uuid.UUID]repository.PriceStats
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products: make(map[uuid.UUID]*model.Product),
		stats:    make(map[uuid.UUID]repository.PriceStats),
	}
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) ListPlanning(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.FamilyMemberID == nil {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubProductRepo) EnsureGlobal(_ context.Context, p *model.Product) (bool, error) {
	for _, existing := range r.products {
		if existing.Name == p.Name && existing.FamilyMemberID == nil {
			*p = *existing
			return false, nil
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return true, nil
}

func (r *stubProductRepo) UpdatePriceStatsTx(_ *gorm.DB, id uuid.UUID, stats repository.PriceStats) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.stats[id] = stats
	p.AveragePrice = stats.Average
	p.PriceSamples = stats.Samples
	return nil
}

// ── In-memory InventoryRepository stub ───────────────────────────────────────

type stubInventoryRepo struct {
	items    map[uuid.UUID]*model.InventoryItem
	products *stubProductRepo
	seq      int
}

var _ repository.InventoryRepository = (*stubInventoryRepo)(nil)

func newStubInventoryRepo(products *stubProductRepo) *stubInventoryRepo {
	return &stubInventoryRepo{items: make(map[uuid.UUID]*model.InventoryItem), products: products}
}

func (r *stubInventoryRepo) withProduct(it model.InventoryItem) model.InventoryItem {
	if p, ok := r.products.products[it.ProductID]; ok {
		it.Product = *p
	}
	return it
}

func (r *stubInventoryRepo) sorted(familyID uuid.UUID, keep func(*model.InventoryItem) bool) []model.InventoryItem {
	var out []model.InventoryItem
	for _, it := range r.items {
		if it.FamilyID == familyID && keep(it) {
			out = append(out, r.withProduct(*it))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ExpiryDate, out[j].ExpiryDate
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *stubInventoryRepo) ListByFamily(_ context.Context, familyID uuid.UUID) ([]model.InventoryItem, error) {
	return r.sorted(familyID, func(*model.InventoryItem) bool { return true }), nil
}

func (r *stubInventoryRepo) FindByID(_ context.Context, familyID, id uuid.UUID) (*model.InventoryItem, error) {
	it, ok := r.items[id]
	if !ok || it.FamilyID != familyID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := r.withProduct(*it)
	return &cp, nil
}

func (r *stubInventoryRepo) ListExpiring(_ context.Context, familyID uuid.UUID, until time.Time) ([]model.InventoryItem, error) {
	return r.sorted(familyID, func(it *model.InventoryItem) bool {
		return it.ExpiryDate != nil && !it.ExpiryDate.After(until)
	}), nil
}

func (r *stubInventoryRepo) TotalsByProduct(_ context.Context, familyID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	want := make(map[uuid.UUID]bool, len(productIDs))
	for _, id := range productIDs {
		want[id] = true
	}
	out := make(map[uuid.UUID]float64)
	for _, it := range r.items {
		if it.FamilyID == familyID && want[it.ProductID] {
			out[it.ProductID] += it.Quantity
		}
	}
	return out, nil
}

func (r *stubInventoryRepo) FindByIDTx(_ *gorm.DB, familyID, id uuid.UUID) (*model.InventoryItem, error) {
	return r.FindByID(context.Background(), familyID, id)
}

func (r *stubInventoryRepo) FindBatchTx(_ *gorm.DB, familyID, productID uuid.UUID, expiry *time.Time) (*model.InventoryItem, error) {
	for _, it := range r.items {
		if it.FamilyID != familyID || it.ProductID != productID {
			continue
		}
		if (it.ExpiryDate == nil) != (expiry == nil) {
			continue
		}
		if expiry != nil && !it.ExpiryDate.Equal(*expiry) {
			continue
		}
		cp := *it
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubInventoryRepo) LockBatchesTx(_ *gorm.DB, familyID, productID uuid.UUID) ([]model.InventoryItem, error) {
	return r.sorted(familyID, func(it *model.InventoryItem) bool { return it.ProductID == productID }), nil
}

func (r *stubInventoryRepo) CreateTx(_ *gorm.DB, item *model.InventoryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		// strictly increasing so "newest first" ordering is deterministic
		r.seq++
		item.CreatedAt = time.Date(2026, 1, 1, 0, 0, r.seq, 0, time.UTC)
	}
	cp := *item
	cp.Product = model.Product{}
	r.items[item.ID] = &cp
	return nil
}

func (r *stubInventoryRepo) SaveTx(_ *gorm.DB, item *model.InventoryItem) error {
	cp := *item
	cp.Product = model.Product{}
	r.items[item.ID] = &cp
	return nil
}

func (r *stubInventoryRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

// ── In-memory WeeklyBudgetRepository stub ────────────────────────────────────

type stubWeekRepo struct {
	weeks map[uuid.UUID]*model.WeeklyBudget
}

var _ repository.WeeklyBudgetRepository = (*stubWeekRepo)(nil)

func newStubWeekRepo() *stubWeekRepo {
	return &stubWeekRepo{weeks: make(map[uuid.UUID]*model.WeeklyBudget)}
}

func (r *stubWeekRepo) FindByWeekTx(_ *gorm.DB, familyID uuid.UUID, weekStart time.Time) (*model.WeeklyBudget, error) {
	for _, w := range r.weeks {
		if w.FamilyID == familyID && w.WeekStart.Equal(weekStart) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubWeekRepo) CreateIfAbsentTx(tx *gorm.DB, wb *model.WeeklyBudget) error {
	if _, err := r.FindByWeekTx(tx, wb.FamilyID, wb.WeekStart); err == nil {
		return nil
	}
	if wb.ID == uuid.Nil {
		wb.ID = uuid.New()
	}
	cp := *wb
	r.weeks[wb.ID] = &cp
	return nil
}

func (r *stubWeekRepo) SetTotalTx(_ *gorm.DB, id uuid.UUID, total decimal.Decimal) (*model.WeeklyBudget, error) {
	w, ok := r.weeks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	w.Total = total
	w.Remaining = total.Sub(w.Spent)
	cp := *w
	return &cp, nil
}

func (r *stubWeekRepo) AddSpentTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) (*model.WeeklyBudget, error) {
	w, ok := r.weeks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	w.Spent = decimal.Max(w.Spent.Add(delta), decimal.Zero)
	w.Remaining = w.Total.Sub(w.Spent)
	cp := *w
	return &cp, nil
}

func (r *stubWeekRepo) ListRange(_ context.Context, familyID uuid.UUID, start, end time.Time) ([]model.WeeklyBudget, error) {
	var out []model.WeeklyBudget
	for _, w := range r.weeks {
		if w.FamilyID == familyID && !w.WeekStart.Before(start) && !w.WeekStart.After(end) {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	return out, nil
}

// ── In-memory RecipeRepository stub ──────────────────────────────────────────

type stubRecipeRepo struct {
	recipes map[uuid.UUID]*model.Recipe
	plans   *stubMealPlanRepo
}

var _ repository.RecipeRepository = (*stubRecipeRepo)(nil)

func newStubRecipeRepo() *stubRecipeRepo {
	return &stubRecipeRepo{recipes: make(map[uuid.UUID]*model.Recipe)}
}

func (r *stubRecipeRepo) FindByID(_ context.Context, familyID, id uuid.UUID) (*model.Recipe, error) {
	rec, ok := r.recipes[id]
	if !ok || rec.FamilyID == nil || *rec.FamilyID != familyID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *stubRecipeRepo) SetSaved(ctx context.Context, familyID, id uuid.UUID, saved bool) error {
	if _, err := r.FindByID(ctx, familyID, id); err != nil {
		return err
	}
	r.recipes[id].Saved = saved
	return nil
}

func (r *stubRecipeRepo) CreateTx(_ *gorm.DB, rec *model.Recipe) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	for i := range rec.Ingredients {
		rec.Ingredients[i].RecipeID = rec.ID
		if rec.Ingredients[i].ID == uuid.Nil {
			rec.Ingredients[i].ID = uuid.New()
		}
	}
	cp := *rec
	cp.Ingredients = append([]model.RecipeIngredient(nil), rec.Ingredients...)
	r.recipes[rec.ID] = &cp
	return nil
}

func (r *stubRecipeRepo) DeleteOrphansTx(_ *gorm.DB, ids []uuid.UUID) ([]uuid.UUID, error) {
	var gone []uuid.UUID
	for _, id := range ids {
		rec, ok := r.recipes[id]
		if !ok || rec.Saved || r.plans.references(id) {
			continue
		}
		delete(r.recipes, id)
		gone = append(gone, id)
	}
	return gone, nil
}

func (r *stubRecipeRepo) ListSaved(_ context.Context, familyID uuid.UUID) ([]model.Recipe, error) {
	var out []model.Recipe
	for _, rec := range r.recipes {
		if rec.Saved && rec.FamilyID != nil && *rec.FamilyID == familyID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubRecipeRepo) InUseTx(_ *gorm.DB, id uuid.UUID) (bool, error) {
	return r.plans.references(id), nil
}

func (r *stubRecipeRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	if _, ok := r.recipes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.recipes, id)
	return nil
}

// ── In-memory MealPlanRepository stub ────────────────────────────────────────

type stubMealPlanRepo struct {
	plans   map[uuid.UUID]*model.MealPlan
	recipes *stubRecipeRepo
}

var _ repository.MealPlanRepository = (*stubMealPlanRepo)(nil)

// newStubPlanStore links the recipe and meal-plan stubs the way the foreign key does.
func newStubPlanStore() (*stubMealPlanRepo, *stubRecipeRepo) {
	recipes := newStubRecipeRepo()
	plans := &stubMealPlanRepo{plans: make(map[uuid.UUID]*model.MealPlan), recipes: recipes}
	recipes.plans = plans
	return plans, recipes
}

func (r *stubMealPlanRepo) references(recipeID uuid.UUID) bool {
	for _, mp := range r.plans {
		if mp.RecipeID == recipeID {
			return true
		}
	}
	return false
}

func (r *stubMealPlanRepo) hydrate(mp model.MealPlan) model.MealPlan {
	if rec, ok := r.recipes.recipes[mp.RecipeID]; ok {
		mp.Recipe = *rec
	}
	return mp
}

func inRange(d time.Time, from, to *time.Time) bool {
	day := d.Format(time.DateOnly)
	if from != nil && day < from.Format(time.DateOnly) {
		return false
	}
	if to != nil && day > to.Format(time.DateOnly) {
		return false
	}
	return true
}

func (r *stubMealPlanRepo) List(_ context.Context, familyID uuid.UUID, from, to *time.Time) ([]model.MealPlan, error) {
	var out []model.MealPlan
	for _, mp := range r.plans {
		if mp.FamilyID == familyID && inRange(mp.Date, from, to) {
			out = append(out, r.hydrate(*mp))
		}
	}
	order := map[model.MealType]int{model.MealBreakfast: 0, model.MealLunch: 1, model.MealSnack: 2, model.MealDinner: 3}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return order[out[i].Type] < order[out[j].Type]
	})
	return out, nil
}

func (r *stubMealPlanRepo) FindByID(_ context.Context, familyID, id uuid.UUID) (*model.MealPlan, error) {
	mp, ok := r.plans[id]
	if !ok || mp.FamilyID != familyID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := r.hydrate(*mp)
	return &cp, nil
}

func (r *stubMealPlanRepo) MarkSkipped(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	mp, ok := r.plans[id]
	if !ok || mp.IsCooked || mp.IsSkipped {
		return false, nil
	}
	mp.IsSkipped = true
	mp.SkippedAt = &at
	return true, nil
}

func (r *stubMealPlanRepo) DeleteRangeTx(_ *gorm.DB, familyID uuid.UUID, from, to *time.Time) ([]uuid.UUID, error) {
	var recipeIDs []uuid.UUID
	for id, mp := range r.plans {
		if mp.FamilyID == familyID && inRange(mp.Date, from, to) {
			recipeIDs = append(recipeIDs, mp.RecipeID)
			delete(r.plans, id)
		}
	}
	return recipeIDs, nil
}

func (r *stubMealPlanRepo) CreateTx(_ *gorm.DB, mp *model.MealPlan) error {
	if mp.ID == uuid.Nil {
		mp.ID = uuid.New()
	}
	cp := *mp
	cp.Recipe = model.Recipe{}
	r.plans[mp.ID] = &cp
	return nil
}

func (r *stubMealPlanRepo) SetRecipeTx(_ *gorm.DB, id, recipeID uuid.UUID) error {
	mp, ok := r.plans[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	mp.RecipeID = recipeID
	return nil
}

func (r *stubMealPlanRepo) MarkCookedTx(_ *gorm.DB, id uuid.UUID, at time.Time) (bool, error) {
	mp, ok := r.plans[id]
	if !ok || mp.IsCooked || mp.IsSkipped {
		return false, nil
	}
	mp.IsCooked = true
	mp.CookedAt = &at
	return true, nil
}

// ── In-memory ShoppingListRepository stub ────────────────────────────────────

type stubShoppingRepo struct {
	items    map[uuid.UUID]*model.ShoppingListItem
	products *stubProductRepo
}

var _ repository.ShoppingListRepository = (*stubShoppingRepo)(nil)

func newStubShoppingRepo(products *stubProductRepo) *stubShoppingRepo {
	return &stubShoppingRepo{items: make(map[uuid.UUID]*model.ShoppingListItem), products: products}
}

func (r *stubShoppingRepo) hydrate(it model.ShoppingListItem) model.ShoppingListItem {
	if p, ok := r.products.products[it.ProductID]; ok {
		it.Product = *p
	}
	return it
}

func (r *stubShoppingRepo) List(_ context.Context, familyID uuid.UUID) ([]model.ShoppingListItem, error) {
	var out []model.ShoppingListItem
	for _, it := range r.items {
		if it.FamilyID == familyID {
			out = append(out, r.hydrate(*it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product.Name < out[j].Product.Name })
	return out, nil
}

func (r *stubShoppingRepo) FindByID(_ context.Context, familyID, id uuid.UUID) (*model.ShoppingListItem, error) {
	it, ok := r.items[id]
	if !ok || it.FamilyID != familyID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := r.hydrate(*it)
	return &cp, nil
}

func (r *stubShoppingRepo) FindOpenByProduct(_ context.Context, familyID, productID uuid.UUID) (*model.ShoppingListItem, error) {
	for _, it := range r.items {
		if it.FamilyID == familyID && it.ProductID == productID && !it.IsBought {
			cp := *it
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubShoppingRepo) Create(_ context.Context, item *model.ShoppingListItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *stubShoppingRepo) Save(_ context.Context, item *model.ShoppingListItem) error {
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *stubShoppingRepo) Delete(_ context.Context, familyID, id uuid.UUID) error {
	it, ok := r.items[id]
	if !ok || it.FamilyID != familyID {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *stubShoppingRepo) Clear(_ context.Context, familyID uuid.UUID) error {
	for id, it := range r.items {
		if it.FamilyID == familyID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *stubShoppingRepo) ReplaceAllTx(_ *gorm.DB, familyID uuid.UUID, items []model.ShoppingListItem) error {
	_ = r.Clear(context.Background(), familyID)
	for i := range items {
		if err := r.Create(context.Background(), &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *stubShoppingRepo) ListBoughtTx(_ *gorm.DB, familyID uuid.UUID) ([]model.ShoppingListItem, error) {
	var out []model.ShoppingListItem
	for _, it := range r.items {
		if it.FamilyID == familyID && it.IsBought {
			out = append(out, r.hydrate(*it))
		}
	}
	return out, nil
}

func (r *stubShoppingRepo) DeleteBoughtTx(_ *gorm.DB, familyID uuid.UUID) error {
	for id, it := range r.items {
		if it.FamilyID == familyID && it.IsBought {
			delete(r.items, id)
		}
	}
	return nil
}

// ── In-memory JobRepository stub ─────────────────────────────────────────────

type stubJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*model.MealPlanGenerationJob
}

var _ repository.JobRepository = (*stubJobRepo)(nil)

func newStubJobRepo() *stubJobRepo {
	return &stubJobRepo{jobs: make(map[uuid.UUID]*model.MealPlanGenerationJob)}
}

func (r *stubJobRepo) Create(_ context.Context, job *model.MealPlanGenerationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *stubJobRepo) FindByID(_ context.Context, id uuid.UUID) (*model.MealPlanGenerationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *stubJobRepo) OldestPending(_ context.Context) (*model.MealPlanGenerationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var oldest *model.MealPlanGenerationJob
	for _, j := range r.jobs {
		if j.Status == model.JobPending && (oldest == nil || j.CreatedAt.Before(oldest.CreatedAt)) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *oldest
	return &cp, nil
}

func (r *stubJobRepo) Claim(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status != model.JobPending {
		return false, nil
	}
	j.Status = model.JobRunning
	j.StartedAt = &at
	return true, nil
}

func (r *stubJobRepo) MarkDone(_ context.Context, id uuid.UUID, at time.Time, result datatypes.JSON) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok && j.Status == model.JobRunning {
		j.Status = model.JobDone
		j.FinishedAt = &at
		j.Result = result
	}
	return nil
}

func (r *stubJobRepo) MarkFailed(_ context.Context, id uuid.UUID, at time.Time, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok && j.Status == model.JobRunning {
		j.Status = model.JobFailed
		j.FinishedAt = &at
		j.Error = &msg
	}
	return nil
}

// ── In-memory PriceObservationRepository stub ────────────────────────────────

type stubPriceRepo struct {
	observations []model.PriceObservation
}

var _ repository.PriceObservationRepository = (*stubPriceRepo)(nil)

func (r *stubPriceRepo) ListByProduct(_ context.Context, productID uuid.UUID, limit int) ([]model.PriceObservation, error) {
	var out []model.PriceObservation
	for i := len(r.observations) - 1; i >= 0 && len(out) < limit; i-- {
		if r.observations[i].ProductID == productID {
			out = append(out, r.observations[i])
		}
	}
	return out, nil
}

func (r *stubPriceRepo) CreateTx(_ *gorm.DB, o *model.PriceObservation) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.observations = append(r.observations, *o)
	return nil
}

func (r *stubPriceRepo) StatsSinceTx(_ *gorm.DB, productID uuid.UUID, since time.Time) (*repository.PriceStats, error) {
	var prices []decimal.Decimal
	for _, o := range r.observations {
		if o.ProductID == productID && !o.CreatedAt.Before(since) {
			prices = append(prices, o.Price)
		}
	}
	if len(prices) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p)
	}
	return &repository.PriceStats{
		Average: sum.Div(decimal.NewFromInt(int64(len(prices)))).Round(2),
		Min:     decimal.Min(prices[0], prices[1:]...),
		Max:     decimal.Max(prices[0], prices[1:]...),
		Last:    prices[len(prices)-1],
		Samples: len(prices),
	}, nil
}
