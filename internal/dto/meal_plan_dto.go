package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type GenerateMealPlanRequest struct {
	Days int     `json:"days" validate:"omitempty,min=1,max=7"`
	Date *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type GenerateAsyncRequest struct {
	Days int `json:"days" validate:"omitempty,min=1,max=7"`
}

type RegenerateDayRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type CookRequest struct {
	IgnoreMissing     bool `json:"ignore_missing"`
	AddToShoppingList bool `json:"add_to_shopping_list"`
}

type SaveRecipeRequest struct {
	Saved *bool `json:"saved" validate:"required"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type DateRangeQuery struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   validate:"omitempty,datetime=2006-01-02"`
}
