package dto

type RecipeIngredientRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Amount    float64 `json:"amount"     validate:"gt=0"`
}

type CreateRecipeRequest struct {
	Name         string                    `json:"name"         validate:"required,max=200"`
	Description  string                    `json:"description"  validate:"max=2000"`
	Instructions []string                  `json:"instructions" validate:"required,min=1"`
	CookingTime  int                       `json:"cooking_time" validate:"min=0"`
	Servings     int                       `json:"servings"     validate:"min=0"`
	Calories     float64                   `json:"calories"     validate:"min=0"`
	Category     *string                   `json:"category"     validate:"omitempty,max=60"`
	Ingredients  []RecipeIngredientRequest `json:"ingredients"  validate:"required,min=1,dive"`
}

// CookIngredientsRequest cooks a list that is not stored as a recipe.
type CookIngredientsRequest struct {
	Name              string                    `json:"name"        validate:"max=200"`
	Ingredients       []RecipeIngredientRequest `json:"ingredients" validate:"required,min=1,dive"`
	IgnoreMissing     bool                      `json:"ignore_missing"`
	AddToShoppingList bool                      `json:"add_to_shopping_list"`
}

type SuggestRecipeQuery struct {
	Days     int  `form:"days"     validate:"omitempty,min=1,max=14"`
	Portions int  `form:"portions" validate:"omitempty,min=1,max=12"`
	Save     bool `form:"save"`
}
