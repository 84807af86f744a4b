package model

import (
	"time"

	"github.com/google/uuid"
)

// Recipe is owned by the meal-plan slots that reference it unless Saved is set.
// Instructions are newline-joined steps.
type Recipe struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string     `gorm:"not null" json:"name"`
	Description  string     `json:"description"`
	Instructions string     `gorm:"type:text" json:"instructions"`
	CookingTime  int        `json:"cooking_time"`
	Servings     int        `json:"servings"`
	Calories     float64    `json:"calories"`
	Category     *string    `json:"category,omitempty"`
	Saved        bool       `gorm:"not null;default:false" json:"saved"`
	FamilyID     *uuid.UUID `gorm:"type:uuid;index" json:"family_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
}

func (Recipe) TableName() string { return "recipes" }

// RecipeIngredient amounts are in the product's base unit. Position keeps the AI's order.
type RecipeIngredient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"recipe_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Position  int       `gorm:"not null;default:0" json:"position"`

	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}

func (RecipeIngredient) TableName() string { return "recipe_ingredients" }
