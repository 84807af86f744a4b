package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidationError means the input (usually the model's response) was rejected
// before anything was persisted.
type ValidationError struct {
	Message      string
	Details      string
	ExpectedDays int
	ReceivedDays int
}

func (e *ValidationError) Error() string {
	switch {
	case e.Details != "":
		return e.Message + ": " + e.Details
	case e.ExpectedDays > 0:
		return fmt.Sprintf("%s (expected %d days, received %d)", e.Message, e.ExpectedDays, e.ReceivedDays)
	}
	return e.Message
}

func newValidation(msg string) *ValidationError { return &ValidationError{Message: msg} }

type UnresolvedIngredient struct {
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	ProductName string     `json:"product_name"`
}

// UnresolvedIngredientsError lists every ingredient that is not in the catalog.
type UnresolvedIngredientsError struct {
	Ingredients []UnresolvedIngredient
}

func (e *UnresolvedIngredientsError) Error() string {
	names := make([]string, len(e.Ingredients))
	for i, ing := range e.Ingredients {
		names[i] = ing.ProductName
	}
	return "unknown ingredients: " + strings.Join(names, ", ")
}

type MissingItem struct {
	ProductID   uuid.UUID      `json:"product_id"`
	ProductName string         `json:"product_name"`
	BaseUnit    model.BaseUnit `json:"base_unit"`
	Required    float64        `json:"required"`
	InInventory float64        `json:"in_inventory"`
	Missing     float64        `json:"missing"`
}

// InsufficientStockError aborts a cook; inventory is left untouched.
type InsufficientStockError struct {
	Missing             []MissingItem
	AddedToShoppingList bool
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough products in inventory (%d missing)", len(e.Missing))
}

type NotFoundError struct{ Entity string }

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

// StateConflictError rejects a transition the current state forbids.
type StateConflictError struct{ Message string }

func (e *StateConflictError) Error() string { return e.Message }

// notFound turns gorm.ErrRecordNotFound into a NotFoundError and wraps anything else.
func notFound(entity string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity}
	}
	return fmt.Errorf("load %s: %w", strings.ToLower(entity), err)
}
