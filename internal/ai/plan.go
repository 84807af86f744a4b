// Package ai is the boundary to the language model that proposes meal plans.
// Everything coming back from the model is untrusted: it is decoded into a strict
// schema and rejected wholesale on any deviation.
package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
)

// ErrMalformedPlan wraps every decode or shape failure of a model response.
var ErrMalformedPlan = errors.New("malformed meal plan")

const dateLayout = "2006-01-02"

type Plan struct {
	Days          []Day   `json:"days"`
	EstimatedCost float64 `json:"estimatedCost"`
}

type Day struct {
	Date  string `json:"date"`
	Meals []Meal `json:"meals"`
}

// ParsedDate returns the day's date, or false when the model sent none or garbage.
func (d Day) ParsedDate() (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(d.Date))
	return t, err == nil
}

type Meal struct {
	Type   model.MealType `json:"type"`
	Recipe Recipe         `json:"recipe"`
}

func (m *Meal) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   string  `json:"type"`
		Recipe *Recipe `json:"recipe"`
	}
	if err := strictDecode(data, &raw); err != nil {
		return err
	}
	t, err := model.ParseMealType(raw.Type)
	if err != nil {
		return err
	}
	if raw.Recipe == nil {
		return fmt.Errorf("meal %s has no recipe", t)
	}
	m.Type = t
	m.Recipe = *raw.Recipe
	return nil
}

type Recipe struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Instructions []string     `json:"instructions"`
	CookingTime  int          `json:"cookingTime"`
	Servings     int          `json:"servings"`
	Calories     float64      `json:"calories"`
	Ingredients  []Ingredient `json:"ingredients"`
	Category     *string      `json:"category,omitempty"`
}

// Ingredient is either a catalog reference (ProductID set) or a name-only proposal.
type Ingredient struct {
	ProductID   *uuid.UUID
	ProductName string
	Amount      float64
	Unit        string
}

// ByID reports whether the model referenced a catalog id directly.
func (i Ingredient) ByID() bool { return i.ProductID != nil }

func (i *Ingredient) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID   *string  `json:"productId"`
		ProductName string   `json:"productName"`
		Amount      *float64 `json:"amount"`
		Unit        string   `json:"unit"`
	}
	if err := strictDecode(data, &raw); err != nil {
		return err
	}
	if raw.Amount == nil || *raw.Amount <= 0 {
		return fmt.Errorf("ingredient %q has no positive amount", raw.ProductName)
	}
	var id *uuid.UUID
	if raw.ProductID != nil && strings.TrimSpace(*raw.ProductID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(*raw.ProductID))
		if err != nil {
			return fmt.Errorf("ingredient %q: invalid productId: %w", raw.ProductName, err)
		}
		id = &parsed
	}
	if id == nil && strings.TrimSpace(raw.ProductName) == "" {
		return errors.New("ingredient has neither productId nor productName")
	}
	*i = Ingredient{ProductID: id, ProductName: raw.ProductName, Amount: *raw.Amount, Unit: raw.Unit}
	return nil
}

func (i Ingredient) MarshalJSON() ([]byte, error) {
	out := struct {
		ProductID   *uuid.UUID `json:"productId,omitempty"`
		ProductName string     `json:"productName"`
		Amount      float64    `json:"amount"`
		Unit        string     `json:"unit"`
	}{i.ProductID, i.ProductName, i.Amount, i.Unit}
	return json.Marshal(out)
}

// Parse decodes a model response. Markdown fences and prose around the outermost
// JSON object are tolerated; anything else (truncation, unknown fields, bad meal
// types, missing days) fails with ErrMalformedPlan. Truncated output is never repaired.
func Parse(raw string) (*Plan, error) {
	body, err := extractObject(raw)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Days          *[]Day  `json:"days"`
		EstimatedCost float64 `json:"estimatedCost"`
	}
	if err := strictDecode([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	if envelope.Days == nil {
		return nil, fmt.Errorf("%w: days array is missing", ErrMalformedPlan)
	}
	plan := &Plan{Days: *envelope.Days, EstimatedCost: envelope.EstimatedCost}
	for di, d := range plan.Days {
		if len(d.Meals) == 0 {
			return nil, fmt.Errorf("%w: day %d has no meals", ErrMalformedPlan, di)
		}
		for _, m := range d.Meals {
			if strings.TrimSpace(m.Recipe.Name) == "" {
				return nil, fmt.Errorf("%w: day %d has a %s without a recipe name", ErrMalformedPlan, di, m.Type)
			}
		}
	}
	return plan, nil
}

func extractObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in response", ErrMalformedPlan)
	}
	return s[start : end+1], nil
}

// strictDecode rejects unknown fields and trailing data.
func strictDecode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}
