package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/infra"
	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TextGenerator is a raw completion provider returning the model's text.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Generator proposes meal plans and single recipes.
type Generator interface {
	GeneratePlan(ctx context.Context, req PlanRequest) (*Plan, error)
	GenerateRecipe(ctx context.Context, req RecipeRequest) (*Recipe, error)
}

type MemberProfile struct {
	Name          string
	Goal          string
	Allergies     []string
	EatsBreakfast bool
	EatsLunch     bool
	EatsDinner    bool
	EatsSnack     bool
}

type CatalogEntry struct {
	ID       uuid.UUID
	Name     string
	Category string
	Unit     model.BaseUnit
}

// PlanRequest is everything the model is told about the family.
type PlanRequest struct {
	Members      []MemberProfile
	Restrictions []string
	Budget       decimal.Decimal
	StartDate    time.Time
	Days         int
	Products     []CatalogEntry
}

// Dates returns the calendar dates the request covers, one per day.
func (r PlanRequest) Dates() []string {
	out := make([]string, r.Days)
	for i := range out {
		out[i] = r.StartDate.AddDate(0, 0, i).Format(dateLayout)
	}
	return out
}

type planGenerator struct {
	text    TextGenerator
	breaker *infra.CircuitBreaker
	timeout time.Duration
}

// NewPlanGenerator builds a Generator on top of a text provider. Calls go through
// breaker (when non-nil) and are bounded by timeout (when positive).
func NewPlanGenerator(text TextGenerator, breaker *infra.CircuitBreaker, timeout time.Duration) Generator {
	return &planGenerator{text: text, breaker: breaker, timeout: timeout}
}

func (g *planGenerator) GeneratePlan(ctx context.Context, req PlanRequest) (*Plan, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, err
	}
	raw, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	plan, err := Parse(raw)
	if err != nil {
		log.Warn().Err(err).Int("response_len", len(raw)).Msg("ai: rejected model response")
		return nil, err
	}
	return plan, nil
}

func (g *planGenerator) GenerateRecipe(ctx context.Context, req RecipeRequest) (*Recipe, error) {
	prompt, err := BuildRecipePrompt(req)
	if err != nil {
		return nil, err
	}
	raw, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	recipe, err := ParseRecipe(raw)
	if err != nil {
		log.Warn().Err(err).Int("response_len", len(raw)).Msg("ai: rejected recipe response")
		return nil, err
	}
	return recipe, nil
}

// complete runs one provider call under the timeout and the breaker.
func (g *planGenerator) complete(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var raw string
	call := func() error {
		out, err := g.text.GenerateContent(ctx, prompt)
		if err != nil {
			return err
		}
		raw = out
		return nil
	}
	var err error
	if g.breaker != nil {
		err = g.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return raw, nil
}
