package ai

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrMalformedRecipe wraps every decode or shape failure of a recipe response.
var ErrMalformedRecipe = errors.New("malformed recipe")

const defaultPortions = 2

// RecipeRequest asks for one recipe built from Products, preferring Focus.
type RecipeRequest struct {
	Focus        []string
	Portions     int
	Restrictions []string
	Products     []CatalogEntry
}

//go:embed recipe.tmpl
var recipeText string

var recipeTmpl = template.Must(template.New("recipe").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(recipeText))

func BuildRecipePrompt(req RecipeRequest) (string, error) {
	if req.Portions <= 0 {
		req.Portions = defaultPortions
	}
	var b strings.Builder
	if err := recipeTmpl.Execute(&b, req); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ParseRecipe decodes a {"recipe": {...}} response with the same tolerance as
// Parse: fences and surrounding prose are dropped, everything else must match.
func ParseRecipe(raw string) (*Recipe, error) {
	body, err := extractObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecipe, err)
	}
	var envelope struct {
		Recipe *Recipe `json:"recipe"`
	}
	if err := strictDecode([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecipe, err)
	}
	r := envelope.Recipe
	switch {
	case r == nil:
		return nil, fmt.Errorf("%w: recipe is missing", ErrMalformedRecipe)
	case strings.TrimSpace(r.Name) == "":
		return nil, fmt.Errorf("%w: recipe has no name", ErrMalformedRecipe)
	case len(r.Ingredients) == 0:
		return nil, fmt.Errorf("%w: recipe %q has no ingredients", ErrMalformedRecipe, r.Name)
	}
	return r, nil
}
