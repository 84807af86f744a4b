package ai

import (
	_ "embed"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var promptText string

var promptTmpl = template.Must(template.New("plan").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(promptText))

type promptMember struct {
	MemberProfile
	Meals string
}

// BuildPrompt renders the plan request. Only the response contract matters to the
// rest of the system; wording here is free to change.
func BuildPrompt(req PlanRequest) (string, error) {
	members := make([]promptMember, len(req.Members))
	for i, m := range req.Members {
		members[i] = promptMember{MemberProfile: m, Meals: mealList(m)}
	}
	data := struct {
		Days         int
		StartDate    string
		Dates        []string
		Members      []promptMember
		Restrictions []string
		Budget       string
		Products     []CatalogEntry
	}{
		Days:         req.Days,
		StartDate:    req.StartDate.Format(dateLayout),
		Dates:        req.Dates(),
		Members:      members,
		Restrictions: req.Restrictions,
		Budget:       req.Budget.StringFixed(2),
		Products:     req.Products,
	}

	var b strings.Builder
	if err := promptTmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func mealList(m MemberProfile) string {
	var meals []string
	if m.EatsBreakfast {
		meals = append(meals, "breakfast")
	}
	if m.EatsLunch {
		meals = append(meals, "lunch")
	}
	if m.EatsDinner {
		meals = append(meals, "dinner")
	}
	if m.EatsSnack {
		meals = append(meals, "snack")
	}
	if len(meals) == 0 {
		return "none"
	}
	return strings.Join(meals, ", ")
}
