package planner

import (
	"bytes"
	"encoding/json"
	"fmt"

	"ecochef/internal/recipe"
	"ecochef/internal/shopping"
)

// Analysis is the model's reading of the user's inventory.
type Analysis struct {
	Summary         string   `json:"summary"`
	UsedIngredients []string `json:"usedIngredients"`
	MissingMacros   string   `json:"missingMacros"`
}

// MacroSplit holds percentage strings such as "20%".
type MacroSplit struct {
	Protein string `json:"protein"`
	Carbs   string `json:"carbs"`
	Fats    string `json:"fats"`
}

// NutritionalStats are rough daily estimates for the whole plan.
type NutritionalStats struct {
	AverageDailyCalories float64    `json:"averageDailyCalories" validate:"gte=0"`
	MacroSplit           MacroSplit `json:"macroSplit"`
	Note                 string     `json:"note"`
}

// MealPlanItem is one meal of the plan.
type MealPlanItem struct {
	Day      string `json:"day" validate:"required"`
	MealType string `json:"mealType"`
	Meal     string `json:"meal" validate:"required"`
	PrepTime string `json:"prepTime"`
	Cost     string `json:"cost"`
}

// PlanResponse is a complete generated plan. It is read-only once produced
// and replaced wholesale by the next generation.
type PlanResponse struct {
	Analysis         Analysis            `json:"analysis"`
	NutritionalStats NutritionalStats    `json:"nutritionalStats"`
	Plan             []MealPlanItem      `json:"plan" validate:"min=1,dive"`
	ShoppingList     []shopping.Category `json:"shoppingList"`
	Recipes          []recipe.Recipe     `json:"recipes" validate:"min=1,dive"`
}

var requiredFields = []string{"analysis", "nutritionalStats", "plan", "shoppingList", "recipes"}

// ParseResponse decodes and validates a generated plan. Any missing top-level
// field, unknown shape or failed validation rejects the whole document.
func ParseResponse(content []byte) (*PlanResponse, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(content, &top); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	var missing []string
	for _, f := range requiredFields {
		raw, ok := top[f]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	var resp PlanResponse
	if err := json.Unmarshal(content, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	if err := getValidator().Struct(resp); err != nil {
		return nil, toValidationError(err)
	}
	return &resp, nil
}

// RecipeFor returns the recipe titled like the given meal.
func (p *PlanResponse) RecipeFor(meal string) (recipe.Recipe, bool) {
	for _, r := range p.Recipes {
		if r.Title == meal {
			return r, true
		}
	}
	return recipe.Recipe{}, false
}

// MissingRecipes lists, once each and in plan order, the meals that have no
// recipe with a matching title.
func (p *PlanResponse) MissingRecipes() []string {
	seen := map[string]bool{}
	var missing []string
	for _, m := range p.Plan {
		if seen[m.Meal] {
			continue
		}
		seen[m.Meal] = true
		if _, ok := p.RecipeFor(m.Meal); !ok {
			missing = append(missing, m.Meal)
		}
	}
	return missing
}

// DistinctMeals returns the meals of the plan without repeats, in plan order.
func (p *PlanResponse) DistinctMeals() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range p.Plan {
		if !seen[m.Meal] {
			seen[m.Meal] = true
			out = append(out, m.Meal)
		}
	}
	return out
}
