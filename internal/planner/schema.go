package planner

import "github.com/google/generative-ai-go/genai"

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func strList() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

// ResponseSchema is the JSON contract the model must answer with. Every
// object lists all of its properties as required.
func ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"analysis": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"summary":         str("Empathetic summary of the user's inventory."),
					"usedIngredients": strList(),
					"missingMacros":   str(""),
				},
				Required: []string{"summary", "usedIngredients", "missingMacros"},
			},
			"nutritionalStats": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"averageDailyCalories": {Type: genai.TypeNumber, Description: "Estimated average daily calories."},
					"macroSplit": {
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"protein": str("Ex: 20%"),
							"carbs":   str("Ex: 50%"),
							"fats":    str("Ex: 30%"),
						},
						Required: []string{"protein", "carbs", "fats"},
					},
					"note": str("Short note on the nutritional balance of the week."),
				},
				Required: []string{"averageDailyCalories", "macroSplit", "note"},
			},
			"plan": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"day":      str("Ex: Day 1"),
						"mealType": str("Breakfast, Lunch or Dinner"),
						"meal":     str(""),
						"prepTime": str(""),
						"cost":     str(""),
					},
					Required: []string{"day", "mealType", "meal", "prepTime", "cost"},
				},
			},
			"shoppingList": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"category": str(""),
						"items":    strList(),
					},
					Required: []string{"category", "items"},
				},
			},
			"recipes": {
				Type:        genai.TypeArray,
				Description: "COMPLETE list with exactly one recipe for EACH distinct meal named in the plan, titled exactly like the meal.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":    str("Exactly the meal name used in the plan."),
						"steps":    strList(),
						"chefTips": str("Crucial tip about flavour, salt or storage."),
					},
					Required: []string{"title", "steps", "chefTips"},
				},
			},
		},
		Required: append([]string(nil), requiredFields...),
	}
}
