package planner

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed system_prompt.md
var systemPrompt string

//go:embed plan_prompt.md
var planPrompt string

var (
	systemTmpl = template.Must(template.New("System").Parse(systemPrompt))
	planTmpl   = template.Must(template.New("Plan").Parse(planPrompt))
)

type promptData struct {
	Ingredients  string
	Days         int
	Restrictions string
	LanguageName string
}

func newPromptData(req PlanRequest) promptData {
	restrictions := strings.TrimSpace(req.DietaryRestrictions)
	if restrictions == "" {
		restrictions = req.Language.NoneRestriction()
	}
	return promptData{
		Ingredients:  req.IngredientsText,
		Days:         req.Days,
		Restrictions: restrictions,
		LanguageName: req.Language.Name(),
	}
}

// buildPrompts renders the system instruction and user prompt for req.
func buildPrompts(req PlanRequest) (string, string, error) {
	data := newPromptData(req)

	var sys, user bytes.Buffer
	if err := systemTmpl.Execute(&sys, data); err != nil {
		return "", "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	if err := planTmpl.Execute(&user, data); err != nil {
		return "", "", fmt.Errorf("failed to render plan prompt: %w", err)
	}
	return sys.String(), user.String(), nil
}
