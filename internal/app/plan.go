package app

import (
	"context"

	"ecochef/internal/auth"
	"ecochef/internal/planner"
	"ecochef/internal/recipe"
	"ecochef/internal/selection"

	"go.uber.org/zap"
)

// PlanView is the current plan of a session as front ends show it.
type PlanView struct {
	Plan *planner.PlanResponse `json:"plan"`
	// Generation identifies this plan; it changes whenever the plan is
	// replaced or reset.
	Generation uint64              `json:"generation"`
	Request    planner.PlanRequest `json:"request"`
	Checked    []selection.Key     `json:"checked"`
	// Saved maps each recipe title of the plan to whether it is a favourite.
	Saved map[string]bool `json:"saved"`
}

// Generate requests a new plan for p. An invalid request, including one with
// blank ingredients, fails with *planner.ValidationError and changes nothing.
// A failed generation leaves the previous plan and selection in place. Once
// the request is accepted it is also kept as the owner's draft.
func (a *App) Generate(ctx context.Context, p auth.Principal, req planner.PlanRequest) (*PlanView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return a.generate(ctx, p, a.session(p.Owner()), req, true)
}

// Recalculate asks for a new plan whose ingredients are the previous ones
// plus every checked item.
func (a *App) Recalculate(ctx context.Context, p auth.Principal) (*PlanView, error) {
	s := a.session(p.Owner())
	s.mu.Lock()
	if s.plan == nil {
		s.mu.Unlock()
		return nil, ErrNoPlan
	}
	req, err := s.engine.RegenerationRequest(p, s.request)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return a.generate(ctx, p, s, req, false)
}

func (a *App) generate(ctx context.Context, p auth.Principal, s *session, req planner.PlanRequest, remember bool) (*PlanView, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		if a.prom != nil {
			a.prom.ObserveBusy()
		}
		return nil, ErrBusy
	}
	s.busy = true
	s.mu.Unlock()

	if remember {
		a.rememberDraft(ctx, p, req)
	}

	plan, meta, err := a.planner.RequestPlan(ctx, req)
	a.observe(ctx, meta, err)

	s.mu.Lock()
	s.busy = false
	if err != nil {
		s.mu.Unlock()
		a.log.Warn("plan generation failed", zap.String("owner", p.Owner()), zap.Error(err))
		return nil, err
	}
	s.plan = plan
	s.generation = a.planSeq.Add(1)
	s.request = req
	s.engine = selection.New(plan)
	s.mu.Unlock()

	a.log.Info("plan generated",
		zap.String("owner", p.Owner()),
		zap.Int("days", req.Days),
		zap.Int("meals", len(plan.Plan)),
		zap.Duration("latency", meta.Latency),
	)
	return a.CurrentPlan(ctx, p)
}

// CurrentPlan returns the session's plan with its checked items.
func (a *App) CurrentPlan(ctx context.Context, p auth.Principal) (*PlanView, error) {
	s := a.session(p.Owner())
	s.mu.Lock()
	if s.plan == nil {
		s.mu.Unlock()
		return nil, ErrNoPlan
	}
	view := &PlanView{
		Plan:       s.plan,
		Generation: s.generation,
		Request:    s.request,
		Checked:    s.engine.Checked(),
		Saved:      make(map[string]bool, len(s.plan.Recipes)),
	}
	s.mu.Unlock()

	var saved []recipe.SavedRecipe
	if p.SignedIn() {
		var err error
		if saved, err = a.recipes.Load(ctx, p.Owner()); err != nil {
			return nil, err
		}
	}
	for _, r := range view.Plan.Recipes {
		view.Saved[r.Title] = recipe.IsSaved(saved, r.Title)
	}
	return view, nil
}

// Reset drops the current plan and its selection.
func (a *App) Reset(p auth.Principal) {
	s := a.session(p.Owner())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = nil
	s.generation = 0
	s.engine = nil
	s.request = planner.PlanRequest{}
}

// ToggleItem flips one item of the current shopping list and returns its new
// state.
func (a *App) ToggleItem(p auth.Principal, k selection.Key) (bool, error) {
	return a.toggleItem(p, 0, k)
}

// ToggleItemIn is ToggleItem for a key taken from plan generation. It fails
// with ErrStalePlan when that plan is no longer current.
func (a *App) ToggleItemIn(p auth.Principal, generation uint64, k selection.Key) (bool, error) {
	return a.toggleItem(p, generation, k)
}

func (a *App) toggleItem(p auth.Principal, generation uint64, k selection.Key) (bool, error) {
	s := a.session(p.Owner())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil || (generation != 0 && generation != s.generation) {
		if err := auth.Require(p); err != nil {
			return false, err
		}
		if s.plan == nil {
			return false, ErrNoPlan
		}
		return false, ErrStalePlan
	}
	return s.engine.Toggle(p, k)
}

// planRecipe finds a recipe of the current plan by title.
func (a *App) planRecipe(p auth.Principal, title string) (recipe.Recipe, bool) {
	s := a.session(p.Owner())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return recipe.Recipe{}, false
	}
	for _, r := range s.plan.Recipes {
		if r.Title == title {
			return r, true
		}
	}
	return recipe.Recipe{}, false
}

func (a *App) rememberDraft(ctx context.Context, p auth.Principal, req planner.PlanRequest) {
	d := Draft{
		IngredientsText:     req.IngredientsText,
		Days:                req.Days,
		DietaryRestrictions: req.DietaryRestrictions,
		Language:            req.Language,
	}
	if err := a.SaveDraft(ctx, p, d); err != nil {
		a.log.Warn("failed to save draft", zap.String("owner", p.Owner()), zap.Error(err))
	}
}
