package app

import (
	"context"
	"fmt"

	"ecochef/internal/auth"
	"ecochef/internal/ghost"
	"ecochef/internal/locale"
	"ecochef/internal/planner"
	"ecochef/internal/recipe"
	"ecochef/internal/shopping"
	"ecochef/internal/storage"

	"go.uber.org/zap"
)

// DefaultDays is the number of days a fresh draft asks for.
const DefaultDays = 3

// Draft is the input form as last left by its owner.
type Draft struct {
	IngredientsText     string          `json:"ingredientsText"`
	Days                int             `json:"days"`
	DietaryRestrictions string          `json:"dietaryRestrictions"`
	Language            locale.Language `json:"language"`
}

// Request turns the draft into a plan request.
func (d Draft) Request() planner.PlanRequest {
	return planner.BuildRequest(d.IngredientsText, d.Days, d.DietaryRestrictions, d.Language)
}

func defaultDraft() Draft {
	return Draft{Days: DefaultDays, Language: locale.Default}
}

// SaveSelection keeps the checked items of the current plan as a new history
// entry. It returns nil and writes nothing when no item is checked.
func (a *App) SaveSelection(ctx context.Context, p auth.Principal) (*shopping.HistoryItem, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	s := a.session(p.Owner())
	s.mu.Lock()
	if s.plan == nil {
		s.mu.Unlock()
		return nil, ErrNoPlan
	}
	categories, err := s.engine.HistorySelection(p)
	lang := s.request.Language
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	item, ok, err := shopping.NewHistoryItem(categories, a.now(), a.loc, lang)
	if err != nil || !ok {
		return nil, err
	}

	unlock := a.lockOwner(p.Owner())
	defer unlock()
	items, err := a.history.Load(ctx, p.Owner())
	if err != nil {
		return nil, err
	}
	if err := a.history.Save(ctx, p.Owner(), shopping.Prepend(items, *item)); err != nil {
		return nil, err
	}
	a.log.Info("shopping list saved", zap.String("owner", p.Owner()), zap.String("id", item.ID), zap.Int("items", item.ItemCount()))
	return item, nil
}

// History returns the saved shopping lists grouped by week, labelled in lang.
func (a *App) History(ctx context.Context, p auth.Principal, lang locale.Language) ([]shopping.WeekGroup, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	items, err := a.history.Load(ctx, p.Owner())
	if err != nil {
		return nil, err
	}
	return shopping.GroupByWeek(items, lang), nil
}

// updateHistoryItem applies fn to the entry with id and persists the result
// when fn reports a change.
func (a *App) updateHistoryItem(ctx context.Context, p auth.Principal, id string, fn func(*shopping.HistoryItem) (bool, error)) (*shopping.HistoryItem, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	unlock := a.lockOwner(p.Owner())
	defer unlock()

	items, err := a.history.Load(ctx, p.Owner())
	if err != nil {
		return nil, err
	}
	idx := shopping.Find(items, id)
	if idx < 0 {
		return nil, fmt.Errorf("history %s: %w", id, shopping.ErrNotFound)
	}
	changed, err := fn(&items[idx])
	if err != nil {
		return nil, err
	}
	if changed {
		if err := a.history.Save(ctx, p.Owner(), items); err != nil {
			return nil, err
		}
	}
	item := items[idx]
	return &item, nil
}

// ToggleHistoryItem flips the purchased mark of one item of a saved list.
func (a *App) ToggleHistoryItem(ctx context.Context, p auth.Principal, id string, ref shopping.ItemRef) (*shopping.HistoryItem, error) {
	return a.updateHistoryItem(ctx, p, id, func(h *shopping.HistoryItem) (bool, error) {
		if err := h.ToggleChecked(ref); err != nil {
			return false, err
		}
		return true, nil
	})
}

// AddHistoryExtra appends a hand-written item to a saved list. Blank text
// leaves the list as it was.
func (a *App) AddHistoryExtra(ctx context.Context, p auth.Principal, id, text string, lang locale.Language) (*shopping.HistoryItem, error) {
	return a.updateHistoryItem(ctx, p, id, func(h *shopping.HistoryItem) (bool, error) {
		return h.AppendExtra(text, lang), nil
	})
}

// DeleteHistoryItem removes a saved list.
func (a *App) DeleteHistoryItem(ctx context.Context, p auth.Principal, id string) error {
	if err := auth.Require(p); err != nil {
		return err
	}
	unlock := a.lockOwner(p.Owner())
	defer unlock()

	items, err := a.history.Load(ctx, p.Owner())
	if err != nil {
		return err
	}
	items, ok := shopping.Delete(items, id)
	if !ok {
		return fmt.Errorf("history %s: %w", id, shopping.ErrNotFound)
	}
	return a.history.Save(ctx, p.Owner(), items)
}

// ToggleSavedRecipe saves the recipe of the current plan titled title, or
// removes it when it is already saved. It reports whether the recipe ended
// up saved.
func (a *App) ToggleSavedRecipe(ctx context.Context, p auth.Principal, title string) (bool, error) {
	if err := auth.Require(p); err != nil {
		return false, err
	}
	unlock := a.lockOwner(p.Owner())
	defer unlock()

	saved, err := a.recipes.Load(ctx, p.Owner())
	if err != nil {
		return false, err
	}
	r, inPlan := a.planRecipe(p, title)
	if !inPlan {
		if !recipe.IsSaved(saved, title) {
			return false, fmt.Errorf("recipe %q: %w", title, recipe.ErrNotFound)
		}
		r = recipe.Recipe{Title: title}
	}
	saved, now := recipe.Toggle(saved, r, a.now(), a.loc)
	if err := a.recipes.Save(ctx, p.Owner(), saved); err != nil {
		return false, err
	}
	return now, nil
}

// DeleteSavedRecipe removes a favourite by title.
func (a *App) DeleteSavedRecipe(ctx context.Context, p auth.Principal, title string) error {
	if err := auth.Require(p); err != nil {
		return err
	}
	unlock := a.lockOwner(p.Owner())
	defer unlock()

	saved, err := a.recipes.Load(ctx, p.Owner())
	if err != nil {
		return err
	}
	saved, err = recipe.Delete(saved, title)
	if err != nil {
		return fmt.Errorf("recipe %q: %w", title, err)
	}
	return a.recipes.Save(ctx, p.Owner(), saved)
}

// SavedRecipes returns the favourites grouped by the week they were saved in.
func (a *App) SavedRecipes(ctx context.Context, p auth.Principal, lang locale.Language) ([]recipe.WeekGroup, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	saved, err := a.recipes.Load(ctx, p.Owner())
	if err != nil {
		return nil, err
	}
	return recipe.GroupByWeek(saved, lang, a.loc), nil
}

// Draft returns the owner's last input, or the defaults when there is none.
// A guest's draft lives only as long as its session.
func (a *App) Draft(ctx context.Context, p auth.Principal) (Draft, error) {
	if !p.SignedIn() {
		s := a.session(p.Owner())
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.draft == nil {
			return defaultDraft(), nil
		}
		return *s.draft, nil
	}
	d := defaultDraft()
	if _, err := storage.ReadJSON(ctx, storage.Scoped(a.store, p.Owner()), storage.KeyDraft, &d); err != nil {
		return defaultDraft(), err
	}
	return d, nil
}

// SaveDraft stores the owner's input. Ingredients may be blank; days and
// language must be usable for a later request.
func (a *App) SaveDraft(ctx context.Context, p auth.Principal, d Draft) error {
	var invalid []string
	if d.Days < planner.MinDays || d.Days > planner.MaxDays {
		invalid = append(invalid, "days")
	}
	if !d.Language.Valid() {
		invalid = append(invalid, "language")
	}
	if len(invalid) > 0 {
		return &planner.ValidationError{Fields: invalid}
	}
	if !p.SignedIn() {
		s := a.session(p.Owner())
		s.mu.Lock()
		s.draft = &d
		s.mu.Unlock()
		return nil
	}
	return storage.WriteJSON(ctx, storage.Scoped(a.store, p.Owner()), storage.KeyDraft, d)
}

// PublishRecipe posts a saved recipe to the blog as a draft post.
func (a *App) PublishRecipe(ctx context.Context, p auth.Principal, title string) (*ghost.Post, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	if a.publisher == nil {
		return nil, ghost.ErrNotConfigured
	}
	saved, err := a.recipes.Load(ctx, p.Owner())
	if err != nil {
		return nil, err
	}
	idx := recipe.IndexOf(saved, title)
	if idx < 0 {
		return nil, fmt.Errorf("recipe %q: %w", title, recipe.ErrNotFound)
	}
	html, err := recipe.RenderHTML(saved[idx])
	if err != nil {
		return nil, err
	}
	post, err := a.publisher.CreatePost(ctx, title, html, false)
	if err != nil {
		return nil, fmt.Errorf("failed to publish recipe %q: %w", title, err)
	}
	a.log.Info("recipe published", zap.String("owner", p.Owner()), zap.String("post", post.ID))
	return post, nil
}
