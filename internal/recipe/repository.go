package recipe

import (
	"context"
	"fmt"

	"ecochef/internal/storage"
)

// Repository persists each owner's saved recipes as one JSON document.
type Repository struct {
	store storage.Store
}

// NewRepository creates a new Repository.
func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store}
}

// Load returns the owner's saved recipes in the order they were saved.
func (r *Repository) Load(ctx context.Context, owner string) ([]SavedRecipe, error) {
	var saved []SavedRecipe
	if _, err := storage.ReadJSON(ctx, storage.Scoped(r.store, owner), storage.KeySavedRecipes, &saved); err != nil {
		return nil, fmt.Errorf("failed to load saved recipes: %w", err)
	}
	return saved, nil
}

// Save replaces the owner's saved recipes.
func (r *Repository) Save(ctx context.Context, owner string, saved []SavedRecipe) error {
	if saved == nil {
		saved = []SavedRecipe{}
	}
	if err := storage.WriteJSON(ctx, storage.Scoped(r.store, owner), storage.KeySavedRecipes, saved); err != nil {
		return fmt.Errorf("failed to save recipes: %w", err)
	}
	return nil
}
