package shopping

import (
	"context"
	"fmt"

	"ecochef/internal/storage"
)

// Repository persists each owner's shopping history as one JSON document.
type Repository struct {
	store storage.Store
}

// NewRepository creates a new shopping history repository.
func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store}
}

// Load returns the owner's history, most recent first. A missing record is an
// empty history.
func (r *Repository) Load(ctx context.Context, owner string) ([]HistoryItem, error) {
	var items []HistoryItem
	if _, err := storage.ReadJSON(ctx, storage.Scoped(r.store, owner), storage.KeyShoppingHistory, &items); err != nil {
		return nil, fmt.Errorf("failed to load shopping history: %w", err)
	}
	return items, nil
}

// Save replaces the owner's whole history.
func (r *Repository) Save(ctx context.Context, owner string, items []HistoryItem) error {
	if items == nil {
		items = []HistoryItem{}
	}
	if err := storage.WriteJSON(ctx, storage.Scoped(r.store, owner), storage.KeyShoppingHistory, items); err != nil {
		return fmt.Errorf("failed to save shopping history: %w", err)
	}
	return nil
}
