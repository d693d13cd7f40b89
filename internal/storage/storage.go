// Package storage persists per-user records as opaque strings under string
// keys. Every write replaces the whole value; concurrent writers race and the
// last one wins.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ecochef/internal/config"
)

// Keys of the records kept for each owner.
const (
	KeySavedRecipes    = "savedRecipes"
	KeyShoppingHistory = "shoppingHistory"
	KeyDraft           = "draft"
)

// Store is a string key-value store.
type Store interface {
	// Read returns the stored value and whether the key exists.
	Read(ctx context.Context, key string) (string, bool, error)
	Write(ctx context.Context, key, value string) error
}

// scoped prefixes every key with an owner id.
type scoped struct {
	inner Store
	owner string
}

// Scoped returns a view of s in which every key belongs to owner.
func Scoped(s Store, owner string) Store {
	return &scoped{inner: s, owner: owner}
}

func (s *scoped) Read(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Read(ctx, s.owner+":"+key)
}

func (s *scoped) Write(ctx context.Context, key, value string) error {
	return s.inner.Write(ctx, s.owner+":"+key, value)
}

// ReadJSON decodes the value under key into v. A missing key leaves v
// untouched and reports false.
func ReadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Read(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// WriteJSON encodes v and stores it under key.
func WriteJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.Write(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Open builds the backend selected in cfg. db is only used by the sqlite
// backend and may be nil for the others.
func Open(cfg *config.Config, db *sql.DB) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		if db == nil {
			return nil, fmt.Errorf("sqlite backend requires a database")
		}
		return NewSQLiteStore(db), nil
	case config.BackendFile:
		return NewFileStore(cfg.FileStorePath)
	case config.BackendRedis:
		return NewRedisStore(cfg.RedisURL)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}
