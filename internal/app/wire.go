package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ecochef/internal/config"
	"ecochef/internal/database"
	"ecochef/internal/ghost"
	"ecochef/internal/llm"
	"ecochef/internal/metrics"
	"ecochef/internal/planner"
	"ecochef/internal/storage"

	"go.uber.org/zap"
)

// Runtime is an App wired from configuration together with the resources
// it owns.
type Runtime struct {
	App     *App
	DB      *database.DB
	Usage   *metrics.Store
	Metrics *metrics.Collector

	closers []io.Closer
}

// Wire opens the database, the configured store and the model client, and
// builds an App on top of them.
func Wire(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	rt := &Runtime{Metrics: metrics.NewCollector()}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	rt.DB = db
	rt.closers = append(rt.closers, db)
	rt.Usage = metrics.NewStore(db.SQL)

	store, err := storage.Open(cfg, db.SQL)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	if c, ok := store.(io.Closer); ok {
		rt.closers = append(rt.closers, c)
	}

	textGen, err := llm.NewFromConfig(ctx, cfg, log)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
	}
	if c, ok := textGen.(llm.Closer); ok {
		rt.closers = append(rt.closers, c)
	}

	deps := Deps{
		Planner:  planner.NewPlanner(textGen, log),
		Store:    store,
		Usage:    rt.Usage,
		Metrics:  rt.Metrics,
		Location: cfg.Location,
		Logger:   log,
	}
	if cfg.GhostEnabled() {
		deps.Publisher = ghost.NewClient(cfg)
	}
	rt.App = NewApp(deps)

	log.Info("application wired",
		zap.String("provider", cfg.LLMProvider),
		zap.String("store", cfg.StoreBackend),
		zap.Bool("ghost", cfg.GhostEnabled()),
	)
	return rt, nil
}

// Close releases everything Wire opened, newest first.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
