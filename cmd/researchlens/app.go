package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/TobiSchelling/researchlens/internal/config"
	"github.com/TobiSchelling/researchlens/internal/database"
	"github.com/TobiSchelling/researchlens/internal/llm"
	"github.com/TobiSchelling/researchlens/internal/metrics"
	"github.com/TobiSchelling/researchlens/internal/research"
	"github.com/TobiSchelling/researchlens/internal/search"
)

var errStorageDisabled = errors.New("storage is disabled (storage.driver: none)")

// openStore opens the configured database. It returns errStorageDisabled
// when the driver is none.
func openStore(ctx context.Context) (*database.DB, error) {
	switch cfg.Storage.Driver {
	case config.DriverNone:
		return nil, errStorageDisabled
	case config.DriverPostgres:
		return database.OpenPostgres(ctx, cfg.DatabaseURL())
	}

	path := cfg.DatabasePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(path)
}

// app holds the components shared by serve, search and mcp.
type app struct {
	db      *database.DB
	agg     *research.Aggregator
	metrics *metrics.Metrics
}

func newApp(ctx context.Context) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{metrics: metrics.New()}

	db, err := openStore(ctx)
	switch {
	case errors.Is(err, errStorageDisabled):
		slog.Info("search history disabled", "driver", cfg.Storage.Driver)
	case err != nil:
		// History is best effort; searching works without it.
		slog.Warn("storage unavailable, continuing without history", "error", err)
	default:
		a.db = db
	}

	searchers, err := search.FromConfig(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("configuring search: %w", err)
	}

	chain, err := llm.NewChain(ctx, cfg.Summarization)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("configuring summarization: %w", err)
	}
	slog.Debug("summarization chain ready", "providers", chain.Name())

	opts := research.Options{
		LookupTimeout:  cfg.Search.LookupTimeout,
		HistoryTimeout: cfg.History.Timeout,
		NewsEnabled:    cfg.Search.News.Enabled,
		UserID:         cfg.History.UserID,
		Observer:       a.metrics,
	}
	if a.db != nil && cfg.History.Enabled {
		opts.Recorder = database.NewRecorder(a.db)
	}
	a.agg = research.NewAggregator(searchers, chain, opts)
	return a, nil
}

// Close waits for pending history writes and closes the database.
func (a *app) Close() {
	if a.agg != nil {
		a.agg.Wait()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) driver() string {
	if a.db == nil {
		return config.DriverNone
	}
	return a.db.Dialect().String()
}
