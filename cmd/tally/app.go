package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/tally/internal/classification"
	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/config"
	"github.com/Veraticus/tally/internal/engine"
	"github.com/Veraticus/tally/internal/learning"
	"github.com/Veraticus/tally/internal/mapping"
	"github.com/Veraticus/tally/internal/service"
	"github.com/Veraticus/tally/internal/storage"
	"github.com/spf13/viper"
)

// app holds the wired components shared by every command.
type app struct {
	cfg         config.Config
	store       service.Store
	catalog     *classification.Catalog
	mappings    *mapping.Store
	coordinator *learning.Coordinator
	engine      *engine.Engine
}

// openStore opens the configured storage backend.
func openStore(ctx context.Context, cfg config.Config) (service.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		slog.Warn("Using in-memory storage, nothing will be kept after exit")
		return storage.NewMemoryStore(), nil
	case config.BackendRedis:
		store, err := storage.NewRedisStore(ctx, cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return store, nil
	}
}

// newApp wires the engine on top of store and loads all persisted state.
func newApp(ctx context.Context, cfg config.Config, store service.Store, progress service.Progress) (*app, error) {
	catalog, err := classification.NewCatalog(classification.DefaultDefinition(), classification.Options{
		MinInvestmentAmount: cfg.Classification.MinInvestmentAmount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile rule catalog: %w", err)
	}

	mappings := mapping.New(store)
	mappings.Load(ctx)

	coordinator := learning.NewCoordinator(store, learning.Config{
		Special:        catalog,
		MinAssignments: cfg.Learning.MinAssignments,
		FrequencyFloor: cfg.Learning.FrequencyFloor,
		Threshold:      cfg.Classification.LearnedRuleThreshold,
	})
	coordinator.Load(ctx)

	classifier := engine.NewClassifier(catalog, coordinator, mappings)
	eng := engine.New(store, classifier, catalog, coordinator, engine.Config{Progress: progress})
	eng.Load(ctx)

	return &app{
		cfg:         cfg,
		store:       store,
		catalog:     catalog,
		mappings:    mappings,
		coordinator: coordinator,
		engine:      eng,
	}, nil
}

// openApp loads the configuration, opens storage and wires the engine.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a, err := newApp(ctx, cfg, store, cli.NewProgress(os.Stderr))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		common.LogError(err, "Failed to close storage", common.Fields{"backend": a.cfg.Storage.Backend})
	}
}
