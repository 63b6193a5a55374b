package cmd

import (
	"context"
	"fmt"
	"time"

	"catalog-sync/core/config"
	"catalog-sync/core/database"
	"catalog-sync/core/logger"
	"catalog-sync/core/storage"
	"catalog-sync/feature/history"
	"catalog-sync/feature/syncjob"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime holds what every command needs.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	history *history.Service
}

// bootstrap loads configuration and the logger, then connects the optional
// history database and report archive. Failures of the optional parts are
// logged and leave history disabled.
func bootstrap() (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt := &runtime{cfg: cfg, log: logg}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logg.Warn("History database unavailable, runs will not be recorded", zap.Error(err))
		return rt, nil
	}
	rt.db = db

	store := history.NewStore(db)
	if err := store.Migrate(); err != nil {
		logg.Warn("History disabled", zap.Error(err))
		return rt, nil
	}

	rt.history = history.NewService(store, newArchive(cfg.Storage, logg), logg)
	return rt, nil
}

func newArchive(cfg storage.Config, logg *zap.Logger) *history.Archive {
	if !cfg.Enabled {
		return nil
	}

	client, err := storage.NewClient(cfg)
	if err != nil {
		logg.Warn("Report archive disabled", zap.Error(err))
		return nil
	}

	archive := history.NewArchive(client, cfg.Bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.EnsureBucket(ctx); err != nil {
		logg.Warn("Report archive disabled", zap.Error(err))
		return nil
	}
	return archive
}

// newJobService builds the job service with the configured defaults. The
// history service is passed only when it exists.
func (rt *runtime) newJobService() (*syncjob.Service, error) {
	defaults, err := rt.cfg.Sync.Options()
	if err != nil {
		return nil, fmt.Errorf("invalid sync config: %w", err)
	}

	var recorder syncjob.Recorder
	if rt.history != nil {
		recorder = rt.history
	}
	return syncjob.NewService(syncjob.NewFactory(rt.cfg.Clients(), rt.log), recorder, defaults, rt.log), nil
}
