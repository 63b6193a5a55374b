package history

import (
	"context"
	"errors"
	"fmt"
	"io"

	"catalog-sync/core/reconcile"

	"go.uber.org/zap"
)

// ErrNoReport is returned when a run has no archived report.
var ErrNoReport = errors.New("run has no archived report")

// Service records runs and serves them back.
type Service struct {
	store   *Store
	archive *Archive
	logger  *zap.Logger
}

// NewService creates a history service. archive may be nil, in which case
// reports are not kept.
func NewService(store *Store, archive *Archive, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, archive: archive, logger: logger}
}

// Record stores a finished run. A report upload failure is logged and the
// run is saved without a report.
func (s *Service) Record(ctx context.Context, run SyncRun, res *reconcile.Results) error {
	if s.archive != nil && res != nil && len(res.Results) > 0 {
		key, err := s.archive.Put(ctx, run.ID, res)
		if err != nil {
			s.logger.Warn("Failed to archive run report", zap.String("run_id", run.ID), zap.Error(err))
		} else {
			run.ReportKey = key
		}
	}

	pruned, err := s.store.Save(ctx, &run)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	s.logger.Info("Run recorded",
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int("pruned", len(pruned)))

	if s.archive == nil {
		return nil
	}
	var keys []string
	for _, p := range pruned {
		if p.ReportKey != "" {
			keys = append(keys, p.ReportKey)
		}
	}
	if err := s.archive.Remove(ctx, keys); err != nil {
		s.logger.Warn("Failed to remove pruned reports", zap.Error(err))
	}
	return nil
}

// List returns recent runs, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]SyncRun, error) {
	return s.store.List(ctx, limit)
}

// Get returns one run.
func (s *Service) Get(ctx context.Context, id string) (*SyncRun, error) {
	return s.store.Get(ctx, id)
}

// Report opens the archived report of a run.
func (s *Service) Report(ctx context.Context, id string) (io.ReadCloser, error) {
	run, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.ReportKey == "" || s.archive == nil {
		return nil, ErrNoReport
	}
	return s.archive.Open(ctx, run.ReportKey)
}
