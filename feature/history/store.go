package history

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Store persists runs through GORM.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store. Call Migrate before first use.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the sync_runs table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&SyncRun{}); err != nil {
		return fmt.Errorf("failed to migrate history table: %w", err)
	}
	return nil
}

// Save inserts the run and prunes history down to MaxRuns. It returns the
// pruned runs so their reports can be removed.
func (s *Store) Save(ctx context.Context, run *SyncRun) ([]SyncRun, error) {
	db := s.db.WithContext(ctx)
	if err := db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	var all []SyncRun
	if err := db.Select("id", "report_key").Order("started_at DESC").Order("id DESC").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs for pruning: %w", err)
	}
	if len(all) <= MaxRuns {
		return nil, nil
	}

	pruned := all[MaxRuns:]
	ids := make([]string, 0, len(pruned))
	for _, r := range pruned {
		ids = append(ids, r.ID)
	}
	if err := db.Where("id IN ?", ids).Delete(&SyncRun{}).Error; err != nil {
		return nil, fmt.Errorf("failed to prune runs: %w", err)
	}
	return pruned, nil
}

// List returns up to limit runs, newest first. limit is clamped to 1..MaxRuns.
func (s *Store) List(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 || limit > MaxRuns {
		limit = MaxRuns
	}

	var runs []SyncRun
	err := s.db.WithContext(ctx).Order("started_at DESC").Order("id DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Get returns one run.
func (s *Store) Get(ctx context.Context, id string) (*SyncRun, error) {
	var run SyncRun
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &run, nil
}
