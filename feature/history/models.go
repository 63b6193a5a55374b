package history

import (
	"time"

	"catalog-sync/core/reconcile"
)

// MaxRuns is the number of runs kept in history.
const MaxRuns = 50

// RunStatus is the terminal state of a recorded run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
	RunFailed    RunStatus = "failed"
)

// SyncRun is one recorded sync run.
type SyncRun struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Mode       string    `gorm:"size:16" json:"mode"`
	Trigger    string    `gorm:"column:triggered_by;size:16" json:"trigger"`
	Status     RunStatus `gorm:"size:16;index" json:"status"`
	TestMode   bool      `json:"test_mode"`
	DryRun     bool      `json:"dry_run"`
	Workers    int       `json:"workers"`
	StartedAt  time.Time `gorm:"index" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	Total      int       `json:"total"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	ReportKey  string    `gorm:"size:255" json:"report_key,omitempty"`
}

// TableName pins the table name.
func (SyncRun) TableName() string { return "sync_runs" }

// Columns lists the columns the table is expected to have.
func Columns() []string {
	return []string{
		"id", "mode", "triggered_by", "status", "test_mode", "dry_run", "workers",
		"started_at", "finished_at", "duration_ms",
		"total", "created", "updated", "failed", "skipped",
		"error", "report_key",
	}
}

// NewRun builds the record of a finished run. res is nil when the run aborted.
func NewRun(id, trigger string, opts reconcile.RunOptions, started, finished time.Time, res *reconcile.Results, runErr error) SyncRun {
	run := SyncRun{
		ID:         id,
		Mode:       string(opts.Mode),
		Trigger:    trigger,
		Status:     RunCompleted,
		TestMode:   opts.TestMode,
		DryRun:     opts.DryRun,
		Workers:    opts.Workers,
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		DurationMS: finished.Sub(started).Milliseconds(),
	}
	if run.Mode == "" {
		run.Mode = string(reconcile.ModeFull)
	}

	if res != nil {
		run.Total = res.Stats.Total
		run.Created = res.Stats.Created
		run.Updated = res.Stats.Updated
		run.Failed = res.Stats.Failed
		run.Skipped = res.Stats.Skipped
		if res.Cancelled {
			run.Status = RunCancelled
		}
	}
	if runErr != nil {
		run.Status = RunFailed
		run.Error = runErr.Error()
	}
	return run
}
