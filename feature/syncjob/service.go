package syncjob

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"catalog-sync/core/reconcile"
	"catalog-sync/feature/history"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrRunInProgress is returned when a run is started while another is active.
	ErrRunInProgress = errors.New("a sync run is already in progress")
	// ErrNoRun is returned when no run has been started yet.
	ErrNoRun = errors.New("no sync run has been started")
	// ErrNotRunning is returned when cancelling without an active run.
	ErrNotRunning = errors.New("no sync run is active")
)

// Trigger names where a run was started from.
const (
	TriggerAPI = "api"
	TriggerCLI = "cli"
)

// Recorder stores finished runs.
type Recorder interface {
	Record(ctx context.Context, run history.SyncRun, res *reconcile.Results) error
}

// Snapshot is the externally visible state of a run.
type Snapshot struct {
	ID         string             `json:"id"`
	Trigger    string             `json:"trigger"`
	Options    OptionsView        `json:"options"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
	Running    bool               `json:"running"`
	Cancelled  bool               `json:"cancelled"`
	Progress   reconcile.Progress `json:"progress"`
	Error      string             `json:"error,omitempty"`
}

// OptionsView is the JSON form of the run options.
type OptionsView struct {
	Mode           reconcile.Mode `json:"mode"`
	Workers        int            `json:"workers"`
	TestMode       bool           `json:"test_mode"`
	DryRun         bool           `json:"dry_run"`
	StrictSKUMatch bool           `json:"strict_sku_match"`
}

type job struct {
	id        string
	trigger   string
	opts      reconcile.RunOptions
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	mu         sync.Mutex
	progress   reconcile.Progress
	finishedAt time.Time
	results    *reconcile.Results
	err        error
	cancelled  bool
}

func (j *job) update(p reconcile.Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress = p
}

func (j *job) finish(at time.Time, res *reconcile.Results, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finishedAt = at
	j.results = res
	j.err = err
}

func (j *job) running() bool {
	select {
	case <-j.done:
		return false
	default:
		return true
	}
}

func (j *job) snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := Snapshot{
		ID:        j.id,
		Trigger:   j.trigger,
		StartedAt: j.startedAt,
		Running:   j.finishedAt.IsZero(),
		Cancelled: j.cancelled,
		Progress:  j.progress,
		Options: OptionsView{
			Mode:           j.opts.Mode,
			Workers:        j.opts.Workers,
			TestMode:       j.opts.TestMode,
			DryRun:         j.opts.DryRun,
			StrictSKUMatch: j.opts.StrictSKUMatch,
		},
	}
	if !j.finishedAt.IsZero() {
		at := j.finishedAt
		s.FinishedAt = &at
	}
	if j.results != nil && j.results.Cancelled {
		s.Cancelled = true
	}
	if j.err != nil {
		s.Error = j.err.Error()
	}
	return s
}

// Service owns the active run.
type Service struct {
	factory  Factory
	recorder Recorder
	defaults reconcile.RunOptions
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	current *job
	// single is set while a single-product sync runs.
	single bool
}

// NewService creates a job service. recorder may be nil.
func NewService(factory Factory, recorder Recorder, defaults reconcile.RunOptions, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		factory:  factory,
		recorder: recorder,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
}

// Defaults returns the configured run options.
func (s *Service) Defaults() reconcile.RunOptions {
	return s.defaults
}

// Start launches a run in the background.
func (s *Service) Start(opts reconcile.RunOptions, trigger string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.single || (s.current != nil && s.current.running()) {
		return Snapshot{}, ErrRunInProgress
	}

	runner, err := s.factory()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to prepare sync clients: %w", err)
	}

	if opts.Mode == "" {
		opts.Mode = reconcile.ModeFull
	}
	if opts.Workers <= 0 {
		opts.Workers = reconcile.DefaultWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		id:        uuid.NewString(),
		trigger:   trigger,
		opts:      opts,
		startedAt: s.now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		progress:  reconcile.Progress{State: reconcile.StateInitializing},
	}
	s.current = j

	s.logger.Info("Sync run started",
		zap.String("run_id", j.id),
		zap.String("trigger", trigger),
		zap.String("mode", string(opts.Mode)),
		zap.Int("workers", opts.Workers),
		zap.Bool("test_mode", opts.TestMode),
		zap.Bool("dry_run", opts.DryRun))

	go s.execute(ctx, j, runner)
	return j.snapshot(), nil
}

func (s *Service) execute(ctx context.Context, j *job, runner Runner) {
	defer close(j.done)
	defer j.cancel()

	res, err := runner.Run(ctx, j.opts, j.update)
	finished := s.now()
	j.finish(finished, res, err)

	l := s.logger.With(zap.String("run_id", j.id))
	if err != nil {
		l.Error("Sync run failed", zap.Error(err))
	}

	if s.recorder == nil {
		return
	}
	run := history.NewRun(j.id, j.trigger, j.opts, j.startedAt, finished, res, err)
	if err := s.recorder.Record(context.Background(), run, res); err != nil {
		l.Warn("Failed to record run in history", zap.Error(err))
	}
}

// Current returns the active run, or the last one when none is active.
func (s *Service) Current() (Snapshot, error) {
	s.mu.Lock()
	j := s.current
	s.mu.Unlock()

	if j == nil {
		return Snapshot{}, ErrNoRun
	}
	return j.snapshot(), nil
}

// Cancel stops dispatching new products. Products already being processed
// are finished; the run then completes as cancelled.
func (s *Service) Cancel() (Snapshot, error) {
	s.mu.Lock()
	j := s.current
	s.mu.Unlock()

	if j == nil || !j.running() {
		return Snapshot{}, ErrNotRunning
	}

	j.mu.Lock()
	j.cancelled = true
	j.mu.Unlock()
	j.cancel()

	s.logger.Info("Sync run cancellation requested", zap.String("run_id", j.id))
	return j.snapshot(), nil
}

// Wait blocks until the current run finishes or ctx is done.
func (s *Service) Wait(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	j := s.current
	s.mu.Unlock()

	if j == nil {
		return Snapshot{}, ErrNoRun
	}
	select {
	case <-j.done:
		return j.snapshot(), nil
	case <-ctx.Done():
		return j.snapshot(), ctx.Err()
	}
}

// Results returns the final results of the current run once it has finished.
func (s *Service) Results() (*reconcile.Results, error) {
	s.mu.Lock()
	j := s.current
	s.mu.Unlock()

	if j == nil {
		return nil, ErrNoRun
	}
	if j.running() {
		return nil, ErrRunInProgress
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.results, j.err
}

// SyncSKU looks up one product at the source and syncs it. It is refused
// while any other sync is active, and a full run cannot start until it ends.
func (s *Service) SyncSKU(ctx context.Context, sku string, opts reconcile.RunOptions) (reconcile.SyncResult, error) {
	s.mu.Lock()
	if s.single || (s.current != nil && s.current.running()) {
		s.mu.Unlock()
		return reconcile.SyncResult{}, ErrRunInProgress
	}
	s.single = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.single = false
		s.mu.Unlock()
	}()

	runner, err := s.factory()
	if err != nil {
		return reconcile.SyncResult{}, fmt.Errorf("failed to prepare sync clients: %w", err)
	}

	entity, err := runner.ProductBySKU(ctx, sku)
	if err != nil {
		return reconcile.SyncResult{}, err
	}

	res, err := runner.SyncOne(ctx, entity, opts)
	if err != nil {
		return reconcile.SyncResult{}, err
	}
	s.logger.Info("Single product synced",
		zap.String("sku", sku),
		zap.String("status", string(res.Status)),
		zap.Strings("changes", res.ChangesApplied))
	return res, nil
}
