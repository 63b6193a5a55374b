package syncjob

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"catalog-sync/core/catalog"
	"catalog-sync/core/reconcile"
	"catalog-sync/feature/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	mock.Mock
	run func(ctx context.Context, opts reconcile.RunOptions, onProgress reconcile.ProgressFunc) (*reconcile.Results, error)

	mu   sync.Mutex
	opts []reconcile.RunOptions
}

func (f *fakeRunner) Run(ctx context.Context, opts reconcile.RunOptions, onProgress reconcile.ProgressFunc) (*reconcile.Results, error) {
	f.mu.Lock()
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	return f.run(ctx, opts, onProgress)
}

func (f *fakeRunner) lastOptions() reconcile.RunOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts[len(f.opts)-1]
}

func (f *fakeRunner) SyncOne(ctx context.Context, entity catalog.CatalogEntity, opts reconcile.RunOptions) (reconcile.SyncResult, error) {
	args := f.Called(ctx, entity, opts)
	return args.Get(0).(reconcile.SyncResult), args.Error(1)
}

func (f *fakeRunner) ProductBySKU(ctx context.Context, sku string) (catalog.CatalogEntity, error) {
	args := f.Called(ctx, sku)
	return args.Get(0).(catalog.CatalogEntity), args.Error(1)
}

type fakeRecorder struct {
	mock.Mock
}

func (f *fakeRecorder) Record(ctx context.Context, run history.SyncRun, res *reconcile.Results) error {
	return f.Called(ctx, run, res).Error(0)
}

func completed(ctx context.Context, opts reconcile.RunOptions, onProgress reconcile.ProgressFunc) (*reconcile.Results, error) {
	onProgress(reconcile.Progress{State: reconcile.StateProcessing, Percent: 55})
	stats := reconcile.SyncStats{Total: 2, Created: 2, Processed: 2}
	onProgress(reconcile.Progress{State: reconcile.StateDone, Percent: 100, Stats: stats})
	return &reconcile.Results{Stats: stats}, nil
}

// blocking runs until release is closed or the run is cancelled.
func blocking(release <-chan struct{}) func(context.Context, reconcile.RunOptions, reconcile.ProgressFunc) (*reconcile.Results, error) {
	return func(ctx context.Context, _ reconcile.RunOptions, onProgress reconcile.ProgressFunc) (*reconcile.Results, error) {
		onProgress(reconcile.Progress{State: reconcile.StateProcessing, Percent: 60})
		select {
		case <-release:
			return &reconcile.Results{}, nil
		case <-ctx.Done():
			onProgress(reconcile.Progress{State: reconcile.StateDone, Percent: 100, Message: "Sync cancelled"})
			return &reconcile.Results{Cancelled: true}, nil
		}
	}
}

func newTestService(runner *fakeRunner, recorder Recorder) *Service {
	factory := func() (Runner, error) { return runner, nil }
	return NewService(factory, recorder, reconcile.RunOptions{Mode: reconcile.ModeFull, Workers: 4}, zap.NewNop())
}

func waitFor(t *testing.T, svc *Service) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := svc.Wait(ctx)
	require.NoError(t, err)
	return snap
}

func TestService_StartRunsAndRecords(t *testing.T) {
	runner := &fakeRunner{run: completed}
	recorder := new(fakeRecorder)
	recorder.On("Record", mock.Anything, mock.MatchedBy(func(r history.SyncRun) bool {
		return r.Status == history.RunCompleted && r.Trigger == TriggerAPI && r.Created == 2 && r.Mode == "stock"
	}), mock.Anything).Return(nil).Once()

	svc := newTestService(runner, recorder)
	started, err := svc.Start(reconcile.RunOptions{Mode: reconcile.ModeStock}, TriggerAPI)
	require.NoError(t, err)
	assert.NotEmpty(t, started.ID)
	assert.Equal(t, reconcile.DefaultWorkers, started.Options.Workers)

	snap := waitFor(t, svc)
	assert.Equal(t, started.ID, snap.ID)
	assert.False(t, snap.Running)
	assert.NotNil(t, snap.FinishedAt)
	assert.Equal(t, reconcile.StateDone, snap.Progress.State)
	assert.Equal(t, 2, snap.Progress.Stats.Created)

	res, err := svc.Results()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Total)
	recorder.AssertExpectations(t)
}

func TestService_RejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	runner := &fakeRunner{run: blocking(release)}
	svc := newTestService(runner, nil)

	_, err := svc.Start(reconcile.RunOptions{}, TriggerAPI)
	require.NoError(t, err)

	_, err = svc.Start(reconcile.RunOptions{}, TriggerAPI)
	assert.ErrorIs(t, err, ErrRunInProgress)

	_, err = svc.SyncSKU(context.Background(), "ABC-1", reconcile.RunOptions{})
	assert.ErrorIs(t, err, ErrRunInProgress)

	_, err = svc.Results()
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	waitFor(t, svc)

	_, err = svc.Start(reconcile.RunOptions{}, TriggerCLI)
	require.NoError(t, err)
	waitFor(t, svc)
}

func TestService_Cancel(t *testing.T) {
	runner := &fakeRunner{run: blocking(make(chan struct{}))}
	recorder := new(fakeRecorder)
	recorder.On("Record", mock.Anything, mock.MatchedBy(func(r history.SyncRun) bool {
		return r.Status == history.RunCancelled
	}), mock.Anything).Return(nil).Once()
	svc := newTestService(runner, recorder)

	_, err := svc.Cancel()
	assert.ErrorIs(t, err, ErrNotRunning)

	_, err = svc.Start(reconcile.RunOptions{}, TriggerAPI)
	require.NoError(t, err)

	snap, err := svc.Cancel()
	require.NoError(t, err)
	assert.True(t, snap.Cancelled)

	snap = waitFor(t, svc)
	assert.True(t, snap.Cancelled)
	assert.Equal(t, "Sync cancelled", snap.Progress.Message)

	_, err = svc.Cancel()
	assert.ErrorIs(t, err, ErrNotRunning)
	recorder.AssertExpectations(t)
}

func TestService_FatalErrorIsRecorded(t *testing.T) {
	fatal := &reconcile.FatalError{Stage: "loading source products", Err: errors.New("401 unauthorized")}
	runner := &fakeRunner{run: func(context.Context, reconcile.RunOptions, reconcile.ProgressFunc) (*reconcile.Results, error) {
		return nil, fatal
	}}
	recorder := new(fakeRecorder)
	recorder.On("Record", mock.Anything, mock.MatchedBy(func(r history.SyncRun) bool {
		return r.Status == history.RunFailed && r.Error == fatal.Error()
	}), (*reconcile.Results)(nil)).Return(errors.New("database is locked")).Once()

	svc := newTestService(runner, recorder)
	_, err := svc.Start(reconcile.RunOptions{}, TriggerAPI)
	require.NoError(t, err)

	snap := waitFor(t, svc)
	assert.Equal(t, fatal.Error(), snap.Error)

	_, err = svc.Results()
	assert.ErrorIs(t, err, fatal)
	recorder.AssertExpectations(t)
}

func TestService_FactoryError(t *testing.T) {
	svc := NewService(func() (Runner, error) {
		return nil, errors.New("invalid shopify config: store_url is required")
	}, nil, reconcile.RunOptions{}, nil)

	_, err := svc.Start(reconcile.RunOptions{}, TriggerAPI)
	assert.EqualError(t, err, "failed to prepare sync clients: invalid shopify config: store_url is required")

	_, err = svc.Current()
	assert.ErrorIs(t, err, ErrNoRun)
	_, err = svc.Wait(context.Background())
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestService_SyncSKU(t *testing.T) {
	runner := &fakeRunner{}
	entity := catalog.CatalogEntity{ID: "7", NaturalKey: "ABC-1", DisplayName: "Shirt"}
	opts := reconcile.RunOptions{Mode: reconcile.ModeStock}

	runner.On("ProductBySKU", mock.Anything, "ABC-1").Return(entity, nil)
	runner.On("SyncOne", mock.Anything, entity, opts).
		Return(reconcile.SyncResult{Status: reconcile.StatusUpdated, NaturalKey: "ABC-1"}, nil)

	svc := newTestService(runner, nil)
	res, err := svc.SyncSKU(context.Background(), "ABC-1", opts)
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatusUpdated, res.Status)
	runner.AssertExpectations(t)
}

func TestService_SyncSKUBlocksOtherSyncs(t *testing.T) {
	runner := &fakeRunner{run: completed}
	entity := catalog.CatalogEntity{ID: "7", NaturalKey: "ABC-1", DisplayName: "Shirt"}
	opts := reconcile.RunOptions{Mode: reconcile.ModeStock}

	started, release := make(chan struct{}), make(chan struct{})
	runner.On("ProductBySKU", mock.Anything, "ABC-1").Return(entity, nil)
	runner.On("SyncOne", mock.Anything, entity, opts).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(reconcile.SyncResult{Status: reconcile.StatusUpdated, NaturalKey: "ABC-1"}, nil).Once()

	svc := newTestService(runner, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.SyncSKU(context.Background(), "ABC-1", opts)
		done <- err
	}()
	<-started

	_, err := svc.Start(reconcile.RunOptions{}, TriggerAPI)
	assert.ErrorIs(t, err, ErrRunInProgress)

	_, err = svc.SyncSKU(context.Background(), "ABC-1", opts)
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	require.NoError(t, <-done)

	_, err = svc.Start(reconcile.RunOptions{}, TriggerAPI)
	require.NoError(t, err)
	waitFor(t, svc)
	runner.AssertExpectations(t)
}
