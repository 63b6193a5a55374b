package syncjob

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog-sync/core/catalog"
	"catalog-sync/core/reconcile"
	"catalog-sync/feature/sentos"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestApp(runner *fakeRunner) (*fiber.App, *Service) {
	svc := newTestService(runner, nil)
	app := fiber.New()
	_ = NewFeature(svc).Load(app)
	return app, svc
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 2000)
	require.NoError(t, err)

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp.StatusCode, out
}

func TestHandleStart(t *testing.T) {
	runner := &fakeRunner{run: completed}
	app, svc := setupTestApp(runner)

	status, body := do(t, app, "POST", "/sync/runs", `{"mode":"media_seo","workers":3,"test_mode":true}`)
	assert.Equal(t, 202, status)
	assert.NotEmpty(t, body["id"])
	waitFor(t, svc)

	opts := runner.lastOptions()
	assert.Equal(t, reconcile.ModeMediaSEO, opts.Mode)
	assert.Equal(t, 3, opts.Workers)
	assert.True(t, opts.TestMode)
	assert.False(t, opts.DryRun)

	status, _ = do(t, app, "POST", "/sync/runs", "")
	assert.Equal(t, 202, status)
	waitFor(t, svc)
	assert.Equal(t, reconcile.ModeFull, runner.lastOptions().Mode)
}

func TestHandleStart_BadRequest(t *testing.T) {
	app, _ := setupTestApp(&fakeRunner{run: completed})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"Unknown Mode", `{"mode":"everything"}`, `unknown sync mode "everything"`},
		{"Too Many Workers", `{"workers":11}`, "workers must be between 1 and 10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, "POST", "/sync/runs", tt.body)
			assert.Equal(t, 400, status)
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

func TestHandleStart_Conflict(t *testing.T) {
	release := make(chan struct{})
	app, svc := setupTestApp(&fakeRunner{run: blocking(release)})

	status, _ := do(t, app, "POST", "/sync/runs", "")
	require.Equal(t, 202, status)

	status, body := do(t, app, "POST", "/sync/runs", "")
	assert.Equal(t, 409, status)
	assert.Equal(t, ErrRunInProgress.Error(), body["error"])

	status, body = do(t, app, "GET", "/sync/runs/current", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["running"])

	close(release)
	waitFor(t, svc)
}

func TestHandleCurrentAndCancel(t *testing.T) {
	app, svc := setupTestApp(&fakeRunner{run: blocking(make(chan struct{}))})

	status, _ := do(t, app, "GET", "/sync/runs/current", "")
	assert.Equal(t, 404, status)
	status, _ = do(t, app, "DELETE", "/sync/runs/current", "")
	assert.Equal(t, 404, status)

	status, _ = do(t, app, "POST", "/sync/runs", "")
	require.Equal(t, 202, status)

	status, body := do(t, app, "DELETE", "/sync/runs/current", "")
	assert.Equal(t, 202, status)
	assert.Equal(t, true, body["cancelled"])

	waitFor(t, svc)
	status, body = do(t, app, "GET", "/sync/runs/current", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, false, body["running"])
	assert.Equal(t, true, body["cancelled"])
}

func TestHandleSyncSKU(t *testing.T) {
	runner := &fakeRunner{}
	entity := catalog.CatalogEntity{ID: "7", NaturalKey: "ABC-1"}
	runner.On("ProductBySKU", mock.Anything, "ABC-1").Return(entity, nil)
	runner.On("ProductBySKU", mock.Anything, "NOPE").
		Return(catalog.CatalogEntity{}, fmt.Errorf("sku NOPE: %w", sentos.ErrProductNotFound))
	runner.On("SyncOne", mock.Anything, entity, mock.MatchedBy(func(o reconcile.RunOptions) bool {
		return o.Mode == reconcile.ModeDetails
	})).Return(reconcile.SyncResult{
		Status:         reconcile.StatusUpdated,
		NaturalKey:     "ABC-1",
		ChangesApplied: []string{"details updated"},
	}, nil)

	app, _ := setupTestApp(runner)

	status, body := do(t, app, "POST", "/sync/sku/ABC-1", `{"mode":"details"}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, "updated", body["status"])
	assert.Equal(t, []any{"details updated"}, body["changes_applied"])

	status, body = do(t, app, "POST", "/sync/sku/NOPE", `{"mode":"details"}`)
	assert.Equal(t, 404, status)
	assert.Equal(t, "sku NOPE: product not found in sentos", body["error"])
}

func TestRunRequest_Apply(t *testing.T) {
	yes := true
	defaults := reconcile.RunOptions{Mode: reconcile.ModeFull, Workers: 4, BatchSize: 50}

	opts, err := RunRequest{}.Apply(defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, opts)

	opts, err = RunRequest{Mode: "Missing", Workers: 10, DryRun: &yes, StrictSKUMatch: &yes}.Apply(defaults)
	require.NoError(t, err)
	assert.Equal(t, reconcile.RunOptions{
		Mode:           reconcile.ModeMissing,
		Workers:        10,
		BatchSize:      50,
		DryRun:         true,
		StrictSKUMatch: true,
	}, opts)

	_, err = RunRequest{Workers: -1}.Apply(defaults)
	assert.Error(t, err)
}
