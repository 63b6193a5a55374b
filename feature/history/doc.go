// Package history records finished sync runs.
//
// Every run, whether it completed, was cancelled or aborted, is stored as a
// SyncRun row through GORM. Only the newest MaxRuns rows are kept. The
// per-product results of a run are archived as a JSON object
// (reports/<run-id>.json) in object storage when a storage client is
// configured; pruned runs lose their report too.
//
// # Endpoints
//
//   - GET /history lists recent runs, newest first.
//   - GET /history/:id returns one run.
//   - GET /history/:id/report streams the archived report.
package history
