// Package syncjob runs catalog syncs in the background and exposes them over HTTP.
//
// At most one run is active at a time. Every run gets freshly built Source and
// Destination clients with their own rate limiter, so no throttling state
// leaks between runs. Finished runs are handed to the history recorder.
//
// # Endpoints
//
//   - POST /sync/runs starts a run (409 while another is active).
//   - GET /sync/runs/current returns the active or last run.
//   - DELETE /sync/runs/current cancels the active run; in-flight products finish.
//   - POST /sync/sku/:sku syncs one product synchronously.
package syncjob
