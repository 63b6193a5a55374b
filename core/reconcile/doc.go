// Package reconcile runs catalog syncs from the inventory source to the storefront.
//
// A run moves through a fixed set of states:
//
//	Initializing -> Caching -> Processing -> Draining -> Done | Error
//
// Initializing loads every source product while the destination catalog is
// paged in concurrently. Caching indexes the destination products into a
// catalog.Cache that stays read-only for the rest of the run. Processing
// hands one task per source product to a bounded worker pool; every task
// matches, diffs and applies its product in isolation and always yields a
// SyncResult, so one bad product cannot stop the others. Cancelling the run
// context moves the run to Draining: nothing new is dispatched and in-flight
// products are finished. Setup failures (either catalog unreadable) end in
// Error with a *FatalError and no results.
//
// # Adapters
//
// The engine talks to the outside through two interfaces. Source yields
// typed catalog entities and the ordered image list of a product.
// Destination exposes single remote reads and writes; the engine batches
// bulk writes itself with the batch package. Both are expected to route
// their calls through a transport.Transport bound to a per-run limiter.
//
// # Modes
//
// The Mode of a run decides whether missing products are created and which
// parts (details, stock, media) of existing products are written. DryRun
// computes change sets and reports what would be written without calling
// any destination mutation.
//
// # Usage
//
//	engine := reconcile.NewEngine(sentosClient, shopifyClient, logger)
//	res, err := engine.Run(ctx, reconcile.RunOptions{Mode: reconcile.ModeFull, Workers: 8}, func(p reconcile.Progress) {
//	    logger.Info(p.Message, zap.Int("percent", p.Percent))
//	})
package reconcile
