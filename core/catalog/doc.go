// Package catalog holds the typed catalog model shared by both sides of a sync
// and the pure logic that compares them.
//
// # Entities
//
// CatalogEntity and VariantEntity are produced only by the source parse step;
// internal code never sees raw API maps. Destination state is described by
// DestinationProduct (for indexing) and Snapshot (for diffing one product).
//
// # Cache and matching
//
// BuildCache walks the destination catalog once and indexes every variant SKU
// under "sku:<sku>" and every title under "title:<title>". Duplicate keys keep
// the last product seen. The cache is never written after BuildCache returns,
// so lookups from many workers need no locking.
//
// Match resolves a source entity by SKU first and falls back to title. The
// returned MatchResult records which key matched so callers can treat title
// matches as lower confidence.
//
// # Change sets
//
// Diff compares a source entity with a destination snapshot and produces the
// minimal ChangeSet: details update, new variants, inventory "set"
// adjustments for every matched SKU, and media additions, removals and
// reordering.
package catalog
