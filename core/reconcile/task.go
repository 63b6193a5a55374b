package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog-sync/core/batch"
	"catalog-sync/core/catalog"

	"go.uber.org/zap"
)

// processEntity runs match, diff and apply for one source product. Every
// error is turned into a result here; nothing escapes to the worker.
func (r *run) processEntity(ctx context.Context, src catalog.CatalogEntity) SyncResult {
	res := SyncResult{NaturalKey: src.PrimarySKU(), Name: strings.TrimSpace(src.DisplayName)}
	log := r.logger.With(zap.String("sku", res.NaturalKey), zap.String("name", res.Name))

	if res.Name == "" {
		return skipped(res, "missing name")
	}

	match, found := catalog.Match(src, r.cache)
	if !found {
		if !r.opts.Mode.CreatesMissing() {
			return skipped(res, "not found in destination")
		}

		changes, err := r.create(ctx, src)
		res.ChangesApplied = changes
		if err != nil {
			log.Warn("Product creation failed", zap.Error(err))
			return failed(src, err, changes)
		}
		res.Status = StatusCreated
		return res
	}

	res.MatchedBy = match.By
	if !r.opts.Mode.UpdatesExisting() {
		return skipped(res, "already exists")
	}
	if match.By == catalog.MatchedByTitle {
		if r.opts.StrictSKUMatch {
			return skipped(res, "matched by title only")
		}
		log.Info("Product matched by title", zap.String("gid", match.Ref.GID))
	}

	changes, err := r.update(ctx, src, match.Ref)
	res.ChangesApplied = changes
	if err != nil {
		log.Warn("Product update failed", zap.Error(err))
		out := failed(src, err, changes)
		out.MatchedBy = match.By
		return out
	}
	res.Status = StatusUpdated
	return res
}

// create builds a new destination product and sets its stock and media.
func (r *run) create(ctx context.Context, src catalog.CatalogEntity) ([]string, error) {
	if r.opts.DryRun {
		return []string{fmt.Sprintf("would create product with %d variants", len(src.Variants))}, nil
	}

	ref, err := r.dest.CreateProduct(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	changes := []string{fmt.Sprintf("product created with %d variants", len(src.Variants))}

	variants, err := r.dest.Variants(ctx, ref)
	if err != nil {
		return changes, fmt.Errorf("failed to read created variants: %w", err)
	}
	adjustments, err := catalog.ResolveInventory(src, variants)
	if err != nil {
		return changes, err
	}

	var errs []error
	if applied, err := r.setInventory(ctx, adjustments); err != nil {
		errs = append(errs, err)
	} else if applied > 0 {
		changes = append(changes, fmt.Sprintf("inventory set for %d variants", applied))
	}

	if r.opts.Mode.SyncsMedia() {
		media, err := r.source.OrderedImageURLs(ctx, src)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("failed to read source images: %w", err))
		case media.Available && len(media.URLs) > 0:
			added, err := r.addMedia(ctx, ref, src, media.URLs)
			if err != nil {
				errs = append(errs, err)
			}
			if added > 0 {
				changes = append(changes, fmt.Sprintf("%d images added", added))
			}
		}
	}

	return changes, errors.Join(errs...)
}

// update brings an existing destination product in line with src for the
// parts selected by the run mode.
func (r *run) update(ctx context.Context, src catalog.CatalogEntity, ref catalog.DestinationRef) ([]string, error) {
	snap, err := r.dest.Snapshot(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read destination product: %w", err)
	}

	var (
		changes []string
		errs    []error
		media   catalog.MediaSource
	)

	// An unreadable image order leaves media untouched; the rest still syncs.
	if r.opts.Mode.SyncsMedia() {
		media, err = r.source.OrderedImageURLs(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read source images: %w", err))
			media = catalog.MediaSource{}
		}
	}

	cs := catalog.Diff(src, snap, media)
	if r.opts.DryRun {
		return describe(cs, r.opts.Mode), errors.Join(errs...)
	}

	if r.opts.Mode.SyncsDetails() && cs.DetailsChanged {
		if err := r.dest.UpdateDetails(ctx, ref, src); err != nil {
			errs = append(errs, fmt.Errorf("failed to update details: %w", err))
		} else {
			changes = append(changes, "details updated")
		}
	}

	if r.opts.Mode.SyncsStock() {
		c, err := r.syncStock(ctx, src, ref, cs, snap.Variants)
		changes = append(changes, c...)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if r.opts.Mode.SyncsMedia() && media.Available {
		c, err := r.syncMedia(ctx, src, ref, cs, media)
		changes = append(changes, c...)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return changes, errors.Join(errs...)
}

// syncStock creates missing variants and sets on-hand quantities. Every source
// SKU must resolve to a destination inventory item, otherwise the product fails.
func (r *run) syncStock(ctx context.Context, src catalog.CatalogEntity, ref catalog.DestinationRef, cs catalog.ChangeSet, variants []catalog.DestinationVariant) ([]string, error) {
	var changes []string

	if len(cs.NewVariants) > 0 {
		report := batch.Submit(ctx, cs.NewVariants, r.opts.BatchSize, func(ctx context.Context, b []catalog.VariantEntity) error {
			return r.dest.CreateVariants(ctx, ref, b)
		})
		if n := report.Succeeded(); n > 0 {
			changes = append(changes, fmt.Sprintf("%d variants created", n))
		}
		if err := report.Err(); err != nil {
			return changes, fmt.Errorf("failed to create variants: %w", err)
		}

		var err error
		variants, err = r.dest.Variants(ctx, ref)
		if err != nil {
			return changes, fmt.Errorf("failed to read variants: %w", err)
		}
	}

	adjustments, err := catalog.ResolveInventory(src, variants)
	if err != nil {
		return changes, err
	}

	applied, err := r.setInventory(ctx, adjustments)
	if applied > 0 {
		changes = append(changes, fmt.Sprintf("inventory set for %d variants", applied))
	}
	return changes, err
}

func (r *run) setInventory(ctx context.Context, adjustments []catalog.InventoryAdjustment) (int, error) {
	if len(adjustments) == 0 {
		return 0, nil
	}
	report := batch.Submit(ctx, adjustments, r.opts.BatchSize, r.dest.SetInventory)
	if err := report.Err(); err != nil {
		return report.Succeeded(), fmt.Errorf("failed to set inventory: %w", err)
	}
	return report.Succeeded(), nil
}

func (r *run) syncMedia(ctx context.Context, src catalog.CatalogEntity, ref catalog.DestinationRef, cs catalog.ChangeSet, media catalog.MediaSource) ([]string, error) {
	var (
		changes []string
		errs    []error
	)

	if len(cs.MediaToAdd) > 0 {
		added, err := r.addMedia(ctx, ref, src, cs.MediaToAdd)
		if added > 0 {
			changes = append(changes, fmt.Sprintf("%d images added", added))
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(cs.MediaToRemove) > 0 {
		if err := r.dest.RemoveMedia(ctx, ref, cs.MediaToRemove); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove images: %w", err))
		} else {
			changes = append(changes, fmt.Sprintf("%d images removed", len(cs.MediaToRemove)))
		}
	}

	if cs.ReorderMedia {
		current, err := r.dest.Media(ctx, ref)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read images for reorder: %w", err))
		} else if ids := catalog.OrderMedia(media.URLs, current); len(ids) > 1 {
			if err := r.dest.ReorderMedia(ctx, ref, ids); err != nil {
				errs = append(errs, fmt.Errorf("failed to reorder images: %w", err))
			} else {
				changes = append(changes, "image order updated")
			}
		}
	}

	return changes, errors.Join(errs...)
}

func (r *run) addMedia(ctx context.Context, ref catalog.DestinationRef, src catalog.CatalogEntity, urls []string) (int, error) {
	refs := make([]catalog.MediaRef, 0, len(urls))
	for _, u := range urls {
		alt := u
		if r.opts.Mode.TitleAltText() {
			alt = strings.TrimSpace(src.DisplayName)
		}
		refs = append(refs, catalog.MediaRef{URL: u, Alt: alt})
	}

	report := batch.Submit(ctx, refs, MediaBatchSize, func(ctx context.Context, b []catalog.MediaRef) error {
		return r.dest.AddMedia(ctx, ref, b)
	})
	if err := report.Err(); err != nil {
		return report.Succeeded(), fmt.Errorf("failed to add images: %w", err)
	}
	return report.Succeeded(), nil
}

// describe lists what a change set would write under mode.
func describe(cs catalog.ChangeSet, mode Mode) []string {
	var planned []string
	if mode.SyncsDetails() && cs.DetailsChanged {
		planned = append(planned, "would update details")
	}
	if mode.SyncsStock() {
		if n := len(cs.NewVariants); n > 0 {
			planned = append(planned, fmt.Sprintf("would create %d variants", n))
		}
		if n := len(cs.InventoryAdjustments) + len(cs.NewVariants); n > 0 {
			planned = append(planned, fmt.Sprintf("would set inventory for %d variants", n))
		}
	}
	if mode.SyncsMedia() {
		if n := len(cs.MediaToAdd); n > 0 {
			planned = append(planned, fmt.Sprintf("would add %d images", n))
		}
		if n := len(cs.MediaToRemove); n > 0 {
			planned = append(planned, fmt.Sprintf("would remove %d images", n))
		}
		if cs.ReorderMedia {
			planned = append(planned, "would reorder images")
		}
	}
	return planned
}

func skipped(res SyncResult, reason string) SyncResult {
	res.Status = StatusSkipped
	res.ErrorReason = reason
	return res
}

func failed(src catalog.CatalogEntity, err error, changes []string) SyncResult {
	return SyncResult{
		Status:         StatusFailed,
		NaturalKey:     src.PrimarySKU(),
		Name:           strings.TrimSpace(src.DisplayName),
		ChangesApplied: changes,
		ErrorReason:    err.Error(),
	}
}
