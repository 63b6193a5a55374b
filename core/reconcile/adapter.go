package reconcile

import (
	"context"
	"iter"

	"catalog-sync/core/catalog"
)

// Source is the inventory system products are read from.
type Source interface {
	// Products walks the full source catalog.
	Products(ctx context.Context) iter.Seq2[catalog.CatalogEntity, error]
	// OrderedImageURLs returns the authoritative image order of one product.
	// MediaSource.Available is false when the source cannot provide it.
	OrderedImageURLs(ctx context.Context, entity catalog.CatalogEntity) (catalog.MediaSource, error)
}

// Destination is the storefront products are written to. Every method is a
// single remote call; batching is the caller's job.
type Destination interface {
	// Products walks the full destination catalog for indexing.
	Products(ctx context.Context) iter.Seq2[catalog.DestinationProduct, error]
	// Snapshot reads the current state of one product.
	Snapshot(ctx context.Context, ref catalog.DestinationRef) (catalog.Snapshot, error)
	// Variants reads the variants of one product.
	Variants(ctx context.Context, ref catalog.DestinationRef) ([]catalog.DestinationVariant, error)
	// Media reads the media of one product.
	Media(ctx context.Context, ref catalog.DestinationRef) ([]catalog.MediaRef, error)

	// CreateProduct creates a product with all of its variants.
	CreateProduct(ctx context.Context, entity catalog.CatalogEntity) (catalog.DestinationRef, error)
	// UpdateDetails writes title, description and product type.
	UpdateDetails(ctx context.Context, ref catalog.DestinationRef, entity catalog.CatalogEntity) error
	// CreateVariants adds one batch of variants to a product.
	CreateVariants(ctx context.Context, ref catalog.DestinationRef, variants []catalog.VariantEntity) error
	// SetInventory sets absolute on-hand quantities for one batch of items.
	SetInventory(ctx context.Context, adjustments []catalog.InventoryAdjustment) error
	// AddMedia uploads one batch of images.
	AddMedia(ctx context.Context, ref catalog.DestinationRef, media []catalog.MediaRef) error
	// RemoveMedia deletes media by id.
	RemoveMedia(ctx context.Context, ref catalog.DestinationRef, ids []string) error
	// ReorderMedia moves media into the given order.
	ReorderMedia(ctx context.Context, ref catalog.DestinationRef, ids []string) error
}
