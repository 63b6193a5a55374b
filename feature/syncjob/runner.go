package syncjob

import (
	"context"
	"fmt"

	"catalog-sync/core/catalog"
	"catalog-sync/core/ratelimit"
	"catalog-sync/core/reconcile"
	"catalog-sync/core/transport"
	"catalog-sync/feature/sentos"
	"catalog-sync/feature/shopify"

	"go.uber.org/zap"
)

// Runner executes syncs against one pair of clients.
type Runner interface {
	Run(ctx context.Context, opts reconcile.RunOptions, onProgress reconcile.ProgressFunc) (*reconcile.Results, error)
	SyncOne(ctx context.Context, entity catalog.CatalogEntity, opts reconcile.RunOptions) (reconcile.SyncResult, error)
	ProductBySKU(ctx context.Context, sku string) (catalog.CatalogEntity, error)
}

// Factory builds a Runner for one run.
type Factory func() (Runner, error)

// Clients holds the settings needed to build the remote clients.
type Clients struct {
	Sentos    sentos.Config
	Shopify   shopify.Config
	RateLimit ratelimit.Config
	Transport transport.Config
}

type engineRunner struct {
	*reconcile.Engine
	source *sentos.Client
}

func (r engineRunner) ProductBySKU(ctx context.Context, sku string) (catalog.CatalogEntity, error) {
	return r.source.ProductBySKU(ctx, sku)
}

// NewFactory returns a factory that validates the settings and builds new
// clients on every call. Only the destination is rate limited.
func NewFactory(cfg Clients, logger *zap.Logger) Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func() (Runner, error) {
		if err := cfg.Sentos.Validate(); err != nil {
			return nil, fmt.Errorf("invalid sentos config: %w", err)
		}
		if err := cfg.Shopify.Validate(); err != nil {
			return nil, fmt.Errorf("invalid shopify config: %w", err)
		}

		limiter := ratelimit.New(cfg.RateLimit)
		source := sentos.NewClient(cfg.Sentos, transport.New(cfg.Transport, nil, logger), logger)
		dest := shopify.NewClient(cfg.Shopify, transport.New(cfg.Transport, limiter, logger), logger)

		return engineRunner{Engine: reconcile.NewEngine(source, dest, logger), source: source}, nil
	}
}
