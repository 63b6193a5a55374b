package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catalog-sync/core/catalog"
	"catalog-sync/core/paginate"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine runs catalog syncs from a Source to a Destination.
type Engine struct {
	source Source
	dest   Destination
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates an engine. The source and destination are expected to be
// built for this run, each with its own rate limiter.
func NewEngine(source Source, dest Destination, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{source: source, dest: dest, logger: logger, now: time.Now}
}

// run carries the per-run state shared by the dispatcher, workers and collector.
type run struct {
	*Engine
	opts       RunOptions
	onProgress ProgressFunc
	stats      *statsTracker
	cache      *catalog.Cache
}

// Run performs a complete sync. Cancelling ctx stops dispatching new products;
// products already handed to a worker are finished. A *FatalError is returned
// when either catalog cannot be loaded.
func (e *Engine) Run(ctx context.Context, opts RunOptions, onProgress ProgressFunc) (*Results, error) {
	start := e.now()
	r := &run{
		Engine:     e,
		opts:       opts.normalized(),
		onProgress: onProgress,
		stats:      newStatsTracker(start),
	}

	r.emit(StateInitializing, "Loading source products and destination catalog")
	products, destProducts, err := r.load(ctx)
	if err != nil {
		r.emit(StateError, err.Error())
		return nil, err
	}

	r.emit(StateCaching, fmt.Sprintf("Indexing %d destination products", len(destProducts)))
	r.cache = catalog.NewCache(destProducts...)
	r.logger.Info("Catalog cache built",
		zap.Int("products", r.cache.Products()),
		zap.Int("keys", r.cache.Len()),
		zap.Int("source_products", len(products)))

	r.stats.setTotal(len(products))
	r.emit(StateProcessing, fmt.Sprintf("Processing %d products with %d workers", len(products), r.opts.Workers))

	results, cancelled := r.process(ctx, products)

	res := &Results{
		Stats:     r.stats.snapshot(),
		Results:   results,
		Duration:  e.now().Sub(start),
		Cancelled: cancelled,
	}

	message := "Sync completed"
	if cancelled {
		message = "Sync cancelled"
	}
	r.emit(StateDone, message)
	r.logger.Info(message,
		zap.String("mode", string(r.opts.Mode)),
		zap.Int("total", res.Stats.Total),
		zap.Int("created", res.Stats.Created),
		zap.Int("updated", res.Stats.Updated),
		zap.Int("failed", res.Stats.Failed),
		zap.Int("skipped", res.Stats.Skipped),
		zap.Duration("duration", res.Duration))

	return res, nil
}

// SyncOne syncs a single source entity against a freshly built cache.
func (e *Engine) SyncOne(ctx context.Context, entity catalog.CatalogEntity, opts RunOptions) (SyncResult, error) {
	cache, err := catalog.BuildCache(e.dest.Products(ctx))
	if err != nil {
		return SyncResult{}, &FatalError{Stage: "caching", Err: err}
	}

	r := &run{Engine: e, opts: opts.normalized(), stats: newStatsTracker(e.now()), cache: cache}
	return r.safeProcess(ctx, entity), nil
}

// load reads both catalogs concurrently.
func (r *run) load(ctx context.Context) ([]catalog.CatalogEntity, []catalog.DestinationProduct, error) {
	var (
		products     []catalog.CatalogEntity
		destProducts []catalog.DestinationProduct
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for p, err := range r.source.Products(gctx) {
			if err != nil {
				return &FatalError{Stage: "loading source products", Err: err}
			}
			products = append(products, p)
			if r.opts.TestMode && len(products) >= TestModeLimit {
				break
			}
		}
		return nil
	})

	g.Go(func() error {
		var err error
		destProducts, err = paginate.Collect(r.dest.Products(gctx))
		if err != nil {
			return &FatalError{Stage: "loading destination catalog", Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return products, destProducts, nil
}

type task struct {
	index  int
	entity catalog.CatalogEntity
}

type taskResult struct {
	index  int
	result SyncResult
}

// process fans products out to the worker pool and collects results in
// source order. It reports whether the run was cancelled.
func (r *run) process(ctx context.Context, products []catalog.CatalogEntity) ([]SyncResult, bool) {
	tasks := make(chan task)
	out := make(chan taskResult, r.opts.Workers)

	// Dispatched work must not be interrupted half-way through a product.
	taskCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				out <- taskResult{index: t.index, result: r.safeProcess(taskCtx, t.entity)}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for i, p := range products {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case tasks <- task{index: i, entity: p}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	resolved := make([]*SyncResult, len(products))
	done := ctx.Done()
	cancelled := false
	state := StateProcessing

	for {
		select {
		case tr, ok := <-out:
			if !ok {
				results := compact(resolved)
				return results, (cancelled || ctx.Err() != nil) && len(results) < len(products)
			}
			res := tr.result
			resolved[tr.index] = &res
			stats := r.stats.record(res)
			r.emit(state, fmt.Sprintf("%d/%d %s: %s", stats.Processed, stats.Total, res.Status, res.Name))
		case <-done:
			cancelled = true
			done = nil
			state = StateDraining
			r.logger.Warn("Sync cancelled, draining in-flight products")
			r.emit(state, "Cancelling: finishing in-flight products")
		}
	}
}

// safeProcess converts a panic inside one product into a failed result.
func (r *run) safeProcess(ctx context.Context, entity catalog.CatalogEntity) (res SyncResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Product task panicked",
				zap.String("sku", entity.PrimarySKU()),
				zap.Any("panic", rec))
			res = failed(entity, fmt.Errorf("panic: %v", rec), nil)
		}
	}()
	return r.processEntity(ctx, entity)
}

func (r *run) emit(state State, message string) {
	if r.onProgress == nil {
		return
	}
	r.onProgress(r.stats.progress(state, message, r.now()))
}

func compact(resolved []*SyncResult) []SyncResult {
	results := make([]SyncResult, 0, len(resolved))
	for _, r := range resolved {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}
