package syncjob

import (
	"errors"
	"strings"

	"catalog-sync/core/logger"
	"catalog-sync/core/reconcile"
	"catalog-sync/core/transport"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RunRequest overrides the default run options. Omitted fields keep the defaults.
type RunRequest struct {
	Mode           string `json:"mode"`
	Workers        int    `json:"workers"`
	TestMode       *bool  `json:"test_mode"`
	DryRun         *bool  `json:"dry_run"`
	StrictSKUMatch *bool  `json:"strict_sku_match"`
}

// Apply merges the request into opts.
func (r RunRequest) Apply(opts reconcile.RunOptions) (reconcile.RunOptions, error) {
	if strings.TrimSpace(r.Mode) != "" {
		mode, err := reconcile.ParseMode(r.Mode)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	if r.Workers != 0 {
		if r.Workers < 1 || r.Workers > reconcile.MaxWorkers {
			return opts, errors.New("workers must be between 1 and 10")
		}
		opts.Workers = r.Workers
	}
	if r.TestMode != nil {
		opts.TestMode = *r.TestMode
	}
	if r.DryRun != nil {
		opts.DryRun = *r.DryRun
	}
	if r.StrictSKUMatch != nil {
		opts.StrictSKUMatch = *r.StrictSKUMatch
	}
	return opts, nil
}

// Handler handles HTTP requests for sync runs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/runs", h.HandleStart)
	group.Get("/runs/current", h.HandleCurrent)
	group.Delete("/runs/current", h.HandleCancel)
	group.Post("/sku/:sku", h.HandleSyncSKU)
}

func (h *Handler) parseOptions(c *fiber.Ctx) (reconcile.RunOptions, error) {
	var req RunRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return reconcile.RunOptions{}, err
		}
	}
	return req.Apply(h.service.Defaults())
}

// HandleStart starts a sync run.
// @Summary Start Sync Run
// @Description Starts a background sync from Sentos to Shopify. Only one run may be active.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body RunRequest false "Run options"
// @Success 202 {object} Snapshot
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 409 {object} map[string]string "Run In Progress"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/runs [post]
func (h *Handler) HandleStart(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	opts, err := h.parseOptions(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	snap, err := h.service.Start(opts, TriggerAPI)
	if errors.Is(err, ErrRunInProgress) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Failed to start sync run", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Sync run accepted", zap.String("run_id", snap.ID))
	return c.Status(fiber.StatusAccepted).JSON(snap)
}

// HandleCurrent reports the active or last run.
// @Summary Current Sync Run
// @Description Returns progress of the active run, or the final state of the last run.
// @Tags sync
// @Produce json
// @Success 200 {object} Snapshot
// @Failure 404 {object} map[string]string "No Run"
// @Router /sync/runs/current [get]
func (h *Handler) HandleCurrent(c *fiber.Ctx) error {
	snap, err := h.service.Current()
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(snap)
}

// HandleCancel cancels the active run.
// @Summary Cancel Sync Run
// @Description Stops dispatching new products. Products already in progress are finished.
// @Tags sync
// @Produce json
// @Success 202 {object} Snapshot
// @Failure 404 {object} map[string]string "No Active Run"
// @Router /sync/runs/current [delete]
func (h *Handler) HandleCancel(c *fiber.Ctx) error {
	snap, err := h.service.Cancel()
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.service.logger, c).Info("Sync run cancelled", zap.String("run_id", snap.ID))
	return c.Status(fiber.StatusAccepted).JSON(snap)
}

// HandleSyncSKU syncs a single product.
// @Summary Sync Single SKU
// @Description Looks up one product by SKU at the source and syncs it to the destination.
// @Tags sync
// @Accept json
// @Produce json
// @Param sku path string true "Product SKU"
// @Param request body RunRequest false "Run options"
// @Success 200 {object} reconcile.SyncResult
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 409 {object} map[string]string "Run In Progress"
// @Failure 502 {object} map[string]string "Upstream Error"
// @Router /sync/sku/{sku} [post]
func (h *Handler) HandleSyncSKU(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	opts, err := h.parseOptions(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res, err := h.service.SyncSKU(c.Context(), c.Params("sku"), opts)
	switch {
	case err == nil:
		return c.JSON(res)
	case errors.Is(err, ErrRunInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case transport.Classify(err) == transport.NotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		l.Error("Single product sync failed", zap.String("sku", c.Params("sku")), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
}
