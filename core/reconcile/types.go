package reconcile

import (
	"fmt"
	"strings"
	"time"

	"catalog-sync/core/catalog"
	"catalog-sync/core/transport"
)

// Mode selects which parts of a product a run touches.
type Mode string

const (
	// ModeFull creates missing products and updates details, stock and media of existing ones.
	ModeFull Mode = "full"
	// ModeMissing only creates products that do not exist on the destination.
	ModeMissing Mode = "missing"
	// ModeDetails updates title, description and product type.
	ModeDetails Mode = "details"
	// ModeStock creates missing variants and sets inventory.
	ModeStock Mode = "stock"
	// ModeMedia syncs images using the source URL as alt text.
	ModeMedia Mode = "media"
	// ModeMediaSEO syncs images using the product title as alt text.
	ModeMediaSEO Mode = "media_seo"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeFull, ModeMissing, ModeDetails, ModeStock, ModeMedia, ModeMediaSEO}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeFull, nil
	}
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown sync mode %q", s)
}

// CreatesMissing reports whether unmatched products are created.
func (m Mode) CreatesMissing() bool { return m == ModeFull || m == ModeMissing }

// UpdatesExisting reports whether matched products are written.
func (m Mode) UpdatesExisting() bool { return m != ModeMissing }

// SyncsDetails reports whether title, description and type are written.
func (m Mode) SyncsDetails() bool { return m == ModeFull || m == ModeDetails }

// SyncsStock reports whether variants and inventory are written.
func (m Mode) SyncsStock() bool { return m == ModeFull || m == ModeStock }

// SyncsMedia reports whether images are written.
func (m Mode) SyncsMedia() bool { return m == ModeFull || m == ModeMedia || m == ModeMediaSEO }

// TitleAltText reports whether uploaded images get the product title as alt text.
func (m Mode) TitleAltText() bool { return m == ModeFull || m == ModeMediaSEO }

// State is the lifecycle state of a run.
type State string

const (
	StateInitializing State = "initializing"
	StateCaching      State = "caching"
	StateProcessing   State = "processing"
	StateDraining     State = "draining"
	StateDone         State = "done"
	StateError        State = "error"
)

// Status is the outcome of one source entity.
type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// SyncResult is the outcome for one source entity.
type SyncResult struct {
	Status         Status            `json:"status"`
	NaturalKey     string            `json:"natural_key"`
	Name           string            `json:"name"`
	MatchedBy      catalog.MatchedBy `json:"matched_by,omitempty"`
	ChangesApplied []string          `json:"changes_applied,omitempty"`
	ErrorReason    string            `json:"error_reason,omitempty"`
}

// SyncStats aggregates results of a run.
type SyncStats struct {
	Total     int `json:"total"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Processed int `json:"processed"`
}

// Progress is emitted after every state change and task completion.
type Progress struct {
	State   State         `json:"state"`
	Percent int           `json:"percent"`
	Message string        `json:"message"`
	Stats   SyncStats     `json:"stats"`
	Rate    float64       `json:"rate"`
	ETA     time.Duration `json:"eta"`
	Elapsed time.Duration `json:"elapsed"`
}

// ProgressFunc receives progress events. Calls are serialized.
type ProgressFunc func(Progress)

// RunOptions controls one run.
type RunOptions struct {
	Mode Mode
	// Workers is clamped to 1..MaxWorkers.
	Workers int
	// TestMode limits the run to the first TestModeLimit source products.
	TestMode bool
	// BatchSize bounds bulk mutations; zero uses the platform default.
	BatchSize int
	// StrictSKUMatch skips products that only matched by title.
	StrictSKUMatch bool
	// DryRun computes change sets without writing to the destination.
	DryRun bool
}

const (
	// MaxWorkers bounds the worker pool.
	MaxWorkers = 10
	// DefaultWorkers is used when no worker count is given.
	DefaultWorkers = 4
	// TestModeLimit is the number of products processed in test mode.
	TestModeLimit = 20
	// MediaBatchSize bounds media created per call.
	MediaBatchSize = 10
)

func (o RunOptions) normalized() RunOptions {
	if o.Mode == "" {
		o.Mode = ModeFull
	}
	switch {
	case o.Workers <= 0:
		o.Workers = DefaultWorkers
	case o.Workers > MaxWorkers:
		o.Workers = MaxWorkers
	}
	return o
}

// Results is the final report of a run.
type Results struct {
	Stats     SyncStats     `json:"stats"`
	Results   []SyncResult  `json:"results"`
	Duration  time.Duration `json:"duration"`
	Cancelled bool          `json:"cancelled"`
}

// FatalError aborts a run before any entity is processed.
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("sync aborted during %s: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Kind marks the error as fatal for transport classification.
func (e *FatalError) Kind() transport.ErrorKind { return transport.Fatal }
