package syncjob

import (
	"catalog-sync/core/reconcile"
)

// Config holds the default run options.
type Config struct {
	// Mode is the default sync mode.
	Mode string `mapstructure:"mode" default:"full"`
	// Workers is the default number of concurrent product workers (1..10).
	Workers int `mapstructure:"workers" default:"4"`
	// BatchSize bounds bulk variant and inventory mutations.
	BatchSize int `mapstructure:"batch_size" default:"50"`
	// TestMode limits runs to the first 20 source products.
	TestMode bool `mapstructure:"test_mode" default:"false"`
	// StrictSKUMatch skips products that only match by title.
	StrictSKUMatch bool `mapstructure:"strict_sku_match" default:"false"`
}

// Options converts the config into run options.
func (c Config) Options() (reconcile.RunOptions, error) {
	mode, err := reconcile.ParseMode(c.Mode)
	if err != nil {
		return reconcile.RunOptions{}, err
	}
	return reconcile.RunOptions{
		Mode:           mode,
		Workers:        c.Workers,
		BatchSize:      c.BatchSize,
		TestMode:       c.TestMode,
		StrictSKUMatch: c.StrictSKUMatch,
	}, nil
}
