package ratelimit

import "time"

// Config holds configuration for the destination rate limiter.
type Config struct {
	// RatePerSecond is the steady refill rate and the ceiling recovery climbs back to.
	RatePerSecond float64 `mapstructure:"rate_per_second" default:"2.5"`
	// Burst is the bucket capacity.
	Burst int `mapstructure:"burst" default:"15"`
	// MinRate is the floor the refill rate never drops below after throttling.
	MinRate float64 `mapstructure:"min_rate" default:"0.8"`
	// PenaltyBase is the first penalty window applied after a throttle signal.
	PenaltyBase time.Duration `mapstructure:"penalty_base" default:"5s"`
	// PenaltyCap bounds every penalty window.
	PenaltyCap time.Duration `mapstructure:"penalty_cap" default:"30s"`
}

// DefaultConfig returns the limits observed to keep a standard storefront plan out of throttling.
func DefaultConfig() Config {
	return Config{
		RatePerSecond: 2.5,
		Burst:         15,
		MinRate:       0.8,
		PenaltyBase:   5 * time.Second,
		PenaltyCap:    30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = d.RatePerSecond
	}
	if c.Burst <= 0 {
		c.Burst = d.Burst
	}
	if c.MinRate <= 0 || c.MinRate > c.RatePerSecond {
		c.MinRate = min(d.MinRate, c.RatePerSecond)
	}
	if c.PenaltyBase <= 0 {
		c.PenaltyBase = d.PenaltyBase
	}
	if c.PenaltyCap < c.PenaltyBase {
		c.PenaltyCap = max(d.PenaltyCap, c.PenaltyBase)
	}
	return c
}
