package transport

import "time"

// DefaultMaxRetries applies when Config.MaxRetries is left at zero.
const DefaultMaxRetries = 5

// Config holds retry settings for outbound calls.
type Config struct {
	// MaxRetries is the number of retries after the first attempt for
	// transient failures. Zero means the default of 5; a negative value
	// disables retries.
	MaxRetries int `mapstructure:"max_retries" default:"5"`
	// BaseDelay is the delay before the first retry; it doubles on each further retry.
	BaseDelay time.Duration `mapstructure:"base_delay" default:"2s"`
	// MaxDelay caps a single retry delay.
	MaxDelay time.Duration `mapstructure:"max_delay" default:"60s"`
	// CallTimeout bounds every individual attempt.
	CallTimeout time.Duration `mapstructure:"call_timeout" default:"90s"`
}

func (c Config) withDefaults() Config {
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = DefaultMaxRetries
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 2 * time.Second
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = max(60*time.Second, c.BaseDelay)
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 90 * time.Second
	}
	return c
}
