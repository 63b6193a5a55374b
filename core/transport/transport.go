package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Limiter admits calls and absorbs throttle feedback.
type Limiter interface {
	Acquire(ctx context.Context) error
	OnThrottled() time.Duration
	OnSuccess()
}

// Transport retries transient failures of a single remote call.
type Transport struct {
	cfg     Config
	limiter Limiter
	logger  *zap.Logger
}

// New creates a transport. A nil limiter admits every call immediately.
func New(cfg Config, limiter Limiter, logger *zap.Logger) *Transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{cfg: cfg.withDefaults(), limiter: limiter, logger: logger}
}

// Call runs op until it succeeds, fails terminally, or retries are exhausted.
// Each attempt gets its own timeout derived from ctx.
func (t *Transport) Call(ctx context.Context, op func(ctx context.Context) error) error {
	policy := t.newBackOff()

	for attempt := 0; ; attempt++ {
		if t.limiter != nil {
			if err := t.limiter.Acquire(ctx); err != nil {
				return err
			}
		}

		err := t.attempt(ctx, op)
		if err == nil {
			if t.limiter != nil {
				t.limiter.OnSuccess()
			}
			return nil
		}

		// The caller is gone; retrying would only burn the budget.
		if ctx.Err() != nil {
			return err
		}

		if Classify(err) != Transient {
			return err
		}
		if attempt >= t.cfg.MaxRetries {
			return fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
		}

		delay := policy.NextBackOff()
		if IsThrottled(err) && t.limiter != nil {
			t.limiter.OnThrottled()
		}
		var se *StatusError
		if errors.As(err, &se) && se.RetryAfter > delay {
			delay = min(se.RetryAfter, t.cfg.MaxDelay)
		}

		t.logger.Warn("Transient failure, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", t.cfg.MaxRetries),
			zap.Duration("delay", delay),
			zap.Bool("throttled", IsThrottled(err)),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Do is the value-returning form of Call.
func Do[T any](ctx context.Context, t *Transport, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := t.Call(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (t *Transport) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, t.cfg.CallTimeout)
	defer cancel()
	return op(callCtx)
}

func (t *Transport) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.cfg.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.MaxInterval = t.cfg.MaxDelay
	b.Reset()
	return b
}
