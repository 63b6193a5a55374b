package ratelimit

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// penaltyFactor is applied to the refill rate on every throttle signal.
	penaltyFactor = 0.85
	// recoveryFactor is applied to the refill rate on a clean response once strikes reach zero.
	recoveryFactor = 1.05
	// maxJitterFraction bounds jitter relative to the un-jittered window.
	maxJitterFraction = 0.25
)

// State is a point-in-time view of the limiter.
type State struct {
	Tokens           float64   `json:"tokens"`
	Capacity         float64   `json:"capacity"`
	RefillRatePerSec float64   `json:"refill_rate_per_sec"`
	BackoffUntil     time.Time `json:"backoff_until"`
	ThrottleStrikes  int       `json:"throttle_strikes"`
}

// Limiter is a token bucket with an adaptive throttle penalty.
// It is safe for concurrent use by all workers of a run.
type Limiter struct {
	mu           sync.Mutex
	bucket       *rate.Limiter
	cfg          Config
	backoffUntil time.Time
	strikes      int

	now    func() time.Time
	jitter func() float64
}

// New creates a limiter with a full bucket.
func New(cfg Config) *Limiter {
	cfg = cfg.withDefaults()
	return &Limiter{
		bucket: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		cfg:    cfg,
		now:    time.Now,
		jitter: rand.Float64,
	}
}

// Acquire blocks until the penalty window has elapsed and a token is available,
// then consumes one token. It returns early with ctx's error on cancellation.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		wait := l.backoffUntil.Sub(l.now())
		l.mu.Unlock()

		if wait <= 0 {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		// The window may have been extended while we slept.
	}

	return l.bucket.Wait(ctx)
}

// OnThrottled records a server-reported throttle. It lowers the refill rate,
// increments the strike counter and opens a penalty window that grows
// exponentially with the strikes. The returned duration is the new window.
func (l *Limiter) OnThrottled() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.strikes++
	window := l.penaltyWindow(l.strikes)

	until := l.now().Add(window)
	if until.After(l.backoffUntil) {
		l.backoffUntil = until
	}

	reduced := math.Max(l.cfg.MinRate, float64(l.bucket.Limit())*penaltyFactor)
	l.bucket.SetLimit(rate.Limit(reduced))

	return window
}

// OnSuccess records a clean response. Strikes decay by one per call; once they
// reach zero the refill rate is nudged back toward its ceiling.
func (l *Limiter) OnSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.strikes > 0 {
		l.strikes--
	}
	if l.strikes > 0 {
		return
	}

	current := float64(l.bucket.Limit())
	if current >= l.cfg.RatePerSecond {
		return
	}
	l.bucket.SetLimit(rate.Limit(math.Min(l.cfg.RatePerSecond, current*recoveryFactor)))
}

// State returns a snapshot of the limiter.
func (l *Limiter) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	return State{
		Tokens:           l.bucket.Tokens(),
		Capacity:         float64(l.bucket.Burst()),
		RefillRatePerSec: float64(l.bucket.Limit()),
		BackoffUntil:     l.backoffUntil,
		ThrottleStrikes:  l.strikes,
	}
}

// penaltyWindow computes base*2^(strikes-1) plus jitter, capped.
// Jitter stays below the doubling step so consecutive windows never shrink.
func (l *Limiter) penaltyWindow(strikes int) time.Duration {
	exp := min(strikes-1, 16)
	window := l.cfg.PenaltyBase * time.Duration(1<<exp)
	if window >= l.cfg.PenaltyCap || window <= 0 {
		return l.cfg.PenaltyCap
	}

	window += time.Duration(float64(window) * maxJitterFraction * l.jitter())
	return min(window, l.cfg.PenaltyCap)
}
