// Package ratelimit provides the admission control shared by every outbound
// call to the destination storefront during a sync run.
//
// The Limiter combines a token bucket (steady pacing) with a server-declared
// penalty window (backoffUntil). A throttle signal lowers the refill rate and
// opens an exponentially growing penalty window; clean responses slowly walk
// the rate back up to its configured ceiling.
//
// # Usage
//
//	lim := ratelimit.New(cfg.RateLimit)
//	if err := lim.Acquire(ctx); err != nil {
//	    return err
//	}
//	resp, err := call()
//	if throttled(err) {
//	    lim.OnThrottled()
//	} else if err == nil {
//	    lim.OnSuccess()
//	}
//
// A Limiter is built per run and per destination connection; there is no
// package-level instance.
package ratelimit
