// Package transport wraps single remote calls with bounded, classified retry.
//
// Every failure is mapped to an ErrorKind. Transient failures (HTTP 429, HTTP 5xx,
// API throttle codes, network errors and per-call timeouts) are retried with
// exponential backoff; everything else is returned to the caller at once.
// Each attempt is admitted by the shared Limiter, and throttle signals are
// reported back to it before sleeping.
//
// The package knows nothing about catalogs. Errors from protocol layers take
// part in classification by implementing:
//
//	Kind() transport.ErrorKind
//	Throttled() bool
//
// # Usage
//
//	t := transport.New(cfg.Transport, limiter, logger)
//	page, err := transport.Do(ctx, t, func(ctx context.Context) (*Page, error) {
//	    return client.fetch(ctx, cursor)
//	})
package transport
