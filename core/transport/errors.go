package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	// Transient failures are retried inside the transport.
	Transient ErrorKind = iota + 1
	// Terminal failures are returned to the caller immediately.
	Terminal
	// NotFound means the remote entity does not exist.
	NotFound
	// Fatal failures abort a whole run (bad credentials, unreachable first page).
	Fatal
)

func (k ErrorKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Terminal:
		return "terminal"
	case NotFound:
		return "not_found"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Kind maps the status code to an ErrorKind.
func (e *StatusError) Kind() ErrorKind {
	switch {
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return Transient
	case e.StatusCode == http.StatusNotFound:
		return NotFound
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return Fatal
	default:
		return Terminal
	}
}

// Throttled reports whether the server rejected the call for rate reasons.
func (e *StatusError) Throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

type kinded interface {
	Kind() ErrorKind
}

type throttler interface {
	Throttled() bool
}

// Classify returns the kind of err.
func Classify(err error) ErrorKind {
	if err == nil {
		return Terminal
	}

	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}

	if errors.Is(err, context.Canceled) {
		return Terminal
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient
	}

	return Terminal
}

// IsThrottled reports whether err carries a throttle signal.
func IsThrottled(err error) bool {
	var t throttler
	return errors.As(err, &t) && t.Throttled()
}

// CheckResponse turns a non-2xx response into a *StatusError. The body of a
// failed response is consumed and truncated.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(v); err == nil {
		return time.Until(at)
	}
	return 0
}
