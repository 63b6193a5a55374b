package batch

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// DefaultSize is the largest input array accepted by the bulk mutations we call.
const DefaultSize = 50

// Chunks yields consecutive sub-slices of items holding at most size elements.
// A non-positive size falls back to DefaultSize.
func Chunks[T any](items []T, size int) iter.Seq[[]T] {
	if size <= 0 {
		size = DefaultSize
	}
	return func(yield func([]T) bool) {
		for start := 0; start < len(items); start += size {
			end := min(start+size, len(items))
			if !yield(items[start:end:end]) {
				return
			}
		}
	}
}

// Outcome is the result of one submitted batch.
type Outcome struct {
	Index int
	Size  int
	Err   error
}

// Report collects every batch outcome of a Submit call.
type Report struct {
	Outcomes []Outcome
}

// Failed returns the outcomes that carry an error.
func (r Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Succeeded counts items in batches that went through.
func (r Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n += o.Size
		}
	}
	return n
}

// Err joins all batch failures, or returns nil when every batch succeeded.
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, fmt.Errorf("batch %d (%d items): %w", o.Index+1, o.Size, o.Err))
	}
	return errors.Join(errs...)
}

// Submit sends items to fn in batches of at most size. Every batch is
// attempted; a cancelled context marks the remaining batches with ctx's error.
func Submit[T any](ctx context.Context, items []T, size int, fn func(ctx context.Context, batch []T) error) Report {
	var report Report
	index := 0
	for chunk := range Chunks(items, size) {
		var err error
		if err = ctx.Err(); err == nil {
			err = fn(ctx, chunk)
		}
		report.Outcomes = append(report.Outcomes, Outcome{Index: index, Size: len(chunk), Err: err})
		index++
	}
	return report
}
