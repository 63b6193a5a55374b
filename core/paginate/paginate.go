package paginate

import (
	"context"
	"iter"
)

// Page is one page of a listing.
type Page[T any, C any] struct {
	Items   []T
	Next    C
	HasMore bool
}

// FetchFunc retrieves the page addressed by cursor.
type FetchFunc[T any, C any] func(ctx context.Context, cursor C) (Page[T, C], error)

// Pages returns a lazy sequence over every item reachable from first.
func Pages[T any, C any](ctx context.Context, first C, fetch FetchFunc[T, C]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		cursor := first

		for pageNo := 0; ; pageNo++ {
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}

			page, err := fetch(ctx, cursor)
			if err != nil {
				yield(zero, err)
				return
			}

			if len(page.Items) == 0 && pageNo > 0 {
				return
			}

			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}

			if !page.HasMore {
				return
			}
			cursor = page.Next
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for item, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}
