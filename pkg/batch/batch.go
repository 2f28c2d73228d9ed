// Package batch provides a small bounded-concurrency executor for independent,
// order-insensitive I/O such as bulk image prefetch.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run executes worker over every item with at most concurrency workers in
// flight. Results are returned in input order regardless of completion order.
// The first worker error cancels the shared context, waits for in-flight
// workers, and is returned; partial results are discarded. Empty input
// returns an empty result without ever invoking the worker.
func Run[T, R any](ctx context.Context, items []T, concurrency int, worker func(context.Context, T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]R, len(items))
	for i, item := range items {
		g.Go(func() error {
			res, err := worker(ctx, item)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
