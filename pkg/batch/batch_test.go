package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPreservesInputOrder(t *testing.T) {
	items := []int{5, 3, 8, 1, 9, 2, 7}
	results, err := Run(context.Background(), items, 3, func(ctx context.Context, n int) (int, error) {
		// Make earlier items finish later so completion order differs.
		time.Sleep(time.Duration(10-n) * time.Millisecond)
		return n * 10, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, n := range items {
		if results[i] != n*10 {
			t.Fatalf("result %d: expected %d, got %d", i, n*10, results[i])
		}
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	const limit = 4
	var inFlight, peak int64
	items := make([]int, 50)

	_, err := Run(context.Background(), items, limit, func(ctx context.Context, _ int) (struct{}, error) {
		current := atomic.AddInt64(&inFlight, 1)
		for {
			observed := atomic.LoadInt64(&peak)
			if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt64(&peak); got > limit {
		t.Fatalf("observed %d workers in flight, limit is %d", got, limit)
	}
}

func TestRunFailsFast(t *testing.T) {
	boom := errors.New("boom")
	var calls int64
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	_, err := Run(context.Background(), items, 2, func(ctx context.Context, n int) (int, error) {
		atomic.AddInt64(&calls, 1)
		if n == 3 {
			return 0, boom
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Millisecond):
		}
		return n, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the worker error to propagate, got %v", err)
	}
}

func TestRunEmptyInput(t *testing.T) {
	results, err := Run(context.Background(), nil, 3, func(ctx context.Context, _ int) (int, error) {
		t.Fatal("worker must not be invoked for empty input")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty output, got %d results", len(results))
	}
}
