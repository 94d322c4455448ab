package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestProcessPreservesOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	pool := NewPool[string](3)

	results := pool.Process(context.Background(), items, func(_ context.Context, s string) (string, error) {
		return strings.ToUpper(s), nil
	})

	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
		if r.Value != strings.ToUpper(items[i]) {
			t.Errorf("result %d = %q", i, r.Value)
		}
	}
}

func TestProcessCapturesPerItemErrors(t *testing.T) {
	items := []string{"ok", "bad", "ok"}
	pool := NewPool[int](2)

	results := pool.Process(context.Background(), items, func(_ context.Context, s string) (int, error) {
		if s == "bad" {
			return 0, fmt.Errorf("cannot process %s", s)
		}
		return len(s), nil
	})

	if results[0].Err != nil || results[2].Err != nil {
		t.Error("unexpected errors on good items")
	}
	if results[1].Err == nil {
		t.Error("expected error on bad item")
	}
}

func TestProcessEmptyInput(t *testing.T) {
	pool := NewPool[int](4)
	if results := pool.Process(context.Background(), nil, nil); results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
}

func TestProcessCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []string{"a", "b", "c"}
	pool := NewPool[string](1)

	results := pool.Process(ctx, items, func(_ context.Context, s string) (string, error) {
		return s, nil
	})

	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("result %d err = %v, want context.Canceled", i, r.Err)
		}
	}
}

func TestNewPoolDefaultsConcurrency(t *testing.T) {
	pool := NewPool[int](0)
	if pool.concurrency <= 0 {
		t.Errorf("concurrency = %d, want > 0", pool.concurrency)
	}
}
