package xcache

import (
	"context"
	"errors"

	"github.com/eko/gocache/lib/v4/store"
)

// ErrCacheNotConfigured is the cause of every miss on a noop cache.
var ErrCacheNotConfigured = errors.New("cache not configured")

type noopCache[T any] struct{}

// NewNoop returns a cache that stores nothing and misses on every Get.
func NewNoop[T any]() Cache[T] {
	return &noopCache[T]{}
}

func (n *noopCache[T]) Get(_ context.Context, _ any) (T, error) {
	var zero T

	return zero, store.NotFoundWithCause(ErrCacheNotConfigured)
}

func (n *noopCache[T]) Set(_ context.Context, _ any, _ T, _ ...Option) error {
	return nil
}

func (n *noopCache[T]) Delete(_ context.Context, _ any) error {
	return nil
}

func (n *noopCache[T]) Invalidate(_ context.Context, _ ...store.InvalidateOption) error {
	return nil
}

func (n *noopCache[T]) Clear(_ context.Context) error {
	return nil
}

func (n *noopCache[T]) GetType() string {
	return "noop"
}
