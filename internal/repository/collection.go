package repository

import (
	"context"
	"slices"
	"sync"
)

// Collection persists a whole list under one key, the layout used for saved
// workflows and recipes. The last list seen or written is kept in memory so
// callers keep working for the session when the backend fails.
type Collection[T any] struct {
	storage *Storage
	key     string

	mu    sync.Mutex
	cache []T
}

// NewCollection returns a Collection stored under key.
func NewCollection[T any](storage *Storage, key string) *Collection[T] {
	return &Collection[T]{storage: storage, key: key}
}

// Load returns the stored list. A missing or undecodable value is an empty
// list. On backend failure the last known list is returned with the error.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.load(ctx)
	return slices.Clone(items), err
}

// Update replaces the list with the result of fn, applied to the current
// list under a lock. When persisting fails the new list is still kept in
// memory and the ErrUnavailable error is returned.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, _ := c.load(ctx)
	next, err := fn(slices.Clone(current))
	if err != nil {
		return err
	}
	if next == nil {
		next = []T{}
	}
	c.cache = next
	return c.storage.SetJSON(ctx, c.key, next)
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	var items []T
	ok, err := c.storage.GetJSON(ctx, c.key, &items)
	if err != nil {
		return c.cache, err
	}
	if !ok || items == nil {
		items = []T{}
	}
	c.cache = items
	return items, nil
}
