package repository

import (
	"context"
	"errors"
)

// ErrUnavailable marks a storage operation that had no durable effect, for
// example a disabled store or a failed write. In-memory state held by callers
// stays valid.
var ErrUnavailable = errors.New("storage unavailable")

// KVStore is durable string storage keyed by string.
type KVStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Watcher is implemented by stores that can report changes made by other
// writers. A store never reports its own writes back to itself.
type Watcher interface {
	// Watch registers fn for changed keys and returns a function that
	// removes the registration.
	Watch(fn func(key string)) (cancel func())
}
