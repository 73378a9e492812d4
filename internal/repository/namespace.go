package repository

import (
	"context"
	"strings"
)

const namespaceSeparator = "|"

// NamespacedKVStore prefixes every key with an origin so several origins can
// share one backend without seeing each other's data.
type NamespacedKVStore struct {
	inner  KVStore
	prefix string
}

// Namespace scopes store to origin. An empty origin returns a view that
// does not rewrite keys.
func Namespace(store KVStore, origin string) *NamespacedKVStore {
	prefix := ""
	if origin != "" {
		prefix = origin + namespaceSeparator
	}
	return &NamespacedKVStore{inner: store, prefix: prefix}
}

func (n *NamespacedKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *NamespacedKVStore) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *NamespacedKVStore) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}

// Watch forwards changes of keys inside the namespace, with the prefix
// removed. It is a no-op when the inner store cannot watch.
func (n *NamespacedKVStore) Watch(fn func(key string)) func() {
	w, ok := n.inner.(Watcher)
	if !ok {
		return func() {}
	}
	return w.Watch(func(key string) {
		if n.prefix == "" {
			fn(key)
			return
		}
		if rest, ok := strings.CutPrefix(key, n.prefix); ok {
			fn(rest)
		}
	})
}
