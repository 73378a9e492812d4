// Package events provides the in-process "key changed" bus shared by every
// consumer of one workspace.
package events

import "sync"

// Origin tells a subscriber where an update came from.
type Origin int

const (
	// Local updates were published by a writer in this process.
	Local Origin = iota
	// External updates were reported by the storage backend on behalf of
	// another process or instance.
	External
)

func (o Origin) String() string {
	if o == External {
		return "external"
	}
	return "local"
}

// Update announces that the value stored under Key changed. Source names the
// writer for local updates so it can recognise its own publication.
type Update struct {
	Key    string
	Source string
	Origin Origin
}

// Bus delivers updates synchronously to the subscribers of a key.
type Bus struct {
	mu   sync.Mutex
	next uint64
	subs map[string]map[uint64]func(Update)
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[uint64]func(Update))}
}

// Subscribe registers fn for updates of key. The returned function removes
// the subscription and may be called more than once.
func (b *Bus) Subscribe(key string, fn func(Update)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	if b.subs[key] == nil {
		b.subs[key] = make(map[uint64]func(Update))
	}
	b.subs[key][id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[key], id)
		if len(b.subs[key]) == 0 {
			delete(b.subs, key)
		}
	}
}

// Publish calls every current subscriber of u.Key before returning.
// Subscribers run without the bus lock held.
func (b *Bus) Publish(u Update) {
	b.mu.Lock()
	fns := make([]func(Update), 0, len(b.subs[u.Key]))
	for _, fn := range b.subs[u.Key] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

// Watcher reports keys changed by other writers.
type Watcher interface {
	Watch(fn func(key string)) (cancel func())
}

// Bridge republishes every key w reports as an External update.
func (b *Bus) Bridge(w Watcher) (stop func()) {
	return w.Watch(func(key string) {
		b.Publish(Update{Key: key, Origin: External})
	})
}
