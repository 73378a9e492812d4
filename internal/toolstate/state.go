// Package toolstate binds consumers to a tool's persisted option object and
// keeps every consumer of the same tool converged.
package toolstate

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/RIGishan/text-toolkit/internal/events"
	"github.com/RIGishan/text-toolkit/internal/repository"
)

// Key returns the storage key of a tool's option object.
func Key(toolID string) string { return repository.ToolStateKey(toolID) }

// State is one consumer's view of a tool's option object. Writes are
// persisted and then announced on the bus; updates from any other writer are
// adopted by re-reading storage, without persisting or announcing again.
type State[T any] struct {
	id      string
	key     string
	storage *repository.Storage
	bus     *events.Bus
	initial T
	ctx     context.Context

	mu        sync.Mutex
	value     T
	listeners map[int]func(T)
	nextID    int
	stop      func()
}

// Open binds a consumer to toolID. Missing or unreadable stored values fall
// back to initial.
func Open[T any](ctx context.Context, storage *repository.Storage, bus *events.Bus, toolID string, initial T) *State[T] {
	s := &State[T]{
		id:        uuid.NewString(),
		key:       Key(toolID),
		storage:   storage,
		bus:       bus,
		initial:   initial,
		ctx:       context.WithoutCancel(ctx),
		listeners: make(map[int]func(T)),
	}
	s.value = s.read(ctx)
	s.stop = bus.Subscribe(s.key, s.handle)
	return s
}

// ID identifies this consumer as the Source of its own updates.
func (s *State[T]) ID() string { return s.id }

// Get returns the consumer's current value.
func (s *State[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Write adopts v, persists it and announces the change. When persisting
// fails the in-memory value is kept and nothing is announced.
func (s *State[T]) Write(ctx context.Context, v T) error {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()

	if err := s.storage.SetJSON(ctx, s.key, v); err != nil {
		return err
	}
	s.bus.Publish(events.Update{Key: s.key, Source: s.id, Origin: events.Local})
	return nil
}

// OnChange registers fn for values adopted from other writers. The
// consumer's own writes are never reported.
func (s *State[T]) OnChange(fn func(T)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close detaches the consumer from the bus.
func (s *State[T]) Close() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (s *State[T]) handle(u events.Update) {
	if u.Origin == events.Local && u.Source == s.id {
		return
	}
	next := s.read(s.ctx)

	s.mu.Lock()
	s.value = next
	fns := make([]func(T), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

// read returns the stored value, or initial when nothing usable is stored.
// A stored JSON null counts as nothing.
func (s *State[T]) read(ctx context.Context) T {
	var v *T
	ok, err := s.storage.GetJSON(ctx, s.key, &v)
	if err != nil || !ok || v == nil {
		return s.initial
	}
	return *v
}
