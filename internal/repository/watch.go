package repository

import "sync"

// watchers is a registry of change callbacks shared by the store
// implementations.
type watchers struct {
	mu   sync.Mutex
	next uint64
	fns  map[uint64]func(string)
}

func (w *watchers) add(fn func(string)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fns == nil {
		w.fns = make(map[uint64]func(string))
	}
	id := w.next
	w.next++
	w.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.fns, id)
			w.mu.Unlock()
		})
	}
}

// notify calls every registered callback. Callbacks run without the lock
// held so they may read from the store or cancel themselves.
func (w *watchers) notify(key string) {
	w.mu.Lock()
	fns := make([]func(string), 0, len(w.fns))
	for _, fn := range w.fns {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}
