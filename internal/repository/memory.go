package repository

import (
	"context"
	"sync"
)

// memoryData is the map shared by every tab of a MemoryKVStore.
type memoryData struct {
	mu     sync.RWMutex
	values map[string]string
	tabs   []*MemoryKVStore
}

// MemoryKVStore is an in-process KVStore. Several tabs may share one data
// set; a write through one tab is reported to the watchers of every other
// tab, never to the writer's own.
type MemoryKVStore struct {
	data     *memoryData
	watchers watchers
}

// NewMemoryKVStore creates an empty store with a single tab.
func NewMemoryKVStore() *MemoryKVStore {
	data := &memoryData{values: make(map[string]string)}
	s := &MemoryKVStore{data: data}
	data.tabs = append(data.tabs, s)
	return s
}

// NewTab returns another view over the same data.
func (s *MemoryKVStore) NewTab() *MemoryKVStore {
	tab := &MemoryKVStore{data: s.data}
	s.data.mu.Lock()
	s.data.tabs = append(s.data.tabs, tab)
	s.data.mu.Unlock()
	return tab
}

// Get returns the value stored under key.
func (s *MemoryKVStore) Get(_ context.Context, key string) (string, bool, error) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	v, ok := s.data.values[key]
	return v, ok, nil
}

// Set stores value under key and notifies the other tabs.
func (s *MemoryKVStore) Set(_ context.Context, key, value string) error {
	s.data.mu.Lock()
	s.data.values[key] = value
	s.data.mu.Unlock()
	s.broadcast(key)
	return nil
}

// Delete removes key and notifies the other tabs.
func (s *MemoryKVStore) Delete(_ context.Context, key string) error {
	s.data.mu.Lock()
	_, existed := s.data.values[key]
	delete(s.data.values, key)
	s.data.mu.Unlock()
	if existed {
		s.broadcast(key)
	}
	return nil
}

// Watch registers fn for keys written through other tabs.
func (s *MemoryKVStore) Watch(fn func(key string)) func() {
	return s.watchers.add(fn)
}

func (s *MemoryKVStore) broadcast(key string) {
	s.data.mu.RLock()
	tabs := make([]*MemoryKVStore, 0, len(s.data.tabs))
	for _, t := range s.data.tabs {
		if t != s {
			tabs = append(tabs, t)
		}
	}
	s.data.mu.RUnlock()

	for _, t := range tabs {
		t.watchers.notify(key)
	}
}
