package transform

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned for a transform id that is not in the registry.
var ErrNotFound = errors.New("transform not found")

// Registry is an immutable catalog of transforms indexed by id.
type Registry struct {
	byID   map[ID]*Definition
	sorted []*Definition
}

// NewRegistry builds a registry from defs. Duplicate ids are rejected.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{byID: make(map[ID]*Definition, len(defs))}
	for _, d := range defs {
		if d == nil || d.ID == "" {
			return nil, errors.New("transform definition without id")
		}
		if _, exists := r.byID[d.ID]; exists {
			return nil, fmt.Errorf("duplicate transform id %q", d.ID)
		}
		seen := make(map[string]bool, len(d.Fields))
		for _, f := range d.Fields {
			if seen[f.Key] {
				return nil, fmt.Errorf("transform %s: duplicate option key %q", d.ID, f.Key)
			}
			seen[f.Key] = true
		}
		r.byID[d.ID] = d
		r.sorted = append(r.sorted, d)
	}
	sort.SliceStable(r.sorted, func(i, j int) bool {
		return r.sorted[i].Name < r.sorted[j].Name
	})
	return r, nil
}

var builtin = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(whitespaceNormalize, transcriptClean, dedupeLines)
	if err != nil {
		panic(err)
	}
	return r
})

// Builtin returns the registry of all built-in transforms.
func Builtin() *Registry {
	return builtin()
}

// Get returns the definition for id.
func (r *Registry) Get(id ID) (*Definition, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return d, nil
}

// List returns all definitions ordered by display name.
func (r *Registry) List() []*Definition {
	out := make([]*Definition, len(r.sorted))
	copy(out, r.sorted)
	return out
}

// DefaultOptionsFor returns the default options map for id.
func (r *Registry) DefaultOptionsFor(id ID) (map[string]any, error) {
	d, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return d.Defaults(), nil
}
