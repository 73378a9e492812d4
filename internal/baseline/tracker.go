package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/RIGishan/text-toolkit/pkg/models"
)

// ErrNoBaseline is returned by Revert when no recipe has been captured.
var ErrNoBaseline = errors.New("no baseline captured")

// StateStore reads and replaces a tool's persisted option object.
type StateStore interface {
	Load(ctx context.Context, toolID string) (map[string]any, bool, error)
	Store(ctx context.Context, toolID string, state map[string]any) error
}

// Tracker remembers the recipe a tool was last loaded from and compares the
// tool's persisted options against it.
type Tracker struct {
	store  StateStore
	toolID string

	mu        sync.Mutex
	recipe    *models.Recipe
	canonical string
}

// NewTracker returns a Tracker for toolID with no baseline.
func NewTracker(store StateStore, toolID string) *Tracker {
	return &Tracker{store: store, toolID: toolID}
}

// Capture makes recipe the baseline. Its state is copied so later edits to
// the caller's value do not move the baseline.
func (t *Tracker) Capture(recipe models.Recipe) error {
	state, err := deepCopy(recipe.State)
	if err != nil {
		return err
	}
	c, err := Canonical(state)
	if err != nil {
		return err
	}
	recipe.State = state

	t.mu.Lock()
	t.recipe = &recipe
	t.canonical = c
	t.mu.Unlock()
	return nil
}

// Clear drops the baseline.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.recipe = nil
	t.canonical = ""
	t.mu.Unlock()
}

// Active returns the baseline recipe, if any.
func (t *Tracker) Active() (models.Recipe, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.recipe == nil {
		return models.Recipe{}, false
	}
	return t.recipe.Clone(), true
}

// IsModified reports whether the persisted options differ from the
// baseline. Without a baseline nothing counts as modified.
func (t *Tracker) IsModified(ctx context.Context) (bool, error) {
	t.mu.Lock()
	active := t.recipe != nil
	want := t.canonical
	t.mu.Unlock()
	if !active {
		return false, nil
	}

	current, _, err := t.store.Load(ctx, t.toolID)
	if err != nil {
		return false, err
	}
	got, err := Canonical(current)
	if err != nil {
		return false, err
	}
	return got != want, nil
}

// Revert writes the baseline state back to the tool.
func (t *Tracker) Revert(ctx context.Context) error {
	t.mu.Lock()
	if t.recipe == nil {
		t.mu.Unlock()
		return ErrNoBaseline
	}
	state, err := deepCopy(t.recipe.State)
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return t.store.Store(ctx, t.toolID, state)
}

func deepCopy(state map[string]any) (map[string]any, error) {
	if state == nil {
		return nil, nil
	}
	b, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
