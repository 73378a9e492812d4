package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RIGishan/text-toolkit/internal/repository"
	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

// UntitledName is used when a workflow is saved with a blank name.
const UntitledName = "Untitled workflow"

// ErrNotFound is returned for an unknown workflow id.
var ErrNotFound = errors.New("workflow not found")

// Store persists saved workflows as one list, newest first.
type Store struct {
	registry *transform.Registry
	items    *repository.Collection[models.SavedWorkflow]
	now      func() time.Time
	newID    func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides workflow id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore returns a Store over storage. Saved steps are validated against reg.
func NewStore(storage *repository.Storage, reg *transform.Registry, opts ...Option) *Store {
	s := &Store{
		registry: reg,
		items:    repository.NewCollection[models.SavedWorkflow](storage, repository.WorkflowsKey),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every saved workflow, most recently saved first.
func (s *Store) List(ctx context.Context) ([]models.SavedWorkflow, error) {
	items, err := s.items.Load(ctx)
	for i := range items {
		items[i] = items[i].Clone()
	}
	return items, err
}

// Save stores steps under a fresh id. If persisting fails the record is
// still returned and kept for the session, together with the error.
func (s *Store) Save(ctx context.Context, name string, steps []models.WorkflowStep) (models.SavedWorkflow, error) {
	if err := Validate(s.registry, steps); err != nil {
		return models.SavedWorkflow{}, err
	}
	now := s.now().UnixMilli()
	w := models.SavedWorkflow{
		ID:        s.newID(),
		Name:      displayName(name),
		CreatedAt: now,
		UpdatedAt: now,
		Steps:     models.CloneSteps(steps),
	}
	if w.Steps == nil {
		w.Steps = []models.WorkflowStep{}
	}
	err := s.items.Update(ctx, func(items []models.SavedWorkflow) ([]models.SavedWorkflow, error) {
		return append([]models.SavedWorkflow{w}, items...), nil
	})
	return w.Clone(), err
}

// Load returns a copy of the workflow with id. Editing the copy does not
// change the stored record.
func (s *Store) Load(ctx context.Context, id string) (models.SavedWorkflow, error) {
	items, err := s.items.Load(ctx)
	i := slices.IndexFunc(items, func(w models.SavedWorkflow) bool { return w.ID == id })
	if i < 0 {
		if err != nil {
			return models.SavedWorkflow{}, err
		}
		return models.SavedWorkflow{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return items[i].Clone(), nil
}

// FindByName returns the first workflow called name.
func (s *Store) FindByName(ctx context.Context, name string) (models.SavedWorkflow, bool, error) {
	items, err := s.items.Load(ctx)
	i := slices.IndexFunc(items, func(w models.SavedWorkflow) bool { return w.Name == name })
	if i < 0 {
		return models.SavedWorkflow{}, false, err
	}
	return items[i].Clone(), true, err
}

// Update overwrites the name and steps of an existing workflow in place.
// createdAt and the list position are kept; updatedAt is refreshed.
func (s *Store) Update(ctx context.Context, id, name string, steps []models.WorkflowStep) (models.SavedWorkflow, error) {
	if err := Validate(s.registry, steps); err != nil {
		return models.SavedWorkflow{}, err
	}
	var updated models.SavedWorkflow
	err := s.items.Update(ctx, func(items []models.SavedWorkflow) ([]models.SavedWorkflow, error) {
		i := slices.IndexFunc(items, func(w models.SavedWorkflow) bool { return w.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		w := items[i]
		w.Name = displayName(name)
		w.Steps = models.CloneSteps(steps)
		if w.Steps == nil {
			w.Steps = []models.WorkflowStep{}
		}
		w.UpdatedAt = max(s.now().UnixMilli(), w.CreatedAt)
		items[i] = w
		updated = w
		return items, nil
	})
	if updated.ID == "" {
		return models.SavedWorkflow{}, err
	}
	return updated.Clone(), err
}

// Delete removes the workflow with id. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	items, err := s.items.Load(ctx)
	if err == nil && !slices.ContainsFunc(items, func(w models.SavedWorkflow) bool { return w.ID == id }) {
		return nil
	}
	return s.items.Update(ctx, func(items []models.SavedWorkflow) ([]models.SavedWorkflow, error) {
		return slices.DeleteFunc(items, func(w models.SavedWorkflow) bool { return w.ID == id }), nil
	})
}

// Import saves an externally produced workflow under a fresh id and fresh
// timestamps.
func (s *Store) Import(ctx context.Context, w models.SavedWorkflow) (models.SavedWorkflow, error) {
	return s.Save(ctx, w.Name, w.Steps)
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return UntitledName
	}
	return name
}
