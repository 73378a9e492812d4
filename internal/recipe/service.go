// Package recipe stores named snapshots of tool options and manages each
// tool's default recipe.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RIGishan/text-toolkit/internal/baseline"
	"github.com/RIGishan/text-toolkit/internal/repository"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

// UntitledName is used when a recipe is saved with a blank name.
const UntitledName = "Untitled preset"

var (
	// ErrNotFound is returned for an unknown recipe id.
	ErrNotFound = errors.New("recipe not found")

	// ErrRefused marks an operation that deliberately did nothing. The
	// wrapped reason says why.
	ErrRefused = errors.New("refused")
	// ErrNoState means the tool has never persisted options.
	ErrNoState = errors.New("tool has no saved state")
	// ErrToolMismatch means the recipe belongs to a different tool.
	ErrToolMismatch = errors.New("recipe belongs to another tool")
	// ErrNoBaseline means no recipe is active.
	ErrNoBaseline = baseline.ErrNoBaseline
)

func refused(reason error) error {
	return fmt.Errorf("%w: %w", ErrRefused, reason)
}

// Service manages the shared recipe list and the per-tool default pointers.
type Service struct {
	storage *repository.Storage
	states  baseline.StateStore
	recipes *repository.Collection[models.Recipe]
	now     func() time.Time
	newID   func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for savedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides recipe id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService returns a Service persisting through storage and reading tool
// options through states.
func NewService(storage *repository.Storage, states baseline.StateStore, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		states:  states,
		recipes: repository.NewCollection[models.Recipe](storage, repository.RecipesKey),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every recipe, newest first.
func (s *Service) List(ctx context.Context) ([]models.Recipe, error) {
	all, err := s.recipes.Load(ctx)
	out := make([]models.Recipe, len(all))
	for i, r := range all {
		out[i] = r.Clone()
	}
	return out, err
}

// ListForTool returns the recipes saved for toolID.
func (s *Service) ListForTool(ctx context.Context, toolID string) ([]models.Recipe, error) {
	all, err := s.recipes.Load(ctx)
	out := make([]models.Recipe, 0, len(all))
	for _, r := range all {
		if r.ToolID == toolID {
			out = append(out, r.Clone())
		}
	}
	return out, err
}

// Get returns the recipe with id.
func (s *Service) Get(ctx context.Context, id string) (models.Recipe, error) {
	all, err := s.recipes.Load(ctx)
	i := slices.IndexFunc(all, func(r models.Recipe) bool { return r.ID == id })
	if i < 0 {
		if err != nil {
			return models.Recipe{}, err
		}
		return models.Recipe{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return all[i].Clone(), nil
}

// CreateFromCurrent snapshots the persisted options of toolID as a new
// recipe. It is refused with ErrNoState when the tool never saved options.
func (s *Service) CreateFromCurrent(ctx context.Context, toolID, name string) (models.Recipe, error) {
	state, ok, err := s.states.Load(ctx, toolID)
	if err != nil {
		return models.Recipe{}, err
	}
	if !ok {
		return models.Recipe{}, refused(ErrNoState)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = UntitledName
	}
	r := models.Recipe{
		ID:      s.newID(),
		Name:    name,
		ToolID:  toolID,
		SavedAt: s.now().UnixMilli(),
		State:   models.CloneState(state),
	}
	err = s.recipes.Update(ctx, func(all []models.Recipe) ([]models.Recipe, error) {
		return append([]models.Recipe{r}, all...), nil
	})
	return r.Clone(), err
}

// Apply writes recipe's state into toolID's options and notifies every
// consumer of that tool. It is refused with ErrToolMismatch when the recipe
// was saved for another tool; the tool's options are left untouched.
func (s *Service) Apply(ctx context.Context, toolID string, r models.Recipe) error {
	if r.ToolID != toolID {
		return refused(ErrToolMismatch)
	}
	return s.states.Store(ctx, toolID, models.CloneState(r.State))
}

// Delete removes a recipe. If it was its tool's default, the default is
// cleared first so no pointer to a deleted recipe can remain. Deleting an
// unknown id is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	all, err := s.recipes.Load(ctx)
	if err != nil && len(all) == 0 {
		return err
	}
	i := slices.IndexFunc(all, func(r models.Recipe) bool { return r.ID == id })
	if i < 0 {
		return nil
	}

	toolID := all[i].ToolID
	current, err := s.GetDefaultID(ctx, toolID)
	if err != nil {
		return err
	}
	if current == id {
		if err := s.ClearDefault(ctx, toolID); err != nil {
			return err
		}
	}

	return s.recipes.Update(ctx, func(all []models.Recipe) ([]models.Recipe, error) {
		return slices.DeleteFunc(all, func(r models.Recipe) bool { return r.ID == id }), nil
	})
}

// SetDefault makes recipeID the default of toolID.
func (s *Service) SetDefault(ctx context.Context, toolID, recipeID string) error {
	r, err := s.Get(ctx, recipeID)
	if err != nil {
		return err
	}
	if r.ToolID != toolID {
		return refused(ErrToolMismatch)
	}
	return s.storage.SetJSON(ctx, repository.DefaultPresetKey(toolID), recipeID)
}

// ClearDefault removes toolID's default.
func (s *Service) ClearDefault(ctx context.Context, toolID string) error {
	return s.storage.SetJSON(ctx, repository.DefaultPresetKey(toolID), "")
}

// GetDefaultID returns toolID's default recipe id, or "" when none is set.
func (s *Service) GetDefaultID(ctx context.Context, toolID string) (string, error) {
	var id string
	if _, err := s.storage.GetJSON(ctx, repository.DefaultPresetKey(toolID), &id); err != nil {
		return "", err
	}
	return id, nil
}

// GetDefault returns toolID's default recipe. A pointer to a recipe that no
// longer exists, or that belongs to another tool, reads as no default.
func (s *Service) GetDefault(ctx context.Context, toolID string) (models.Recipe, bool, error) {
	id, err := s.GetDefaultID(ctx, toolID)
	if err != nil || id == "" {
		return models.Recipe{}, false, err
	}
	r, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.Recipe{}, false, nil
	}
	if err != nil {
		return models.Recipe{}, false, err
	}
	if r.ToolID != toolID {
		return models.Recipe{}, false, nil
	}
	return r, true, nil
}
