package recipe

import (
	"context"
	"errors"

	"github.com/RIGishan/text-toolkit/internal/baseline"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

// Shell is the host view of one tool: it loads and saves recipes for that
// tool and tracks whether the tool's options drifted from the active one.
type Shell struct {
	toolID  string
	service *Service
	tracker *baseline.Tracker
}

// Status summarises a shell for display.
type Status struct {
	ToolID    string         `json:"toolId"`
	Active    *models.Recipe `json:"active,omitempty"`
	DefaultID string         `json:"defaultId"`
	Modified  bool           `json:"modified"`
}

// NewShell returns a Shell for toolID.
func NewShell(service *Service, toolID string) *Shell {
	return &Shell{
		toolID:  toolID,
		service: service,
		tracker: baseline.NewTracker(service.states, toolID),
	}
}

// ToolID returns the tool this shell is bound to.
func (s *Shell) ToolID() string { return s.toolID }

// Open runs when the tool's view mounts. If the tool has a default recipe it
// is applied and becomes the baseline; the applied recipe is returned.
func (s *Shell) Open(ctx context.Context) (models.Recipe, bool, error) {
	r, ok, err := s.service.GetDefault(ctx, s.toolID)
	if err != nil || !ok {
		return models.Recipe{}, false, err
	}
	if err := s.activate(ctx, r); err != nil {
		return models.Recipe{}, false, err
	}
	return r, true, nil
}

// Recipes lists the recipes saved for this tool.
func (s *Shell) Recipes(ctx context.Context) ([]models.Recipe, error) {
	return s.service.ListForTool(ctx, s.toolID)
}

// SaveCurrent snapshots the tool's options and makes the new recipe the
// baseline.
func (s *Shell) SaveCurrent(ctx context.Context, name string) (models.Recipe, error) {
	r, err := s.service.CreateFromCurrent(ctx, s.toolID, name)
	if r.ID == "" {
		return r, err
	}
	if cerr := s.tracker.Capture(r); cerr != nil {
		return r, cerr
	}
	return r, err
}

// Load applies recipeID to the tool and makes it the baseline.
func (s *Shell) Load(ctx context.Context, recipeID string) (models.Recipe, error) {
	r, err := s.service.Get(ctx, recipeID)
	if err != nil {
		return models.Recipe{}, err
	}
	if err := s.activate(ctx, r); err != nil {
		return models.Recipe{}, err
	}
	return r, nil
}

// Revert restores the baseline. It is refused with ErrNoBaseline when no
// recipe is active.
func (s *Shell) Revert(ctx context.Context) error {
	err := s.tracker.Revert(ctx)
	if errors.Is(err, baseline.ErrNoBaseline) {
		return refused(ErrNoBaseline)
	}
	return err
}

// Modified reports whether the tool's options differ from the baseline.
func (s *Shell) Modified(ctx context.Context) (bool, error) {
	return s.tracker.IsModified(ctx)
}

// Active returns the baseline recipe.
func (s *Shell) Active() (models.Recipe, bool) {
	return s.tracker.Active()
}

// SetDefault makes recipeID this tool's default.
func (s *Shell) SetDefault(ctx context.Context, recipeID string) error {
	return s.service.SetDefault(ctx, s.toolID, recipeID)
}

// ClearDefault removes this tool's default.
func (s *Shell) ClearDefault(ctx context.Context) error {
	return s.service.ClearDefault(ctx, s.toolID)
}

// Delete removes recipeID. Deleting the active recipe drops the baseline.
func (s *Shell) Delete(ctx context.Context, recipeID string) error {
	if err := s.service.Delete(ctx, recipeID); err != nil {
		return err
	}
	if active, ok := s.tracker.Active(); ok && active.ID == recipeID {
		s.tracker.Clear()
	}
	return nil
}

// Status reports the active recipe, the default and the modified flag.
func (s *Shell) Status(ctx context.Context) (Status, error) {
	st := Status{ToolID: s.toolID}
	if active, ok := s.tracker.Active(); ok {
		st.Active = &active
	}
	id, err := s.service.GetDefaultID(ctx, s.toolID)
	if err != nil {
		return st, err
	}
	st.DefaultID = id
	st.Modified, err = s.tracker.IsModified(ctx)
	return st, err
}

func (s *Shell) activate(ctx context.Context, r models.Recipe) error {
	if err := s.service.Apply(ctx, s.toolID, r); err != nil {
		return err
	}
	return s.tracker.Capture(r)
}
