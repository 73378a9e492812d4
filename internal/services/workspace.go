// Package services assembles the storage-backed components into per-origin
// workspaces and runs transform pipelines with metrics.
package services

import (
	"sync"

	"github.com/RIGishan/text-toolkit/internal/events"
	"github.com/RIGishan/text-toolkit/internal/recipe"
	"github.com/RIGishan/text-toolkit/internal/repository"
	"github.com/RIGishan/text-toolkit/internal/toolstate"
	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/internal/workflow"
)

// Workspace is everything one origin sees: its own key space, a bus bridged
// to changes made by other writers, and the stores built on top of them.
type Workspace struct {
	Origin    string
	Storage   *repository.Storage
	Bus       *events.Bus
	Workflows *workflow.Store
	Recipes   *recipe.Service
	States    *toolstate.Access

	mu     sync.Mutex
	shells map[string]*recipe.Shell
	stop   func()
}

// NewWorkspace builds a workspace over kv. Keys are not scoped; use
// Workspaces for origin isolation.
func NewWorkspace(origin string, kv repository.KVStore, reg *transform.Registry, logger Logger, opts ...WorkspaceOption) *Workspace {
	var o workspaceOptions
	for _, opt := range opts {
		opt(&o)
	}

	storage := repository.NewStorage(kv, logger)
	bus := events.NewBus()
	states := toolstate.NewAccess(storage, bus)
	return &Workspace{
		Origin:    origin,
		Storage:   storage,
		Bus:       bus,
		Workflows: workflow.NewStore(storage, reg, o.workflow...),
		Recipes:   recipe.NewService(storage, states, o.recipe...),
		States:    states,
		shells:    make(map[string]*recipe.Shell),
		stop:      bus.Bridge(storage),
	}
}

// WorkspaceOption configures the stores of a new workspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	workflow []workflow.Option
	recipe   []recipe.Option
}

// WithWorkflowOptions passes opts to the workflow store.
func WithWorkflowOptions(opts ...workflow.Option) WorkspaceOption {
	return func(o *workspaceOptions) { o.workflow = append(o.workflow, opts...) }
}

// WithRecipeOptions passes opts to the recipe service.
func WithRecipeOptions(opts ...recipe.Option) WorkspaceOption {
	return func(o *workspaceOptions) { o.recipe = append(o.recipe, opts...) }
}

// Shell returns the shell bound to toolID, creating it on first use. The
// same shell is returned for the life of the workspace so its baseline
// survives between requests.
func (w *Workspace) Shell(toolID string) *recipe.Shell {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.shells[toolID]
	if !ok {
		s = recipe.NewShell(w.Recipes, toolID)
		w.shells[toolID] = s
	}
	return s
}

// Close detaches the workspace from backend change notifications.
func (w *Workspace) Close() {
	w.stop()
}

// Workspaces hands out one cached Workspace per origin over a shared backend.
type Workspaces struct {
	backend  repository.KVStore
	registry *transform.Registry
	logger   Logger
	opts     []WorkspaceOption

	mu       sync.Mutex
	byOrigin map[string]*Workspace
}

// NewWorkspaces returns a Workspaces over backend.
func NewWorkspaces(backend repository.KVStore, reg *transform.Registry, logger Logger, opts ...WorkspaceOption) *Workspaces {
	return &Workspaces{
		backend:  backend,
		registry: reg,
		logger:   logger,
		opts:     opts,
		byOrigin: make(map[string]*Workspace),
	}
}

// Registry returns the transform catalog the workspaces validate against.
func (ws *Workspaces) Registry() *transform.Registry { return ws.registry }

// For returns the workspace of origin.
func (ws *Workspaces) For(origin string) *Workspace {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if w, ok := ws.byOrigin[origin]; ok {
		return w
	}
	w := NewWorkspace(origin, repository.Namespace(ws.backend, origin), ws.registry, ws.logger, ws.opts...)
	ws.byOrigin[origin] = w
	ws.logger.Debug("workspace opened", "origin", origin)
	return w
}

// Close closes every workspace handed out so far.
func (ws *Workspaces) Close() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for origin, w := range ws.byOrigin {
		w.Close()
		delete(ws.byOrigin, origin)
	}
}
