package toolstate

import (
	"context"

	"github.com/RIGishan/text-toolkit/internal/events"
	"github.com/RIGishan/text-toolkit/internal/repository"
)

// Access reads and replaces tool option objects without being a consumer
// itself. Recipes and baselines go through it.
type Access struct {
	storage *repository.Storage
	bus     *events.Bus
}

// NewAccess returns an Access over storage and bus.
func NewAccess(storage *repository.Storage, bus *events.Bus) *Access {
	return &Access{storage: storage, bus: bus}
}

// Load returns the persisted option object of toolID and whether one exists.
func (a *Access) Load(ctx context.Context, toolID string) (map[string]any, bool, error) {
	var state map[string]any
	ok, err := a.storage.GetJSON(ctx, Key(toolID), &state)
	if err != nil || !ok || state == nil {
		return nil, false, err
	}
	return state, true, nil
}

// Store persists state for toolID and announces it to every consumer.
func (a *Access) Store(ctx context.Context, toolID string, state map[string]any) error {
	if err := a.storage.SetJSON(ctx, Key(toolID), state); err != nil {
		return err
	}
	a.bus.Publish(events.Update{Key: Key(toolID), Origin: events.Local})
	return nil
}
