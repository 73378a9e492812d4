package baseline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RIGishan/text-toolkit/pkg/models"
)

type memoryStates struct {
	states map[string]map[string]any
	stores int
}

func (m *memoryStates) Load(_ context.Context, toolID string) (map[string]any, bool, error) {
	s, ok := m.states[toolID]
	return models.CloneState(s), ok, nil
}

func (m *memoryStates) Store(_ context.Context, toolID string, state map[string]any) error {
	m.stores++
	m.states[toolID] = models.CloneState(state)
	return nil
}

func TestTracker_NoBaseline(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(&memoryStates{states: map[string]map[string]any{}}, "json")

	modified, err := tr.IsModified(ctx)
	require.NoError(t, err)
	assert.False(t, modified)
	assert.ErrorIs(t, tr.Revert(ctx), ErrNoBaseline)
	_, ok := tr.Active()
	assert.False(t, ok)
}

func TestTracker_ModifiedAndRevert(t *testing.T) {
	ctx := context.Background()
	store := &memoryStates{states: map[string]map[string]any{
		"json": {"indent": 2.0, "sortKeys": true},
	}}
	tr := NewTracker(store, "json")
	recipe := models.Recipe{ID: "r1", ToolID: "json", State: map[string]any{"sortKeys": true, "indent": 2.0}}
	require.NoError(t, tr.Capture(recipe))

	recipe.State["indent"] = 8.0 // caller edits must not move the baseline

	modified, err := tr.IsModified(ctx)
	require.NoError(t, err)
	assert.False(t, modified)

	store.states["json"]["indent"] = 4.0
	modified, err = tr.IsModified(ctx)
	require.NoError(t, err)
	assert.True(t, modified)

	require.NoError(t, tr.Revert(ctx))
	assert.Equal(t, map[string]any{"indent": 2.0, "sortKeys": true}, store.states["json"])
	modified, err = tr.IsModified(ctx)
	require.NoError(t, err)
	assert.False(t, modified)

	active, ok := tr.Active()
	require.True(t, ok)
	assert.Equal(t, "r1", active.ID)

	tr.Clear()
	_, ok = tr.Active()
	assert.False(t, ok)
}
