package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecipeClone_IsDeep(t *testing.T) {
	r := Recipe{ID: "r1", State: map[string]any{
		"nested": map[string]any{"a": 1.0},
		"list":   []any{"x", map[string]any{"b": true}},
	}}
	c := r.Clone()
	c.State["nested"].(map[string]any)["a"] = 2.0
	c.State["list"].([]any)[1].(map[string]any)["b"] = false

	assert.Equal(t, 1.0, r.State["nested"].(map[string]any)["a"])
	assert.Equal(t, true, r.State["list"].([]any)[1].(map[string]any)["b"])
}

func TestCloneSteps_Independent(t *testing.T) {
	steps := []WorkflowStep{{TransformID: "text/dedupe-lines", Options: map[string]any{"keepFirst": true}}}
	c := CloneSteps(steps)
	c[0].Options["keepFirst"] = false
	assert.Equal(t, true, steps[0].Options["keepFirst"])

	assert.Nil(t, CloneSteps(nil))
	assert.NotNil(t, WorkflowStep{TransformID: "x"}.Clone().Options)
}
