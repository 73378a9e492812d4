// Package models defines the persisted records shared by the workflow and
// recipe layers. JSON field names match the browser build so exported data
// round-trips between the two.
package models

// WorkflowStep is one transform reference plus its concrete option values.
type WorkflowStep struct {
	TransformID string         `json:"transformId" yaml:"transformId"`
	Options     map[string]any `json:"options" yaml:"options"`
}

// SavedWorkflow is a named, ordered chain of steps. Timestamps are epoch
// milliseconds.
type SavedWorkflow struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	CreatedAt int64          `json:"createdAt" yaml:"createdAt"`
	UpdatedAt int64          `json:"updatedAt" yaml:"updatedAt"`
	Steps     []WorkflowStep `json:"steps" yaml:"steps"`
}

// Clone returns a copy of the step with its own options map.
func (s WorkflowStep) Clone() WorkflowStep {
	opts := CloneState(s.Options)
	if opts == nil {
		opts = make(map[string]any)
	}
	return WorkflowStep{TransformID: s.TransformID, Options: opts}
}

// CloneSteps copies a step list so edits to the result never reach the source.
func CloneSteps(steps []WorkflowStep) []WorkflowStep {
	if steps == nil {
		return nil
	}
	out := make([]WorkflowStep, len(steps))
	for i, s := range steps {
		out[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the workflow.
func (w SavedWorkflow) Clone() SavedWorkflow {
	w.Steps = CloneSteps(w.Steps)
	return w
}
