// Package workflow runs ordered transform chains and stores named ones.
package workflow

import (
	"fmt"

	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

// Step statuses reported by Trace.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// StepError names the step of a chain that could not run.
type StepError struct {
	Index       int
	TransformID string
	Err         error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.TransformID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// StepResult is the outcome of one step in a traced run.
type StepResult struct {
	Index       int    `json:"index"`
	TransformID string `json:"transformId"`
	Status      string `json:"status"`
	Output      string `json:"output,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Run feeds input through steps in order and returns the last output. An
// empty chain returns input unchanged. A step referencing an unknown
// transform, or holding an option of the wrong type, fails the whole run
// with a *StepError.
func Run(reg *transform.Registry, input string, steps []models.WorkflowStep) (string, error) {
	current := input
	for i, step := range steps {
		out, err := applyStep(reg, current, step)
		if err != nil {
			return "", &StepError{Index: i, TransformID: step.TransformID, Err: err}
		}
		current = out
	}
	return current, nil
}

// Trace runs steps like Run and also reports each step's output. Steps after
// a failure are marked skipped.
func Trace(reg *transform.Registry, input string, steps []models.WorkflowStep) ([]StepResult, string, error) {
	results := make([]StepResult, len(steps))
	current := input
	var runErr error
	for i, step := range steps {
		results[i] = StepResult{Index: i, TransformID: step.TransformID}
		if runErr != nil {
			results[i].Status = StatusSkipped
			continue
		}
		out, err := applyStep(reg, current, step)
		if err != nil {
			runErr = &StepError{Index: i, TransformID: step.TransformID, Err: err}
			results[i].Status = StatusFailed
			results[i].Error = err.Error()
			continue
		}
		current = out
		results[i].Status = StatusSuccess
		results[i].Output = out
	}
	if runErr != nil {
		return results, "", runErr
	}
	return results, current, nil
}

// Validate checks that every step names a registered transform and that its
// options decode.
func Validate(reg *transform.Registry, steps []models.WorkflowStep) error {
	for i, step := range steps {
		def, err := reg.Get(transform.ID(step.TransformID))
		if err == nil {
			_, err = def.Decode(step.Options)
		}
		if err != nil {
			return &StepError{Index: i, TransformID: step.TransformID, Err: err}
		}
	}
	return nil
}

func applyStep(reg *transform.Registry, input string, step models.WorkflowStep) (string, error) {
	def, err := reg.Get(transform.ID(step.TransformID))
	if err != nil {
		return "", err
	}
	return def.Apply(input, step.Options)
}
