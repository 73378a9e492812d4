package workflow

import (
	"errors"
	"fmt"

	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

// ErrIndex is returned for a step index outside the chain.
var ErrIndex = errors.New("step index out of range")

// Chain is an editable in-memory step list. Edits never touch storage;
// callers save explicitly.
type Chain struct {
	registry *transform.Registry
	steps    []models.WorkflowStep
}

// NewChain returns a chain holding a copy of steps.
func NewChain(reg *transform.Registry, steps []models.WorkflowStep) *Chain {
	c := &Chain{registry: reg}
	c.Replace(steps)
	return c
}

// Steps returns a copy of the current steps.
func (c *Chain) Steps() []models.WorkflowStep {
	return models.CloneSteps(c.steps)
}

// Len returns the number of steps.
func (c *Chain) Len() int { return len(c.steps) }

// Replace swaps the whole chain for a copy of steps, as when a saved
// workflow is loaded into the editor.
func (c *Chain) Replace(steps []models.WorkflowStep) {
	c.steps = models.CloneSteps(steps)
	if c.steps == nil {
		c.steps = []models.WorkflowStep{}
	}
}

// Append adds a step for id with the transform's default options.
func (c *Chain) Append(id transform.ID) error {
	defaults, err := c.registry.DefaultOptionsFor(id)
	if err != nil {
		return err
	}
	c.steps = append(c.steps, models.WorkflowStep{TransformID: string(id), Options: defaults})
	return nil
}

// Remove deletes the step at i.
func (c *Chain) Remove(i int) error {
	if err := c.check(i); err != nil {
		return err
	}
	c.steps = append(c.steps[:i], c.steps[i+1:]...)
	return nil
}

// MoveUp swaps step i with the one before it. Moving the first step is a
// no-op.
func (c *Chain) MoveUp(i int) { c.swap(i, i-1) }

// MoveDown swaps step i with the one after it. Moving the last step is a
// no-op.
func (c *Chain) MoveDown(i int) { c.swap(i, i+1) }

// Reset restores step i's options to the transform defaults.
func (c *Chain) Reset(i int) error {
	if err := c.check(i); err != nil {
		return err
	}
	defaults, err := c.registry.DefaultOptionsFor(transform.ID(c.steps[i].TransformID))
	if err != nil {
		return err
	}
	c.steps[i].Options = defaults
	return nil
}

// SetOption sets one option value on step i.
func (c *Chain) SetOption(i int, key string, value any) error {
	if err := c.check(i); err != nil {
		return err
	}
	opts := models.CloneState(c.steps[i].Options)
	if opts == nil {
		opts = make(map[string]any)
	}
	opts[key] = value
	c.steps[i].Options = opts
	return nil
}

// Run executes the chain on input.
func (c *Chain) Run(input string) (string, error) {
	return Run(c.registry, input, c.steps)
}

// Trace executes the chain on input and reports every step.
func (c *Chain) Trace(input string) ([]StepResult, string, error) {
	return Trace(c.registry, input, c.steps)
}

func (c *Chain) swap(i, j int) {
	if i < 0 || j < 0 || i >= len(c.steps) || j >= len(c.steps) {
		return
	}
	c.steps[i], c.steps[j] = c.steps[j], c.steps[i]
}

func (c *Chain) check(i int) error {
	if i < 0 || i >= len(c.steps) {
		return fmt.Errorf("%w: %d of %d", ErrIndex, i, len(c.steps))
	}
	return nil
}
