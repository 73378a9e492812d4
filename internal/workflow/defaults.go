package workflow

import (
	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

// SampleTranscript is the builder's starting input.
const SampleTranscript = `[00:01] SPEAKER 1 - Um, hello everyone.
(00:05) John Doe — like, I mean we should start now.
00:12 Jane: Uh, yeah, basically the agenda is...
00:20 - SPEAKER 1: You know, let's do it.

[00:33] John Doe: Great!`

// DefaultName is the builder's starting workflow name.
const DefaultName = "My workflow"

// DefaultSteps returns the builder's starting chain: transcript clean-up
// followed by whitespace normalization, both with default options.
func DefaultSteps(reg *transform.Registry) []models.WorkflowStep {
	ids := []transform.ID{transform.TranscriptClean, transform.WhitespaceNormalize}
	steps := make([]models.WorkflowStep, 0, len(ids))
	for _, id := range ids {
		defaults, err := reg.DefaultOptionsFor(id)
		if err != nil {
			continue
		}
		steps = append(steps, models.WorkflowStep{TransformID: string(id), Options: defaults})
	}
	return steps
}
