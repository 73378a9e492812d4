package workflow

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

func ids(steps []models.WorkflowStep) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.TransformID
	}
	return out
}

func TestChain_Edits(t *testing.T) {
	reg := transform.Builtin()
	c := NewChain(reg, DefaultSteps(reg))
	require.Equal(t, []string{"transcript/clean", "whitespace/normalize"}, ids(c.Steps()))

	require.NoError(t, c.Append(transform.DedupeLines))
	assert.Equal(t, 3, c.Len())
	defaults, _ := reg.DefaultOptionsFor(transform.DedupeLines)
	assert.Equal(t, defaults, c.Steps()[2].Options)

	c.MoveUp(0)
	c.MoveDown(2)
	assert.Equal(t, []string{"transcript/clean", "whitespace/normalize", "text/dedupe-lines"}, ids(c.Steps()), "boundary moves are no-ops")

	c.MoveUp(2)
	assert.Equal(t, []string{"transcript/clean", "text/dedupe-lines", "whitespace/normalize"}, ids(c.Steps()))
	c.MoveDown(0)
	assert.Equal(t, []string{"text/dedupe-lines", "transcript/clean", "whitespace/normalize"}, ids(c.Steps()))

	require.NoError(t, c.Remove(1))
	assert.Equal(t, []string{"text/dedupe-lines", "whitespace/normalize"}, ids(c.Steps()))

	assert.ErrorIs(t, c.Remove(5), ErrIndex)
	assert.ErrorIs(t, c.Append("text/nope"), transform.ErrNotFound)
}

func TestChain_SetOptionAndReset(t *testing.T) {
	reg := transform.Builtin()
	c := NewChain(reg, nil)
	require.NoError(t, c.Append(transform.WhitespaceNormalize))

	require.NoError(t, c.SetOption(0, "maxBlankLines", 3))
	assert.Equal(t, 3, c.Steps()[0].Options["maxBlankLines"])

	require.NoError(t, c.Reset(0))
	defaults, _ := reg.DefaultOptionsFor(transform.WhitespaceNormalize)
	if diff := cmp.Diff(defaults, c.Steps()[0].Options); diff != "" {
		t.Errorf("options after reset mismatch (-want +got):\n%s", diff)
	}

	assert.ErrorIs(t, c.SetOption(-1, "k", 1), ErrIndex)
	assert.ErrorIs(t, c.Reset(1), ErrIndex)
}

func TestChain_IsolatedFromSource(t *testing.T) {
	reg := transform.Builtin()
	source := DefaultSteps(reg)
	c := NewChain(reg, source)
	require.NoError(t, c.SetOption(0, "removeFillers", true))
	assert.Equal(t, false, source[0].Options["removeFillers"])

	steps := c.Steps()
	steps[0].Options["removeFillers"] = false
	assert.Equal(t, true, c.Steps()[0].Options["removeFillers"])
}

func TestChain_RunSample(t *testing.T) {
	reg := transform.Builtin()
	c := NewChain(reg, DefaultSteps(reg))
	out, err := c.Run(SampleTranscript)
	require.NoError(t, err)
	assert.NotContains(t, out, "[00:01]")
	assert.Contains(t, out, "SPEAKER 1: Um, hello everyone.")

	results, traced, err := c.Trace(SampleTranscript)
	require.NoError(t, err)
	assert.Equal(t, out, traced)
	assert.Len(t, results, 2)
}
