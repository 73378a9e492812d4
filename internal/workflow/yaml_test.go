package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RIGishan/text-toolkit/internal/repository"
	"github.com/RIGishan/text-toolkit/internal/transform"
)

func TestYAML_ExportImport(t *testing.T) {
	ctx := context.Background()
	reg := transform.Builtin()
	store, _ := newStore(repository.NewMemoryKVStore())
	saved, err := store.Save(ctx, "Transcript cleanup", DefaultSteps(reg))
	require.NoError(t, err)

	data, err := ExportYAML(saved)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: 1")
	assert.Contains(t, string(data), "transformId: transcript/clean")

	decoded, err := ImportYAML(data)
	require.NoError(t, err)
	assert.Equal(t, saved.Name, decoded.Name)

	imported, err := store.Import(ctx, decoded)
	require.NoError(t, err)
	assert.NotEqual(t, saved.ID, imported.ID)

	in := "[00:01] Bob - hi   \n\n\n\nbye"
	want, err := Run(reg, in, saved.Steps)
	require.NoError(t, err)
	got, err := Run(reg, in, imported.Steps)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestYAML_ImportRejects(t *testing.T) {
	_, err := ImportYAML([]byte("version: 2\nworkflow:\n  name: x\n"))
	assert.Error(t, err)

	_, err = ImportYAML([]byte(":\n  - ["))
	assert.Error(t, err)

	w, err := ImportYAML([]byte("version: 1\nworkflow:\n  name: bare\n  steps:\n    - transformId: text/dedupe-lines\n"))
	require.NoError(t, err)
	require.Len(t, w.Steps, 1)
	assert.NotNil(t, w.Steps[0].Options)
}
