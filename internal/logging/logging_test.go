package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	_, err := New("loud", false)
	assert.Error(t, err)

	l, err := New("debug", true)
	require.NoError(t, err)
	l.Debug("ready", "k", 1)
}

func TestLogger_KeyValues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := (&Logger{sugar: zap.New(core).Sugar()}).With("origin", "acme.com")

	l.Info("workflow saved", "id", "w1")
	l.Warn("slow step", "index", 2)
	l.Error("persist failed", "error", "quota")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "workflow saved", entries[0].Message)
	assert.Equal(t, map[string]any{"origin": "acme.com", "id": "w1"}, entries[0].ContextMap())
	assert.Equal(t, int64(2), entries[1].ContextMap()["index"])
}
