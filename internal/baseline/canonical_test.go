package baseline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical_KeyOrderIndependent(t *testing.T) {
	a, err := Canonical(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	b, err := Canonical(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, `{"a":1,"b":2}`, a)

	same, err := Equal(
		map[string]any{"outer": map[string]any{"z": true, "y": []any{1, 2}}},
		map[string]any{"outer": map[string]any{"y": []any{1, 2}, "z": true}},
	)
	require.NoError(t, err)
	assert.True(t, same)
}

func TestCanonical_ArraysKeepOrder(t *testing.T) {
	same, err := Equal([]any{1, 2}, []any{2, 1})
	require.NoError(t, err)
	assert.False(t, same)
}

func TestCanonical_Times(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 3, 1, 12, 30, 0, 123456789, loc)
	got, err := Canonical(map[string]any{"at": ts})
	require.NoError(t, err)
	assert.Equal(t, `{"at":"2024-03-01T10:30:00.123Z"}`, got)
}

func TestCanonical_Cycles(t *testing.T) {
	m := map[string]any{"name": "loop"}
	m["self"] = m
	got, err := Canonical(m)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"loop","self":"[Circular]"}`, got)

	type node struct {
		Value int   `json:"value"`
		Next  *node `json:"next,omitempty"`
	}
	n := &node{Value: 1}
	n.Next = n
	got, err = Canonical(n)
	require.NoError(t, err)
	assert.Equal(t, `{"next":"[Circular]","value":1}`, got)
}

func TestCanonical_SharedButAcyclicIsNotCircular(t *testing.T) {
	shared := map[string]any{"k": 1}
	got, err := Canonical(map[string]any{"a": shared, "b": shared})
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"k":1},"b":{"k":1}}`, got)
}

func TestCanonical_StructTags(t *testing.T) {
	type opts struct {
		Zeta   string `json:"zeta"`
		Alpha  int    `json:"alpha"`
		Hidden string `json:"-"`
		Empty  string `json:"empty,omitempty"`
		secret int
	}
	got, err := Canonical(opts{Zeta: "z", Alpha: 1, Hidden: "h", secret: 2})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":1,"zeta":"z"}`, got)
}

func TestCanonical_Unsupported(t *testing.T) {
	_, err := Canonical(map[string]any{"fn": func() {}})
	assert.Error(t, err)
}
