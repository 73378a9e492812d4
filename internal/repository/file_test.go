package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestFileKVStore_PersistsAcrossOpens(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "store.json")

	s, err := OpenFileKVStore(path, nopLogger{})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "b", "2"))
	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Close())

	reopened, err := OpenFileKVStore(path, nopLogger{})
	require.NoError(t, err)
	defer reopened.Close()

	_, ok, err := reopened.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	v, ok, err := reopened.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"store.json", "store.json.lock"}, names, "temp files must not be left behind")
}

func TestFileKVStore_ConcurrentWritersKeepEachOthersKeys(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	a, err := OpenFileKVStore(path, nopLogger{})
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenFileKVStore(path, nopLogger{})
	require.NoError(t, err)
	defer b.Close()

	const perWriter = 25
	var wg sync.WaitGroup
	for prefix, s := range map[string]*FileKVStore{"a": a, "b": b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				assert.NoError(t, s.Set(ctx, fmt.Sprintf("%s:%d", prefix, i), "v"))
			}
		}()
	}
	wg.Wait()

	data, err := a.read()
	require.NoError(t, err)
	assert.Len(t, data, 2*perWriter)
}

func TestFileKVStore_WatchReportsOtherWriters(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	writer, err := OpenFileKVStore(path, nopLogger{})
	require.NoError(t, err)
	defer writer.Close()
	reader, err := OpenFileKVStore(path, nopLogger{})
	require.NoError(t, err)
	defer reader.Close()

	readerSeen := make(chan string, 8)
	writerSeen := make(chan string, 8)
	reader.Watch(func(k string) { readerSeen <- k })
	writer.Watch(func(k string) { writerSeen <- k })

	require.NoError(t, writer.Set(ctx, "tt:toolState:json", `{"indent":2}`))

	select {
	case k := <-readerSeen:
		assert.Equal(t, "tt:toolState:json", k)
	case <-time.After(5 * time.Second):
		t.Fatal("reader was not notified")
	}

	v, ok, err := reader.Get(ctx, "tt:toolState:json")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"indent":2}`, v)

	select {
	case k := <-writerSeen:
		t.Fatalf("writer notified of its own write to %q", k)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileKVStore_BurstOfWritesIsCoalesced(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	writer, err := OpenFileKVStore(path, nopLogger{})
	require.NoError(t, err)
	defer writer.Close()
	reader, err := OpenFileKVStore(path, nopLogger{})
	require.NoError(t, err)
	defer reader.Close()

	var mu sync.Mutex
	notified := 0
	reader.Watch(func(string) {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	const writes = 10
	for i := range writes {
		require.NoError(t, writer.Set(ctx, "tt:workflows", fmt.Sprintf("[%d]", i)))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return notified > 0
	}, 5*time.Second, 10*time.Millisecond)
	time.Sleep(4 * settleDelay)

	mu.Lock()
	defer mu.Unlock()
	assert.Less(t, notified, writes)
}

func TestFileKVStore_CorruptFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := OpenFileKVStore(path, nopLogger{})
	assert.Error(t, err)
}
