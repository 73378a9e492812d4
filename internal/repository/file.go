package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
)

// settleDelay is how long the file must stay quiet before a burst of
// filesystem events is turned into one reload.
const settleDelay = 50 * time.Millisecond

// FileKVStore keeps every key in one JSON object file. Writes are atomic
// (temp file then rename) and serialized across processes by a lock file
// next to the store, so several processes can share it without losing each
// other's keys. Reads always go to disk. Changes made by other processes are
// reported to watchers; this process's own writes are not.
type FileKVStore struct {
	path   string
	lock   *flock.Flock
	logger Logger

	mu       sync.Mutex
	snapshot map[string]string

	watchers  watchers
	fsw       *fsnotify.Watcher
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// OpenFileKVStore opens (or creates) the store at path and starts watching
// its directory.
func OpenFileKVStore(path string, logger Logger) (*FileKVStore, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s := &FileKVStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
		done:   make(chan struct{}),
	}
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	s.snapshot = snap

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	s.fsw = fsw

	s.wg.Add(1)
	go s.loop()
	return s, nil
}

// Path returns the backing file.
func (s *FileKVStore) Path() string { return s.path }

func (s *FileKVStore) Get(_ context.Context, key string) (string, bool, error) {
	data, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (s *FileKVStore) Set(_ context.Context, key, value string) error {
	return s.mutate(func(data map[string]string) bool {
		data[key] = value
		return true
	})
}

func (s *FileKVStore) Delete(_ context.Context, key string) error {
	return s.mutate(func(data map[string]string) bool {
		if _, ok := data[key]; !ok {
			return false
		}
		delete(data, key)
		return true
	})
}

// Watch registers fn for keys changed by other processes.
func (s *FileKVStore) Watch(fn func(key string)) func() {
	return s.watchers.add(fn)
}

// Close stops the directory watcher.
func (s *FileKVStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.fsw.Close()
		s.wg.Wait()
		s.lock.Close()
	})
	return err
}

// mutate applies fn to the current file contents and writes the result when
// fn reports a change. Keys that other processes changed since the last
// snapshot are reported before the snapshot moves forward.
func (s *FileKVStore) mutate(fn func(map[string]string) bool) error {
	s.mu.Lock()
	external, err := s.mutateLocked(fn)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	for _, k := range external {
		s.watchers.notify(k)
	}
	return nil
}

// mutateLocked runs the read-modify-write cycle while holding the lock file.
func (s *FileKVStore) mutateLocked(fn func(map[string]string) bool) ([]string, error) {
	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Error("unlock store file", "path", s.lock.Path(), "error", err)
		}
	}()

	data, err := s.read()
	if err != nil {
		return nil, err
	}
	external := diffKeys(s.snapshot, data)
	if fn(data) {
		if err := s.write(data); err != nil {
			return nil, err
		}
	}
	s.snapshot = data
	return external, nil
}

func (s *FileKVStore) loop() {
	defer s.wg.Done()
	settle := time.NewTimer(settleDelay)
	settle.Stop()
	defer settle.Stop()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			settle.Reset(settleDelay)
		case <-settle.C:
			s.refresh()
		case err, ok := <-s.fsw.Errors:
			if !ok {
				return
			}
			s.logger.Error("file watcher error", "path", s.path, "error", err)
		}
	}
}

func (s *FileKVStore) refresh() {
	s.mu.Lock()
	data, err := s.read()
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("reload store file", "path", s.path, "error", err)
		return
	}
	changed := diffKeys(s.snapshot, data)
	s.snapshot = data
	s.mu.Unlock()

	for _, k := range changed {
		s.logger.Debug("external change", "key", k)
		s.watchers.notify(k)
	}
}

func (s *FileKVStore) read() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	data := make(map[string]string)
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileKVStore) write(data map[string]string) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".kv-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// diffKeys returns the keys whose presence or value differs between a and b.
func diffKeys(a, b map[string]string) []string {
	var out []string
	for k, av := range a {
		if bv, ok := b[k]; !ok || bv != av {
			out = append(out, k)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
