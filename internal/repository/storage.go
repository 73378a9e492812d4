package repository

import (
	"context"
	"encoding/json"
	"fmt"
)

// Logical keys shared with the browser build. They must stay stable or
// existing user data is orphaned.
const (
	WorkflowsKey        = "tt:workflows"
	RecipesKey          = "tt:recipes"
	toolStatePrefix     = "tt:toolState:"
	defaultPresetPrefix = "tt:defaultPreset:"
)

// ToolStateKey returns the key holding a tool's current option object.
func ToolStateKey(toolID string) string { return toolStatePrefix + toolID }

// DefaultPresetKey returns the key holding a tool's default recipe id.
func DefaultPresetKey(toolID string) string { return defaultPresetPrefix + toolID }

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Storage wraps a KVStore with JSON helpers. Backend failures come back
// wrapped in ErrUnavailable and stored values that do not decode read as
// absent.
type Storage struct {
	kv     KVStore
	logger Logger
}

// NewStorage returns a Storage over kv.
func NewStorage(kv KVStore, logger Logger) *Storage {
	return &Storage{kv: kv, logger: logger}
}

// GetString returns the raw value for key.
func (s *Storage) GetString(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Error("storage read failed", "key", key, "error", err)
		return "", false, fmt.Errorf("%w: read %s: %v", ErrUnavailable, key, err)
	}
	return v, ok, nil
}

// SetString stores a raw value.
func (s *Storage) SetString(ctx context.Context, key, value string) error {
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.logger.Error("storage write failed", "key", key, "error", err)
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// GetJSON decodes the value for key into dst. It reports false when the key
// is missing or its value cannot be decoded into dst.
func (s *Storage) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := s.GetString(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Info("ignoring undecodable stored value", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func (s *Storage) SetJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.SetString(ctx, key, string(b))
}

// Remove deletes key.
func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Error("storage delete failed", "key", key, "error", err)
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Watch reports keys changed by other writers of the same backend. It is a
// no-op when the backend cannot watch.
func (s *Storage) Watch(fn func(key string)) func() {
	if w, ok := s.kv.(Watcher); ok {
		return w.Watch(fn)
	}
	return func() {}
}
