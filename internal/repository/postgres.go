package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChangeChannel is the NOTIFY channel every PostgresKVStore writes to.
const ChangeChannel = "kv_changes"

const schemaSQL = `CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresKVStore is a PostgreSQL implementation of KVStore shared by
// several server instances. Each write sends a notification tagged with the
// writing instance, and Listen delivers the other instances' changes to
// watchers.
type PostgresKVStore struct {
	db       *pgxpool.Pool
	logger   Logger
	instance string

	watchers  watchers
	ready     chan struct{}
	readyOnce sync.Once
}

type changeNotice struct {
	Source string `json:"source"`
	Key    string `json:"key"`
}

// NewPostgresKVStore creates a new PostgresKVStore.
func NewPostgresKVStore(db *pgxpool.Pool, logger Logger) *PostgresKVStore {
	return &PostgresKVStore{
		db:       db,
		logger:   logger,
		instance: uuid.NewString(),
		ready:    make(chan struct{}),
	}
}

// EnsureSchema creates the backing table when it does not exist.
func (s *PostgresKVStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// Get retrieves the value stored under key.
func (s *PostgresKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx, "SELECT value FROM kv_entries WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set upserts value and notifies the other instances in the same transaction.
func (s *PostgresKVStore) Set(ctx context.Context, key, value string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value)
		if err != nil {
			return err
		}
		return s.notify(ctx, tx, key)
	})
}

// Delete removes key. Other instances are only notified when a row existed.
func (s *PostgresKVStore) Delete(ctx context.Context, key string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "DELETE FROM kv_entries WHERE key = $1", key)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		return s.notify(ctx, tx, key)
	})
}

// Watch registers fn for keys changed by other instances. Nothing is
// delivered unless Listen is running.
func (s *PostgresKVStore) Watch(fn func(key string)) func() {
	return s.watchers.add(fn)
}

// Ready is closed once Listen has subscribed to the change channel.
func (s *PostgresKVStore) Ready() <-chan struct{} { return s.ready }

// Listen holds one pooled connection subscribed to ChangeChannel and
// dispatches notifications until ctx is done. Changes sent by this instance
// are skipped.
func (s *PostgresKVStore) Listen(ctx context.Context) error {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
		return fmt.Errorf("listen %s: %w", ChangeChannel, err)
	}
	s.readyOnce.Do(func() { close(s.ready) })
	s.logger.Info("listening for storage changes", "channel", ChangeChannel, "instance", s.instance)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		var notice changeNotice
		if err := json.Unmarshal([]byte(n.Payload), &notice); err != nil {
			s.logger.Error("malformed change notification", "payload", n.Payload, "error", err)
			continue
		}
		if notice.Source == s.instance {
			continue
		}
		s.watchers.notify(notice.Key)
	}
}

func (s *PostgresKVStore) notify(ctx context.Context, tx pgx.Tx, key string) error {
	payload, err := json.Marshal(changeNotice{Source: s.instance, Key: key})
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "SELECT pg_notify($1, $2)", ChangeChannel, string(payload))
	return err
}
