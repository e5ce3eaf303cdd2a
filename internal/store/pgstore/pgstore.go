// Package pgstore is an alternate store backend holding each collection as
// one JSONB document row. The read-full/replace-full contract is identical
// to the flat-file store.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/pkg/database"
)

const schema = `
	CREATE TABLE IF NOT EXISTS collections (
		name       TEXT PRIMARY KEY,
		data       JSONB NOT NULL DEFAULT '[]'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// Store serializes read-modify-write pairs per collection with in-process
// locks; it assumes a single server instance owns the table.
type Store struct {
	pool   *database.ConnectionPool
	logger *slog.Logger

	usersMu    sync.Mutex
	tasksMu    sync.Mutex
	messagesMu sync.Mutex
}

// New creates a Postgres-backed store and ensures the collections table
// exists.
func New(ctx context.Context, pool *database.ConnectionPool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := pool.GetDB().ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure collections table: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

func read[T any](ctx context.Context, s *Store, collection domain.Collection) []T {
	var raw []byte
	err := s.pool.GetDB().QueryRowContext(ctx,
		`SELECT data FROM collections WHERE name = $1`, string(collection),
	).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("collection unreadable, treating as empty",
				slog.String("collection", string(collection)),
				slog.String("error", err.Error()),
			)
		}
		return []T{}
	}
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		s.logger.Warn("collection malformed, treating as empty",
			slog.String("collection", string(collection)),
			slog.String("error", err.Error()),
		)
		return []T{}
	}
	if records == nil {
		records = []T{}
	}
	return records
}

func write[T any](ctx context.Context, s *Store, collection domain.Collection, records []T) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	_, err = s.pool.GetDB().ExecContext(ctx, `
		INSERT INTO collections (name, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, string(collection), data)
	if err != nil {
		return fmt.Errorf("persist %s: %w", collection, err)
	}
	return nil
}

func update[T any](ctx context.Context, s *Store, mu *sync.Mutex, collection domain.Collection, fn func([]T) ([]T, error)) ([]T, error) {
	mu.Lock()
	defer mu.Unlock()

	next, err := fn(read[T](ctx, s, collection))
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = []T{}
	}
	if err := write(ctx, s, collection, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) Users(ctx context.Context) ([]domain.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	return read[domain.User](ctx, s, domain.CollectionUsers), nil
}

func (s *Store) Tasks(ctx context.Context) ([]domain.Task, error) {
	s.tasksMu.Lock()
	defer s.tasksMu.Unlock()
	return read[domain.Task](ctx, s, domain.CollectionTasks), nil
}

func (s *Store) Messages(ctx context.Context) ([]domain.Message, error) {
	s.messagesMu.Lock()
	defer s.messagesMu.Unlock()
	return read[domain.Message](ctx, s, domain.CollectionMessages), nil
}

func (s *Store) UpdateUsers(ctx context.Context, fn func([]domain.User) ([]domain.User, error)) ([]domain.User, error) {
	return update(ctx, s, &s.usersMu, domain.CollectionUsers, fn)
}

func (s *Store) UpdateTasks(ctx context.Context, fn func([]domain.Task) ([]domain.Task, error)) ([]domain.Task, error) {
	return update(ctx, s, &s.tasksMu, domain.CollectionTasks, fn)
}

func (s *Store) UpdateMessages(ctx context.Context, fn func([]domain.Message) ([]domain.Message, error)) ([]domain.Message, error) {
	return update(ctx, s, &s.messagesMu, domain.CollectionMessages, fn)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Health(ctx)
}

func (s *Store) Close() error {
	return s.pool.Close()
}
