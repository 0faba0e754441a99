package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// KVStore is a repository.Medium backed by the kv_store table.
type KVStore struct{ db *DB }

func NewKVStore(db *DB) *KVStore { return &KVStore{db: db} }

const (
	qKVGet = `SELECT value FROM kv_store WHERE key = $1;`

	qKVSet = `
INSERT INTO kv_store (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = NOW();`
)

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var v string
	err := s.db.Pool.QueryRow(ctx, qKVGet, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select kv %q: %w", key, err)
	}
	return v, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.Pool.Exec(ctx, qKVSet, key, value); err != nil {
		return fmt.Errorf("upsert kv %q: %w", key, err)
	}
	return nil
}
