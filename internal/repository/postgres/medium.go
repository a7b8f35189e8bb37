package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/casebuddy/internal/errs"
	"github.com/and161185/casebuddy/internal/repository"
)

var _ repository.Medium = (*Medium)(nil)

// Medium implements repository.Medium on the kv table created by the migrations.
type Medium struct{ db *DB }

// NewMedium constructs a Postgres-backed medium.
func NewMedium(db *DB) *Medium { return &Medium{db: db} }

// Get selects the value stored under key.
func (m *Medium) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT value FROM kv WHERE key=$1`
	var v []byte
	if err := m.db.Pool.QueryRow(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

// Set upserts key.
func (m *Medium) Set(ctx context.Context, key string, value []byte) error {
	const q = `
INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()`
	if value == nil {
		value = []byte{}
	}
	_, err := m.db.Pool.Exec(ctx, q, key, value)
	return err
}

// Delete removes key; a missing key is not an error.
func (m *Medium) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM kv WHERE key=$1`
	_, err := m.db.Pool.Exec(ctx, q, key)
	return err
}

// Close closes the pool.
func (m *Medium) Close() error {
	m.db.Close()
	return nil
}
