// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	pgstore "github.com/taibuivan/tenantx/internal/platform/postgres"
)

// PostgresStore keeps one row per entry in session_entries, keyed by profile.
//
// The schema is created by the migrations under data/migrations.
type PostgresStore struct {
	pool    *pgxpool.Pool
	profile string
}

// NewPostgresStore wraps pool for the given profile. The store takes ownership
// of pool and closes it on [PostgresStore.Close].
func NewPostgresStore(pool *pgxpool.Pool, profile string) *PostgresStore {
	return &PostgresStore{pool: pool, profile: profile}
}

/*
Get retrieves a single entry.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - string: stored value
  - bool: false when no row exists
  - error: connectivity errors
*/
func (repository *PostgresStore) Get(context context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM session_entries WHERE profile = $1 AND key = $2`

	var value string
	err := repository.pool.QueryRow(context, query, repository.profile, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv: postgres get: %w", err)
	}

	return value, true, nil
}

// GetMany implements [BulkReader] with a single statement.
func (repository *PostgresStore) GetMany(context context.Context, keys ...string) (map[string]string, error) {
	const query = `SELECT key, value FROM session_entries WHERE profile = $1 AND key = ANY($2)`

	rows, err := repository.pool.Query(context, query, repository.profile, keys)
	if err != nil {
		return nil, fmt.Errorf("kv: postgres get many: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, len(keys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("kv: postgres get many: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kv: postgres get many: %w", err)
	}
	return values, nil
}

/*
Set upserts a single entry and refreshes its updated_at timestamp.
*/
func (repository *PostgresStore) Set(context context.Context, key, value string) error {
	const query = `
		INSERT INTO session_entries (profile, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (profile, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if _, err := repository.pool.Exec(context, query, repository.profile, key, value); err != nil {
		return fmt.Errorf("kv: postgres set: %w", err)
	}
	return nil
}

// Delete implements [Store] with a single statement.
func (repository *PostgresStore) Delete(context context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	const query = `DELETE FROM session_entries WHERE profile = $1 AND key = ANY($2)`

	if _, err := repository.pool.Exec(context, query, repository.profile, keys); err != nil {
		return fmt.Errorf("kv: postgres delete: %w", err)
	}
	return nil
}

// Ping implements [Store].
func (repository *PostgresStore) Ping(context context.Context) error {
	return pgstore.Ping(context, repository.pool)
}

// Close implements [Store].
func (repository *PostgresStore) Close() error {
	repository.pool.Close()
	return nil
}
