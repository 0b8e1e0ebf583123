// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tenantx/internal/kv"
	"github.com/taibuivan/tenantx/internal/platform/migration"
	pgstore "github.com/taibuivan/tenantx/internal/platform/postgres"
	"github.com/taibuivan/tenantx/pkg/uuid"
)

// migrationsDir locates data/migrations relative to this file.
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "data", "migrations")
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, migration.RunUp(dsn, migrationsDir(t), logger))

	pool, err := pgstore.NewPool(t.Context(), dsn, logger)
	require.NoError(t, err)

	// A unique profile isolates this run from others sharing the database
	profile := "test-" + uuid.New()
	store := kv.NewPostgresStore(pool, profile)
	defer store.Close()

	exerciseStore(t, store)

	other := kv.NewPostgresStore(pool, profile+"-other")
	_, ok, err := other.Get(t.Context(), "refreshToken")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete(t.Context(), "refreshToken"))
}
