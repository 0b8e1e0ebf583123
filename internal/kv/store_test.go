// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tenantx/internal/kv"
)

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, store kv.Store) {
	t.Helper()
	ctx := context.Background()

	// 1. Absent key
	value, ok, err := store.Get(ctx, "accessToken")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)

	// 2. Round trip and overwrite
	require.NoError(t, store.Set(ctx, "accessToken", "a1"))
	require.NoError(t, store.Set(ctx, "refreshToken", "r1"))
	require.NoError(t, store.Set(ctx, "accessToken", "a2"))

	value, ok, err = store.Get(ctx, "accessToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a2", value)

	// 3. Empty values are stored, not treated as absent
	require.NoError(t, store.Set(ctx, "role", ""))
	_, ok, err = store.Get(ctx, "role")
	require.NoError(t, err)
	assert.True(t, ok)

	// 4. Delete, including keys that never existed
	require.NoError(t, store.Delete(ctx, "accessToken", "role", "neverSet"))
	_, ok, err = store.Get(ctx, "accessToken")
	require.NoError(t, err)
	assert.False(t, ok)

	value, ok, err = store.Get(ctx, "refreshToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "r1", value)

	// 5. Delete with no keys is a no-op
	require.NoError(t, store.Delete(ctx))
	assert.NoError(t, store.Ping(ctx))

	// 6. Bulk reads return present keys only
	if bulk, ok := store.(kv.BulkReader); ok {
		values, err := bulk.GetMany(ctx, "refreshToken", "accessToken")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"refreshToken": "r1"}, values)
	}
}

func TestMemoryStore(t *testing.T) {
	store := kv.NewMemoryStore()
	exerciseStore(t, store)

	assert.Equal(t, map[string]string{"refreshToken": "r1"}, store.Entries())

	require.NoError(t, store.Close())
	_, _, err := store.Get(context.Background(), "refreshToken")
	assert.ErrorIs(t, err, kv.ErrClosed)
	assert.ErrorIs(t, store.Set(context.Background(), "k", "v"), kv.ErrClosed)
}

func TestProfilePath(t *testing.T) {
	assert.Equal(t, "/cfg/tenantx/session.yaml", kv.ProfilePath("/cfg/tenantx/session.yaml", "default"))
	assert.Equal(t, "/cfg/tenantx/session-staging.yaml", kv.ProfilePath("/cfg/tenantx/session.yaml", "staging"))
}
