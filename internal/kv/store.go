// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package kv is the durable key-value primitive underneath the session store.

Every backend persists flat string entries that are written and removed one key
at a time. Nothing is batched; a Set or Delete that returns nil is durable.
Backends shared between processes also implement [BulkReader], so a reader sees
every key from the same moment.

Backends:

  - memory: process-local map, for tests and the stateless BFF.
  - file: a YAML document rewritten atomically on every change (CLI default).
  - redis: one string per key under a profile prefix.
  - postgres: one row per key in session_entries.
*/
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv: store is closed")

// Store is a durable string key-value store scoped to one session profile.
type Store interface {
	// Get returns the value of key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes key. The write is durable when Set returns nil.
	Set(ctx context.Context, key, value string) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// BulkReader reads several keys from one consistent view of the backend.
type BulkReader interface {
	// GetMany returns the present keys among keys. Absent keys are omitted.
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
}
