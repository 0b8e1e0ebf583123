// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps entries in a process-local map.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

// Get implements [Store].
func (store *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return "", false, ErrClosed
	}
	value, ok := store.entries[key]
	return value, ok, nil
}

// Set implements [Store].
func (store *MemoryStore) Set(_ context.Context, key, value string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.closed {
		return ErrClosed
	}
	store.entries[key] = value
	return nil
}

// Delete implements [Store].
func (store *MemoryStore) Delete(_ context.Context, keys ...string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.closed {
		return ErrClosed
	}
	for _, key := range keys {
		delete(store.entries, key)
	}
	return nil
}

// Ping implements [Store].
func (store *MemoryStore) Ping(context.Context) error {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return ErrClosed
	}
	return nil
}

// Close implements [Store].
func (store *MemoryStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.closed = true
	return nil
}

// Entries returns a copy of every stored entry.
func (store *MemoryStore) Entries() map[string]string {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return maps.Clone(store.entries)
}
