// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// FileStore persists entries as a flat YAML mapping in a single file.
//
// The file is re-read on every Get so that separate CLI invocations observe each
// other's writes, and rewritten through a temp file and rename on every change.
type FileStore struct {
	mu     sync.Mutex
	path   string
	closed bool
}

// NewFileStore returns a store backed by the file at path. The parent
// directory is created when missing; the file itself is created on first write.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, fmt.Errorf("kv: create session dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file location.
func (store *FileStore) Path() string { return store.path }

/*
Get reads the document and returns one entry.

Parameters:
  - context: context.Context (unused, the read is local)
  - key: string

Returns:
  - string: stored value
  - bool: false when the key or the whole file is absent
  - error: unreadable or corrupt document
*/
func (store *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.closed {
		return "", false, ErrClosed
	}

	entries, err := store.read()
	if err != nil {
		return "", false, err
	}

	value, ok := entries[key]
	return value, ok, nil
}

// GetMany implements [BulkReader] with a single read of the document.
func (store *FileStore) GetMany(_ context.Context, keys ...string) (map[string]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.closed {
		return nil, ErrClosed
	}

	entries, err := store.read()
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := entries[key]; ok {
			values[key] = value
		}
	}
	return values, nil
}

// Set implements [Store].
func (store *FileStore) Set(_ context.Context, key, value string) error {
	return store.update(func(entries map[string]string) bool {
		if current, ok := entries[key]; ok && current == value {
			return false
		}
		entries[key] = value
		return true
	})
}

// Delete implements [Store].
func (store *FileStore) Delete(_ context.Context, keys ...string) error {
	return store.update(func(entries map[string]string) bool {
		changed := false
		for _, key := range keys {
			if _, ok := entries[key]; ok {
				delete(entries, key)
				changed = true
			}
		}
		return changed
	})
}

// Ping reports whether the document is readable.
func (store *FileStore) Ping(context.Context) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.closed {
		return ErrClosed
	}
	_, err := store.read()
	return err
}

// Close implements [Store].
func (store *FileStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.closed = true
	return nil
}

// # File Helpers

// update applies mutate to the current document and rewrites it if mutate
// reports a change.
func (store *FileStore) update(mutate func(map[string]string) bool) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.closed {
		return ErrClosed
	}

	entries, err := store.read()
	if err != nil {
		return err
	}

	if !mutate(entries) {
		return nil
	}

	return store.write(entries)
}

// read decodes the document. A missing or empty file is an empty mapping.
func (store *FileStore) read() (map[string]string, error) {
	entries := make(map[string]string)

	data, err := os.ReadFile(store.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("kv: file read: %w", err)
	}

	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("kv: file decode %s: %w", store.path, err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}

	return entries, nil
}

// write replaces the document atomically.
func (store *FileStore) write(entries map[string]string) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("kv: file encode: %w", err)
	}

	temp, err := os.CreateTemp(filepath.Dir(store.path), ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("kv: file write: %w", err)
	}
	tempPath := temp.Name()
	defer func() { _ = os.Remove(tempPath) }()

	if err := temp.Chmod(fileMode); err != nil {
		_ = temp.Close()
		return fmt.Errorf("kv: file chmod: %w", err)
	}
	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		return fmt.Errorf("kv: file write: %w", err)
	}
	if err := temp.Sync(); err != nil {
		_ = temp.Close()
		return fmt.Errorf("kv: file sync: %w", err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("kv: file close: %w", err)
	}

	if err := os.Rename(tempPath, store.path); err != nil {
		return fmt.Errorf("kv: file rename: %w", err)
	}

	return nil
}
