// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/tenantx/internal/platform/constants"
	redisclient "github.com/taibuivan/tenantx/internal/platform/redis"
)

// RedisStore keeps one Redis string per entry under "tenantx:session:<profile>:".
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps client for the given profile. The store takes ownership
// of client and closes it on [RedisStore.Close].
func NewRedisStore(client redis.UniversalClient, profile string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: constants.RedisPrefixSession + profile + ":",
	}
}

/*
Get retrieves a single entry.

Parameters:
  - context: context.Context
  - key: string (unprefixed)

Returns:
  - string: stored value
  - bool: false when the key is absent
  - error: connectivity errors
*/
func (repository *RedisStore) Get(context context.Context, key string) (string, bool, error) {
	value, err := repository.client.Get(context, repository.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv: redis get: %w", err)
	}
	return value, true, nil
}

// GetMany implements [BulkReader] with one MGET.
func (repository *RedisStore) GetMany(context context.Context, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = repository.prefix + key
	}

	results, err := repository.client.MGet(context, prefixed...).Result()
	if err != nil {
		return nil, fmt.Errorf("kv: redis mget: %w", err)
	}

	for i, result := range results {
		if value, ok := result.(string); ok {
			values[keys[i]] = value
		}
	}
	return values, nil
}

/*
Set writes a single entry without expiry.

Token lifetime is enforced by the backend, not by Redis TTLs.
*/
func (repository *RedisStore) Set(context context.Context, key, value string) error {
	if err := repository.client.Set(context, repository.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("kv: redis set: %w", err)
	}
	return nil
}

// Delete implements [Store] with a single DEL.
func (repository *RedisStore) Delete(context context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = repository.prefix + key
	}

	if err := repository.client.Del(context, prefixed...).Err(); err != nil {
		return fmt.Errorf("kv: redis delete: %w", err)
	}
	return nil
}

// Ping implements [Store].
func (repository *RedisStore) Ping(context context.Context) error {
	return redisclient.Ping(context, repository.client)
}

// Close implements [Store].
func (repository *RedisStore) Close() error {
	return repository.client.Close()
}
