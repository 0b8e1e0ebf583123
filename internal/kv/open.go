// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kv

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/taibuivan/tenantx/internal/platform/config"
	"github.com/taibuivan/tenantx/internal/platform/migration"
	pgstore "github.com/taibuivan/tenantx/internal/platform/postgres"
	redisclient "github.com/taibuivan/tenantx/internal/platform/redis"
	"github.com/taibuivan/tenantx/pkg/slug"
)

// DefaultProfile is the profile used when SESSION_PROFILE has no usable characters.
const DefaultProfile = "default"

// Open builds the backend selected by cfg.SessionStore.
//
// The postgres backend runs pending migrations before returning.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	profile := slug.Or(cfg.SessionProfile, DefaultProfile)

	switch cfg.SessionStore {
	case config.StoreMemory:
		return NewMemoryStore(), nil

	case config.StoreFile:
		path := ProfilePath(cfg.SessionFile, profile)
		logger.Debug("session_store_file", slog.String("path", path))
		return NewFileStore(path)

	case config.StoreRedis:
		client, err := redisclient.NewClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, profile), nil

	case config.StorePostgres:
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
			return nil, err
		}
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(pool, profile), nil
	}

	return nil, fmt.Errorf("kv: unknown backend %q", cfg.SessionStore)
}

// ProfilePath derives the session file of a profile: the default profile uses
// path unchanged, others get "-<profile>" before the extension.
func ProfilePath(path, profile string) string {
	if profile == DefaultProfile {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + profile + ext
}
