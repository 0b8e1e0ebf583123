// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package app is the construction point of the console.

It opens the session backend, builds the session store, the gateway and the
backend-call wrappers, and attaches the auth service as the store's identity
verifier. Commands and handlers receive the resulting [App] explicitly; there
is no process-wide session.
*/
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taibuivan/tenantx/internal/auth"
	"github.com/taibuivan/tenantx/internal/gateway"
	"github.com/taibuivan/tenantx/internal/kv"
	"github.com/taibuivan/tenantx/internal/organization"
	"github.com/taibuivan/tenantx/internal/platform/config"
	"github.com/taibuivan/tenantx/internal/project"
	"github.com/taibuivan/tenantx/internal/session"
	"github.com/taibuivan/tenantx/internal/task"
)

// App holds every long-lived component.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Backend kv.Store
	Session *session.Store
	Gateway *gateway.Client
	Metrics *gateway.Metrics

	Auth          *auth.Service
	Organizations *organization.Service
	Projects      *project.Service
	Tasks         *task.Service
}

// # Options

type options struct {
	backend     kv.Store
	httpClient  *http.Client
	onEnded     func(ctx context.Context)
	sessionOpts []session.Option
}

// Option customizes [New].
type Option func(*options)

// WithBackend uses an already opened kv backend instead of cfg.SessionStore.
func WithBackend(backend kv.Store) Option {
	return func(o *options) { o.backend = backend }
}

// WithHTTPClient replaces the gateway's HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithSessionEndedHook is called after the gateway forces a logout.
func WithSessionEndedHook(hook func(ctx context.Context)) Option {
	return func(o *options) { o.onEnded = hook }
}

// WithSessionOptions forwards options to the session store.
func WithSessionOptions(opts ...session.Option) Option {
	return func(o *options) { o.sessionOpts = append(o.sessionOpts, opts...) }
}

// # Construction

// New wires the application. A nil registry disables gateway metrics.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, registry prometheus.Registerer, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// 1. Session backend
	backend := o.backend
	if backend == nil {
		opened, err := kv.Open(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		backend = opened
	}

	// 2. Session store
	sessionOpts := append([]session.Option{
		session.WithLogger(logger),
		session.WithVerifyInterval(cfg.VerifyInterval),
	}, o.sessionOpts...)
	store := session.NewStore(backend, sessionOpts...)

	// 3. Gateway
	gatewayOpts := []gateway.Option{
		gateway.WithLogger(logger),
	}
	if o.httpClient != nil {
		gatewayOpts = append(gatewayOpts, gateway.WithHTTPClient(o.httpClient))
	}
	gatewayOpts = append(gatewayOpts, gateway.WithTimeout(cfg.HTTPTimeout))

	var metrics *gateway.Metrics
	if registry != nil {
		metrics = gateway.NewMetrics(registry)
		gatewayOpts = append(gatewayOpts, gateway.WithMetrics(metrics))
	}
	if o.onEnded != nil {
		gatewayOpts = append(gatewayOpts, gateway.WithSessionEndedHook(o.onEnded))
	}
	client := gateway.New(cfg.APIURL, store, gatewayOpts...)

	// 4. Wrappers
	authService := auth.NewService(client, store, logger)
	store.UseVerifier(authService)

	logger.Debug("app_initialized",
		slog.String("api_url", cfg.APIURL),
		slog.String("session_store", cfg.SessionStore),
	)

	return &App{
		Config:        cfg,
		Logger:        logger,
		Backend:       backend,
		Session:       store,
		Gateway:       client,
		Metrics:       metrics,
		Auth:          authService,
		Organizations: organization.NewService(client, store, logger),
		Projects:      project.NewService(client),
		Tasks:         task.NewService(client),
	}, nil
}

// Close stops background verification and releases the session backend.
func (a *App) Close() error {
	a.Session.StopPeriodicVerification()

	if err := a.Backend.Close(); err != nil && !errors.Is(err, kv.ErrClosed) {
		return err
	}
	return nil
}
