// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the TenantX BFF (backend-for-frontend).
//
// # Startup Sequence
//
//  1. Load configuration from environment variables (.env in development).
//  2. Initialize structured logger.
//  3. Wire the application (session backend, gateway, services).
//  4. Register metrics and health handlers.
//  5. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/tenantx/internal/api"
	"github.com/taibuivan/tenantx/internal/app"
	"github.com/taibuivan/tenantx/internal/platform/config"
	"github.com/taibuivan/tenantx/internal/platform/constants"
	"github.com/taibuivan/tenantx/internal/platform/logger"
)

func main() {
	// ── 1. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		slog.Error("startup failure", slog.String("context", "load configuration"), slog.Any("error", err))
		os.Exit(1)
	}

	// ── 2. Logger ─────────────────────────────────────────────────────────
	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	format := cfg.LogFormat
	if cfg.IsProduction() {
		format = "json"
	}
	log := logger.Init(os.Stdout, level, format)

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("api_url", cfg.APIURL),
		slog.String("session_store", cfg.SessionStore),
	)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Startup gets a deadline so misconfiguration fails fast.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. Application ────────────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	application, err := app.New(startupCtx, cfg, log, registry)
	must(log, err, "wire application")
	defer func() {
		log.Info("closing session backend")
		if cerr := application.Close(); cerr != nil {
			log.Error("session backend close error", slog.Any("error", cerr))
		}
	}()

	// ── 4. Handlers ───────────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckSessionStore: application.Backend.Ping,
	}, log)

	server := api.NewServer(rootCtx, cfg, log, api.Handlers{
		Liveness:    liveness,
		Readiness:   readiness,
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Diagnostics: api.NewDiagnosticsHandler(application.Gateway.BaseURL(), nil),
		Auth:        api.NewAuthHandler(application.Gateway),
	})

	// ── 5. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
