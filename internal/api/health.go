// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/tenantx/internal/platform/constants"
	"github.com/taibuivan/tenantx/internal/platform/respond"
)

// HealthDependencies holds the injectable dependency checkers for the /ready endpoint.
type HealthDependencies struct {
	// CheckSessionStore pings the session kv backend.
	CheckSessionStore func(ctx context.Context) error
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{
		constants.FieldStatus: "ok",
		constants.FieldApp:    constants.AppName,
	})
}

// readiness handles GET /ready (Readiness probe).
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	results := make([]checkResult, 0, 1)
	isSystemReady := true

	// Check the session backend
	if handler.dependencies.CheckSessionStore != nil {
		result := checkResult{Name: "session_store", IsOK: true}
		if err := handler.dependencies.CheckSessionStore(request.Context()); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isSystemReady = false
			handler.logger.Error("readiness_check_failed", slog.String("dependency", "session_store"), slog.Any("error", err))
		}
		results = append(results, result)
	}

	responseStatus, httpStatus := "ready", http.StatusOK
	if !isSystemReady {
		responseStatus, httpStatus = "degraded", http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, map[string]any{
		constants.FieldStatus: responseStatus,
		constants.FieldChecks: results,
	})
}

// NewDiagnosticsHandler creates the GET /api/test handler. It reports that the
// BFF is up, the current time and the backend it relays to, without calling it.
func NewDiagnosticsHandler(backendURL string, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(writer http.ResponseWriter, request *http.Request) {
		respond.OK(writer, map[string]string{
			constants.FieldMessage:   "API is working!",
			constants.FieldTimestamp: now().UTC().Format(time.RFC3339Nano),
			constants.FieldBackend:   backendURL,
		})
	}
}
