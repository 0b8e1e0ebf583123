// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tenantx/internal/gateway"
	"github.com/taibuivan/tenantx/internal/platform/apperr"
	"github.com/taibuivan/tenantx/internal/platform/constants"
	"github.com/taibuivan/tenantx/internal/platform/ctxutil"
	"github.com/taibuivan/tenantx/internal/platform/middleware"
	requestutil "github.com/taibuivan/tenantx/internal/platform/request"
	"github.com/taibuivan/tenantx/internal/platform/respond"
)

// Forwarder relays one request to the backend and returns its answer as-is.
type Forwarder interface {
	Forward(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

// AuthHandler relays the browser's session calls to the backend. Tokens come
// from the caller, never from a server-side session.
type AuthHandler struct {
	backend Forwarder
}

// NewAuthHandler constructs the auth relay.
func NewAuthHandler(backend Forwarder) *AuthHandler {
	return &AuthHandler{backend: backend}
}

// Routes mounts the relay endpoints.
func (handler *AuthHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.With(middleware.RequireBearer).Get("/me", handler.me)
	router.Post("/logout", handler.logout)
	return router
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// me handles GET /api/auth/me.
func (handler *AuthHandler) me(writer http.ResponseWriter, request *http.Request) {
	token, err := requestutil.RequiredBearer(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.relay(writer, request, gateway.Request{
		Method:    http.MethodGet,
		Path:      constants.PathMe,
		Token:     token,
		NoRefresh: true,
	})
}

// logout handles POST /api/auth/logout.
func (handler *AuthHandler) logout(writer http.ResponseWriter, request *http.Request) {
	var body logoutRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if body.RefreshToken == "" {
		respond.Error(writer, request, apperr.BadRequest("No refresh token provided"))
		return
	}

	handler.relay(writer, request, gateway.Request{
		Method:    http.MethodPost,
		Path:      constants.PathLogout,
		Body:      body,
		NoRefresh: true,
	})
}

// relay forwards upstream and writes its status and body back verbatim.
func (handler *AuthHandler) relay(writer http.ResponseWriter, request *http.Request, upstream gateway.Request) {
	ctx := request.Context()
	if requestID := ctxutil.GetRequestID(ctx); requestID != "" {
		ctx = gateway.WithRequestID(ctx, requestID)
	}

	resp, err := handler.backend.Forward(ctx, upstream)
	if err != nil {
		respond.Error(writer, request, apperr.BadGateway(err))
		return
	}

	switch {
	case len(resp.Body) == 0:
		writer.WriteHeader(resp.Status)
	case json.Valid(resp.Body):
		respond.Raw(writer, resp.Status, resp.Body)
	default:
		ctxutil.GetLogger(ctx).Warn("bff_upstream_not_json",
			slog.String("path", upstream.Path),
			slog.Int("status", resp.Status),
		)
		respond.Error(writer, request, apperr.BadGateway(nil))
	}
}
