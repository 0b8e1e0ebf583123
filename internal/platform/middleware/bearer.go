// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/tenantx/internal/platform/apperr"
	"github.com/taibuivan/tenantx/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/tenantx/internal/platform/request"
	"github.com/taibuivan/tenantx/internal/platform/respond"
	"github.com/taibuivan/tenantx/internal/platform/sec"
)

// RequireBearer blocks requests that carry no access token.
//
// # Flow
//  1. Read the token from 'Authorization: Bearer <token>' or the accessToken cookie.
//  2. If absent, abort with HTTP 401 {"error": "No access token"}.
//  3. Store the raw token in the context for forwarding.
//  4. Decode claims without verification to tag the request logger with user_id.
//
// The token is never validated here; the backend is the authority.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		token := requestutil.BearerToken(request)
		if token == "" {
			respond.Error(writer, request, apperr.Unauthorized("No access token"))
			return
		}

		ctx := ctxutil.WithBearerToken(request.Context(), token)

		if claims, err := sec.DecodeClaims(token); err == nil {
			logger := ctxutil.GetLogger(ctx).With(slog.String("user_id", claims.UserID()))
			ctx = ctxutil.WithLogger(ctx, logger)
		}

		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}
