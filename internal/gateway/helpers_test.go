// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tenantx/internal/gateway"
	"github.com/taibuivan/tenantx/internal/kv"
	"github.com/taibuivan/tenantx/internal/session"
)

func signedToken(t *testing.T, subject, jti string) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": subject, "role": "MEMBER", "org": "o1", "jti": jti}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// fixture wires a client to an httptest backend and a memory-backed session.
type fixture struct {
	server  *httptest.Server
	store   *session.Store
	client  *gateway.Client
	metrics *gateway.Metrics
	ended   atomic.Int32
}

func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()

	f := &fixture{
		server:  httptest.NewServer(handler),
		store:   session.NewStore(kv.NewMemoryStore()),
		metrics: gateway.NewMetrics(prometheus.NewRegistry()),
	}
	t.Cleanup(f.server.Close)

	f.client = gateway.New(f.server.URL, f.store,
		gateway.WithMetrics(f.metrics),
		gateway.WithSessionEndedHook(func(context.Context) { f.ended.Add(1) }),
	)
	return f
}

func bearerOf(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expired", "code": "UNAUTHORIZED"})
}
