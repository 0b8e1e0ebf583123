// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tenantx/internal/kv"
	"github.com/taibuivan/tenantx/internal/platform/apperr"
	"github.com/taibuivan/tenantx/internal/session"
)

// token builds a signed access token carrying the given claims.
func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func memberToken(t *testing.T) string {
	return token(t, jwt.MapClaims{"sub": "u1", "role": "MEMBER", "org": "o1"})
}

// # Verifier

type verifierFunc func(ctx context.Context, accessToken string) (session.Identity, error)

func (f verifierFunc) VerifyIdentity(ctx context.Context, accessToken string) (session.Identity, error) {
	return f(ctx, accessToken)
}

// countingVerifier answers with a fixed identity and signals every call.
type countingVerifier struct {
	calls    atomic.Int32
	called   chan struct{}
	identity session.Identity
}

func newCountingVerifier() *countingVerifier {
	return &countingVerifier{
		called:   make(chan struct{}, 16),
		identity: session.Identity{UserID: "u1", Email: "u1@tenantx.dev", Name: "User One"},
	}
}

func (v *countingVerifier) VerifyIdentity(context.Context, string) (session.Identity, error) {
	v.calls.Add(1)
	v.called <- struct{}{}
	return v.identity, nil
}

var errUnauthorized = apperr.FromStatus(http.StatusUnauthorized, "UNAUTHORIZED", "Token expired")

// # Ticker

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type tickerRecorder struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (r *tickerRecorder) factory(time.Duration) session.Ticker {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticker := &fakeTicker{ch: make(chan time.Time)}
	r.tickers = append(r.tickers, ticker)
	return ticker
}

func (r *tickerRecorder) get(i int) *fakeTicker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickers[i]
}

func (r *tickerRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickers)
}

// # Backends

var errBackendDown = errors.New("backend down")

// failingStore wraps a memory store and fails writes once armed.
type failingStore struct {
	*kv.MemoryStore
	failSets    atomic.Bool
	failDeletes atomic.Bool
	failGets    atomic.Bool
}

func newFailingStore() *failingStore {
	return &failingStore{MemoryStore: kv.NewMemoryStore()}
}

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGets.Load() {
		return "", false, errBackendDown
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	if f.failSets.Load() {
		return errBackendDown
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *failingStore) Delete(ctx context.Context, keys ...string) error {
	if f.failDeletes.Load() {
		return errBackendDown
	}
	return f.MemoryStore.Delete(ctx, keys...)
}
