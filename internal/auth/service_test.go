// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tenantx/internal/auth"
	"github.com/taibuivan/tenantx/internal/gateway/gatewaytest"
	"github.com/taibuivan/tenantx/internal/kv"
	"github.com/taibuivan/tenantx/internal/platform/apperr"
	"github.com/taibuivan/tenantx/internal/platform/sec"
	"github.com/taibuivan/tenantx/internal/session"
)

func accessToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newService(t *testing.T) (*auth.Service, *gatewaytest.Recorder, *session.Store) {
	t.Helper()
	recorder := gatewaytest.NewRecorder()
	store := session.NewStore(kv.NewMemoryStore())
	return auth.NewService(recorder, store, slog.New(slog.DiscardHandler)), recorder, store
}

/*
TestLogin_StoresTokens verifies that a successful login authenticates the
session with the decoded claims.
*/
func TestLogin_StoresTokens(t *testing.T) {
	ctx := context.Background()
	service, recorder, store := newService(t)

	access := accessToken(t, jwt.MapClaims{"sub": "u1", "role": "ORG_ADMIN", "org": "o1"})
	recorder.On(http.MethodPost, "/auth/login", gatewaytest.Reply{Body: auth.TokenResponse{AccessToken: access, RefreshToken: "r1"}})

	tokens, err := service.Login(ctx, auth.LoginInput{Email: "ada@tenantx.dev", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, "r1", tokens.RefreshToken)
	snapshot := store.Snapshot()
	assert.True(t, snapshot.IsAuthenticated)
	assert.Equal(t, "u1", snapshot.Identity.UserID)
	assert.Equal(t, "ORG_ADMIN", snapshot.Identity.Role)
	assert.Equal(t, map[string]any{"email": "ada@tenantx.dev", "password": "secret1"}, gatewaytest.BodyJSON(recorder.Last()))
}

/*
TestLogin_MalformedToken verifies that a login answer with an unusable
access token leaves the session signed out.
*/
func TestLogin_MalformedToken(t *testing.T) {
	service, recorder, store := newService(t)
	recorder.On(http.MethodPost, "/auth/login", gatewaytest.Reply{Body: auth.TokenResponse{AccessToken: "garbage", RefreshToken: "r1"}})

	_, err := service.Login(context.Background(), auth.LoginInput{Email: "ada@tenantx.dev", Password: "secret1"})

	require.ErrorIs(t, err, sec.ErrMalformedToken)
	assert.False(t, store.Snapshot().IsAuthenticated)
}

/*
TestLogin_BackendRejects verifies that bad credentials surface unchanged.
*/
func TestLogin_BackendRejects(t *testing.T) {
	service, recorder, store := newService(t)
	rejected := apperr.FromStatus(http.StatusUnauthorized, "", "Invalid credentials")
	recorder.On(http.MethodPost, "/auth/login", gatewaytest.Reply{Err: rejected})

	_, err := service.Login(context.Background(), auth.LoginInput{Email: "ada@tenantx.dev", Password: "wrong"})

	assert.Same(t, rejected, apperr.As(err))
	assert.False(t, store.Snapshot().IsAuthenticated)
}

/*
TestValidation verifies that invalid forms fail before any network call.
*/
func TestValidation(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		call  func(*auth.Service) error
		field string
	}{
		{"login email", func(s *auth.Service) error {
			_, err := s.Login(ctx, auth.LoginInput{Email: "nope", Password: "secret1"})
			return err
		}, "email"},
		{"register short password", func(s *auth.Service) error {
			_, err := s.Register(ctx, auth.RegisterInput{Email: "ada@tenantx.dev", Name: "Ada", Password: "12345"})
			return err
		}, "password"},
		{"register name", func(s *auth.Service) error {
			_, err := s.Register(ctx, auth.RegisterInput{Email: "ada@tenantx.dev", Password: "secret1"})
			return err
		}, "name"},
		{"otp length", func(s *auth.Service) error {
			_, err := s.VerifyOTP(ctx, "ada@tenantx.dev", "12345")
			return err
		}, "otp"},
		{"otp digits", func(s *auth.Service) error {
			_, err := s.VerifyOTP(ctx, "ada@tenantx.dev", "12a456")
			return err
		}, "otp"},
		{"resend email", func(s *auth.Service) error {
			_, err := s.ResendOTP(ctx, "")
			return err
		}, "email"},
		{"forgot email", func(s *auth.Service) error {
			_, err := s.ForgotPassword(ctx, "not-an-email")
			return err
		}, "email"},
		{"reset token", func(s *auth.Service) error {
			_, err := s.ResetPassword(ctx, "", "secret1")
			return err
		}, "token"},
		{"reset password", func(s *auth.Service) error {
			_, err := s.ResetPassword(ctx, "tok", "123")
			return err
		}, "newPassword"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, recorder, _ := newService(t)

			err := tc.call(service)

			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
			require.NotEmpty(t, appErr.Details)
			assert.Equal(t, tc.field, appErr.Details[0].Field)
			assert.Zero(t, recorder.Count())
		})
	}
}

/*
TestAccountFlows verifies the method, path and body of the message-returning
endpoints.
*/
func TestAccountFlows(t *testing.T) {
	ctx := context.Background()
	service, recorder, _ := newService(t)
	for _, path := range []string{"/auth/register", "/auth/verify-otp", "/auth/resend-otp", "/auth/forgot-password", "/auth/reset-password"} {
		recorder.On(http.MethodPost, path, gatewaytest.Reply{Body: auth.Message{Message: "ok " + path}})
	}

	msg, err := service.Register(ctx, auth.RegisterInput{Email: "ada@tenantx.dev", Name: "Ada", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ok /auth/register", msg.Message)

	_, err = service.VerifyOTP(ctx, "ada@tenantx.dev", "123456")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"email": "ada@tenantx.dev", "otp": "123456"}, gatewaytest.BodyJSON(recorder.Last()))

	_, err = service.ResendOTP(ctx, "ada@tenantx.dev")
	require.NoError(t, err)
	assert.Equal(t, "/auth/resend-otp", recorder.Last().Path)

	_, err = service.ForgotPassword(ctx, "ada@tenantx.dev")
	require.NoError(t, err)
	assert.Equal(t, "/auth/forgot-password", recorder.Last().Path)

	_, err = service.ResetPassword(ctx, "reset-token", "newsecret")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"token": "reset-token", "newPassword": "newsecret"}, gatewaytest.BodyJSON(recorder.Last()))

	assert.Equal(t, 5, recorder.Count())
}

/*
TestLogout_BestEffort verifies that the local session is cleared even when
the backend call fails.
*/
func TestLogout_BestEffort(t *testing.T) {
	ctx := context.Background()
	service, recorder, store := newService(t)
	require.NoError(t, store.SetTokens(ctx, accessToken(t, jwt.MapClaims{"sub": "u1"}), "r1"))
	recorder.On(http.MethodPost, "/auth/logout", gatewaytest.Reply{Err: errors.New("connection refused")})

	require.NoError(t, service.Logout(ctx))

	last := recorder.Last()
	assert.True(t, last.NoRefresh)
	assert.Equal(t, map[string]any{"refreshToken": "r1"}, gatewaytest.BodyJSON(last))
	assert.False(t, store.Snapshot().IsAuthenticated)
	assert.Empty(t, store.RefreshToken())
}

/*
TestLogout_SignedOut verifies that logging out without a session makes no
backend call.
*/
func TestLogout_SignedOut(t *testing.T) {
	service, recorder, store := newService(t)

	require.NoError(t, service.Logout(context.Background()))

	assert.Zero(t, recorder.Count())
	assert.True(t, store.Snapshot().IsHydrated)
}

/*
TestRefresh verifies the explicit refresh: organization scope is sent and the
new pair is stored.
*/
func TestRefresh(t *testing.T) {
	ctx := context.Background()
	service, recorder, store := newService(t)

	_, err := service.Refresh(ctx)
	require.ErrorIs(t, err, auth.ErrNotSignedIn)

	require.NoError(t, store.SetTokens(ctx, accessToken(t, jwt.MapClaims{"sub": "u1"}), "r1"))
	require.NoError(t, store.SetSelectedOrganization(ctx, "o2", "Globex"))

	renewed := accessToken(t, jwt.MapClaims{"sub": "u1", "org": "o2", "role": "MANAGER"})
	recorder.On(http.MethodPost, "/auth/refresh", gatewaytest.Reply{Body: auth.TokenResponse{AccessToken: renewed, RefreshToken: "r2"}})

	_, err = service.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"refreshToken": "r1", "organizationId": "o2"}, gatewaytest.BodyJSON(recorder.Last()))
	assert.True(t, recorder.Last().NoRefresh)
	assert.Equal(t, renewed, store.AccessToken())
	assert.Equal(t, "MANAGER", store.Snapshot().Identity.Role)
}

/*
TestRefresh_SignedOutMeanwhile verifies that a pair arriving after the user
logged out is not stored.
*/
func TestRefresh_SignedOutMeanwhile(t *testing.T) {
	ctx := context.Background()
	service, recorder, store := newService(t)
	require.NoError(t, store.SetTokens(ctx, accessToken(t, jwt.MapClaims{"sub": "u1"}), "r1"))

	recorder.On(http.MethodPost, "/auth/refresh", gatewaytest.Reply{
		Body:   auth.TokenResponse{AccessToken: accessToken(t, jwt.MapClaims{"sub": "u1", "jti": "late"}), RefreshToken: "r2"},
		Before: func() { require.NoError(t, store.Logout(ctx)) },
	})

	_, err := service.Refresh(ctx)
	require.ErrorIs(t, err, auth.ErrNotSignedIn)
	assert.False(t, store.Snapshot().IsAuthenticated)
	assert.Empty(t, store.RefreshToken())
}

/*
TestVerifyIdentity verifies the /auth/me mapping onto the session identity,
including null organization and role.
*/
func TestVerifyIdentity(t *testing.T) {
	ctx := context.Background()
	service, recorder, _ := newService(t)

	recorder.On(http.MethodGet, "/auth/me", gatewaytest.Reply{Body: map[string]any{
		"id": "u1", "email": "ada@tenantx.dev", "name": "Ada", "loginMethod": "password",
		"organizationId": nil, "role": nil,
	}})

	identity, err := service.VerifyIdentity(ctx, "tok")
	require.NoError(t, err)

	assert.Equal(t, session.Identity{UserID: "u1", Email: "ada@tenantx.dev", Name: "Ada", LoginMethod: "password"}, identity)
	assert.Equal(t, "tok", recorder.Last().Token)

	recorder.On(http.MethodGet, "/auth/me", gatewaytest.Reply{Body: map[string]any{"id": "u1", "organizationId": "o1", "role": "MEMBER"}})
	identity, err = service.VerifyIdentity(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "o1", identity.OrganizationID)
	assert.Equal(t, "MEMBER", identity.Role)
}

/*
TestVerifyIdentity_DrivesVerifyAuth verifies the service as the session's
verifier end to end.
*/
func TestVerifyIdentity_DrivesVerifyAuth(t *testing.T) {
	ctx := context.Background()
	service, recorder, store := newService(t)
	store.UseVerifier(service)
	require.NoError(t, store.SetTokens(ctx, accessToken(t, jwt.MapClaims{"sub": "u1"}), "r1"))

	recorder.On(http.MethodGet, "/auth/me", gatewaytest.Reply{Body: map[string]any{"id": "u1", "email": "ada@tenantx.dev", "name": "Ada"}})

	ok, err := store.VerifyAuth(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Ada", store.Snapshot().Identity.Name)
}
