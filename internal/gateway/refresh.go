// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/tenantx/internal/platform/apperr"
	"github.com/taibuivan/tenantx/internal/platform/constants"
)

// authEndpoints answer 401 for bad credentials, not for an expired session.
var authEndpoints = []string{
	constants.PathRegister,
	constants.PathLogin,
	constants.PathVerifyOTP,
	constants.PathResendOTP,
	constants.PathForgotPassword,
}

// IsAuthEndpoint reports whether path is one of the unauthenticated auth
// endpoints for which a 401 never triggers a refresh.
func IsAuthEndpoint(path string) bool {
	path = strings.TrimRight(path, "/")
	for _, endpoint := range authEndpoints {
		if path == endpoint {
			return true
		}
	}
	return false
}

// refreshRequest is the body of POST /auth/refresh.
type refreshRequest struct {
	RefreshToken   string `json:"refreshToken"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// TokenPair is the answer of login, refresh and organization switch.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// refresh renews the token pair and returns the new access token.
//
// Concurrent callers holding the same refresh token share one network call.
func (c *Client) refresh(ctx context.Context) (string, error) {
	epoch := c.session.Epoch()
	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		c.metrics.observeRefresh(RefreshMissingToken)
		c.endSession(ctx, "missing_refresh_token")
		return "", fmt.Errorf("%w: no refresh token", ErrSessionEnded)
	}

	result, err, shared := c.refreshes.Do(refreshToken, func() (any, error) {
		// A flight that finished just before this one already rotated the pair.
		switch current := c.session.RefreshToken(); {
		case current == "" || c.session.Epoch() != epoch:
			return "", ErrSessionEnded
		case current != refreshToken:
			return c.session.AccessToken(), nil
		}
		return c.doRefresh(context.WithoutCancel(ctx), refreshToken, epoch)
	})
	if shared {
		c.log.Debug("gateway_refresh_shared")
	}
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

// doRefresh calls the refresh endpoint directly, bypassing the 401 path. The
// outcome is applied only while the sign-in recorded as epoch is current.
func (c *Client) doRefresh(ctx context.Context, refreshToken string, epoch uint64) (string, error) {
	var pair TokenPair
	err := c.doDirect(ctx, Request{
		Method: http.MethodPost,
		Path:   constants.PathRefresh,
		Body: refreshRequest{
			RefreshToken:   refreshToken,
			OrganizationID: c.session.SelectedOrganizationID(),
		},
	}, &pair)

	switch {
	case err == nil:
	case apperr.IsUnauthorized(err):
		c.metrics.observeRefresh(RefreshRejected)
		if c.session.Epoch() == epoch {
			c.endSession(ctx, "refresh_rejected")
		}
		return "", fmt.Errorf("%w: %w", ErrSessionEnded, err)
	default:
		c.metrics.observeRefresh(RefreshFailed)
		c.log.Warn("gateway_refresh_failed", slog.Any("error", err))
		return "", err
	}

	applied, err := c.session.SetTokensIf(ctx, epoch, pair.AccessToken, pair.RefreshToken)
	if err != nil {
		c.metrics.observeRefresh(RefreshFailed)
		c.log.Error("gateway_refresh_tokens_rejected", slog.Any("error", err))
		return "", fmt.Errorf("gateway: refresh: %w", err)
	}
	if !applied {
		c.metrics.observeRefresh(RefreshDiscarded)
		c.log.Info("gateway_refresh_discarded")
		return "", fmt.Errorf("%w: signed out during refresh", ErrSessionEnded)
	}

	c.metrics.observeRefresh(RefreshSuccess)
	c.log.Info("gateway_refresh_succeeded")

	return pair.AccessToken, nil
}

// doDirect sends without a bearer token and without 401 recovery.
func (c *Client) doDirect(ctx context.Context, req Request, out *TokenPair) error {
	resp, err := c.send(ctx, req, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("gateway: decode %s: %w", req.Path, err)
	}
	return nil
}

// endSession forces a logout and notifies the hook.
func (c *Client) endSession(ctx context.Context, reason string) {
	c.log.Info("gateway_session_ended", slog.String("reason", reason))

	if err := c.session.Logout(ctx); err != nil {
		c.log.Error("gateway_logout_failed", slog.Any("error", err))
	}
	if c.onEnded != nil {
		c.onEnded(ctx)
	}
}
