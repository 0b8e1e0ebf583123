// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/taibuivan/tenantx/internal/gateway"
	"github.com/taibuivan/tenantx/internal/platform/constants"
	"github.com/taibuivan/tenantx/internal/platform/validate"
	"github.com/taibuivan/tenantx/internal/session"
)

// ErrNotSignedIn is returned by operations that need a refresh token when the
// session has none.
var ErrNotSignedIn = errors.New("auth: not signed in")

// Session is the part of the session store the auth flows drive.
type Session interface {
	RefreshToken() string
	SelectedOrganizationID() string
	SetTokens(ctx context.Context, access, refresh string) error
	Epoch() uint64
	SetTokensIf(ctx context.Context, epoch uint64, access, refresh string) (bool, error)
	Logout(ctx context.Context) error
}

// # Service Layer

// Service implements the authentication flows against the backend.
type Service struct {
	backend gateway.Caller
	session Session
	logger  *slog.Logger
}

// NewService constructs an auth [Service].
func NewService(backend gateway.Caller, session Session, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		session: session,
		logger:  logger,
	}
}

// # Sign-in

/*
Login authenticates with email and password and stores the issued tokens.

Parameters:
  - context: context.Context
  - input: LoginInput (OrganizationID optional)

Returns:
  - *TokenResponse: The issued pair
  - error: Validation, backend or malformed-token errors
*/
func (service *Service) Login(context context.Context, input LoginInput) (*TokenResponse, error) {
	validator := &validate.Validator{}
	validator.Required("email", input.Email).Email("email", input.Email)
	validator.Required("password", input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	var tokens TokenResponse
	err := service.backend.Do(context, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.PathLogin,
		Body:   input,
	}, &tokens)
	if err != nil {
		return nil, err
	}

	if err := service.session.SetTokens(context, tokens.AccessToken, tokens.RefreshToken); err != nil {
		return nil, fmt.Errorf("auth: login: %w", err)
	}

	service.logger.Info("auth_login_succeeded", slog.String("email", input.Email))
	return &tokens, nil
}

/*
Register creates an account. The backend then sends a one-time code to the
address, confirmed with [Service.VerifyOTP].
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Message, error) {
	validator := &validate.Validator{}
	validator.Required("email", input.Email).Email("email", input.Email)
	validator.Required("name", input.Name).MaxLen("name", input.Name, constants.MaxNameLength)
	validator.MinLen("password", input.Password, constants.MinPasswordLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	return service.post(context, constants.PathRegister, input)
}

// VerifyOTP confirms an account with the emailed code.
func (service *Service) VerifyOTP(context context.Context, email, otp string) (*Message, error) {
	validator := &validate.Validator{}
	validator.Required("email", email).Email("email", email)
	validator.Digits("otp", otp, constants.OTPLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	return service.post(context, constants.PathVerifyOTP, otpRequest{Email: email, OTP: otp})
}

// ResendOTP asks the backend for a new confirmation code.
func (service *Service) ResendOTP(context context.Context, email string) (*Message, error) {
	if err := (&validate.Validator{}).Required("email", email).Email("email", email).Err(); err != nil {
		return nil, err
	}

	return service.post(context, constants.PathResendOTP, emailRequest{Email: email})
}

// # Session Lifecycle

/*
Logout revokes the refresh token on the backend, then clears the local
session. The backend call is best effort: its failure is logged and the local
session is cleared regardless.

Returns:
  - error: Only a failure to clear the local session
*/
func (service *Service) Logout(context context.Context) error {
	if refreshToken := service.session.RefreshToken(); refreshToken != "" {
		err := service.backend.Do(context, gateway.Request{
			Method:    http.MethodPost,
			Path:      constants.PathLogout,
			Body:      refreshRequest{RefreshToken: refreshToken},
			NoRefresh: true,
		}, nil)
		if err != nil {
			service.logger.Warn("auth_remote_logout_failed", slog.Any("error", err))
		}
	}

	return service.session.Logout(context)
}

/*
Refresh renews the token pair explicitly, scoped to the selected
organization. Routine calls do not need this: the gateway refreshes on 401.
*/
func (service *Service) Refresh(context context.Context) (*TokenResponse, error) {
	epoch := service.session.Epoch()
	refreshToken := service.session.RefreshToken()
	if refreshToken == "" {
		return nil, ErrNotSignedIn
	}

	var tokens TokenResponse
	err := service.backend.Do(context, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.PathRefresh,
		Body: refreshRequest{
			RefreshToken:   refreshToken,
			OrganizationID: service.session.SelectedOrganizationID(),
		},
		NoRefresh: true,
	}, &tokens)
	if err != nil {
		return nil, err
	}

	applied, err := service.session.SetTokensIf(context, epoch, tokens.AccessToken, tokens.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("auth: refresh: %w", err)
	}
	if !applied {
		return nil, ErrNotSignedIn
	}
	return &tokens, nil
}

// # Identity

// Me returns the profile of the holder of accessToken.
func (service *Service) Me(context context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	err := service.backend.Do(context, gateway.Request{
		Method: http.MethodGet,
		Path:   constants.PathMe,
		Token:  accessToken,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// VerifyIdentity implements [session.IdentityVerifier].
func (service *Service) VerifyIdentity(context context.Context, accessToken string) (session.Identity, error) {
	profile, err := service.Me(context, accessToken)
	if err != nil {
		return session.Identity{}, err
	}
	return profile.Identity(), nil
}

// # Password Recovery

// ForgotPassword asks the backend to email a reset link.
func (service *Service) ForgotPassword(context context.Context, email string) (*Message, error) {
	if err := (&validate.Validator{}).Required("email", email).Email("email", email).Err(); err != nil {
		return nil, err
	}

	return service.post(context, constants.PathForgotPassword, emailRequest{Email: email})
}

// ResetPassword sets a new password using the token from the reset email.
func (service *Service) ResetPassword(context context.Context, token, newPassword string) (*Message, error) {
	validator := &validate.Validator{}
	validator.Required("token", token)
	validator.MinLen("newPassword", newPassword, constants.MinPasswordLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	return service.post(context, constants.PathResetPassword, resetPasswordRequest{Token: token, NewPassword: newPassword})
}

func (service *Service) post(context context.Context, path string, body any) (*Message, error) {
	var message Message
	if err := service.backend.Do(context, gateway.Request{Method: http.MethodPost, Path: path, Body: body}, &message); err != nil {
		return nil, err
	}
	return &message, nil
}
