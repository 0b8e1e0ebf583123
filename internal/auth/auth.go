// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth wraps the backend's authentication endpoints.

Login and refresh hand their token pair to the session store; logout always
clears the local session even when the backend call fails. The package also
implements the session's identity verifier on top of GET /auth/me.
*/
package auth

import (
	"github.com/taibuivan/tenantx/internal/session"
)

// LoginInput holds the credentials of a sign-in attempt.
type LoginInput struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// RegisterInput holds the data required to create an account.
type RegisterInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Role         string `json:"role,omitempty"`
}

// Message is the acknowledgement body of the account flows (register, OTP,
// password reset).
type Message struct {
	Message string `json:"message"`
}

// Profile is the answer of GET /auth/me.
type Profile struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	LoginMethod    string  `json:"loginMethod"`
	OrganizationID *string `json:"organizationId"`
	Role           *string `json:"role"`
}

// Identity converts the profile into the session's identity shape.
func (p Profile) Identity() session.Identity {
	identity := session.Identity{
		UserID:      p.ID,
		Email:       p.Email,
		Name:        p.Name,
		LoginMethod: p.LoginMethod,
	}
	if p.OrganizationID != nil {
		identity.OrganizationID = *p.OrganizationID
	}
	if p.Role != nil {
		identity.Role = *p.Role
	}
	return identity
}

type emailRequest struct {
	Email string `json:"email"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type refreshRequest struct {
	RefreshToken   string `json:"refreshToken"`
	OrganizationID string `json:"organizationId,omitempty"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}
