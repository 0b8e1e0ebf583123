// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec holds the credential-facing primitives of the client: access
// token claim decoding and the organization role hierarchy.
//
// # Trust Model
//
// The client never verifies token signatures. Claims are decoded only to
// populate local identity (user, role, organization) and to drive UI hints.
// The backend remains the sole authority on every privileged operation.
package sec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when an access token cannot be split, decoded,
// or parsed into [Claims], or when it lacks a subject.
var ErrMalformedToken = errors.New("sec: malformed access token")

// Claims is the explicit claim schema carried by a TenantX access token.
//
// Only the subject is required. Role and Org are optional and empty when absent.
type Claims struct {
	jwt.RegisteredClaims

	// Role is the caller's role inside Org (ORG_ADMIN, MANAGER, MEMBER).
	Role string `json:"role,omitempty"`

	// Org is the organization the token is scoped to, set by the last switch.
	Org string `json:"org,omitempty"`
}

// UserID returns the subject claim.
func (c *Claims) UserID() string { return c.Subject }

// parser decodes without signature verification or time validation.
// Expired tokens still decode so the session can be restored and refreshed.
var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// DecodeClaims extracts [Claims] from the payload segment of an access token.
//
// Any failure, including a payload without "sub", yields an error wrapping
// [ErrMalformedToken].
func DecodeClaims(token string) (*Claims, error) {

	// A bare payload ("header.payload") is accepted by appending an empty signature.
	segments := strings.Split(token, ".")
	switch {
	case len(segments) < 2:
		return nil, fmt.Errorf("%w: expected at least 2 segments, got %d", ErrMalformedToken, len(segments))
	case len(segments) == 2:
		token += "."
	}

	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrMalformedToken)
	}

	return claims, nil
}
