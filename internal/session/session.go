// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session owns the authentication state of a running TenantX client.

A single [*Store] is created at the construction point (see package app) and
handed to every component that needs it. The store mediates between the
durable key-value backend and the in-memory [Session]:

  - Every mutator writes through to the backend before it returns.
  - Mutators are serialized by one mutex and never release it between reading
    the old state and committing the new one.
  - Network calls (identity verification, silent refresh) run outside the
    lock; their results are applied only if the same sign-in is still current.
    Token rotation keeps the sign-in; logout or another user signing in ends it.
*/
package session

import "errors"

var (
	// ErrNoVerifier is returned by VerifyAuth when no identity verifier is attached.
	ErrNoVerifier = errors.New("session: no identity verifier configured")

	// ErrSuperseded is returned when a verification result was discarded because
	// the sign-in ended, or the token it checked was replaced, while the call
	// was in flight.
	ErrSuperseded = errors.New("session: result superseded by a newer session state")

	// ErrEmptyRefreshToken is returned by SetTokens when the refresh token is empty.
	ErrEmptyRefreshToken = errors.New("session: empty refresh token")
)

// Organization is the tenant the user chose to operate in.
//
// It is a display convenience. Authorization decisions use the role and
// organization claims of a verified token, never this value.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Identity describes the signed-in user.
//
// UserID, Role and OrganizationID come from the access token claims (and are
// refreshed by identity verification). Email, Name and LoginMethod are only
// known after a successful call to the identity endpoint.
type Identity struct {
	UserID         string `json:"userId,omitempty"`
	Role           string `json:"role,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
	LoginMethod    string `json:"loginMethod,omitempty"`
}

// Session is a point-in-time copy of the store's state.
type Session struct {
	AccessToken          string        `json:"-"`
	RefreshToken         string        `json:"-"`
	Identity             Identity      `json:"identity"`
	SelectedOrganization *Organization `json:"selectedOrganization,omitempty"`
	IsAuthenticated      bool          `json:"isAuthenticated"`
	IsHydrated           bool          `json:"isHydrated"`
	IsVerifying          bool          `json:"isVerifying"`
}

// clone returns a deep copy safe to hand outside the lock.
func (s Session) clone() Session {
	if s.SelectedOrganization != nil {
		org := *s.SelectedOrganization
		s.SelectedOrganization = &org
	}
	return s
}
