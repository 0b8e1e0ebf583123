// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package organization wraps the backend's tenant endpoints.

An organization is the tenant boundary: projects and tasks belong to one, and
a user's role is scoped to it. Switching organizations exchanges the refresh
token for an organization-scoped token pair and records the selection in the
session.

# Core Responsibility

  - Lifecycle: list, create, rename and delete organizations.
  - Membership: list members, change roles, remove members.
  - Invitations: invite by email, list and revoke pending invites, accept.
*/
package organization

import "time"

// # Core Entities

// Organization is a tenant.
type Organization struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Member is a user's affiliation with an organization.
type Member struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// PendingInvite is an invitation not yet accepted.
type PendingInvite struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	InvitedAt *time.Time `json:"invitedAt,omitempty"`
}

// SwitchResult is the organization-scoped token pair issued by a switch.
type SwitchResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Role         string `json:"role"`
}

// # Requests

type nameRequest struct {
	Name string `json:"name"`
}

type switchRequest struct {
	OrganizationID string `json:"organizationId"`
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type roleRequest struct {
	Role string `json:"role"`
}
