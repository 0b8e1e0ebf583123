// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package organization

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/taibuivan/tenantx/internal/gateway"
	"github.com/taibuivan/tenantx/internal/platform/constants"
	"github.com/taibuivan/tenantx/internal/platform/sec"
	"github.com/taibuivan/tenantx/internal/platform/validate"
	"github.com/taibuivan/tenantx/pkg/slice"
)

// Session is the part of the session store a switch updates.
type Session interface {
	SetTokens(ctx context.Context, access, refresh string) error
	SetOrg(ctx context.Context, orgID, role string) error
	SetSelectedOrganization(ctx context.Context, orgID, orgName string) error
}

// roleNames lists the assignable roles for validation messages.
var roleNames = slice.Map(sec.Roles, sec.OrgRole.String)

// # Service Layer

// Service wraps the organization endpoints.
type Service struct {
	backend gateway.Caller
	session Session
	logger  *slog.Logger
}

// NewService constructs an organization [Service].
func NewService(backend gateway.Caller, session Session, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		session: session,
		logger:  logger,
	}
}

// # Organization Management

// List returns the organizations the signed-in user belongs to.
func (service *Service) List(context context.Context) ([]Organization, error) {
	var organizations []Organization
	if err := service.backend.Do(context, gateway.Request{Method: http.MethodGet, Path: constants.PathOrganizations}, &organizations); err != nil {
		return nil, err
	}
	return organizations, nil
}

// Create adds an organization owned by the signed-in user.
func (service *Service) Create(context context.Context, name string) (*Organization, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var organization Organization
	err := service.backend.Do(context, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.PathOrganizations,
		Body:   nameRequest{Name: name},
	}, &organization)
	if err != nil {
		return nil, err
	}
	return &organization, nil
}

// Update renames an organization.
func (service *Service) Update(context context.Context, orgID, name string) (*Organization, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var organization Organization
	err := service.backend.Do(context, gateway.Request{
		Method: http.MethodPut,
		Path:   orgPath(orgID),
		Body:   nameRequest{Name: name},
	}, &organization)
	if err != nil {
		return nil, err
	}
	return &organization, nil
}

// Delete removes an organization.
func (service *Service) Delete(context context.Context, orgID string) error {
	return service.backend.Do(context, gateway.Request{Method: http.MethodDelete, Path: orgPath(orgID)}, nil)
}

/*
Switch makes orgID the active tenant.

The backend issues an organization-scoped token pair; the session then stores
the pair, the organization and role, and the display selection.

Parameters:
  - context: context.Context
  - orgID: string
  - orgName: string (display name recorded with the selection)

Returns:
  - *SwitchResult: The new pair and role
  - error: Backend or session errors
*/
func (service *Service) Switch(context context.Context, orgID, orgName string) (*SwitchResult, error) {
	if err := (&validate.Validator{}).Required("organizationId", orgID).Err(); err != nil {
		return nil, err
	}

	var result SwitchResult
	err := service.backend.Do(context, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.PathOrganizations + "/switch",
		Body:   switchRequest{OrganizationID: orgID},
	}, &result)
	if err != nil {
		return nil, err
	}

	if err := service.session.SetTokens(context, result.AccessToken, result.RefreshToken); err != nil {
		return nil, fmt.Errorf("organization: switch: %w", err)
	}
	if err := service.session.SetOrg(context, orgID, result.Role); err != nil {
		return nil, fmt.Errorf("organization: switch: %w", err)
	}
	if err := service.session.SetSelectedOrganization(context, orgID, orgName); err != nil {
		return nil, fmt.Errorf("organization: switch: %w", err)
	}

	service.logger.Info("organization_switched", slog.String("organization_id", orgID), slog.String("role", result.Role))
	return &result, nil
}

// # Membership

// Members lists the members of an organization.
func (service *Service) Members(context context.Context, orgID string) ([]Member, error) {
	var members []Member
	if err := service.backend.Do(context, gateway.Request{Method: http.MethodGet, Path: orgPath(orgID, "members")}, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// Invite sends an invitation email for the given role.
func (service *Service) Invite(context context.Context, orgID, email, role string) error {
	validator := &validate.Validator{}
	validator.Required("email", email).Email("email", email)
	validator.OneOf("role", role, roleNames...)
	if err := validator.Err(); err != nil {
		return err
	}

	return service.backend.Do(context, gateway.Request{
		Method: http.MethodPost,
		Path:   orgPath(orgID, "invite"),
		Body:   inviteRequest{Email: email, Role: role},
	}, nil)
}

// ChangeMemberRole assigns a new role to a member.
func (service *Service) ChangeMemberRole(context context.Context, orgID, userID, role string) error {
	if err := (&validate.Validator{}).OneOf("role", role, roleNames...).Err(); err != nil {
		return err
	}

	return service.backend.Do(context, gateway.Request{
		Method: http.MethodPut,
		Path:   orgPath(orgID, "members", userID, "role"),
		Body:   roleRequest{Role: role},
	}, nil)
}

// RemoveMember removes a user from an organization.
func (service *Service) RemoveMember(context context.Context, orgID, userID string) error {
	return service.backend.Do(context, gateway.Request{Method: http.MethodDelete, Path: orgPath(orgID, "members", userID)}, nil)
}

// # Invitations

// PendingInvites lists invitations not yet accepted.
func (service *Service) PendingInvites(context context.Context, orgID string) ([]PendingInvite, error) {
	var invites []PendingInvite
	if err := service.backend.Do(context, gateway.Request{Method: http.MethodGet, Path: orgPath(orgID, "pending-invites")}, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// RevokeInvite cancels a pending invitation.
func (service *Service) RevokeInvite(context context.Context, orgID, inviteID string) error {
	return service.backend.Do(context, gateway.Request{Method: http.MethodDelete, Path: orgPath(orgID, "pending-invites", inviteID)}, nil)
}

// AcceptInvite joins the organization named by an invitation token.
func (service *Service) AcceptInvite(context context.Context, token string) (*Organization, error) {
	if err := (&validate.Validator{}).Required("token", token).Err(); err != nil {
		return nil, err
	}

	var organization Organization
	err := service.backend.Do(context, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.PathOrganizations + "/accept-invite",
		Query:  url.Values{"token": {token}},
	}, &organization)
	if err != nil {
		return nil, err
	}
	return &organization, nil
}

// # Helpers

// orgPath builds /organizations/{id}/... with every segment escaped.
func orgPath(orgID string, segments ...string) string {
	path := constants.PathOrganizations + "/" + url.PathEscape(orgID)
	for _, segment := range segments {
		path += "/" + url.PathEscape(segment)
	}
	return path
}

func validateName(name string) error {
	return (&validate.Validator{}).
		Required("name", name).
		MaxLen("name", name, constants.MaxNameLength).
		Err()
}
