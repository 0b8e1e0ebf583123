// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package project wraps the backend's project endpoints. Projects belong to
// the organization of the caller's access token.
package project

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/taibuivan/tenantx/internal/gateway"
	"github.com/taibuivan/tenantx/internal/platform/constants"
	"github.com/taibuivan/tenantx/internal/platform/validate"
)

// Project groups tasks inside an organization.
type Project struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	OrganizationID string     `json:"organizationId"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

type nameRequest struct {
	Name string `json:"name"`
}

// Service wraps the project endpoints.
type Service struct {
	backend gateway.Caller
}

// NewService constructs a project [Service].
func NewService(backend gateway.Caller) *Service {
	return &Service{backend: backend}
}

// List returns the projects of orgID, or of the token's organization when
// orgID is empty.
func (service *Service) List(context context.Context, orgID string) ([]Project, error) {
	request := gateway.Request{Method: http.MethodGet, Path: constants.PathProjects}
	if orgID != "" {
		request.Query = url.Values{"organizationId": {orgID}}
	}

	var projects []Project
	if err := service.backend.Do(context, request, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Create adds a project to the active organization.
func (service *Service) Create(context context.Context, name string) (*Project, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var project Project
	err := service.backend.Do(context, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.PathProjects,
		Body:   nameRequest{Name: name},
	}, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Update renames a project.
func (service *Service) Update(context context.Context, projectID, name string) (*Project, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var project Project
	err := service.backend.Do(context, gateway.Request{
		Method: http.MethodPut,
		Path:   projectPath(projectID),
		Body:   nameRequest{Name: name},
	}, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Delete removes a project and its tasks.
func (service *Service) Delete(context context.Context, projectID string) error {
	return service.backend.Do(context, gateway.Request{Method: http.MethodDelete, Path: projectPath(projectID)}, nil)
}

func projectPath(projectID string) string {
	return constants.PathProjects + "/" + url.PathEscape(projectID)
}

func validateName(name string) error {
	return (&validate.Validator{}).
		Required("name", name).
		MaxLen("name", name, constants.MaxNameLength).
		Err()
}
