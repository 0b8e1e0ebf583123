// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package task

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taibuivan/tenantx/internal/gateway"
	"github.com/taibuivan/tenantx/internal/platform/constants"
	"github.com/taibuivan/tenantx/internal/platform/validate"
	"github.com/taibuivan/tenantx/pkg/pointer"
	"github.com/taibuivan/tenantx/pkg/slice"
)

var statusNames = slice.Map(Statuses, Status.String)

// # Service Layer

// Service wraps the task endpoints.
type Service struct {
	backend gateway.Caller
}

// NewService constructs a task [Service].
func NewService(backend gateway.Caller) *Service {
	return &Service{backend: backend}
}

// ListByProject returns the tasks of a project.
func (service *Service) ListByProject(context context.Context, projectID string) ([]Task, error) {
	if err := (&validate.Validator{}).Required("projectId", projectID).Err(); err != nil {
		return nil, err
	}

	var tasks []Task
	err := service.backend.Do(context, gateway.Request{
		Method: http.MethodGet,
		Path:   constants.PathTasks,
		Query:  url.Values{"projectId": {projectID}},
	}, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create adds a task to a project. An empty description is omitted.
func (service *Service) Create(context context.Context, input CreateInput) (*Task, error) {
	validator := &validate.Validator{}
	validator.Required("title", input.Title).MaxLen("title", input.Title, constants.MaxTitleLength)
	validator.Required("projectId", input.ProjectID)
	if err := validator.Err(); err != nil {
		return nil, err
	}
	input.Description = pointer.NonZero(pointer.Val(input.Description))

	return service.send(context, http.MethodPost, constants.PathTasks, input)
}

/*
Update applies a partial update.

Parameters:
  - context: context.Context
  - taskID: string
  - input: UpdateInput (nil fields untouched)

Returns:
  - *Task: The updated task
  - error: Validation or backend errors
*/
func (service *Service) Update(context context.Context, taskID string, input UpdateInput) (*Task, error) {
	validator := &validate.Validator{}
	if input.Title != nil {
		validator.Required("title", *input.Title).MaxLen("title", *input.Title, constants.MaxTitleLength)
	}
	if input.Status != nil {
		validator.OneOf("status", string(*input.Status), statusNames...)
	}
	validator.Custom("input", input == UpdateInput{}, "Nothing to update")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	return service.send(context, http.MethodPut, taskPath(taskID), input)
}

// UpdateStatus moves a task to any status.
func (service *Service) UpdateStatus(context context.Context, taskID string, status Status) (*Task, error) {
	if err := (&validate.Validator{}).OneOf("status", string(status), statusNames...).Err(); err != nil {
		return nil, err
	}

	return service.send(context, http.MethodPatch, taskPath(taskID, "status"), statusRequest{Status: status})
}

// Complete marks a task COMPLETED.
func (service *Service) Complete(context context.Context, taskID string) (*Task, error) {
	return service.send(context, http.MethodPatch, taskPath(taskID, "complete"), nil)
}

// Discontinue marks a task DISCONTINUED.
func (service *Service) Discontinue(context context.Context, taskID string) (*Task, error) {
	return service.send(context, http.MethodPatch, taskPath(taskID, "discontinue"), nil)
}

// Delete removes a task.
func (service *Service) Delete(context context.Context, taskID string) error {
	return service.backend.Do(context, gateway.Request{Method: http.MethodDelete, Path: taskPath(taskID)}, nil)
}

func (service *Service) send(context context.Context, method, path string, body any) (*Task, error) {
	var task Task
	if err := service.backend.Do(context, gateway.Request{Method: method, Path: path, Body: body}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func taskPath(taskID string, segments ...string) string {
	path := constants.PathTasks + "/" + url.PathEscape(taskID)
	for _, segment := range segments {
		path += "/" + url.PathEscape(segment)
	}
	return path
}
