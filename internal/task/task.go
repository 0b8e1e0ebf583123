// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package task wraps the backend's task endpoints.

A task belongs to a project and moves through four statuses. Completion and
discontinuation have dedicated endpoints; any other transition goes through
[Service.UpdateStatus].
*/
package task

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// # Task Enums

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo         Status = "TODO"
	StatusInProgress   Status = "IN_PROGRESS"
	StatusCompleted    Status = "COMPLETED"
	StatusDiscontinued Status = "DISCONTINUED"
)

// Statuses lists every status in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted, StatusDiscontinued}

var titleCaser = cases.Title(language.English)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Done reports whether the task left the active board.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusDiscontinued
}

// Label renders the status for humans ("IN_PROGRESS" becomes "In Progress").
func (s Status) Label() string {
	return titleCaser.String(strings.ReplaceAll(strings.ToLower(string(s)), "_", " "))
}

func (s Status) String() string { return string(s) }

// # Core Entities

// Task is a unit of work inside a project.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      Status     `json:"status"`
	ProjectID   string     `json:"projectId"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// CreateInput holds the fields of a new task.
type CreateInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	ProjectID   string  `json:"projectId"`
}

// UpdateInput holds a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

type statusRequest struct {
	Status Status `json:"status"`
}
