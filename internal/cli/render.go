// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/taibuivan/tenantx/internal/platform/apperr"
	"github.com/taibuivan/tenantx/internal/task"
)

// # Styles

var (
	primary = lipgloss.Color("#7C3AED")
	success = lipgloss.Color("#10B981")
	warning = lipgloss.Color("#F59E0B")
	danger  = lipgloss.Color("#EF4444")
	muted   = lipgloss.Color("#6B7280")
	info    = lipgloss.Color("#3B82F6")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primary)
	labelStyle   = lipgloss.NewStyle().Foreground(muted).Width(14)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warning)
	errorStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(primary).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// statusStyles colors task statuses on the board.
var statusStyles = map[task.Status]lipgloss.Style{
	task.StatusTodo:         lipgloss.NewStyle().Foreground(muted),
	task.StatusInProgress:   lipgloss.NewStyle().Foreground(info),
	task.StatusCompleted:    lipgloss.NewStyle().Foreground(success),
	task.StatusDiscontinued: lipgloss.NewStyle().Foreground(warning).Strikethrough(true),
}

func statusBadge(status task.Status) string {
	style, ok := statusStyles[status]
	if !ok {
		return string(status)
	}
	return style.Render(status.Label())
}

// # Output

// emit writes data as indented JSON in --json mode, otherwise calls human.
func (c *console) emit(data any, human func(w io.Writer)) error {
	if c.jsonOutput {
		encoder := json.NewEncoder(c.env.Out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
	human(c.env.Out)
	return nil
}

// done prints a one-line confirmation, or {"ok": true, ...} in --json mode.
func (c *console) done(message string, fields map[string]string) error {
	if c.jsonOutput {
		payload := map[string]any{"ok": true, "message": message}
		for key, value := range fields {
			payload[key] = value
		}
		return c.emit(payload, nil)
	}
	fmt.Fprintln(c.env.Out, successStyle.Render("✓")+" "+message)
	return nil
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("(none)"))
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	fmt.Fprintln(w, t.Render())
}

func renderField(w io.Writer, label, value string) {
	if value == "" {
		value = mutedStyle.Render("-")
	}
	fmt.Fprintln(w, labelStyle.Render(label)+value)
}

// printError renders err for humans, listing validation details.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("Error: ")+err.Error())

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		for _, detail := range appErr.Details {
			fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render(detail.Field+":"), detail.Message)
		}
	}
}
