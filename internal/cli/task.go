// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taibuivan/tenantx/internal/task"
	"github.com/taibuivan/tenantx/pkg/pointer"
	"github.com/taibuivan/tenantx/pkg/slice"
)

func (c *console) taskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage the tasks of a project",
	}

	cmd.AddCommand(
		c.taskListCommand(),
		c.taskCreateCommand(),
		c.taskUpdateCommand(),
		c.taskStatusCommand(),
		c.taskTransitionCommand("complete", "Mark a task completed", "Completed", (*task.Service).Complete),
		c.taskTransitionCommand("discontinue", "Mark a task discontinued", "Discontinued", (*task.Service).Discontinue),
		c.taskDeleteCommand(),
	)
	return cmd
}

func (c *console) taskListCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the tasks of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			tasks, err := c.app.Tasks.ListByProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if status != "" {
				want := parseStatus(status)
				tasks = slice.Filter(tasks, func(t task.Task) bool { return t.Status == want })
			}

			return c.emit(tasks, func(w io.Writer) {
				rows := make([][]string, 0, len(tasks))
				for _, t := range tasks {
					rows = append(rows, []string{t.ID, t.Title, statusBadge(t.Status), pointer.Val(t.Description)})
				}
				renderTable(w, []string{"ID", "TITLE", "STATUS", "DESCRIPTION"}, rows)
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show tasks in this status")
	return cmd
}

func (c *console) taskCreateCommand() *cobra.Command {
	var input task.CreateInput
	var description string

	cmd := &cobra.Command{
		Use:   "create <project-id>",
		Short: "Add a task to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			if err := c.ask(&input.Title, "title", "Title", false); err != nil {
				return err
			}
			input.ProjectID = args[0]
			input.Description = &description

			created, err := c.app.Tasks.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			return c.done("Created task "+created.Title, map[string]string{"id": created.ID})
		},
	}

	cmd.Flags().StringVar(&input.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	return cmd
}

func (c *console) taskUpdateCommand() *cobra.Command {
	var title, description, status string

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Change the title, description or status of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			var input task.UpdateInput
			flags := cmd.Flags()
			if flags.Changed("title") {
				input.Title = &title
			}
			if flags.Changed("description") {
				input.Description = &description
			}
			if flags.Changed("status") {
				input.Status = pointer.To(parseStatus(status))
			}

			updated, err := c.app.Tasks.Update(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}
			return c.emit(updated, func(w io.Writer) { renderTask(w, updated) })
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", statusHelp())
	return cmd
}

func (c *console) taskStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Move a task to another status",
		Long:  statusHelp(),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			updated, err := c.app.Tasks.UpdateStatus(cmd.Context(), args[0], parseStatus(args[1]))
			if err != nil {
				return err
			}
			return c.emit(updated, func(w io.Writer) { renderTask(w, updated) })
		},
	}
}

type transition func(*task.Service, context.Context, string) (*task.Task, error)

func (c *console) taskTransitionCommand(use, short, verb string, apply transition) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			updated, err := apply(c.app.Tasks, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.done(verb+" "+updated.Title, map[string]string{"id": updated.ID, "status": updated.Status.String()})
		},
	}
}

func (c *console) taskDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			if err := c.confirm(yes, "Delete task "+args[0]+"?"); err != nil {
				return err
			}

			if err := c.app.Tasks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.done("Deleted task "+args[0], map[string]string{"id": args[0]})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// parseStatus accepts "in-progress", "in_progress" or "IN_PROGRESS".
// Unknown values pass through for the service to reject.
func parseStatus(value string) task.Status {
	return task.Status(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), "-", "_")))
}

func statusHelp() string {
	names := make([]string, len(task.Statuses))
	for i, status := range task.Statuses {
		names[i] = strings.ToLower(strings.ReplaceAll(status.String(), "_", "-"))
	}
	return "Status: " + strings.Join(names, ", ")
}

func renderTask(w io.Writer, t *task.Task) {
	fmt.Fprintln(w, titleStyle.Render(t.Title))
	renderField(w, "ID", t.ID)
	renderField(w, "Status", statusBadge(t.Status))
	renderField(w, "Project", t.ProjectID)
	renderField(w, "Description", pointer.Val(t.Description))
}
