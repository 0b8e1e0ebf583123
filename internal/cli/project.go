// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"io"

	"github.com/spf13/cobra"
)

func (c *console) projectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage the projects of the active organization",
	}

	cmd.AddCommand(
		c.projectListCommand(),
		c.projectCreateCommand(),
		c.projectRenameCommand(),
		c.projectDeleteCommand(),
	)
	return cmd
}

func (c *console) projectListCommand() *cobra.Command {
	var orgID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			projects, err := c.app.Projects.List(cmd.Context(), orgID)
			if err != nil {
				return err
			}

			return c.emit(projects, func(w io.Writer) {
				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					rows = append(rows, []string{p.ID, p.Name, formatDate(p.CreatedAt)})
				}
				renderTable(w, []string{"ID", "NAME", "CREATED"}, rows)
			})
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "Organization (defaults to the token's organization)")
	return cmd
}

func (c *console) projectCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			p, err := c.app.Projects.Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.done("Created project "+p.Name, map[string]string{"id": p.ID})
		},
	}
}

func (c *console) projectRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <project-id> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			p, err := c.app.Projects.Update(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return c.done("Renamed project to "+p.Name, map[string]string{"id": p.ID})
		},
	}
}

func (c *console) projectDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			if err := c.confirm(yes, "Delete project "+args[0]+" and all of its tasks?"); err != nil {
				return err
			}

			if err := c.app.Projects.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.done("Deleted project "+args[0], map[string]string{"id": args[0]})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
