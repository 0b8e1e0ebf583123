// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/tenantx/internal/organization"
	"github.com/taibuivan/tenantx/internal/platform/sec"
	"github.com/taibuivan/tenantx/pkg/slice"
)

func (c *console) orgCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "org",
		Aliases: []string{"orgs", "organization"},
		Short:   "Manage organizations, members and invitations",
	}

	cmd.AddCommand(
		c.orgListCommand(),
		c.orgCreateCommand(),
		c.orgRenameCommand(),
		c.orgDeleteCommand(),
		c.orgSwitchCommand(),
		c.orgPickCommand(),
		c.orgMembersCommand(),
		c.orgInviteCommand(),
		c.orgSetRoleCommand(),
		c.orgRemoveMemberCommand(),
		c.orgInvitesCommand(),
		c.orgRevokeInviteCommand(),
		c.orgAcceptInviteCommand(),
	)
	return cmd
}

// # Organizations

func (c *console) orgListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the organizations you belong to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			orgs, err := c.app.Organizations.List(cmd.Context())
			if err != nil {
				return err
			}

			selected := ""
			if org := c.app.Session.Snapshot().SelectedOrganization; org != nil {
				selected = org.ID
			}

			return c.emit(orgs, func(w io.Writer) {
				rows := make([][]string, 0, len(orgs))
				for _, org := range orgs {
					marker := ""
					if org.ID == selected {
						marker = "*"
					}
					rows = append(rows, []string{marker, org.ID, org.Name, formatDate(org.CreatedAt)})
				}
				renderTable(w, []string{"", "ID", "NAME", "CREATED"}, rows)
			})
		},
	}
}

func (c *console) orgCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			org, err := c.app.Organizations.Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.done("Created organization "+org.Name, map[string]string{"id": org.ID})
		},
	}
}

func (c *console) orgRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <org-id> <name>",
		Short: "Rename an organization",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			org, err := c.app.Organizations.Update(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return c.done("Renamed organization to "+org.Name, map[string]string{"id": org.ID})
		},
	}
}

func (c *console) orgDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <org-id>",
		Short: "Delete an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			if err := c.confirm(yes, "Delete organization "+args[0]+"?"); err != nil {
				return err
			}

			if err := c.app.Organizations.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.done("Deleted organization "+args[0], map[string]string{"id": args[0]})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// # Switching

func (c *console) orgSwitchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <org-id>",
		Short: "Make an organization the active tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			orgs, err := c.app.Organizations.List(cmd.Context())
			if err != nil {
				return err
			}

			name := args[0]
			if org, ok := slice.Find(orgs, func(o organization.Organization) bool { return o.ID == args[0] }); ok {
				name = org.Name
			}
			return c.switchTo(cmd, args[0], name)
		},
	}
}

func (c *console) orgPickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Choose the active organization from a list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			if c.env.Prompter == nil {
				return errors.New("org pick needs a terminal, use tenantx org switch <org-id>")
			}

			orgs, err := c.app.Organizations.List(cmd.Context())
			if err != nil {
				return err
			}

			choices := make([]Choice, len(orgs))
			names := make(map[string]string, len(orgs))
			for i, org := range orgs {
				choices[i] = Choice{Label: org.Name, Value: org.ID}
				names[org.ID] = org.Name
			}

			orgID, err := c.env.Prompter.Select("Organization", choices)
			if err != nil {
				return err
			}
			return c.switchTo(cmd, orgID, names[orgID])
		},
	}
}

func (c *console) switchTo(cmd *cobra.Command, orgID, name string) error {
	result, err := c.app.Organizations.Switch(cmd.Context(), orgID, name)
	if err != nil {
		return err
	}
	return c.done(fmt.Sprintf("Switched to %s as %s", name, result.Role), map[string]string{
		"organizationId": orgID,
		"role":           result.Role,
	})
}

// # Members

func (c *console) orgMembersCommand() *cobra.Command {
	var orgID string

	cmd := &cobra.Command{
		Use:   "members",
		Short: "List the members of an organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			id, err := c.activeOrganization(orgID)
			if err != nil {
				return err
			}

			members, err := c.app.Organizations.Members(cmd.Context(), id)
			if err != nil {
				return err
			}

			return c.emit(members, func(w io.Writer) {
				rows := make([][]string, 0, len(members))
				for _, member := range members {
					rows = append(rows, []string{member.UserID, member.Email, member.Role})
				}
				renderTable(w, []string{"USER", "EMAIL", "ROLE"}, rows)
			})
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "Organization (defaults to the active one)")
	return cmd
}

func (c *console) orgInviteCommand() *cobra.Command {
	var orgID, role string

	cmd := &cobra.Command{
		Use:   "invite <email>",
		Short: "Invite someone to an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			id, err := c.activeOrganization(orgID)
			if err != nil {
				return err
			}

			if err := c.app.Organizations.Invite(cmd.Context(), id, args[0], role); err != nil {
				return err
			}
			return c.done("Invited "+args[0]+" as "+role, map[string]string{"email": args[0], "role": role})
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "Organization (defaults to the active one)")
	cmd.Flags().StringVar(&role, "role", sec.RoleMember.String(), "Role: ORG_ADMIN, MANAGER or MEMBER")
	return cmd
}

func (c *console) orgSetRoleCommand() *cobra.Command {
	var orgID string

	cmd := &cobra.Command{
		Use:   "set-role <user-id> <role>",
		Short: "Change the role of a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			id, err := c.activeOrganization(orgID)
			if err != nil {
				return err
			}

			if err := c.app.Organizations.ChangeMemberRole(cmd.Context(), id, args[0], args[1]); err != nil {
				return err
			}
			return c.done("Member "+args[0]+" is now "+args[1], map[string]string{"userId": args[0], "role": args[1]})
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "Organization (defaults to the active one)")
	return cmd
}

func (c *console) orgRemoveMemberCommand() *cobra.Command {
	var orgID string
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove-member <user-id>",
		Short: "Remove a member from an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			id, err := c.activeOrganization(orgID)
			if err != nil {
				return err
			}
			if err := c.confirm(yes, "Remove member "+args[0]+"?"); err != nil {
				return err
			}

			if err := c.app.Organizations.RemoveMember(cmd.Context(), id, args[0]); err != nil {
				return err
			}
			return c.done("Removed member "+args[0], map[string]string{"userId": args[0]})
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "Organization (defaults to the active one)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// # Invitations

func (c *console) orgInvitesCommand() *cobra.Command {
	var orgID string

	cmd := &cobra.Command{
		Use:   "invites",
		Short: "List pending invitations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			id, err := c.activeOrganization(orgID)
			if err != nil {
				return err
			}

			invites, err := c.app.Organizations.PendingInvites(cmd.Context(), id)
			if err != nil {
				return err
			}

			return c.emit(invites, func(w io.Writer) {
				rows := make([][]string, 0, len(invites))
				for _, invite := range invites {
					rows = append(rows, []string{invite.ID, invite.Email, invite.Role, formatDate(invite.InvitedAt)})
				}
				renderTable(w, []string{"ID", "EMAIL", "ROLE", "INVITED"}, rows)
			})
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "Organization (defaults to the active one)")
	return cmd
}

func (c *console) orgRevokeInviteCommand() *cobra.Command {
	var orgID string

	cmd := &cobra.Command{
		Use:   "revoke-invite <invite-id>",
		Short: "Cancel a pending invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			id, err := c.activeOrganization(orgID)
			if err != nil {
				return err
			}

			if err := c.app.Organizations.RevokeInvite(cmd.Context(), id, args[0]); err != nil {
				return err
			}
			return c.done("Revoked invitation "+args[0], map[string]string{"id": args[0]})
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "Organization (defaults to the active one)")
	return cmd
}

func (c *console) orgAcceptInviteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accept-invite <token>",
		Short: "Join an organization with an invitation token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			org, err := c.app.Organizations.AcceptInvite(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.done("Joined "+org.Name, map[string]string{"organizationId": org.ID})
		},
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
