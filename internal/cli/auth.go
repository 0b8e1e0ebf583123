// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taibuivan/tenantx/internal/auth"
	"github.com/taibuivan/tenantx/internal/platform/sec"
	"github.com/taibuivan/tenantx/internal/session"
)

// # Sign-in

func (c *console) loginCommand() *cobra.Command {
	var input auth.LoginInput

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.ask(&input.Email, "email", "Email", false); err != nil {
				return err
			}
			if err := c.ask(&input.Password, "password", "Password", true); err != nil {
				return err
			}

			if _, err := c.app.Auth.Login(cmd.Context(), input); err != nil {
				return err
			}

			identity := c.app.Session.Snapshot().Identity
			return c.done("Signed in as "+input.Email, map[string]string{
				"userId":         identity.UserID,
				"role":           identity.Role,
				"organizationId": identity.OrganizationID,
			})
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&input.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&input.OrganizationID, "org", "", "Sign in scoped to this organization")
	return cmd
}

func (c *console) registerCommand() *cobra.Command {
	var input auth.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; a confirmation code is emailed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.ask(&input.Email, "email", "Email", false); err != nil {
				return err
			}
			if err := c.ask(&input.Name, "name", "Full name", false); err != nil {
				return err
			}
			if err := c.ask(&input.Password, "password", "Password", true); err != nil {
				return err
			}

			message, err := c.app.Auth.Register(cmd.Context(), input)
			if err != nil {
				return err
			}
			return c.done(orDefault(message.Message, "Account created, check your email for the code"), map[string]string{"email": input.Email})
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&input.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&input.Password, "password", "", "Account password")
	return cmd
}

func (c *console) verifyOTPCommand() *cobra.Command {
	var email, otp string

	cmd := &cobra.Command{
		Use:   "verify-otp",
		Short: "Confirm an account with the emailed code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.ask(&email, "email", "Email", false); err != nil {
				return err
			}
			if err := c.ask(&otp, "otp", "Confirmation code", false); err != nil {
				return err
			}

			message, err := c.app.Auth.VerifyOTP(cmd.Context(), email, otp)
			if err != nil {
				return err
			}
			return c.done(orDefault(message.Message, "Account confirmed"), nil)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&otp, "otp", "", "Six-digit code")
	return cmd
}

func (c *console) resendOTPCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resend-otp",
		Short: "Send a new confirmation code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.ask(&email, "email", "Email", false); err != nil {
				return err
			}

			message, err := c.app.Auth.ResendOTP(cmd.Context(), email)
			if err != nil {
				return err
			}
			return c.done(orDefault(message.Message, "Code sent"), nil)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	return cmd
}

func (c *console) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			return c.done("Signed out", nil)
		},
	}
}

func (c *console) refreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new token pair now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			pair, err := c.app.Auth.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			return c.done("Session refreshed", map[string]string{"role": pair.Role})
		},
	}
}

// # Identity

func (c *console) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Verify the session with the backend and show who is signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			ok, err := c.app.Session.VerifyAuth(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotSignedIn
			}

			snapshot := c.app.Session.Snapshot()
			return c.emit(snapshot, func(w io.Writer) { renderIdentity(w, snapshot) })
		},
	}
}

func renderIdentity(w io.Writer, snapshot session.Session) {
	identity := snapshot.Identity
	fmt.Fprintln(w, titleStyle.Render(orDefault(identity.Name, identity.UserID)))
	renderField(w, "User", identity.UserID)
	renderField(w, "Email", identity.Email)
	renderField(w, "Login", identity.LoginMethod)
	renderField(w, "Role", identity.Role)
	renderField(w, "Organization", identity.OrganizationID)
	if org := snapshot.SelectedOrganization; org != nil {
		renderField(w, "Selected", org.Name+" ("+org.ID+")")
	}
	if sec.OrgRole(identity.Role).AtLeast(sec.RoleOrgAdmin) {
		fmt.Fprintln(w, mutedStyle.Render("You can manage members and invitations of this organization."))
	}
}

// # Password Recovery

func (c *console) forgotPasswordCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Email a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.ask(&email, "email", "Email", false); err != nil {
				return err
			}

			message, err := c.app.Auth.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return err
			}
			return c.done(orDefault(message.Message, "Reset link sent"), nil)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	return cmd
}

func (c *console) resetPasswordCommand() *cobra.Command {
	var token, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the token from the reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.ask(&token, "token", "Reset token", false); err != nil {
				return err
			}
			if err := c.ask(&password, "password", "New password", true); err != nil {
				return err
			}

			message, err := c.app.Auth.ResetPassword(cmd.Context(), token, password)
			if err != nil {
				return err
			}
			return c.done(orDefault(message.Message, "Password updated"), nil)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Reset token")
	cmd.Flags().StringVar(&password, "password", "", "New password")
	return cmd
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
