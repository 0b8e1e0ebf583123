// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cli is the tenantx command-line console.

Every command hydrates the session from its backend before running. Commands
that act on tenant data refuse to run without an authenticated session. When
the gateway ends the session (refresh rejected) the user is told to sign in
again.

Missing arguments are prompted for with interactive forms when stdin is a
terminal; otherwise they must be passed as flags.
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taibuivan/tenantx/internal/app"
	"github.com/taibuivan/tenantx/internal/platform/config"
	"github.com/taibuivan/tenantx/internal/platform/logger"
)

// ErrNotSignedIn is returned by commands that need a session.
var ErrNotSignedIn = errors.New("not signed in, run tenantx login")

// SessionExpiredNotice is printed when the gateway ends the session.
const SessionExpiredNotice = "session expired, run tenantx login"

// Environment is everything the console needs from its host process.
type Environment struct {
	Out io.Writer
	Err io.Writer

	// LoadConfig returns the configuration; config.Load in production.
	LoadConfig func() (*config.Config, error)

	// Prompter asks for missing input. Nil disables prompting.
	Prompter Prompter

	// Options are appended to the app wiring (tests inject backends here).
	Options []app.Option
}

// console holds the state shared by every command of one invocation.
type console struct {
	env Environment
	app *app.App

	// Global flags
	jsonOutput bool
	apiURL     string
	profile    string
	logLevel   string
}

// NewRootCommand builds the tenantx command tree.
func NewRootCommand(env Environment) *cobra.Command {
	return (&console{env: env}).rootCommand()
}

func (c *console) rootCommand() *cobra.Command {
	env := c.env
	root := &cobra.Command{
		Use:   "tenantx",
		Short: "Console for TenantX organizations, projects and tasks",
		Long: `tenantx signs you in to a TenantX backend and manages organizations,
projects and tasks from the terminal.

Environment Variables:
  TENANTX_API_URL   Backend API URL (default: http://localhost:8080)
  SESSION_STORE     Session backend: file, memory, redis, postgres (default: file)
  SESSION_PROFILE   Named session, to stay signed in to several accounts`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.start,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.stop()
		},
	}
	root.SetOut(env.Out)
	root.SetErr(env.Err)

	flags := root.PersistentFlags()
	flags.BoolVar(&c.jsonOutput, "json", false, "Output JSON instead of human-readable text")
	flags.StringVar(&c.apiURL, "api-url", "", "Backend API URL (overrides TENANTX_API_URL)")
	flags.StringVar(&c.profile, "profile", "", "Session profile (overrides SESSION_PROFILE)")
	flags.StringVar(&c.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		c.loginCommand(),
		c.registerCommand(),
		c.verifyOTPCommand(),
		c.resendOTPCommand(),
		c.logoutCommand(),
		c.refreshCommand(),
		c.whoamiCommand(),
		c.forgotPasswordCommand(),
		c.resetPasswordCommand(),
		c.orgCommand(),
		c.projectCommand(),
		c.taskCommand(),
		c.watchCommand(),
	)
	return root
}

// Execute runs the console and returns the process exit code.
func Execute(ctx context.Context, env Environment, args []string) int {
	c := &console{env: env}
	root := c.rootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if stopErr := c.stop(); err == nil {
		err = stopErr
	}
	if err != nil {
		printError(env.Err, err)
		return 1
	}
	return 0
}

// # Lifecycle

// start wires the application and hydrates the session.
func (c *console) start(cmd *cobra.Command, _ []string) error {
	cfg, err := c.env.LoadConfig()
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIURL = c.apiURL
	}
	if c.profile != "" {
		cfg.SessionProfile = c.profile
	}

	log := logger.New(c.env.Err, c.logLevel, cfg.LogFormat)

	opts := append([]app.Option{app.WithSessionEndedHook(c.sessionEnded)}, c.env.Options...)
	application, err := app.New(cmd.Context(), cfg, log, nil, opts...)
	if err != nil {
		return err
	}
	c.app = application

	if err := application.Session.Load(cmd.Context()); err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	log.Debug("cli_session_hydrated", slog.Bool("authenticated", application.Session.Snapshot().IsAuthenticated))
	return nil
}

func (c *console) stop() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *console) sessionEnded(context.Context) {
	fmt.Fprintln(c.env.Err, warningStyle.Render(SessionExpiredNotice))
}

// # Guards

// requireSession fails unless the hydrated session is authenticated.
func (c *console) requireSession() error {
	if !c.app.Session.Snapshot().IsAuthenticated {
		return ErrNotSignedIn
	}
	return nil
}

// activeOrganization returns the explicit id, else the selected organization,
// else the organization of the access token.
func (c *console) activeOrganization(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	snapshot := c.app.Session.Snapshot()
	if snapshot.SelectedOrganization != nil && snapshot.SelectedOrganization.ID != "" {
		return snapshot.SelectedOrganization.ID, nil
	}
	if snapshot.Identity.OrganizationID != "" {
		return snapshot.Identity.OrganizationID, nil
	}
	return "", errors.New("no organization selected, run tenantx org pick or pass --org")
}
