// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/tenantx/internal/session"
)

// watchPoll is how often watch checks whether the verification loop ended.
const watchPoll = 250 * time.Millisecond

func (c *console) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the session verified in the foreground until interrupted",
		Long: `watch verifies the session immediately and then on every VERIFY_INTERVAL
tick, refreshing expired tokens as needed. It exits when interrupted or when
the backend ends the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			ctx := cmd.Context()
			store := c.app.Session

			ok, err := store.VerifyAuth(ctx)
			if err != nil && !session.IsSuperseded(err) {
				return err
			}
			if err == nil && !ok {
				return ErrNotSignedIn
			}

			identity := store.Snapshot().Identity
			fmt.Fprintln(c.env.Out, mutedStyle.Render(fmt.Sprintf("Watching session of %s every %s, press Ctrl+C to stop",
				orDefault(identity.Email, identity.UserID), c.app.Config.VerifyInterval)))

			store.StartPeriodicVerification(ctx)
			defer store.StopPeriodicVerification()

			ticker := time.NewTicker(watchPoll)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					c.app.Logger.Debug("cli_watch_interrupted", slog.Any("reason", ctx.Err()))
					return nil
				case <-ticker.C:
					if !store.Verifying() {
						if !store.Snapshot().IsAuthenticated {
							return ErrNotSignedIn
						}
						return nil
					}
				}
			}
		},
	}
}
