// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command tenantx is the TenantX terminal console.
//
// It signs in to the backend configured by TENANTX_API_URL, persists the
// session in the configured store and manages organizations, projects and
// tasks. Run tenantx --help for the command list.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/tenantx/internal/cli"
	"github.com/taibuivan/tenantx/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	env := cli.Environment{
		Out:        os.Stdout,
		Err:        os.Stderr,
		LoadConfig: config.Load,
	}
	if cli.IsInteractive() {
		env.Prompter = cli.FormPrompter{}
	}

	code := cli.Execute(ctx, env, os.Args[1:])
	stop()
	os.Exit(code)
}
