// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// stockroom-server serves a shared product collection over TCP.
//
// Products live in memory and in a SQLite database that every mutation
// is written through before it becomes visible. Clients must register
// or log in; a product can only be changed or removed by the user who
// created it.
//
// Configuration comes from --config or $STOCKROOM_CONFIG (see
// lib/config). --listen and --database override the file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/stockroom/lib/auth"
	"github.com/bureau-foundation/stockroom/lib/config"
	"github.com/bureau-foundation/stockroom/lib/process"
	"github.com/bureau-foundation/stockroom/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	var (
		configPath  string
		listen      string
		database    string
		logLevel    string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("stockroom-server", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "config file (default $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&listen, "listen", "", "TCP listen address, overriding server.listen")
	flagSet.StringVar(&database, "database", "", "SQLite database path, overriding server.database")
	flagSet.StringVar(&logLevel, "log-level", "info", "debug, info, warn, or error")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print(os.Stdout, "stockroom-server")
		return nil
	}

	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}
	if database != "" {
		cfg.Server.Database = database
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger := process.NewLogger(os.Stderr, process.ParseLevel(logLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	instance, err := start(ctx, cfg.Server, auth.DefaultHashParams, logger)
	if err != nil {
		return err
	}
	defer instance.Close()

	logger.Info("stockroom-server starting",
		"version", version.Info(),
		"environment", cfg.Environment,
		"database", cfg.Server.Database,
	)
	return instance.server.Serve(ctx)
}
