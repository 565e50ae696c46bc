// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// stockroom is the interactive client for stockroom-server.
//
// It reads one command per line from the terminal, or runs the script
// given as its only argument and exits. Commands that need a product
// or a person prompt for each field; inside a script the field values
// are the lines that follow the command.
//
//	$ stockroom
//	$ register ada correct-horse
//	$ insert 1
//	product name: ...
//
// Configuration comes from --config or $STOCKROOM_CONFIG (see
// lib/config). --address overrides client.address.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/stockroom/lib/client"
	"github.com/bureau-foundation/stockroom/lib/command"
	"github.com/bureau-foundation/stockroom/lib/config"
	"github.com/bureau-foundation/stockroom/lib/process"
	"github.com/bureau-foundation/stockroom/lib/version"
)

// exitStatus is returned by run when the process should exit non-zero
// without printing anything further.
type exitStatus int

func (s exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(s)) }

func main() {
	if err := run(os.Args[1:]); err != nil {
		var status exitStatus
		if errors.As(err, &status) {
			os.Exit(int(status))
		}
		process.Fatal(err)
	}
}

func run(args []string) error {
	var (
		configPath  string
		address     string
		logLevel    string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("stockroom", pflag.ContinueOnError)
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: stockroom [flags] [script]")
		flagSet.PrintDefaults()
	}
	flagSet.StringVar(&configPath, "config", "", "config file (default $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&address, "address", "", "server address, overriding client.address")
	flagSet.StringVar(&logLevel, "log-level", "warn", "debug, info, warn, or error")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print(os.Stdout, "stockroom")
		return nil
	}
	if flagSet.NArg() > 1 {
		return fmt.Errorf("expected at most one script path, got %d arguments", flagSet.NArg())
	}

	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}
	if address != "" {
		cfg.Client.Address = address
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := process.NewLogger(os.Stderr, process.ParseLevel(logLevel))
	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	session := newSession(cfg.Client, os.Stdout, logger)
	defer session.connector.Close()

	// SIGINT keeps its default behavior: the process dies and the
	// server sees the connection close.
	ctx := context.Background()
	if session.connector.EnsureConnection(ctx) {
		logger.Info("connected", "address", cfg.Client.Address)
	} else if interactive {
		session.render.Errorf("server %s is unavailable; commands will retry the connection", cfg.Client.Address)
	}

	var code client.ExitCode
	if flagSet.NArg() == 1 {
		code = session.executor.RunScript(ctx, flagSet.Arg(0))
	} else {
		code = session.executor.Run(ctx, client.NewConsole(os.Stdin, os.Stdout, interactive))
	}
	logger.Debug("session finished", "code", code)
	if code == client.Error {
		return exitStatus(1)
	}
	return nil
}

// session is the client registry, connector, and executor wired
// together for one process.
type session struct {
	connector *client.Connector
	executor  *client.Executor
	render    *client.Renderer
}

func newSession(cfg config.ClientConfig, out io.Writer, logger *slog.Logger) *session {
	connector := client.NewConnector(client.ConnectorConfig{
		Address:        cfg.Address,
		ConnectTimeout: cfg.ConnectTimeout,
		IOTimeout:      cfg.ReceiveTimeout,
		Logger:         logger,
	})
	render := client.NewRenderer(out)
	history := client.NewHistory(cfg.HistorySize)

	commands := command.NewRegistry[command.ClientCommand]()
	client.RegisterBuiltins(commands, history)
	registerCommands(commands, connector, render.Error)
	commands.Freeze()

	executor := client.NewExecutor(client.ExecutorConfig{
		Commands:       commands,
		Sender:         connector,
		History:        history,
		Output:         out,
		MaxScriptDepth: cfg.MaxScriptDepth,
		Logger:         logger,
	})
	return &session{connector: connector, executor: executor, render: render}
}
