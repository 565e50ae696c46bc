// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/stockroom/lib/command"
	"github.com/bureau-foundation/stockroom/lib/wire"
)

// ExitCode is the outcome of executing one line or script.
type ExitCode int

const (
	// OK means keep going.
	OK ExitCode = iota

	// Error means the line failed locally. A script stops at the
	// first Error.
	Error

	// Exit means the user asked to quit. It unwinds every script.
	Exit
)

func (c ExitCode) String() string {
	switch c {
	case OK:
		return "OK"
	case Error:
		return "ERROR"
	case Exit:
		return "EXIT"
	}
	return fmt.Sprintf("ExitCode(%d)", int(c))
}

// DefaultMaxScriptDepth is how many scripts may be nested.
const DefaultMaxScriptDepth = 3

// DefaultPrompt precedes typed commands and echoed script lines.
const DefaultPrompt = "$ "

// Sender performs request/response exchanges. *Connector implements it.
type Sender interface {
	SendCommand(ctx context.Context, request *wire.Request) *wire.Response
	ClearCredentials()
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// Commands is the frozen client registry, including the commands
	// added by RegisterBuiltins.
	Commands *command.Registry[command.ClientCommand]

	Sender Sender

	// History must be the History passed to RegisterBuiltins.
	History *History

	// Output receives responses, errors, and script echo.
	Output io.Writer

	// Prompt defaults to DefaultPrompt.
	Prompt string

	// MaxScriptDepth defaults to DefaultMaxScriptDepth.
	MaxScriptDepth int

	Logger *slog.Logger
}

// Executor runs command lines typed at a console or read from scripts.
type Executor struct {
	commands *command.Registry[command.ClientCommand]
	sender   Sender
	history  *History
	render   *Renderer
	out      io.Writer
	prompt   string
	maxDepth int
	logger   *slog.Logger
}

// NewExecutor returns an Executor.
func NewExecutor(config ExecutorConfig) *Executor {
	executor := &Executor{
		commands: config.Commands,
		sender:   config.Sender,
		history:  config.History,
		out:      config.Output,
		prompt:   config.Prompt,
		maxDepth: config.MaxScriptDepth,
		logger:   config.Logger,
	}
	if executor.out == nil {
		executor.out = io.Discard
	}
	if executor.history == nil {
		executor.history = NewHistory(DefaultHistorySize)
	}
	if executor.prompt == "" {
		executor.prompt = DefaultPrompt
	}
	if executor.maxDepth <= 0 {
		executor.maxDepth = DefaultMaxScriptDepth
	}
	if executor.logger == nil {
		executor.logger = slog.New(slog.DiscardHandler)
	}
	executor.render = NewRenderer(executor.out)
	return executor
}

// Run executes console lines until end of input or exit. A failed
// line does not stop the console.
func (e *Executor) Run(ctx context.Context, console command.Input) ExitCode {
	scripts := NewScriptContext(console)
	for {
		if ctx.Err() != nil {
			return Exit
		}
		line, err := console.ReadLine(e.prompt)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				e.render.Error(fmt.Errorf("reading input: %w", err))
			}
			return OK
		}
		if e.ExecuteLine(ctx, scripts, line) == Exit {
			return Exit
		}
	}
}

// RunScript executes the script at path as if execute_script had been
// typed at a console with no further input.
func (e *Executor) RunScript(ctx context.Context, path string) ExitCode {
	scripts := NewScriptContext(NewConsole(strings.NewReader(""), e.out, false))
	return e.runScript(ctx, scripts, path)
}

// ExecuteLine runs one command line. Commands that need more input
// read it from the top of scripts. A failed server response is an
// [Error] unless the command is [command.Tolerant].
func (e *Executor) ExecuteLine(ctx context.Context, scripts *ScriptContext, line string) ExitCode {
	name, args := command.SplitLine(line)
	if name == "" {
		return OK
	}
	// Recorded after the line runs, so history lists what came before it.
	defer e.history.Add(name)

	cmd, ok := e.commands.Lookup(name)
	if !ok {
		e.render.Error(command.NotFound(name))
		return Error
	}

	request, err := cmd.BuildRequest(args, scripts.Input())
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = command.Errorf(name, "input ended before the command was complete")
		}
		e.render.Error(err)
		return Error
	}
	if !request.Success {
		e.render.Error(command.Errorf(name, "request not built"))
		return Error
	}

	switch request.Command {
	case command.Exit:
		e.sender.SendCommand(ctx, request)
		return Exit
	case command.ExecuteScript:
		var path string
		if err := request.DecodePayload(&path); err != nil {
			e.render.Error(command.Errorf(name, "%v", err))
			return Error
		}
		return e.runScript(ctx, scripts, path)
	}

	var response *wire.Response
	if local, ok := cmd.(command.LocalCommand); ok {
		response = local.Respond(request)
	} else {
		response = e.sender.SendCommand(ctx, request)
	}

	if (request.Command == command.Login || request.Command == command.Register) && !response.Success {
		e.sender.ClearCredentials()
	}
	e.render.Response(response)
	if response.Success {
		return OK
	}
	if tolerant, ok := cmd.(command.Tolerant); ok && tolerant.ContinueOnFailure() {
		return OK
	}
	return Error
}

// runScript executes the lines of the script at path. The script's
// lines also feed the field prompts of the commands it contains.
func (e *Executor) runScript(ctx context.Context, scripts *ScriptContext, path string) ExitCode {
	resolved, err := filepath.Abs(path)
	if err != nil {
		e.render.Error(command.Errorf(command.ExecuteScript, "resolving %s: %v", path, err))
		return Error
	}
	if scripts.Active(resolved) || scripts.Depth() >= e.maxDepth {
		e.render.Error(&ScriptRecursionError{Path: path, Depth: scripts.Depth(), MaxDepth: e.maxDepth})
		return Error
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		e.render.Error(command.Errorf(command.ExecuteScript, "cannot read script: %v", err))
		return Error
	}
	if strings.TrimSpace(string(content)) == "" {
		e.render.Error(command.Errorf(command.ExecuteScript, "script file is empty"))
		return Error
	}

	input := newScriptInput(string(content), e.out)
	scripts.push(resolved, input)
	defer scripts.pop()
	e.logger.Debug("script started", "path", resolved, "depth", scripts.Depth())

	code := OK
	var failedName string
	for code == OK {
		line, err := input.nextLine()
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fmt.Fprintf(e.out, "%s%s\n", e.prompt, line)
		code = e.ExecuteLine(ctx, scripts, line)
		failedName, _ = command.SplitLine(line)
	}

	// A nested execute_script has already explained its own failure.
	if code == Error && failedName != command.ExecuteScript {
		e.render.Println("check script " + path)
	}
	return code
}
