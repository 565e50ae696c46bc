// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"strconv"

	"github.com/bureau-foundation/stockroom/lib/command"
	"github.com/bureau-foundation/stockroom/lib/wire"
)

// RegisterBuiltins adds exit, execute_script, and history to registry.
// history reads from h, which must be the History given to the
// Executor.
func RegisterBuiltins(registry *command.Registry[command.ClientCommand], h *History) {
	registry.Register(exitCommand{command.Meta{
		CommandName: command.Exit,
		Summary:     "disconnect and quit",
	}})
	registry.Register(executeScriptCommand{command.Meta{
		CommandName: command.ExecuteScript,
		Summary:     "run the commands in a file, one per line",
	}})
	registry.Register(&historyCommand{
		Meta: command.Meta{
			CommandName: command.History,
			Summary:     "list the last " + strconv.Itoa(len(h.entries)) + " command names",
		},
		history: h,
	})
}

type exitCommand struct{ command.Meta }

func (c exitCommand) BuildRequest(args string, _ command.Input) (*wire.Request, error) {
	if args != "" {
		return nil, command.Errorf(c.Name(), "takes no arguments")
	}
	return wire.NewRequest(command.Exit, nil)
}

type executeScriptCommand struct{ command.Meta }

// BuildRequest carries the path in the payload; the executor runs the
// script without a round trip.
func (c executeScriptCommand) BuildRequest(args string, _ command.Input) (*wire.Request, error) {
	if args == "" {
		return nil, command.Errorf(c.Name(), "usage: execute_script <path>")
	}
	return wire.NewRequest(command.ExecuteScript, args)
}

type historyCommand struct {
	command.Meta
	history *History
}

func (c *historyCommand) BuildRequest(args string, _ command.Input) (*wire.Request, error) {
	if args != "" {
		return nil, command.Errorf(c.Name(), "takes no arguments")
	}
	return wire.NewRequest(command.History, nil)
}

// Respond lists the history, oldest first.
func (c *historyCommand) Respond(*wire.Request) *wire.Response {
	listing := &wire.Table{Columns: []string{"#", "command"}}
	for i, name := range c.history.Entries() {
		listing.AddRow(strconv.Itoa(i+1), name)
	}
	return wire.Listing("command history", listing)
}
