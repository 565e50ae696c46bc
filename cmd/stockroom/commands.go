// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strconv"
	"strings"

	"github.com/bureau-foundation/stockroom/lib/client"
	"github.com/bureau-foundation/stockroom/lib/command"
	"github.com/bureau-foundation/stockroom/lib/wire"
)

// registerCommands adds the stockroom catalog to registry. Commands
// that prompt for fields report invalid interactive values through
// report before asking again.
func registerCommands(registry *command.Registry[command.ClientCommand], connector *client.Connector, report func(error)) {
	plain := []command.Meta{
		{CommandName: command.Help, Summary: "list the server commands"},
		{CommandName: "info", Summary: "show collection metadata"},
		{CommandName: "show", Summary: "list every product by descending price"},
		{CommandName: "clear", Summary: "remove every product you own"},
		{CommandName: "print_field_ascending_owner", Summary: "list product owners by passport id"},
		{CommandName: "print_field_descending_price", Summary: "list product prices, highest first"},
	}
	for _, meta := range plain {
		registry.Register(plainCommand{meta})
	}

	registry.Register(idCommand{Meta: command.Meta{CommandName: "remove_key", Summary: "remove the product with the given id"}})
	registry.Register(idCommand{
		Meta:     command.Meta{CommandName: "remove_lower_key", Summary: "remove your products with a smaller id"},
		tolerant: true,
	})
	registry.Register(idCommand{
		Meta:     command.Meta{CommandName: "remove_greater_key", Summary: "remove your products with a larger id"},
		tolerant: true,
	})

	registry.Register(productCommand{
		Meta:   command.Meta{CommandName: "insert", Summary: "add a product under the given id"},
		report: report,
	})
	registry.Register(productCommand{
		Meta:   command.Meta{CommandName: "update", Summary: "replace the product with the given id"},
		report: report,
	})
	registry.Register(pivotCommand{
		Meta:   command.Meta{CommandName: "remove_greater", Summary: "remove your products greater than the one entered"},
		report: report,
	})
	registry.Register(personCommand{
		Meta:   command.Meta{CommandName: "count_less_than_owner", Summary: "count products whose owner is less than the one entered"},
		report: report,
	})

	registry.Register(credentialsCommand{
		Meta:      command.Meta{CommandName: command.Login, Summary: "log in as an existing user"},
		connector: connector,
	})
	registry.Register(credentialsCommand{
		Meta:      command.Meta{CommandName: command.Register, Summary: "create a user and log in as it"},
		connector: connector,
	})
}

type plainCommand struct{ command.Meta }

func (c plainCommand) BuildRequest(args string, _ command.Input) (*wire.Request, error) {
	if args != "" {
		return nil, command.Errorf(c.Name(), "takes no arguments")
	}
	return wire.NewRequest(c.Name(), nil)
}

// idCommand sends the product id given on the command line. A refused
// range removal leaves a script running; a refused remove_key stops it.
type idCommand struct {
	command.Meta
	tolerant bool
}

func (c idCommand) ContinueOnFailure() bool { return c.tolerant }

func (c idCommand) BuildRequest(args string, _ command.Input) (*wire.Request, error) {
	id, err := parseID(c.Name(), args)
	if err != nil {
		return nil, err
	}
	return wire.NewRequest(c.Name(), id)
}

// productCommand is insert or update: the id comes from the command
// line and the remaining fields from the input.
type productCommand struct {
	command.Meta
	report func(error)
}

func (productCommand) ContinueOnFailure() bool { return true }

func (c productCommand) BuildRequest(args string, input command.Input) (*wire.Request, error) {
	id, err := parseID(c.Name(), args)
	if err != nil {
		return nil, err
	}
	item, err := fieldReader{input: input, report: c.report}.readProduct(id)
	if err != nil {
		return nil, err
	}
	return wire.NewRequest(c.Name(), item)
}

type pivotCommand struct {
	command.Meta
	report func(error)
}

func (pivotCommand) ContinueOnFailure() bool { return true }

func (c pivotCommand) BuildRequest(args string, input command.Input) (*wire.Request, error) {
	if args != "" {
		return nil, command.Errorf(c.Name(), "takes no arguments; the product is read on the following lines")
	}
	// Products compare by price and name. The id only has to pass
	// validation.
	pivot, err := fieldReader{input: input, report: c.report}.readProduct(1)
	if err != nil {
		return nil, err
	}
	return wire.NewRequest(c.Name(), pivot)
}

type personCommand struct {
	command.Meta
	report func(error)
}

func (personCommand) ContinueOnFailure() bool { return true }

func (c personCommand) BuildRequest(args string, input command.Input) (*wire.Request, error) {
	if args != "" {
		return nil, command.Errorf(c.Name(), "takes no arguments; the person is read on the following lines")
	}
	person, err := fieldReader{input: input, report: c.report}.readPerson()
	if err != nil {
		return nil, err
	}
	return wire.NewRequest(c.Name(), person)
}

// credentialsCommand is login or register. Both store the credentials
// on the connector, which attaches them to this and every later
// request. The executor clears them again if the server refuses.
type credentialsCommand struct {
	command.Meta
	connector *client.Connector
}

func (c credentialsCommand) BuildRequest(args string, _ command.Input) (*wire.Request, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return nil, command.Errorf(c.Name(), "usage: %s <user> <password>", c.Name())
	}
	c.connector.SetCredentials(fields[0], fields[1])
	return wire.NewRequest(c.Name(), nil)
}

func parseID(name, args string) (int64, error) {
	if args == "" {
		return 0, command.Errorf(name, "usage: %s <id>", name)
	}
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil || id <= 0 {
		return 0, command.Errorf(name, "id must be a positive integer, got %q", args)
	}
	return id, nil
}
