// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bureau-foundation/stockroom/lib/auth"
	"github.com/bureau-foundation/stockroom/lib/collection"
	"github.com/bureau-foundation/stockroom/lib/command"
	"github.com/bureau-foundation/stockroom/lib/wire"
)

// Stockroom holds the state the server commands act on.
type Stockroom struct {
	collection *collection.Collection
	users      auth.IdentityStore
	commands   *command.Registry[command.ServerCommand]
	logger     *slog.Logger
}

// action adapts a Stockroom method to command.ServerCommand.
type action struct {
	command.Meta
	run func(ctx context.Context, request *wire.Request) *wire.Response
}

func (a action) Execute(ctx context.Context, request *wire.Request) *wire.Response {
	return a.run(ctx, request)
}

func (s *Stockroom) handle(name, summary string, run func(context.Context, *wire.Request) *wire.Response) {
	s.commands.Register(action{Meta: command.Meta{CommandName: name, Summary: summary}, run: run})
}

// registerActions registers every server command and freezes the
// registry. help, login, and register are reachable without
// credentials (see auth.DefaultAllowList); everything else has already
// been authenticated by the gate, so request.UserID is the caller.
func (s *Stockroom) registerActions() {
	// Account commands.
	s.handle(command.Register, "create an account: register <login> <password>", s.handleRegister)
	s.handle(command.Login, "log in: login <login> <password>", s.handleLogin)

	// Queries.
	s.handle(command.Help, "list the available commands", s.handleHelp)
	s.handle("info", "show collection type, size, and load and save times", s.handleInfo)
	s.handle("show", "list every product, most expensive first", s.handleShow)
	s.handle("count_less_than_owner", "count products whose owner sorts before the given person", s.handleCountLessThanOwner)
	s.handle("print_field_ascending_owner", "list distinct product owners by passport id", s.handlePrintAscendingOwner)
	s.handle("print_field_descending_price", "list product prices, highest first", s.handlePrintDescendingPrice)

	// Mutations. Each only touches products the caller created.
	s.handle("insert", "add a product: insert <id>", s.handleInsert)
	s.handle("update", "replace your product: update <id>", s.handleUpdate)
	s.handle("remove_key", "remove your product: remove_key <id>", s.handleRemoveKey)
	s.handle("clear", "remove every product you created", s.handleClear)
	s.handle("remove_greater", "remove your products greater than the given one", s.handleRemoveGreater)
	s.handle("remove_lower_key", "remove your products with a smaller id: remove_lower_key <id>", s.handleRemoveLowerKey)
	s.handle("remove_greater_key", "remove your products with a larger id: remove_greater_key <id>", s.handleRemoveGreaterKey)

	s.commands.Freeze()
}

// failure maps collection errors to client-facing messages. Storage
// errors are logged and reported generically.
func (s *Stockroom) failure(err error, id int64) *wire.Response {
	switch {
	case errors.Is(err, collection.ErrExists):
		return wire.Failf("product %d already exists", id)
	case errors.Is(err, collection.ErrNotFound):
		return wire.Failf("no product with id %d", id)
	case errors.Is(err, collection.ErrNotOwned):
		return wire.Failf("product %d belongs to another user", id)
	}
	s.logger.Error("collection operation failed", "id", id, "error", err)
	return wire.Fail("storage error, nothing was changed")
}

// badPayload is the response for a request whose payload does not
// decode into what the command needs.
func badPayload(name string, err error) *wire.Response {
	return wire.Fail(command.Errorf(name, "invalid payload: %v", err).Error())
}
