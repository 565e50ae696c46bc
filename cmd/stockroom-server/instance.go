// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/stockroom/lib/auth"
	"github.com/bureau-foundation/stockroom/lib/clock"
	"github.com/bureau-foundation/stockroom/lib/collection"
	"github.com/bureau-foundation/stockroom/lib/command"
	"github.com/bureau-foundation/stockroom/lib/config"
	"github.com/bureau-foundation/stockroom/lib/server"
	"github.com/bureau-foundation/stockroom/lib/store"
)

// instance is an assembled server: database, collection, gate, and
// listener. The listener is bound but not serving until Serve.
type instance struct {
	db     *store.DB
	gate   *auth.Gate
	server *server.Server
}

// start opens the database, loads the collection, and binds the
// listener described by cfg.
func start(ctx context.Context, cfg config.ServerConfig, hashParams auth.HashParams, logger *slog.Logger) (*instance, error) {
	db, err := store.Open(ctx, store.Config{
		Path:       cfg.Database,
		HashParams: hashParams,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	products := collection.New(collection.Config{
		Store:  db.Products(),
		Clock:  clock.Real(),
		Logger: logger,
	})
	if err := products.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading collection: %w", err)
	}

	stockroom := &Stockroom{
		collection: products,
		users:      db.Users(),
		commands:   command.NewRegistry[command.ServerCommand](),
		logger:     logger,
	}
	stockroom.registerActions()

	gate := auth.NewGate(auth.GateConfig{
		Identities: db.Users(),
		CacheTTL:   cfg.AuthCacheTTL,
		Logger:     logger,
	})

	srv, err := server.New(server.Config{
		Address:        cfg.Listen,
		Commands:       stockroom.commands,
		Gate:           gate,
		ReaderWorkers:  cfg.ReaderWorkers,
		HandlerWorkers: cfg.HandlerWorkers,
		WriterWorkers:  cfg.WriterWorkers,
		WriteQueue:     cfg.WriteQueue,
		WriteTimeout:   cfg.WriteTimeout,
		Logger:         logger,
	})
	if err != nil {
		gate.Close()
		db.Close()
		return nil, err
	}

	return &instance{db: db, gate: gate, server: srv}, nil
}

// Close releases the gate and the database. Call after Serve returns.
func (i *instance) Close() error {
	i.gate.Close()
	return i.db.Close()
}
