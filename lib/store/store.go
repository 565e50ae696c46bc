// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package store is Stockroom's durable storage: the products behind
// the in-memory collection and the registered users behind the auth
// gate, both in one SQLite database.
//
// [Products] implements collection.Store and [Users] implements
// auth.IdentityStore. Every mutating statement carries the owner in
// its WHERE clause, so a user can never change another user's rows
// even if a caller skips the ownership check.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/stockroom/lib/auth"
	"github.com/bureau-foundation/stockroom/lib/clock"
	"github.com/bureau-foundation/stockroom/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	salt          TEXT NOT NULL,
	registered_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	id            INTEGER PRIMARY KEY,
	name          TEXT NOT NULL,
	x             INTEGER NOT NULL,
	y             REAL NOT NULL,
	creation_date TEXT NOT NULL,
	price         INTEGER NOT NULL,
	unit          TEXT NOT NULL DEFAULT '',
	owner         BLOB,
	user_id       INTEGER NOT NULL REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS products_user_id ON products(user_id);
`

// Config configures Open.
type Config struct {
	// Path is the database file.
	Path string

	// PoolSize is passed to sqlitepool.
	PoolSize int

	// HashParams are used for new passwords. Zero means
	// auth.DefaultHashParams.
	HashParams auth.HashParams

	// Clock stamps registration times. Nil means the system clock.
	Clock clock.Clock

	Logger *slog.Logger
}

// DB is an open Stockroom database.
type DB struct {
	pool       *sqlitepool.Pool
	hashParams auth.HashParams
	clock      clock.Clock
}

// Open opens the database and creates the schema if needed.
func Open(ctx context.Context, config Config) (*DB, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     config.Path,
		PoolSize: config.PoolSize,
		Logger:   config.Logger,
	})
	if err != nil {
		return nil, err
	}

	err = pool.Tx(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, schema, nil)
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db := &DB{pool: pool, hashParams: config.HashParams, clock: config.Clock}
	if db.hashParams == (auth.HashParams{}) {
		db.hashParams = auth.DefaultHashParams
	}
	if db.clock == nil {
		db.clock = clock.Real()
	}
	return db, nil
}

// Close closes the underlying pool.
func (db *DB) Close() error {
	return db.pool.Close()
}

// Products returns the product table accessor.
func (db *DB) Products() *Products {
	return &Products{pool: db.pool}
}

// Users returns the user table accessor.
func (db *DB) Users() *Users {
	return &Users{pool: db.pool, hashParams: db.hashParams, clock: db.clock}
}

const timeLayout = time.RFC3339Nano

func parseTime(column, value string) (time.Time, error) {
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s %q: %w", column, value, err)
	}
	return parsed, nil
}
