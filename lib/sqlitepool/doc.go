// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens the Stockroom database as a fixed-size pool
// of zombiezen SQLite connections.
//
// Every connection gets the same pragmas (WAL journaling, NORMAL
// synchronous, a busy timeout) and then the caller's OnConnect hook,
// which the store uses to create its schema. Callers either Take and
// Put connections themselves or use [Pool.With] and [Pool.Tx]. Tx
// wraps the callback in a savepoint that commits on success and rolls
// back on error.
//
// The pure-Go driver (modernc.org/sqlite under zombiezen) keeps the
// server free of cgo.
package sqlitepool
