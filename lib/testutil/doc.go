// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for stockroom packages.
//
// [RequireReceive], [RequireClosed], and [Eventually] bound every wait
// so tests on servers and background goroutines fail instead of
// hanging. They are the only place the test suite reads the
// wall clock.
//
// [WriteScript] lays out command scripts for the REPL executor, and
// [DatabasePath] returns a fresh SQLite file path. [UniqueID] produces
// distinct logins and product names for tests sharing one server.
//
// All helpers call t.Fatalf on failure. This package has no stockroom
// dependencies.
package testutil
