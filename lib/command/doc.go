// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package command defines the two sides of a Stockroom command and the
// registry that maps names to them.
//
// A command name is shared between processes, but its behavior on each
// side is a separate type:
//
//   - [ClientCommand] turns the user's argument text (and any prompted
//     fields) into a [wire.Request].
//   - [ServerCommand] turns an authenticated [wire.Request] into a
//     [wire.Response].
//
// A command that exists only on the client simply has no
// ServerCommand registered under its name. A client command that can
// answer without the server (history) additionally implements
// [LocalCommand].
//
// Each process builds its [Registry] once at startup, calls
// [Registry.Freeze], and then shares it read-only with every goroutine
// that dispatches.
package command
