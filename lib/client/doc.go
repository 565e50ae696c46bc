// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the stockroom REPL: a [Connector] that owns the TCP
// connection and credentials, and an [Executor] that turns console and
// script lines into requests.
//
// Every line is looked up in a client command registry, which builds
// the request locally. Malformed input never reaches the server. exit,
// execute_script, and history are built in (see [RegisterBuiltins]);
// everything else is supplied by the binary.
//
// Scripts nest through a [ScriptContext]. A script may not re-enter a
// script that is already running, and nesting is capped. While a
// script runs, commands that prompt for fields read them from the
// script's following lines, and each consumed line is echoed after its
// prompt.
//
// Transport failures never abort the REPL. The connector drops the
// connection, the failed command is reported as not executed, and the
// next command reconnects.
package client
