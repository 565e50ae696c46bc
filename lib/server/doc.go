// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package server is the stockroom request pipeline.
//
// A single [Multiplexer] goroutine runs an epoll loop over the
// listening socket and every accepted connection. Connections are
// registered with EPOLLONESHOT, so a readable connection is handed to
// exactly one reader worker and stays disarmed until that reader has
// drained the socket and called Rearm. Readers reassemble frames with
// [wire.FrameDecoder], authenticate each request through the
// configured [Admitter], and queue admitted requests for a bounded
// pool of handler workers. Handlers look the command up in a frozen
// [command.Registry] and queue the response for the writer pool, which
// flushes it with a per-response timeout.
//
// Two requests never execute concurrently for one connection as long
// as the client waits for each response, which the stockroom client
// always does. Collection state is protected by its own lock, not by
// the pipeline.
//
// A frame that can never decode gets a final "invalid request"
// response and the connection is closed. The exit command closes the
// connection without a response.
package server
