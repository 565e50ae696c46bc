// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the Stockroom envelope and its framing.
//
// A client sends a [Request] and waits for exactly one [Response]
// before sending the next. Each envelope travels as one frame:
//
//	[4-byte big-endian length][CBOR-encoded envelope]
//
// The length counts only the CBOR bytes. Frames larger than
// [MaxFrameSize] are rejected as soon as the header arrives, before
// any body bytes are buffered.
//
// [FrameDecoder] tolerates arbitrary fragmentation: bytes are fed in
// as they are read off the socket, and a message is produced only once
// the whole frame is present. Both the client connector and the server
// reader use the same decoder.
package wire
