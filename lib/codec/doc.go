// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Stockroom's CBOR encoding configuration.
//
// Every message that crosses the client/server connection is CBOR:
// the request and response envelopes, and the command payloads nested
// inside them (products, people, ids). This package holds the single
// encoder and decoder configuration so the client and server agree on
// byte layout without duplicating options.
//
// Framing belongs to lib/wire, so everything here works on whole
// buffers:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// # Struct Tag Rules
//
// Wire types carry `cbor` tags with snake_case keys. Nothing in
// Stockroom is serialized as JSON, so `json` tags never appear on wire
// types.
package codec
