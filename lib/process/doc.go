// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the stockroom
// binaries: fatal error reporting before or instead of the structured
// logger, the logger itself, and process exit.
package process
