// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the stockroom
// binaries.
//
// [GitCommit], [GitDirty], [BuildTime], and [Version] are injected with
// -ldflags -X. When a binary is built without them, the VCS stamp Go
// records in the build info is used instead, so a plain "go build"
// from a checkout still reports its commit.
//
// [Info] is the --version line; [Full] adds the Go toolchain, the
// platform, and the wire protocol the binary speaks.
package version
