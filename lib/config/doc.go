// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the stockroom
// server and client.
//
// Configuration comes from at most one file, named by the --config flag
// or, failing that, the STOCKROOM_CONFIG environment variable (see
// [Resolve]). With neither set, [Default] is used as is. There is no
// file discovery.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production without an explicit section
// gets tighter timeouts.
//
// ${HOME}, ${STOCKROOM_ROOT}, and ${VAR:-default} patterns are expanded
// in path fields after loading. Command-line flags override individual
// values in main; no other environment variables do.
//
// This package depends on no other stockroom packages.
package config
