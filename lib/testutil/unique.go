// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns "prefix_N" with N increasing across the test binary.
// Tests that register users against a shared server use it for logins.
//
//	login := testutil.UniqueID("ada") // "ada_1", "ada_2", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, uniqueCounter.Add(1))
}
