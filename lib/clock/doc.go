// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock lets code that stamps times be tested with a fixed,
// advanceable time source.
//
// The collection records when it was loaded and last saved, and the
// server stamps each inserted product with its creation date. Those
// types take a Clock; production wires [Real], tests wire [Fake].
package clock
