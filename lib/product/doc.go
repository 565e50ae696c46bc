// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package product defines the inventory item stored in a Stockroom
// collection, its owner, and the validation rules both the client
// (before sending) and the server (before storing) apply.
//
// Products order by price, then name. People order by name, then
// passport id. Those orderings back remove_greater and
// count_less_than_owner.
package product
