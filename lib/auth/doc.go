// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth is the server's authentication gate and password
// hashing.
//
// Every decoded request passes through [Gate.Admit] before it can
// reach a handler. Requests for commands on the allow-list (login,
// register, help) are admitted as-is. Every other command needs a
// login and password that verify against the stored user record. When
// they do, the user's id is written into the request and handlers use
// it for ownership checks. When they do not, the gate answers with a
// failed response and the request never runs.
//
// Passwords are stored as argon2id hashes with a per-user random salt.
// Verification costs tens of milliseconds by design, and a REPL
// session sends its credentials with every request, so the gate
// remembers recent successful verifications in a TTL cache keyed by a
// blake3 digest of the credentials. Plain passwords are never kept.
package auth
