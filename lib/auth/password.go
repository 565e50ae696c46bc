// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// HashParams are the argon2id cost parameters. They are recorded in
// every hash string, so raising them later does not invalidate
// existing users.
type HashParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLength uint32
}

// DefaultHashParams follow the RFC 9106 second recommended option.
var DefaultHashParams = HashParams{Time: 3, MemoryKiB: 64 * 1024, Threads: 4, KeyLength: 32}

const saltLength = 16

// HashPassword derives a new random salt and the argon2id hash of
// plain under params. Both are returned as strings for storage.
func HashPassword(plain string, params HashParams) (hash, salt string, err error) {
	saltBytes := make([]byte, saltLength)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", "", fmt.Errorf("generating salt: %w", err)
	}
	salt = base64.RawStdEncoding.EncodeToString(saltBytes)
	return encodeHash(params, derive(plain, saltBytes, params)), salt, nil
}

// VerifyPassword reports whether plain hashes to user's stored hash.
// A malformed stored hash never verifies.
func VerifyPassword(plain string, user *User) bool {
	params, want, err := decodeHash(user.PasswordHash)
	if err != nil {
		return false
	}
	saltBytes, err := base64.RawStdEncoding.DecodeString(user.Salt)
	if err != nil {
		return false
	}
	got := derive(plain, saltBytes, params)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func derive(plain string, salt []byte, params HashParams) []byte {
	return argon2.IDKey([]byte(plain), salt, params.Time, params.MemoryKiB, params.Threads, params.KeyLength)
}

// encodeHash produces "argon2id$v=19$m=<kib>,t=<time>,p=<threads>$<key>".
func encodeHash(params HashParams, key []byte) string {
	return fmt.Sprintf("argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		argon2.Version, params.MemoryKiB, params.Time, params.Threads,
		base64.RawStdEncoding.EncodeToString(key))
}

func decodeHash(encoded string) (HashParams, []byte, error) {
	var version int
	var params HashParams
	var key string
	_, err := fmt.Sscanf(encoded, "argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		&version, &params.MemoryKiB, &params.Time, &params.Threads, &key)
	if err != nil {
		return HashParams{}, nil, fmt.Errorf("parsing password hash: %w", err)
	}
	if version != argon2.Version {
		return HashParams{}, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}
	keyBytes, err := base64.RawStdEncoding.DecodeString(key)
	if err != nil {
		return HashParams{}, nil, fmt.Errorf("decoding password hash: %w", err)
	}
	params.KeyLength = uint32(len(keyBytes))
	return params, keyBytes, nil
}
