// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUserNotFound is returned by IdentityStore.FindByUsername.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned by IdentityStore.CreateUser when the
	// username is taken.
	ErrUserExists = errors.New("user already exists")
)

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Salt         string
	RegisteredAt time.Time
}

// IdentityStore persists users.
type IdentityStore interface {
	// FindByUsername returns the user or ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// CreateUser hashes plain and stores a new user, returning
	// ErrUserExists when the username is taken.
	CreateUser(ctx context.Context, username, plain string) (*User, error)
}

// Username and password limits enforced at registration.
const (
	MaxUsernameLength = 49
	MinPasswordLength = 8
)

// ValidateRegistration checks a username and password before a user is
// created.
func ValidateRegistration(username, password string) error {
	switch {
	case username == "":
		return errors.New("username must not be empty")
	case len(username) > MaxUsernameLength:
		return errors.New("username must be shorter than 50 characters")
	case len(password) < MinPasswordLength:
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
