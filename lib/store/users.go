// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/stockroom/lib/auth"
	"github.com/bureau-foundation/stockroom/lib/clock"
	"github.com/bureau-foundation/stockroom/lib/sqlitepool"
)

// Users persists registered accounts.
type Users struct {
	pool       *sqlitepool.Pool
	hashParams auth.HashParams
	clock      clock.Clock
}

// FindByUsername returns the user or auth.ErrUserNotFound.
func (s *Users) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	var user *auth.User
	var scanErr error
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			"SELECT id, username, password_hash, salt, registered_at FROM users WHERE username = ?",
			&sqlitex.ExecOptions{
				Args: []any{username},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					registered, err := parseTime("registered_at", stmt.ColumnText(4))
					if err != nil {
						scanErr = err
						return err
					}
					user = &auth.User{
						ID:           stmt.ColumnInt64(0),
						Username:     stmt.ColumnText(1),
						PasswordHash: stmt.ColumnText(2),
						Salt:         stmt.ColumnText(3),
						RegisteredAt: registered,
					}
					return nil
				},
			})
	})
	if scanErr != nil {
		return nil, scanErr
	}
	if err != nil {
		return nil, fmt.Errorf("finding user %q: %w", username, err)
	}
	if user == nil {
		return nil, auth.ErrUserNotFound
	}
	return user, nil
}

// CreateUser hashes plain and stores a new user, or returns
// auth.ErrUserExists if the username is taken.
func (s *Users) CreateUser(ctx context.Context, username, plain string) (*auth.User, error) {
	hash, salt, err := auth.HashPassword(plain, s.hashParams)
	if err != nil {
		return nil, err
	}
	user := &auth.User{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		RegisteredAt: s.clock.Now().UTC(),
	}

	var created bool
	err = s.pool.Tx(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			"INSERT INTO users (username, password_hash, salt, registered_at) VALUES (?, ?, ?, ?) ON CONFLICT(username) DO NOTHING",
			&sqlitex.ExecOptions{Args: []any{username, hash, salt, user.RegisteredAt.Format(timeLayout)}})
		if err != nil {
			return err
		}
		created = conn.Changes() > 0
		if created {
			user.ID = conn.LastInsertRowID()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating user %q: %w", username, err)
	}
	if !created {
		return nil, auth.ErrUserExists
	}
	return user, nil
}
