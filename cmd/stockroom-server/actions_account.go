// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"

	"github.com/bureau-foundation/stockroom/lib/auth"
	"github.com/bureau-foundation/stockroom/lib/wire"
)

// handleRegister creates the account named by the request credentials.
func (s *Stockroom) handleRegister(ctx context.Context, request *wire.Request) *wire.Response {
	if err := auth.ValidateRegistration(request.Login, request.Password); err != nil {
		return wire.Fail(err.Error())
	}

	user, err := s.users.CreateUser(ctx, request.Login, request.Password)
	if errors.Is(err, auth.ErrUserExists) {
		return wire.Fail("user already exists")
	}
	if err != nil {
		s.logger.Error("registration failed", "login", request.Login, "error", err)
		return wire.Fail("registration failed, try again later")
	}

	s.logger.Info("user registered", "login", user.Username, "user_id", user.ID)
	response := wire.OKf("registered %s", user.Username)
	response.UserID = user.ID
	return response
}

// handleLogin reports the id the gate verified. The gate admits login
// without credentials so the failure message comes from here.
func (s *Stockroom) handleLogin(_ context.Context, request *wire.Request) *wire.Response {
	if request.UserID == 0 {
		return wire.Fail("wrong login or password")
	}
	response := wire.OKf("logged in as %s", request.Login)
	response.UserID = request.UserID
	return response
}
