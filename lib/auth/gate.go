// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/stockroom/lib/command"
	"github.com/bureau-foundation/stockroom/lib/wire"
)

// NotLoggedIn is the message of every rejection the gate sends.
const NotLoggedIn = "not logged in, type register or login"

// DefaultAllowList names the commands admitted without credentials.
var DefaultAllowList = []string{command.Login, command.Register, command.Help}

// DefaultCacheTTL is how long a successful verification is reused.
const DefaultCacheTTL = time.Minute

// Error is a rejected authentication.
type Error struct {
	Command string
	Reason  string
}

func (e *Error) Error() string {
	return "authentication required for " + e.Command + ": " + e.Reason
}

// GateConfig configures a Gate.
type GateConfig struct {
	Identities IdentityStore

	// AllowList overrides DefaultAllowList when non-nil.
	AllowList []string

	// CacheTTL is the lifetime of a cached verification. Zero means
	// DefaultCacheTTL; negative disables the cache.
	CacheTTL time.Duration

	// Logger receives rejections at debug level. Nil discards.
	Logger *slog.Logger
}

// Gate authenticates requests before dispatch. It is safe for
// concurrent use by every reader worker.
type Gate struct {
	identities IdentityStore
	allowed    map[string]bool
	cache      *ttlcache.Cache[[32]byte, int64]
	logger     *slog.Logger
}

// NewGate returns a Gate. Call Close to stop the cache's expiry loop.
func NewGate(config GateConfig) *Gate {
	allowList := config.AllowList
	if allowList == nil {
		allowList = DefaultAllowList
	}
	allowed := make(map[string]bool, len(allowList))
	for _, name := range allowList {
		allowed[name] = true
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	gate := &Gate{identities: config.Identities, allowed: allowed, logger: logger}

	ttl := config.CacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if ttl > 0 {
		gate.cache = ttlcache.New[[32]byte, int64](
			ttlcache.WithTTL[[32]byte, int64](ttl),
			ttlcache.WithDisableTouchOnHit[[32]byte, int64](),
		)
		go gate.cache.Start()
	}
	return gate
}

// Close stops the cache's background expiry.
func (g *Gate) Close() {
	if g.cache != nil {
		g.cache.Stop()
	}
}

// Allowed reports whether name is admitted without credentials.
func (g *Gate) Allowed(name string) bool {
	return g.allowed[name]
}

// Admit decides whether request may be dispatched. It returns nil to
// admit, after setting request.UserID when the credentials verify.
// Otherwise it returns the failure response to send in place of
// running the command.
//
// Allow-listed commands are always admitted; their credentials are
// still checked so login can report the verified id.
func (g *Gate) Admit(ctx context.Context, request *wire.Request) *wire.Response {
	request.UserID = 0

	userID, err := g.Authenticate(ctx, request)
	if err == nil {
		request.UserID = userID
		return nil
	}
	if g.Allowed(request.Command) {
		return nil
	}

	g.logger.Debug("request rejected by auth gate",
		"command", request.Command,
		"login", request.Login,
		"error", err,
	)
	return wire.Fail(NotLoggedIn)
}

// Authenticate verifies the request's credentials and returns the
// user's id, or an *Error describing why they did not verify. Store
// failures are reported as rejections; the caller cannot distinguish
// them from a wrong password, which keeps storage errors from leaking
// to clients.
func (g *Gate) Authenticate(ctx context.Context, request *wire.Request) (int64, error) {
	if !request.HasCredentials() {
		return 0, &Error{Command: request.Command, Reason: "no credentials"}
	}

	key := credentialKey(request.Login, request.Password)
	if g.cache != nil {
		if item := g.cache.Get(key); item != nil {
			return item.Value(), nil
		}
	}

	user, err := g.identities.FindByUsername(ctx, request.Login)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			g.logger.Warn("identity lookup failed", "login", request.Login, "error", err)
		}
		return 0, &Error{Command: request.Command, Reason: "unknown user"}
	}
	if !VerifyPassword(request.Password, user) {
		return 0, &Error{Command: request.Command, Reason: "wrong password"}
	}

	if g.cache != nil {
		g.cache.Set(key, user.ID, ttlcache.DefaultTTL)
	}
	return user.ID, nil
}

// credentialKey digests a login/password pair. The NUL separator keeps
// ("ab", "c") and ("a", "bc") apart.
func credentialKey(login, password string) [32]byte {
	material := make([]byte, 0, len(login)+1+len(password))
	material = append(material, login...)
	material = append(material, 0)
	material = append(material, password...)
	return blake3.Sum256(material)
}
