// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"strings"
	"unicode"

	"github.com/bureau-foundation/stockroom/lib/wire"
)

// Reserved command names with behavior built into the client executor,
// the server pipeline, or the auth gate.
const (
	Exit          = "exit"
	ExecuteScript = "execute_script"
	Help          = "help"
	History       = "history"
	Login         = "login"
	Register      = "register"
)

// Named is anything that can be stored in a [Registry].
type Named interface {
	Name() string
}

// Input is the source of lines a client command reads when it needs
// more than its argument text, such as the fields of a product.
// The executor passes the current top of its input stack, so a command
// run from a script reads its fields from the lines that follow it.
type Input interface {
	// ReadLine returns the next line without its terminator. The
	// prompt is shown on an interactive console and echoed alongside
	// the line when reading a script. io.EOF reports exhaustion.
	ReadLine(prompt string) (string, error)

	// Interactive reports whether a person is typing the input. Commands
	// re-prompt on invalid values when interactive and fail otherwise.
	Interactive() bool
}

// ClientCommand builds requests from user input.
type ClientCommand interface {
	Named
	Description() string

	// BuildRequest validates args and produces the request to send.
	// A returned error means the request is never transmitted.
	BuildRequest(args string, input Input) (*wire.Request, error)
}

// LocalCommand is a ClientCommand answered inside the client process.
type LocalCommand interface {
	ClientCommand
	Respond(request *wire.Request) *wire.Response
}

// Tolerant is implemented by client commands whose failed server
// response is printed without failing the line, so a script that
// issued them keeps running.
type Tolerant interface {
	ContinueOnFailure() bool
}

// ServerCommand executes an authenticated request against server state.
// Execute must not retain request after returning.
type ServerCommand interface {
	Named
	Description() string
	Execute(ctx context.Context, request *wire.Request) *wire.Response
}

// Meta supplies Name and Description to command types that embed it.
type Meta struct {
	CommandName string
	Summary     string
}

// Name returns the dispatch key.
func (m Meta) Name() string { return m.CommandName }

// Description returns the one-line summary shown by help.
func (m Meta) Description() string { return m.Summary }

// SplitLine separates an input line into the command name and the
// remaining argument text, both trimmed. An all-blank line yields two
// empty strings.
func SplitLine(line string) (name, args string) {
	line = strings.TrimSpace(line)
	split := strings.IndexFunc(line, unicode.IsSpace)
	if split < 0 {
		return line, ""
	}
	return line[:split], strings.TrimSpace(line[split:])
}
