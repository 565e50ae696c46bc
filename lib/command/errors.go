// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import "fmt"

// Error reports a command that cannot run: an unknown name, malformed
// arguments, or an invalid payload. Client-side Errors are shown to
// the user without contacting the server; server-side Errors become
// failed responses.
type Error struct {
	Command string
	Message string
}

func (e *Error) Error() string {
	if e.Command == "" {
		return e.Message
	}
	return e.Command + ": " + e.Message
}

// Errorf returns an Error for command with a formatted message.
func Errorf(command, format string, args ...any) *Error {
	return &Error{Command: command, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns the Error for a name with no registration.
func NotFound(name string) *Error {
	return &Error{Message: "command not found: " + name}
}
