// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"

	"github.com/bureau-foundation/stockroom/lib/codec"
)

// Request is the client-to-server envelope.
type Request struct {
	// Command is the lowercase command name used as the dispatch key
	// in the server registry.
	Command string `cbor:"command"`

	// Payload is the command-specific argument, CBOR-encoded. Nil for
	// commands that take no argument.
	Payload codec.RawMessage `cbor:"payload,omitempty"`

	// Login and Password are the client's credentials. The client
	// attaches them to every request once the user has logged in or
	// registered.
	Login    string `cbor:"login,omitempty"`
	Password string `cbor:"password,omitempty"`

	// UserID is filled in by the server's auth gate after the
	// credentials verify. The server zeroes whatever value arrives
	// on the wire before the gate runs, so a client cannot claim an
	// identity by setting it.
	UserID int64 `cbor:"user_id,omitempty"`

	// Success is false when the client failed to build a valid
	// request locally. Such requests are never transmitted.
	Success bool `cbor:"success"`
}

// NewRequest builds a successful request for command, encoding payload
// when it is non-nil.
func NewRequest(command string, payload any) (*Request, error) {
	raw, err := codec.MarshalRaw(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", command, err)
	}
	return &Request{Command: command, Payload: raw, Success: true}, nil
}

// DecodePayload decodes the request payload into v. A missing payload
// is an error: commands that read a payload require one.
func (r *Request) DecodePayload(v any) error {
	if len(r.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", r.Command)
	}
	if err := codec.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("%s: malformed payload: %w", r.Command, err)
	}
	return nil
}

// HasCredentials reports whether both login and password are set.
func (r *Request) HasCredentials() bool {
	return r.Login != "" && r.Password != ""
}

// Response is the server-to-client envelope.
type Response struct {
	Success bool   `cbor:"success"`
	Message string `cbor:"message"`

	// Payload is a command-specific result, CBOR-encoded.
	Payload codec.RawMessage `cbor:"payload,omitempty"`

	// UserID echoes the authenticated identity for login and register.
	UserID int64 `cbor:"user_id,omitempty"`

	// Table is set when the result is a listing (help, show, history).
	// Clients render it as a table instead of printing Message alone.
	Table *Table `cbor:"table,omitempty"`
}

// Table is a structured listing carried in a [Response]. Nil and
// empty Rows stay distinct on the wire.
type Table struct {
	Columns []string   `cbor:"columns"`
	Rows    [][]string `cbor:"rows"`
}

// AddRow appends a row. Rows shorter than the column list are padded
// with empty cells.
func (t *Table) AddRow(cells ...string) {
	for len(cells) < len(t.Columns) {
		cells = append(cells, "")
	}
	t.Rows = append(t.Rows, cells)
}

// OK returns a successful response carrying message.
func OK(message string) *Response {
	return &Response{Success: true, Message: message}
}

// OKf is OK with fmt.Sprintf formatting.
func OKf(format string, args ...any) *Response {
	return OK(fmt.Sprintf(format, args...))
}

// Fail returns a failed response carrying message.
func Fail(message string) *Response {
	return &Response{Success: false, Message: message}
}

// Failf is Fail with fmt.Sprintf formatting.
func Failf(format string, args ...any) *Response {
	return Fail(fmt.Sprintf(format, args...))
}

// Listing returns a successful response carrying table.
func Listing(message string, table *Table) *Response {
	return &Response{Success: true, Message: message, Table: table}
}

// WithPayload encodes v into the response payload. On encoding failure
// the response is converted into a failure describing the error.
func (r *Response) WithPayload(v any) *Response {
	raw, err := codec.MarshalRaw(v)
	if err != nil {
		r.Success = false
		r.Message = fmt.Sprintf("encoding response payload: %v", err)
		r.Payload = nil
		return r
	}
	r.Payload = raw
	return r
}

// DecodePayload decodes the response payload into v.
func (r *Response) DecodePayload(v any) error {
	if len(r.Payload) == 0 {
		return fmt.Errorf("response has no payload")
	}
	return codec.Unmarshal(r.Payload, v)
}
