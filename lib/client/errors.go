// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a transport failure.
type ErrorKind int

const (
	// Refused means no connection could be established.
	Refused ErrorKind = iota

	// Timeout means a dial, write, or read deadline passed.
	Timeout

	// Reset means an established connection was closed or broken.
	Reset
)

func (k ErrorKind) String() string {
	switch k {
	case Refused:
		return "refused"
	case Timeout:
		return "timeout"
	case Reset:
		return "reset"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is against a *ConnectionError of each kind.
var (
	ErrRefused = errors.New("connection refused")
	ErrTimeout = errors.New("connection timed out")
	ErrReset   = errors.New("connection reset")
)

// ConnectionError is a transport failure talking to the server. The
// connector has already dropped the connection when it returns one.
type ConnectionError struct {
	Kind    ErrorKind
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Address, e.sentinel())
	}
	return fmt.Sprintf("%s: %s: %v", e.Address, e.sentinel(), e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is matches the sentinel for e's kind.
func (e *ConnectionError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *ConnectionError) sentinel() error {
	switch e.Kind {
	case Timeout:
		return ErrTimeout
	case Reset:
		return ErrReset
	}
	return ErrRefused
}

// ScriptRecursionError stops an execute_script that would re-enter a
// script already running, or nest deeper than the configured limit.
type ScriptRecursionError struct {
	Path     string
	Depth    int
	MaxDepth int
}

func (e *ScriptRecursionError) Error() string {
	if e.Depth >= e.MaxDepth {
		return fmt.Sprintf("script %s not run: nesting limit of %d reached", e.Path, e.MaxDepth)
	}
	return fmt.Sprintf("script %s not run: already executing", e.Path)
}
