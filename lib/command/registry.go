// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"
	"slices"
	"strings"
)

// Registry maps command names to one side's implementations.
//
// Populate it from a single goroutine, then call Freeze before handing
// it to dispatchers. A frozen registry is never written again, so
// concurrent Lookup calls need no locking.
type Registry[C Named] struct {
	commands map[string]C
	frozen   bool
}

// NewRegistry returns an empty registry.
func NewRegistry[C Named]() *Registry[C] {
	return &Registry[C]{commands: make(map[string]C)}
}

// Register adds c under its name, replacing any earlier registration
// with the same name. It panics if the registry is frozen or the name
// is not a valid lowercase command name: both are programming errors
// caught at startup.
func (r *Registry[C]) Register(c C) {
	if r.frozen {
		panic(fmt.Sprintf("command: Register(%q) after Freeze", c.Name()))
	}
	name := c.Name()
	if !validName(name) {
		panic(fmt.Sprintf("command: invalid command name %q", name))
	}
	r.commands[name] = c
}

// Freeze marks the registry read-only.
func (r *Registry[C]) Freeze() {
	r.frozen = true
}

// Lookup returns the command registered under name.
func (r *Registry[C]) Lookup(name string) (C, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// Names returns every registered name in sorted order.
func (r *Registry[C]) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered commands.
func (r *Registry[C]) Len() int {
	return len(r.commands)
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
	}) < 0
}
