// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import "github.com/bureau-foundation/stockroom/lib/command"

// ScriptContext is the stack of scripts being executed, with the
// console at the bottom. The top of the stack is where commands read
// their additional input lines.
type ScriptContext struct {
	console command.Input
	frames  []scriptFrame
	active  map[string]bool
}

type scriptFrame struct {
	path  string
	input *scriptInput
}

// NewScriptContext returns an empty stack over console.
func NewScriptContext(console command.Input) *ScriptContext {
	return &ScriptContext{console: console, active: make(map[string]bool)}
}

// Input returns the innermost running script, or the console.
func (s *ScriptContext) Input() command.Input {
	if len(s.frames) == 0 {
		return s.console
	}
	return s.frames[len(s.frames)-1].input
}

// Depth returns the number of scripts running.
func (s *ScriptContext) Depth() int {
	return len(s.frames)
}

// Active reports whether the script at the resolved path is running.
func (s *ScriptContext) Active(path string) bool {
	return s.active[path]
}

func (s *ScriptContext) push(path string, input *scriptInput) {
	s.frames = append(s.frames, scriptFrame{path: path, input: input})
	s.active[path] = true
}

func (s *ScriptContext) pop() {
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	delete(s.active, top.path)
}
