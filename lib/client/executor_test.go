// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/bureau-foundation/stockroom/lib/command"
	"github.com/bureau-foundation/stockroom/lib/testutil"
	"github.com/bureau-foundation/stockroom/lib/wire"
)

// recordingSender answers every request successfully, or with failure
// for commands listed in fail, and remembers what it was sent.
type recordingSender struct {
	sent    []*wire.Request
	fail    map[string]bool
	cleared int
}

func (s *recordingSender) SendCommand(_ context.Context, request *wire.Request) *wire.Response {
	s.sent = append(s.sent, request)
	if s.fail[request.Command] {
		return wire.Fail(request.Command + " refused")
	}
	var text string
	if len(request.Payload) > 0 {
		request.DecodePayload(&text)
	}
	return wire.OKf("%s done %s", request.Command, text)
}

func (s *recordingSender) ClearCredentials() { s.cleared++ }

func (s *recordingSender) commands() []string {
	var names []string
	for _, request := range s.sent {
		names = append(names, request.Command)
	}
	return names
}

// argCommand sends its argument text as the payload.
type argCommand struct{ command.Meta }

func (c argCommand) BuildRequest(args string, _ command.Input) (*wire.Request, error) {
	return wire.NewRequest(c.Name(), args)
}

// noteCommand is an argCommand whose refusal does not stop a script.
type noteCommand struct{ argCommand }

func (noteCommand) ContinueOnFailure() bool { return true }

// askCommand reads one field value from the active input.
type askCommand struct{ command.Meta }

func (c askCommand) BuildRequest(_ string, input command.Input) (*wire.Request, error) {
	value, err := input.ReadLine("value: ")
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, command.Errorf(c.Name(), "value is required")
	}
	return wire.NewRequest(c.Name(), value)
}

type testHarness struct {
	executor *Executor
	sender   *recordingSender
	history  *History
	output   *bytes.Buffer
	dir      string
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	history := NewHistory(DefaultHistorySize)
	registry := command.NewRegistry[command.ClientCommand]()
	RegisterBuiltins(registry, history)
	registry.Register(argCommand{command.Meta{CommandName: "echo", Summary: "echo"}})
	registry.Register(argCommand{command.Meta{CommandName: command.Login, Summary: "login"}})
	registry.Register(askCommand{command.Meta{CommandName: "ask", Summary: "ask"}})
	registry.Register(noteCommand{argCommand{command.Meta{CommandName: "note", Summary: "note"}}})
	registry.Freeze()

	sender := &recordingSender{fail: map[string]bool{}}
	output := new(bytes.Buffer)
	return &testHarness{
		executor: NewExecutor(ExecutorConfig{
			Commands: registry,
			Sender:   sender,
			History:  history,
			Output:   output,
		}),
		sender:  sender,
		history: history,
		output:  output,
		dir:     t.TempDir(),
	}
}

func (h *testHarness) script(t *testing.T, name string, lines ...string) string {
	t.Helper()
	return testutil.WriteScript(t, h.dir, name, lines...)
}

func (h *testHarness) requireOutput(t *testing.T, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(h.output.String(), fragment) {
			t.Errorf("output missing %q:\n%s", fragment, h.output.String())
		}
	}
}

func TestUnknownCommandIsLocalError(t *testing.T) {
	h := newHarness(t)
	scripts := NewScriptContext(NewConsole(strings.NewReader(""), h.output, false))

	if code := h.executor.ExecuteLine(context.Background(), scripts, "frobnicate now"); code != Error {
		t.Fatalf("code = %v, want ERROR", code)
	}
	if len(h.sender.sent) != 0 {
		t.Errorf("unknown command was sent: %v", h.sender.commands())
	}
	h.requireOutput(t, "command not found: frobnicate")
}

func TestHistoryListsPrecedingCommands(t *testing.T) {
	h := newHarness(t)
	scripts := NewScriptContext(NewConsole(strings.NewReader(""), h.output, false))
	for i := 1; i <= 10; i++ {
		h.executor.ExecuteLine(context.Background(), scripts, fmt.Sprintf("c%d", i))
	}
	want := []string{"c3", "c4", "c5", "c6", "c7", "c8", "c9", "c10"}
	if got := h.history.Entries(); !slices.Equal(got, want) {
		t.Fatalf("history = %v, want %v", got, want)
	}

	h.output.Reset()
	if code := h.executor.ExecuteLine(context.Background(), scripts, command.History); code != OK {
		t.Fatalf("history = %v, want OK", code)
	}
	h.requireOutput(t, "c3", "c10")
	if strings.Contains(h.output.String(), "c2") {
		t.Errorf("history listed an evicted entry:\n%s", h.output.String())
	}
	if got := h.history.Entries(); got[len(got)-1] != command.History || got[0] != "c4" {
		t.Errorf("history after listing = %v", got)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	h := newHarness(t)
	console := NewConsole(strings.NewReader("echo one\nhistory\n"), h.output, false)

	if code := h.executor.Run(context.Background(), console); code != OK {
		t.Fatalf("Run = %v, want OK", code)
	}
	if got := h.history.Entries(); !slices.Equal(got, []string{"echo", command.History}) {
		t.Errorf("history = %v", got)
	}
}

func TestRunStopsAtExit(t *testing.T) {
	h := newHarness(t)
	console := NewConsole(strings.NewReader("echo one\nexit\necho two\n"), h.output, false)

	if code := h.executor.Run(context.Background(), console); code != Exit {
		t.Fatalf("Run = %v, want EXIT", code)
	}
	if got := h.sender.commands(); !slices.Equal(got, []string{"echo", command.Exit}) {
		t.Errorf("sent %v", got)
	}
}

func TestScriptCannotInvokeItself(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "a.txt")
	h.script(t, "a.txt", "echo before", "execute_script "+path, "echo after")

	if code := h.executor.RunScript(context.Background(), path); code != Error {
		t.Fatalf("RunScript = %v, want ERROR", code)
	}
	if got := h.sender.commands(); !slices.Equal(got, []string{"echo"}) {
		t.Errorf("sent %v, want only the first echo", got)
	}
	h.requireOutput(t, "already executing")
	if strings.Contains(h.output.String(), "check script") {
		t.Errorf("recursion abort should not ask to check the script:\n%s", h.output.String())
	}
}

func TestScriptNestingLimit(t *testing.T) {
	h := newHarness(t)
	d := h.script(t, "d.txt", "echo d")
	c := h.script(t, "c.txt", "execute_script "+d)
	b := h.script(t, "b.txt", "execute_script "+c)
	a := h.script(t, "a.txt", "execute_script "+b)

	if code := h.executor.RunScript(context.Background(), a); code != Error {
		t.Fatalf("RunScript = %v, want ERROR", code)
	}
	if len(h.sender.sent) != 0 {
		t.Errorf("fourth-level script ran: %v", h.sender.commands())
	}
	h.requireOutput(t, "nesting limit of 3")

	var recursion *ScriptRecursionError
	err := error(&ScriptRecursionError{Path: d, Depth: 3, MaxDepth: 3})
	if !errors.As(err, &recursion) {
		t.Fatal("ScriptRecursionError does not satisfy errors.As")
	}
}

func TestScriptWithinLimitRuns(t *testing.T) {
	h := newHarness(t)
	c := h.script(t, "c.txt", "echo deepest")
	b := h.script(t, "b.txt", "execute_script "+c)
	a := h.script(t, "a.txt", "execute_script "+b, "echo back")

	if code := h.executor.RunScript(context.Background(), a); code != OK {
		t.Fatalf("RunScript = %v, want OK", code)
	}
	if got := h.sender.commands(); !slices.Equal(got, []string{"echo", "echo"}) {
		t.Errorf("sent %v", got)
	}
	h.requireOutput(t, "$ echo deepest", "echo done deepest", "$ echo back")
}

func TestScriptSuppliesPromptedFields(t *testing.T) {
	h := newHarness(t)
	path := h.script(t, "fields.txt", "ask", "widget", "", "echo next")

	if code := h.executor.RunScript(context.Background(), path); code != OK {
		t.Fatalf("RunScript = %v, want OK", code)
	}
	if got := h.sender.commands(); !slices.Equal(got, []string{"ask", "echo"}) {
		t.Fatalf("sent %v", got)
	}
	var value string
	if err := h.sender.sent[0].DecodePayload(&value); err != nil || value != "widget" {
		t.Errorf("ask payload = %q, %v", value, err)
	}
	h.requireOutput(t, "$ ask\n", "value: widget\n")
}

func TestScriptStopsAtFirstError(t *testing.T) {
	h := newHarness(t)
	path := h.script(t, "bad.txt", "echo one", "bogus", "echo two")

	if code := h.executor.RunScript(context.Background(), path); code != Error {
		t.Fatalf("RunScript = %v, want ERROR", code)
	}
	if got := h.sender.commands(); !slices.Equal(got, []string{"echo"}) {
		t.Errorf("sent %v", got)
	}
	h.requireOutput(t, "command not found: bogus", "check script "+path)
}

func TestScriptFieldInputExhausted(t *testing.T) {
	h := newHarness(t)
	path := h.script(t, "short.txt", "ask")

	if code := h.executor.RunScript(context.Background(), path); code != Error {
		t.Fatalf("RunScript = %v, want ERROR", code)
	}
	h.requireOutput(t, "input ended")
}

func TestServerFailureStopsScript(t *testing.T) {
	h := newHarness(t)
	h.sender.fail["echo"] = true
	path := h.script(t, "refused.txt", "echo one", "echo two")

	if code := h.executor.RunScript(context.Background(), path); code != Error {
		t.Fatalf("RunScript = %v, want ERROR", code)
	}
	if got := h.sender.commands(); !slices.Equal(got, []string{"echo"}) {
		t.Errorf("sent %v", got)
	}
	h.requireOutput(t, "echo refused", "check script "+path)
}

func TestFailedLoginStopsScript(t *testing.T) {
	h := newHarness(t)
	h.sender.fail[command.Login] = true
	path := h.script(t, "login.txt", "login ada wrong", "echo after")

	if code := h.executor.RunScript(context.Background(), path); code != Error {
		t.Fatalf("RunScript = %v, want ERROR", code)
	}
	if got := h.sender.commands(); !slices.Equal(got, []string{command.Login}) {
		t.Errorf("sent %v", got)
	}
	if h.sender.cleared != 1 {
		t.Errorf("credentials cleared %d times, want 1", h.sender.cleared)
	}
}

func TestTolerantFailureContinuesScript(t *testing.T) {
	h := newHarness(t)
	h.sender.fail["note"] = true
	path := h.script(t, "tolerant.txt", "note one", "echo two")

	if code := h.executor.RunScript(context.Background(), path); code != OK {
		t.Fatalf("RunScript = %v, want OK", code)
	}
	if got := h.sender.commands(); !slices.Equal(got, []string{"note", "echo"}) {
		t.Errorf("sent %v", got)
	}
	h.requireOutput(t, "note refused", "echo done two")
}

func TestServerFailureDoesNotStopConsole(t *testing.T) {
	h := newHarness(t)
	h.sender.fail["echo"] = true
	console := NewConsole(strings.NewReader("echo one\necho two\n"), h.output, false)

	if code := h.executor.Run(context.Background(), console); code != OK {
		t.Fatalf("Run = %v, want OK", code)
	}
	if len(h.sender.sent) != 2 {
		t.Errorf("sent %v", h.sender.commands())
	}
}

func TestExitUnwindsNestedScripts(t *testing.T) {
	h := newHarness(t)
	inner := h.script(t, "inner.txt", "exit", "echo unreachable")
	outer := h.script(t, "outer.txt", "execute_script "+inner, "echo unreachable")

	if code := h.executor.RunScript(context.Background(), outer); code != Exit {
		t.Fatalf("RunScript = %v, want EXIT", code)
	}
	if got := h.sender.commands(); !slices.Equal(got, []string{command.Exit}) {
		t.Errorf("sent %v", got)
	}
}

func TestEmptyScript(t *testing.T) {
	h := newHarness(t)
	path := h.script(t, "empty.txt", "", "  ")

	if code := h.executor.RunScript(context.Background(), path); code != Error {
		t.Fatalf("RunScript = %v, want ERROR", code)
	}
	h.requireOutput(t, "script file is empty")
}

func TestMissingScript(t *testing.T) {
	h := newHarness(t)
	if code := h.executor.RunScript(context.Background(), filepath.Join(h.dir, "nope.txt")); code != Error {
		t.Fatalf("RunScript = %v, want ERROR", code)
	}
	h.requireOutput(t, "cannot read script")
}

func TestFailedLoginClearsCredentials(t *testing.T) {
	h := newHarness(t)
	scripts := NewScriptContext(NewConsole(strings.NewReader(""), h.output, false))

	h.executor.ExecuteLine(context.Background(), scripts, "login ada secret")
	if h.sender.cleared != 0 {
		t.Fatalf("successful login cleared credentials")
	}

	h.sender.fail[command.Login] = true
	h.executor.ExecuteLine(context.Background(), scripts, "login ada wrong")
	if h.sender.cleared != 1 {
		t.Errorf("cleared = %d after failed login, want 1", h.sender.cleared)
	}
}
