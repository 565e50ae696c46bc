// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Console reads command lines typed by a user, or piped in.
type Console struct {
	scanner     *bufio.Scanner
	out         io.Writer
	interactive bool
}

// NewConsole reads lines from in. Prompts are written to out only
// when interactive, so piped input produces clean output.
func NewConsole(in io.Reader, out io.Writer, interactive bool) *Console {
	return &Console{scanner: bufio.NewScanner(in), out: out, interactive: interactive}
}

// ReadLine implements command.Input.
func (c *Console) ReadLine(prompt string) (string, error) {
	if c.interactive && prompt != "" {
		fmt.Fprint(c.out, prompt)
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(c.scanner.Text(), "\r"), nil
}

// Interactive implements command.Input.
func (c *Console) Interactive() bool {
	return c.interactive
}

// scriptInput serves the lines of one script file. Command lines and
// the field values that commands read from the following lines come
// from the same cursor.
type scriptInput struct {
	lines []string
	next  int
	out   io.Writer
}

func newScriptInput(content string, out io.Writer) *scriptInput {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	return &scriptInput{lines: strings.Split(content, "\n"), out: out}
}

// nextLine returns the next raw line without echoing it.
func (s *scriptInput) nextLine() (string, error) {
	if s.next >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.next]
	s.next++
	return line, nil
}

// ReadLine implements command.Input. The prompt and the value are
// echoed together so the transcript reads as if typed.
func (s *scriptInput) ReadLine(prompt string) (string, error) {
	line, err := s.nextLine()
	if err != nil {
		return "", err
	}
	fmt.Fprintf(s.out, "%s%s\n", prompt, line)
	return strings.TrimSpace(line), nil
}

// Interactive implements command.Input.
func (s *scriptInput) Interactive() bool {
	return false
}
