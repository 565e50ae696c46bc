// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/stockroom/lib/wire"
)

// Renderer prints responses and errors. Color is decided by lipgloss
// from the output itself: a terminal gets styling, a pipe or buffer
// gets plain text.
type Renderer struct {
	out io.Writer

	title  lipgloss.Style
	failed lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
}

// NewRenderer returns a Renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	renderer := lipgloss.NewRenderer(out)
	return &Renderer{
		out:    out,
		title:  renderer.NewStyle().Italic(true),
		failed: renderer.NewStyle().Foreground(lipgloss.Color("9")),
		header: renderer.NewStyle().Bold(true).Padding(0, 1),
		cell:   renderer.NewStyle().Padding(0, 1),
		border: renderer.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Response prints a server or local response. Listings become tables
// under their message.
func (r *Renderer) Response(response *wire.Response) {
	if !response.Success {
		r.Errorf("%s", response.Message)
		return
	}
	if response.Table != nil {
		if response.Message != "" {
			fmt.Fprintln(r.out, r.title.Render(response.Message))
		}
		r.Table(response.Table)
		return
	}
	if response.Message != "" {
		fmt.Fprintln(r.out, response.Message)
	}
}

// MaxCellWidth is the display width past which a table cell is cut
// short with an ellipsis.
const MaxCellWidth = 40

// Table prints t with a header row. A table with no rows prints its
// headers followed by "(empty)".
func (r *Renderer) Table(t *wire.Table) {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = ansi.Truncate(cell, MaxCellWidth, "…")
		}
	}
	rendered := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.border).
		Headers(t.Columns...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.header
			}
			return r.cell
		})
	fmt.Fprintln(r.out, rendered.String())
	if len(t.Rows) == 0 {
		fmt.Fprintln(r.out, r.title.Render("(empty)"))
	}
}

// Error prints err in the failure style.
func (r *Renderer) Error(err error) {
	r.Errorf("%v", err)
}

// Errorf prints a formatted message in the failure style.
func (r *Renderer) Errorf(format string, args ...any) {
	fmt.Fprintln(r.out, r.failed.Render(fmt.Sprintf(format, args...)))
}

// Println prints a plain line.
func (r *Renderer) Println(text string) {
	fmt.Fprintln(r.out, text)
}
