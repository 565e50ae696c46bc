// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bureau-foundation/stockroom/lib/wire"
)

func TestRendererTable(t *testing.T) {
	var out bytes.Buffer
	listing := &wire.Table{Columns: []string{"id", "name"}}
	listing.AddRow("1", "Widget")
	listing.AddRow("2", strings.Repeat("x", MaxCellWidth+20))

	NewRenderer(&out).Response(wire.Listing("2 products", listing))

	text := out.String()
	for _, want := range []string{"2 products", "id", "name", "Widget", "…"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, strings.Repeat("x", MaxCellWidth+1)) {
		t.Errorf("long cell was not truncated:\n%s", text)
	}
}

func TestRendererEmptyTable(t *testing.T) {
	var out bytes.Buffer
	NewRenderer(&out).Response(wire.Listing("0 products", &wire.Table{Columns: []string{"id"}}))
	if !strings.Contains(out.String(), "(empty)") {
		t.Errorf("output missing (empty):\n%s", out.String())
	}
}

func TestRendererFailure(t *testing.T) {
	var out bytes.Buffer
	NewRenderer(&out).Response(wire.Fail("no product with id 4"))
	if got := strings.TrimSpace(out.String()); got != "no product with id 4" {
		t.Errorf("output = %q", got)
	}
}
