// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"slices"
	"testing"
)

func TestHistoryKeepsLastEight(t *testing.T) {
	history := NewHistory(DefaultHistorySize)
	for i := 1; i <= 10; i++ {
		history.Add(fmt.Sprintf("c%d", i))
	}

	want := []string{"c3", "c4", "c5", "c6", "c7", "c8", "c9", "c10"}
	if got := history.Entries(); !slices.Equal(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestHistoryBelowCapacity(t *testing.T) {
	history := NewHistory(4)
	history.Add("show")
	history.Add("info")

	if got := history.Entries(); !slices.Equal(got, []string{"show", "info"}) {
		t.Errorf("Entries() = %v", got)
	}
	if history.Len() != 2 {
		t.Errorf("Len() = %d, want 2", history.Len())
	}
}

func TestHistoryEntriesIsACopy(t *testing.T) {
	history := NewHistory(2)
	history.Add("a")
	entries := history.Entries()
	entries[0] = "mutated"
	if history.Entries()[0] != "a" {
		t.Error("Entries exposed internal storage")
	}
}
