// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

// DefaultHistorySize is the number of command names History keeps.
const DefaultHistorySize = 8

// History remembers the most recent command names, oldest evicted
// first.
type History struct {
	entries []string
	start   int
	size    int
}

// NewHistory returns a History keeping the last capacity names. A
// capacity below one means DefaultHistorySize.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultHistorySize
	}
	return &History{entries: make([]string, capacity)}
}

// Add records name, evicting the oldest entry when full.
func (h *History) Add(name string) {
	capacity := len(h.entries)
	if h.size < capacity {
		h.entries[(h.start+h.size)%capacity] = name
		h.size++
		return
	}
	h.entries[h.start] = name
	h.start = (h.start + 1) % capacity
}

// Entries returns the recorded names, oldest first.
func (h *History) Entries() []string {
	out := make([]string, h.size)
	for i := range h.size {
		out[i] = h.entries[(h.start+i)%len(h.entries)]
	}
	return out
}

// Len returns the number of recorded names.
func (h *History) Len() int {
	return h.size
}
