// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type sampleRecord struct {
	Name    string    `cbor:"name"`
	Price   int32     `cbor:"price"`
	Comment string    `cbor:"comment,omitempty"`
	Created time.Time `cbor:"created"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRecord{
		Name:    "bolt",
		Price:   12,
		Comment: "zinc plated",
		Created: time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC),
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Name != original.Name || decoded.Price != original.Price || decoded.Comment != original.Comment {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
	// Nanoseconds must survive; integer Unix time would drop them.
	if !decoded.Created.Equal(original.Created) {
		t.Errorf("Created = %v, want %v", decoded.Created, original.Created)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	record := map[string]any{"b": 2, "a": 1, "c": "three"}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(record)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestMarshalRaw(t *testing.T) {
	raw, err := MarshalRaw(int64(42))
	if err != nil {
		t.Fatalf("MarshalRaw: %v", err)
	}
	var id int64
	if err := Unmarshal(raw, &id); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}

	empty, err := MarshalRaw(nil)
	if err != nil {
		t.Fatalf("MarshalRaw(nil): %v", err)
	}
	if empty != nil {
		t.Errorf("MarshalRaw(nil) = %x, want nil", empty)
	}
}

func TestAnyDecodesToStringMap(t *testing.T) {
	data, err := Marshal(map[string]any{"name": "bolt"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded.(map[string]any); !ok {
		t.Errorf("decoded type = %T, want map[string]any", decoded)
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var record sampleRecord
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &record); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]any{"command": "show"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"command"`) || !strings.Contains(notation, `"show"`) {
		t.Errorf("Diagnose = %q, want it to mention command and show", notation)
	}
}
