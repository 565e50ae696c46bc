// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

func mustRequest(t *testing.T, command string, payload any) *Request {
	t.Helper()
	request, err := NewRequest(command, payload)
	if err != nil {
		t.Fatalf("NewRequest(%q): %v", command, err)
	}
	return request
}

func TestRequestRoundtrip(t *testing.T) {
	tests := []struct {
		name    string
		request *Request
	}{
		{"bare command", mustRequest(t, "show", nil)},
		{"id payload", mustRequest(t, "remove_key", int64(17))},
		{"credentials", &Request{Command: "insert", Login: "ada", Password: "correcthorse", Success: true}},
		{"identity set", &Request{Command: "clear", UserID: 99, Success: true}},
		{"local failure", &Request{Command: "update", Success: false}},
		{"map payload", mustRequest(t, "insert", map[string]any{"name": "bolt", "price": int64(3)})},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			frame, err := EncodeFrame(test.request)
			if err != nil {
				t.Fatalf("EncodeFrame: %v", err)
			}

			decoder := NewFrameDecoder(0)
			decoder.Feed(frame)
			var decoded Request
			ok, err := decoder.Next(&decoded)
			if err != nil || !ok {
				t.Fatalf("Next = %v, %v; want true, nil", ok, err)
			}
			if !reflect.DeepEqual(&decoded, test.request) {
				t.Errorf("roundtrip mismatch:\n got %+v\nwant %+v", decoded, *test.request)
			}
			if decoder.Buffered() != 0 {
				t.Errorf("Buffered = %d after full decode, want 0", decoder.Buffered())
			}
		})
	}
}

func TestResponseRoundtrip(t *testing.T) {
	table := &Table{Columns: []string{"name", "description"}}
	table.AddRow("help", "list commands")
	table.AddRow("show")

	tests := []struct {
		name     string
		response *Response
	}{
		{"ok", OK("done")},
		{"failure", Failf("command not found: %s", "frobnicate")},
		{"with user", &Response{Success: true, Message: "logged in", UserID: 7}},
		{"listing", Listing("commands", table)},
		{"empty listing", Listing("0 products", &Table{Columns: []string{"id"}, Rows: [][]string{}})},
		{"listing without rows", Listing("0 products", &Table{Columns: []string{"id"}})},
		{"payload", OK("count").WithPayload(int64(5))},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			frame, err := EncodeFrame(test.response)
			if err != nil {
				t.Fatalf("EncodeFrame: %v", err)
			}
			decoder := NewFrameDecoder(0)
			decoder.Feed(frame)
			var decoded Response
			ok, err := decoder.Next(&decoded)
			if err != nil || !ok {
				t.Fatalf("Next = %v, %v; want true, nil", ok, err)
			}
			if !reflect.DeepEqual(&decoded, test.response) {
				t.Errorf("roundtrip mismatch:\n got %+v\nwant %+v", decoded, *test.response)
			}
		})
	}
}

func TestTableAddRowPads(t *testing.T) {
	table := &Table{Columns: []string{"a", "b", "c"}}
	table.AddRow("1")
	if got := table.Rows[0]; !reflect.DeepEqual(got, []string{"1", "", ""}) {
		t.Errorf("padded row = %q", got)
	}
}

func TestPartialFrameByteAtATime(t *testing.T) {
	want := mustRequest(t, "count_less_than_owner", map[string]any{"name": "ada", "passport_id": "AB123456"})
	want.Login = "ada"
	want.Password = "correcthorse"

	frame, err := EncodeFrame(want)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	decoder := NewFrameDecoder(0)
	var decoded Request
	for i := range frame {
		decoder.Feed(frame[i : i+1])
		ok, err := decoder.Next(&decoded)
		if err != nil {
			t.Fatalf("Next after %d bytes: %v", i+1, err)
		}
		last := i == len(frame)-1
		if ok != last {
			t.Fatalf("Next after %d of %d bytes = %v, want %v", i+1, len(frame), ok, last)
		}
	}
	if !reflect.DeepEqual(&decoded, want) {
		t.Errorf("decoded %+v, want %+v", decoded, *want)
	}
}

func TestPartialFrameArbitraryChunks(t *testing.T) {
	var stream []byte
	var want []*Request
	for i, command := range []string{"help", "info", "show", "clear"} {
		request := mustRequest(t, command, int64(i))
		want = append(want, request)
		var err error
		stream, err = AppendFrame(stream, request)
		if err != nil {
			t.Fatalf("AppendFrame: %v", err)
		}
	}

	for _, chunkSize := range []int{1, 2, 3, 5, 7, 64, len(stream)} {
		decoder := NewFrameDecoder(0)
		var got []*Request
		for offset := 0; offset < len(stream); offset += chunkSize {
			end := min(offset+chunkSize, len(stream))
			decoder.Feed(stream[offset:end])
			for {
				var request Request
				ok, err := decoder.Next(&request)
				if err != nil {
					t.Fatalf("chunk size %d: Next: %v", chunkSize, err)
				}
				if !ok {
					break
				}
				got = append(got, &request)
			}
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("chunk size %d: decoded %d requests, want %d in order", chunkSize, len(got), len(want))
		}
	}
}

func TestOversizedFrameRejectedFromHeader(t *testing.T) {
	decoder := NewFrameDecoder(128)
	header := binary.BigEndian.AppendUint32(nil, 129)
	decoder.Feed(header)

	var request Request
	ok, err := decoder.Next(&request)
	if ok {
		t.Fatal("Next returned a message for an oversized frame")
	}
	var protocolError *ProtocolError
	if !errors.As(err, &protocolError) {
		t.Fatalf("Next error = %v, want *ProtocolError", err)
	}
}

func TestZeroLengthFrameRejected(t *testing.T) {
	decoder := NewFrameDecoder(0)
	decoder.Feed([]byte{0, 0, 0, 0})
	var request Request
	_, err := decoder.Next(&request)
	var protocolError *ProtocolError
	if !errors.As(err, &protocolError) {
		t.Fatalf("Next error = %v, want *ProtocolError", err)
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	body := []byte{0xFF, 0xFE, 0xFD}
	frame := binary.BigEndian.AppendUint32(nil, uint32(len(body)))
	frame = append(frame, body...)

	decoder := NewFrameDecoder(0)
	decoder.Feed(frame)
	var request Request
	_, err := decoder.Next(&request)
	var protocolError *ProtocolError
	if !errors.As(err, &protocolError) {
		t.Fatalf("Next error = %v, want *ProtocolError", err)
	}
	if protocolError.Unwrap() == nil {
		t.Error("ProtocolError should wrap the decode error")
	}
}

func TestWriteFrame(t *testing.T) {
	var buffer bytes.Buffer
	if err := WriteFrame(&buffer, OK("hello")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	length := binary.BigEndian.Uint32(buffer.Bytes()[:HeaderSize])
	if int(length) != buffer.Len()-HeaderSize {
		t.Errorf("header length %d, body length %d", length, buffer.Len()-HeaderSize)
	}
}

func TestDecodePayload(t *testing.T) {
	request := mustRequest(t, "remove_key", int64(12))
	var id int64
	if err := request.DecodePayload(&id); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if id != 12 {
		t.Errorf("id = %d, want 12", id)
	}

	empty := mustRequest(t, "remove_key", nil)
	if err := empty.DecodePayload(&id); err == nil {
		t.Error("DecodePayload on empty payload should fail")
	}
}
