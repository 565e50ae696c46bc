// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode encodes with Core Deterministic Encoding (RFC 8949 §4.2),
// so an envelope always produces the same bytes. Times are written as
// RFC 3339 strings with nanoseconds; the core default of integer Unix
// seconds would truncate product creation dates.
var encMode cbor.EncMode

// decMode accepts standard CBOR and ignores unknown fields, so an older
// client can talk to a newer server.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Payloads decoded into `any` must come back as
		// map[string]any rather than CBOR's map[any]any.
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
		// Frames are already capped by the wire layer; this keeps a
		// hostile payload from nesting deeply inside a legal frame.
		MaxNestedLevels: 32,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// RawMessage is a raw encoded CBOR value. Envelopes carry command
// payloads as RawMessage so the transport never needs to know the
// payload type.
type RawMessage = cbor.RawMessage

// MarshalRaw encodes v and returns it as a RawMessage ready to be
// placed in an envelope payload. A nil v yields a nil RawMessage.
func MarshalRaw(v any) (RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, err
	}
	return RawMessage(data), nil
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for
// data. The server logs request payloads in this form at debug level.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
