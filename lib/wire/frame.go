// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bureau-foundation/stockroom/lib/codec"
)

// HeaderSize is the length of the frame length prefix.
const HeaderSize = 4

// MaxFrameSize is the largest envelope body either side accepts.
// A full "show" listing of a large collection is the biggest message
// in practice and stays well under this.
const MaxFrameSize = 1 << 20

// ProtocolError reports a frame that cannot be decoded: an oversized
// or zero length header, or a body that is not a valid envelope. The
// connection that produced it must be closed; the stream is no longer
// aligned on a frame boundary.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// AppendFrame encodes v and appends the complete frame to dst.
func AppendFrame(dst []byte, v any) ([]byte, error) {
	body, err := codec.Marshal(v)
	if err != nil {
		return dst, fmt.Errorf("encoding frame: %w", err)
	}
	if len(body) > MaxFrameSize {
		return dst, &ProtocolError{Reason: fmt.Sprintf("frame of %d bytes exceeds limit of %d", len(body), MaxFrameSize)}
	}
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(body)))
	return append(dst, body...), nil
}

// EncodeFrame returns the complete frame for v.
func EncodeFrame(v any) ([]byte, error) {
	return AppendFrame(nil, v)
}

// WriteFrame encodes v and writes the frame to w in a single Write
// call. io.Writer implementations must either accept every byte or
// return an error, so a nil error means the full frame was written.
func WriteFrame(w io.Writer, v any) error {
	frame, err := EncodeFrame(v)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// FrameDecoder reassembles frames from a byte stream that may arrive
// in pieces of any size. It is not safe for concurrent use; each
// connection owns one.
type FrameDecoder struct {
	buffer  []byte
	maxSize int
}

// NewFrameDecoder returns a decoder that rejects frames larger than
// maxSize. A maxSize of zero or less means MaxFrameSize.
func NewFrameDecoder(maxSize int) *FrameDecoder {
	if maxSize <= 0 {
		maxSize = MaxFrameSize
	}
	return &FrameDecoder{maxSize: maxSize}
}

// Feed appends bytes read from the stream.
func (d *FrameDecoder) Feed(p []byte) {
	d.buffer = append(d.buffer, p...)
}

// Buffered returns the number of bytes waiting to be decoded.
func (d *FrameDecoder) Buffered() int {
	return len(d.buffer)
}

// Next decodes the next complete frame into v. It returns false with
// a nil error when the buffered bytes do not yet hold a full frame;
// nothing is consumed in that case. A *ProtocolError is returned for
// a frame that can never decode.
func (d *FrameDecoder) Next(v any) (bool, error) {
	if len(d.buffer) < HeaderSize {
		return false, nil
	}

	length := binary.BigEndian.Uint32(d.buffer[:HeaderSize])
	if length == 0 {
		return false, &ProtocolError{Reason: "zero-length frame"}
	}
	if uint64(length) > uint64(d.maxSize) {
		return false, &ProtocolError{Reason: fmt.Sprintf("declared frame length %d exceeds limit of %d", length, d.maxSize)}
	}

	end := HeaderSize + int(length)
	if len(d.buffer) < end {
		return false, nil
	}

	if err := codec.Unmarshal(d.buffer[HeaderSize:end], v); err != nil {
		return false, &ProtocolError{Reason: "malformed envelope", Err: err}
	}

	remaining := copy(d.buffer, d.buffer[end:])
	d.buffer = d.buffer[:remaining]
	return true, nil
}

// ReadFrame reads exactly one frame from r and decodes it into v. It
// is the blocking counterpart of FrameDecoder, for callers that own a
// net.Conn. A maxSize of zero or less means MaxFrameSize. An io.EOF
// before the first header byte is returned unwrapped.
func ReadFrame(r io.Reader, v any, maxSize int) error {
	if maxSize <= 0 {
		maxSize = MaxFrameSize
	}

	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length == 0 {
		return &ProtocolError{Reason: "zero-length frame"}
	}
	if uint64(length) > uint64(maxSize) {
		return &ProtocolError{Reason: fmt.Sprintf("declared frame length %d exceeds limit of %d", length, maxSize)}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	if err := codec.Unmarshal(body, v); err != nil {
		return &ProtocolError{Reason: "malformed envelope", Err: err}
	}
	return nil
}
