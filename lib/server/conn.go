// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/stockroom/lib/wire"
)

var errConnectionClosed = errors.New("connection closed")

// errWriteTimeout is returned when the peer stops draining its receive
// buffer for longer than the configured write timeout.
var errWriteTimeout = errors.New("write timed out")

// conn is the server's state for one accepted socket.
//
// The descriptor stays valid while any goroutine holds use for reading.
// close sets closing first, shuts the socket down so a writer parked in
// poll wakes up, then takes use exclusively before releasing the
// descriptor. The kernel may hand the same number to the next accepted
// connection, so nothing may touch fd after observing closing.
type conn struct {
	fd     int
	id     string
	remote string

	// decoder is touched only by the reader that currently owns the
	// connection; EPOLLONESHOT guarantees there is at most one.
	decoder *wire.FrameDecoder

	use     sync.RWMutex
	closing atomic.Bool

	// writeMu keeps concurrent writers from interleaving frames.
	writeMu sync.Mutex

	// pending counts dispatched requests whose response has not been
	// written. A peer that half-closes after sending is kept open
	// until it reaches zero.
	pending    atomic.Int64
	peerClosed atomic.Bool
}

func newConn(fd int, id, remote string, maxFrameSize int) *conn {
	return &conn{
		fd:      fd,
		id:      id,
		remote:  remote,
		decoder: wire.NewFrameDecoder(maxFrameSize),
	}
}

// acquire takes a shared hold on the descriptor. It returns false when
// the connection is closing, in which case release must not be called.
func (c *conn) acquire() bool {
	c.use.RLock()
	if c.closing.Load() {
		c.use.RUnlock()
		return false
	}
	return true
}

func (c *conn) release() {
	c.use.RUnlock()
}

// close deregisters and releases the descriptor. It reports whether
// this call did the closing.
func (c *conn) close(deregister func(int) error) bool {
	if !c.closing.CompareAndSwap(false, true) {
		return false
	}
	unix.Shutdown(c.fd, unix.SHUT_RDWR)

	c.use.Lock()
	defer c.use.Unlock()
	deregister(c.fd)
	unix.Close(c.fd)
	return true
}

// expect records a request whose response is still to be written.
func (c *conn) expect() {
	c.pending.Add(1)
}

// answered records one written or abandoned response. It reports true
// when that was the last one owed to a peer that has stopped sending.
func (c *conn) answered() bool {
	return c.pending.Add(-1) == 0 && c.peerClosed.Load()
}

// finishReading marks the peer's sending side as closed. It reports
// true when no response is owed, so the connection can close now.
// Otherwise the writer that answers the last request closes it.
func (c *conn) finishReading() bool {
	c.peerClosed.Store(true)
	return c.pending.Load() == 0
}

// readResult says what a drain of the socket found.
type readResult int

const (
	readAgain readResult = iota // drained, socket still open
	readEOF                     // peer closed its end
)

// drain reads everything currently buffered in the kernel into the
// frame decoder.
func (c *conn) drain(buf []byte) (readResult, error) {
	if !c.acquire() {
		return readEOF, errConnectionClosed
	}
	defer c.release()

	for {
		n, err := unix.Read(c.fd, buf)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return readAgain, nil
		case err != nil:
			return readEOF, fmt.Errorf("read: %w", err)
		case n == 0:
			return readEOF, nil
		}
		c.decoder.Feed(buf[:n])
	}
}

// writeFrame writes one complete frame, waiting for POLLOUT whenever
// the socket buffer is full. The deadline covers the whole frame.
func (c *conn) writeFrame(frame []byte, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if !c.acquire() {
		return errConnectionClosed
	}
	defer c.release()

	deadline := time.Now().Add(timeout)
	for len(frame) > 0 {
		n, err := unix.Write(c.fd, frame)
		switch {
		case err == nil:
			frame = frame[n:]
		case errors.Is(err, unix.EINTR):
		case errors.Is(err, unix.EAGAIN):
			if err := c.waitWritable(deadline); err != nil {
				return err
			}
		default:
			return fmt.Errorf("write: %w", err)
		}
	}
	return nil
}

func (c *conn) waitWritable(deadline time.Time) error {
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errWriteTimeout
		}
		fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLOUT}}
		n, err := unix.Poll(fds, int(remaining.Milliseconds())+1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll: %w", err)
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return errConnectionClosed
		}
		return nil
	}
}
