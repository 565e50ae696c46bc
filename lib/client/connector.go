// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/bureau-foundation/stockroom/lib/netutil"
	"github.com/bureau-foundation/stockroom/lib/wire"
)

// DefaultTimeout applies to dialing and to each send and receive.
const DefaultTimeout = 10 * time.Second

// ConnectorConfig configures a Connector.
type ConnectorConfig struct {
	// Address is the server's host:port.
	Address string

	// ConnectTimeout bounds a dial. Zero means DefaultTimeout.
	ConnectTimeout time.Duration

	// IOTimeout is the write and read deadline for one request and
	// its response. Zero means DefaultTimeout.
	IOTimeout time.Duration

	Logger *slog.Logger
}

// Connector owns the client's TCP connection and the credentials
// attached to every request. It reconnects lazily: any transport error
// drops the connection, and the next SendCommand dials again. It is
// not safe for concurrent use.
type Connector struct {
	address        string
	connectTimeout time.Duration
	ioTimeout      time.Duration
	logger         *slog.Logger

	conn    net.Conn
	decoder *wire.FrameDecoder
	buf     []byte

	login    string
	password string
}

// NewConnector returns a disconnected Connector.
func NewConnector(config ConnectorConfig) *Connector {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	connector := &Connector{
		address:        config.Address,
		connectTimeout: config.ConnectTimeout,
		ioTimeout:      config.IOTimeout,
		logger:         logger,
		buf:            make([]byte, 32<<10),
	}
	if connector.connectTimeout <= 0 {
		connector.connectTimeout = DefaultTimeout
	}
	if connector.ioTimeout <= 0 {
		connector.ioTimeout = DefaultTimeout
	}
	return connector
}

// Address returns the server address.
func (c *Connector) Address() string {
	return c.address
}

// Connected reports whether a connection is currently held.
func (c *Connector) Connected() bool {
	return c.conn != nil
}

// Connect dials the server, replacing any existing connection.
func (c *Connector) Connect(ctx context.Context) error {
	c.disconnect()

	dialer := net.Dialer{Timeout: c.connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		kind := Refused
		if isTimeout(err) {
			kind = Timeout
		}
		return &ConnectionError{Kind: kind, Address: c.address, Err: err}
	}

	c.conn = conn
	c.decoder = wire.NewFrameDecoder(wire.MaxFrameSize)
	c.logger.Debug("connected", "remote_addr", conn.RemoteAddr().String())
	return nil
}

// EnsureConnection connects if no connection is held. It reports
// whether a connection is available afterwards.
func (c *Connector) EnsureConnection(ctx context.Context) bool {
	if c.conn != nil {
		return true
	}
	if err := c.Connect(ctx); err != nil {
		c.logger.Debug("connect failed", "address", c.address, "error", err)
		return false
	}
	return true
}

// Send writes request as one frame. The request is sent as given;
// SendCommand is what attaches credentials.
func (c *Connector) Send(request *wire.Request) error {
	if c.conn == nil {
		return &ConnectionError{Kind: Reset, Address: c.address, Err: errors.New("not connected")}
	}
	frame, err := wire.EncodeFrame(request)
	if err != nil {
		return err
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.ioTimeout))
	if _, err := c.conn.Write(frame); err != nil {
		return c.transportError(err)
	}
	return nil
}

// Receive reads until one complete response frame has arrived.
func (c *Connector) Receive() (*wire.Response, error) {
	if c.conn == nil {
		return nil, &ConnectionError{Kind: Reset, Address: c.address, Err: errors.New("not connected")}
	}

	c.conn.SetReadDeadline(time.Now().Add(c.ioTimeout))
	for {
		response := new(wire.Response)
		ok, err := c.decoder.Next(response)
		if err != nil {
			return nil, err
		}
		if ok {
			return response, nil
		}

		n, err := c.conn.Read(c.buf)
		c.decoder.Feed(c.buf[:n])
		if err != nil {
			// The last read may still have completed a frame.
			if ok, decodeErr := c.decoder.Next(response); decodeErr != nil {
				return nil, decodeErr
			} else if ok {
				return response, nil
			}
			return nil, c.transportError(err)
		}
	}
}

// SendCommand attaches the stored credentials, makes sure a connection
// exists, and performs one request/response exchange. Failures never
// escape as errors: the connection is dropped and a failed response
// explaining why is returned instead, so the REPL just prints it.
func (c *Connector) SendCommand(ctx context.Context, request *wire.Request) *wire.Response {
	request.Login = c.login
	request.Password = c.password

	if c.conn == nil {
		if err := c.Connect(ctx); err != nil {
			return notExecuted(err)
		}
	}

	response, err := c.exchange(request)
	if err != nil {
		c.logger.Debug("exchange failed", "command", request.Command, "error", err)
		c.disconnect()
		return notExecuted(err)
	}
	return response
}

func (c *Connector) exchange(request *wire.Request) (*wire.Response, error) {
	if err := c.Send(request); err != nil {
		return nil, err
	}
	return c.Receive()
}

var errServerClosed = errors.New("server closed the connection")

func notExecuted(err error) *wire.Response {
	return wire.Fail("command not executed: " + err.Error())
}

// SetCredentials stores the login and password sent with every
// subsequent request.
func (c *Connector) SetCredentials(login, password string) {
	c.login = login
	c.password = password
}

// ClearCredentials forgets the stored login.
func (c *Connector) ClearCredentials() {
	c.login = ""
	c.password = ""
}

// Login returns the stored login, empty when logged out.
func (c *Connector) Login() string {
	return c.login
}

// Close drops the connection. The connector stays usable; the next
// SendCommand reconnects.
func (c *Connector) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.decoder = nil
	return err
}

func (c *Connector) disconnect() {
	if c.conn != nil {
		c.Close()
	}
}

func (c *Connector) transportError(err error) error {
	if isTimeout(err) {
		return &ConnectionError{Kind: Timeout, Address: c.address, Err: err}
	}
	if netutil.IsExpectedCloseError(err) {
		err = errServerClosed
	}
	return &ConnectionError{Kind: Reset, Address: c.address, Err: err}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
