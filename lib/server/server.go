// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/stockroom/lib/codec"
	"github.com/bureau-foundation/stockroom/lib/command"
	"github.com/bureau-foundation/stockroom/lib/netutil"
	"github.com/bureau-foundation/stockroom/lib/wire"
)

// DefaultWriteTimeout bounds how long one response may take to flush.
const DefaultWriteTimeout = 10 * time.Second

// Messages of the failure responses the pipeline itself produces.
const (
	InvalidRequest = "invalid request"
	InternalError  = "internal error"
)

// Admitter decides whether a decoded request may be dispatched. A nil
// return admits; anything else is sent in place of executing. Admit
// may set request.UserID. *auth.Gate implements it.
type Admitter interface {
	Admit(ctx context.Context, request *wire.Request) *wire.Response
}

// Config configures a Server.
type Config struct {
	// Address is the TCP listen address, e.g. "127.0.0.1:7020". Port 0
	// picks a free port.
	Address string

	// Commands is the frozen server command registry.
	Commands *command.Registry[command.ServerCommand]

	// Gate authenticates requests. Nil admits everything.
	Gate Admitter

	// Pool sizes. Zero selects the default: readers = NumCPU,
	// handlers = 2*NumCPU, writers = 4.
	ReaderWorkers  int
	HandlerWorkers int
	WriterWorkers  int

	// Queue capacities. Zero selects the default of 256. A full queue
	// blocks the stage feeding it.
	ReadQueue    int
	HandlerQueue int
	WriteQueue   int

	// WriteTimeout is per response. Zero means DefaultWriteTimeout.
	WriteTimeout time.Duration

	// MaxFrameSize bounds accepted request frames. Zero means
	// wire.MaxFrameSize.
	MaxFrameSize int

	Logger *slog.Logger
}

type handlerJob struct {
	conn    *conn
	request *wire.Request
}

type writeJob struct {
	conn       *conn
	response   *wire.Response
	closeAfter bool
}

// Server is the request pipeline: an epoll loop hands readable
// connections to readers, readers decode and authenticate, handlers
// run commands, and writers send the responses.
type Server struct {
	mux      *Multiplexer
	commands *command.Registry[command.ServerCommand]
	gate     Admitter
	logger   *slog.Logger

	readerWorkers  int
	handlerWorkers int
	writerWorkers  int
	writeTimeout   time.Duration
	maxFrameSize   int

	readQueue    chan *conn
	handlerQueue chan handlerJob
	writeQueue   chan writeJob

	mu    sync.Mutex
	conns map[int]*conn

	ctx context.Context
}

// New binds the listening socket. Serve starts accepting.
func New(config Config) (*Server, error) {
	if config.Commands == nil {
		return nil, errors.New("server: Commands is required")
	}

	mux, err := Listen(config.Address)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		mux:            mux,
		commands:       config.Commands,
		gate:           config.Gate,
		logger:         logger,
		readerWorkers:  orDefault(config.ReaderWorkers, runtime.NumCPU()),
		handlerWorkers: orDefault(config.HandlerWorkers, 2*runtime.NumCPU()),
		writerWorkers:  orDefault(config.WriterWorkers, 4),
		writeTimeout:   orDefault(config.WriteTimeout, DefaultWriteTimeout),
		maxFrameSize:   orDefault(config.MaxFrameSize, wire.MaxFrameSize),
		readQueue:      make(chan *conn, orDefault(config.ReadQueue, 256)),
		handlerQueue:   make(chan handlerJob, orDefault(config.HandlerQueue, 256)),
		writeQueue:     make(chan writeJob, orDefault(config.WriteQueue, 256)),
		conns:          make(map[int]*conn),
		ctx:            context.Background(),
	}, nil
}

func orDefault[T int | time.Duration](value, fallback T) T {
	if value <= 0 {
		return fallback
	}
	return value
}

// Addr returns the bound listening address.
func (s *Server) Addr() net.Addr {
	return s.mux.Addr()
}

// Serve runs the pipeline until ctx is cancelled, then closes every
// connection, drains the worker pools, and releases the listener. It
// returns nil on a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	s.ctx = ctx

	var readers, handlers, writers sync.WaitGroup
	for range s.writerWorkers {
		writers.Go(s.writeLoop)
	}
	for range s.handlerWorkers {
		handlers.Go(s.handleLoop)
	}
	for range s.readerWorkers {
		readers.Go(s.readLoop)
	}

	s.logger.Info("server listening",
		"address", s.Addr().String(),
		"readers", s.readerWorkers,
		"handlers", s.handlerWorkers,
		"writers", s.writerWorkers,
	)

	loopDone := make(chan error, 1)
	go func() { loopDone <- s.mux.Run(s) }()

	var loopErr error
	select {
	case <-ctx.Done():
		s.mux.Shutdown()
		loopErr = <-loopDone
	case loopErr = <-loopDone:
	}

	// The loop has stopped, so nothing feeds readQueue any more. Each
	// stage is closed once every stage feeding it has drained.
	s.closeAll()
	close(s.readQueue)
	readers.Wait()
	close(s.handlerQueue)
	handlers.Wait()
	close(s.writeQueue)
	writers.Wait()

	closeErr := s.mux.Close()
	s.logger.Info("server stopped")

	if loopErr != nil {
		return fmt.Errorf("event loop: %w", loopErr)
	}
	return closeErr
}

// Accepted implements EventHandler.
func (s *Server) Accepted(fd int, remote string) {
	c := newConn(fd, uuid.NewString(), remote, s.maxFrameSize)
	s.mu.Lock()
	s.conns[fd] = c
	s.mu.Unlock()
	s.logger.Debug("connection accepted", "connection", c.id, "remote", remote)
}

// Readable implements EventHandler.
func (s *Server) Readable(fd int) {
	s.mu.Lock()
	c := s.conns[fd]
	s.mu.Unlock()
	if c == nil {
		return
	}
	s.readQueue <- c
}

// ConnectionCount returns the number of open connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) closeConn(c *conn, reason string) {
	if !c.close(s.mux.Deregister) {
		return
	}
	s.mu.Lock()
	// A newer connection may already own this descriptor number.
	if s.conns[c.fd] == c {
		delete(s.conns, c.fd)
	}
	s.mu.Unlock()
	s.logger.Debug("connection closed", "connection", c.id, "remote", c.remote, "reason", reason)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		s.closeConn(c, "server shutdown")
	}
}

func (s *Server) readLoop() {
	buf := make([]byte, 64<<10)
	for c := range s.readQueue {
		s.read(c, buf)
	}
}

// read drains the socket, dispatches every complete frame, and re-arms
// the descriptor unless the connection ended.
func (s *Server) read(c *conn, buf []byte) {
	result, err := c.drain(buf)
	if err != nil {
		switch {
		case errors.Is(err, errConnectionClosed):
		case netutil.IsExpectedCloseError(err):
			s.logger.Debug("peer reset connection", "connection", c.id, "error", err)
		default:
			s.logger.Warn("read failed", "connection", c.id, "remote", c.remote, "error", err)
		}
		s.closeConn(c, "read error")
		return
	}

	for {
		request := new(wire.Request)
		ok, err := c.decoder.Next(request)
		if err != nil {
			s.logger.Warn("protocol error", "connection", c.id, "remote", c.remote, "error", err)
			c.expect()
			s.writeQueue <- writeJob{conn: c, response: wire.Fail(InvalidRequest), closeAfter: true}
			return
		}
		if !ok {
			break
		}
		s.dispatch(c, request)
	}

	if result == readEOF {
		if c.finishReading() {
			s.closeConn(c, "peer closed")
		}
		return
	}

	if !c.acquire() {
		return
	}
	err = s.mux.Rearm(c.fd)
	c.release()
	if err != nil {
		s.logger.Warn("rearm failed", "connection", c.id, "error", err)
		s.closeConn(c, "rearm failed")
	}
}

// dispatch authenticates request and queues it for a handler, or
// queues the gate's rejection straight to the writers. exit needs no
// identity and goes straight to the handlers.
func (s *Server) dispatch(c *conn, request *wire.Request) {
	// Only the gate may claim an identity.
	request.UserID = 0
	c.expect()
	if request.Command != command.Exit && s.gate != nil {
		if rejection := s.gate.Admit(s.ctx, request); rejection != nil {
			s.writeQueue <- writeJob{conn: c, response: rejection}
			return
		}
	}
	s.handlerQueue <- handlerJob{conn: c, request: request}
}

func (s *Server) handleLoop() {
	for job := range s.handlerQueue {
		if job.request.Command == command.Exit {
			s.logger.Debug("client exited", "connection", job.conn.id)
			s.closeConn(job.conn, "exit")
			continue
		}
		response := s.execute(job.conn, job.request)
		s.writeQueue <- writeJob{conn: job.conn, response: response}
	}
}

// execute runs the named command. A panicking command fails its own
// request without taking the handler down.
func (s *Server) execute(c *conn, request *wire.Request) (response *wire.Response) {
	cmd, ok := s.commands.Lookup(request.Command)
	if !ok {
		return wire.Fail(command.NotFound(request.Command).Error())
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error("command panicked",
				"command", request.Command,
				"connection", c.id,
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
			response = wire.Fail(InternalError)
		}
	}()

	if len(request.Payload) > 0 && s.logger.Enabled(s.ctx, slog.LevelDebug) {
		notation, _ := codec.Diagnose(request.Payload)
		s.logger.Debug("executing command", "command", request.Command, "connection", c.id, "payload", notation)
	}

	start := time.Now()
	response = cmd.Execute(s.ctx, request)
	if response == nil {
		response = wire.Fail(InternalError)
	}
	s.logger.Debug("command executed",
		"command", request.Command,
		"connection", c.id,
		"user_id", request.UserID,
		"success", response.Success,
		"duration", time.Since(start),
	)
	return response
}

func (s *Server) writeLoop() {
	for job := range s.writeQueue {
		s.write(job)
	}
}

func (s *Server) write(job writeJob) {
	c := job.conn
	frame, err := wire.EncodeFrame(job.response)
	if err != nil {
		s.logger.Error("encoding response", "connection", c.id, "error", err)
		frame, err = wire.EncodeFrame(wire.Fail(InternalError))
	}
	if err == nil {
		err = c.writeFrame(frame, s.writeTimeout)
	}
	idle := c.answered()
	if err != nil {
		switch {
		case errors.Is(err, errConnectionClosed):
		case netutil.IsExpectedCloseError(err):
			s.logger.Debug("peer gone before response", "connection", c.id, "error", err)
		default:
			s.logger.Warn("write failed", "connection", c.id, "remote", c.remote, "error", err)
		}
		s.closeConn(c, "write failed")
		return
	}
	switch {
	case job.closeAfter:
		s.closeConn(c, "protocol error")
	case idle:
		s.closeConn(c, "peer closed")
	}
}
