// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"

	"golang.org/x/sys/unix"
)

// connectionEvents is the interest set for an accepted connection.
// EPOLLONESHOT disarms the descriptor after each event, which is how a
// connection is handed to a reader without the loop seeing it again
// until the reader calls Rearm.
const connectionEvents = unix.EPOLLIN | unix.EPOLLRDHUP | unix.EPOLLONESHOT

// EventHandler receives readiness events from a Multiplexer. Both
// methods run on the event loop goroutine and must not block on
// application work.
type EventHandler interface {
	// Accepted is called for each new non-blocking connection before
	// it is registered for read readiness.
	Accepted(fd int, remote string)

	// Readable is called when a registered connection has data, has
	// been closed by the peer, or has failed. The descriptor is
	// disarmed until Rearm.
	Readable(fd int)
}

// Multiplexer is a single epoll loop that owns a listening TCP socket
// and the read-readiness registrations of every accepted connection.
type Multiplexer struct {
	epollFD  int
	listenFD int
	wakeFD   int
	addr     *net.TCPAddr

	closeOnce sync.Once
}

// Listen binds address, starts listening, and prepares the epoll
// instance. Port 0 picks a free port; see Addr.
func Listen(address string) (*Multiplexer, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", address, err)
	}

	family, sockaddr, err := toSockaddr(tcpAddr)
	if err != nil {
		return nil, err
	}

	m := &Multiplexer{epollFD: -1, listenFD: -1, wakeFD: -1}
	if err := m.open(family, sockaddr); err != nil {
		m.Close()
		return nil, fmt.Errorf("listening on %s: %w", address, err)
	}
	return m, nil
}

func (m *Multiplexer) open(family int, sockaddr unix.Sockaddr) error {
	var err error
	m.listenFD, err = unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return fmt.Errorf("socket: %w", err)
	}
	// A restarted server must be able to rebind while old connections
	// sit in TIME_WAIT.
	if err := unix.SetsockoptInt(m.listenFD, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(m.listenFD, sockaddr); err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(m.listenFD, unix.SOMAXCONN); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	bound, err := unix.Getsockname(m.listenFD)
	if err != nil {
		return fmt.Errorf("getsockname: %w", err)
	}
	m.addr = fromSockaddr(bound)

	m.epollFD, err = unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	m.wakeFD, err = unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("eventfd: %w", err)
	}

	for _, fd := range []int{m.listenFD, m.wakeFD} {
		event := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(m.epollFD, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			return fmt.Errorf("epoll_ctl add %d: %w", fd, err)
		}
	}
	return nil
}

// Addr returns the bound listening address.
func (m *Multiplexer) Addr() *net.TCPAddr {
	return m.addr
}

// Run processes readiness events until Shutdown is called or epoll
// fails. It must be called from exactly one goroutine.
func (m *Multiplexer) Run(handler EventHandler) error {
	events := make([]unix.EpollEvent, 128)
	for {
		n, err := unix.EpollWait(m.epollFD, events, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := range n {
			fd := int(events[i].Fd)
			switch fd {
			case m.wakeFD:
				return nil
			case m.listenFD:
				if err := m.acceptAll(handler); err != nil {
					return err
				}
			default:
				handler.Readable(fd)
			}
		}
	}
}

// acceptAll drains the accept backlog. Per-connection failures are
// skipped; only a broken listener stops the loop.
func (m *Multiplexer) acceptAll(handler EventHandler) error {
	for {
		fd, sockaddr, err := unix.Accept4(m.listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			switch {
			case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
				return nil
			case errors.Is(err, unix.ECONNABORTED), errors.Is(err, unix.EMFILE), errors.Is(err, unix.ENFILE):
				// Leave the rest of the backlog for the next wakeup.
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		// Responses are small and strictly alternate with requests.
		unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

		handler.Accepted(fd, fromSockaddr(sockaddr).String())
		event := unix.EpollEvent{Events: connectionEvents, Fd: int32(fd)}
		if err := unix.EpollCtl(m.epollFD, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			unix.Close(fd)
			continue
		}
	}
}

// Rearm re-enables read readiness for fd after a reader has drained it.
func (m *Multiplexer) Rearm(fd int) error {
	event := unix.EpollEvent{Events: connectionEvents, Fd: int32(fd)}
	if err := unix.EpollCtl(m.epollFD, unix.EPOLL_CTL_MOD, fd, &event); err != nil {
		return fmt.Errorf("epoll_ctl mod %d: %w", fd, err)
	}
	return nil
}

// Deregister removes fd from the interest list. Closing a descriptor
// also removes it; Deregister makes the removal explicit before close.
func (m *Multiplexer) Deregister(fd int) error {
	if err := unix.EpollCtl(m.epollFD, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll_ctl del %d: %w", fd, err)
	}
	return nil
}

// Shutdown wakes the loop and makes Run return. Safe to call from any
// goroutine, any number of times.
func (m *Multiplexer) Shutdown() {
	var one [8]byte
	binary.NativeEndian.PutUint64(one[:], 1)
	unix.Write(m.wakeFD, one[:])
}

// Close releases the listener, the eventfd, and the epoll instance.
// Call only after Run has returned.
func (m *Multiplexer) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		for _, fd := range []int{m.listenFD, m.wakeFD, m.epollFD} {
			if fd >= 0 {
				if err := unix.Close(fd); err != nil {
					errs = append(errs, err)
				}
			}
		}
	})
	return errors.Join(errs...)
}

func toSockaddr(addr *net.TCPAddr) (int, unix.Sockaddr, error) {
	if addr.IP == nil || addr.IP.To4() != nil {
		sockaddr := &unix.SockaddrInet4{Port: addr.Port}
		if addr.IP != nil {
			copy(sockaddr.Addr[:], addr.IP.To4())
		}
		return unix.AF_INET, sockaddr, nil
	}
	if ip16 := addr.IP.To16(); ip16 != nil {
		sockaddr := &unix.SockaddrInet6{Port: addr.Port}
		copy(sockaddr.Addr[:], ip16)
		return unix.AF_INET6, sockaddr, nil
	}
	return 0, nil, fmt.Errorf("unsupported address %s", addr)
}

func fromSockaddr(sockaddr unix.Sockaddr) *net.TCPAddr {
	switch sa := sockaddr.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]).To16(), Port: sa.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]), Port: sa.Port}
	}
	return &net.TCPAddr{}
}
