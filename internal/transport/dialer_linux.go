// internal/transport/dialer_linux.go
//go:build linux
// +build linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux non-blocking TCP socket built directly on golang.org/x/sys/unix.

package transport

import (
	"net"

	"code.hybscloud.com/iox"
	"github.com/momentics/hioload-pump/api"
	"golang.org/x/sys/unix"
)

// Dialer implements api.Dialer with raw non-blocking sockets.
type Dialer struct {
	// NoDelay disables Nagle's algorithm on new sockets.
	NoDelay bool
	// Resolve maps host and port to a TCP address. Defaults to
	// net.ResolveTCPAddr.
	Resolve func(host, port string) (*net.TCPAddr, error)
}

// NewDialer returns a Dialer with TCP_NODELAY enabled.
func NewDialer() *Dialer {
	return &Dialer{NoDelay: true}
}

// Dial implements api.Dialer.
func (d *Dialer) Dial(host, port string) (api.Socket, error) {
	resolve := d.Resolve
	if resolve == nil {
		resolve = func(host, port string) (*net.TCPAddr, error) {
			return net.ResolveTCPAddr("tcp", net.JoinHostPort(host, port))
		}
	}
	addr, err := resolve(host, port)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeConnectFailed, "resolve", err).
			WithContext("host", host).WithContext("port", port)
	}

	family, sa := sockaddr(addr)
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeSocketCreateFailed, "socket create", err)
	}
	if d.NoDelay {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	}
	if err := unix.Connect(fd, sa); err != nil && err != unix.EINPROGRESS && err != unix.EINTR {
		_ = unix.Close(fd)
		return nil, api.WrapError(api.ErrCodeConnectFailed, "connect", err).
			WithContext("addr", addr.String())
	}
	return &Socket{fd: fd, addr: addr}, nil
}

func sockaddr(addr *net.TCPAddr) (int, unix.Sockaddr) {
	if ip4 := addr.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)
		return unix.AF_INET, sa
	}
	sa := &unix.SockaddrInet6{Port: addr.Port}
	copy(sa.Addr[:], addr.IP.To16())
	if addr.Zone != "" {
		if ifi, err := net.InterfaceByName(addr.Zone); err == nil {
			sa.ZoneId = uint32(ifi.Index)
		}
	}
	return unix.AF_INET6, sa
}

// Socket is a non-blocking TCP socket.
type Socket struct {
	fd   int
	addr *net.TCPAddr
}

// Read implements api.Socket.
func (s *Socket) Read(buf []byte) (int, error) {
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return 0, iox.ErrWouldBlock
		}
		return 0, err
	}
	return n, nil
}

// Write implements api.Socket.
func (s *Socket) Write(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n, err := unix.Write(s.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return 0, iox.ErrWouldBlock
		}
		return 0, err
	}
	return n, nil
}

// Err returns the pending SO_ERROR, if any.
func (s *Socket) Err() error {
	v, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if v != 0 {
		return unix.Errno(v)
	}
	return nil
}

// Fd implements api.Socket.
func (s *Socket) Fd() int { return s.fd }

// RemoteAddr returns the address the socket connects to.
func (s *Socket) RemoteAddr() net.Addr { return s.addr }

// Close closes the socket.
func (s *Socket) Close() error {
	if s.fd < 0 {
		return nil
	}
	fd := s.fd
	s.fd = -1
	return unix.Close(fd)
}

var _ api.Dialer = (*Dialer)(nil)
