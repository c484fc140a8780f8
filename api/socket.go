// File: api/socket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Socket abstracts a connected non-blocking stream socket.
//
// Read returns (0, nil) at end of stream and iox.ErrWouldBlock when no data
// is available. Write returns iox.ErrWouldBlock when the send buffer is full.
type Socket interface {
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
	// Err returns the pending socket error, used to detect a failed
	// asynchronous connect.
	Err() error
	// Fd returns the descriptor readiness sources are registered on.
	Fd() int
	Close() error
}

// Dialer opens a non-blocking socket and starts connecting it. The connect
// may complete asynchronously; completion is signalled by writability.
type Dialer interface {
	Dial(host, port string) (Socket, error)
}
