// Package transport
// Author: momentics <momentics@gmail.com>
//
// Non-blocking TCP sockets for the pump. Dial resolves the peer, creates a
// SOCK_NONBLOCK socket and starts an asynchronous connect; reads and writes
// report iox.ErrWouldBlock instead of blocking.
package transport
