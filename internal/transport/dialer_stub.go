//go:build !linux
// +build !linux

// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package transport

import "github.com/momentics/hioload-pump/api"

// Dialer is unavailable on this platform.
type Dialer struct{}

// NewDialer returns a Dialer whose Dial always fails.
func NewDialer() *Dialer { return &Dialer{} }

// Dial returns api.ErrNotSupported.
func (d *Dialer) Dial(host, port string) (api.Socket, error) {
	return nil, api.WrapError(api.ErrCodeSocketCreateFailed, "socket create", api.ErrNotSupported)
}
