//go:build !linux
// +build !linux

// File: reactor/poller_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import (
	"context"
	"log"

	"github.com/momentics/hioload-pump/api"
)

// Poller is unavailable on this platform.
type Poller struct{}

// NewPoller returns api.ErrNotSupported on this platform.
func NewPoller(logger *log.Logger) (*Poller, error) {
	return nil, api.ErrNotSupported
}

func (p *Poller) NewSource(fd int, dir api.Direction, exec api.Executor, handler func()) (api.ReadinessSource, error) {
	return nil, api.ErrNotSupported
}

func (p *Poller) Run(ctx context.Context) error { return api.ErrNotSupported }

func (p *Poller) Registered() int { return 0 }

func (p *Poller) Close() error { return api.ErrNotSupported }
