// File: reactor/errors.go
// Author: momentics <momentics@gmail.com>

package reactor

import "errors"

var (
	ErrPollerClosed  = errors.New("reactor: poller is closed")
	ErrPollerRunning = errors.New("reactor: poller already running")
	ErrSourceExists  = errors.New("reactor: source already registered for fd and direction")
)
