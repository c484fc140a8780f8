// File: pump/options.go
// Package pump defines functional options for Connection.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pump

import (
	"log"

	"github.com/momentics/hioload-pump/api"
)

// Handler acts on the event at the head of events. It runs on the
// connection's queue and sees one event per call; the dispatcher pops it
// afterwards, so handlers must not Pop.
type Handler func(c *Connection, events api.EventQueue)

// ErrorReporter receives pump-level errors (see api.ErrorCode). It runs on
// the connection's queue.
type ErrorReporter func(c *Connection, err error)

// Option customizes Connection initialization.
type Option func(*options)

type options struct {
	newEngine api.EngineFactory
	dialer    api.Dialer
	readiness api.Readiness
	executor  api.Executor
	report    ErrorReporter
	logger    *log.Logger
	debug     bool
}

// WithEngineFactory sets how a fresh engine is created on every connect.
// Required.
func WithEngineFactory(f api.EngineFactory) Option {
	return func(o *options) {
		o.newEngine = f
	}
}

// WithDialer overrides the default non-blocking TCP dialer.
func WithDialer(d api.Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithReadiness overrides the process-wide epoll poller.
func WithReadiness(r api.Readiness) Option {
	return func(o *options) {
		o.readiness = r
	}
}

// WithExecutor runs the connection on exec instead of a private serial
// queue. exec must run tasks one at a time in submission order.
func WithExecutor(exec api.Executor) Option {
	return func(o *options) {
		o.executor = exec
	}
}

// WithErrorReporter replaces the default reporter, which logs.
func WithErrorReporter(r ErrorReporter) Option {
	return func(o *options) {
		o.report = r
	}
}

// WithLogger sets the logger for pump diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDebug enables per-cycle trace logging.
func WithDebug(on bool) Option {
	return func(o *options) {
		o.debug = on
	}
}
