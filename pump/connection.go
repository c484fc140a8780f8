// File: pump/connection.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection lifecycle: construction, reconnect and teardown. All fields
// below the queue are confined to tasks running on it.

package pump

import (
	"errors"
	"log"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/momentics/hioload-pump/api"
	"github.com/momentics/hioload-pump/internal/concurrency"
	"github.com/momentics/hioload-pump/internal/transport"
	"github.com/momentics/hioload-pump/reactor"
)

var (
	// ErrConnectionClosed is returned by calls made after Close.
	ErrConnectionClosed = errors.New("pump: connection closed")
	// ErrNoEngineFactory is returned by New without WithEngineFactory.
	ErrNoEngineFactory = errors.New("pump: engine factory required")
)

// Stats are per-connection counters. Read them from a queue task.
type Stats struct {
	Connects uint64
	Cycles   uint64
	BytesIn  uint64
	BytesOut uint64
	Events   map[api.EventCategory]uint64
}

// Connection pumps bytes between one socket and one engine at a time.
type Connection struct {
	id      string
	onEvent Handler
	opts    options

	queue     api.Executor
	ownQueue  *concurrency.SerialQueue
	closeFlag atomic.Bool

	// queue-confined state
	events     *Collector
	engine     api.Engine
	sock       api.Socket
	readSrc    api.ReadinessSource
	writeSrc   api.ReadinessSource
	connecting bool
	reading    bool
	writing    bool
	generation uint64
	tag        uint64
	finished   bool
	stats      Stats
}

// New creates an unconnected Connection that delivers engine events to
// onEvent.
func New(onEvent Handler, opts ...Option) (*Connection, error) {
	c := &Connection{
		id:      uuid.Must(uuid.NewV7()).String(),
		onEvent: onEvent,
		events:  NewCollector(),
		stats:   Stats{Events: make(map[api.EventCategory]uint64)},
	}
	for _, o := range opts {
		o(&c.opts)
	}
	if c.opts.newEngine == nil {
		return nil, ErrNoEngineFactory
	}
	if c.opts.logger == nil {
		c.opts.logger = log.Default()
	}
	if c.opts.report == nil {
		c.opts.report = c.logError
	}
	if c.opts.dialer == nil {
		c.opts.dialer = transport.NewDialer()
	}
	if c.opts.readiness == nil {
		p, err := reactor.Default()
		if err != nil {
			return nil, err
		}
		c.opts.readiness = p
	}
	if c.opts.executor == nil {
		c.ownQueue = concurrency.NewSerialQueue("pump-"+c.id, c.opts.logger)
		c.queue = c.ownQueue
	} else {
		c.queue = c.opts.executor
	}
	return c, nil
}

// ID returns the connection's unique identifier.
func (c *Connection) ID() string { return c.id }

// Connect schedules a (re)connect to host:port and returns once the task is
// queued. Completion is observed through engine events.
func (c *Connection) Connect(host, port string) error {
	if host == "" || port == "" {
		return api.ErrInvalidArgument
	}
	if c.closeFlag.Load() {
		return ErrConnectionClosed
	}
	return c.queue.Submit(func() { c.reconnect(host, port) })
}

// Execute runs fn on the connection's queue, serialized with pump cycles.
// Use it to touch the engine from other goroutines.
func (c *Connection) Execute(fn func()) error {
	if fn == nil {
		return api.ErrInvalidArgument
	}
	if c.closeFlag.Load() {
		return ErrConnectionClosed
	}
	return c.queue.Submit(func() {
		fn()
		// fn may have produced outgoing bytes or consumed capacity
		c.pump()
	})
}

// Engine returns the bound engine, or nil. Only valid on the queue.
func (c *Connection) Engine() api.Engine { return c.engine }

// NextTag returns the next delivery tag. Only valid on the queue.
func (c *Connection) NextTag() uint64 {
	c.tag++
	return c.tag
}

// Stats returns a copy of the counters. Only valid on the queue.
func (c *Connection) Stats() Stats {
	s := c.stats
	s.Events = make(map[api.EventCategory]uint64, len(c.stats.Events))
	for k, v := range c.stats.Events {
		s.Events[k] = v
	}
	return s
}

// Close tears down socket, sources and engine. With the private queue it
// waits for the teardown; with WithExecutor the teardown is only scheduled.
// Close must not be called from the connection's queue.
func (c *Connection) Close() error {
	if !c.closeFlag.CompareAndSwap(false, true) {
		return ErrConnectionClosed
	}
	err := c.queue.Submit(func() {
		c.finished = true
		c.teardown()
	})
	if err != nil {
		return err
	}
	if c.ownQueue != nil {
		return c.ownQueue.Close()
	}
	return nil
}

func (c *Connection) reconnect(host, port string) {
	if c.finished {
		return
	}
	c.teardown()
	c.stats.Connects++

	eng, err := c.opts.newEngine(c.events)
	if err != nil {
		c.report(api.WrapError(api.ErrCodeInternal, "engine create", err))
		return
	}
	c.engine = eng

	sock, err := c.opts.dialer.Dial(host, port)
	if err != nil {
		if api.CodeOf(err) == api.ErrCodeInternal {
			err = api.WrapError(api.ErrCodeConnectFailed, "dial", err)
		}
		c.report(err)
		c.flushEvents()
		return
	}

	c.generation++
	gen := c.generation
	rs, err := c.opts.readiness.NewSource(sock.Fd(), api.DirRead, c.queue, func() { c.onReadable(gen) })
	if err != nil {
		c.closeSocket(sock)
		c.report(api.WrapError(api.ErrCodeInternal, "read source", err))
		return
	}
	ws, err := c.opts.readiness.NewSource(sock.Fd(), api.DirWrite, c.queue, func() { c.onWritable(gen) })
	if err != nil {
		rs.Cancel()
		c.closeSocket(sock)
		c.report(api.WrapError(api.ErrCodeInternal, "write source", err))
		return
	}

	c.sock, c.readSrc, c.writeSrc = sock, rs, ws
	c.connecting, c.reading, c.writing = true, true, true
	c.debugf("connecting to %s:%s (generation %d)", host, port, gen)
	c.pump()
}

// teardown unbinds engine, sources and socket, in that order. Events the
// closing engine raises are delivered with Engine() returning nil.
func (c *Connection) teardown() {
	if c.engine != nil {
		eng := c.engine
		c.engine = nil
		if err := eng.Close(); err != nil {
			c.logf("engine close: %v", err)
		}
	}
	if c.readSrc != nil {
		c.readSrc.Cancel()
		c.readSrc = nil
	}
	if c.writeSrc != nil {
		c.writeSrc.Cancel()
		c.writeSrc = nil
	}
	if c.sock != nil {
		c.closeSocket(c.sock)
		c.sock = nil
	}
	c.connecting, c.reading, c.writing = false, false, false
	c.flushEvents()
}

func (c *Connection) closeSocket(s api.Socket) {
	if err := s.Close(); err != nil {
		c.logf("socket close: %v", err)
	}
}

func (c *Connection) onReadable(gen uint64) {
	if gen != c.generation || c.sock == nil {
		c.debugf("stale read callback (generation %d) ignored", gen)
		return
	}
	c.pump()
}

func (c *Connection) onWritable(gen uint64) {
	if gen != c.generation || c.sock == nil {
		c.debugf("stale write callback (generation %d) ignored", gen)
		return
	}
	if c.connecting {
		c.connecting = false
		if err := c.sock.Err(); err != nil {
			c.engine.CloseTail()
			c.engine.CloseHead()
			c.report(api.WrapError(api.ErrCodeConnectFailed, "connect", err))
		} else {
			c.debugf("connected")
		}
	}
	c.pump()
}

func (c *Connection) report(err error) {
	c.opts.report(c, err)
}

func (c *Connection) logError(_ *Connection, err error) {
	c.logf("CONNECTION ERROR %v", err)
}

func (c *Connection) logf(format string, args ...any) {
	c.opts.logger.Printf("[pump "+c.id[:8]+"] "+format, args...)
}

func (c *Connection) debugf(format string, args ...any) {
	if c.opts.debug {
		c.logf(format, args...)
	}
}
