// File: internal/cli/driver.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Driver owns one pump connection speaking the line protocol and layers the
// reconnect policy on top of it.

package cli

import (
	"context"
	"log"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpillora/backoff"
	"github.com/momentics/hioload-pump/api"
	"github.com/momentics/hioload-pump/control"
	"github.com/momentics/hioload-pump/protocol"
	"github.com/momentics/hioload-pump/pump"
)

// shutdownGrace bounds how long Run waits for BYE to be flushed.
const shutdownGrace = time.Second

// Driver runs the lpump client loop.
type Driver struct {
	cfg     *control.Config
	logger  *log.Logger
	metrics *control.MetricsRegistry
	conn    *pump.Connection
	port    string

	// after schedules f once d has elapsed.
	after func(d time.Duration, f func())

	stopping atomic.Bool
	finished chan struct{}
	once     sync.Once

	// queue-confined
	backoff   *backoff.Backoff
	attempts  int
	scheduled bool
}

// NewDriver builds a driver for cfg. extra options are applied after the
// driver's own, letting callers replace collaborators.
func NewDriver(cfg *control.Config, logger *log.Logger, extra ...pump.Option) (*Driver, error) {
	if logger == nil {
		logger = log.Default()
	}
	d := &Driver{
		cfg:      cfg,
		logger:   logger,
		metrics:  control.NewMetricsRegistry(),
		port:     strconv.Itoa(cfg.Port),
		finished: make(chan struct{}),
		after: func(dur time.Duration, f func()) {
			time.AfterFunc(dur, f)
		},
		backoff: &backoff.Backoff{
			Factor: cfg.Reconnect.Factor,
			Jitter: true,
			Min:    cfg.Reconnect.Min,
			Max:    cfg.Reconnect.Max,
		},
	}
	opts := []pump.Option{
		pump.WithEngineFactory(protocol.Factory(protocol.Config{
			Name:       cfg.Name,
			BufferSize: cfg.BufferSize,
		})),
		pump.WithErrorReporter(d.onError),
		pump.WithLogger(logger),
		pump.WithDebug(cfg.Debug),
	}
	conn, err := pump.New(d.onEvent, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	d.conn = conn
	return d, nil
}

// Connection returns the underlying pump connection.
func (d *Driver) Connection() *pump.Connection { return d.conn }

// Metrics returns the driver's counters.
func (d *Driver) Metrics() *control.MetricsRegistry { return d.metrics }

// Done is closed once the driver stops, either because the transport closed
// for good or because shutdown completed.
func (d *Driver) Done() <-chan struct{} { return d.finished }

// Start schedules the first connect.
func (d *Driver) Start() error {
	d.logger.Printf("[lpump] connecting to %s:%s as %q", d.cfg.Host, d.port, d.cfg.Name)
	return d.conn.Connect(d.cfg.Host, d.port)
}

// Stop queues BYE and marks the driver as stopping. Done is closed once the
// output side has been flushed and closed.
func (d *Driver) Stop() error {
	if !d.stopping.CompareAndSwap(false, true) {
		return nil
	}
	return d.conn.Execute(func() {
		eng, ok := d.conn.Engine().(*protocol.Engine)
		if !ok || eng.Pending() < 0 {
			d.finish()
			return
		}
		eng.Shutdown()
	})
}

// Run connects and pumps until ctx is done or the connection is gone, then
// closes the connection and logs the counters.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		if err := d.Stop(); err != nil {
			d.logger.Printf("[lpump] stop: %v", err)
		}
		select {
		case <-d.finished:
		case <-time.After(shutdownGrace):
			d.logger.Printf("[lpump] shutdown grace period elapsed")
		}
	case <-d.finished:
	}
	err := d.conn.Close()
	d.logSummary()
	return err
}

// logSummary prints one consistent snapshot of the counters.
func (d *Driver) logSummary() {
	snap := d.metrics.GetSnapshot()
	if len(snap) == 0 {
		d.logger.Printf("[lpump] no counters recorded")
		return
	}
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d.logger.Printf("[lpump] counters as of %s", d.metrics.Updated().Format(time.RFC3339Nano))
	for _, k := range keys {
		d.logger.Printf("[lpump] %s=%d", k, snap[k])
	}
}

func (d *Driver) finish() {
	d.once.Do(func() { close(d.finished) })
}

func (d *Driver) onEvent(c *pump.Connection, events api.EventQueue) {
	ev := events.Peek()
	d.logger.Printf("[lpump] %s event %s", ev.Category(), ev)
	d.metrics.Inc("events." + ev.Category().String())

	pe, ok := ev.(protocol.Event)
	if !ok {
		return
	}
	switch pe.Type {
	case protocol.ConnectionRemoteOpen:
		d.attempts = 0
		d.backoff.Reset()
		if eng, ok := c.Engine().(*protocol.Engine); ok {
			if err := eng.Send("greetings from " + d.cfg.Name); err != nil {
				d.logger.Printf("[lpump] greeting: %v", err)
			}
		}
	case protocol.Delivery:
		d.metrics.Inc("deliveries")
		d.logger.Printf("[lpump] delivery #%d: %s", c.NextTag(), pe.Line)
	case protocol.TransportHeadClosed:
		if d.stopping.Load() {
			d.finish()
		}
	case protocol.TransportClosed:
		d.retry(c)
	}
}

func (d *Driver) onError(c *pump.Connection, err error) {
	code := api.CodeOf(err)
	d.metrics.Inc("errors." + code.String())
	d.logger.Printf("[lpump] CONNECTION ERROR %v", err)

	// A failed dial leaves the engine open, so no TransportClosed follows.
	if code != api.ErrCodeConnectFailed && code != api.ErrCodeSocketCreateFailed {
		return
	}
	if eng := c.Engine(); eng != nil && eng.Capacity() >= 0 {
		d.retry(c)
	}
}

// retry schedules the next connect attempt, or finishes the driver when
// reconnecting is disabled or exhausted. Runs on the connection's queue.
func (d *Driver) retry(c *pump.Connection) {
	if d.stopping.Load() || !d.cfg.Reconnect.Enabled {
		d.finish()
		return
	}
	if d.scheduled {
		return
	}
	if d.attempts >= d.cfg.Reconnect.Attempts {
		d.logger.Printf("[lpump] Tried %d times reconnecting to %s:%s. Giving up.", d.attempts, d.cfg.Host, d.port)
		d.finish()
		return
	}
	d.attempts++
	d.scheduled = true
	d.metrics.Inc("reconnects")
	dur := d.backoff.Duration()
	d.logger.Printf("[lpump] Trying to reconnect to %s:%s. Sleeping for %s.", d.cfg.Host, d.port, dur)
	d.after(dur, func() {
		if err := c.Execute(func() { d.scheduled = false }); err != nil {
			return
		}
		if err := c.Connect(d.cfg.Host, d.port); err != nil {
			d.logger.Printf("[lpump] reconnect: %v", err)
		}
	})
}
