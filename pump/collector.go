// File: pump/collector.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pump

import (
	"github.com/eapache/queue"
	"github.com/momentics/hioload-pump/api"
)

// Collector is the FIFO engine events are raised into. It is confined to
// the owning connection's queue and is not safe for concurrent use.
type Collector struct {
	q *queue.Queue
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{q: queue.New()}
}

// Put implements api.EventQueue. Nil events are dropped.
func (c *Collector) Put(ev api.Event) {
	if ev == nil {
		return
	}
	c.q.Add(ev)
}

// Peek implements api.EventQueue.
func (c *Collector) Peek() api.Event {
	if c.q.Length() == 0 {
		return nil
	}
	return c.q.Peek().(api.Event)
}

// Pop implements api.EventQueue.
func (c *Collector) Pop() {
	if c.q.Length() == 0 {
		return
	}
	c.q.Remove()
}

// Len implements api.EventQueue.
func (c *Collector) Len() int {
	return c.q.Length()
}

var _ api.EventQueue = (*Collector)(nil)
