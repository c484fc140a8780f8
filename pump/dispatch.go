// File: pump/dispatch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pump

import "github.com/momentics/hioload-pump/api"

// dispatch delivers queued events one at a time until the collector is
// empty. Events the handler raises are delivered by later iterations.
func (c *Connection) dispatch() {
	for {
		ev := c.events.Peek()
		if ev == nil {
			return
		}
		cat := ev.Category()
		switch cat {
		case api.CategoryConnection, api.CategorySession, api.CategoryLink,
			api.CategoryFlow, api.CategoryDelivery, api.CategoryTransport:
		default:
			c.debugf("event %s with unknown category %d", ev, int(cat))
		}
		c.stats.Events[cat]++
		c.debugf("%s event %s", cat, ev)
		if c.onEvent != nil {
			c.onEvent(c, c.events)
		}
		c.events.Pop()
	}
}

func (c *Connection) flushEvents() {
	if c.events.Len() > 0 {
		c.dispatch()
	}
}
