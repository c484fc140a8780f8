// File: pump/pump.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pump

import (
	"code.hybscloud.com/iox"
	"github.com/momentics/hioload-pump/api"
)

// pump runs one cycle: ingress, event drain, egress, readiness recompute.
// Events raised while sending are drained before readiness is recomputed.
// Both directions are attempted whichever source fired; neither is attempted
// while the connect is in progress.
func (c *Connection) pump() {
	eng, sock := c.engine, c.sock
	if eng == nil || sock == nil {
		c.flushEvents()
		return
	}
	c.stats.Cycles++

	if !c.connecting {
		c.ingress(eng, sock)
	}
	c.flushEvents()
	if !c.connecting {
		c.egress(eng, sock)
		// Pop may close the head or report a drained buffer
		c.flushEvents()
	}
	c.updateReadiness(eng)
}

func (c *Connection) ingress(eng api.Engine, sock api.Socket) {
	capacity := eng.Capacity()
	if capacity <= 0 {
		return
	}
	buf := eng.Tail()
	if len(buf) > capacity {
		buf = buf[:capacity]
	}
	if len(buf) == 0 {
		return
	}
	n, err := sock.Read(buf)
	if n > 0 {
		c.stats.BytesIn += uint64(n)
		if perr := eng.Process(n); perr != nil {
			c.debugf("engine: %v", perr)
		}
		c.debugf("recvd %d", n)
		return
	}
	if err != nil && iox.IsWouldBlock(err) {
		return
	}
	if err != nil {
		c.debugf("recv: %v", err)
	}
	eng.CloseTail()
	if !eng.RemoteClosed() {
		e := api.NewError(api.ErrCodeConnectionAborted, "connection aborted (remote)")
		e.Cause = err
		c.report(e)
	}
}

func (c *Connection) egress(eng api.Engine, sock api.Socket) {
	pending := eng.Pending()
	if pending <= 0 {
		return
	}
	buf := eng.Head()
	if len(buf) > pending {
		buf = buf[:pending]
	}
	n, err := sock.Write(buf)
	if err != nil {
		if iox.IsWouldBlock(err) {
			return
		}
		eng.CloseHead()
		c.report(api.WrapError(api.ErrCodeSendFailed, "send", err))
		return
	}
	if n > 0 {
		c.stats.BytesOut += uint64(n)
		eng.Pop(n)
		c.debugf("sent %d remaining to send %d", n, eng.Pending())
	}
}

// updateReadiness arms each source exactly while there is work for it. The
// write source stays armed during connect so completion is observed.
func (c *Connection) updateReadiness(eng api.Engine) {
	canRead := eng.Capacity() > 0 && !c.connecting
	canWrite := eng.Pending() > 0 || c.connecting

	if canRead != c.reading {
		c.reading = canRead
		if canRead {
			c.readSrc.Resume()
			c.debugf("resume read")
		} else {
			c.readSrc.Suspend()
			c.debugf("suspend read")
		}
	}
	if canWrite != c.writing {
		c.writing = canWrite
		if canWrite {
			c.writeSrc.Resume()
			c.debugf("resume write")
		} else {
			c.writeSrc.Suspend()
			c.debugf("suspend write")
		}
	}
}
