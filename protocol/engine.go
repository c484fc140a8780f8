// File: protocol/engine.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Engine buffers bytes in both directions with pooled buffers. It is not
// safe for concurrent use; the pump confines it to one queue.

package protocol

import (
	"bytes"
	"errors"
	"strings"

	"github.com/momentics/hioload-pump/api"
	"github.com/valyala/bytebufferpool"
)

// DefaultBufferSize bounds a single incoming line.
const DefaultBufferSize = 4096

var (
	// ErrHeadClosed is returned by Send once no more output is accepted.
	ErrHeadClosed = errors.New("protocol: output closed")
	// ErrLineTooLong is carried by ProtocolError when the incoming buffer
	// fills up without a line terminator.
	ErrLineTooLong = api.NewError(api.ErrCodeEngineProtocol, "line exceeds buffer")
)

// Config controls an Engine.
type Config struct {
	// Name is announced in the HELLO line.
	Name string
	// BufferSize caps incoming buffered bytes. Defaults to DefaultBufferSize.
	BufferSize int
}

// Engine implements api.Engine for the line protocol.
type Engine struct {
	cfg    Config
	events api.EventQueue

	in  *bytebufferpool.ByteBuffer
	out *bytebufferpool.ByteBuffer

	opened       bool
	shutdown     bool
	remoteClosed bool
	tailClosed   bool
	headClosed   bool
	released     bool
}

// New creates an engine raising events into events.
func New(events api.EventQueue, cfg Config) *Engine {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	e := &Engine{
		cfg:    cfg,
		events: events,
		in:     bytebufferpool.Get(),
		out:    bytebufferpool.Get(),
	}
	if cap(e.in.B) < cfg.BufferSize {
		e.in.B = make([]byte, 0, cfg.BufferSize)
	}
	e.in.B = e.in.B[:0]
	return e
}

// Factory returns an api.EngineFactory producing engines that greet as
// soon as they are created.
func Factory(cfg Config) api.EngineFactory {
	return func(events api.EventQueue) (api.Engine, error) {
		e := New(events, cfg)
		e.Open()
		return e, nil
	}
}

func (e *Engine) raise(ev Event) {
	e.events.Put(ev)
}

// Open queues the greeting. Later calls do nothing.
func (e *Engine) Open() {
	if e.opened || e.headClosed {
		return
	}
	e.opened = true
	e.out.WriteString("HELLO " + e.cfg.Name + "\n")
	e.raise(Event{Type: ConnectionLocalOpen})
}

// Send queues one line. Lines must not contain a newline.
func (e *Engine) Send(line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return api.ErrInvalidArgument
	}
	if e.shutdown || e.tailClosed || e.headClosed || e.released {
		return ErrHeadClosed
	}
	e.out.WriteString(line)
	e.out.WriteByte('\n')
	return nil
}

// Shutdown queues BYE. The head closes once it has been written out, as it
// does after the tail closes.
func (e *Engine) Shutdown() {
	if e.shutdown || e.headClosed || e.released {
		return
	}
	e.shutdown = true
	e.out.WriteString("BYE\n")
	e.raise(Event{Type: ConnectionLocalClose})
}

// Capacity implements api.Engine.
func (e *Engine) Capacity() int {
	if e.tailClosed || e.released {
		return -1
	}
	return e.cfg.BufferSize - len(e.in.B)
}

// Tail implements api.Engine.
func (e *Engine) Tail() []byte {
	if e.tailClosed || e.released {
		return nil
	}
	return e.in.B[len(e.in.B):e.cfg.BufferSize]
}

// Process implements api.Engine. Complete lines are parsed and raised as
// events; a partial line stays buffered.
func (e *Engine) Process(n int) error {
	if e.tailClosed || e.released {
		return nil
	}
	if n < 0 || len(e.in.B)+n > e.cfg.BufferSize {
		return api.ErrInvalidArgument
	}
	e.in.B = e.in.B[:len(e.in.B)+n]

	buf := e.in.B
	consumed := 0
	for {
		i := bytes.IndexByte(buf[consumed:], '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(string(buf[consumed:consumed+i]), "\r")
		consumed += i + 1
		e.handleLine(line)
	}
	rest := copy(buf, buf[consumed:])
	e.in.B = buf[:rest]

	if len(e.in.B) == e.cfg.BufferSize {
		e.raise(Event{Type: ProtocolError, Err: ErrLineTooLong})
		e.CloseTail()
		return ErrLineTooLong
	}
	return nil
}

func (e *Engine) handleLine(line string) {
	if e.remoteClosed {
		return
	}
	switch {
	case line == "BYE":
		e.remoteClosed = true
		e.raise(Event{Type: ConnectionRemoteClose})
	case line == "HELLO" || strings.HasPrefix(line, "HELLO "):
		e.raise(Event{Type: ConnectionRemoteOpen, Line: strings.TrimSpace(strings.TrimPrefix(line, "HELLO"))})
	default:
		e.raise(Event{Type: Delivery, Line: line})
	}
}

// CloseTail implements api.Engine.
func (e *Engine) CloseTail() {
	if e.tailClosed {
		return
	}
	e.tailClosed = true
	e.raise(Event{Type: TransportTailClosed})
	// nothing more can be answered; the head follows once flushed
	if !e.headClosed && !e.released && len(e.out.B) == 0 {
		e.CloseHead()
		return
	}
	e.maybeClosed()
}

// Pending implements api.Engine.
func (e *Engine) Pending() int {
	if e.headClosed || e.released {
		return -1
	}
	return len(e.out.B)
}

// Head implements api.Engine.
func (e *Engine) Head() []byte {
	if e.headClosed || e.released {
		return nil
	}
	return e.out.B
}

// Pop implements api.Engine.
func (e *Engine) Pop(n int) {
	if e.headClosed || e.released || n <= 0 {
		return
	}
	if n > len(e.out.B) {
		n = len(e.out.B)
	}
	rest := copy(e.out.B, e.out.B[n:])
	e.out.B = e.out.B[:rest]
	if rest > 0 {
		return
	}
	if e.shutdown || e.tailClosed {
		e.CloseHead()
		return
	}
	e.raise(Event{Type: Flow})
}

// CloseHead implements api.Engine.
func (e *Engine) CloseHead() {
	if e.headClosed {
		return
	}
	e.headClosed = true
	e.raise(Event{Type: TransportHeadClosed})
	e.maybeClosed()
}

func (e *Engine) maybeClosed() {
	if e.tailClosed && e.headClosed {
		e.raise(Event{Type: TransportClosed})
	}
}

// RemoteClosed implements api.Engine.
func (e *Engine) RemoteClosed() bool { return e.remoteClosed }

// Close implements api.Engine. Buffers go back to the pool and the engine
// reports both halves closed afterwards. No events are raised.
func (e *Engine) Close() error {
	if e.released {
		return nil
	}
	e.released = true
	bytebufferpool.Put(e.in)
	bytebufferpool.Put(e.out)
	e.in, e.out = nil, nil
	return nil
}

var _ api.Engine = (*Engine)(nil)
