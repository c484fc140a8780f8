// File: api/engine.go
// Package api defines the protocol engine contract driven by the pump.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// EventCategory groups engine events for dispatch. The set is owned by the
// engine; the pump passes unknown categories through untouched.
type EventCategory int

const (
	CategoryNone EventCategory = iota
	CategoryConnection
	CategorySession
	CategoryLink
	CategoryFlow
	CategoryDelivery
	CategoryTransport
)

func (c EventCategory) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryConnection:
		return "connection"
	case CategorySession:
		return "session"
	case CategoryLink:
		return "link"
	case CategoryFlow:
		return "flow"
	case CategoryDelivery:
		return "delivery"
	case CategoryTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Event is a discrete protocol state change raised by an engine.
type Event interface {
	Category() EventCategory
	String() string
}

// EventQueue is the FIFO an engine raises events into.
type EventQueue interface {
	// Put appends ev at the tail.
	Put(ev Event)
	// Peek returns the head event, or nil when empty.
	Peek() Event
	// Pop discards the head event. No-op when empty.
	Pop()
	// Len returns the number of queued events.
	Len() int
}

// Engine is the byte-level face of a protocol engine transport instance.
//
// Capacity and Pending report negative values once the corresponding half
// has been closed.
type Engine interface {
	// Capacity returns how many incoming bytes the engine can accept now.
	Capacity() int
	// Tail returns the buffer incoming bytes are written into.
	Tail() []byte
	// Process consumes n bytes written at Tail.
	Process(n int) error
	// CloseTail signals that no more incoming bytes will arrive.
	CloseTail()

	// Pending returns how many outgoing bytes are ready to send.
	Pending() int
	// Head returns the outgoing bytes ready to send.
	Head() []byte
	// Pop discards n sent bytes from Head.
	Pop(n int)
	// CloseHead signals that no more outgoing bytes will be sent.
	CloseHead()

	// RemoteClosed reports whether the peer already signalled closure.
	RemoteClosed() bool

	// Close releases the engine. It does not talk to the peer: the graceful
	// signal is the socket close that follows, so engines with a protocol
	// goodbye queue it beforehand (see protocol.Engine.Shutdown). The engine
	// must not be used afterwards.
	Close() error
}

// EngineFactory creates a fresh engine bound to events. It is called once
// per connect attempt.
type EngineFactory func(events EventQueue) (Engine, error)
