// File: protocol/events.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import "github.com/momentics/hioload-pump/api"

// EventType identifies a protocol event.
type EventType int

const (
	ConnectionLocalOpen EventType = iota + 1
	ConnectionRemoteOpen
	ConnectionLocalClose
	ConnectionRemoteClose
	Delivery
	Flow
	ProtocolError
	TransportTailClosed
	TransportHeadClosed
	TransportClosed
)

var typeNames = map[EventType]string{
	ConnectionLocalOpen:   "connection_local_open",
	ConnectionRemoteOpen:  "connection_remote_open",
	ConnectionLocalClose:  "connection_local_close",
	ConnectionRemoteClose: "connection_remote_close",
	Delivery:              "delivery",
	Flow:                  "flow",
	ProtocolError:         "protocol_error",
	TransportTailClosed:   "transport_tail_closed",
	TransportHeadClosed:   "transport_head_closed",
	TransportClosed:       "transport_closed",
}

func (t EventType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Category maps the type onto the pump's dispatch categories.
func (t EventType) Category() api.EventCategory {
	switch t {
	case ConnectionLocalOpen, ConnectionRemoteOpen, ConnectionLocalClose, ConnectionRemoteClose:
		return api.CategoryConnection
	case Delivery:
		return api.CategoryDelivery
	case Flow:
		return api.CategoryFlow
	case ProtocolError, TransportTailClosed, TransportHeadClosed, TransportClosed:
		return api.CategoryTransport
	default:
		return api.CategoryNone
	}
}

// Event is raised by Engine into its event queue.
type Event struct {
	Type EventType
	// Line holds the peer's line for Delivery and ConnectionRemoteOpen.
	Line string
	// Err is set on ProtocolError.
	Err error
}

// Category implements api.Event.
func (e Event) Category() api.EventCategory { return e.Type.Category() }

func (e Event) String() string {
	switch {
	case e.Err != nil:
		return e.Type.String() + ": " + e.Err.Error()
	case e.Line != "":
		return e.Type.String() + " " + e.Line
	default:
		return e.Type.String()
	}
}

var _ api.Event = Event{}
