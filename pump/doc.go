// File: pump/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package pump drives a protocol engine over a non-blocking socket.
//
// A Connection owns one serial execution queue. Every mutation of its
// state (socket, engine, readiness flags) happens in a task on that queue:
// reconnects scheduled by Connect, readiness callbacks delivered by the
// readiness facility, and work injected with Execute. Each readiness callback
// runs one pump cycle:
//
//   - ingress: one non-blocking read into the engine's tail
//   - events: the dispatcher delivers every queued engine event, in order
//   - egress: one non-blocking write from the engine's head
//   - readiness: each source is resumed or suspended to match the engine's
//     current capacity and pending counters
//
// Egress runs after event delivery so bytes produced by handlers are flushed
// in the same cycle.
package pump
