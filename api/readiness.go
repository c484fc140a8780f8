// File: api/readiness.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Readiness facility contract: per-socket, per-direction subscriptions whose
// callbacks are marshalled onto a caller supplied executor.

package api

// Direction selects which readiness a source watches.
type Direction uint8

const (
	DirRead Direction = iota
	DirWrite
)

func (d Direction) String() string {
	if d == DirRead {
		return "read"
	}
	return "write"
}

// Executor schedules a unit of work for later execution.
type Executor interface {
	// Submit schedules task for execution.
	Submit(task func()) error
}

// ReadinessSource is a resumable subscription to one direction of one fd.
// Resume on an armed source and Suspend on a suspended one are no-ops.
// After Cancel no transitions take effect and no new callbacks are scheduled.
type ReadinessSource interface {
	Resume()
	Suspend()
	Cancel()
}

// Readiness creates readiness sources.
type Readiness interface {
	// NewSource watches dir on fd and submits handler to exec each time the
	// fd becomes ready while the source is armed. Sources start armed.
	NewSource(fd int, dir Direction, exec Executor, handler func()) (ReadinessSource, error)
}
