// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import "errors"

// ErrExecutorClosed is returned by Submit after Close.
var ErrExecutorClosed = errors.New("fake executor closed")

// Executor queues tasks until the test drains them, giving deterministic
// single-threaded execution.
type Executor struct {
	tasks  []func()
	closed bool
	Ran    int
}

// NewExecutor creates an empty executor.
func NewExecutor() *Executor {
	return &Executor{}
}

func (e *Executor) Submit(task func()) error {
	if e.closed {
		return ErrExecutorClosed
	}
	e.tasks = append(e.tasks, task)
	return nil
}

// Len returns the number of queued tasks.
func (e *Executor) Len() int { return len(e.tasks) }

// RunOne runs the oldest queued task. It reports false when empty.
func (e *Executor) RunOne() bool {
	if len(e.tasks) == 0 {
		return false
	}
	task := e.tasks[0]
	e.tasks = e.tasks[1:]
	e.Ran++
	task()
	return true
}

// Drain runs tasks, including ones submitted while draining, until none
// remain.
func (e *Executor) Drain() {
	for e.RunOne() {
	}
}

// Close rejects further submissions.
func (e *Executor) Close() { e.closed = true }
