// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import "errors"

var (
	// ErrQueueClosed indicates the queue has been shut down
	ErrQueueClosed = errors.New("serial queue is closed")

	// ErrNilTask indicates a nil task was submitted
	ErrNilTask = errors.New("nil task")
)
