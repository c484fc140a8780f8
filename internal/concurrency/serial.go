// File: internal/concurrency/serial.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SerialQueue runs submitted tasks one at a time in FIFO order. A drain
// goroutine exists only while tasks are queued.

package concurrency

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// TaskFunc is a unit of work to execute.
type TaskFunc func()

// SerialQueue is a FIFO executor that never runs two tasks concurrently.
type SerialQueue struct {
	name   string
	logger *log.Logger

	mu       sync.Mutex
	tasks    *queue.Queue
	draining bool
	closed   bool
	wg       sync.WaitGroup

	executed atomic.Int64
	panicked atomic.Int64
}

// NewSerialQueue creates an idle queue. A nil logger selects log.Default().
func NewSerialQueue(name string, logger *log.Logger) *SerialQueue {
	if logger == nil {
		logger = log.Default()
	}
	return &SerialQueue{
		name:   name,
		logger: logger,
		tasks:  queue.New(),
	}
}

// Submit enqueues task. Returns ErrQueueClosed after Close.
func (q *SerialQueue) Submit(task func()) error {
	if task == nil {
		return ErrNilTask
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.tasks.Add(TaskFunc(task))
	if !q.draining {
		q.draining = true
		q.wg.Add(1)
		go q.drain()
	}
	return nil
}

func (q *SerialQueue) drain() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if q.tasks.Length() == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		task := q.tasks.Remove().(TaskFunc)
		q.mu.Unlock()
		q.safeExecute(task)
	}
}

// safeExecute runs task, recovering a panic so the queue stays alive.
func (q *SerialQueue) safeExecute(task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			q.panicked.Add(1)
			q.logger.Printf("[SerialQueue %s] task panic: %v", q.name, r)
		}
		q.executed.Add(1)
	}()
	task()
}

// Pending returns the number of queued tasks not yet started.
func (q *SerialQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.Length()
}

// Stats returns basic queue metrics.
func (q *SerialQueue) Stats() map[string]int64 {
	return map[string]int64{
		"executed_tasks": q.executed.Load(),
		"panicked_tasks": q.panicked.Load(),
		"pending_tasks":  int64(q.Pending()),
	}
}

// Close rejects further submissions and waits for queued tasks to finish.
// It must not be called from a task running on q.
func (q *SerialQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
	return nil
}
