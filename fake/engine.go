// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import "github.com/momentics/hioload-pump/api"

// Event is a named engine event.
type Event struct {
	Name string
	Cat  api.EventCategory
}

func (e Event) Category() api.EventCategory { return e.Cat }
func (e Event) String() string              { return e.Name }

// Engine implements api.Engine with directly settable counters.
type Engine struct {
	ID      int
	Events  api.EventQueue
	Journal *Journal

	// CapacityVal is what Capacity reports while the tail is open.
	CapacityVal int
	// Out holds pending outgoing bytes.
	Out []byte
	// Remote is what RemoteClosed reports.
	Remote bool

	Received     []byte
	ProcessCalls []int
	PopCalls     []int
	TailCloses   int
	HeadCloses   int
	Closes       int

	// OnProcess runs after received bytes are recorded.
	OnProcess func(e *Engine, data []byte)
	// ProcessErr is returned by Process.
	ProcessErr error

	tail []byte
}

// Capacity implements api.Engine.
func (e *Engine) Capacity() int {
	if e.TailCloses > 0 {
		return -1
	}
	return e.CapacityVal
}

// Tail implements api.Engine.
func (e *Engine) Tail() []byte {
	if cap(e.tail) < e.CapacityVal {
		e.tail = make([]byte, e.CapacityVal)
	}
	return e.tail[:e.CapacityVal]
}

// Process implements api.Engine.
func (e *Engine) Process(n int) error {
	data := append([]byte(nil), e.tail[:n]...)
	e.Received = append(e.Received, data...)
	e.ProcessCalls = append(e.ProcessCalls, n)
	if e.OnProcess != nil {
		e.OnProcess(e, data)
	}
	return e.ProcessErr
}

// CloseTail implements api.Engine.
func (e *Engine) CloseTail() { e.TailCloses++ }

// Pending implements api.Engine.
func (e *Engine) Pending() int {
	if e.HeadCloses > 0 {
		return -1
	}
	return len(e.Out)
}

// Head implements api.Engine.
func (e *Engine) Head() []byte { return e.Out }

// Pop implements api.Engine.
func (e *Engine) Pop(n int) {
	e.PopCalls = append(e.PopCalls, n)
	if n > len(e.Out) {
		n = len(e.Out)
	}
	e.Out = e.Out[n:]
}

// CloseHead implements api.Engine.
func (e *Engine) CloseHead() { e.HeadCloses++ }

// RemoteClosed implements api.Engine.
func (e *Engine) RemoteClosed() bool { return e.Remote }

// Close implements api.Engine.
func (e *Engine) Close() error {
	e.Closes++
	e.Journal.Add("engine-close %d", e.ID)
	return nil
}

// Raise puts a named event on the engine's queue.
func (e *Engine) Raise(name string, cat api.EventCategory) {
	e.Events.Put(Event{Name: name, Cat: cat})
}

// Queue appends outgoing bytes.
func (e *Engine) Queue(data []byte) {
	e.Out = append(e.Out, data...)
}

// PoppedTotal sums the bytes passed to Pop.
func (e *Engine) PoppedTotal() int {
	total := 0
	for _, n := range e.PopCalls {
		total += n
	}
	return total
}

// EngineFactory creates Engines and remembers them in order.
type EngineFactory struct {
	Engines []*Engine
	Journal *Journal
	// Setup configures each new engine before it is returned.
	Setup func(e *Engine)
	// Err fails creation when set.
	Err error
}

// New implements api.EngineFactory.
func (f *EngineFactory) New(events api.EventQueue) (api.Engine, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	e := &Engine{ID: len(f.Engines) + 1, Events: events, Journal: f.Journal}
	f.Journal.Add("engine-create %d", e.ID)
	if f.Setup != nil {
		f.Setup(e)
	}
	f.Engines = append(f.Engines, e)
	return e, nil
}

// Last returns the most recently created engine.
func (f *EngineFactory) Last() *Engine {
	if len(f.Engines) == 0 {
		return nil
	}
	return f.Engines[len(f.Engines)-1]
}
