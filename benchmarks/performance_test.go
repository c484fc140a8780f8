// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for hioload-pump components.

package benchmarks

import (
	"sync"
	"testing"

	"github.com/momentics/hioload-pump/api"
	"github.com/momentics/hioload-pump/fake"
	"github.com/momentics/hioload-pump/internal/concurrency"
	"github.com/momentics/hioload-pump/protocol"
	"github.com/momentics/hioload-pump/pump"
)

// BenchmarkSerialQueueSubmit measures task hand-off through the serial queue.
func BenchmarkSerialQueueSubmit(b *testing.B) {
	q := concurrency.NewSerialQueue("bench", nil)
	defer q.Close()

	var wg sync.WaitGroup
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			wg.Add(1)
			if err := q.Submit(wg.Done); err != nil {
				b.Error(err)
				wg.Done()
			}
		}
	})
	wg.Wait()
}

// BenchmarkCollector measures event queue put/peek/pop.
func BenchmarkCollector(b *testing.B) {
	c := pump.NewCollector()
	ev := fake.Event{Name: "bench", Cat: api.CategoryDelivery}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Put(ev)
		_ = c.Peek()
		c.Pop()
	}
}

// BenchmarkEngineLines measures line parsing in the protocol engine.
func BenchmarkEngineLines(b *testing.B) {
	events := pump.NewCollector()
	eng := protocol.New(events, protocol.Config{Name: "bench"})
	defer eng.Close()
	chunk := []byte("delivery payload line\n")

	b.SetBytes(int64(len(chunk)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := copy(eng.Tail(), chunk)
		if err := eng.Process(n); err != nil {
			b.Fatal(err)
		}
		events.Pop()
	}
}

// BenchmarkPumpCycle measures one readiness-driven cycle moving a request
// in and a reply out through fake collaborators.
func BenchmarkPumpCycle(b *testing.B) {
	exec := fake.NewExecutor()
	rd := &fake.Readiness{}
	dialer := &fake.Dialer{}
	conn, err := pump.New(func(c *pump.Connection, events api.EventQueue) {
		if ev, ok := events.Peek().(protocol.Event); ok && ev.Type == protocol.Delivery {
			_ = c.Engine().(*protocol.Engine).Send("ack")
		}
	},
		pump.WithEngineFactory(protocol.Factory(protocol.Config{Name: "bench"})),
		pump.WithDialer(dialer),
		pump.WithReadiness(rd),
		pump.WithExecutor(exec),
	)
	if err != nil {
		b.Fatal(err)
	}
	if err := conn.Connect("bench", "1"); err != nil {
		b.Fatal(err)
	}
	exec.Drain()
	rd.Latest(api.DirWrite).Fire()
	exec.Drain()

	sock := dialer.Last()
	rs := rd.Latest(api.DirRead)
	request := []byte("request\n")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sock.Inbound = request
		rs.Fire()
		exec.Drain()
		sock.Written = sock.Written[:0]
	}
}
