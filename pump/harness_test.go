package pump

import (
	"testing"

	"github.com/momentics/hioload-pump/api"
	"github.com/momentics/hioload-pump/fake"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t       *testing.T
	exec    *fake.Executor
	rd      *fake.Readiness
	dialer  *fake.Dialer
	engines *fake.EngineFactory
	journal *fake.Journal
	conn    *Connection
	errs    []error
	seen    []string
}

func newHarness(t *testing.T, setupEngine func(*fake.Engine), setupSocket func(*fake.Socket)) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		exec:    fake.NewExecutor(),
		rd:      &fake.Readiness{},
		journal: &fake.Journal{},
	}
	h.dialer = &fake.Dialer{Journal: h.journal, Setup: setupSocket}
	h.engines = &fake.EngineFactory{Journal: h.journal, Setup: setupEngine}
	conn, err := New(h.record,
		WithEngineFactory(h.engines.New),
		WithDialer(h.dialer),
		WithReadiness(h.rd),
		WithExecutor(h.exec),
		WithErrorReporter(func(_ *Connection, err error) { h.errs = append(h.errs, err) }),
	)
	require.NoError(t, err)
	h.conn = conn
	return h
}

func (h *harness) record(_ *Connection, events api.EventQueue) {
	h.seen = append(h.seen, events.Peek().String())
}

// connect schedules a connect and runs the reconnect task.
func (h *harness) connect() {
	h.t.Helper()
	require.NoError(h.t, h.conn.Connect("broker", "5672"))
	h.exec.Drain()
}

// established connects and delivers the first writability notification.
func (h *harness) established() {
	h.t.Helper()
	h.connect()
	require.True(h.t, h.writeSrc().Fire(), "write source must be armed while connecting")
	h.exec.Drain()
	require.False(h.t, h.conn.connecting)
}

// cycle runs one pump cycle through an injected task.
func (h *harness) cycle() {
	h.t.Helper()
	require.NoError(h.t, h.conn.Execute(func() {}))
	h.exec.Drain()
}

func (h *harness) readSrc() *fake.Source  { return h.rd.Latest(api.DirRead) }
func (h *harness) writeSrc() *fake.Source { return h.rd.Latest(api.DirWrite) }
func (h *harness) engine() *fake.Engine   { return h.engines.Last() }
func (h *harness) socket() *fake.Socket   { return h.dialer.Last() }

func (h *harness) codes() []api.ErrorCode {
	var out []api.ErrorCode
	for _, err := range h.errs {
		out = append(out, api.CodeOf(err))
	}
	return out
}
