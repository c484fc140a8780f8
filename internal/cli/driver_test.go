package cli

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/momentics/hioload-pump/api"
	"github.com/momentics/hioload-pump/control"
	"github.com/momentics/hioload-pump/fake"
	"github.com/momentics/hioload-pump/pump"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type driverHarness struct {
	t      *testing.T
	d      *Driver
	exec   *fake.Executor
	rd     *fake.Readiness
	dialer *fake.Dialer
	logs   *bytes.Buffer
	timers []func()
	waits  []time.Duration
}

func newDriverHarness(t *testing.T, cfg *control.Config, setupSocket func(*fake.Socket)) *driverHarness {
	t.Helper()
	h := &driverHarness{
		t:      t,
		exec:   fake.NewExecutor(),
		rd:     &fake.Readiness{},
		dialer: &fake.Dialer{Setup: setupSocket},
		logs:   &bytes.Buffer{},
	}
	d, err := NewDriver(cfg, log.New(h.logs, "", 0),
		pump.WithDialer(h.dialer),
		pump.WithReadiness(h.rd),
		pump.WithExecutor(h.exec),
	)
	require.NoError(t, err)
	d.after = func(dur time.Duration, f func()) {
		h.waits = append(h.waits, dur)
		h.timers = append(h.timers, f)
	}
	h.d = d
	return h
}

func testConfig() *control.Config {
	cfg := control.DefaultConfig()
	cfg.Name = "tester"
	cfg.Reconnect.Min = time.Millisecond
	cfg.Reconnect.Max = 4 * time.Millisecond
	return cfg
}

// established runs the connect task and completes the connect.
func (h *driverHarness) established() {
	h.t.Helper()
	h.exec.Drain()
	ws := h.rd.Latest(api.DirWrite)
	require.NotNil(h.t, ws)
	require.True(h.t, ws.Fire())
	h.exec.Drain()
}

// receive delivers inbound bytes on the current socket.
func (h *driverHarness) receive(data string) {
	h.t.Helper()
	h.dialer.Last().Inbound = append(h.dialer.Last().Inbound, data...)
	require.True(h.t, h.rd.Latest(api.DirRead).Fire())
	h.exec.Drain()
}

// fireTimer runs the oldest pending reconnect timer.
func (h *driverHarness) fireTimer() {
	h.t.Helper()
	require.NotEmpty(h.t, h.timers)
	f := h.timers[0]
	h.timers = h.timers[1:]
	f()
	h.exec.Drain()
}

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestDriver_GreetsAndAnswersHello(t *testing.T) {
	h := newDriverHarness(t, testConfig(), nil)
	require.NoError(t, h.d.Start())
	h.established()

	sock := h.dialer.Last()
	assert.Equal(t, "HELLO tester\n", string(sock.Written))
	assert.Equal(t, []string{"localhost:8194"}, h.dialer.Hosts)

	h.receive("HELLO server\n")
	assert.Equal(t, "HELLO tester\ngreetings from tester\n", string(sock.Written))
	assert.Contains(t, h.logs.String(), "connection event connection_remote_open server")
	assert.Equal(t, uint64(2), h.d.Metrics().Get("events.connection"), "local and remote open")
}

func TestDriver_LogsDeliveriesWithTags(t *testing.T) {
	h := newDriverHarness(t, testConfig(), nil)
	require.NoError(t, h.d.Start())
	h.established()

	h.receive("first\nsecond\n")
	assert.Equal(t, uint64(2), h.d.Metrics().Get("deliveries"))
	assert.Contains(t, h.logs.String(), "delivery #1: first")
	assert.Contains(t, h.logs.String(), "delivery #2: second")
}

func TestDriver_TransportClosedWithoutReconnectFinishes(t *testing.T) {
	h := newDriverHarness(t, testConfig(), func(s *fake.Socket) { s.EOF = true })
	require.NoError(t, h.d.Start())
	h.established()

	assert.True(t, closed(h.d.Done()))
	assert.Empty(t, h.timers)
	assert.Equal(t, uint64(1), h.d.Metrics().Get("errors.connection aborted"))
}

func TestDriver_ReconnectsUntilAttemptsRunOut(t *testing.T) {
	cfg := testConfig()
	cfg.Reconnect.Enabled = true
	cfg.Reconnect.Attempts = 2
	h := newDriverHarness(t, cfg, func(s *fake.Socket) { s.EOF = true })
	require.NoError(t, h.d.Start())
	h.established()

	require.Len(t, h.timers, 1)
	assert.False(t, closed(h.d.Done()))
	h.fireTimer()
	h.established()
	assert.Len(t, h.dialer.Sockets, 2)

	require.Len(t, h.timers, 1)
	h.fireTimer()
	h.established()
	assert.Len(t, h.dialer.Sockets, 3)

	assert.Empty(t, h.timers)
	assert.True(t, closed(h.d.Done()))
	assert.Equal(t, uint64(2), h.d.Metrics().Get("reconnects"))
	assert.Contains(t, h.logs.String(), "Giving up")
	for _, w := range h.waits {
		assert.LessOrEqual(t, w, cfg.Reconnect.Max)
	}
}

func TestDriver_DialFailureIsRetried(t *testing.T) {
	cfg := testConfig()
	cfg.Reconnect.Enabled = true
	h := newDriverHarness(t, cfg, nil)
	h.dialer.Err = assert.AnError
	require.NoError(t, h.d.Start())
	h.exec.Drain()

	require.Len(t, h.timers, 1)
	assert.Equal(t, uint64(1), h.d.Metrics().Get("errors.connect failed"))

	h.dialer.Err = nil
	h.fireTimer()
	h.established()
	assert.Equal(t, "HELLO tester\n", string(h.dialer.Last().Written))
}

func TestDriver_AsyncConnectFailureRetriedOnce(t *testing.T) {
	cfg := testConfig()
	cfg.Reconnect.Enabled = true
	h := newDriverHarness(t, cfg, func(s *fake.Socket) { s.PendingErr = assert.AnError })
	require.NoError(t, h.d.Start())
	h.established()

	assert.Len(t, h.timers, 1)
}

func TestDriver_StopFlushesBye(t *testing.T) {
	h := newDriverHarness(t, testConfig(), nil)
	require.NoError(t, h.d.Start())
	h.established()

	require.NoError(t, h.d.Stop())
	require.NoError(t, h.d.Stop())
	h.exec.Drain()

	assert.True(t, strings.HasSuffix(string(h.dialer.Last().Written), "BYE\n"))
	assert.True(t, closed(h.d.Done()))
	assert.Empty(t, h.timers, "no reconnect while stopping")
}

func TestDriver_SummaryLogsSnapshot(t *testing.T) {
	h := newDriverHarness(t, testConfig(), nil)
	h.d.logSummary()
	assert.Contains(t, h.logs.String(), "[lpump] no counters recorded")

	require.NoError(t, h.d.Start())
	h.established()
	h.receive("HELLO peer\n")
	require.False(t, h.d.metrics.Updated().IsZero())

	h.logs.Reset()
	h.d.logSummary()
	out := h.logs.String()
	assert.Contains(t, out, "[lpump] counters as of ")
	snap := h.d.metrics.GetSnapshot()
	require.NotEmpty(t, snap)
	for k, v := range snap {
		assert.Contains(t, out, fmt.Sprintf("[lpump] %s=%d\n", k, v))
	}
}
