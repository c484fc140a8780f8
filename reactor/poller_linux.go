//go:build linux
// +build linux

// File: reactor/poller_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7) readiness facility. Each fd has one EPOLLONESHOT
// registration carrying the union of its armed directions; a delivery
// disables the fd in the kernel until the callback has run, after which the
// registration is restored from the current source state. Every
// registration carries a sequence number in the event data so that events
// harvested for a closed fd are not routed to a later socket reusing it.

package reactor

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-pump/api"
	"golang.org/x/sys/unix"
)

const maxEvents = 128

// Poller implements api.Readiness on top of epoll.
type Poller struct {
	epfd   int
	wakefd int
	logger *log.Logger

	mu      sync.Mutex
	regs    map[int]*registration
	nextSeq uint32
	closed  bool

	running atomic.Bool
	done    chan struct{}
}

// registration is the kernel-side state of one fd.
type registration struct {
	fd      int
	seq     uint32
	sources [2]*source
	added   bool
}

type source struct {
	p       *Poller
	reg     *registration
	dir     api.Direction
	exec    api.Executor
	handler func()

	armed     bool
	inflight  bool
	cancelled bool
}

// NewPoller creates an epoll instance. Run must be called to deliver events.
func NewPoller(logger *log.Logger) (*Poller, error) {
	if logger == nil {
		logger = log.Default()
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add wakefd: %w", err)
	}
	return &Poller{
		epfd:   epfd,
		wakefd: wakefd,
		logger: logger,
		regs:   make(map[int]*registration),
		done:   make(chan struct{}),
	}, nil
}

// NewSource implements api.Readiness.
func (p *Poller) NewSource(fd int, dir api.Direction, exec api.Executor, handler func()) (api.ReadinessSource, error) {
	if fd < 0 || dir > api.DirWrite || exec == nil || handler == nil {
		return nil, api.ErrInvalidArgument
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPollerClosed
	}
	reg, ok := p.regs[fd]
	if !ok {
		p.nextSeq++
		reg = &registration{fd: fd, seq: p.nextSeq}
	} else if reg.sources[dir] != nil {
		return nil, fmt.Errorf("%w: fd %d %s", ErrSourceExists, fd, dir)
	}
	s := &source{p: p, reg: reg, dir: dir, exec: exec, handler: handler, armed: true}
	reg.sources[dir] = s
	if err := p.syncLocked(reg); err != nil {
		reg.sources[dir] = nil
		return nil, err
	}
	p.regs[fd] = reg
	return s, nil
}

// mask returns the epoll interest for directions that are armed and not
// waiting for their callback to finish.
func (r *registration) mask() uint32 {
	var m uint32
	for dir, s := range r.sources {
		if s == nil || !s.armed || s.inflight {
			continue
		}
		if api.Direction(dir) == api.DirRead {
			m |= unix.EPOLLIN | unix.EPOLLRDHUP
		} else {
			m |= unix.EPOLLOUT
		}
	}
	return m
}

// syncLocked pushes reg's interest to the kernel. An fd with no interest is
// removed from the epoll set so hang-up conditions cannot wake the loop.
func (p *Poller) syncLocked(reg *registration) error {
	if p.closed {
		return nil
	}
	m := reg.mask()
	if m == 0 {
		if !reg.added {
			return nil
		}
		reg.added = false
		if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, reg.fd, nil); err != nil && err != unix.ENOENT && err != unix.EBADF {
			return fmt.Errorf("epoll ctl del: %w", err)
		}
		return nil
	}
	ev := unix.EpollEvent{Events: m | unix.EPOLLONESHOT, Fd: int32(reg.fd), Pad: int32(reg.seq)}
	op := unix.EPOLL_CTL_MOD
	if !reg.added {
		op = unix.EPOLL_CTL_ADD
	}
	err := unix.EpollCtl(p.epfd, op, reg.fd, &ev)
	if err == unix.ENOENT && op == unix.EPOLL_CTL_MOD {
		// fd was closed and reopened behind our back
		err = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, reg.fd, &ev)
	}
	if err != nil {
		return fmt.Errorf("epoll ctl: %w", err)
	}
	reg.added = true
	return nil
}

// Run polls until ctx is done or Close is called.
func (p *Poller) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrPollerRunning
	}
	defer close(p.done)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			p.wake()
		case <-stop:
		}
	}()

	events := make([]unix.EpollEvent, maxEvents)
	for {
		if p.isClosed() || ctx.Err() != nil {
			return nil
		}
		n, err := unix.EpollWait(p.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("epoll wait: %w", err)
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == p.wakefd {
				p.drainWake()
				continue
			}
			p.dispatch(fd, uint32(events[i].Pad), events[i].Events)
		}
	}
}

// dispatch routes one harvested event. An event whose sequence does not
// match the current registration belongs to an fd that was cancelled and
// closed after EpollWait returned.
func (p *Poller) dispatch(fd int, seq uint32, events uint32) {
	p.mu.Lock()
	reg, ok := p.regs[fd]
	if !ok || reg.seq != seq {
		p.mu.Unlock()
		return
	}
	failed := events&(unix.EPOLLERR|unix.EPOLLHUP) != 0
	var ready []*source
	for dir, s := range reg.sources {
		if s == nil || !s.armed || s.inflight {
			continue
		}
		hit := failed
		if api.Direction(dir) == api.DirRead {
			hit = hit || events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0
		} else {
			hit = hit || events&unix.EPOLLOUT != 0
		}
		if hit {
			s.inflight = true
			ready = append(ready, s)
		}
	}
	if err := p.syncLocked(reg); err != nil {
		p.logger.Printf("[Poller] rearm fd=%d: %v", fd, err)
	}
	p.mu.Unlock()

	for _, s := range ready {
		s.deliver()
	}
}

func (s *source) deliver() {
	err := s.exec.Submit(func() {
		s.p.mu.Lock()
		cancelled := s.cancelled
		s.p.mu.Unlock()
		if !cancelled {
			s.handler()
		}
		s.complete()
	})
	if err != nil {
		s.p.logger.Printf("[Poller] fd=%d %s: submit: %v; source disarmed", s.reg.fd, s.dir, err)
		s.p.mu.Lock()
		s.inflight = false
		s.armed = false
		if !s.cancelled {
			if err := s.p.syncLocked(s.reg); err != nil {
				s.p.logger.Printf("[Poller] fd=%d: %v", s.reg.fd, err)
			}
		}
		s.p.mu.Unlock()
	}
}

func (s *source) complete() {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.inflight = false
	if s.cancelled {
		return
	}
	if err := s.p.syncLocked(s.reg); err != nil {
		s.p.logger.Printf("[Poller] rearm fd=%d: %v", s.reg.fd, err)
	}
}

// Resume arms the source. No-op when already armed or cancelled.
func (s *source) Resume() {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.cancelled || s.armed {
		return
	}
	s.armed = true
	if err := s.p.syncLocked(s.reg); err != nil {
		s.p.logger.Printf("[Poller] resume fd=%d %s: %v", s.reg.fd, s.dir, err)
	}
}

// Suspend disarms the source. No-op when already suspended or cancelled.
func (s *source) Suspend() {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.cancelled || !s.armed {
		return
	}
	s.armed = false
	if err := s.p.syncLocked(s.reg); err != nil {
		s.p.logger.Printf("[Poller] suspend fd=%d %s: %v", s.reg.fd, s.dir, err)
	}
}

// Cancel detaches the source. The fd leaves the epoll set once both of its
// directions are cancelled, so callers must cancel before closing the fd.
func (s *source) Cancel() {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.cancelled {
		return
	}
	s.cancelled = true
	s.armed = false
	reg := s.reg
	reg.sources[s.dir] = nil
	if err := s.p.syncLocked(reg); err != nil {
		s.p.logger.Printf("[Poller] cancel fd=%d %s: %v", reg.fd, s.dir, err)
	}
	if reg.sources[api.DirRead] == nil && reg.sources[api.DirWrite] == nil {
		if cur, ok := s.p.regs[reg.fd]; ok && cur == reg {
			delete(s.p.regs, reg.fd)
		}
	}
}

// Registered returns the number of fds with at least one live source.
func (p *Poller) Registered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.regs)
}

func (p *Poller) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Poller) wake() {
	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], 1)
	if _, err := unix.Write(p.wakefd, b[:]); err != nil && err != unix.EAGAIN {
		p.logger.Printf("[Poller] wake: %v", err)
	}
}

func (p *Poller) drainWake() {
	var b [8]byte
	_, _ = unix.Read(p.wakefd, b[:])
}

// Close stops Run and releases the epoll instance. Sources still attached
// stop receiving callbacks.
func (p *Poller) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPollerClosed
	}
	p.closed = true
	p.mu.Unlock()

	p.wake()
	if p.running.Load() {
		<-p.done
	}
	_ = unix.Close(p.wakefd)
	return unix.Close(p.epfd)
}

var _ api.Readiness = (*Poller)(nil)
