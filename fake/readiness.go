// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import "github.com/momentics/hioload-pump/api"

// Source is a recording api.ReadinessSource.
type Source struct {
	FD        int
	Dir       api.Direction
	Armed     bool
	Cancelled bool
	Resumes   int
	Suspends  int

	exec    api.Executor
	handler func()
}

// Resume implements api.ReadinessSource.
func (s *Source) Resume() {
	if s.Cancelled {
		return
	}
	s.Resumes++
	s.Armed = true
}

// Suspend implements api.ReadinessSource.
func (s *Source) Suspend() {
	if s.Cancelled {
		return
	}
	s.Suspends++
	s.Armed = false
}

// Cancel implements api.ReadinessSource.
func (s *Source) Cancel() {
	s.Cancelled = true
	s.Armed = false
}

// Fire schedules the callback the way a real facility would: only while
// armed and not cancelled. It reports whether a callback was scheduled.
func (s *Source) Fire() bool {
	if !s.Armed || s.Cancelled {
		return false
	}
	return s.exec.Submit(s.handler) == nil
}

// Deliver schedules the callback unconditionally, simulating one that was
// already queued when the source was cancelled.
func (s *Source) Deliver() {
	_ = s.exec.Submit(s.handler)
}

// Toggles returns the number of Resume and Suspend calls.
func (s *Source) Toggles() int { return s.Resumes + s.Suspends }

// Readiness implements api.Readiness and remembers every source.
type Readiness struct {
	Sources []*Source
	// Err fails NewSource when set.
	Err error
}

// NewSource implements api.Readiness.
func (r *Readiness) NewSource(fd int, dir api.Direction, exec api.Executor, handler func()) (api.ReadinessSource, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	s := &Source{FD: fd, Dir: dir, Armed: true, exec: exec, handler: handler}
	r.Sources = append(r.Sources, s)
	return s, nil
}

// Latest returns the newest source for dir.
func (r *Readiness) Latest(dir api.Direction) *Source {
	for i := len(r.Sources) - 1; i >= 0; i-- {
		if r.Sources[i].Dir == dir {
			return r.Sources[i]
		}
	}
	return nil
}
