// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"code.hybscloud.com/iox"
	"github.com/momentics/hioload-pump/api"
)

// Socket implements api.Socket over in-memory buffers.
type Socket struct {
	FD      int
	Journal *Journal

	// Inbound is returned by Read; once empty Read would block, or reports
	// end of stream when EOF is set.
	Inbound []byte
	EOF     bool
	// ReadErr, when set, is returned by Read once Inbound is empty.
	ReadErr error
	// MaxWrite caps bytes accepted per Write; 0 accepts everything.
	MaxWrite int
	// WriteErr is returned by Write when set.
	WriteErr error
	// WriteBlocked makes Write report would-block.
	WriteBlocked bool
	// PendingErr is returned by Err.
	PendingErr error

	Written    []byte
	ReadCalls  int
	WriteCalls int
	Closes     int
}

// Read implements api.Socket.
func (s *Socket) Read(buf []byte) (int, error) {
	s.ReadCalls++
	if len(s.Inbound) > 0 {
		n := copy(buf, s.Inbound)
		s.Inbound = s.Inbound[n:]
		return n, nil
	}
	if s.ReadErr != nil {
		return 0, s.ReadErr
	}
	if s.EOF {
		return 0, nil
	}
	return 0, iox.ErrWouldBlock
}

// Write implements api.Socket.
func (s *Socket) Write(buf []byte) (int, error) {
	s.WriteCalls++
	if s.WriteErr != nil {
		return 0, s.WriteErr
	}
	if s.WriteBlocked {
		return 0, iox.ErrWouldBlock
	}
	n := len(buf)
	if s.MaxWrite > 0 && n > s.MaxWrite {
		n = s.MaxWrite
	}
	s.Written = append(s.Written, buf[:n]...)
	return n, nil
}

// Err implements api.Socket.
func (s *Socket) Err() error { return s.PendingErr }

// Fd implements api.Socket.
func (s *Socket) Fd() int { return s.FD }

// Close implements api.Socket.
func (s *Socket) Close() error {
	s.Closes++
	s.Journal.Add("socket-close %d", s.FD)
	return nil
}

// Dialer implements api.Dialer, handing out fresh Sockets.
type Dialer struct {
	Sockets []*Socket
	Journal *Journal
	// Err fails Dial when set.
	Err error
	// Setup configures each new socket.
	Setup func(s *Socket)
	// Hosts records every Dial target.
	Hosts []string
}

// Dial implements api.Dialer.
func (d *Dialer) Dial(host, port string) (api.Socket, error) {
	d.Hosts = append(d.Hosts, host+":"+port)
	if d.Err != nil {
		return nil, d.Err
	}
	s := &Socket{FD: 100 + len(d.Sockets), Journal: d.Journal}
	d.Journal.Add("dial %d", s.FD)
	if d.Setup != nil {
		d.Setup(s)
	}
	d.Sockets = append(d.Sockets, s)
	return s, nil
}

// Last returns the most recently dialed socket.
func (d *Dialer) Last() *Socket {
	if len(d.Sockets) == 0 {
		return nil
	}
	return d.Sockets[len(d.Sockets)-1]
}
