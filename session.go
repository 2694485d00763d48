package bytestreams

import (
	"net"
	"sync"
	"time"
)

// Session is an established bytestream. Reads and writes go to the
// remote party. Closing the session tears the socket down and frees
// the session ID for reuse.
type Session struct {
	conn    net.Conn
	id      string
	manager *Manager

	closeOnce sync.Once
	closeErr  error
}

func newSession(conn net.Conn, id string, m *Manager) *Session {
	return &Session{conn: conn, id: id, manager: m}
}

// ID returns the negotiated session ID.
func (s *Session) ID() string { return s.id }

func (s *Session) Read(p []byte) (int, error) { return s.conn.Read(p) }

func (s *Session) Write(p []byte) (int, error) { return s.conn.Write(p) }

// SetDeadline bounds pending and future reads and writes.
func (s *Session) SetDeadline(t time.Time) error { return s.conn.SetDeadline(t) }

// Close destroys the session. The session ID may be reused afterwards.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
		s.manager.releaseSession(s.id)
	})
	return s.closeErr
}
