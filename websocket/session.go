package websocket

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// NewSessionID returns a fresh session identifier: 32 lowercase hex
// characters derived from a random UUID, per spec.md §4.5.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Session binds a Conn to the Behavior that drives it and the service name
// it belongs to. It is the unit of membership a SessionManager tracks.
type Session struct {
	ID      string
	Service string

	Conn     *Conn
	Behavior Behavior

	manager *SessionManager
}

// newSession wraps conn for service, assigning it a fresh ID.
func newSession(service string, conn *Conn, behavior Behavior, mgr *SessionManager) *Session {
	return &Session{
		ID:       NewSessionID(),
		Service:  service,
		Conn:     conn,
		Behavior: behavior,
		manager:  mgr,
	}
}

// Serve is the single receive driver for the session: it owns all frame
// reads for s.Conn, dispatching Behavior.OnMessage for each complete
// message and exiting on the first read error (spec.md §4.4's "the
// receive driver is the one task per connection that owns frame reads").
// It registers the session with its manager before calling OnOpen, and
// unregisters it before calling OnClose, so a concurrent Broadcast never
// observes a session that hasn't been opened or has already closed.
func (s *Session) Serve() {
	s.manager.add(s)
	s.Behavior.OnOpen(s)

	var closeErr *CloseError
	for {
		messageType, data, err := s.Conn.ReadMessage()
		if err != nil {
			if !errors.As(err, &closeErr) {
				closeErr = &CloseError{Code: closeCodeForError(err), Text: err.Error()}
				s.Behavior.OnError(s, err)
			}
			break
		}
		s.Behavior.OnMessage(s, messageType, data)
	}

	s.manager.remove(s)
	_ = s.Conn.Close()
	s.Behavior.OnClose(s, closeErr.Code, closeErr.Text)
}

// LastActivity reports the unix-nanosecond timestamp of the session's most
// recent successful frame read, consulted by SessionManager.Sweep.
func (s *Session) LastActivity() int64 {
	return s.Conn.lastActivity.Load()
}
