package websocket

// Behavior is the application's callback set for one side of a connection
// managed by a Session. A Behavior instance is bound to exactly one Session
// for its whole lifetime; a service's BehaviorFactory (see the wsserver
// package) constructs a fresh one per incoming connection, mirroring the
// teacher's per-connection Upgrader/Dialer usage.
type Behavior interface {
	// OnOpen is called once the Session is registered with its
	// SessionManager and ready to send and receive.
	OnOpen(s *Session)

	// OnMessage is called for each complete application message:
	// messageType is TextMessage or BinaryMessage, mirroring
	// Conn.ReadMessage.
	OnMessage(s *Session, messageType int, data []byte)

	// OnError is called for a non-close read or dispatch error. The
	// Session's receive loop exits immediately afterward.
	OnError(s *Session, err error)

	// OnClose is called once after the Session is removed from its
	// SessionManager, whether the close was initiated locally, by the
	// peer, or by a read error. code/reason reflect the close that was
	// sent or observed.
	OnClose(s *Session, code int, reason string)
}

// BaseBehavior is embeddable in a concrete Behavior to get no-op defaults
// for the hooks a particular service doesn't care about.
type BaseBehavior struct{}

func (BaseBehavior) OnOpen(*Session)                {}
func (BaseBehavior) OnMessage(*Session, int, []byte) {}
func (BaseBehavior) OnError(*Session, error)         {}
func (BaseBehavior) OnClose(*Session, int, string)   {}
