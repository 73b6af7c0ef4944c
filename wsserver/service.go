package wsserver

import (
	"net/http"
	"time"

	"github.com/sta/websocket-sharp-sub008/websocket"
)

// BehaviorFactory constructs a fresh Behavior for one incoming connection
// to a registered service. It receives the upgrade request so the
// Behavior can read path/query parameters, headers, or a credential
// resolved during the handshake.
type BehaviorFactory func(r *http.Request) websocket.Behavior

// ServiceOptions configures one registered service's handshake and session
// behavior. Zero values match spec.md's stated defaults.
type ServiceOptions struct {
	// Subprotocols lists the service's supported subprotocols, in order
	// of preference.
	Subprotocols []string

	// EnableCompression negotiates permessage-deflate (RFC 7692) when the
	// client offers it.
	EnableCompression bool

	// CheckOrigin validates the handshake's Origin header. Defaults to
	// same-origin when nil, matching websocket.Upgrader's own default.
	CheckOrigin func(r *http.Request) bool

	// CheckCredentials authorizes the handshake request. Defaults to
	// "allow" when nil.
	CheckCredentials func(r *http.Request) bool

	// CloseTimeout is each session's Conn.SetCloseTimeout: the write
	// deadline of its Close and default control replies, and how long
	// Shutdown waits for the peer's Close echo. Broadping waits WaitTime
	// instead. Defaults to one second (spec.md §3).
	CloseTimeout time.Duration

	// KeepClean enables the idle-session sweep for this service.
	KeepClean bool

	// WaitTime is the idle threshold (and sweep interval) used when
	// KeepClean is set. Defaults to 60s.
	WaitTime time.Duration

	// ReadBufferSize and WriteBufferSize size the per-connection I/O
	// buffers. Zero uses websocket's package defaults.
	ReadBufferSize  int
	WriteBufferSize int
}

// service bundles a registered path with everything needed to accept and
// drive its connections.
type service struct {
	path    string
	factory BehaviorFactory
	opts    ServiceOptions

	upgrader *websocket.Upgrader
	manager  *websocket.SessionManager
}

func newService(path string, factory BehaviorFactory, opts ServiceOptions) *service {
	mgr := websocket.NewSessionManager(path, websocket.SessionManagerOptions{
		KeepClean: opts.KeepClean,
		WaitTime:  opts.WaitTime,
	})
	mgr.Start()

	return &service{
		path:    path,
		factory: factory,
		opts:    opts,
		upgrader: &websocket.Upgrader{
			Subprotocols:      opts.Subprotocols,
			EnableCompression: opts.EnableCompression,
			CheckOrigin:       opts.CheckOrigin,
			CheckCredentials:  opts.CheckCredentials,
			ReadBufferSize:    opts.ReadBufferSize,
			WriteBufferSize:   opts.WriteBufferSize,
		},
		manager: mgr,
	}
}

// handle performs the upgrade and, on success, drives the resulting
// session to completion on the calling goroutine (net/http already gives
// each request its own goroutine, matching spec.md §4.6's one-goroutine
// per connection model).
func (sv *service) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := sv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	timeout := sv.opts.CloseTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	conn.SetCloseTimeout(timeout)

	behavior := sv.factory(r)
	session := sv.manager.NewSession(conn, behavior)
	session.Serve()
}

// Stop closes every session of this service and stops its Sweep loop.
func (sv *service) Stop(code int, reason string) {
	sv.manager.Stop(code, reason)
}
