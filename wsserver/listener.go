package wsserver

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sta/websocket-sharp-sub008/mux"
	"github.com/sta/websocket-sharp-sub008/muxhandlers"
	"github.com/sta/websocket-sharp-sub008/websocket"
)

// handshakeReadTimeout bounds how long a client has to complete the HTTP
// request line and headers of the opening handshake, per spec.md §4.6
// step 1.
const handshakeReadTimeout = 90 * time.Second

// ErrAlreadyRegistered is returned by RegisterService for a path that
// already has a service bound to it.
var ErrAlreadyRegistered = errors.New("wsserver: service already registered")

// Options configures a Listener.
type Options struct {
	// Fallback handles any request whose path does not match a
	// registered service. Defaults to a 404 handler. This is the
	// "generic HTTP handler" external collaborator from spec.md's
	// Non-goals: static files, REST APIs, and so on live here.
	Fallback http.Handler

	// Logger receives transient accept-loop errors, matching
	// net/http.Server's own behavior of logging rather than crashing.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// AllowedOrigins, when non-empty, is consulted by every registered
	// service that doesn't set its own ServiceOptions.CheckOrigin. An
	// entry may be an exact origin ("https://example.com") or a
	// wildcard subdomain ("https://*.example.com", nested subdomains
	// included).
	AllowedOrigins []string

	// Hostname is reported via the X-Server-Hostname response header on
	// the fallback path, using muxhandlers.ServerMiddleware. Resolved
	// from os.Hostname when empty.
	Hostname string
}

// Listener accepts connections, performs the HTTP upgrade for registered
// WebSocket services, and dispatches everything else to Options.Fallback.
// It is spec.md §4.6's Listener/Dispatcher module.
type Listener struct {
	opts   Options
	router *mux.Router
	server *http.Server

	mu       sync.RWMutex
	services map[string]*service
}

// New returns a ready Listener. Call RegisterService for each WebSocket
// path before ListenAndServe.
func New(opts Options) (*Listener, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	router := mux.NewRouter()
	if opts.Fallback != nil {
		router.NotFoundHandler = opts.Fallback
	}

	recovery := muxhandlers.RecoveryMiddleware(muxhandlers.RecoveryConfig{
		LogFunc: func(r *http.Request, err any) {
			opts.Logger.Error("panic handling request", "path", r.URL.Path, "panic", err)
		},
	})
	security, err := muxhandlers.SecurityHeadersMiddleware(muxhandlers.SecurityHeadersConfig{})
	if err != nil {
		return nil, err
	}
	serverHdr, err := muxhandlers.ServerMiddleware(muxhandlers.ServerConfig{Hostname: opts.Hostname})
	if err != nil {
		return nil, err
	}
	requestID := muxhandlers.RequestIDMiddleware(muxhandlers.RequestIDConfig{})
	router.Use(recovery, security, serverHdr, requestID)

	l := &Listener{
		opts:     opts,
		router:   router,
		services: make(map[string]*service),
	}
	l.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: handshakeReadTimeout,
	}
	return l, nil
}

// RegisterService binds path to factory: every handshake request whose
// URL path (after trimming a trailing slash) equals path is upgraded and
// handed a Behavior built by factory, per spec.md §4.6 steps 2-4.
func (l *Listener) RegisterService(path string, factory BehaviorFactory, opts ServiceOptions) error {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}

	if opts.CheckOrigin == nil && len(l.opts.AllowedOrigins) > 0 {
		opts.CheckOrigin = originAllowlist(l.opts.AllowedOrigins)
	}

	l.mu.Lock()
	if _, exists := l.services[path]; exists {
		l.mu.Unlock()
		return ErrAlreadyRegistered
	}
	sv := newService(path, factory, opts)
	l.services[path] = sv
	l.mu.Unlock()

	l.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if !websocket.IsWebSocketUpgrade(r) {
			http.Error(w, "websocket upgrade required", http.StatusUpgradeRequired)
			return
		}
		sv.handle(w, r)
	})
	return nil
}

// ListenAndServe accepts connections on addr and serves them until Stop is
// called or an unrecoverable accept error occurs.
func (l *Listener) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return l.Serve(ln)
}

// ListenAndServeTLS is like ListenAndServe, but additionally accepts a
// certificate and key file for a TLS listener. Wrapping the listener in
// TLS is the only TLS concern this package takes on (spec.md's Non-goals
// exclude cipher/cert internals beyond "wrap the stream").
func (l *Listener) ListenAndServeTLS(addr, certFile, keyFile string) error {
	l.server.Addr = addr
	err := l.server.ListenAndServeTLS(certFile, keyFile)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Serve accepts connections on ln, an already-constructed net.Listener
// (including a tls.NewListener-wrapped one), and serves them until Stop is
// called.
func (l *Listener) Serve(ln net.Listener) error {
	err := l.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Broadcast sends a message to every session currently connected to the
// service registered at path, per spec.md §4.5.
func (l *Listener) Broadcast(path string, messageType int, data []byte) error {
	l.mu.RLock()
	sv, ok := l.services[strings.TrimSuffix(path, "/")]
	l.mu.RUnlock()
	if !ok {
		return websocket.ErrUnknownService
	}
	return sv.manager.Broadcast(messageType, data)
}

// Broadping pings every session currently connected to the service
// registered at path, reporting per-session ID whether its Pong arrived in
// time, per spec.md §4.5.
func (l *Listener) Broadping(path string, data []byte) (map[string]bool, error) {
	l.mu.RLock()
	sv, ok := l.services[strings.TrimSuffix(path, "/")]
	l.mu.RUnlock()
	if !ok {
		return nil, websocket.ErrUnknownService
	}
	return sv.manager.Broadping(data), nil
}

// Stop closes every registered service's sessions with the given close
// code and reason, then closes the embedded HTTP server with
// http.Server.Close, which does not wait for in-flight requests.
func (l *Listener) Stop(code int, reason string) error {
	l.mu.RLock()
	services := make([]*service, 0, len(l.services))
	for _, sv := range l.services {
		services = append(services, sv)
	}
	l.mu.RUnlock()

	for _, sv := range services {
		sv.Stop(code, reason)
	}

	return l.server.Close()
}
