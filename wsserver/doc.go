// Package wsserver is the Listener/Dispatcher that turns the websocket
// package's connection primitives into a multi-service server: it accepts
// TCP (or TLS) connections, performs the HTTP routing needed to tell a
// WebSocket handshake apart from everything else an embedded HTTP server
// might receive, and owns each registered service's SessionManager.
//
// A Listener is built with New, populated with RegisterService calls (one
// per path, each with its own BehaviorFactory and ServiceOptions), and run
// with ListenAndServe or Serve:
//
//	l, err := wsserver.New(wsserver.Options{})
//	l.RegisterService("/chat", chatBehaviorFactory, wsserver.ServiceOptions{
//	    KeepClean: true,
//	    WaitTime:  30 * time.Second,
//	})
//	log.Fatal(l.ListenAndServe(":8080"))
//
// Requests whose path doesn't match a registered service fall through to
// Options.Fallback, or a 404 if none is set. Routing, request-ID
// propagation, recovery from panics, and security headers on that
// fallback path are provided by the mux and muxhandlers packages.
//
// LoadConfig reads a YAML file declaring a Listener's addr and services
// for deployments that prefer static configuration over Go code; it
// cannot express BehaviorFactory, so callers still provide that in code.
package wsserver
