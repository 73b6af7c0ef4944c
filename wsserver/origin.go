package wsserver

import (
	"net/http"

	"github.com/sta/websocket-sharp-sub008/muxhandlers"
)

// originAllowlist adapts a CORS-style origin allowlist (see
// muxhandlers.CORSConfig.AllowedOrigins) into a websocket.Upgrader
// CheckOrigin predicate, since RFC 6455 requires the server to validate
// the handshake's Origin header (spec.md §4.3) the same way a CORS
// preflight validates one, minus the rest of the CORS response-header
// dance, which doesn't apply to a protocol switch. The matching algorithm
// itself is muxhandlers.MatchOrigin, shared with CORSMiddleware rather
// than reimplemented here.
func originAllowlist(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return muxhandlers.MatchOrigin(origins, origin)
	}
}
