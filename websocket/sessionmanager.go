package websocket

import (
	"sync"
	"time"
)

// ManagerState is the lifecycle state of a SessionManager, per spec.md §4.5.
type ManagerState int

const (
	// ManagerReady is the state before Start is called: Add/Remove work,
	// but no Sweep loop runs yet.
	ManagerReady ManagerState = iota
	// ManagerStarted means the Sweep loop (if configured) is running.
	ManagerStarted
	// ManagerShuttingDown means Stop has been called and is closing
	// sessions; new sessions are rejected.
	ManagerShuttingDown
	// ManagerStopped is terminal.
	ManagerStopped
)

// SessionManagerOptions configures a SessionManager. Zero values are valid
// defaults (no sweeping).
type SessionManagerOptions struct {
	// KeepClean enables the idle-session Sweep loop.
	KeepClean bool
	// WaitTime is the idle threshold Sweep closes sessions past, and the
	// interval between sweeps. Defaults to 60s when KeepClean is set and
	// WaitTime is zero.
	WaitTime time.Duration
}

// SessionManager tracks every open Session for one registered service,
// fanning out Broadcast/Broadping and sweeping idle sessions. It
// generalizes the register/unregister/broadcast-over-a-guarded-map shape
// of a single-room client hub into a per-service manager with an explicit
// lifecycle and a last-activity sweep, per spec.md §4.5.
type SessionManager struct {
	service string
	opts    SessionManagerOptions

	mu       sync.RWMutex
	sessions map[string]*Session
	state    ManagerState

	stopSweep chan struct{}
	wg        sync.WaitGroup
}

// NewSessionManager returns a ready SessionManager for service.
func NewSessionManager(service string, opts SessionManagerOptions) *SessionManager {
	if opts.KeepClean && opts.WaitTime <= 0 {
		opts.WaitTime = 60 * time.Second
	}
	return &SessionManager{
		service:  service,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// NewSession binds conn and behavior into a Session owned by this manager,
// under the manager's service name. Call Session.Serve to register it and
// run its receive loop.
func (m *SessionManager) NewSession(conn *Conn, behavior Behavior) *Session {
	return newSession(m.service, conn, behavior, m)
}

// Start transitions the manager to ManagerStarted and, when KeepClean is
// configured, launches the Sweep loop in the background.
func (m *SessionManager) Start() {
	m.mu.Lock()
	if m.state != ManagerReady {
		m.mu.Unlock()
		return
	}
	m.state = ManagerStarted
	m.stopSweep = make(chan struct{})
	m.mu.Unlock()

	if m.opts.KeepClean {
		m.wg.Add(1)
		go m.sweepLoop()
	}
}

func (m *SessionManager) sweepLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.opts.WaitTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stopSweep:
			return
		}
	}
}

// add registers s with the manager. Called by Session.Serve before OnOpen.
func (m *SessionManager) add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == ManagerShuttingDown || m.state == ManagerStopped {
		return
	}
	m.sessions[s.ID] = s
}

// remove unregisters s. Called by Session.Serve after its receive loop
// exits, before OnClose.
func (m *SessionManager) remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, s.ID)
}

// Count returns the number of currently registered sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Get returns the session with the given ID, if still registered.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Broadcast sends a message to every registered session. The message is
// serialized (and, where negotiated, compressed) once via a PreparedMessage
// and fanned out, per spec.md §4.5's "share a single buffered source"
// requirement, generalized here from streamed broadcasts to every
// broadcast. A per-session write failure does not stop the fan-out; it
// lets that session's own receive driver discover the failure and close it.
func (m *SessionManager) Broadcast(messageType int, data []byte) error {
	pm, err := NewPreparedMessage(messageType, data)
	if err != nil {
		return err
	}

	m.mu.RLock()
	targets := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		targets = append(targets, s)
	}
	m.mu.RUnlock()

	for _, s := range targets {
		_ = s.Conn.WritePreparedMessage(pm)
	}
	return nil
}

// Broadping sends a Ping to every registered session and reports, per
// session ID, whether its Pong arrived within opts.WaitTime (5s if
// WaitTime is unset), per spec.md §4.5. Each session's Ping runs
// concurrently so one slow or unresponsive peer does not delay the
// others' results.
func (m *SessionManager) Broadping(data []byte) map[string]bool {
	wait := m.opts.WaitTime
	if wait <= 0 {
		wait = 5 * time.Second
	}

	m.mu.RLock()
	targets := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		targets = append(targets, s)
	}
	m.mu.RUnlock()

	results := make(map[string]bool, len(targets))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, s := range targets {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			ok, err := s.Conn.Ping(data, wait)
			mu.Lock()
			results[s.ID] = err == nil && ok
			mu.Unlock()
		}(s)
	}
	wg.Wait()
	return results
}

// Sweep starts the closing handshake for every session whose last
// successful read is older than opts.WaitTime. It is run periodically by
// Start when KeepClean is set, and may also be called directly. Like Stop,
// it only sends the Close frame: each session's own Serve loop is the sole
// reader of its connection, so the session's receive driver is what
// observes the peer's echo (or the read simply timing out) and tears the
// connection down, rather than Sweep racing that loop for the read lock.
func (m *SessionManager) Sweep() {
	cutoff := time.Now().Add(-m.opts.WaitTime).UnixNano()

	m.mu.RLock()
	var stale []*Session
	for _, s := range m.sessions {
		if s.LastActivity() < cutoff {
			stale = append(stale, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range stale {
		_ = s.Conn.CloseAsync(CloseGoingAway, "idle timeout")
	}
}

// Stop transitions the manager to ManagerShuttingDown, sends a Close frame
// to every registered session, stops the Sweep loop and waits for it to
// exit, then sleeps opts.WaitTime (5s if WaitTime is unset) before
// transitioning to ManagerStopped. It does not check whether peers have
// finished their close handshakes; each session's receive driver tears
// its own connection down once NextReader surfaces the CloseError.
func (m *SessionManager) Stop(code int, reason string) {
	m.mu.Lock()
	if m.state == ManagerShuttingDown || m.state == ManagerStopped {
		m.mu.Unlock()
		return
	}
	m.state = ManagerShuttingDown
	targets := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		targets = append(targets, s)
	}
	stopSweep := m.stopSweep
	m.mu.Unlock()

	for _, s := range targets {
		_ = s.Conn.CloseAsync(code, reason)
	}

	if stopSweep != nil {
		close(stopSweep)
	}
	m.wg.Wait()

	wait := m.opts.WaitTime
	if wait <= 0 {
		wait = 5 * time.Second
	}
	time.Sleep(wait)

	m.mu.Lock()
	m.state = ManagerStopped
	m.mu.Unlock()
}

// State returns the manager's current lifecycle state.
func (m *SessionManager) State() ManagerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}
