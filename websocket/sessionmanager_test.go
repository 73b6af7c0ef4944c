package websocket

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeSession spins up a server-side Session wired to a client-side Conn
// over a net.Pipe, and drives Session.Serve in the background.
func pipeSession(t *testing.T, mgr *SessionManager) (*Session, *recordingBehavior, *Conn) {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() { clientSide.Close() })

	serverConn := newConn(serverSide, true, 0, 0)
	clientConn := newConn(clientSide, false, 0, 0)

	behavior := newRecordingBehavior()
	session := mgr.NewSession(serverConn, behavior)
	go session.Serve()

	select {
	case <-behavior.openSig:
	case <-time.After(time.Second):
		t.Fatal("OnOpen not called")
	}
	return session, behavior, clientConn
}

func TestSessionManagerAddRemoveCount(t *testing.T) {
	mgr := NewSessionManager("/chat", SessionManagerOptions{})
	assert.Equal(t, 0, mgr.Count())

	_, _, _ = pipeSession(t, mgr)
	assert.Equal(t, 1, mgr.Count())

	_, _, _ = pipeSession(t, mgr)
	assert.Equal(t, 2, mgr.Count())
}

func TestSessionManagerBroadcastReachesAllSessions(t *testing.T) {
	mgr := NewSessionManager("/chat", SessionManagerOptions{})
	_, _, clientA := pipeSession(t, mgr)
	_, _, clientB := pipeSession(t, mgr)

	require.NoError(t, mgr.Broadcast(TextMessage, []byte("hi")))

	for _, c := range []*Conn{clientA, clientB} {
		mt, data, err := c.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, TextMessage, mt)
		assert.Equal(t, "hi", string(data))
	}
}

func TestSessionManagerBroadpingReportsPerSession(t *testing.T) {
	mgr := NewSessionManager("/chat", SessionManagerOptions{WaitTime: 200 * time.Millisecond})
	_, _, responsive := pipeSession(t, mgr)
	_, behaviorQuiet, quiet := pipeSession(t, mgr)
	_ = behaviorQuiet

	// Pumping a read on the responsive client lets its default ping
	// handler reply with a Pong automatically; the quiet client never
	// reads, so its Ping write itself times out against WaitTime.
	go func() { _, _, _ = responsive.ReadMessage() }()
	_ = quiet

	results := mgr.Broadping([]byte("ping"))
	assert.Len(t, results, 2)
	var sawTrue, sawFalse bool
	for _, ok := range results {
		if ok {
			sawTrue = true
		} else {
			sawFalse = true
		}
	}
	assert.True(t, sawTrue, "responsive session should report true")
	assert.True(t, sawFalse, "silent session should report false")
}

func TestSessionManagerRemoveUnregisters(t *testing.T) {
	mgr := NewSessionManager("/chat", SessionManagerOptions{})
	session, _, clientConn := pipeSession(t, mgr)

	require.NoError(t, clientConn.WriteControl(CloseMessage, FormatCloseMessage(CloseNormalClosure, ""), time.Now().Add(time.Second)))

	assert.Eventually(t, func() bool {
		_, ok := mgr.Get(session.ID)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestSessionManagerStopClosesSessions(t *testing.T) {
	mgr := NewSessionManager("/chat", SessionManagerOptions{WaitTime: 10 * time.Millisecond})
	_, behavior, _ := pipeSession(t, mgr)

	mgr.Stop(CloseGoingAway, "shutting down")
	assert.Equal(t, ManagerStopped, mgr.State())

	select {
	case <-behavior.closeSig:
	case <-time.After(time.Second):
		t.Fatal("OnClose not called after Stop")
	}

	// Stop is idempotent.
	mgr.Stop(CloseGoingAway, "shutting down again")
	assert.Equal(t, ManagerStopped, mgr.State())
}

func TestSessionManagerStopAwaitsWaitTime(t *testing.T) {
	mgr := NewSessionManager("/chat", SessionManagerOptions{WaitTime: 50 * time.Millisecond})
	_, _, _ = pipeSession(t, mgr)

	start := time.Now()
	mgr.Stop(CloseGoingAway, "shutting down")
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, ManagerStopped, mgr.State())
}

func TestSessionManagerRejectsAddAfterShutdown(t *testing.T) {
	mgr := NewSessionManager("/chat", SessionManagerOptions{WaitTime: 10 * time.Millisecond})
	mgr.Stop(CloseNormalClosure, "")

	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	conn := newConn(serverSide, true, 0, 0)
	mgr.add(&Session{ID: "deadbeef", Conn: conn})
	assert.Equal(t, 0, mgr.Count())
}

func TestSessionManagerSweepClosesIdleSessions(t *testing.T) {
	mgr := NewSessionManager("/chat", SessionManagerOptions{KeepClean: true, WaitTime: 10 * time.Millisecond})
	session, behavior, _ := pipeSession(t, mgr)

	time.Sleep(20 * time.Millisecond)
	mgr.Sweep()

	select {
	case <-behavior.closeSig:
	case <-time.After(time.Second):
		t.Fatal("Sweep did not close idle session")
	}
	_, ok := mgr.Get(session.ID)
	assert.False(t, ok)
}

func TestSessionManagerStartLaunchesSweepLoop(t *testing.T) {
	mgr := NewSessionManager("/chat", SessionManagerOptions{KeepClean: true, WaitTime: 10 * time.Millisecond})
	mgr.Start()
	_, behavior, _ := pipeSession(t, mgr)

	select {
	case <-behavior.closeSig:
	case <-time.After(time.Second):
		t.Fatal("background sweep loop did not reclaim idle session")
	}

	mgr.Stop(CloseNormalClosure, "")
}
