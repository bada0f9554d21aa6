package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestPeer(clientID, terminalID, role string) *peer {
	return &peer{
		clientID:    clientID,
		terminalID:  terminalID,
		role:        role,
		send:        make(chan []byte, 4),
		connectedAt: time.Now(),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func registerAndWait(h *Hub, p *peer) {
	h.register <- p
	// The send unblocks as soon as Run's select receives it, slightly
	// before the case body finishes updating the peers map; give it a
	// moment to land before the caller acts on the registration.
	time.Sleep(10 * time.Millisecond)
}

func TestBroadcastReachesAllPeersByDefault(t *testing.T) {
	h := startHub(t)
	kds := newTestPeer("c1", "term-kds", "kds")
	pos := newTestPeer("c2", "term-pos", "pos")
	registerAndWait(h, kds)
	registerAndWait(h, pos)

	h.Broadcast("order:status", map[string]string{"id": "o1"}, nil)

	for _, p := range []*peer{kds, pos} {
		select {
		case msg := <-p.send:
			var f frame
			require.NoError(t, json.Unmarshal(msg, &f))
			require.Equal(t, "order:status", f.Event)
		case <-time.After(time.Second):
			t.Fatal("expected broadcast message")
		}
	}
}

func TestBroadcastFilterByRole(t *testing.T) {
	h := startHub(t)
	kds := newTestPeer("c1", "term-kds", "kds")
	pos := newTestPeer("c2", "term-pos", "pos")
	registerAndWait(h, kds)
	registerAndWait(h, pos)

	h.Broadcast("order:created", map[string]string{"id": "o1"}, &Filter{Role: "kds"})

	select {
	case <-kds.send:
	case <-time.After(time.Second):
		t.Fatal("kds should have received the event")
	}
	select {
	case <-pos.send:
		t.Fatal("pos should not have received a kds-filtered event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastExcludesOriginatingClient(t *testing.T) {
	h := startHub(t)
	origin := newTestPeer("c1", "term-1", "pos")
	other := newTestPeer("c2", "term-2", "pos")
	registerAndWait(h, origin)
	registerAndWait(h, other)

	h.Broadcast("table:updated", map[string]string{}, &Filter{ExcludeClientID: "c1"})

	select {
	case <-other.send:
	case <-time.After(time.Second):
		t.Fatal("other should have received the event")
	}
	select {
	case <-origin.send:
		t.Fatal("origin should have been excluded")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendToTerminalTargetsOnePeer(t *testing.T) {
	h := startHub(t)
	p1 := newTestPeer("c1", "term-1", "pos")
	p2 := newTestPeer("c2", "term-2", "pos")
	registerAndWait(h, p1)
	registerAndWait(h, p2)

	ok := h.SendToTerminal("term-2", "drawer:opened", nil)
	require.True(t, ok)

	select {
	case <-p2.send:
	case <-time.After(time.Second):
		t.Fatal("term-2 should have received the event")
	}
	select {
	case <-p1.send:
		t.Fatal("term-1 should not have received the event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendToTerminalUnknownReturnsFalse(t *testing.T) {
	h := startHub(t)
	ok := h.SendToTerminal("ghost", "drawer:opened", nil)
	require.False(t, ok)
}

func TestReconnectClosesPreviousSocket(t *testing.T) {
	h := startHub(t)
	first := newTestPeer("c1", "term-1", "pos")
	registerAndWait(h, first)

	second := newTestPeer("c1", "term-1", "pos")
	registerAndWait(h, second)

	require.Eventually(t, func() bool {
		select {
		case _, open := <-first.send:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond, "first connection's send channel should be closed on reconnect")

	require.Equal(t, 1, h.ConnectedCount())
}

func TestConnectedCountTracksRegistrations(t *testing.T) {
	h := startHub(t)
	require.Equal(t, 0, h.ConnectedCount())
	registerAndWait(h, newTestPeer("c1", "term-1", "pos"))
	require.Eventually(t, func() bool { return h.ConnectedCount() == 1 }, time.Second, 5*time.Millisecond)
}
