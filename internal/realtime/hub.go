// Package realtime is the in-memory registry of connected terminal
// sockets and the best-effort fan-out bus over them. Grounded on the
// teacher's internal/websocket Hub/Client pair, generalized from a
// DeviceID-only registry to one that also carries a server-resolved
// role and optional terminal binding.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// peer is one connected socket's registry entry.
type peer struct {
	clientID    string
	terminalID  string
	role        string
	send        chan []byte
	connectedAt time.Time
}

// Filter narrows a broadcast to a role and/or excludes the
// originating client, so an action's own terminal doesn't get an echo
// of its own event.
type Filter struct {
	Role            string
	ExcludeClientID string
}

func (f *Filter) matches(p *peer) bool {
	if f == nil {
		return true
	}
	if f.Role != "" && p.role != f.Role {
		return false
	}
	if f.ExcludeClientID != "" && p.clientID == f.ExcludeClientID {
		return false
	}
	return true
}

// frame is the wire shape every broadcast and targeted send takes:
// {event, data, timestamp}.
type frame struct {
	Event     string `json:"event"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// Hub tracks connected peers and fans out events to them. Semantics
// are best-effort and fire-and-forget: a dead or slow socket is
// dropped silently rather than blocking the broadcaster.
type Hub struct {
	mu    sync.RWMutex
	peers map[string]*peer

	register   chan *peer
	unregister chan *peer
	done       chan struct{}
}

// NewHub builds an idle Hub. Call Run in a goroutine to start its
// event loop.
func NewHub() *Hub {
	return &Hub{
		peers:      make(map[string]*peer),
		register:   make(chan *peer),
		unregister: make(chan *peer),
		done:       make(chan struct{}),
	}
}

// Run is the hub's single-goroutine owner of the peers map; all
// registration traffic funnels through these channels so map access
// never needs external synchronization beyond the mutex snapshot reads
// Broadcast/SendToTerminal take.
func (h *Hub) Run() {
	for {
		select {
		case p := <-h.register:
			h.mu.Lock()
			if old, ok := h.peers[p.clientID]; ok {
				close(old.send)
			}
			h.peers[p.clientID] = p
			h.mu.Unlock()
			log.Printf("📱 realtime: client connected (terminal=%s role=%s)", p.terminalID, p.role)

		case p := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.peers[p.clientID]; ok && existing == p {
				delete(h.peers, p.clientID)
				close(p.send)
			}
			h.mu.Unlock()
			log.Printf("📴 realtime: client disconnected (terminal=%s)", p.terminalID)

		case <-h.done:
			return
		}
	}
}

// Stop ends the hub's event loop. Existing peer connections are left
// for their own read/write pumps to unwind.
func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast sends event/data to every connected peer matching filter
// (nil filter matches everyone). Callers MUST invoke this after the
// enclosing business transaction commits, never inside it, so a
// rolled-back write never produces a broadcast (testable property
// #10).
func (h *Hub) Broadcast(event string, data any, filter *Filter) {
	payload, err := json.Marshal(frame{Event: event, Data: data, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		log.Printf("⚠️ realtime: marshal broadcast %s failed: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.peers {
		if !filter.matches(p) {
			continue
		}
		select {
		case p.send <- payload:
		default:
			// Buffer full or socket dead; drop rather than block the broadcaster.
		}
	}
}

// SendToTerminal sends event/data to the peer currently bound to
// terminalID, if any is connected. Returns false if no such peer is
// registered.
func (h *Hub) SendToTerminal(terminalID, event string, data any) bool {
	payload, err := json.Marshal(frame{Event: event, Data: data, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		log.Printf("⚠️ realtime: marshal send %s failed: %v", event, err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.peers {
		if p.terminalID == terminalID {
			select {
			case p.send <- payload:
				return true
			default:
				return false
			}
		}
	}
	return false
}

// ConnectedCount reports how many peers are currently registered, for
// the diagnostics surface.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}
