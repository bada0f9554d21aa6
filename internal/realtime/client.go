package realtime

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RoleResolver resolves a terminal's role from its registry record at
// connect time — never trusted from the client, unlike the teacher's
// client-supplied DEVICE_IDENTIFY handshake.
type RoleResolver func(terminalID string) (role string, ok bool)

// Serve upgrades r to a WebSocket and registers it with hub. terminalID
// may be empty for an anonymous listener (e.g. an admin dashboard); if
// given, its role is resolved via resolveRole and the connection is
// rejected if the terminal is unknown.
func Serve(hub *Hub, resolveRole RoleResolver, w http.ResponseWriter, r *http.Request, clientID, terminalID string) {
	role := ""
	if terminalID != "" {
		resolved, ok := resolveRole(terminalID)
		if !ok {
			http.Error(w, "unknown terminal", http.StatusUnauthorized)
			return
		}
		role = resolved
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️ realtime: upgrade failed: %v", err)
		return
	}

	p := &peer{
		clientID:    clientID,
		terminalID:  terminalID,
		role:        role,
		send:        make(chan []byte, 256),
		connectedAt: time.Now(),
	}

	hub.register <- p

	go writePump(conn, p)
	go readPump(hub, conn, p)
}

// readPump drains inbound frames (pings aside, the hub does not act on
// client-sent messages today) until the socket errors or closes, then
// unregisters the peer.
func readPump(hub *Hub, conn *websocket.Conn, p *peer) {
	defer func() {
		select {
		case hub.unregister <- p:
		case <-hub.done:
		}
		conn.Close()
	}()
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ realtime: read error: %v", err)
			}
			return
		}
	}
}

// writePump relays queued frames to the socket and keeps it alive
// with periodic pings.
func writePump(conn *websocket.Conn, p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-p.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
