// Package ws streams live dashboard rollups to connected clients.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dobprotocol/doblink/internal/services"
)

// Broadcaster fans a refreshed rollup out to every connected dashboard
// over websocket. Dead connections are dropped on write failure.
type Broadcaster struct {
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
}

// NewBroadcaster returns a Broadcaster with no connected clients.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[*websocket.Conn]struct{}),
		// Dashboards are served from their own origin; the embed never
		// connects here, so any origin is accepted.
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// BroadcastRollup sends the rollup to all connected clients.
func (b *Broadcaster) BroadcastRollup(rollup services.ScopeRollup) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg, err := json.Marshal(rollup)
	if err != nil {
		log.Printf("failed to marshal rollup: %v", err)
		return
	}
	for c := range b.clients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("websocket write error: %v", err)
			c.Close()
			delete(b.clients, c)
		}
	}
}

// Handler returns an http.HandlerFunc that accepts websocket connections.
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()

		// Reads are discarded; the connection exists only for pushes.
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
