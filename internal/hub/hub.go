// Package hub fans showroom state out to connected browsers over websockets
// using the channel-based register/broadcast pattern. One shared world is
// broadcast to every client; the hub does not arbitrate per-client views.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	name string
	log  zerolog.Logger

	mu      sync.RWMutex
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	onMessage func(c *Client, data []byte)
}

func New(name string, log zerolog.Logger) *Hub {
	return &Hub{
		name:       name,
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetOnMessage registers the handler invoked for every text message a client
// sends. Must be called before Run.
func (h *Hub) SetOnMessage(fn func(c *Client, data []byte)) {
	h.onMessage = fn
}

// Run pumps registrations and broadcasts until ctx is cancelled. Call in a
// goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info().
				Str("hub", h.name).
				Str("client", client.ID).
				Int("total", count).
				Msg("Client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info().
				Str("hub", h.name).
				Str("client", client.ID).
				Int("remaining", count).
				Msg("Client disconnected")

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full: the client cannot keep up with the
					// frame stream.
					close(client.send)
					delete(h.clients, client)
					h.log.Warn().
						Str("hub", h.name).
						Str("client", client.ID).
						Msg("Dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Broadcast queues raw bytes for every client, dropping the message when the
// hub is saturated rather than blocking the render loop.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn().Str("hub", h.name).Msg("Broadcast queue full, dropping message")
	}
}

// BroadcastJSON encodes v once and broadcasts it.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal broadcast: %w", err)
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
