package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// stationEvent is an internal struct for routing events to specific stations
type stationEvent struct {
	StationID uuid.UUID
	Event     Event
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Each station has its own room: the live pump dashboard for one station
// never sees another station's readings.
type Hub struct {
	// Registered clients by station ID
	rooms map[uuid.UUID]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *stationEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *stationEvent, 256),
	}
}

// Run starts the hub's main loop and blocks until ctx is cancelled.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.stationID] == nil {
				h.rooms[client.stationID] = make(map[*Client]bool)
			}
			h.rooms[client.stationID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.stationID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					// Clean up empty rooms
					if len(clients) == 0 {
						delete(h.rooms, client.stationID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.StationID]

			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			// Send to all clients in this station's room
			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.StationID], client)
					if len(h.rooms[event.StationID]) == 0 {
						delete(h.rooms, event.StationID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// closeAll drops every room on shutdown. Closing the send channels makes the
// write pumps send a close frame and hang up.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for stationID, clients := range h.rooms {
		for client := range clients {
			close(client.send)
		}
		delete(h.rooms, stationID)
	}
}

// BroadcastToStation sends an event to all clients subscribed to a specific
// station. This is the public API for handlers to broadcast events.
func (h *Hub) BroadcastToStation(stationID uuid.UUID, event Event) {
	h.broadcast <- &stationEvent{
		StationID: stationID,
		Event:     event,
	}
}
