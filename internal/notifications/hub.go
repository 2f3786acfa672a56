package notifications

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// Event names pushed to subscribed dashboards and candidates.
const (
	EventOfferSent    = "offer.sent"
	EventOfferRevoked = "offer.revoked"
	EventSlotAccepted = "slot.accepted"
)

// Event represents a payload delivered to subscribers. Payload carries the
// persisted notification body when one exists.
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fan-outs staffing events to connected subscribers keyed by principal id.
// Delivery is best-effort: slow subscribers drop events rather than block the
// publisher, so a stalled dashboard can never delay an acceptance.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

// NewHub constructs a notification hub instance.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
	}
}

// Serve upgrades the HTTP connection to a WebSocket and registers the subscriber.
func (h *Hub) Serve(principalID string, w http.ResponseWriter, r *http.Request) {
	server := websocket.Server{
		Handshake: func(config *websocket.Config, req *http.Request) error {
			config.Protocol = append(config.Protocol, "json")
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			_ = conn.SetDeadline(time.Now().Add(5 * time.Minute))
			cl := &client{
				conn: conn,
				send: make(chan Event, 16),
			}

			h.addClient(principalID, cl)
			defer h.removeClient(principalID, cl)

			go h.writeLoop(cl)
			h.readLoop(cl)
		},
	}

	server.ServeHTTP(w, r)
}

// Broadcast delivers an event to all subscribers for the provided principal.
func (h *Hub) Broadcast(principalID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[principalID] {
		select {
		case client.send <- event:
		default:
			// Drop if buffer full to avoid blocking all clients.
		}
	}
}

// BroadcastMany delivers an event to each supplied principal.
func (h *Hub) BroadcastMany(principalIDs []string, event Event) {
	for _, id := range principalIDs {
		h.Broadcast(id, event)
	}
}

func (h *Hub) addClient(principalID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[principalID] == nil {
		h.clients[principalID] = make(map[*client]struct{})
	}
	h.clients[principalID][cl] = struct{}{}
}

func (h *Hub) removeClient(principalID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients := h.clients[principalID]; clients != nil {
		delete(clients, cl)
		if len(clients) == 0 {
			delete(h.clients, principalID)
		}
	}
	close(cl.send)
	_ = cl.conn.Close()
}

func (h *Hub) writeLoop(cl *client) {
	for event := range cl.send {
		if err := websocket.JSON.Send(cl.conn, event); err != nil {
			break
		}
	}
}

func (h *Hub) readLoop(cl *client) {
	defer cl.conn.Close()

	for {
		var payload interface{}
		if err := websocket.JSON.Receive(cl.conn, &payload); err != nil {
			break
		}
	}
}
