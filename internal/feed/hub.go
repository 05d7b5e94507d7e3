// Package feed streams AI activity events to dashboard clients over
// WebSocket. Broadcasting is non-blocking: a slow client gets dropped
// rather than stalling the pipeline.
package feed

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Amitabh1998/sre-ai/internal/database"
)

const (
	writeWait      = 10 * time.Second
	clientBufferSz = 16
)

// ActivityEvent is the wire shape of one feed message
type ActivityEvent struct {
	Type        string    `json:"type"`
	IncidentID  *uint     `json:"incident_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Details     []string  `json:"details"`
	IsLive      bool      `json:"is_live"`
	Timestamp   time.Time `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans AI activity events out to connected WebSocket clients
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Dashboard origins are enforced by the CORS layer
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}
}

// HandleWebSocket upgrades the request and streams feed events until the
// client disconnects
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Feed websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, clientBufferSz),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("Feed client connected (%d total)", h.ClientCount())

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		// Clients don't send anything meaningful; reading drives
		// disconnect detection
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// BroadcastActivity pushes an activity-feed entry to every connected
// client. Clients whose buffers are full are disconnected.
func (h *Hub) BroadcastActivity(activity *database.AIActivity) {
	event := ActivityEvent{
		Type:        string(activity.Type),
		IncidentID:  activity.IncidentID,
		Title:       activity.Title,
		Description: activity.Description,
		Details:     activity.Details,
		IsLive:      activity.IsLive,
		Timestamp:   activity.Timestamp,
	}
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode feed event: %v", err)
		return
	}

	h.mu.RLock()
	var stalled []*client
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		log.Printf("Dropping stalled feed client")
		h.remove(c)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}
