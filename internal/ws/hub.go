// Package ws serves the realtime dashboard channel over WebSocket.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"coinwhisperer/internal/events"
	"coinwhisperer/internal/metrics"
	"coinwhisperer/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client is one connected dashboard.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected clients and fans events out to them. A client whose
// send buffer is full is dropped rather than blocking the broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	log     *logger.Logger
}

var _ events.Broadcaster = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		log:     logger.Get().With("component", "ws_hub"),
	}
}

// Broadcast queues the event for every connected client.
func (h *Hub) Broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Errorf("Failed to marshal %s event: %v", event.Type, err)
		return
	}
	metrics.EventsBroadcast.WithLabelValues(event.Type).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warnf("Client %s too slow, dropping", c.id)
			go h.remove(c.id)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handler upgrades the request and serves the client until it disconnects.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Errorf("Upgrade failed: %v", err)
			return
		}

		c := &client{
			id:   uuid.New().String(),
			conn: conn,
			send: make(chan []byte, sendBufferSize),
		}
		h.add(c)

		welcome := events.Event{
			Type: events.TypeConnection,
			Data: events.ConnectionData{
				Message:  "Connected to Coin Whisperer",
				ClientID: c.id,
			},
		}
		if data, err := json.Marshal(welcome); err == nil {
			c.send <- data
		}

		go h.writePump(c)
		go h.readPump(c)
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(count))
	h.log.Infof("Client %s connected (%d total)", c.id, count)
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		metrics.WebSocketClients.Set(float64(count))
		h.log.Infof("Client %s disconnected (%d total)", id, count)
	}
}

// readPump consumes client messages. A text "ping" gets a JSON pong reply,
// anything else is ignored.
func (h *Hub) readPump(c *client) {
	defer h.remove(c.id)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warnf("Client %s read error: %v", c.id, err)
			}
			return
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			if data, err := json.Marshal(events.Event{Type: "pong"}); err == nil {
				select {
				case c.send <- data:
				default:
				}
			}
		}
	}
}

// writePump pushes queued events and keepalive pings to the client.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(c.id)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Shutdown disconnects every client.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		h.remove(id)
	}
}
