package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sentinel/core"
)

// Hub maintains the set of live websocket clients and fans accepted alerts
// out to them. A client that cannot keep up is dropped.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	logger     *zap.SugaredLogger
	mu         sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     logger,
	}
}

// Run processes registration and broadcast events until stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Debugw("Websocket client connected", "remote", c.conn.RemoteAddr())

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()

		case <-stop:
			h.shutdown()
			return
		}
	}
}

// shutdown closes every client connection, then keeps serving unregister
// until each read pump has checked out. Returning before that would leave
// read pumps blocked on the channel forever.
func (h *Hub) shutdown() {
	h.mu.Lock()
	for c := range h.clients {
		c.conn.Close()
	}
	remaining := len(h.clients)
	h.mu.Unlock()

	for remaining > 0 {
		c := <-h.unregister
		h.mu.Lock()
		if h.clients[c] {
			delete(h.clients, c)
			close(c.send)
			remaining--
		}
		h.mu.Unlock()
	}
}

// BroadcastAlert sends an accepted alert to every connected client.
func (h *Hub) BroadcastAlert(alert *core.Alert) {
	message, err := json.Marshal(map[string]interface{}{"type": "alert", "payload": alert})
	if err != nil {
		h.logger.Errorw("Failed to marshal alert for broadcast", "alert_id", alert.AlertID, "error", err)
		return
	}
	select {
	case h.broadcast <- message:
	default:
		// Hub backlog full; the live stream is best-effort.
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleAlertStream upgrades the connection and attaches it to the hub.
func (a *API) handleAlertStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Errorw("Websocket upgrade failed", "error", err)
		return
	}
	c := &client{hub: a.hub, conn: conn, send: make(chan []byte, 32)}
	a.hub.register <- c
	go c.writePump()
	go c.readPump()
}
