package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/NotCoffee418/energy_monitor/pkg/loader"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// wsHub tracks connected clients for snapshot broadcasts.
type wsHub struct {
	clients map[*wsClient]bool
	mu      sync.RWMutex
	logger  *zap.Logger
}

func newHub(logger *zap.Logger) *wsHub {
	return &wsHub{
		clients: make(map[*wsClient]bool),
		logger:  logger,
	}
}

func (h *wsHub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *wsHub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

func (h *wsHub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *wsHub) broadcast(snap loader.Snapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("failed to encode snapshot", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(msg); err != nil {
			h.remove(c)
		}
	}
}

func (h *wsHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{conn: conn}
	s.hub.add(client)

	// Send the current state immediately
	if msg, err := json.Marshal(s.engine.Snapshot()); err == nil {
		if err := client.write(msg); err != nil {
			s.hub.remove(client)
			return
		}
	}

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.remove(client)
			break
		}
	}
}
