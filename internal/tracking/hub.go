package tracking

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// writeWait bounds every websocket write. Broadcast runs inside the poll
// tick, so a client that stops draining its socket must be dropped rather
// than allowed to block the tick.
const writeWait = 10 * time.Second

// Hub fans the latest snapshot list out to connected dashboard clients
// after every completed poll tick.
type Hub struct {
	upgrader  websocket.Upgrader
	log       *zap.Logger
	writeWait time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:       log,
		writeWait: writeWait,
		clients:   make(map[*websocket.Conn]struct{}),
	}
}

// ServeWS upgrades the request and registers the client. The latest known
// snapshots are pushed immediately so a new dashboard renders without
// waiting for the next tick.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, snapshots []Snapshot) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go h.readPump(conn)

	if data, err := json.Marshal(snapshots); err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(conn)
		}
	}
}

// Broadcast sends the snapshot list to every client, dropping connections
// that fail to write.
func (h *Hub) Broadcast(snapshots []Snapshot) {
	data, err := json.Marshal(snapshots)
	if err != nil {
		h.log.Error("Failed to encode snapshots for broadcast", zap.Error(err))
		return
	}

	h.mu.Lock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// ClientCount returns the number of connected dashboard clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) readPump(conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
