package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/CageChen/folderchat/internal/metrics"
	"github.com/CageChen/folderchat/internal/protocol"
	"github.com/CageChen/folderchat/internal/watcher"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: localOrigin,
}

// localOrigin accepts non-browser clients, pages served from loopback hosts
// and pages served by this server itself.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return u.Host == r.Host
}

// WSHandler pushes change notifications to connected clients
type WSHandler struct {
	clients map[*websocket.Conn]*sync.Mutex
	mu      sync.RWMutex
	logger  zerolog.Logger
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		logger:  logger.With().Str("component", "ws").Logger(),
	}
}

// HandleWS handles WebSocket upgrade and connection
func (h *WSHandler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("upgrade failed")
		return
	}
	defer func() {
		h.removeClient(conn)
		_ = conn.Close()
	}()

	h.addClient(conn)

	// Clients never send anything meaningful; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// OnFileChange is registered with the watcher and broadcasts each event.
func (h *WSHandler) OnFileChange(event watcher.Event) {
	h.broadcast(protocol.ChangeEvent{
		Type: "fileChange",
		Payload: protocol.ChangePayload{
			Event: event.Type.String(),
			Path:  event.Path,
		},
	})
}

// ClientCount returns the number of connected clients.
func (h *WSHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WSHandler) addClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = &sync.Mutex{}
	metrics.WSClientConnected()
}

func (h *WSHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		metrics.WSClientDisconnected()
	}
}

func (h *WSHandler) broadcast(msg protocol.ChangeEvent) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	type client struct {
		conn *websocket.Conn
		mu   *sync.Mutex
	}
	h.mu.RLock()
	clients := make([]client, 0, len(h.clients))
	for conn, mu := range h.clients {
		clients = append(clients, client{conn, mu})
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		cl.mu.Lock()
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := cl.conn.WriteMessage(websocket.TextMessage, data)
		cl.mu.Unlock()
		if err != nil {
			h.logger.Debug().Err(err).Msg("dropping client")
			h.removeClient(cl.conn)
		}
	}
}
