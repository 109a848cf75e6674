package webservice

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gifscreen/display"
	"gifscreen/notify"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // displays connect from arbitrary LAN hosts
	},
}

// Hub pushes version updates to every connected websocket client.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast is a display.Listener.
func (h *Hub) Broadcast(snap display.Snapshot) {
	msg := notify.NewVersionMessage(snap)

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			slog.Debug("dropping websocket client", "remote", conn.RemoteAddr().String(), "error", err)
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(h.conns, conn)
	}
}

// GET /ws
func (wm *WebMaster) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("failed to upgrade to websocket", "error", err)
		return
	}
	slog.Info("websocket client connected", "remote", conn.RemoteAddr().String())

	// Register before the initial write so no version published in between is lost.
	wm.hub.mu.Lock()
	wm.hub.conns[conn] = struct{}{}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = conn.WriteJSON(notify.NewVersionMessage(wm.store.Snapshot()))
	wm.hub.mu.Unlock()
	if err != nil {
		wm.hub.remove(conn)
		return
	}

	go listenWS(wm.hub, conn)
}

// listenWS drains client messages until the connection closes.
func listenWS(h *Hub, conn *websocket.Conn) {
	defer h.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			slog.Debug("websocket read", "remote", conn.RemoteAddr().String(), "error", err)
			return
		}
	}
}
