package sync_stream

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/m04kA/SMC-WashSync/internal/connectivity"
	"github.com/m04kA/SMC-WashSync/internal/service/syncengine"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer события сверх буфера отбрасываются для медленного клиента
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// подключается только локальная оболочка приложения
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	engine       SyncEngine
	connectivity Connectivity
	logger       Logger
}

func NewHandler(engine SyncEngine, connectivity Connectivity, logger Logger) *Handler {
	return &Handler{
		engine:       engine,
		connectivity: connectivity,
		logger:       logger,
	}
}

// Handle GET /api/v1/sync/stream
// WebSocket: сначала текущее состояние, затем каждое изменение синхронизации и сети.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("GET /sync/stream - Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan Event, sendBuffer)
	push := func(e Event) {
		select {
		case send <- e:
		default:
			h.logger.Warn("GET /sync/stream - Client is slow, dropping %s event", e.Type)
		}
	}

	push(syncEvent(h.engine.Status()))
	push(connectivityEvent(h.connectivity.State()))

	unsubConn := h.connectivity.Subscribe(func(s connectivity.State) { push(connectivityEvent(s)) })
	defer unsubConn()
	unsubSync := h.engine.Subscribe(func(s syncengine.Status) { push(syncEvent(s)) })
	defer unsubSync()

	h.logger.Info("GET /sync/stream - Client connected: remote=%s", r.RemoteAddr)

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, send, done)

	h.logger.Info("GET /sync/stream - Client disconnected: remote=%s", r.RemoteAddr)
}

// readPump читает только control-фреймы и закрывает done при разрыве
func (h *Handler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("GET /sync/stream - Read error: %v", err)
			}
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, send <-chan Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				h.logger.Warn("GET /sync/stream - Write error: %v", err)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
