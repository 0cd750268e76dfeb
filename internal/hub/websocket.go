package hub

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/mindmesh-ai/companion-hub/internal/model"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
	"github.com/mindmesh-ai/companion-hub/pkg/metrics"
)

const writeTimeout = 10 * time.Second

// WebSocketHandler upgrades HTTP requests to hub connections. Identity
// is supplied once at handshake via the user_id query parameter; the hub
// has no authentication step of its own — identity verification belongs
// to the gateway in front of it.
type WebSocketHandler struct {
	registry  *Registry
	router    *Router
	readLimit int64
	logger    *logger.Logger
}

// NewWebSocketHandler creates the hub's HTTP entry point.
func NewWebSocketHandler(registry *Registry, router *Router, readLimit int64, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		registry:  registry,
		router:    router,
		readLimit: readLimit,
		logger:    log,
	}
}

// wsSocket adapts websocket.Conn to the hub's Socket interface.
type wsSocket struct {
	conn *websocket.Conn
}

func (s *wsSocket) Send(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return s.conn.Write(writeCtx, websocket.MessageText, data)
}

func (s *wsSocket) Close(reason string) error {
	return s.conn.Close(websocket.StatusNormalClosure, reason)
}

// ServeHTTP accepts the websocket, registers the connection, and runs
// the read loop until the client goes away.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("failed to accept websocket",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return
	}
	ws.SetReadLimit(h.readLimit)

	log := h.logger.WithConnection(userID)
	log.Info("hub connection accepted", zap.String("remote_addr", r.RemoteAddr))

	sock := &wsSocket{conn: ws}
	conn := h.registry.Register(userID, sock)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	defer func() {
		// Unregister ends any call this user participates in; the peer
		// gets a call_ended. A connection that lost the last-writer-wins
		// race leaves the replacement untouched.
		h.router.Disconnect(context.WithoutCancel(ctx), userID, conn)
		_ = ws.Close(websocket.StatusNormalClosure, "session ended")
	}()

	h.readLoop(ctx, ws, userID, log)
}

// readLoop is the single per-connection worker: it preserves per-sender
// frame ordering and feeds the router one envelope at a time.
func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, userID string, log *logger.Logger) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				log.Info("hub connection closed")
			} else {
				log.Info("hub connection read error", zap.Error(err))
			}
			return
		}

		env, err := model.ParseEnvelope(data, userID)
		if err != nil {
			// Malformed frames are dropped and logged, never fatal.
			metrics.RecordDrop("malformed")
			log.Warn("dropping malformed frame", zap.Error(err))
			continue
		}

		h.router.Route(ctx, env)
	}
}
