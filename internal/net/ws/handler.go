package ws

import (
	"context"
	"errors"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moxitooo/zzzmeika/internal/net/proto"
	"github.com/moxitooo/zzzmeika/internal/telemetry"
	"github.com/moxitooo/zzzmeika/server"
)

// Hub is the part of the session hub the websocket handler drives.
type Hub interface {
	Connect(ctx context.Context, conn server.Conn) string
	HandleFrame(ctx context.Context, id string, payload []byte)
	Disconnect(ctx context.Context, id, reason string) bool
}

type HandlerConfig struct {
	Logger telemetry.Logger
	Conn   ConnConfig
}

type Handler struct {
	hub      Hub
	logger   telemetry.Logger
	conn     ConnConfig
	upgrader websocket.Upgrader
}

func NewHandler(hub Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.NopLogger()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:      hub,
		logger:   logger,
		conn:     cfg.Conn.normalized(),
		upgrader: upgrader,
	}
}

// Handle upgrades the request and runs the session until the socket closes.
// The optional codec query parameter selects json (default) or msgpack.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	codec, ok := proto.CodecByName(r.URL.Query().Get("codec"))
	if !ok {
		nethttp.Error(w, "unsupported codec", nethttp.StatusBadRequest)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}

	conn := newConn(wsConn, codec, h.conn, h.logger)
	go conn.writePump()

	ctx := context.WithoutCancel(r.Context())
	id := h.hub.Connect(ctx, conn)
	reason := h.readLoop(ctx, id, wsConn)
	h.hub.Disconnect(ctx, id, reason)
}

// readLoop feeds frames to the hub until the peer goes away and returns the
// disconnect reason.
func (h *Handler) readLoop(ctx context.Context, id string, wsConn *websocket.Conn) string {
	wsConn.SetReadLimit(h.conn.MaxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(h.conn.PongWait))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(h.conn.PongWait))
	})

	for {
		_, payload, err := wsConn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return "closed"
			}
			h.logger.Printf("read from %s failed: %v", id, err)
			return "read_error"
		}
		h.hub.HandleFrame(ctx, id, payload)
	}
}
