package http

import (
	"log/slog"
	"net/http"

	gorilla "github.com/gorilla/websocket"

	"salespulse/internal/infrastructure"
	"salespulse/internal/websocket"
)

// WebSocketHandler upgrades requests and attaches them to the event hub
type WebSocketHandler struct {
	hub            *websocket.Hub
	upgrader       gorilla.Upgrader
	allowedOrigins map[string]bool
	logger         *slog.Logger
}

// NewWebSocketHandler creates a handler accepting the given origins. Requests
// without an Origin header are same-origin and always accepted.
func NewWebSocketHandler(hub *websocket.Hub, allowedOrigins []string, readBuffer, writeBuffer int, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:            hub,
		allowedOrigins: make(map[string]bool, len(allowedOrigins)),
		logger:         logger.With(slog.String("handler", "websocket")),
	}
	for _, o := range allowedOrigins {
		h.allowedOrigins[o] = true
	}

	h.upgrader = gorilla.Upgrader{
		ReadBufferSize:  readBuffer,
		WriteBufferSize: writeBuffer,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigins["*"] || h.allowedOrigins[origin] {
		return true
	}

	h.logger.WarnContext(r.Context(), "WebSocket origin check - origin not allowed",
		slog.String("origin", origin))
	return false
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered
		return
	}

	client := websocket.Serve(h.hub, websocket.WrapConn(conn), infrastructure.GetTraceID(r.Context()), h.logger)
	h.logger.InfoContext(r.Context(), "WebSocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))
}
