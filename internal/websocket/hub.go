package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/events"
)

// ErrHubStopped is returned when publishing to a stopped hub
var ErrHubStopped = errors.New("websocket hub stopped")

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	logger *slog.Logger

	totalConnections atomic.Int64
	messagesSent     atomic.Int64
	clientCount      atomic.Int64

	mu      sync.Mutex
	running bool
	quit    chan struct{}
	done    chan struct{}
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in a new goroutine. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop ends the hub loop and disconnects every client
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			for client := range h.clients {
				h.remove(client)
			}
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.totalConnections.Add(1)
			h.clientCount.Store(int64(len(h.clients)))

			h.logger.InfoContext(client.context(), "client registered",
				slog.Int("total_clients", len(h.clients)),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				h.logger.InfoContext(client.context(), "client unregistered",
					slog.Int("total_clients", len(h.clients)),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case message := <-h.broadcast:
			sent, dropped := 0, 0
			for client := range h.clients {
				select {
				case client.send <- message:
					sent++
				default:
					dropped++
					h.remove(client)
					h.logger.WarnContext(client.context(), "client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}
			h.messagesSent.Add(int64(sent))
			h.logger.Debug("broadcast delivered",
				slog.Int("sent", sent),
				slog.Int("dropped", dropped),
				slog.Int("message_size", len(message)))
		}
	}
}

// remove must only be called from the hub loop
func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.clientCount.Store(int64(len(h.clients)))
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Publish broadcasts an event envelope to every connected client
func (h *Hub) Publish(ctx context.Context, env events.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	select {
	case <-h.quit:
		return ErrHubStopped
	default:
	}

	select {
	case h.broadcast <- data:
		return nil
	case <-h.quit:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name identifies the hub among event publishers
func (h *Hub) Name() string {
	return "websocket"
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// Stats returns hub counters
func (h *Hub) Stats() map[string]int64 {
	return map[string]int64{
		"active_clients":    h.clientCount.Load(),
		"total_connections": h.totalConnections.Load(),
		"messages_sent":     h.messagesSent.Load(),
	}
}
