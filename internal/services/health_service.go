package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	api "salespulse/pkg/contracts/api/v1"
)

// ReadyMessage is served at the root path
const ReadyMessage = "Pizza Analytics API is running!"

// UploadCounter reports how many uploads are held
type UploadCounter interface {
	Len() int
}

// ClientCounter reports connected event subscribers
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	uploads   UploadCounter
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status           string                 `json:"status"`
	Timestamp        time.Time              `json:"timestamp"`
	Version          string                 `json:"version"`
	Uploads          int                    `json:"uploads"`
	Uptime           string                 `json:"uptime"`
	WebSocketClients int                    `json:"websocket_clients"`
	Runtime          map[string]interface{} `json:"runtime,omitempty"`
}

// NewHealthService creates a new health service. clients may be nil when
// the websocket hub is disabled.
func NewHealthService(version string, uploads UploadCounter, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version))

	return &HealthService{
		version:   version,
		uploads:   uploads,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Ready returns the root readiness payload
func (hs *HealthService) Ready(ctx context.Context) api.StatusResponse {
	return api.StatusResponse{Status: "ready", Message: ReadyMessage}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Uptime:    time.Since(hs.startTime).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
	if hs.uploads != nil {
		status.Uploads = hs.uploads.Len()
	}
	if hs.clients != nil {
		status.WebSocketClients = hs.clients.ClientCount()
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status),
		slog.Int("uploads", status.Uploads))

	return status
}
