package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// ClientCounter reports the number of connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler serves liveness and build information.
type HealthHandler struct {
	version   string
	startedAt time.Time
	hub       ClientCounter
	logger    *slog.Logger
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(version string, hub ClientCounter, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		version:   version,
		startedAt: time.Now(),
		hub:       hub,
		logger:    logger.With(slog.String("component", "health_handler")),
	}
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":  "healthy",
		"version": h.version,
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
	}
	if h.hub != nil {
		payload["websocket_clients"] = h.hub.ClientCount()
	}
	render.JSON(w, r, payload)
}
