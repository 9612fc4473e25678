// Package websocket streams pipeline progress to browser clients. The Hub
// fans broadcast messages out to every registered client; slow clients are
// disconnected rather than allowed to back up the hub.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"mavecli/internal/operations"
)

// Message type constants understood by the frontend.
const (
	TypeConnection = "connection"
	TypeStepUpdate = "step:update"
	TypeRunUpdate  = "run:update"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	quit    chan struct{}
	running bool
}

// NewHub creates a hub. Call Start before registering clients.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start launches the hub loop.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("client registered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", count))

			welcome, err := json.Marshal(map[string]any{
				"type":      TypeConnection,
				"data":      map[string]any{"status": "connected", "client_id": client.id},
				"timestamp": time.Now().Format(time.RFC3339),
			})
			if err == nil {
				select {
				case client.send <- welcome:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("client unregistered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", count),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					h.mu.Lock()
					close(client.send)
					delete(h.clients, client)
					h.mu.Unlock()
					h.logger.Warn("client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}
		}
	}
}

// BroadcastUpdate implements operations.Broadcaster: it pushes a step status
// change to every connected client.
func (h *Hub) BroadcastUpdate(runID, stepID string, status operations.StepStatus, message string) {
	h.broadcastJSON(map[string]any{
		"type": TypeStepUpdate,
		"data": map[string]any{
			"run_id":  runID,
			"step":    stepID,
			"status":  status,
			"message": message,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// BroadcastRun pushes a whole-run status update.
func (h *Hub) BroadcastRun(runID, status string) {
	h.broadcastJSON(map[string]any{
		"type": TypeRunUpdate,
		"data": map[string]any{
			"run_id": runID,
			"status": status,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Hub) broadcastJSON(message map[string]any) {
	jsonData, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("error marshaling message", slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- jsonData:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
