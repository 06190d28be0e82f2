package websocket

import (
	"log/slog"
	"sync"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
	"github.com/lorrc/dispatch-analytics/internal/infrastructure/metrics"
)

// Hub maintains the set of active Clients and broadcasts messages to them.
type Hub struct {
	// clients holds every open dashboard connection
	clients map[*Client]bool

	// Rooms maps dataset kinds to the clients following that dataset
	rooms map[domain.DatasetKind]map[*Client]bool

	// Broadcast channel for events
	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// mu protects the clients and rooms maps
	mu sync.RWMutex

	// logger for the hub
	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[domain.DatasetKind]map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast sends an event to the hub's internal broadcast channel.
// This method implements the ports.EventBroadcaster interface.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
		return nil
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"dataset_kind", event.Kind,
		)
		return nil
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	// Subscriptions requested at connect time join their rooms now.
	for _, kind := range client.GetSubscriptions() {
		if h.rooms[kind] == nil {
			h.rooms[kind] = make(map[*Client]bool)
		}
		h.rooms[kind][client] = true
	}
	metrics.WebSocketClients.Set(float64(len(h.clients)))

	h.logger.Info("client registered",
		"client_id", client.ID,
		"total_connections", len(h.clients),
	)
}

// unregisterClient removes a client from the hub and all rooms
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	for _, kind := range client.GetSubscriptions() {
		if room, ok := h.rooms[kind]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, kind)
			}
		}
	}

	client.CloseSend()
	metrics.WebSocketClients.Set(float64(len(h.clients)))

	h.logger.Info("client unregistered",
		"client_id", client.ID,
	)
}

// broadcastEvent sends a dataset event to the clients following that
// dataset. Events without a kind go to every client.
func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	targets := h.clients
	if event.Kind != "" {
		targets = h.rooms[event.Kind]
	}

	// Copy the client list to avoid holding the lock while sending
	clients := make([]*Client, 0, len(targets))
	for client := range targets {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"dataset_kind", event.Kind,
		"client_count", len(clients),
	)

	for _, client := range clients {
		select {
		case client.Send <- event:
		default:
			// Unregister directly: this goroutine also serves the Unregister channel.
			h.logger.Warn("client send buffer full, unregistering",
				"client_id", client.ID,
			)
			h.unregisterClient(client)
		}
	}
}

// subscribe adds a client to a dataset's room
func (h *Hub) subscribe(client *Client, kind domain.DatasetKind) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	if h.rooms[kind] == nil {
		h.rooms[kind] = make(map[*Client]bool)
	}
	h.rooms[kind][client] = true
	client.AddSubscription(kind)

	h.logger.Debug("client subscribed to dataset",
		"client_id", client.ID,
		"dataset_kind", kind,
	)
}

// unsubscribe removes a client from a dataset's room
func (h *Hub) unsubscribe(client *Client, kind domain.DatasetKind) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[kind]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, kind)
		}
	}
	client.RemoveSubscription(kind)

	h.logger.Debug("client unsubscribed from dataset",
		"client_id", client.ID,
		"dataset_kind", kind,
	)
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetClientsInRoom returns the number of clients following a dataset
func (h *Hub) GetClientsInRoom(kind domain.DatasetKind) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[kind])
}
